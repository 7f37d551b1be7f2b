package chainindex

// mergeChains walks originalTip and updateTip in tandem, both in descending
// height order, and produces the minimal ChangeSet needed to transform the
// original chain into one that agrees with the update above their point of
// agreement.
//
// If introduceOlderBlocks is false, the merge stops as soon as a point of
// agreement is found, ignoring anything the update has below it. If true,
// the update's blocks below the point of agreement are also adopted
// (useful for backfilling history the original chain never held), unless
// the two sides literally share the same node below that point, in which
// case there is nothing left to do and the merge still stops early.
//
// Returns CannotConnectError if the two chains never agree on a block, or
// if they agree at a height but nothing before the disagreement proves the
// update isn't actually a conflicting, unrelated fork grafted at a
// coincidental hash match.
func mergeChains(originalTip, updateTip *CheckPoint, introduceOlderBlocks bool) (ChangeSet, error) {
	changeset := ChangeSet{}
	orig := newCheckpointCursor(originalTip)
	update := newCheckpointCursor(updateTip)

	var currOrig, currUpdate *CheckPoint
	var prevOrig, prevUpdate *CheckPoint
	pointOfAgreementFound := false
	prevOrigWasInvalidated := false
	var potentiallyInvalidatedHeights []uint32

loop:
	for {
		if currOrig == nil {
			currOrig = orig.advance()
		}
		if currUpdate == nil {
			currUpdate = update.advance()
		}

		switch {
		// Update has a block at a height the original doesn't reach (or
		// hasn't reached yet): adopt it unconditionally.
		case currUpdate != nil && (currOrig == nil || currUpdate.Height() > currOrig.Height()):
			changeset.Set(currUpdate.Height(), currUpdate.Hash())
			prevUpdate = currUpdate
			currUpdate = nil

		// Original has a block at a height the update doesn't reach: it may
		// turn out to be invalidated, depending on what happens lower down.
		case currOrig != nil && (currUpdate == nil || currOrig.Height() > currUpdate.Height()):
			potentiallyInvalidatedHeights = append(potentiallyInvalidatedHeights, currOrig.Height())
			prevOrigWasInvalidated = false
			prevOrig = currOrig
			currOrig = nil
			if currUpdate == nil {
				// The update has nothing left to possibly connect on; the
				// original's remaining tail can't be resolved either way.
				break loop
			}

		// Both sides have a block at the same height.
		case currOrig != nil && currUpdate != nil:
			if currOrig.Hash() == currUpdate.Hash() {
				if !prevOrigWasInvalidated && !pointOfAgreementFound {
					if prevOrig != nil && prevUpdate != nil {
						return nil, &CannotConnectError{TryIncludeHeight: prevOrig.Height()}
					}
				}
				pointOfAgreementFound = true
				prevOrigWasInvalidated = false
				if !introduceOlderBlocks || currOrig.node == currUpdate.node {
					return changeset, nil
				}
			} else {
				changeset.Set(currUpdate.Height(), currUpdate.Hash())
				for _, height := range potentiallyInvalidatedHeights {
					changeset.Clear(height)
				}
				potentiallyInvalidatedHeights = nil
				prevOrigWasInvalidated = true
			}
			prevUpdate = currUpdate
			prevOrig = currOrig
			currUpdate = nil
			currOrig = nil

		default: // currOrig == nil && currUpdate == nil
			break loop
		}
	}

	if !prevOrigWasInvalidated && !pointOfAgreementFound {
		if prevOrig != nil {
			return nil, &CannotConnectError{TryIncludeHeight: prevOrig.Height()}
		}
	}

	return changeset, nil
}
