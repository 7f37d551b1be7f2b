package chainindex

// ChainPosition records where some chain data (a transaction, an output) has
// been observed: either Confirmed under an anchor, or Unconfirmed with the
// unix-seconds timestamp it was last seen at (e.g. in a mempool).
//
// The zero value is Unconfirmed(0); use ConfirmedPosition/UnconfirmedPosition
// to build one explicitly.
type ChainPosition[A Anchor] struct {
	anchor      A
	lastSeen    uint64
	isConfirmed bool
}

// ConfirmedPosition returns a ChainPosition anchored to a.
func ConfirmedPosition[A Anchor](a A) ChainPosition[A] {
	return ChainPosition[A]{anchor: a, isConfirmed: true}
}

// UnconfirmedPosition returns a ChainPosition last seen at lastSeen (unix
// seconds).
func UnconfirmedPosition[A Anchor](lastSeen uint64) ChainPosition[A] {
	return ChainPosition[A]{lastSeen: lastSeen}
}

// IsConfirmed reports whether this position is Confirmed.
func (p ChainPosition[A]) IsConfirmed() bool {
	return p.isConfirmed
}

// Anchor returns the anchor and true if this position is Confirmed, or the
// zero value and false if it is Unconfirmed.
func (p ChainPosition[A]) Anchor() (A, bool) {
	return p.anchor, p.isConfirmed
}

// LastSeen returns the last-seen timestamp and true if this position is
// Unconfirmed, or 0 and false if it is Confirmed.
func (p ChainPosition[A]) LastSeen() (uint64, bool) {
	if p.isConfirmed {
		return 0, false
	}
	return p.lastSeen, true
}

// ConfirmationHeightUpperBound returns the anchor's confirmation height
// upper bound and true if Confirmed, or 0 and false if Unconfirmed.
func (p ChainPosition[A]) ConfirmationHeightUpperBound() (uint32, bool) {
	if !p.isConfirmed {
		return 0, false
	}
	return p.anchor.ConfirmationHeightUpperBound(), true
}

// Less orders Unconfirmed below Confirmed, and within each group by payload
// (last-seen timestamp, or anchor block height then anchor block hash).
func (p ChainPosition[A]) Less(other ChainPosition[A]) bool {
	if p.isConfirmed != other.isConfirmed {
		return !p.isConfirmed // Unconfirmed < Confirmed
	}
	if !p.isConfirmed {
		return p.lastSeen < other.lastSeen
	}
	pa, oa := p.anchor.AnchorBlock(), other.anchor.AnchorBlock()
	if pa.Height != oa.Height {
		return pa.Height < oa.Height
	}
	return pa.Hash.Less(oa.Hash)
}
