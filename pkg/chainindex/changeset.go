package chainindex

import (
	"sort"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// ChangeSet records, per height, a block hash to adopt or nil to remove an
// existing entry at that height. It is both the output of a merge and the
// atomic unit of persistence: applying the same ChangeSet twice is a no-op
// the second time.
type ChangeSet map[uint32]*types.Hash

// sortedHeights returns the heights present in cs in ascending order.
func (cs ChangeSet) sortedHeights() []uint32 {
	heights := make([]uint32, 0, len(cs))
	for h := range cs {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	return heights
}

// Merge folds other into cs in place, with other's entries taking priority
// on height collisions.
func (cs ChangeSet) Merge(other ChangeSet) {
	for height, hash := range other {
		cs[height] = hash
	}
}

// IsEmpty reports whether the changeset has no entries.
func (cs ChangeSet) IsEmpty() bool {
	return len(cs) == 0
}

// Set records that height now maps to hash.
func (cs ChangeSet) Set(height uint32, hash types.Hash) {
	h := hash
	cs[height] = &h
}

// Clear records that height no longer has a block (invalidated).
func (cs ChangeSet) Clear(height uint32) {
	cs[height] = nil
}
