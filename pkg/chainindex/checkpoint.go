package chainindex

import (
	"fmt"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// checkpointNode is one node of the persistent, singly-linked,
// descending-height chain. Nodes are never mutated after construction;
// sharing a tail between multiple CheckPoint handles is what makes cloning
// a handle O(1). Go's garbage collector plays the role the original's
// reference-counted Arc plays: the last handle to drop a node's reference
// reclaims it, with no explicit bookkeeping required here.
type checkpointNode struct {
	block BlockId
	prev  *checkpointNode
}

// CheckPoint is a cloneable handle to a node in the chain. Copying a
// CheckPoint value is O(1) and shares the underlying nodes; it never copies
// the list.
type CheckPoint struct {
	node *checkpointNode
}

// NewCheckPoint constructs a single-node chain rooted at block.
func NewCheckPoint(block BlockId) *CheckPoint {
	return &CheckPoint{node: &checkpointNode{block: block}}
}

// FromBlockIds builds a CheckPoint from a sequence of BlockIds in strictly
// ascending height order. Returns an error if ids is empty or any height
// fails to exceed the previous one.
func FromBlockIds(ids []BlockId) (*CheckPoint, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("chainindex: FromBlockIds: empty")
	}
	acc := NewCheckPoint(ids[0])
	for _, id := range ids[1:] {
		next, err := acc.Push(id)
		if err != nil {
			return nil, fmt.Errorf("chainindex: FromBlockIds: height %d does not exceed previous: %w", id.Height, err)
		}
		acc = next
	}
	return acc, nil
}

// BlockHeader is the minimal header shape FromHeader needs. It is satisfied
// by *pkg/chainheader.BlockHeader (and by anything else shaped the same
// way) without pkg/chainindex importing pkg/chainheader directly, keeping
// the core algorithm package independent of any concrete header type.
type BlockHeader interface {
	BlockHash() types.Hash
	PrevBlockHash() types.Hash
}

// FromHeader builds a CheckPoint from a header observed at height. If
// height is 0 (genesis), the result has no prev node; otherwise it also
// links in (height-1, header.PrevBlockHash()).
func FromHeader(header BlockHeader, height uint32) *CheckPoint {
	this := BlockId{Height: height, Hash: header.BlockHash()}
	if height == 0 {
		return NewCheckPoint(this)
	}
	prev := BlockId{Height: height - 1, Hash: header.PrevBlockHash()}
	cp, err := NewCheckPoint(prev).Push(this)
	if err != nil {
		// height-1 < height always holds, so Push cannot fail here.
		panic(fmt.Sprintf("chainindex: FromHeader: unreachable push failure: %v", err))
	}
	return cp
}

// BlockId returns the (height, hash) pair at this checkpoint.
func (c *CheckPoint) BlockId() BlockId {
	return c.node.block
}

// Height returns the height at this checkpoint.
func (c *CheckPoint) Height() uint32 {
	return c.node.block.Height
}

// Hash returns the hash at this checkpoint.
func (c *CheckPoint) Hash() types.Hash {
	return c.node.block.Hash
}

// Prev returns the previous (lower-height) checkpoint, or nil if this is
// the root of the list.
func (c *CheckPoint) Prev() *CheckPoint {
	if c.node.prev == nil {
		return nil
	}
	return &CheckPoint{node: c.node.prev}
}

// Push appends block to the tip of the list, returning a new handle. It
// fails, returning the unchanged receiver, unless block.Height is strictly
// greater than this checkpoint's height.
func (c *CheckPoint) Push(block BlockId) (*CheckPoint, error) {
	if block.Height <= c.Height() {
		return c, fmt.Errorf("chainindex: push height %d does not exceed tip height %d", block.Height, c.Height())
	}
	return &CheckPoint{node: &checkpointNode{block: block, prev: c.node}}, nil
}

// Extend pushes a sequence of BlockIds in order. On the first failure, the
// original (pre-extend) handle is returned as the error's chain, preserving
// atomicity: either every block extends the list or none does.
func (c *CheckPoint) Extend(ids []BlockId) (*CheckPoint, error) {
	curr := c
	for _, id := range ids {
		next, err := curr.Push(id)
		if err != nil {
			return c, fmt.Errorf("chainindex: extend: %w", err)
		}
		curr = next
	}
	return curr, nil
}

// Update is the input to LocalChain.ApplyUpdate: a candidate new tip, plus
// whether the merge is allowed to introduce blocks older than the point of
// agreement (useful when backfilling history the local chain never held).
type Update struct {
	Tip                  *CheckPoint
	IntroduceOlderBlocks bool
}

// IntoUpdate wraps this checkpoint as an Update usable with
// LocalChain.ApplyUpdate.
func (c *CheckPoint) IntoUpdate(introduceOlderBlocks bool) Update {
	return Update{Tip: c, IntroduceOlderBlocks: introduceOlderBlocks}
}

// Iter returns the sequence of checkpoints from this handle down to the
// root, in descending-height order. The slice is materialized eagerly here
// for caller convenience; Walk should be preferred in hot paths that may
// break out early, since it does not allocate the full sequence up front.
func (c *CheckPoint) Iter() []*CheckPoint {
	var out []*CheckPoint
	c.Walk(func(cp *CheckPoint) bool {
		out = append(out, cp)
		return true
	})
	return out
}

// Walk calls fn for every checkpoint from this handle down to the root, in
// descending-height order, stopping early if fn returns false.
func (c *CheckPoint) Walk(fn func(*CheckPoint) bool) {
	for n := c.node; n != nil; n = n.prev {
		if !fn(&CheckPoint{node: n}) {
			return
		}
	}
}

// checkpointCursor is a lazy descending iterator over a CheckPoint chain,
// used by merge so it never has to materialize either side eagerly.
type checkpointCursor struct {
	next *checkpointNode
}

func newCheckpointCursor(tip *CheckPoint) *checkpointCursor {
	if tip == nil {
		return &checkpointCursor{}
	}
	return &checkpointCursor{next: tip.node}
}

// advance returns the next checkpoint in descending order, or nil if
// exhausted.
func (it *checkpointCursor) advance() *CheckPoint {
	if it.next == nil {
		return nil
	}
	n := it.next
	it.next = n.prev
	return &CheckPoint{node: n}
}
