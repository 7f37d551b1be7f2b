package chainindex

import (
	"errors"
	"fmt"
	"sort"

	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// LocalChain is a mutable, single-owner view of the best chain: a
// CheckPoint tip plus a height-to-hash index kept consistent with it.
//
// A LocalChain is not safe for concurrent mutation; callers serialize
// writes. Readers may clone the tip via Tip() and walk it independently of
// further mutation.
type LocalChain struct {
	tip      *CheckPoint
	index    map[uint32]types.Hash
	birthday uint32
}

// FromGenesisHash builds a chain with a single checkpoint (0, hash) and
// birthday 0.
func FromGenesisHash(hash types.Hash) *LocalChain {
	return &LocalChain{
		tip:   NewCheckPoint(BlockId{Height: 0, Hash: hash}),
		index: map[uint32]types.Hash{0: hash},
	}
}

// FromBlockId builds a chain whose index contains both (0, genesisHash) and
// blockId, with birthday set to blockId.Height. The tip is a single node at
// blockId with no prev link — the genesis entry lives only in the index,
// not in the linked list — so callers that only consult the index remain
// correct.
func FromBlockId(genesisHash types.Hash, blockId BlockId) *LocalChain {
	index := map[uint32]types.Hash{0: genesisHash}
	index[blockId.Height] = blockId.Hash
	return &LocalChain{
		tip:      NewCheckPoint(blockId),
		index:    index,
		birthday: blockId.Height,
	}
}

// FromTip adopts tip as the chain, rebuilding the index from it. Fails with
// ErrMissingGenesis if tip's chain lacks a height-0 block.
func FromTip(tip *CheckPoint) (*LocalChain, error) {
	lc := &LocalChain{tip: tip, index: map[uint32]types.Hash{}}
	lc.reindex(0)
	if _, ok := lc.index[0]; !ok {
		return nil, ErrMissingGenesis
	}
	return lc, nil
}

// FromChangeset builds a chain from cs, which must map height 0 to a
// present hash. Builds the genesis chain then applies cs on top.
func FromChangeset(cs ChangeSet) (*LocalChain, error) {
	genesisHash, ok := cs[0]
	if !ok || genesisHash == nil {
		return nil, ErrMissingGenesis
	}
	lc := FromGenesisHash(*genesisHash)
	if err := lc.ApplyChangeset(cs); err != nil {
		return nil, err
	}
	return lc, nil
}

// FromBlocks builds a chain from a height-to-hash map, which must contain
// height 0, by pushing every block in ascending height order.
func FromBlocks(blocks map[uint32]types.Hash) (*LocalChain, error) {
	if _, ok := blocks[0]; !ok {
		return nil, ErrMissingGenesis
	}
	heights := make([]uint32, 0, len(blocks))
	for h := range blocks {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })

	ids := make([]BlockId, len(heights))
	for i, h := range heights {
		ids[i] = BlockId{Height: h, Hash: blocks[h]}
	}
	tip, err := FromBlockIds(ids)
	if err != nil {
		return nil, fmt.Errorf("chainindex: FromBlocks: %w", err)
	}
	return FromTip(tip)
}

// Tip returns the chain's current tip checkpoint.
func (lc *LocalChain) Tip() *CheckPoint {
	return lc.tip
}

// GenesisHash returns the hash at height 0.
func (lc *LocalChain) GenesisHash() types.Hash {
	return lc.index[0]
}

// Blocks returns a copy of the chain's height-to-hash index.
func (lc *LocalChain) Blocks() map[uint32]types.Hash {
	out := make(map[uint32]types.Hash, len(lc.index))
	for h, hash := range lc.index {
		out[h] = hash
	}
	return out
}

// IterCheckpoints returns every checkpoint from the tip to the root, in
// descending-height order.
func (lc *LocalChain) IterCheckpoints() []*CheckPoint {
	return lc.tip.Iter()
}

// InitialChangeset returns a ChangeSet that recreates this chain's current
// state when applied to an empty chain via FromChangeset.
func (lc *LocalChain) InitialChangeset() ChangeSet {
	cs := ChangeSet{}
	for h, hash := range lc.index {
		cs.Set(h, hash)
	}
	return cs
}

// Equal reports whether lc and other agree on genesis and on every height
// at or above max(lc.birthday, other.birthday). This is a pragmatic
// equivalence: history below the higher birthday is treated as
// unobservable, so equality is not transitive across chains with differing
// birthdays that disagree below that height.
func (lc *LocalChain) Equal(other *LocalChain) bool {
	if lc.index[0] != other.index[0] {
		return false
	}
	birthday := lc.birthday
	if other.birthday > birthday {
		birthday = other.birthday
	}
	seen := make(map[uint32]bool)
	for h := range lc.index {
		if h < birthday {
			continue
		}
		seen[h] = true
		if lc.index[h] != other.index[h] {
			return false
		}
	}
	for h := range other.index {
		if h < birthday || seen[h] {
			continue
		}
		if lc.index[h] != other.index[h] {
			return false
		}
	}
	return true
}

// ApplyUpdate merges update into the chain and applies the resulting
// ChangeSet. The chain is left untouched if the merge fails.
func (lc *LocalChain) ApplyUpdate(update Update) (ChangeSet, error) {
	cs, err := mergeChains(lc.tip, update.Tip, update.IntroduceOlderBlocks)
	if err != nil {
		return nil, err
	}
	if err := lc.ApplyChangeset(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// ApplyHeaderConnectedTo applies a single header observed at height,
// additionally asserting that connectedTo is a block this header's chain
// must pass through. Use this when the header was retrieved alongside
// proof that it connects to a specific ancestor lower than its immediate
// parent (e.g. a compact block filter checkpoint).
func (lc *LocalChain) ApplyHeaderConnectedTo(header BlockHeader, height uint32, connectedTo BlockId) (ChangeSet, error) {
	this := BlockId{Height: height, Hash: header.BlockHash()}

	var prev *BlockId
	if height > 0 {
		p := BlockId{Height: height - 1, Hash: header.PrevBlockHash()}
		prev = &p
	}

	redundant := connectedTo == this || (prev != nil && connectedTo == *prev)

	var ids []BlockId
	switch {
	case redundant:
		// connectedTo adds nothing beyond what this/prev already assert.
	case height == 0 || connectedTo.Height >= height-1:
		return nil, &ApplyHeaderError{Inconsistent: &InconsistentBlocksError{Header: this, ConnectsTo: connectedTo}}
	default:
		ids = append(ids, connectedTo)
	}
	if prev != nil {
		ids = append(ids, *prev)
	}
	ids = append(ids, this)

	tip, err := FromBlockIds(ids)
	if err != nil {
		return nil, fmt.Errorf("chainindex: apply header connected to: %w", err)
	}

	cs, err := lc.ApplyUpdate(tip.IntoUpdate(false))
	if err != nil {
		var cannotConnect *CannotConnectError
		if errors.As(err, &cannotConnect) {
			return nil, &ApplyHeaderError{CannotConnect: cannotConnect}
		}
		return nil, err
	}
	return cs, nil
}

// ApplyHeader applies a single header observed at height, deriving the
// connecting block from the header itself (its own hash at genesis, or its
// declared parent otherwise). InconsistentBlocksError cannot occur through
// this path.
func (lc *LocalChain) ApplyHeader(header BlockHeader, height uint32) (ChangeSet, error) {
	var connectedTo BlockId
	if height == 0 {
		connectedTo = BlockId{Height: 0, Hash: header.BlockHash()}
	} else {
		connectedTo = BlockId{Height: height - 1, Hash: header.PrevBlockHash()}
	}
	return lc.ApplyHeaderConnectedTo(header, height, connectedTo)
}

// ApplyChangeset applies cs directly, rebuilding the tip and reindexing
// from cs's lowest height. A no-op if cs is empty.
func (lc *LocalChain) ApplyChangeset(cs ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}
	start := cs.sortedHeights()[0]

	extension := map[uint32]types.Hash{}
	var base *CheckPoint
	for cp := lc.tip; cp != nil; cp = cp.Prev() {
		if cp.Height() < start {
			base = cp
			break
		}
		extension[cp.Height()] = cp.Hash()
	}

	for height, hash := range cs {
		if hash == nil {
			delete(extension, height)
		} else {
			extension[height] = *hash
		}
	}

	heights := make([]uint32, 0, len(extension))
	for h := range extension {
		heights = append(heights, h)
	}
	sort.Slice(heights, func(i, j int) bool { return heights[i] < heights[j] })
	ids := make([]BlockId, len(heights))
	for i, h := range heights {
		ids[i] = BlockId{Height: h, Hash: extension[h]}
	}

	var newTip *CheckPoint
	var err error
	if base != nil {
		newTip, err = base.Extend(ids)
		if err != nil {
			return fmt.Errorf("chainindex: apply changeset: %w", err)
		}
	} else {
		if len(ids) == 0 || ids[0].Height != 0 {
			return ErrMissingGenesis
		}
		newTip, err = FromBlockIds(ids)
		if err != nil {
			return fmt.Errorf("chainindex: apply changeset: %w", err)
		}
	}

	lc.tip = newTip
	lc.reindex(start)
	return nil
}

// InsertBlock records a single block at a height not yet fixed by a
// conflicting hash. If the height already holds this exact hash, it is a
// no-op returning an empty ChangeSet. If it holds a different hash, fails
// with AlterCheckPointError rather than silently overwriting history.
func (lc *LocalChain) InsertBlock(blockId BlockId) (ChangeSet, error) {
	if existing, ok := lc.index[blockId.Height]; ok {
		if existing == blockId.Hash {
			return ChangeSet{}, nil
		}
		h := blockId.Hash
		return nil, &AlterCheckPointError{Height: blockId.Height, OriginalHash: existing, UpdateHash: &h}
	}
	cs := ChangeSet{}
	cs.Set(blockId.Height, blockId.Hash)
	if err := lc.ApplyChangeset(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// DisconnectFrom invalidates blockId and everything above it. A no-op if
// blockId is not present in the chain with exactly this hash.
func (lc *LocalChain) DisconnectFrom(blockId BlockId) (ChangeSet, error) {
	if existing, ok := lc.index[blockId.Height]; !ok || existing != blockId.Hash {
		return ChangeSet{}, nil
	}
	cs := ChangeSet{}
	for h := range lc.index {
		if h >= blockId.Height {
			cs.Clear(h)
		}
	}
	if err := lc.ApplyChangeset(cs); err != nil {
		return nil, err
	}
	return cs, nil
}

// reindex truncates the index to keys below from, then rebuilds keys at or
// above from by walking the tip backward.
func (lc *LocalChain) reindex(from uint32) {
	for h := range lc.index {
		if h >= from {
			delete(lc.index, h)
		}
	}
	for cp := lc.tip; cp != nil && cp.Height() >= from; cp = cp.Prev() {
		lc.index[cp.Height()] = cp.Hash()
	}
}
