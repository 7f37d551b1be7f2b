package chainindex

// ChainOracle answers whether a given block is part of the best chain, as
// observed at some chain tip. Implementations may be fallible (e.g. a
// store-backed oracle that can hit I/O errors); LocalChain's own
// implementation never fails.
type ChainOracle interface {
	// IsBlockInChain reports whether block is in the best chain as of
	// chainTip. Returns (nil, nil) if this cannot be determined — either
	// because block is above chainTip, or because the oracle's index does
	// not cover one of the two heights.
	IsBlockInChain(block, chainTip BlockId) (*bool, error)

	// GetChainTip returns the current best chain tip.
	GetChainTip() (BlockId, error)
}

// IsBlockInChain implements ChainOracle for LocalChain. The error return is
// always nil; the interface only admits it because other implementations
// may need it.
func (lc *LocalChain) IsBlockInChain(block, chainTip BlockId) (*bool, error) {
	if block.Height > chainTip.Height {
		return nil, nil
	}
	blockHash, ok := lc.index[block.Height]
	if !ok {
		return nil, nil
	}
	tipHash, ok := lc.index[chainTip.Height]
	if !ok {
		return nil, nil
	}
	result := blockHash == block.Hash && tipHash == chainTip.Hash
	return &result, nil
}

// GetChainTip implements ChainOracle for LocalChain.
func (lc *LocalChain) GetChainTip() (BlockId, error) {
	return lc.tip.BlockId(), nil
}

var _ ChainOracle = (*LocalChain)(nil)
