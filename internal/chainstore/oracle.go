package chainstore

import (
	"errors"
	"fmt"

	"github.com/klingnet-tech/klingnet-chainindex/internal/storage"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/chainindex"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// IsBlockInChain implements chainindex.ChainOracle against the stored
// table, without materializing the whole chain. Unlike LocalChain's
// infallible implementation, a disk read can genuinely fail here, and that
// failure is distinct from "the store has no entry at this height" — the
// former is an error, the latter is (nil, nil).
func (s *Store) IsBlockInChain(block, chainTip chainindex.BlockId) (*bool, error) {
	if block.Height > chainTip.Height {
		return nil, nil
	}

	blockHash, ok, err := s.hashAt(block.Height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	tipHash, ok, err := s.hashAt(chainTip.Height)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	result := blockHash == block.Hash && tipHash == chainTip.Hash
	return &result, nil
}

// GetChainTip implements chainindex.ChainOracle: the highest stored entry.
// Fails with ErrNotInitialized on an empty store.
func (s *Store) GetChainTip() (chainindex.BlockId, error) {
	var (
		tip   chainindex.BlockId
		found bool
	)
	// Keys iterate in ascending height order; the last entry is the tip.
	err := s.db.ForEach(nil, func(key, value []byte) error {
		height, err := heightFromKey(key)
		if err != nil {
			return err
		}
		hash, err := hashFromValue(height, value)
		if err != nil {
			return err
		}
		tip = chainindex.BlockId{Height: height, Hash: hash}
		found = true
		return nil
	})
	if err != nil {
		return chainindex.BlockId{}, fmt.Errorf("chainstore: scan for tip: %w", err)
	}
	if !found {
		return chainindex.BlockId{}, ErrNotInitialized
	}
	return tip, nil
}

// hashAt reads the stored hash at height. The bool reports presence;
// errors are real storage failures, never missing keys.
func (s *Store) hashAt(height uint32) (hash types.Hash, ok bool, err error) {
	value, err := s.db.Get(heightKey(height))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return hash, false, nil
	}
	if err != nil {
		return hash, false, fmt.Errorf("chainstore: read height %d: %w", height, err)
	}
	h, err := hashFromValue(height, value)
	if err != nil {
		return hash, false, err
	}
	return h, true, nil
}

var _ chainindex.ChainOracle = (*Store)(nil)
