// Package chainstore persists a chain index as its sequence of ChangeSets
// folded into one height-to-hash table, and rebuilds a LocalChain from that
// table on open. It is the host-side persistence adapter the core index
// delegates to: the core produces ChangeSets, this package makes them
// durable.
package chainstore

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/klingnet-tech/klingnet-chainindex/internal/log"
	"github.com/klingnet-tech/klingnet-chainindex/internal/storage"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/chainindex"
	"github.com/klingnet-tech/klingnet-chainindex/pkg/types"
)

// blocksPrefix namespaces checkpoint entries within the underlying DB, so a
// store can share a database with other data.
var blocksPrefix = []byte("chain/blocks/")

// ErrNotInitialized is returned when loading from a store that has never
// been given a genesis block.
var ErrNotInitialized = errors.New("chainstore: store is not initialized")

// GenesisMismatchError is returned by Initialize when the store already holds
// a chain rooted at a different genesis hash.
type GenesisMismatchError struct {
	Stored, Given types.Hash
}

func (e *GenesisMismatchError) Error() string {
	return fmt.Sprintf("chainstore: store genesis %s does not match %s", e.Stored, e.Given)
}

// Store persists checkpoint entries in a key-value database. Each entry is
// keyed by big-endian height so iteration yields ascending heights, and
// holds the 32-byte block hash at that height.
//
// Like the LocalChain it persists, a Store is not safe for concurrent
// mutation; callers serialize writes.
type Store struct {
	db  *storage.PrefixDB
	log zerolog.Logger
}

// New returns a Store persisting into db under the store's own namespace.
// The caller retains ownership of db and is responsible for closing it.
func New(db storage.DB) *Store {
	return &Store{
		db:  storage.NewPrefixDB(db, blocksPrefix),
		log: log.Store,
	}
}

// Initialize writes the genesis entry for an empty store. If the store
// already holds a chain, it succeeds when the stored genesis matches and
// fails with GenesisMismatchError otherwise.
func (s *Store) Initialize(genesis types.Hash) error {
	stored, err := s.db.Get(heightKey(0))
	if errors.Is(err, storage.ErrKeyNotFound) {
		if err := s.db.Put(heightKey(0), genesis.Bytes()); err != nil {
			return fmt.Errorf("chainstore: write genesis: %w", err)
		}
		s.log.Info().Str("genesis", genesis.String()).Msg("initialized chain store")
		return nil
	}
	if err != nil {
		return fmt.Errorf("chainstore: read genesis: %w", err)
	}
	storedHash, err := hashFromValue(0, stored)
	if err != nil {
		return err
	}
	if storedHash != genesis {
		return &GenesisMismatchError{Stored: storedHash, Given: genesis}
	}
	return nil
}

// Append folds cs into the stored table: present hashes are written,
// absent ones (invalidations) are deleted. The whole changeset commits as
// one batch, mirroring apply_changeset's all-or-nothing semantics.
func (s *Store) Append(cs chainindex.ChangeSet) error {
	if cs.IsEmpty() {
		return nil
	}
	batch := s.db.NewBatch()
	var puts, deletes int
	for height, hash := range cs {
		if hash == nil {
			if err := batch.Delete(heightKey(height)); err != nil {
				return fmt.Errorf("chainstore: append: %w", err)
			}
			deletes++
		} else {
			if err := batch.Put(heightKey(height), hash.Bytes()); err != nil {
				return fmt.Errorf("chainstore: append: %w", err)
			}
			puts++
		}
	}
	if err := batch.Commit(); err != nil {
		return fmt.Errorf("chainstore: append: %w", err)
	}
	s.log.Debug().Int("added", puts).Int("removed", deletes).Msg("appended changeset")
	return nil
}

// Replace discards every stored entry and writes cs in its place. Used
// when adopting a freshly constructed chain, e.g. a wallet recovery view
// that starts at a birthday height instead of full history.
func (s *Store) Replace(cs chainindex.ChangeSet) error {
	if err := s.db.DeleteAll(); err != nil {
		return fmt.Errorf("chainstore: clear entries: %w", err)
	}
	if err := s.Append(cs); err != nil {
		return err
	}
	s.log.Info().Int("checkpoints", len(cs)).Msg("replaced stored chain")
	return nil
}

// ChangeSet reads the full stored table back as a ChangeSet, suitable for
// chainindex.FromChangeset. Returns ErrNotInitialized for an empty store.
func (s *Store) ChangeSet() (chainindex.ChangeSet, error) {
	cs := chainindex.ChangeSet{}
	err := s.db.ForEach(nil, func(key, value []byte) error {
		height, err := heightFromKey(key)
		if err != nil {
			return err
		}
		hash, err := hashFromValue(height, value)
		if err != nil {
			return err
		}
		cs.Set(height, hash)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("chainstore: read changeset: %w", err)
	}
	if cs.IsEmpty() {
		return nil, ErrNotInitialized
	}
	return cs, nil
}

// LoadChain rebuilds a LocalChain from the stored entries.
func (s *Store) LoadChain() (*chainindex.LocalChain, error) {
	defer log.Benchmark("chainstore.load")()

	cs, err := s.ChangeSet()
	if err != nil {
		return nil, err
	}
	chain, err := chainindex.FromChangeset(cs)
	if err != nil {
		return nil, fmt.Errorf("chainstore: rebuild chain: %w", err)
	}
	tip := chain.Tip()
	s.log.Info().
		Uint32("tip_height", tip.Height()).
		Str("tip_hash", tip.Hash().String()).
		Int("checkpoints", len(cs)).
		Msg("loaded chain")
	return chain, nil
}

// heightKey encodes a height as a 4-byte big-endian key, preserving height
// order under lexicographic key iteration.
func heightKey(height uint32) []byte {
	key := make([]byte, 4)
	binary.BigEndian.PutUint32(key, height)
	return key
}

func heightFromKey(key []byte) (uint32, error) {
	if len(key) != 4 {
		return 0, fmt.Errorf("chainstore: malformed key %x", key)
	}
	return binary.BigEndian.Uint32(key), nil
}

func hashFromValue(height uint32, value []byte) (types.Hash, error) {
	if len(value) != types.HashSize {
		return types.Hash{}, fmt.Errorf("chainstore: entry at height %d has %d-byte hash, want %d", height, len(value), types.HashSize)
	}
	var h types.Hash
	copy(h[:], value)
	return h, nil
}
