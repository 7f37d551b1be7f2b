// Package storage provides the key-value persistence layer backing the
// chain index store. The chain index core (pkg/chainindex) is persistence
// agnostic; everything under this package is host-side plumbing.
package storage

import "errors"

// ErrKeyNotFound is returned by Get when the key has no value. Check with
// errors.Is; implementations may wrap it with context.
var ErrKeyNotFound = errors.New("storage: key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix, in ascending
	// key order. The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	Close() error
}

// Batch accumulates writes and deletes to be committed as one unit.
// Operations are not visible until Commit. A Batch is single-use.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
}

// Batcher is implemented by DBs that can commit a Batch atomically.
type Batcher interface {
	NewBatch() Batch
}
