// Package storage provides the key-value store behind the wallet record and
// the send journal.
package storage

import "errors"

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("key not found")

// DB is the interface for key-value storage.
type DB interface {
	Get(key []byte) ([]byte, error)
	Put(key, value []byte) error
	Delete(key []byte) error
	Has(key []byte) (bool, error)
	// ForEach iterates over all keys with the given prefix.
	// The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	// NewBatch starts a set of writes applied atomically on Commit.
	NewBatch() Batch
	Close() error
}

// Batch collects writes that are applied together on Commit. A batch
// that will not be committed must be cancelled.
type Batch interface {
	Put(key, value []byte) error
	Delete(key []byte) error
	Commit() error
	Cancel()
}
