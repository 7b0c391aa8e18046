// Package storage defines the key/value durability contract the rest of the
// server is built on, with interchangeable volatile and persistent backends.
//
// Keys are namespaced strings ("device:{id}", "secret:{device_id}:{record_id}",
// "server:identity"); values are opaque byte blobs. Single-key operations are
// atomic; nothing more is guaranteed, compound invariants are the caller's
// problem.
package storage

import "context"

// Entry is one listed key/value pair.
type Entry struct {
	Key   string
	Value []byte
}

// Storage is the uniform durability interface. Implementations must return
// common.ErrNotFound from Get for absent keys and wrap backend write
// failures in common.ErrStorageUnavailable; callers must not assume partial
// success after a failed Set or Delete.
type Storage interface {
	// Get returns the value stored under key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// List returns all entries whose key starts with prefix. Order is
	// backend-defined but stable within one call.
	List(ctx context.Context, prefix string) ([]Entry, error)
}
