package kvstore

import (
	"context"
)

// KVStore is the blob store behind result snapshots
// Keys are raw multihash bytes (34 bytes for BLAKE3-256) but any byte string works
type KVStore interface {
	// Put stores a key-value pair, replacing any previous value
	Put(ctx context.Context, key []byte, value []byte) error

	// Get retrieves a value by key
	// Returns nil if key doesn't exist
	Get(ctx context.Context, key []byte) ([]byte, error)

	// Has reports whether key exists without reading its value
	Has(ctx context.Context, key []byte) (bool, error)

	// Delete removes a key-value pair
	Delete(ctx context.Context, key []byte) error

	// Close releases any resources
	Close() error
}
