package snapshot

import (
	"context"
	"errors"

	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/multihash"
)

var (
	// ErrNotFound is returned when no snapshot is stored under a hash
	ErrNotFound = errors.New("snapshot not found")

	// ErrCorrupt is returned when stored bytes no longer match their hash
	ErrCorrupt = errors.New("snapshot corrupt")
)

// Store persists mining results addressed by the hash of their encoding
type Store interface {
	// Save encodes and stores a result
	// Returns the content hash; saving an equal result again is a no-op
	Save(ctx context.Context, r itemset.Result) (multihash.ResultHash, error)

	// Load fetches and decodes the result stored under hash
	// The stored bytes are verified against hash before decoding
	Load(ctx context.Context, hash multihash.ResultHash) (itemset.Result, error)

	// Has reports whether a result is stored under hash
	Has(ctx context.Context, hash multihash.ResultHash) (bool, error)
}
