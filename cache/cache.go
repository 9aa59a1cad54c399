package cache

import (
	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/multihash"
)

// Key identifies a mining run by its input
// Dataset is the digest of the aggregated transactions, MinSupport the absolute threshold
type Key struct {
	Dataset    [32]byte
	MinSupport int
}

// Entry is a cached mining outcome
// Result is shared between callers and must be treated as read-only
type Entry struct {
	Hash   multihash.ResultHash
	Result itemset.Result
}

// ResultCache provides fast access to previously mined results
// This avoids re-mining when the same dataset is submitted with the same threshold
type ResultCache interface {
	// Get retrieves a cached entry
	// Returns false if not cached
	Get(key Key) (Entry, bool)

	// Put stores an entry
	Put(key Key, entry Entry) error

	// Delete removes a cached entry
	Delete(key Key) error

	// Clear removes all cached entries
	Clear() error

	// Len returns the number of cached entries
	Len() int
}
