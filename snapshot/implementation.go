package snapshot

import (
	"context"
	"fmt"

	"github.com/shruggr/fpgrowth/codec"
	"github.com/shruggr/fpgrowth/itemset"
	"github.com/shruggr/fpgrowth/kvstore"
	"github.com/shruggr/fpgrowth/multihash"
)

// implementation is the concrete implementation of Store
type implementation struct {
	store kvstore.KVStore
}

// New creates a snapshot store over a key-value store
func New(store kvstore.KVStore) Store {
	return &implementation{
		store: store,
	}
}

// Save encodes r and stores it under its BLAKE3 multihash
func (s *implementation) Save(ctx context.Context, r itemset.Result) (multihash.ResultHash, error) {
	hash, data, err := codec.Hash(r)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}

	// Content addressed: an existing key already holds these bytes
	exists, err := s.store.Has(ctx, hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to check snapshot: %w", err)
	}
	if exists {
		return hash, nil
	}

	if err := s.store.Put(ctx, hash.Bytes(), data); err != nil {
		return nil, fmt.Errorf("failed to store snapshot: %w", err)
	}

	return hash, nil
}

// Load fetches the bytes under hash, verifies them and decodes the result
func (s *implementation) Load(ctx context.Context, hash multihash.ResultHash) (itemset.Result, error) {
	data, err := s.store.Get(ctx, hash.Bytes())
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	if data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}

	if err := hash.Verify(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, hash, err)
	}

	r, err := codec.Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, hash, err)
	}

	return r, nil
}

// Has reports whether a snapshot exists
func (s *implementation) Has(ctx context.Context, hash multihash.ResultHash) (bool, error) {
	return s.store.Has(ctx, hash.Bytes())
}
