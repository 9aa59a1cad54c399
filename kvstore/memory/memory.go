package memory

import (
	"context"
	"sync"
)

// Store is an in-memory implementation of kvstore.KVStore
// Values are copied in and out so callers can reuse their buffers
type Store struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// New creates a new in-memory KVStore
func New() *Store {
	return &Store{
		data: make(map[string][]byte),
	}
}

// Put stores a copy of value under key
func (s *Store) Put(ctx context.Context, key []byte, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[string(key)] = append([]byte{}, value...)
	return nil
}

// Get retrieves a copy of the value stored under key
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.data[string(key)]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, val...), nil
}

// Has reports whether key is present
func (s *Store) Has(ctx context.Context, key []byte) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.data[string(key)]
	return ok, nil
}

// Delete removes a key-value pair
func (s *Store) Delete(ctx context.Context, key []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, string(key))
	return nil
}

// Len returns the number of stored keys
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data)
}

// Close releases any resources
func (s *Store) Close() error {
	return nil
}
