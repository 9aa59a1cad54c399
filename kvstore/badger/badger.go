package badger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

// Store is a BadgerDB-backed implementation of kvstore.KVStore
type Store struct {
	db *badger.DB
}

// Config holds configuration for BadgerDB
type Config struct {
	DataDir  string       // Directory for data storage
	InMemory bool         // Keep everything in memory; DataDir is ignored
	Logger   *slog.Logger // Receives badger's warnings and errors; nil silences badger
}

// New creates a new BadgerDB-backed KVStore
func New(config *Config) (*Store, error) {
	var opts badger.Options
	switch {
	case config.InMemory:
		opts = badger.DefaultOptions("").WithInMemory(true)
	case config.DataDir == "":
		return nil, fmt.Errorf("DataDir is required")
	default:
		opts = badger.DefaultOptions(config.DataDir)
	}

	if config.Logger != nil {
		opts = opts.WithLogger(NewSlogAdapter(config.Logger))
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &Store{db: db}, nil
}

// Put stores a key-value pair
func (s *Store) Put(ctx context.Context, key []byte, value []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, value)
	})
}

// Get retrieves a value by key
func (s *Store) Get(ctx context.Context, key []byte) ([]byte, error) {
	var value []byte

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key)
		if err != nil {
			return err
		}

		value, err = item.ValueCopy(nil)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil // Return nil for non-existent keys
	}
	if err != nil {
		return nil, err
	}

	return value, nil
}

// Has reports whether key exists
func (s *Store) Has(ctx context.Context, key []byte) (bool, error) {
	err := s.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		return err
	})

	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes a key-value pair
func (s *Store) Delete(ctx context.Context, key []byte) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(key)
	})
}

// Close releases all BadgerDB resources
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// RunGC runs BadgerDB value log garbage collection
// Call this periodically to reclaim space from deleted snapshots
func (s *Store) RunGC(discardRatio float64) error {
	err := s.db.RunValueLogGC(discardRatio)
	if errors.Is(err, badger.ErrNoRewrite) {
		return nil // Not an error - just means no rewrite was needed
	}
	return err
}
