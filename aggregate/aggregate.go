// Package aggregate collapses raw transactions into a multiset of canonical
// (sorted, duplicate-free) item sequences with occurrence counts.
package aggregate

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"github.com/shruggr/fpgrowth/itemset"
	"lukechampine.com/blake3"
)

var (
	// ErrDuplicateItem is returned when a transaction lists the same item twice
	ErrDuplicateItem = errors.New("transaction contains duplicate item")

	// ErrInvalidCount is returned for non-positive multiplicities
	ErrInvalidCount = errors.New("transaction count must be positive")
)

// Entry is one canonical transaction and the number of times it occurred
type Entry struct {
	Items itemset.Itemset
	Count int
}

// Multiset holds canonical transactions with multiplicities
// Entries keep first-seen order so trees built from the same input are identical
type Multiset struct {
	entries []Entry
	index   map[string]int
	total   int
}

// New creates an empty multiset
func New() *Multiset {
	return &Multiset{
		index: make(map[string]int),
	}
}

// Aggregate builds a multiset from raw transactions, each counted once
func Aggregate(txs [][]itemset.Item) (*Multiset, error) {
	m := New()
	for i, tx := range txs {
		if err := m.Add(tx, 1); err != nil {
			return nil, fmt.Errorf("transaction %d: %w", i, err)
		}
	}
	return m, nil
}

// Add records items as occurring count more times
// Items may arrive in any order; they are canonicalized before insertion
func (m *Multiset) Add(items []itemset.Item, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidCount, count)
	}

	canonical, err := itemset.New(items...)
	if err != nil {
		if errors.Is(err, itemset.ErrDuplicateItem) {
			return fmt.Errorf("%w: %v", ErrDuplicateItem, err)
		}
		return err
	}

	key := canonical.Key()
	if idx, ok := m.index[key]; ok {
		m.entries[idx].Count += count
	} else {
		m.index[key] = len(m.entries)
		m.entries = append(m.entries, Entry{Items: canonical, Count: count})
	}
	m.total += count
	return nil
}

// Entries returns the canonical transactions in first-seen order
// The returned slice must not be modified
func (m *Multiset) Entries() []Entry {
	return m.entries
}

// Count returns the multiplicity of the given transaction
func (m *Multiset) Count(items ...itemset.Item) int {
	s, err := itemset.New(items...)
	if err != nil {
		return 0
	}
	idx, ok := m.index[s.Key()]
	if !ok {
		return 0
	}
	return m.entries[idx].Count
}

// Len returns the number of distinct transactions
func (m *Multiset) Len() int {
	return len(m.entries)
}

// Total returns the number of transactions including multiplicity
func (m *Multiset) Total() int {
	return m.total
}

// Digest returns a BLAKE3 fingerprint of the multiset content
// Two multisets with the same transactions and counts share a digest regardless of insertion order
func (m *Multiset) Digest() [32]byte {
	keys := make([]string, 0, len(m.entries))
	for key := range m.index {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := blake3.New(32, nil)
	var buf [binary.MaxVarintLen64]byte
	for _, key := range keys {
		n := binary.PutUvarint(buf[:], uint64(len(key)))
		h.Write(buf[:n])
		h.Write([]byte(key))
		n = binary.PutUvarint(buf[:], uint64(m.entries[m.index[key]].Count))
		h.Write(buf[:n])
	}

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return digest
}
