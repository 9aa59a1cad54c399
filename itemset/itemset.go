package itemset

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrDuplicateItem is returned when an item appears more than once in a set
	ErrDuplicateItem = errors.New("duplicate item")

	// ErrDuplicatePattern is returned when a result already holds the itemset being added
	ErrDuplicatePattern = errors.New("itemset already present in result")
)

// Item is an opaque item identifier
// Items are ordered by byte-wise string comparison
type Item string

// Itemset is a duplicate-free set of items kept sorted in ascending order
type Itemset []Item

// New builds an Itemset from items in any order
// Returns ErrDuplicateItem if an item is repeated
func New(items ...Item) (Itemset, error) {
	s := make(Itemset, len(items))
	copy(s, items)
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })

	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateItem, s[i])
		}
	}
	return s, nil
}

// MustNew is like New but panics on duplicates. Intended for literals in tests.
func MustNew(items ...Item) Itemset {
	s, err := New(items...)
	if err != nil {
		panic(err)
	}
	return s
}

// With returns a new set holding s plus item
// s is left untouched; adding an item already present returns a copy of s
func (s Itemset) With(item Item) Itemset {
	idx := sort.Search(len(s), func(i int) bool { return s[i] >= item })
	if idx < len(s) && s[idx] == item {
		out := make(Itemset, len(s))
		copy(out, s)
		return out
	}

	out := make(Itemset, 0, len(s)+1)
	out = append(out, s[:idx]...)
	out = append(out, item)
	out = append(out, s[idx:]...)
	return out
}

// Contains reports whether item is in the set
func (s Itemset) Contains(item Item) bool {
	idx := sort.Search(len(s), func(i int) bool { return s[i] >= item })
	return idx < len(s) && s[idx] == item
}

// IsSubsetOf reports whether every item of s is in other
func (s Itemset) IsSubsetOf(other Itemset) bool {
	j := 0
	for _, item := range s {
		for j < len(other) && other[j] < item {
			j++
		}
		if j == len(other) || other[j] != item {
			return false
		}
		j++
	}
	return true
}

// Key returns the canonical map key of the set
// Each item is length-prefixed so no item content can collide with a separator
func (s Itemset) Key() string {
	var b strings.Builder
	for _, item := range s {
		b.WriteString(strconv.Itoa(len(item)))
		b.WriteByte(':')
		b.WriteString(string(item))
	}
	return b.String()
}

// String renders the set as {a,b,c}
func (s Itemset) String() string {
	parts := make([]string, len(s))
	for i, item := range s {
		parts[i] = string(item)
	}
	return "{" + strings.Join(parts, ",") + "}"
}

// Strings returns the items as plain strings
func (s Itemset) Strings() []string {
	out := make([]string, len(s))
	for i, item := range s {
		out[i] = string(item)
	}
	return out
}
