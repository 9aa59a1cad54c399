package itemset

import (
	"fmt"
	"sort"
)

// Pattern is a frequent itemset together with its support
type Pattern struct {
	Items   Itemset
	Support int
}

// Result maps canonical itemset keys to their patterns
// Keys are unique: a second insert of the same itemset is an error, never a sum
type Result map[string]Pattern

// NewResult creates an empty result
func NewResult() Result {
	return make(Result)
}

// Add inserts a pattern
// Returns ErrDuplicatePattern if the itemset is already present
func (r Result) Add(p Pattern) error {
	key := p.Items.Key()
	if existing, ok := r[key]; ok {
		return fmt.Errorf("%w: %s (support %d, then %d)", ErrDuplicatePattern, p.Items, existing.Support, p.Support)
	}
	r[key] = p
	return nil
}

// Merge moves every pattern of other into r
// Stops at the first collision and returns it wrapped around ErrDuplicatePattern
func (r Result) Merge(other Result) error {
	for key, p := range other {
		if existing, ok := r[key]; ok {
			return fmt.Errorf("%w: %s (support %d, then %d)", ErrDuplicatePattern, p.Items, existing.Support, p.Support)
		}
		r[key] = p
	}
	return nil
}

// Support returns the support recorded for the given items
func (r Result) Support(items ...Item) (int, bool) {
	s, err := New(items...)
	if err != nil {
		return 0, false
	}
	p, ok := r[s.Key()]
	return p.Support, ok
}

// Equal reports whether both results hold the same itemsets with the same supports
func (r Result) Equal(other Result) bool {
	if len(r) != len(other) {
		return false
	}
	for key, p := range r {
		o, ok := other[key]
		if !ok || o.Support != p.Support {
			return false
		}
	}
	return true
}

// Sorted returns the patterns ordered by support (descending), then size, then key
func (r Result) Sorted() []Pattern {
	out := make([]Pattern, 0, len(r))
	for _, p := range r {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Support != out[j].Support {
			return out[i].Support > out[j].Support
		}
		if len(out[i].Items) != len(out[j].Items) {
			return len(out[i].Items) < len(out[j].Items)
		}
		return out[i].Items.Key() < out[j].Items.Key()
	})
	return out
}
