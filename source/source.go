package source

import (
	"context"
	"fmt"
	"strings"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/itemset"
)

// Source is the plugin interface for reading transactions
type Source interface {
	// Each calls fn once per transaction, in input order
	// Iteration stops at the first error returned by fn or by the source itself
	Each(ctx context.Context, fn func(items []itemset.Item) error) error

	// Name returns a human-readable name for this source
	Name() string
}

// Static serves transactions held in memory
type Static struct {
	txs [][]itemset.Item
}

// NewStatic creates a source over the given transactions
func NewStatic(txs [][]itemset.Item) *Static {
	return &Static{txs: txs}
}

// FromStrings is a convenience constructor for literal baskets
func FromStrings(txs ...[]string) *Static {
	out := make([][]itemset.Item, len(txs))
	for i, tx := range txs {
		out[i] = make([]itemset.Item, len(tx))
		for j, s := range tx {
			out[i][j] = itemset.Item(s)
		}
	}
	return NewStatic(out)
}

// Each yields every transaction
func (s *Static) Each(ctx context.Context, fn func(items []itemset.Item) error) error {
	for _, tx := range s.txs {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
	}
	return nil
}

// Name returns the source name
func (s *Static) Name() string {
	return "static"
}

// Multi concatenates several sources
type Multi struct {
	sources []Source
}

// NewMulti creates a composite source from multiple sources
func NewMulti(sources ...Source) *Multi {
	return &Multi{
		sources: sources,
	}
}

// Each reads every child source in order
// A failing child aborts the whole read; partial input would skew support counts
func (m *Multi) Each(ctx context.Context, fn func(items []itemset.Item) error) error {
	for _, src := range m.sources {
		if err := src.Each(ctx, fn); err != nil {
			return fmt.Errorf("source %s: %w", src.Name(), err)
		}
	}
	return nil
}

// Name returns the names of the children
func (m *Multi) Name() string {
	names := make([]string, len(m.sources))
	for i, src := range m.sources {
		names[i] = src.Name()
	}
	return "multi(" + strings.Join(names, ",") + ")"
}

// Add appends a source
func (m *Multi) Add(src Source) {
	m.sources = append(m.sources, src)
}

// Load reads src into a transaction multiset
func Load(ctx context.Context, src Source) (*aggregate.Multiset, error) {
	data := aggregate.New()
	n := 0
	err := src.Each(ctx, func(items []itemset.Item) error {
		if err := data.Add(items, 1); err != nil {
			return fmt.Errorf("transaction %d: %w", n, err)
		}
		n++
		return nil
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
