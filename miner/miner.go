// Package miner implements the sequential FP-growth recursion over an FP-tree
// and the conditional trees derived from it.
package miner

import (
	"context"
	"fmt"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/fptree"
	"github.com/shruggr/fpgrowth/itemset"
)

// Stats describes the work done by a Miner
type Stats struct {
	ConditionalTrees int // conditional trees built
	ConditionalNodes int // item nodes across those trees
	MaxDepth         int // longest prefix extended
}

// Miner mines frequent itemsets from FP-trees without any fan-out
// A Miner is not safe for concurrent use; give each goroutine its own
type Miner struct {
	minSupport int
	stats      Stats
}

// New creates a miner for the given support threshold
func New(minSupport int) *Miner {
	return &Miner{minSupport: minSupport}
}

// Stats returns the counters accumulated so far
func (m *Miner) Stats() Stats {
	return m.stats
}

// MineOne mines the branch of a single item
//
// It emits prefix ∪ {item} with the item's support in tree, then builds the
// conditional tree from the item's pattern base and mines it recursively.
func (m *Miner) MineOne(ctx context.Context, tree *fptree.Tree, item itemset.Item, prefix itemset.Itemset) (itemset.Result, error) {
	out := itemset.NewResult()
	if err := m.mineOne(ctx, tree, item, prefix, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Mine mines every item of tree's header table, extending prefix
func (m *Miner) Mine(ctx context.Context, tree *fptree.Tree, prefix itemset.Itemset) (itemset.Result, error) {
	out := itemset.NewResult()
	if err := m.mine(ctx, tree, prefix, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (m *Miner) mine(ctx context.Context, tree *fptree.Tree, prefix itemset.Itemset, out itemset.Result) error {
	for _, item := range tree.Header().Items() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := m.mineOne(ctx, tree, item, prefix, out); err != nil {
			return err
		}
	}
	return nil
}

func (m *Miner) mineOne(ctx context.Context, tree *fptree.Tree, item itemset.Item, prefix itemset.Itemset, out itemset.Result) error {
	entry, ok := tree.Header().Get(item)
	if !ok {
		return fmt.Errorf("item %q is not frequent in this tree", item)
	}

	// Step 1: Emit the extended prefix
	extended := prefix.With(item)
	if err := out.Add(itemset.Pattern{Items: extended, Support: entry.Support}); err != nil {
		return err
	}
	if len(extended) > m.stats.MaxDepth {
		m.stats.MaxDepth = len(extended)
	}

	// Step 2-3: Conditional pattern base, identical paths summed
	base := tree.ConditionalPatternBase(item)
	if len(base) == 0 {
		return nil
	}
	conditional := aggregate.New()
	for _, path := range base {
		if err := conditional.Add(path.Items, path.Count); err != nil {
			return fmt.Errorf("failed to aggregate pattern base of %q: %w", item, err)
		}
	}

	// Step 4: Conditional tree under the same threshold
	condTree := fptree.Build(conditional, m.minSupport)
	m.stats.ConditionalTrees++
	m.stats.ConditionalNodes += condTree.Size()

	// Step 5: Recurse sequentially
	if condTree.Empty() {
		return nil
	}
	return m.mine(ctx, condTree, extended, out)
}
