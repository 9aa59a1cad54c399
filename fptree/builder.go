package fptree

import (
	"sort"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/itemset"
)

// Build constructs an FP-tree from a transaction multiset
//
// Items whose total count is below minSupport are dropped. Each remaining
// transaction is inserted with its items ordered by descending support, ties
// broken by ascending item, so equal input always yields the same tree.
// A minSupport of zero or less keeps every item.
func Build(data *aggregate.Multiset, minSupport int) *Tree {
	t := newTree(minSupport)
	entries := data.Entries()

	// Step 1: Global item counts weighted by multiplicity
	counts := make(map[itemset.Item]int)
	for _, entry := range entries {
		for _, item := range entry.Items {
			counts[item] += entry.Count
		}
	}

	// Step 2: Keep frequent items only
	for item, count := range counts {
		if count < minSupport {
			delete(counts, item)
		}
	}
	if len(counts) == 0 {
		return t
	}

	// Step 3: Header table with empty chains
	t.header.setCounts(counts)

	// Step 4: Insert filtered, support-ordered transactions in input order
	buf := make([]itemset.Item, 0, 16)
	for _, entry := range entries {
		buf = buf[:0]
		for _, item := range entry.Items {
			if _, ok := counts[item]; ok {
				buf = append(buf, item)
			}
		}
		if len(buf) == 0 {
			continue
		}
		sort.Slice(buf, func(i, j int) bool {
			return t.header.rank[buf[i]] < t.header.rank[buf[j]]
		})
		t.insert(buf, entry.Count)
	}

	return t
}
