// Package oracle is a brute-force frequent itemset counter used to check
// the FP-growth implementation on small inputs.
package oracle

import (
	"fmt"

	"github.com/shruggr/fpgrowth/aggregate"
	"github.com/shruggr/fpgrowth/itemset"
)

// MaxItems bounds the transaction width the oracle accepts
const MaxItems = 20

// Mine counts every subset of every transaction and keeps those reaching minSupport
func Mine(data *aggregate.Multiset, minSupport int) (itemset.Result, error) {
	counts := make(map[string]itemset.Pattern)
	for _, entry := range data.Entries() {
		n := len(entry.Items)
		if n > MaxItems {
			return nil, fmt.Errorf("transaction has %d items, oracle limit is %d", n, MaxItems)
		}
		for mask := 1; mask < 1<<n; mask++ {
			subset := make(itemset.Itemset, 0, n)
			for i := 0; i < n; i++ {
				if mask&(1<<i) != 0 {
					subset = append(subset, entry.Items[i])
				}
			}
			key := subset.Key()
			p := counts[key]
			p.Items = subset
			p.Support += entry.Count
			counts[key] = p
		}
	}

	out := itemset.NewResult()
	for key, p := range counts {
		if p.Support >= minSupport {
			out[key] = p
		}
	}
	return out, nil
}

// Support counts the transactions, weighted by multiplicity, that contain items
func Support(data *aggregate.Multiset, items itemset.Itemset) int {
	total := 0
	for _, entry := range data.Entries() {
		if items.IsSubsetOf(entry.Items) {
			total += entry.Count
		}
	}
	return total
}
