package fptree

import (
	"github.com/shruggr/fpgrowth/itemset"
)

// PrefixPath is one entry of a conditional pattern base: the items on the
// path from the root down to (but excluding) a node, weighted by that node's count
type PrefixPath struct {
	Items []itemset.Item
	Count int
}

// ConditionalPatternBase returns the prefix paths that co-occur with item
//
// Every node on item's chain contributes its ancestors (root excluded) with
// the node's own count. Nodes hanging directly off the root have no context
// and contribute nothing. Paths are listed root first, in chain order.
func (t *Tree) ConditionalPatternBase(item itemset.Item) []PrefixPath {
	entry, ok := t.header.entries[item]
	if !ok {
		return nil
	}

	var base []PrefixPath
	for id := entry.Head; id != None; id = t.nodes[id].link {
		path := t.ancestors(id)
		if len(path) == 0 {
			continue
		}
		base = append(base, PrefixPath{Items: path, Count: t.nodes[id].count})
	}
	return base
}

// ancestors returns the items between the root and id, root side first
func (t *Tree) ancestors(id NodeID) []itemset.Item {
	depth := 0
	for p := t.nodes[id].parent; p != Root && p != None; p = t.nodes[p].parent {
		depth++
	}
	if depth == 0 {
		return nil
	}

	path := make([]itemset.Item, depth)
	for p := t.nodes[id].parent; p != Root && p != None; p = t.nodes[p].parent {
		depth--
		path[depth] = t.nodes[p].item
	}
	return path
}
