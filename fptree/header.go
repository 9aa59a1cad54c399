package fptree

import (
	"sort"

	"github.com/shruggr/fpgrowth/itemset"
)

// HeaderEntry is the header table record of one frequent item
type HeaderEntry struct {
	Item    itemset.Item
	Support int
	Head    NodeID
	tail    NodeID
}

// HeaderTable maps each frequent item to its global support and to the
// head of the chain threading every tree node that carries the item
type HeaderTable struct {
	entries map[itemset.Item]*HeaderEntry
	order   []itemset.Item       // descending support, ties by ascending item
	rank    map[itemset.Item]int // position in order
}

func newHeaderTable() *HeaderTable {
	return &HeaderTable{
		entries: make(map[itemset.Item]*HeaderEntry),
		rank:    make(map[itemset.Item]int),
	}
}

// setCounts installs the frequent items and fixes the insertion order
func (h *HeaderTable) setCounts(counts map[itemset.Item]int) {
	h.order = make([]itemset.Item, 0, len(counts))
	for item, support := range counts {
		h.entries[item] = &HeaderEntry{Item: item, Support: support, Head: None, tail: None}
		h.order = append(h.order, item)
	}
	sort.Slice(h.order, func(i, j int) bool {
		return h.less(h.order[i], h.order[j])
	})
	for i, item := range h.order {
		h.rank[item] = i
	}
}

// less orders items by descending support, breaking ties by ascending item
func (h *HeaderTable) less(a, b itemset.Item) bool {
	sa, sb := h.entries[a].Support, h.entries[b].Support
	if sa != sb {
		return sa > sb
	}
	return a < b
}

// appendToChain links id at the tail of item's chain
func (h *HeaderTable) appendToChain(t *Tree, item itemset.Item, id NodeID) {
	entry := h.entries[item]
	if entry.Head == None {
		entry.Head = id
	} else {
		t.nodes[entry.tail].link = id
	}
	entry.tail = id
}

// Len returns the number of frequent items
func (h *HeaderTable) Len() int {
	return len(h.entries)
}

// Get returns the entry for item
func (h *HeaderTable) Get(item itemset.Item) (HeaderEntry, bool) {
	entry, ok := h.entries[item]
	if !ok {
		return HeaderEntry{}, false
	}
	return *entry, true
}

// Support returns the global support of item, or 0 if it is not frequent
func (h *HeaderTable) Support(item itemset.Item) int {
	if entry, ok := h.entries[item]; ok {
		return entry.Support
	}
	return 0
}

// Items returns the frequent items least frequent first, the usual FP-growth mining order
func (h *HeaderTable) Items() []itemset.Item {
	out := make([]itemset.Item, len(h.order))
	for i, item := range h.order {
		out[len(h.order)-1-i] = item
	}
	return out
}

// FrequencyOrder returns the frequent items in tree insertion order:
// descending support, ties broken by ascending item
func (h *HeaderTable) FrequencyOrder() []itemset.Item {
	out := make([]itemset.Item, len(h.order))
	copy(out, h.order)
	return out
}
