// Package fptree builds FP-trees: prefix trees that compress a weighted
// transaction multiset by sharing common item prefixes.
//
// Nodes live in an arena owned by the Tree and refer to each other by NodeID.
// Parent references and header chain links are plain indices into that arena,
// so a Tree can be shared read-only between goroutines once Build returns.
//
//	arena[0]  root (no item)
//	arena[1]  b:5  parent=0  link=-1
//	arena[2]  a:1  parent=1  link=4
//	...
//	header    b -> (support 5, head 1)
//	          a -> (support 3, head 2) -> 4 -> ...
package fptree

import (
	"github.com/shruggr/fpgrowth/itemset"
)

// NodeID is the arena index of a tree node
type NodeID int

const (
	// None marks an absent parent or link
	None NodeID = -1

	// Root is the arena index of the root node
	Root NodeID = 0
)

type node struct {
	item     itemset.Item
	count    int
	parent   NodeID
	link     NodeID
	children map[itemset.Item]NodeID
}

// Node is a read-only view of a tree node
type Node struct {
	ID     NodeID
	Item   itemset.Item
	Count  int
	Parent NodeID
	Link   NodeID
}

// Tree is an FP-tree together with its header table
type Tree struct {
	nodes      []node
	header     *HeaderTable
	minSupport int
}

func newTree(minSupport int) *Tree {
	return &Tree{
		nodes:      []node{{parent: None, link: None}},
		header:     newHeaderTable(),
		minSupport: minSupport,
	}
}

// Header returns the tree's header table
func (t *Tree) Header() *HeaderTable {
	return t.header
}

// MinSupport returns the threshold the tree was built with
func (t *Tree) MinSupport() int {
	return t.minSupport
}

// Empty reports whether no item survived the support threshold
func (t *Tree) Empty() bool {
	return t.header.Len() == 0
}

// Size returns the number of item nodes, excluding the root
func (t *Tree) Size() int {
	return len(t.nodes) - 1
}

// Node returns a view of the node with the given id
func (t *Tree) Node(id NodeID) (Node, bool) {
	if id < 0 || int(id) >= len(t.nodes) {
		return Node{}, false
	}
	n := t.nodes[id]
	return Node{ID: id, Item: n.item, Count: n.count, Parent: n.parent, Link: n.link}, true
}

// Child returns the child of parent carrying item
func (t *Tree) Child(parent NodeID, item itemset.Item) (NodeID, bool) {
	if parent < 0 || int(parent) >= len(t.nodes) {
		return None, false
	}
	id, ok := t.nodes[parent].children[item]
	return id, ok
}

// Chain returns every node carrying item, in header chain order
func (t *Tree) Chain(item itemset.Item) []NodeID {
	entry, ok := t.header.entries[item]
	if !ok {
		return nil
	}
	var ids []NodeID
	for id := entry.Head; id != None; id = t.nodes[id].link {
		ids = append(ids, id)
	}
	return ids
}

// insert adds a support-ordered item sequence below the root with the given count
func (t *Tree) insert(items []itemset.Item, count int) {
	cur := Root
	for _, item := range items {
		child, ok := t.nodes[cur].children[item]
		if ok {
			t.nodes[child].count += count
		} else {
			child = t.newNode(item, count, cur)
			t.header.appendToChain(t, item, child)
		}
		cur = child
	}
}

// newNode appends a node to the arena and registers it with its parent
// Indices are used throughout because the append may move the arena
func (t *Tree) newNode(item itemset.Item, count int, parent NodeID) NodeID {
	id := NodeID(len(t.nodes))
	t.nodes = append(t.nodes, node{
		item:   item,
		count:  count,
		parent: parent,
		link:   None,
	})
	if t.nodes[parent].children == nil {
		t.nodes[parent].children = make(map[itemset.Item]NodeID)
	}
	t.nodes[parent].children[item] = id
	return id
}
