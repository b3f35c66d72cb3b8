// Package codetree builds structural trees from source snippets and
// assigns every node a stable element ID. Element IDs are the non-owning
// keys the pattern pipeline uses to refer back to syntax elements without
// holding the parser's tree alive.
package codetree

import "sync/atomic"

// ElementID identifies one syntax element. IDs are unique across all
// trees built by this process, so before/after trees of one sample never
// collide.
type ElementID int64

// elementCounter issues ElementIDs. Zero is reserved for "no element".
var elementCounter atomic.Int64

func nextElementID() ElementID {
	return ElementID(elementCounter.Add(1))
}

// Node is one structural tree node.
type Node struct {
	// ID is the stable element key.
	ID ElementID
	// Type is the structural kind, taken from the grammar's named node type.
	Type string
	// Label is the verbatim token text for leaves, empty for interior nodes.
	Label string
	// Parent is nil for the root.
	Parent *Node
	// Children holds named children in source order.
	Children []*Node
}

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// Position returns the node's index among its parent's children, or 0 for
// the root.
func (n *Node) Position() int {
	if n.Parent == nil {
		return 0
	}

	for i, c := range n.Parent.Children {
		if c == n {
			return i
		}
	}

	return 0
}

// Size returns the number of nodes in the subtree rooted at n.
func (n *Node) Size() int {
	total := 1
	for _, c := range n.Children {
		total += c.Size()
	}

	return total
}

// PostOrder visits the subtree rooted at n, children before parents.
func (n *Node) PostOrder(fn func(*Node)) {
	for _, c := range n.Children {
		c.PostOrder(fn)
	}

	fn(n)
}

// PreOrder visits the subtree rooted at n, parents before children.
func (n *Node) PreOrder(fn func(*Node)) {
	fn(n)

	for _, c := range n.Children {
		c.PreOrder(fn)
	}
}

// Descendants returns every node of the subtree except n itself, in
// pre-order.
func (n *Node) Descendants() []*Node {
	var out []*Node

	for _, c := range n.Children {
		c.PreOrder(func(d *Node) {
			out = append(out, d)
		})
	}

	return out
}

// Fingerprint returns a string that is equal for two subtrees exactly when
// they agree on types, labels, and child order. Used by the tree-diff
// top-down phase to anchor identical subtrees.
func (n *Node) Fingerprint() string {
	buf := make([]byte, 0, 64)

	return string(n.appendFingerprint(buf))
}

func (n *Node) appendFingerprint(buf []byte) []byte {
	buf = append(buf, '(')
	buf = append(buf, n.Type...)
	buf = append(buf, ':')
	buf = append(buf, n.Label...)

	for _, c := range n.Children {
		buf = c.appendFingerprint(buf)
	}

	return append(buf, ')')
}

// Tree owns the nodes built from one source snippet.
type Tree struct {
	Root     *Node
	Language string

	byID map[ElementID]*Node
}

// Element resolves an element ID to its node, when the element belongs to
// this tree.
func (t *Tree) Element(id ElementID) (*Node, bool) {
	n, ok := t.byID[id]

	return n, ok
}

// Nodes returns every node of the tree in pre-order.
func (t *Tree) Nodes() []*Node {
	out := make([]*Node, 0, len(t.byID))

	t.Root.PreOrder(func(n *Node) {
		out = append(out, n)
	})

	return out
}

// NewNode allocates a node registered with the tree. Children are attached
// by the caller.
func (t *Tree) NewNode(nodeType, label string) *Node {
	n := &Node{ID: nextElementID(), Type: nodeType, Label: label}
	t.byID[n.ID] = n

	return n
}

// NewTree returns an empty tree for the given language. Callers build the
// node structure with NewNode and assign Root.
func NewTree(language string) *Tree {
	return &Tree{Language: language, byID: make(map[ElementID]*Node)}
}
