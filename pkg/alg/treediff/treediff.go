// Package treediff computes a node correspondence between two structural
// trees. The matching runs in two phases: a top-down pass anchoring
// subtrees with identical fingerprints, then a bottom-up pass pairing
// containers whose descendants largely map to each other. Edit-script
// generation is the caller's concern; this package only answers "which
// before-node became which after-node".
package treediff

import "github.com/changemine/patcanon/pkg/codetree"

// minContainerDice is the minimum mapped-descendant Dice coefficient
// required to pair two containers in the bottom-up phase.
const minContainerDice = 0.3

// Mapping is a node correspondence from the before tree to the after tree.
type Mapping struct {
	beforeToAfter map[*codetree.Node]*codetree.Node
	afterToBefore map[*codetree.Node]*codetree.Node
}

// After returns the after-node mapped to the given before-node.
func (m *Mapping) After(before *codetree.Node) (*codetree.Node, bool) {
	a, ok := m.beforeToAfter[before]

	return a, ok
}

// Before returns the before-node mapped to the given after-node.
func (m *Mapping) Before(after *codetree.Node) (*codetree.Node, bool) {
	b, ok := m.afterToBefore[after]

	return b, ok
}

// Len returns the number of mapped pairs.
func (m *Mapping) Len() int {
	return len(m.beforeToAfter)
}

func (m *Mapping) put(before, after *codetree.Node) {
	m.beforeToAfter[before] = after
	m.afterToBefore[after] = before
}

func (m *Mapping) hasBefore(n *codetree.Node) bool {
	_, ok := m.beforeToAfter[n]

	return ok
}

func (m *Mapping) hasAfter(n *codetree.Node) bool {
	_, ok := m.afterToBefore[n]

	return ok
}

// Match computes the correspondence between before and after.
func Match(before, after *codetree.Tree) *Mapping {
	m := &Mapping{
		beforeToAfter: make(map[*codetree.Node]*codetree.Node),
		afterToBefore: make(map[*codetree.Node]*codetree.Node),
	}

	matchTopDown(m, before, after)
	matchBottomUp(m, before, after)

	return m
}

// matchTopDown anchors every before-subtree to an identical, still
// unclaimed after-subtree. Identity is fingerprint equality; candidates
// are consumed in pre-order so ties resolve stably.
func matchTopDown(m *Mapping, before, after *codetree.Tree) {
	byFingerprint := make(map[string][]*codetree.Node)

	after.Root.PreOrder(func(n *codetree.Node) {
		fp := n.Fingerprint()
		byFingerprint[fp] = append(byFingerprint[fp], n)
	})

	var anchor func(n *codetree.Node)
	anchor = func(n *codetree.Node) {
		candidates := byFingerprint[n.Fingerprint()]
		for _, c := range candidates {
			if subtreeClaimed(m, c) || insideMapped(m, c) {
				continue
			}

			mapSubtrees(m, n, c)

			return
		}

		for _, child := range n.Children {
			anchor(child)
		}
	}

	anchor(before.Root)
}

// insideMapped reports whether any ancestor of n is already mapped, which
// would make claiming n a second, conflicting anchor for that region.
func insideMapped(m *Mapping, n *codetree.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if m.hasAfter(p) {
			return true
		}
	}

	return false
}

// subtreeClaimed reports whether any node of the subtree rooted at n is
// already mapped. Anchoring such a candidate would let mapSubtrees
// overwrite an earlier claim and leave the correspondence non-injective.
func subtreeClaimed(m *Mapping, n *codetree.Node) bool {
	claimed := false

	n.PreOrder(func(d *codetree.Node) {
		if m.hasAfter(d) {
			claimed = true
		}
	})

	return claimed
}

// mapSubtrees pairs two identical subtrees node by node.
func mapSubtrees(m *Mapping, before, after *codetree.Node) {
	m.put(before, after)

	for i, c := range before.Children {
		mapSubtrees(m, c, after.Children[i])
	}
}

// matchBottomUp pairs unmatched containers whose descendants are largely
// mapped to descendants of a common after-container, then recovers
// updated leaves under freshly paired parents.
func matchBottomUp(m *Mapping, before, after *codetree.Tree) {
	before.Root.PostOrder(func(n *codetree.Node) {
		if m.hasBefore(n) || n.IsLeaf() {
			return
		}

		candidate := bestContainer(m, n, after)
		if candidate == nil {
			return
		}

		m.put(n, candidate)
		matchChildren(m, n, candidate)
	})

	// The roots describe the same compilation unit; keep them paired even
	// when the change rewrote most of the tree.
	if !m.hasBefore(before.Root) && !m.hasAfter(after.Root) && before.Root.Type == after.Root.Type {
		m.put(before.Root, after.Root)
		matchChildren(m, before.Root, after.Root)
	}
}

// bestContainer returns the unmatched after-container of the same type
// with the highest mapped-descendant Dice coefficient, or nil when no
// candidate reaches minContainerDice.
func bestContainer(m *Mapping, n *codetree.Node, after *codetree.Tree) *codetree.Node {
	var (
		best      *codetree.Node
		bestScore float64
	)

	after.Root.PreOrder(func(c *codetree.Node) {
		if c.Type != n.Type || c.IsLeaf() || m.hasAfter(c) {
			return
		}

		score := dice(m, n, c)
		if score > bestScore {
			best = c
			bestScore = score
		}
	})

	if bestScore < minContainerDice {
		return nil
	}

	return best
}

// dice computes 2*common/(|a|+|b|) over the descendant sets, where common
// counts before-descendants mapped into after-descendants of c.
func dice(m *Mapping, n, c *codetree.Node) float64 {
	afterDescendants := make(map[*codetree.Node]bool)
	for _, d := range c.Descendants() {
		afterDescendants[d] = true
	}

	beforeDescendants := n.Descendants()

	common := 0

	for _, d := range beforeDescendants {
		if mapped, ok := m.After(d); ok && afterDescendants[mapped] {
			common++
		}
	}

	total := len(beforeDescendants) + len(afterDescendants)
	if total == 0 {
		return 0
	}

	return 2 * float64(common) / float64(total)
}

// matchChildren pairs still-unmatched children of a freshly paired
// container by type, in source order, and recurses into container pairs.
// This recovers label updates (paired leaves with differing labels) and
// keeps rewritten regions connected to their containers.
func matchChildren(m *Mapping, before, after *codetree.Node) {
	used := make(map[*codetree.Node]bool)

	for _, bc := range before.Children {
		if m.hasBefore(bc) {
			continue
		}

		for _, ac := range after.Children {
			if used[ac] || m.hasAfter(ac) || ac.Type != bc.Type || ac.IsLeaf() != bc.IsLeaf() {
				continue
			}

			m.put(bc, ac)
			used[ac] = true

			if !bc.IsLeaf() {
				matchChildren(m, bc, ac)
			}

			break
		}
	}
}
