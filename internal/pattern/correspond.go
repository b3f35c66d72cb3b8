package pattern

import (
	"errors"
	"fmt"

	"github.com/changemine/patcanon/pkg/alg/iso"
	"github.com/changemine/patcanon/pkg/codetree"
	"github.com/changemine/patcanon/pkg/graph"
)

// BuildCorrespondence establishes the two per-pattern lookup maps the
// extender and serializer need: representative-fragment vertex →
// canonical vertex, and syntax element → canonical vertex.
//
// The fragment-to-canonical map comes from enumerating isomorphisms
// between the cached representative and the classified canonical graph
// under weak matching and accepting the first mapping that also
// agrees on per-vertex original labels. A structural mismatch here means
// classification mutated the graph and is reported as
// ErrNoIsomorphismFound; structural agreement with no label-exact mapping
// is ErrAmbiguousCorrespondence.
//
// The element map is composed from vertex origins, which are bound first
// against the first sample's trees.
func (c *Context) BuildCorrespondence() error {
	c.bindOrigins()

	matcher := iso.NewMatcher(c.Canonical, c.Representative, iso.Options{
		Mode:   iso.ModeWeak,
		Budget: c.IsoBudget,
	})

	var (
		structural bool
		accepted   iso.Mapping
	)

	err := matcher.Enumerate(func(m iso.Mapping) bool {
		structural = true

		if labelsAgree(c.Representative, c.Canonical, m) {
			accepted = m

			return false
		}

		return true
	})
	if err != nil {
		if errors.Is(err, iso.ErrBudgetExhausted) {
			return fmt.Errorf("pattern %s: %w", c.Name, ErrNoIsomorphismFound)
		}

		return fmt.Errorf("pattern %s: %w", c.Name, err)
	}

	if accepted == nil {
		if structural {
			return fmt.Errorf("pattern %s: %w", c.Name, ErrAmbiguousCorrespondence)
		}

		return fmt.Errorf("pattern %s: %w", c.Name, ErrNoIsomorphismFound)
	}

	c.fragToCanon = accepted

	for el, fragID := range c.originToFrag {
		if canonID, ok := c.fragToCanon[fragID]; ok {
			c.elemToVertex[el] = canonID
		}
	}

	return nil
}

// labelsAgree reports whether a structural mapping also matches original
// labels vertex for vertex.
func labelsAgree(from, to *graph.PatternGraph, m iso.Mapping) bool {
	for fromID, toID := range m {
		fv, okFrom := from.Vertex(fromID)
		tv, okTo := to.Vertex(toID)

		if !okFrom || !okTo || fv.OriginalLabel != tv.OriginalLabel {
			return false
		}
	}

	return true
}

// bindOrigins associates representative-fragment vertices with syntax
// elements of the first sample's trees: before-part vertices bind against
// the before tree, after-part against the after tree. A vertex claims the
// first unclaimed node, in pre-order, whose token text equals the
// vertex's original label, falling back to structural-kind agreement.
// Vertices the trees cannot account for keep a zero origin.
func (c *Context) bindOrigins() {
	usedBefore := make(map[codetree.ElementID]bool)
	usedAfter := make(map[codetree.ElementID]bool)

	for _, v := range c.Representative.Vertices() {
		tree, used := c.BeforeTree, usedBefore
		if v.Part == graph.PartAfter {
			tree, used = c.AfterTree, usedAfter
		}

		if tree == nil {
			continue
		}

		if n := claimNode(tree, used, v); n != nil {
			v.Origin = int64(n.ID)
			c.originToFrag[n.ID] = v.ID
		}
	}
}

// claimNode finds the first unclaimed tree node matching the vertex.
func claimNode(tree *codetree.Tree, used map[codetree.ElementID]bool, v *graph.Vertex) *codetree.Node {
	var byToken, byKind *codetree.Node

	tree.Root.PreOrder(func(n *codetree.Node) {
		if used[n.ID] {
			return
		}

		if byToken == nil && n.Label != "" && n.Label == v.OriginalLabel {
			byToken = n
		}

		if byKind == nil && n.Type == v.Label {
			byKind = n
		}
	})

	chosen := byToken
	if chosen == nil {
		chosen = byKind
	}

	if chosen != nil {
		used[chosen.ID] = true
	}

	return chosen
}
