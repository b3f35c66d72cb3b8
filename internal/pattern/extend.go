package pattern

import (
	"fmt"

	"github.com/changemine/patcanon/pkg/codetree"
	"github.com/changemine/patcanon/pkg/graph"
)

// Extend promotes every element the canonical actions reference, but the
// canonical graph cannot yet represent, into a "hanger" vertex. The
// downstream matcher only matches induced subgraphs, so an action whose
// target or parent is missing from the graph would be unrepresentable.
//
// Hangers are cloned from the cached representative fragment when it
// knows the element, and synthesized from the syntax element itself when
// it does not. Variable hangers are reset to unconstrained matching: a
// hanger exists only to anchor structure, its exact label must not
// constrain the match. Edges are re-linked only toward endpoints that
// already have a canonical counterpart at the moment the hanger is
// processed; the pass is stable and partial connectivity for endpoints
// still pending is accepted.
func (c *Context) Extend() error {
	for _, el := range c.hangerElements() {
		if err := c.addHanger(el); err != nil {
			return err
		}
	}

	return c.checkReferencesClosed()
}

// hangerElements collects, in action order without duplicates, every
// referenced element lacking a canonical vertex. Elements inserted by an
// insert action are never hangers: they do not exist before the change.
func (c *Context) hangerElements() []codetree.ElementID {
	var out []codetree.ElementID

	seen := make(map[codetree.ElementID]bool)

	collect := func(el codetree.ElementID) {
		if el == 0 || seen[el] {
			return
		}

		seen[el] = true

		if _, ok := c.elemToVertex[el]; !ok {
			out = append(out, el)
		}
	}

	for _, a := range c.Actions {
		switch a.Kind {
		case KindUpdate, KindDelete:
			collect(a.Target)
		case KindMove:
			collect(a.Target)
			collect(a.Parent)
		case KindInsert:
			collect(a.Parent)
		}
	}

	return out
}

// addHanger promotes one element into the canonical graph.
func (c *Context) addHanger(el codetree.ElementID) error {
	if fragID, ok := c.originToFrag[el]; ok {
		if _, mapped := c.fragToCanon[fragID]; mapped {
			// Already representable through the fragment correspondence.
			c.elemToVertex[el] = c.fragToCanon[fragID]

			return nil
		}

		fv, ok := c.Representative.Vertex(fragID)
		if !ok {
			return fmt.Errorf("pattern %s: fragment vertex %d vanished", c.Name, fragID)
		}

		v := c.cloneAsHanger(fv, el)
		c.relink(fragID, v.ID)
		c.fragToCanon[fragID] = v.ID
		c.elemToVertex[el] = v.ID

		return nil
	}

	// The representative fragment does not know this element; synthesize
	// the hanger from the syntax element itself, with no edges.
	n, ok := c.element(el)
	if !ok {
		return fmt.Errorf("pattern %s: action references unknown element %d", c.Name, el)
	}

	part := graph.PartAfter

	if c.BeforeTree != nil {
		if _, inBefore := c.BeforeTree.Element(el); inBefore {
			part = graph.PartBefore
		}
	}

	v := c.Canonical.NewVertex(n.Type, n.Label, part)
	v.Metadata = graph.MetadataHanger
	v.Origin = int64(el)
	c.elemToVertex[el] = v.ID

	return nil
}

// cloneAsHanger copies a fragment vertex's data into a new canonical
// hanger vertex.
func (c *Context) cloneAsHanger(fv *graph.Vertex, el codetree.ElementID) *graph.Vertex {
	v := c.Canonical.NewVertex(fv.Label, fv.OriginalLabel, fv.Part)
	v.Metadata = graph.MetadataHanger
	v.Origin = int64(el)

	if v.IsVariable() {
		v.Group = graph.NewLabelsGroup(fv.OriginalLabel)
		v.Group.Mode = graph.ModeUnconstrained
	}

	return v
}

// relink copies the fragment vertex's incident edges into the canonical
// graph wherever the other endpoint already has a canonical counterpart.
func (c *Context) relink(fragID, canonID int) {
	for _, e := range c.Representative.Out(fragID) {
		if other, ok := c.fragToCanon[e.To]; ok {
			_ = c.Canonical.AddEdge(canonID, other, e.Label)
		}
	}

	for _, e := range c.Representative.In(fragID) {
		if other, ok := c.fragToCanon[e.From]; ok {
			_ = c.Canonical.AddEdge(other, canonID, e.Label)
		}
	}
}

// checkReferencesClosed verifies the extension postcondition: every
// action's target and parent resolve to canonical vertices. Insert
// targets are exempt, they name the element the action creates.
func (c *Context) checkReferencesClosed() error {
	for _, a := range c.Actions {
		if a.Kind != KindInsert {
			if _, ok := c.elemToVertex[a.Target]; !ok {
				return fmt.Errorf("pattern %s: %s target %d unresolved after extension",
					c.Name, a.Kind, a.Target)
			}
		}

		needsParent := a.Kind == KindInsert || a.Kind == KindMove
		if needsParent && a.Parent != 0 {
			if _, ok := c.elemToVertex[a.Parent]; !ok {
				return fmt.Errorf("pattern %s: %s parent %d unresolved after extension",
					c.Name, a.Kind, a.Parent)
			}
		}
	}

	return nil
}
