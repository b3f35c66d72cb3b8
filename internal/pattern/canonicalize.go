package pattern

import (
	"errors"
	"fmt"

	"github.com/changemine/patcanon/pkg/alg/iso"
	"github.com/changemine/patcanon/pkg/graph"
)

// Canonicalize merges the ordered fragment graphs of one pattern into a
// single canonical graph. The first fragment becomes the representative;
// every fragment (the representative included) must be isomorphic to it
// under super-weak matching, and each fragment's variable labels are
// accumulated onto the representative's vertices.
//
// The representative fragment is cached on the context for reuse by
// correspondence building and hanger lookup.
func (c *Context) Canonicalize(fragments []*graph.PatternGraph) error {
	if len(fragments) == 0 {
		return fmt.Errorf("pattern %s: %w", c.Name, ErrNoFragments)
	}

	representative := fragments[0]

	canonical := representative.Clone()
	for _, v := range canonical.Vertices() {
		if v.IsVariable() {
			v.Group = graph.NewLabelsGroup()
		}
	}

	for i, fragment := range fragments {
		matcher := iso.NewMatcher(fragment, representative, iso.Options{
			Mode:   iso.ModeSuperWeak,
			Budget: c.IsoBudget,
		})

		// First mapping in enumeration order; nothing downstream may
		// depend on any particular mapping being "best", only on the
		// first being stable across runs.
		mapping, err := matcher.First()
		if err != nil {
			if errors.Is(err, iso.ErrBudgetExhausted) {
				return fmt.Errorf("pattern %s fragment %d: %w", c.Name, i, ErrNoIsomorphismFound)
			}

			return fmt.Errorf("pattern %s fragment %d: %w", c.Name, i, err)
		}

		if mapping == nil || fragment.Len() != representative.Len() {
			return fmt.Errorf("pattern %s fragment %d: %w", c.Name, i, ErrFragmentsNotIsomorphic)
		}

		accumulateLabels(canonical, fragment, mapping)
	}

	c.Representative = representative
	c.Canonical = canonical
	c.FragmentCount = len(fragments)

	return nil
}

// accumulateLabels appends each variable vertex's original label from the
// fragment onto the canonical vertex it maps to. Canonical vertex IDs
// coincide with the representative's because the canonical graph is built
// from its topology. Vertices are visited in canonical insertion order so
// repeated runs aggregate byte-identically.
func accumulateLabels(canonical, fragment *graph.PatternGraph, mapping iso.Mapping) {
	for _, cv := range canonical.Vertices() {
		if cv.Group == nil {
			continue
		}

		fragID, ok := mapping[cv.ID]
		if !ok {
			continue
		}

		fv, ok := fragment.Vertex(fragID)
		if !ok || !fv.IsVariable() {
			continue
		}

		cv.Group.Add(fv.OriginalLabel)
	}
}
