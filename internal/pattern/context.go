// Package pattern implements the canonicalization engine: it merges
// isomorphic fragment graphs into one canonical pattern graph, classifies
// variable vertices, aligns per-sample edit scripts into one canonical
// action sequence, extends the graph so every action is representable,
// and serializes the result for the downstream matcher.
package pattern

import (
	"github.com/changemine/patcanon/pkg/codetree"
	"github.com/changemine/patcanon/pkg/graph"
)

// Context carries all per-pattern pipeline state. Every pattern gets its
// own Context and discards it after serialization; nothing here is shared
// across patterns, which is what makes per-pattern workers safe without
// synchronization.
type Context struct {
	// Name identifies the pattern, derived from its source directory.
	Name string

	// IsoBudget caps each isomorphism search. Zero means the oracle
	// default.
	IsoBudget int

	// Representative is the cached fragment graph chosen by the
	// canonicalizer, kept for correspondence building and hanger lookup.
	Representative *graph.PatternGraph

	// Canonical is the merged pattern graph the pipeline refines in place.
	Canonical *graph.PatternGraph

	// Actions is the canonical edit sequence once alignment has run.
	Actions []Action

	// BeforeTree and AfterTree are the first sample's syntax trees. The
	// canonical actions reference elements of these trees.
	BeforeTree *codetree.Tree
	AfterTree  *codetree.Tree

	// Description is the optional human-readable pattern description.
	Description string

	// FragmentCount and SampleCount record how many inputs fed the
	// pattern, for the metadata sidecar.
	FragmentCount int
	SampleCount   int

	// fragToCanon maps representative-fragment vertex IDs to canonical
	// vertex IDs.
	fragToCanon map[int]int

	// elemToVertex maps syntax-element keys to canonical vertex IDs.
	elemToVertex map[codetree.ElementID]int

	// originToFrag maps syntax-element keys to representative-fragment
	// vertex IDs, established when sample trees are bound to the fragment.
	originToFrag map[codetree.ElementID]int
}

// NewContext returns a fresh pipeline context for one pattern.
func NewContext(name string) *Context {
	return &Context{
		Name:         name,
		fragToCanon:  make(map[int]int),
		elemToVertex: make(map[codetree.ElementID]int),
		originToFrag: make(map[codetree.ElementID]int),
	}
}

// VertexFor resolves a syntax element to its canonical vertex ID.
func (c *Context) VertexFor(el codetree.ElementID) (int, bool) {
	id, ok := c.elemToVertex[el]

	return id, ok
}

// element resolves an element key against the first sample's trees.
func (c *Context) element(id codetree.ElementID) (*codetree.Node, bool) {
	if c.BeforeTree != nil {
		if n, ok := c.BeforeTree.Element(id); ok {
			return n, true
		}
	}

	if c.AfterTree != nil {
		if n, ok := c.AfterTree.Element(id); ok {
			return n, true
		}
	}

	return nil, false
}
