package pattern

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/changemine/patcanon/pkg/graph"
)

// fragment builds one mined occurrence graph: an assignment feeding a
// variable vertex on the before side, a call on the after side.
func fragment(t *testing.T, varLabel string) *graph.PatternGraph {
	t.Helper()

	g := graph.New()
	assign := g.NewVertex("assign", "=", graph.PartBefore)
	v := g.NewVertex("var1", varLabel, graph.PartBefore)
	call := g.NewVertex("call", "len", graph.PartAfter)

	require.NoError(t, g.AddEdge(assign.ID, v.ID, "def"))
	require.NoError(t, g.AddEdge(v.ID, call.ID, "map"))

	return g
}

func TestCanonicalizePicksFirstFragmentAsRepresentative(t *testing.T) {
	t.Parallel()

	fragments := []*graph.PatternGraph{
		fragment(t, "obj.size"),
		fragment(t, "obj.length"),
	}

	c := NewContext("p")
	require.NoError(t, c.Canonicalize(fragments))

	assert.Same(t, fragments[0], c.Representative)
	assert.Equal(t, 2, c.FragmentCount)
}

func TestCanonicalizeAggregatesVariableLabels(t *testing.T) {
	t.Parallel()

	fragments := []*graph.PatternGraph{
		fragment(t, "obj.size"),
		fragment(t, "obj.length"),
		fragment(t, "obj.size"),
	}

	c := NewContext("p")
	require.NoError(t, c.Canonicalize(fragments))

	var groups []*graph.LabelsGroup

	for _, v := range c.Canonical.Vertices() {
		if v.IsVariable() {
			require.NotNil(t, v.Group)
			groups = append(groups, v.Group)
		}
	}

	require.Len(t, groups, 1)

	// Union of labels across all mapped occurrences, no duplicates, mode
	// left for the classifier.
	assert.Equal(t, []string{"obj.size", "obj.length"}, groups[0].Labels)
	assert.Equal(t, graph.ModeUnset, groups[0].Mode)
}

func TestCanonicalizeIsDeterministic(t *testing.T) {
	t.Parallel()

	build := func() *Context {
		c := NewContext("p")
		require.NoError(t, c.Canonicalize([]*graph.PatternGraph{
			fragment(t, "obj.size"),
			fragment(t, "obj.length"),
			fragment(t, "self.data"),
		}))

		return c
	}

	first := build()

	for range 5 {
		again := build()
		require.Equal(t, first.Canonical.Len(), again.Canonical.Len())

		firstVertices := first.Canonical.Vertices()
		againVertices := again.Canonical.Vertices()

		for i, v := range firstVertices {
			assert.Equal(t, v.Label, againVertices[i].Label)

			if v.Group != nil {
				assert.Equal(t, v.Group.Labels, againVertices[i].Group.Labels)
			}
		}
	}
}

func TestCanonicalizeRejectsNonIsomorphicFragments(t *testing.T) {
	t.Parallel()

	odd := graph.New()
	odd.NewVertex("assign", "=", graph.PartBefore)
	odd.NewVertex("var1", "x", graph.PartBefore)
	odd.NewVertex("call", "len", graph.PartAfter)
	// Same vertices, no edges: structurally different from fragment().

	c := NewContext("p")
	err := c.Canonicalize([]*graph.PatternGraph{fragment(t, "obj.size"), odd})
	require.ErrorIs(t, err, ErrFragmentsNotIsomorphic)
}

func TestCanonicalizeRejectsLargerFragment(t *testing.T) {
	t.Parallel()

	big := fragment(t, "obj.size")
	big.NewVertex("loop", "for", graph.PartBefore)

	c := NewContext("p")
	err := c.Canonicalize([]*graph.PatternGraph{fragment(t, "obj.size"), big})
	require.ErrorIs(t, err, ErrFragmentsNotIsomorphic)
}

func TestCanonicalizeAllPairsIsomorphicSucceeds(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	err := c.Canonicalize([]*graph.PatternGraph{
		fragment(t, "a.x"),
		fragment(t, "b.y"),
		fragment(t, "c.z"),
	})
	require.NoError(t, err)
}

func TestCanonicalizeEmptyListFails(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	require.ErrorIs(t, c.Canonicalize(nil), ErrNoFragments)
}

func TestCanonicalizeSingleFragmentKeepsOwnLabel(t *testing.T) {
	t.Parallel()

	c := NewContext("p")
	require.NoError(t, c.Canonicalize([]*graph.PatternGraph{fragment(t, "obj.size")}))

	for _, v := range c.Canonical.Vertices() {
		if v.IsVariable() {
			assert.Equal(t, []string{"obj.size"}, v.Group.Labels)
		}
	}
}
