// Package graph provides the pattern graph model: vertices tagged with
// change parts and matching classifications, labeled directed edges, and
// the container operations the canonicalization pipeline builds on.
package graph

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Part marks which side of a code change a vertex originated from.
type Part int

// Change parts.
const (
	PartBefore Part = iota
	PartAfter
)

// String returns the serialized part name.
func (p Part) String() string {
	if p == PartAfter {
		return "after"
	}

	return "before"
}

// VarLabelPrefix marks a vertex as a free variable. Fragment miners emit
// variable vertices with labels of the form "var..." regardless of the
// concrete identifier they bound.
const VarLabelPrefix = "var"

// MetadataHanger marks vertices added by the graph extender solely to
// anchor an edit action's target or parent.
const MetadataHanger = "hanger"

// Vertex is one node of a pattern graph.
type Vertex struct {
	// ID is stable and unique within the owning graph.
	ID int
	// Label is the structural kind, e.g. a syntax-construct tag or
	// "var..." for a free variable.
	Label string
	// OriginalLabel is the verbatim source token the vertex was built from.
	OriginalLabel string
	// Part records which side of the change the vertex belongs to.
	Part Part
	// Group holds the matching classification. Non-nil only for variable
	// vertices.
	Group *LabelsGroup
	// Origin is a non-owning key into the external syntax-element table.
	// Zero means the vertex has no recorded origin.
	Origin int64
	// Metadata is a free-form annotation, e.g. MetadataHanger.
	Metadata string
}

// IsVariable reports whether the vertex denotes a free variable.
func (v *Vertex) IsVariable() bool {
	return strings.HasPrefix(v.Label, VarLabelPrefix)
}

// Clone returns a deep copy of the vertex.
func (v *Vertex) Clone() *Vertex {
	clone := *v
	if v.Group != nil {
		clone.Group = v.Group.Clone()
	}

	return &clone
}

// Edge is a labeled directed edge between two vertices, identified by the
// endpoint IDs. The label carries the structural relation kind (control or
// data dependency) and participates in isomorphism comparison.
type Edge struct {
	From  int
	To    int
	Label string
}

// ErrUnknownVertex is returned when an edge references a vertex ID that is
// not present in the graph.
var ErrUnknownVertex = errors.New("unknown vertex")

// PatternGraph is a directed multigraph over Vertex. Vertices are owned by
// exactly one graph; iteration order is insertion order so that repeated
// runs over the same input produce identical output.
type PatternGraph struct {
	vertices map[int]*Vertex
	order    []int
	edges    []Edge
	nextID   int
}

// New returns an empty pattern graph.
func New() *PatternGraph {
	return &PatternGraph{vertices: make(map[int]*Vertex), nextID: 1}
}

// NewVertex allocates a vertex with the next free ID and adds it to the
// graph.
func (g *PatternGraph) NewVertex(label, originalLabel string, part Part) *Vertex {
	v := &Vertex{ID: g.nextID, Label: label, OriginalLabel: originalLabel, Part: part}
	g.nextID++
	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)

	return v
}

// AddVertex inserts a vertex carrying its own ID, e.g. one decoded from a
// persisted graph. IDs already present are rejected.
func (g *PatternGraph) AddVertex(v *Vertex) error {
	if _, ok := g.vertices[v.ID]; ok {
		return fmt.Errorf("add vertex %d: duplicate ID", v.ID)
	}

	g.vertices[v.ID] = v
	g.order = append(g.order, v.ID)

	if v.ID >= g.nextID {
		g.nextID = v.ID + 1
	}

	return nil
}

// AddEdge inserts a labeled edge. Both endpoints must already be present.
func (g *PatternGraph) AddEdge(from, to int, label string) error {
	if _, ok := g.vertices[from]; !ok {
		return fmt.Errorf("add edge from %d: %w", from, ErrUnknownVertex)
	}

	if _, ok := g.vertices[to]; !ok {
		return fmt.Errorf("add edge to %d: %w", to, ErrUnknownVertex)
	}

	g.edges = append(g.edges, Edge{From: from, To: to, Label: label})

	return nil
}

// Vertex looks up a vertex by ID.
func (g *PatternGraph) Vertex(id int) (*Vertex, bool) {
	v, ok := g.vertices[id]

	return v, ok
}

// Vertices returns all vertices in insertion order.
func (g *PatternGraph) Vertices() []*Vertex {
	out := make([]*Vertex, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.vertices[id])
	}

	return out
}

// Edges returns all edges in insertion order.
func (g *PatternGraph) Edges() []Edge {
	return slices.Clone(g.edges)
}

// Out returns the outgoing edges of the given vertex.
func (g *PatternGraph) Out(id int) []Edge {
	var out []Edge

	for _, e := range g.edges {
		if e.From == id {
			out = append(out, e)
		}
	}

	return out
}

// In returns the incoming edges of the given vertex.
func (g *PatternGraph) In(id int) []Edge {
	var in []Edge

	for _, e := range g.edges {
		if e.To == id {
			in = append(in, e)
		}
	}

	return in
}

// Len returns the vertex count.
func (g *PatternGraph) Len() int {
	return len(g.order)
}

// HasEdge reports whether an edge with the given endpoints and label exists.
func (g *PatternGraph) HasEdge(from, to int, label string) bool {
	for _, e := range g.edges {
		if e.From == from && e.To == to && e.Label == label {
			return true
		}
	}

	return false
}

// Induced returns the subgraph induced by the vertices keep accepts.
// Vertex IDs are preserved; edges survive only when both endpoints do.
func (g *PatternGraph) Induced(keep func(*Vertex) bool) *PatternGraph {
	sub := New()

	for _, id := range g.order {
		v := g.vertices[id]
		if keep(v) {
			clone := v.Clone()
			sub.vertices[clone.ID] = clone
			sub.order = append(sub.order, clone.ID)

			if clone.ID >= sub.nextID {
				sub.nextID = clone.ID + 1
			}
		}
	}

	for _, e := range g.edges {
		_, hasFrom := sub.vertices[e.From]
		_, hasTo := sub.vertices[e.To]

		if hasFrom && hasTo {
			sub.edges = append(sub.edges, e)
		}
	}

	return sub
}

// Clone returns a deep copy of the graph. Vertex IDs are preserved.
func (g *PatternGraph) Clone() *PatternGraph {
	clone := New()
	clone.nextID = g.nextID

	for _, id := range g.order {
		v := g.vertices[id].Clone()
		clone.vertices[v.ID] = v
		clone.order = append(clone.order, v.ID)
	}

	clone.edges = slices.Clone(g.edges)

	return clone
}
