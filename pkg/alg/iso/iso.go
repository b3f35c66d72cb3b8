// Package iso implements backtracking subgraph isomorphism search over
// pattern graphs. The search enumerates induced embeddings of a pattern
// graph inside a host graph under a configurable vertex-equivalence mode
// and an explicit step budget, so worst-case exponential inputs surface
// as a recoverable error instead of an unbounded hang.
package iso

import (
	"errors"

	"github.com/changemine/patcanon/pkg/graph"
)

// Mode selects how strictly two vertices must agree to be considered
// equivalent during the search.
type Mode int

const (
	// ModeStrict requires equal labels and equal original labels.
	ModeStrict Mode = iota
	// ModeWeak requires equal labels; original labels are ignored.
	ModeWeak
	// ModeSuperWeak requires equal labels for non-variable vertices and
	// lets any variable match any other variable.
	ModeSuperWeak
)

// DefaultBudget is the step budget applied when Options.Budget is zero.
const DefaultBudget = 2_000_000

// ErrBudgetExhausted is returned when the search spends its step budget
// before finishing enumeration.
var ErrBudgetExhausted = errors.New("isomorphism search budget exhausted")

// Options configures a search.
type Options struct {
	Mode Mode
	// Budget caps the number of candidate-pair trials. Zero means
	// DefaultBudget.
	Budget int
}

// Mapping assigns each pattern vertex ID a host vertex ID.
type Mapping map[int]int

// Matcher searches for induced embeddings of pattern inside host.
type Matcher struct {
	host    *graph.PatternGraph
	pattern *graph.PatternGraph
	opts    Options

	patternOrder []*graph.Vertex
	hostVertices []*graph.Vertex
	steps        int
}

// NewMatcher prepares a search of pattern inside host.
func NewMatcher(host, pattern *graph.PatternGraph, opts Options) *Matcher {
	if opts.Budget <= 0 {
		opts.Budget = DefaultBudget
	}

	return &Matcher{
		host:         host,
		pattern:      pattern,
		opts:         opts,
		patternOrder: pattern.Vertices(),
		hostVertices: host.Vertices(),
	}
}

// First returns the first embedding in enumeration order, or nil when the
// pattern does not embed in the host. Enumeration order is fixed by the
// insertion order of both graphs, so repeated runs agree on which mapping
// is "first".
func (m *Matcher) First() (Mapping, error) {
	var found Mapping

	err := m.Enumerate(func(mapping Mapping) bool {
		found = mapping

		return false
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// Enumerate invokes fn for every embedding found, in a stable order. The
// callback receives a private copy of the mapping and returns false to
// stop enumeration early.
func (m *Matcher) Enumerate(fn func(Mapping) bool) error {
	if m.pattern.Len() > m.host.Len() {
		return nil
	}

	m.steps = 0
	assigned := make(Mapping, m.pattern.Len())
	usedHost := make(map[int]bool, m.pattern.Len())

	_, err := m.extend(0, assigned, usedHost, fn)

	return err
}

// extend tries every compatible host vertex for the pattern vertex at
// depth. It reports whether enumeration should continue.
func (m *Matcher) extend(depth int, assigned Mapping, usedHost map[int]bool, fn func(Mapping) bool) (bool, error) {
	if depth == len(m.patternOrder) {
		out := make(Mapping, len(assigned))
		for k, v := range assigned {
			out[k] = v
		}

		return fn(out), nil
	}

	pv := m.patternOrder[depth]

	for _, hv := range m.hostVertices {
		m.steps++
		if m.steps > m.opts.Budget {
			return false, ErrBudgetExhausted
		}

		if usedHost[hv.ID] || !m.compatible(pv, hv) {
			continue
		}

		assigned[pv.ID] = hv.ID
		usedHost[hv.ID] = true

		if m.edgesConsistent(pv, hv, assigned) {
			cont, err := m.extend(depth+1, assigned, usedHost, fn)
			if err != nil || !cont {
				delete(assigned, pv.ID)
				delete(usedHost, hv.ID)

				return cont, err
			}
		}

		delete(assigned, pv.ID)
		delete(usedHost, hv.ID)
	}

	return true, nil
}

// compatible applies the vertex-equivalence mode.
func (m *Matcher) compatible(pv, hv *graph.Vertex) bool {
	switch m.opts.Mode {
	case ModeStrict:
		return pv.Label == hv.Label && pv.OriginalLabel == hv.OriginalLabel
	case ModeWeak:
		return pv.Label == hv.Label
	case ModeSuperWeak:
		if pv.IsVariable() || hv.IsVariable() {
			return pv.IsVariable() && hv.IsVariable()
		}

		return pv.Label == hv.Label
	}

	return false
}

// edgesConsistent checks that, between the newly assigned vertex and every
// previously assigned one, the pattern and the host carry the same labeled
// edges in both directions. This is what makes found embeddings induced
// subgraphs rather than mere homomorphic images.
func (m *Matcher) edgesConsistent(pv *graph.Vertex, hv *graph.Vertex, assigned Mapping) bool {
	for otherP, otherH := range assigned {
		if otherP == pv.ID {
			continue
		}

		if !sameEdgeLabels(m.pattern, pv.ID, otherP, m.host, hv.ID, otherH) {
			return false
		}

		if !sameEdgeLabels(m.pattern, otherP, pv.ID, m.host, otherH, hv.ID) {
			return false
		}
	}

	return true
}

// sameEdgeLabels compares the multisets of edge labels from pFrom to pTo
// in the pattern against those from hFrom to hTo in the host.
func sameEdgeLabels(p *graph.PatternGraph, pFrom, pTo int, h *graph.PatternGraph, hFrom, hTo int) bool {
	counts := make(map[string]int)

	for _, e := range p.Out(pFrom) {
		if e.To == pTo {
			counts[e.Label]++
		}
	}

	for _, e := range h.Out(hFrom) {
		if e.To == hTo {
			counts[e.Label]--
		}
	}

	for _, c := range counts {
		if c != 0 {
			return false
		}
	}

	return true
}
