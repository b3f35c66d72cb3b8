// Package dot reads mined fragment graphs from DOT files and writes
// canonical pattern graphs back out in a structurally equivalent DOT
// dialect extended with classification attributes. The attribute names
// and part colors match what the mining tool emits and what the
// downstream subgraph matcher consumes.
package dot

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	dotparser "gonum.org/v1/gonum/graph/formats/dot"
	"gonum.org/v1/gonum/graph/formats/dot/ast"

	"github.com/changemine/patcanon/pkg/graph"
)

// Node attribute keys.
const (
	attrLabel         = "label"
	attrOriginalLabel = "original_label"
	attrColor         = "color"
	attrMatchingMode  = "matching_mode"
	attrLabels        = "labels"
	attrCommonSuffix  = "longest_common_var_name_suffix"
	attrMetadata      = "metadata"
)

// Part colors. The mining tool paints before-side vertices red2; the
// matcher selects the before subgraph by that color.
const (
	colorBefore = "red2"
	colorAfter  = "green4"
)

// labelSeparator joins the accumulated label set into one attribute value.
const labelSeparator = ";"

// Decode parses DOT data into a pattern graph. The first graph of the
// file is used; node IDs must be integers.
func Decode(data []byte) (*graph.PatternGraph, error) {
	file, err := dotparser.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parse dot: %w", err)
	}

	if len(file.Graphs) == 0 {
		return nil, fmt.Errorf("parse dot: no graphs in file")
	}

	src := file.Graphs[0]
	out := graph.New()

	// Two passes: DOT permits edges referencing nodes declared later, and
	// edges may declare nodes implicitly.
	for _, stmt := range src.Stmts {
		nodeStmt, ok := stmt.(*ast.NodeStmt)
		if !ok {
			continue
		}

		if err := addNode(out, nodeStmt); err != nil {
			return nil, err
		}
	}

	for _, stmt := range src.Stmts {
		edgeStmt, ok := stmt.(*ast.EdgeStmt)
		if !ok {
			continue
		}

		if err := addEdges(out, edgeStmt); err != nil {
			return nil, err
		}
	}

	return out, nil
}

// addNode converts one node statement into a vertex.
func addNode(g *graph.PatternGraph, stmt *ast.NodeStmt) error {
	id, err := nodeID(stmt.Node)
	if err != nil {
		return err
	}

	v := &graph.Vertex{ID: id}

	for _, attr := range stmt.Attrs {
		val := unquote(attr.Val)

		switch unquote(attr.Key) {
		case attrLabel:
			v.Label = val
		case attrOriginalLabel:
			v.OriginalLabel = val
		case attrColor:
			if val == colorBefore {
				v.Part = graph.PartBefore
			} else {
				v.Part = graph.PartAfter
			}
		case attrMetadata:
			v.Metadata = val
		case attrMatchingMode:
			ensureGroup(v).Mode = graph.ParseMatchingMode(val)
		case attrLabels:
			for _, l := range strings.Split(val, labelSeparator) {
				if l != "" {
					ensureGroup(v).Add(l)
				}
			}
		case attrCommonSuffix:
			ensureGroup(v).CommonSuffix = val
		}
	}

	if addErr := g.AddVertex(v); addErr != nil {
		return fmt.Errorf("decode node: %w", addErr)
	}

	return nil
}

func ensureGroup(v *graph.Vertex) *graph.LabelsGroup {
	if v.Group == nil {
		v.Group = &graph.LabelsGroup{}
	}

	return v.Group
}

// addEdges converts one edge statement, following the chained "a -> b -> c"
// form, into labeled edges. Endpoints must already exist as nodes.
func addEdges(g *graph.PatternGraph, stmt *ast.EdgeStmt) error {
	label := ""

	for _, attr := range stmt.Attrs {
		if unquote(attr.Key) == attrLabel {
			label = unquote(attr.Val)
		}
	}

	fromNode, ok := stmt.From.(*ast.Node)
	if !ok {
		return fmt.Errorf("decode edge: unsupported endpoint %q", stmt.From.String())
	}

	from, err := nodeID(fromNode)
	if err != nil {
		return err
	}

	for link := stmt.To; link != nil; link = link.To {
		toNode, ok := link.Vertex.(*ast.Node)
		if !ok {
			return fmt.Errorf("decode edge: unsupported endpoint %q", link.Vertex.String())
		}

		to, idErr := nodeID(toNode)
		if idErr != nil {
			return idErr
		}

		if addErr := g.AddEdge(from, to, label); addErr != nil {
			return fmt.Errorf("decode edge: %w", addErr)
		}

		from = to
	}

	return nil
}

// nodeID parses the integer node ID.
func nodeID(n *ast.Node) (int, error) {
	id, err := strconv.Atoi(unquote(n.ID))
	if err != nil {
		return 0, fmt.Errorf("decode node ID %q: %w", n.ID, err)
	}

	return id, nil
}

// unquote strips surrounding double quotes and unescapes the DOT string
// escapes the parser leaves in place.
func unquote(s string) string {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return s
	}

	inner := s[1 : len(s)-1]
	inner = strings.ReplaceAll(inner, `\"`, `"`)
	inner = strings.ReplaceAll(inner, `\\`, `\`)

	return inner
}

// quote wraps a value in double quotes with DOT escaping.
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)

	return `"` + s + `"`
}

// Encode renders a pattern graph as DOT. Vertices appear in ID order and
// edges in insertion order, so output is reproducible byte for byte.
func Encode(g *graph.PatternGraph, name string) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "digraph %s {\n", quote(name))

	vertices := g.Vertices()
	sort.Slice(vertices, func(i, j int) bool { return vertices[i].ID < vertices[j].ID })

	for _, v := range vertices {
		b.WriteString("\t")
		b.WriteString(strconv.Itoa(v.ID))
		b.WriteString(" [")
		writeAttrs(&b, v)
		b.WriteString("];\n")
	}

	for _, e := range g.Edges() {
		fmt.Fprintf(&b, "\t%d -> %d [%s=%s];\n", e.From, e.To, attrLabel, quote(e.Label))
	}

	b.WriteString("}\n")

	return []byte(b.String())
}

// writeAttrs renders one vertex's attribute list.
func writeAttrs(b *strings.Builder, v *graph.Vertex) {
	color := colorAfter
	if v.Part == graph.PartBefore {
		color = colorBefore
	}

	fmt.Fprintf(b, "%s=%s, %s=%s, %s=%s",
		attrLabel, quote(v.Label),
		attrOriginalLabel, quote(v.OriginalLabel),
		attrColor, quote(color))

	if v.Metadata != "" {
		fmt.Fprintf(b, ", %s=%s", attrMetadata, quote(v.Metadata))
	}

	if v.Group == nil {
		return
	}

	fmt.Fprintf(b, ", %s=%s", attrMatchingMode, quote(v.Group.Mode.String()))

	if len(v.Group.Labels) > 0 {
		fmt.Fprintf(b, ", %s=%s", attrLabels, quote(strings.Join(v.Group.Labels, labelSeparator)))
	}

	if v.Group.Mode == graph.ModeCommonSuffix {
		fmt.Fprintf(b, ", %s=%s", attrCommonSuffix, quote(v.Group.CommonSuffix))
	}
}
