package pattern

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"

	"github.com/changemine/patcanon/pkg/graph"
	"github.com/changemine/patcanon/pkg/graph/dot"
)

//go:embed actions_schema.json
var actionsSchema []byte

// Output file names inside a pattern's destination directory.
const (
	graphFileName       = "graph.dot"
	actionsFileName     = "actions.json"
	metaFileName        = "pattern.yaml"
	descriptionFileName = "description.txt"
)

// actionRecord is the persisted form of one action. Target and parent are
// canonical vertex IDs; zero marks a reference the graph does not carry
// (only insert targets, which name the element the action creates).
type actionRecord struct {
	Kind        string `json:"kind"`
	Target      int    `json:"target,omitempty"`
	Parent      int    `json:"parent,omitempty"`
	Position    int    `json:"position,omitempty"`
	Value       string `json:"value,omitempty"`
	TargetType  string `json:"target_type"`
	TargetLabel string `json:"target_label,omitempty"`
}

// actionsFile is the persisted action sequence.
type actionsFile struct {
	Pattern string         `json:"pattern"`
	Actions []actionRecord `json:"actions"`
}

// meta is the per-pattern metadata sidecar.
type meta struct {
	Name           string `yaml:"name"`
	Fragments      int    `yaml:"fragments"`
	Samples        int    `yaml:"samples"`
	Vertices       int    `yaml:"vertices"`
	BeforeVertices int    `yaml:"before_vertices"`
	AfterVertices  int    `yaml:"after_vertices"`
	Hangers        int    `yaml:"hangers"`
	Actions        int    `yaml:"actions"`
	Classified     int    `yaml:"classified_variables"`
}

// Serialize projects the canonical graph, the classified label groups,
// and the canonical action sequence into the pattern's destination
// directory. The action list is validated against the embedded schema
// before anything is written.
func (c *Context) Serialize(destDir string) error {
	actions, err := c.encodeActions()
	if err != nil {
		return err
	}

	dir := filepath.Join(destDir, c.Name)
	if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
		return fmt.Errorf("create pattern output dir: %w", mkErr)
	}

	graphData := dot.Encode(c.Canonical, c.Name)
	if writeErr := os.WriteFile(filepath.Join(dir, graphFileName), graphData, 0o644); writeErr != nil {
		return fmt.Errorf("write %s: %w", graphFileName, writeErr)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, actionsFileName), actions, 0o644); writeErr != nil {
		return fmt.Errorf("write %s: %w", actionsFileName, writeErr)
	}

	metaData, marshalErr := yaml.Marshal(c.buildMeta())
	if marshalErr != nil {
		return fmt.Errorf("marshal %s: %w", metaFileName, marshalErr)
	}

	if writeErr := os.WriteFile(filepath.Join(dir, metaFileName), metaData, 0o644); writeErr != nil {
		return fmt.Errorf("write %s: %w", metaFileName, writeErr)
	}

	if c.Description != "" {
		descErr := os.WriteFile(filepath.Join(dir, descriptionFileName), []byte(c.Description), 0o644)
		if descErr != nil {
			return fmt.Errorf("write %s: %w", descriptionFileName, descErr)
		}
	}

	return nil
}

// encodeActions renders and schema-checks the canonical action sequence.
func (c *Context) encodeActions() ([]byte, error) {
	file := actionsFile{Pattern: c.Name, Actions: make([]actionRecord, 0, len(c.Actions))}

	for _, a := range c.Actions {
		rec := actionRecord{
			Kind:        a.Kind.String(),
			Position:    a.Position,
			Value:       a.Value,
			TargetType:  a.TargetType,
			TargetLabel: a.TargetLabel,
		}

		if id, ok := c.elemToVertex[a.Target]; ok {
			rec.Target = id
		}

		if id, ok := c.elemToVertex[a.Parent]; ok {
			rec.Parent = id
		}

		file.Actions = append(file.Actions, rec)
	}

	encoded, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal actions: %w", err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(actionsSchema),
		gojsonschema.NewBytesLoader(encoded),
	)
	if err != nil {
		return nil, fmt.Errorf("validate actions: %w", err)
	}

	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}

		return nil, fmt.Errorf("actions for pattern %s violate schema: %s", c.Name, strings.Join(msgs, "; "))
	}

	return encoded, nil
}

// buildMeta summarizes the finished pattern.
func (c *Context) buildMeta() meta {
	m := meta{
		Name:      c.Name,
		Fragments: c.FragmentCount,
		Samples:   c.SampleCount,
		Vertices:  c.Canonical.Len(),
		Actions:   len(c.Actions),
		BeforeVertices: c.Canonical.Induced(func(v *graph.Vertex) bool {
			return v.Part == graph.PartBefore
		}).Len(),
		AfterVertices: c.Canonical.Induced(func(v *graph.Vertex) bool {
			return v.Part == graph.PartAfter
		}).Len(),
	}

	for _, v := range c.Canonical.Vertices() {
		if v.Metadata == graph.MetadataHanger {
			m.Hangers++
		}

		if v.IsVariable() && v.Group != nil && v.Group.Mode != graph.ModeUnset {
			m.Classified++
		}
	}

	return m
}
