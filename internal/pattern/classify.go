package pattern

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/changemine/patcanon/pkg/graph"
)

// memberSeparator is the member-access separator the automatic heuristic
// keys on: a shared suffix containing it means "some object's fixed
// attribute".
const memberSeparator = "."

// Decider chooses a matching mode for one variable vertex given its
// accumulated label set. Implementations must be pure over the labels;
// the classifier never lets them mutate the graph.
type Decider interface {
	Decide(labels []string) (graph.MatchingMode, error)
}

// Classify populates every variable vertex's labels group with a decided
// matching mode. Non-variable vertices are left untouched; graph topology
// never changes. When the decided mode is common-suffix, the longest
// common suffix over the label set is computed here.
func (c *Context) Classify(decider Decider) error {
	for _, v := range c.Canonical.Vertices() {
		if !v.IsVariable() {
			continue
		}

		if v.Group == nil {
			v.Group = graph.NewLabelsGroup(v.OriginalLabel)
		}

		mode, err := decider.Decide(v.Group.Labels)
		if err != nil {
			return fmt.Errorf("classify vertex %d: %w", v.ID, err)
		}

		v.Group.Mode = mode

		v.Group.CommonSuffix = ""
		if mode == graph.ModeCommonSuffix {
			v.Group.CommonSuffix = graph.LongestCommonSuffix(v.Group.Labels)
		}
	}

	return nil
}

// AutoDecider is the deterministic classification heuristic and the
// default decision provider.
type AutoDecider struct{}

// Decide applies the heuristic: a common suffix containing the member
// separator pins the suffix; labels that all contain the separator but
// share no suffix are distinct enough that exact matching is safer;
// anything else is an arbitrary variable name, irrelevant to matching.
func (AutoDecider) Decide(labels []string) (graph.MatchingMode, error) {
	suffix := graph.LongestCommonSuffix(labels)

	if strings.Contains(suffix, memberSeparator) {
		return graph.ModeCommonSuffix, nil
	}

	if len(labels) > 0 && allContain(labels, memberSeparator) {
		return graph.ModeExactLabel, nil
	}

	return graph.ModeUnconstrained, nil
}

func allContain(labels []string, sub string) bool {
	for _, l := range labels {
		if !strings.Contains(l, sub) {
			return false
		}
	}

	return true
}

// PromptDecider asks an external decision source, one variable vertex at
// a time, and re-prompts until it reads a valid directive. It backs the
// manual classification mode; feed it a terminal or a scripted reader.
type PromptDecider struct {
	In  io.Reader
	Out io.Writer

	reader *bufio.Reader
}

// Decide presents the label set and reads one of the directives
// exact_label, common_suffix, or unconstrained (short forms e, s, u).
// Invalid input re-prompts rather than failing; only a closed input
// stream is an error.
func (p *PromptDecider) Decide(labels []string) (graph.MatchingMode, error) {
	if p.reader == nil {
		p.reader = bufio.NewReader(p.In)
	}

	header := color.New(color.Bold)

	for {
		_, _ = header.Fprintf(p.Out, "variable vertex with labels %s\n", strings.Join(labels, ", "))
		fmt.Fprint(p.Out, "matching mode [e]xact_label / common_[s]uffix / [u]nconstrained: ")

		line, err := p.reader.ReadString('\n')
		if err != nil && line == "" {
			return graph.ModeUnset, fmt.Errorf("read directive: %w", err)
		}

		switch strings.ToLower(strings.TrimSpace(line)) {
		case "e", "exact_label":
			return graph.ModeExactLabel, nil
		case "s", "common_suffix":
			return graph.ModeCommonSuffix, nil
		case "u", "unconstrained":
			return graph.ModeUnconstrained, nil
		}

		fmt.Fprintln(p.Out, "invalid directive")
	}
}
