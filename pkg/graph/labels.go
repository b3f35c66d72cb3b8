package graph

import (
	"slices"
	"unicode/utf8"
)

// MatchingMode decides how a variable vertex's observed labels constrain
// the downstream matcher.
type MatchingMode int

// Matching modes. ModeUnset is the pre-classification state; the
// classifier replaces it with one of the three concrete modes.
const (
	ModeUnset MatchingMode = iota
	ModeExactLabel
	ModeCommonSuffix
	ModeUnconstrained
)

// String returns the serialized mode name.
func (m MatchingMode) String() string {
	switch m {
	case ModeExactLabel:
		return "exact_label"
	case ModeCommonSuffix:
		return "common_suffix"
	case ModeUnconstrained:
		return "unconstrained"
	case ModeUnset:
	}

	return "unset"
}

// ParseMatchingMode maps a serialized mode name back to its value. Unknown
// names map to ModeUnset.
func ParseMatchingMode(s string) MatchingMode {
	switch s {
	case "exact_label":
		return ModeExactLabel
	case "common_suffix":
		return ModeCommonSuffix
	case "unconstrained":
		return ModeUnconstrained
	}

	return ModeUnset
}

// LabelsGroup records the original labels observed for one variable vertex
// across all merged fragment occurrences, plus the policy for whether and
// how those labels constrain matching.
type LabelsGroup struct {
	// Mode is the matching policy chosen by the classifier.
	Mode MatchingMode
	// Labels is the ordered set of observed original labels. First-seen
	// order is kept so repeated runs aggregate identically.
	Labels []string
	// CommonSuffix is populated only when Mode is ModeCommonSuffix.
	CommonSuffix string
}

// NewLabelsGroup returns an unclassified group seeded with the given labels.
func NewLabelsGroup(labels ...string) *LabelsGroup {
	lg := &LabelsGroup{}
	for _, l := range labels {
		lg.Add(l)
	}

	return lg
}

// Add appends a label unless it was already observed.
func (lg *LabelsGroup) Add(label string) {
	if !slices.Contains(lg.Labels, label) {
		lg.Labels = append(lg.Labels, label)
	}
}

// Clone returns a deep copy of the group.
func (lg *LabelsGroup) Clone() *LabelsGroup {
	return &LabelsGroup{Mode: lg.Mode, Labels: slices.Clone(lg.Labels), CommonSuffix: lg.CommonSuffix}
}

// LongestCommonSuffix returns the longest string every label ends with.
// The suffix of an empty set is empty.
func LongestCommonSuffix(labels []string) string {
	if len(labels) == 0 {
		return ""
	}

	suffix := labels[0]

	for _, l := range labels[1:] {
		limit := len(suffix)
		if len(l) < limit {
			limit = len(l)
		}

		n := 0
		for n < limit && suffix[len(suffix)-1-n] == l[len(l)-1-n] {
			n++
		}

		suffix = suffix[len(suffix)-n:]
		if suffix == "" {
			return ""
		}
	}

	// The byte-wise scan can stop inside a multi-byte rune; drop the
	// partial rune so the suffix stays valid UTF-8.
	for suffix != "" && !utf8.RuneStart(suffix[0]) {
		suffix = suffix[1:]
	}

	return suffix
}
