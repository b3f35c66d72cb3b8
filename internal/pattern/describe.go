package pattern

import (
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/changemine/patcanon/internal/sample"
)

// Describe builds the optional human-readable pattern description from
// one concrete sample: a header plus a merged text diff where deletions
// read [-old-] and insertions {+new+}.
func (c *Context) Describe(s *sample.Sample) {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(string(s.Before), string(s.After), false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var b strings.Builder

	fmt.Fprintf(&b, "Pattern %s, canonicalized from %d fragment(s) and %d sample(s).\n",
		c.Name, c.FragmentCount, c.SampleCount)
	fmt.Fprintf(&b, "Change observed in %s:\n\n", s.Name)

	for _, d := range diffs {
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			b.WriteString("[-")
			b.WriteString(d.Text)
			b.WriteString("-]")
		case diffmatchpatch.DiffInsert:
			b.WriteString("{+")
			b.WriteString(d.Text)
			b.WriteString("+}")
		case diffmatchpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}

	b.WriteString("\n")

	c.Description = b.String()
}
