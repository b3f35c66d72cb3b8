package batch

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
)

// Render writes the batch summary as a table. One row per pattern,
// failures carry the error text instead of counts.
func (s *Summary) Render(w io.Writer) {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)

	tbl.AppendHeader(table.Row{"Pattern", "Status", "Actions", "Vertices", "Duration"})

	for _, res := range s.Results {
		if res.Err != nil {
			tbl.AppendRow(table.Row{res.Name, "failed: " + res.Err.Error(), "-", "-",
				res.Duration.Round(time.Millisecond).String()})

			continue
		}

		tbl.AppendRow(table.Row{res.Name, "ok", res.Actions, res.Vertices,
			res.Duration.Round(time.Millisecond).String()})
	}

	tbl.AppendFooter(table.Row{
		fmt.Sprintf("Total: %s pattern(s)", humanize.Comma(int64(len(s.Results)))),
		fmt.Sprintf("%d ok, %d failed", s.Processed, s.Failed),
		"", "",
		s.Elapsed.Round(time.Millisecond).String(),
	})

	tbl.Render()
}
