package output

import (
	"io"
	"strings"

	"github.com/dshills/diffbudget/internal/budget"
)

// DiffWriter outputs the resulting diff text only. Chunked reports are
// written chunk by chunk, each preceded by a "# chunk" comment line.
type DiffWriter struct{}

func (d *DiffWriter) Write(w io.Writer, report *budget.Report) error {
	ew := &errWriter{w: w}
	if len(report.Chunks) == 0 {
		ew.printf("%s", report.Diff)
		return ew.err
	}
	for i, c := range report.Chunks {
		if i > 0 {
			ew.println("")
		}
		ew.printf("# chunk %d/%d: %s\n", c.Index+1, len(report.Chunks), strings.Join(c.Files, ", "))
		ew.printf("%s", c.Diff)
	}
	return ew.err
}
