package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/dshills/diffbudget/internal/budget"
)

// TextWriter outputs a human-readable summary.
type TextWriter struct{}

func (t *TextWriter) Write(w io.Writer, report *budget.Report) error {
	ew := &errWriter{w: w}
	s := report.Summary

	ew.printf("diffbudget %s: %s mode\n", report.Command, report.Inputs.Mode)
	if report.Inputs.Range != "" {
		ew.printf("Range: %s\n", report.Inputs.Range)
	}
	if report.Inputs.Source != "" {
		ew.printf("Source: %s\n", report.Inputs.Source)
	}
	if report.Repo.Root != "" {
		ew.printf("Repository: %s (branch: %s)\n", report.Repo.Root, report.Repo.Branch)
	}
	ew.println(strings.Repeat("─", 60))
	ew.printf("Files: %d  Hunks: %d  +%d -%d", s.Files, s.Hunks, s.Additions, s.Deletions)
	if s.Language != "" {
		ew.printf("  Language: %s", s.Language)
	}
	ew.println("")
	if report.Inputs.Truncated {
		ew.println("Input was truncated at the max-diff-bytes limit.")
	}
	if s.RedactedLines > 0 || len(s.RedactedFiles) > 0 {
		ew.printf("Redacted: %d lines, %d files\n", s.RedactedLines, len(s.RedactedFiles))
	}

	if s.Strategy != "" {
		ew.printf("Tokens: %d -> %d (budget %d, %s, %s)\n",
			s.TokensBefore, s.TokensAfter, report.Inputs.MaxTokens, report.Inputs.Encoding, s.Strategy)
		if s.OverBudget {
			ew.println("Result is still over budget.")
		}
		if s.Cached {
			ew.println("Result served from cache.")
		}
	} else if s.TokensBefore > 0 {
		ew.printf("Tokens: %d (%s)\n", s.TokensBefore, report.Inputs.Encoding)
	}
	ew.println(strings.Repeat("─", 60))

	if len(report.Files) == 0 {
		ew.println("\nNo files in diff.")
	}
	for _, f := range report.Files {
		name := f.Path
		if f.OldPath != "" {
			name = f.OldPath + " -> " + f.Path
		}
		mark := " "
		if f.Dropped {
			mark = "x"
		}
		ew.printf("%s %-9s %-40s +%-5d -%-5d %s", mark, f.Status, name, f.Additions, f.Deletions, langLabel(f.Language))
		if f.Tokens > 0 {
			ew.printf("  %d tokens", f.Tokens)
		}
		ew.println("")
	}

	if len(report.Chunks) > 0 {
		ew.printf("\nChunks: %d\n", len(report.Chunks))
		for _, c := range report.Chunks {
			ew.printf("  #%d  %6d chars  %-12s %s\n", c.Index+1, len(c.Diff), langLabel(c.Language), strings.Join(c.Files, ", "))
		}
	}

	ew.printf("\n%s\n", strings.Repeat("─", 60))
	ew.printf("Completed in %dms (git: %dms, optimize: %dms)\n",
		report.Timing.TotalMs, report.Timing.GitMs, report.Timing.OptimizeMs)

	return ew.err
}

func langLabel(l string) string {
	if l == "" {
		return "-"
	}
	return l
}

// errWriter wraps an io.Writer and captures the first error.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...interface{}) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(s string) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, s)
}
