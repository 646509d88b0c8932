package udiff

import (
	"encoding/json"
	"fmt"
)

// DevNull is the path used for the missing side of a created or deleted file.
const DevNull = "/dev/null"

// LineKind classifies a line inside a hunk.
type LineKind int

const (
	Context LineKind = iota
	Addition
	Deletion
)

// String returns the lowercase name of the kind.
func (k LineKind) String() string {
	switch k {
	case Addition:
		return "addition"
	case Deletion:
		return "deletion"
	default:
		return "context"
	}
}

// Marker returns the prefix character used for the kind in diff text.
func (k LineKind) Marker() byte {
	switch k {
	case Addition:
		return '+'
	case Deletion:
		return '-'
	default:
		return ' '
	}
}

// MarshalJSON encodes the kind as its name.
func (k LineKind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind name.
func (k *LineKind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	switch s {
	case "context":
		*k = Context
	case "addition":
		*k = Addition
	case "deletion":
		*k = Deletion
	default:
		return fmt.Errorf("unknown line kind: %s", s)
	}
	return nil
}

// Line is one rendered line inside a hunk, without its marker.
// OldLine is nil for additions and NewLine is nil for deletions.
type Line struct {
	Content string   `json:"content"`
	Kind    LineKind `json:"kind"`
	OldLine *int     `json:"oldLine,omitempty"`
	NewLine *int     `json:"newLine,omitempty"`
}

// IsChange reports whether the line is an addition or a deletion.
func (l Line) IsChange() bool {
	return l.Kind == Addition || l.Kind == Deletion
}

// Hunk is a contiguous change region as declared by an @@ header.
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	Lines    []Line `json:"lines"`
}

// Header renders the @@ line for the hunk. Counts are always written.
func (h Hunk) Header() string {
	return fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
}

// ChangeCount returns the number of added and deleted lines.
func (h Hunk) ChangeCount() int {
	n := 0
	for _, l := range h.Lines {
		if l.IsChange() {
			n++
		}
	}
	return n
}

// WithLines returns a copy of the hunk holding lines in place of its own.
// Declared counts are kept.
func (h Hunk) WithLines(lines []Line) Hunk {
	return Hunk{
		OldStart: h.OldStart,
		OldCount: h.OldCount,
		NewStart: h.NewStart,
		NewCount: h.NewCount,
		Lines:    lines,
	}
}

// Recount returns a copy of the hunk whose counts match its lines.
func (h Hunk) Recount() Hunk {
	out := h.WithLines(h.Lines)
	out.OldCount, out.NewCount = 0, 0
	for _, l := range h.Lines {
		switch l.Kind {
		case Context:
			out.OldCount++
			out.NewCount++
		case Deletion:
			out.OldCount++
		case Addition:
			out.NewCount++
		}
	}
	return out
}

// File holds the hunks for one path.
type File struct {
	OldPath string `json:"oldPath"`
	NewPath string `json:"newPath"`
	Hunks   []Hunk `json:"hunks"`
}

// IsNew reports whether the file was created.
func (f File) IsNew() bool { return f.OldPath == DevNull }

// IsDeleted reports whether the file was removed.
func (f File) IsDeleted() bool { return f.NewPath == DevNull }

// Path returns the new path, or the old path for a deleted file.
func (f File) Path() string {
	if f.IsDeleted() {
		return f.OldPath
	}
	return f.NewPath
}

// ChangeCount returns the number of added and deleted lines across all hunks.
func (f File) ChangeCount() int {
	n := 0
	for _, h := range f.Hunks {
		n += h.ChangeCount()
	}
	return n
}

// Stats returns the number of added and deleted lines.
func (f File) Stats() (additions, deletions int) {
	for _, h := range f.Hunks {
		for _, l := range h.Lines {
			switch l.Kind {
			case Addition:
				additions++
			case Deletion:
				deletions++
			}
		}
	}
	return additions, deletions
}

// WithHunks returns a copy of the file holding hunks in place of its own.
func (f File) WithHunks(hunks []Hunk) File {
	return File{OldPath: f.OldPath, NewPath: f.NewPath, Hunks: hunks}
}

// Stats aggregates counts over a set of files.
type Stats struct {
	Files     int `json:"files"`
	Hunks     int `json:"hunks"`
	Additions int `json:"additions"`
	Deletions int `json:"deletions"`
}

// Summarize computes aggregate counts for files.
func Summarize(files []File) Stats {
	s := Stats{Files: len(files)}
	for _, f := range files {
		s.Hunks += len(f.Hunks)
		a, d := f.Stats()
		s.Additions += a
		s.Deletions += d
	}
	return s
}

// Paths returns the effective path of each file, in order.
func Paths(files []File) []string {
	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path())
	}
	return paths
}
