package udiff

import "strings"

// Render formats one file as unified-diff text without a trailing newline.
func Render(f File) string {
	var b strings.Builder
	writeFile(&b, f)
	return b.String()
}

// RenderAll formats files as one diff. Each file is newline-terminated and
// consecutive files are separated by a blank line.
func RenderAll(files []File) string {
	var b strings.Builder
	for i, f := range files {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeFile(&b, f)
		b.WriteByte('\n')
	}
	return b.String()
}

func writeFile(b *strings.Builder, f File) {
	b.WriteString("--- ")
	b.WriteString(f.OldPath)
	b.WriteString("\n+++ ")
	b.WriteString(f.NewPath)
	for _, h := range f.Hunks {
		b.WriteByte('\n')
		b.WriteString(h.Header())
		for _, l := range h.Lines {
			b.WriteByte('\n')
			b.WriteByte(l.Kind.Marker())
			b.WriteString(l.Content)
		}
	}
}
