package budget

import (
	"strings"

	"github.com/dshills/diffbudget/internal/lang"
	"github.com/dshills/diffbudget/internal/udiff"
)

// DefaultChunkChars is the chunk size used when the caller passes no limit.
const DefaultChunkChars = 8000

// Chunk is a group of whole files rendered as one diff.
type Chunk struct {
	Index    int      `json:"index"`
	Diff     string   `json:"diff"`
	Files    []string `json:"files"`
	Language string   `json:"language,omitempty"`
}

// Split parses diff and groups its files into chunks of at most maxChars
// characters. The limit is advisory: a file larger than maxChars is placed
// alone in its own chunk rather than split.
func Split(diff string, maxChars int) []Chunk {
	return SplitFiles(udiff.Parse(diff), maxChars)
}

// SplitFiles groups already-parsed files the same way Split does.
func SplitFiles(files []udiff.File, maxChars int) []Chunk {
	if len(files) == 0 {
		return nil
	}
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}

	var chunks []Chunk
	var current strings.Builder
	var currentFiles []string

	flush := func() {
		language, _ := lang.DetectCommon(currentFiles)
		chunks = append(chunks, Chunk{
			Index:    len(chunks),
			Diff:     current.String(),
			Files:    currentFiles,
			Language: language,
		})
		current.Reset()
		currentFiles = nil
	}

	for _, f := range files {
		rendered := udiff.Render(f)

		// Close the current chunk if this file would push it over the limit
		if current.Len() > 0 && current.Len()+len(rendered) > maxChars {
			flush()
		}

		current.WriteString(rendered)
		current.WriteByte('\n')
		currentFiles = append(currentFiles, f.Path())
	}

	if current.Len() > 0 {
		flush()
	}

	return chunks
}

// NeedsChunking reports whether diff is longer than maxChars.
func NeedsChunking(diff string, maxChars int) bool {
	if maxChars <= 0 {
		maxChars = DefaultChunkChars
	}
	return len(diff) > maxChars
}
