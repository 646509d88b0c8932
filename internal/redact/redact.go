package redact

import (
	"regexp"

	"github.com/dshills/diffbudget/internal/gitctx"
	"github.com/dshills/diffbudget/internal/udiff"
)

// Placeholder replaces every redacted value or line.
const Placeholder = "[REDACTED]"

// secretPatterns are regex heuristics for common secret types.
var secretPatterns = []*regexp.Regexp{
	// Key/secret assignments with a long opaque value
	regexp.MustCompile(`(?i)(api[_-]?key|apikey|api[_-]?secret|client[_-]?secret)\s*[:=]\s*["']?([A-Za-z0-9/+=_-]{20,})["']?`),
	// AWS access key IDs
	regexp.MustCompile(`(AKIA|ASIA)[0-9A-Z]{16}`),
	// AWS secret access keys
	regexp.MustCompile(`(?i)(aws[_-]?secret[_-]?access[_-]?key)\s*[:=]\s*["']?([A-Za-z0-9/+=]{40})["']?`),
	// Quoted secrets/tokens/passwords in assignments
	regexp.MustCompile(`(?i)(secret|token|password|passwd|credential)\s*[:=]\s*["']([^"']{8,})["']`),
	regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9._-]{20,}`),
	// JWTs
	regexp.MustCompile(`eyJ[A-Za-z0-9_-]{10,}\.eyJ[A-Za-z0-9_-]{10,}\.[A-Za-z0-9_-]{10,}`),
	regexp.MustCompile(`-----BEGIN\s+([A-Z]+\s+)?PRIVATE KEY-----`),
	// Credentials embedded in connection URLs
	regexp.MustCompile(`(?i)\b[a-z][a-z0-9+.-]*://[^\s:/@]+:[^\s@/]+@`),
	// GitHub tokens
	regexp.MustCompile(`gh[pousr]_[A-Za-z0-9_]{36,}`),
	// Slack tokens
	regexp.MustCompile(`xox[bporas]-[A-Za-z0-9-]{10,}`),
	// Google API keys
	regexp.MustCompile(`AIza[0-9A-Za-z_-]{35}`),
	// Anthropic and OpenAI API keys
	regexp.MustCompile(`sk-ant-[A-Za-z0-9_-]{20,}`),
	regexp.MustCompile(`sk-[A-Za-z0-9]{20,}`),
	// Long hex values assigned to key-like names
	regexp.MustCompile(`(?i)(key|secret|token)\s*[:=]\s*["']?[0-9a-f]{32,}["']?`),
}

// Secrets replaces detected secrets in text with [REDACTED].
func Secrets(text string) string {
	result := text
	for _, pat := range secretPatterns {
		result = pat.ReplaceAllLiteralString(result, Placeholder)
	}
	return result
}

// ShouldRedactPath reports whether p matches any of the redaction patterns.
// Patterns are doublestar globs; "**/.env" also matches a top-level ".env".
func ShouldRedactPath(p string, patterns []string) bool {
	return gitctx.MatchesAny(p, patterns)
}

// Options selects the redactions applied by Files.
type Options struct {
	Secrets bool
	Paths   []string
}

// Summary reports what Files redacted.
type Summary struct {
	SecretLines int      `json:"secretLines"`
	Files       []string `json:"files,omitempty"`
}

// Files returns copies of files with redactions applied. A file matching a
// path pattern has the content of every line replaced; otherwise each line is
// scanned for secrets when opts.Secrets is set. Line kinds, line numbers and
// hunk headers are unchanged.
func Files(files []udiff.File, opts Options) ([]udiff.File, Summary) {
	var sum Summary
	out := make([]udiff.File, len(files))
	for i, f := range files {
		byPath := ShouldRedactPath(f.Path(), opts.Paths)
		if byPath {
			sum.Files = append(sum.Files, f.Path())
		}
		if !byPath && !opts.Secrets {
			out[i] = f
			continue
		}
		hunks := make([]udiff.Hunk, len(f.Hunks))
		for j, h := range f.Hunks {
			lines := make([]udiff.Line, len(h.Lines))
			for k, l := range h.Lines {
				switch {
				case byPath:
					l.Content = Placeholder
				default:
					if red := Secrets(l.Content); red != l.Content {
						l.Content = red
						sum.SecretLines++
					}
				}
				lines[k] = l
			}
			hunks[j] = h.WithLines(lines)
		}
		out[i] = f.WithHunks(hunks)
	}
	return out, sum
}
