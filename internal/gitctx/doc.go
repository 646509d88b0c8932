// Package gitctx obtains unified diffs and repository metadata.
//
// Diffs come from the git CLI (unstaged, staged, commit, range) or from a
// file or reader. Results are filtered per file section by include/exclude
// doublestar patterns and truncated to a configurable maximum byte size.
package gitctx
