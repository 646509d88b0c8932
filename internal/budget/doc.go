// Package budget fits parsed diffs into downstream size limits.
//
// [Split] groups whole files into chunks no larger than a character limit
// (files are never split, so a single oversized file gets a chunk of its
// own) and tags each chunk with its dominant language.
//
// [Optimize] and [Optimizer] compress a diff to a token budget in two passes.
// The first thins context lines around every change block; the second keeps
// the files with the most changed lines that fit. Change lines are never
// dropped by the first pass, and the result is never empty while the input
// has at least one file: when nothing fits, the highest-ranked file is
// returned over budget.
package budget
