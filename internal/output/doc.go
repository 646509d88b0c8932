// Package output formats diffbudget reports for display or machine consumption.
//
// Three formats are supported:
//   - diff: the resulting diff text, ready to paste into a prompt (default)
//   - text: human-readable summary of files, tokens and chunks
//   - json: full structured JSON report
//
// Use [GetWriter] to obtain a [Writer] for a given format string, then call
// [Writer.Write] with an [io.Writer] and a [*budget.Report]. [WriteReport]
// handles destination selection.
package output
