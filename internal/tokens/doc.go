// Package tokens provides token counters for budgeting diff text.
//
// A [Counter] may fail, for example when a tiktoken encoding cannot be
// loaded. Callers that must not fail wrap it with [WithFallback], which
// substitutes the [EstimateWords] heuristic. Counts are approximate and are
// not guaranteed to match any vendor's tokenizer.
package tokens
