// Package udiff parses unified-diff text into an addressable model and
// renders that model back to text.
//
// The model is three levels deep: a [File] holds [Hunk] values, and each hunk
// holds [Line] values carrying both old-side and new-side line numbers. Only
// [Parse] constructs these values; every other operation in this module reads
// them or builds new ones from filtered line slices.
//
// [Render] and [RenderAll] are the inverse of [Parse] for the fields the
// model keeps. The `diff --git` header and any tab-separated metadata on the
// path lines are not reproduced.
package udiff
