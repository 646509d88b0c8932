// Diffbudget is a local CLI that fits unified diffs into an LLM token budget.
//
// It reads diffs from git (unstaged, staged, commit, range) or from a file or
// stdin, parses them into files and hunks, splits them into prompt-sized
// chunks and compresses them to a token budget by thinning unchanged context
// and dropping the least changed files.
//
// Usage:
//
//	diffbudget optimize --staged --max-tokens 4000   # fit staged changes
//	git diff | diffbudget optimize                    # read a diff from stdin
//	diffbudget chunk --range origin/main..HEAD        # split a branch diff
//	diffbudget parse --file change.patch --format json
//	diffbudget tokens --commit HEAD                   # count tokens per file
//	diffbudget lang src/app.ts                        # detect a language
package main
