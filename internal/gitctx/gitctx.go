package gitctx

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/diffbudget/internal/udiff"
)

// TruncationNotice is appended to a diff cut at MaxDiffBytes.
const TruncationNotice = "\n... (diff truncated at max-diff-bytes limit)\n"

// DiffOptions controls how diffs are gathered.
type DiffOptions struct {
	// Dir is the working directory git runs in. Empty means the process cwd.
	Dir          string
	ContextLines int
	MaxDiffBytes int
	Include      []string
	Exclude      []string
}

// DiffResult holds the collected diff and metadata.
type DiffResult struct {
	Diff      string   `json:"-"`
	Mode      string   `json:"mode"`
	Range     string   `json:"range,omitempty"`
	Source    string   `json:"source,omitempty"`
	Truncated bool     `json:"truncated,omitempty"`
	Repo      RepoMeta `json:"repo"`
}

// RepoMeta contains git repository metadata.
type RepoMeta struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// GetRepoMeta collects repository metadata from git.
func GetRepoMeta(ctx context.Context, dir string) (RepoMeta, error) {
	root, err := gitOutput(ctx, dir, "rev-parse", "--show-toplevel")
	if err != nil {
		return RepoMeta{}, fmt.Errorf("not a git repository: %w", err)
	}
	head, err := gitOutput(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		head = "" // new repo with no commits
	}
	branch, err := gitOutput(ctx, dir, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		branch = ""
	}
	return RepoMeta{
		Root:   strings.TrimSpace(root),
		Head:   strings.TrimSpace(head),
		Branch: strings.TrimSpace(branch),
	}, nil
}

// Unstaged returns the diff of working tree vs index.
func Unstaged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff: %w", err)
	}
	res := buildResult(diff, "unstaged", "", opts)
	res.Repo = repoMeta(ctx, opts.Dir)
	return res, nil
}

// Staged returns the diff of index vs HEAD.
func Staged(ctx context.Context, opts DiffOptions) (DiffResult, error) {
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff", "--cached"}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff --cached: %w", err)
	}
	res := buildResult(diff, "staged", "", opts)
	res.Repo = repoMeta(ctx, opts.Dir)
	return res, nil
}

// Commit returns the diff for a specific commit vs its parent. An empty
// parent means sha~1; a root commit is shown against the empty tree.
func Commit(ctx context.Context, sha, parent string, opts DiffOptions) (DiffResult, error) {
	args := buildDiffArgs(opts)
	base := parent
	if base == "" {
		base = sha + "~1"
	}
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff", base, sha}, args...)...)
	if err != nil {
		if parent != "" {
			return DiffResult{}, fmt.Errorf("git diff %s %s: %w", parent, sha, err)
		}
		// Might be the initial commit
		show := []string{"show", "--format="}
		if opts.ContextLines > 0 {
			show = append(show, fmt.Sprintf("-U%d", opts.ContextLines))
		}
		diff, err = gitOutput(ctx, opts.Dir, append(show, sha, "--")...)
		if err != nil {
			return DiffResult{}, fmt.Errorf("git show %s: %w", sha, err)
		}
	}
	res := buildResult(diff, "commit", sha, opts)
	res.Repo = repoMeta(ctx, opts.Dir)
	return res, nil
}

// Range returns the combined diff for a revision range. With mergeBase, "a..b"
// is compared from the merge base ("a...b").
func Range(ctx context.Context, revRange string, mergeBase bool, opts DiffOptions) (DiffResult, error) {
	diffRange := revRange
	if mergeBase && strings.Contains(revRange, "..") && !strings.Contains(revRange, "...") {
		diffRange = strings.Replace(revRange, "..", "...", 1)
	}
	diff, err := gitOutput(ctx, opts.Dir, append([]string{"diff", diffRange}, buildDiffArgs(opts)...)...)
	if err != nil {
		return DiffResult{}, fmt.Errorf("git diff %s: %w", revRange, err)
	}
	res := buildResult(diff, "range", revRange, opts)
	res.Repo = repoMeta(ctx, opts.Dir)
	return res, nil
}

// FromFile reads a diff from a file; "-" reads stdin.
func FromFile(name string, opts DiffOptions) (DiffResult, error) {
	if name == "-" {
		return FromReader(os.Stdin, "stdin", opts)
	}
	f, err := os.Open(name)
	if err != nil {
		return DiffResult{}, fmt.Errorf("opening diff file: %w", err)
	}
	defer f.Close()
	return FromReader(f, name, opts)
}

// FromReader reads a complete diff from r. source names it in the result.
func FromReader(r io.Reader, source string, opts DiffOptions) (DiffResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return DiffResult{}, fmt.Errorf("reading diff from %s: %w", source, err)
	}
	res := buildResult(string(data), "file", "", opts)
	res.Source = source
	return res, nil
}

func repoMeta(ctx context.Context, dir string) RepoMeta {
	meta, err := GetRepoMeta(ctx, dir)
	if err != nil {
		return RepoMeta{}
	}
	return meta
}

func buildDiffArgs(opts DiffOptions) []string {
	var args []string
	if opts.ContextLines > 0 {
		args = append(args, fmt.Sprintf("-U%d", opts.ContextLines))
	}
	return append(args, "--no-color", "--no-ext-diff", "--")
}

func buildResult(diff, mode, rangeStr string, opts DiffOptions) DiffResult {
	// Filter before truncating so excluded files don't consume the byte budget
	if len(opts.Include) > 0 || len(opts.Exclude) > 0 {
		diff = filterSections(diff, opts.Include, opts.Exclude)
	}

	truncated := false
	if opts.MaxDiffBytes > 0 && len(diff) > opts.MaxDiffBytes {
		diff = diff[:opts.MaxDiffBytes] + TruncationNotice
		truncated = true
	}

	return DiffResult{
		Diff:      diff,
		Mode:      mode,
		Range:     rangeStr,
		Truncated: truncated,
	}
}

// filterSections keeps the file sections whose path passes the include and
// exclude patterns. Text before the first section is kept.
func filterSections(diff string, include, exclude []string) string {
	var kept strings.Builder
	for _, section := range splitDiffSections(diff) {
		p := sectionPath(section)
		if p == "" || Selected(p, include, exclude) {
			kept.WriteString(section)
		}
	}
	return kept.String()
}

// Selected reports whether p matches include (or include is empty) and does
// not match exclude.
func Selected(p string, include, exclude []string) bool {
	if len(include) > 0 && !MatchesAny(p, include) {
		return false
	}
	return !MatchesAny(p, exclude)
}

// splitDiffSections cuts diff at each "diff --git" header, or at a "---"
// line directly followed by "+++" when the diff has no git headers.
func splitDiffSections(diff string) []string {
	lines := strings.SplitAfter(diff, "\n")
	var sections []string
	var current strings.Builder
	inGitSection := false
	for i, line := range lines {
		start := false
		switch {
		case strings.HasPrefix(line, "diff --git "):
			start = true
			inGitSection = true
		case !inGitSection && strings.HasPrefix(line, "--- ") &&
			i+1 < len(lines) && strings.HasPrefix(lines[i+1], "+++ "):
			start = true
		}
		if start && current.Len() > 0 {
			sections = append(sections, current.String())
			current.Reset()
		}
		current.WriteString(line)
	}
	if current.Len() > 0 {
		sections = append(sections, current.String())
	}
	return sections
}

// sectionPath returns the path a section describes, preferring the new path
// and falling back to the old one for deletions.
func sectionPath(section string) string {
	files := udiff.Parse(section)
	if len(files) > 0 {
		return files[0].Path()
	}
	for _, line := range strings.Split(section, "\n") {
		if strings.HasPrefix(line, "diff --git a/") {
			if i := strings.LastIndex(line, " b/"); i >= 0 {
				return line[i+len(" b/"):]
			}
		}
	}
	return ""
}

// MatchesAny returns true if p matches any of the given doublestar patterns.
// Patterns without a slash also match the base name, so "*.lock" matches
// "web/yarn.lock".
func MatchesAny(p string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, p); err == nil && ok {
			return true
		}
		if !strings.Contains(pattern, "/") {
			if ok, err := doublestar.Match(pattern, path.Base(p)); err == nil && ok {
				return true
			}
		}
	}
	return false
}

func gitOutput(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return string(out), fmt.Errorf("%s: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
