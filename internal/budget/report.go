package budget

import (
	"github.com/google/uuid"

	"github.com/dshills/diffbudget/internal/lang"
	"github.com/dshills/diffbudget/internal/udiff"
)

// File status values reported in FileInfo.
const (
	StatusAdded    = "added"
	StatusDeleted  = "deleted"
	StatusRenamed  = "renamed"
	StatusModified = "modified"
)

// RepoInfo contains repository metadata.
type RepoInfo struct {
	Root   string `json:"root,omitempty"`
	Head   string `json:"head,omitempty"`
	Branch string `json:"branch,omitempty"`
}

// InputInfo describes where the diff came from and how it was processed.
type InputInfo struct {
	Mode          string   `json:"mode"`
	Range         string   `json:"range,omitempty"`
	Source        string   `json:"source,omitempty"`
	Model         string   `json:"model,omitempty"`
	Encoding      string   `json:"encoding,omitempty"`
	MaxTokens     int      `json:"maxTokens,omitempty"`
	MaxChunkChars int      `json:"maxChunkChars,omitempty"`
	PathsIncluded []string `json:"pathsIncluded,omitempty"`
	PathsExcluded []string `json:"pathsExcluded,omitempty"`
	Truncated     bool     `json:"truncated,omitempty"`
}

// Summary provides an overview of the diff and what was done to it.
type Summary struct {
	udiff.Stats
	Language      string   `json:"language,omitempty"`
	Strategy      Strategy `json:"strategy,omitempty"`
	TokensBefore  int      `json:"tokensBefore"`
	TokensAfter   int      `json:"tokensAfter"`
	OverBudget    bool     `json:"overBudget"`
	Chunks        int      `json:"chunks,omitempty"`
	RedactedLines int      `json:"redactedLines,omitempty"`
	RedactedFiles []string `json:"redactedFiles,omitempty"`
	Cached        bool     `json:"cached,omitempty"`
}

// FileInfo summarizes one file of the input diff.
type FileInfo struct {
	Path      string `json:"path"`
	OldPath   string `json:"oldPath,omitempty"`
	Status    string `json:"status"`
	Language  string `json:"language,omitempty"`
	Hunks     int    `json:"hunks"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Tokens    int    `json:"tokens,omitempty"`
	Dropped   bool   `json:"dropped,omitempty"`
}

// Timing contains performance metrics.
type Timing struct {
	GitMs      int64 `json:"gitMs"`
	OptimizeMs int64 `json:"optimizeMs"`
	TotalMs    int64 `json:"totalMs"`
}

// Report is the top-level output structure of a diffbudget run.
type Report struct {
	Tool    string       `json:"tool"`
	Version string       `json:"version"`
	RunID   string       `json:"runId"`
	Command string       `json:"command"`
	Repo    RepoInfo     `json:"repo"`
	Inputs  InputInfo    `json:"inputs"`
	Summary Summary      `json:"summary"`
	Files   []FileInfo   `json:"files"`
	Parsed  []udiff.File `json:"parsed,omitempty"`
	Chunks  []Chunk      `json:"chunks,omitempty"`
	Diff    string       `json:"diff"`
	Timing  Timing       `json:"timing"`
}

// NewReport starts a report for command with a fresh run ID.
func NewReport(version, command string) *Report {
	return &Report{
		Tool:    "diffbudget",
		Version: version,
		RunID:   uuid.New().String(),
		Command: command,
		Files:   []FileInfo{},
	}
}

// SetFiles records the parsed input files and their aggregate counts.
func (r *Report) SetFiles(files []udiff.File) {
	r.Files = make([]FileInfo, 0, len(files))
	for _, f := range files {
		r.Files = append(r.Files, describe(f))
	}
	r.Summary.Stats = udiff.Summarize(files)
	r.Summary.Language, _ = lang.DetectCommon(udiff.Paths(files))
}

// ApplyResult records an optimizer run. Files the optimizer dropped are
// flagged in Files.
func (r *Report) ApplyResult(res Result) {
	r.Diff = res.Diff
	r.Inputs.MaxTokens = res.MaxTokens
	r.Summary.Strategy = res.Strategy
	r.Summary.TokensBefore = res.TokensBefore
	r.Summary.TokensAfter = res.TokensAfter
	r.Summary.OverBudget = res.OverBudget
	dropped := make(map[string]bool, len(res.Dropped))
	for _, p := range res.Dropped {
		dropped[p] = true
	}
	for i := range r.Files {
		r.Files[i].Dropped = dropped[r.Files[i].Path]
	}
}

// SetChunks records chunker output.
func (r *Report) SetChunks(chunks []Chunk) {
	r.Chunks = chunks
	r.Summary.Chunks = len(chunks)
}

func describe(f udiff.File) FileInfo {
	info := FileInfo{
		Path:   f.Path(),
		Status: StatusModified,
		Hunks:  len(f.Hunks),
	}
	switch {
	case f.IsNew():
		info.Status = StatusAdded
	case f.IsDeleted():
		info.Status = StatusDeleted
	case f.OldPath != f.NewPath:
		info.Status = StatusRenamed
		info.OldPath = f.OldPath
	}
	info.Language, _ = lang.Detect(info.Path)
	info.Additions, info.Deletions = f.Stats()
	return info
}
