package cli

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/diffbudget/internal/budget"
	"github.com/dshills/diffbudget/internal/config"
	"github.com/dshills/diffbudget/internal/gitctx"
	"github.com/dshills/diffbudget/internal/redact"
	"github.com/dshills/diffbudget/internal/tokens"
	"github.com/dshills/diffbudget/internal/udiff"
)

// Shared input and budget flags
var (
	flagFile          string
	flagStaged        bool
	flagUnstaged      bool
	flagCommit        string
	flagParent        string
	flagRange         string
	flagMergeBase     bool
	flagPaths         string
	flagExclude       string
	flagContextLines  int
	flagMaxDiffBytes  int
	flagMaxTokens     int
	flagMaxChunkChars int
	flagModel         string
	flagEncoding      string
	flagRecountHunks  bool
	flagNoRedact      bool
	flagFormat        string
	flagOut           string
	flagLogLevel      string
)

// errMultipleSources is returned when more than one diff source flag is set.
var errMultipleSources = errors.New("choose one of --file, --staged, --unstaged, --commit or --range")

func addInputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&flagFile, "file", "f", "", "Read the diff from a file (- for stdin)")
	cmd.Flags().BoolVar(&flagStaged, "staged", false, "Use staged changes (index vs HEAD)")
	cmd.Flags().BoolVar(&flagUnstaged, "unstaged", false, "Use unstaged changes (working tree vs index)")
	cmd.Flags().StringVar(&flagCommit, "commit", "", "Use the changes of a commit")
	cmd.Flags().StringVar(&flagParent, "parent", "", "Override parent SHA for --commit (for merge commits)")
	cmd.Flags().StringVar(&flagRange, "range", "", "Use a revision range (e.g., origin/main..HEAD)")
	cmd.Flags().BoolVar(&flagMergeBase, "merge-base", true, "Use merge base for --range comparisons")
	cmd.Flags().StringVar(&flagPaths, "paths", "", "Include file path globs (comma-separated)")
	cmd.Flags().StringVar(&flagExclude, "exclude", "", "Exclude file path globs (comma-separated)")
	cmd.Flags().IntVar(&flagContextLines, "context-lines", 0, "Number of context lines requested from git")
	cmd.Flags().IntVar(&flagMaxDiffBytes, "max-diff-bytes", 0, "Maximum diff size in bytes")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (diff, text, json)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
}

func addBudgetFlags(cmd *cobra.Command) {
	cmd.Flags().IntVar(&flagMaxTokens, "max-tokens", 0, "Token budget (default from config)")
	cmd.Flags().IntVar(&flagMaxChunkChars, "max-chunk-chars", 0, "Chunk size in characters (default from config)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model whose tokenizer is used for counting")
	cmd.Flags().StringVar(&flagEncoding, "encoding", "", "Explicit tiktoken encoding (overrides --model)")
	cmd.Flags().BoolVar(&flagRecountHunks, "recount-hunks", false, "Rewrite hunk header counts after thinning context")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagEncoding != "" {
		m["encoding"] = flagEncoding
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagLogLevel != "" {
		m["logLevel"] = flagLogLevel
	}
	if flagMaxTokens > 0 {
		m["maxTokens"] = strconv.Itoa(flagMaxTokens)
	}
	if flagMaxChunkChars > 0 {
		m["maxChunkChars"] = strconv.Itoa(flagMaxChunkChars)
	}
	if flagContextLines > 0 {
		m["contextLines"] = strconv.Itoa(flagContextLines)
	}
	if flagMaxDiffBytes > 0 {
		m["maxDiffBytes"] = strconv.Itoa(flagMaxDiffBytes)
	}
	if flagRecountHunks {
		m["recountHunks"] = "true"
	}
	return m
}

func buildDiffOpts(cfg config.Config) gitctx.DiffOptions {
	opts := gitctx.DiffOptions{
		ContextLines: cfg.ContextLines,
		MaxDiffBytes: cfg.MaxDiffBytes,
		Include:      cfg.Include,
		Exclude:      cfg.Exclude,
	}
	if flagPaths != "" {
		opts.Include = splitComma(flagPaths)
	}
	if flagExclude != "" {
		opts.Exclude = append(append([]string(nil), opts.Exclude...), splitComma(flagExclude)...)
	}
	return opts
}

func splitComma(s string) []string {
	parts := strings.Split(s, ",")
	var result []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

// sourceCount returns how many diff source flags are set.
func sourceCount() int {
	n := 0
	for _, set := range []bool{flagFile != "", flagStaged, flagUnstaged, flagCommit != "", flagRange != ""} {
		if set {
			n++
		}
	}
	return n
}

// loadInput obtains the diff selected by the source flags. Without a source
// flag, piped stdin is read; otherwise the unstaged changes are used.
func loadInput(ctx context.Context, opts gitctx.DiffOptions) (gitctx.DiffResult, error) {
	switch {
	case flagFile != "":
		return gitctx.FromFile(flagFile, opts)
	case flagStaged:
		return gitctx.Staged(ctx, opts)
	case flagCommit != "":
		return gitctx.Commit(ctx, flagCommit, flagParent, opts)
	case flagRange != "":
		return gitctx.Range(ctx, flagRange, flagMergeBase, opts)
	case !flagUnstaged && stdinPiped():
		return gitctx.FromReader(os.Stdin, "stdin", opts)
	default:
		return gitctx.Unstaged(ctx, opts)
	}
}

func stdinPiped() bool {
	fi, err := os.Stdin.Stat()
	return err == nil && fi.Mode()&os.ModeCharDevice == 0
}

// run carries the state shared by the diff-consuming commands.
type run struct {
	cfg    config.Config
	logger *slog.Logger
	report *budget.Report
	files  []udiff.File
	text   string
	start  time.Time
}

// prepare loads config and input, applies redaction and starts the report.
// Config and flag problems are returned as errors (usage); input problems
// are reported and set the runtime exit code, returning nil run.
func prepare(cmd *cobra.Command, command string) (*run, error) {
	if sourceCount() > 1 {
		return nil, errMultipleSources
	}
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)

	start := time.Now()
	opts := buildDiffOpts(cfg)
	src, err := loadInput(cmd.Context(), opts)
	if err != nil {
		runtimeError(cmd, err)
		return nil, nil
	}
	gitMs := time.Since(start).Milliseconds()
	if src.Truncated {
		logger.Warn("diff truncated", "maxDiffBytes", opts.MaxDiffBytes)
	}

	if flagNoRedact {
		cfg.Privacy.RedactSecrets = false
		cfg.Privacy.RedactPaths = nil
		logger.Warn("secret redaction is disabled")
	}
	parsed := udiff.Parse(src.Diff)
	files, sum := redact.Files(parsed, redact.Options{
		Secrets: cfg.Privacy.RedactSecrets,
		Paths:   cfg.Privacy.RedactPaths,
	})
	text := src.Diff
	if sum.SecretLines > 0 || len(sum.Files) > 0 {
		text = udiff.RenderAll(files)
		logger.Info("redacted diff", "lines", sum.SecretLines, "files", len(sum.Files))
	}

	report := budget.NewReport(version, command)
	report.Repo = budget.RepoInfo(src.Repo)
	report.Inputs = budget.InputInfo{
		Mode:          src.Mode,
		Range:         src.Range,
		Source:        src.Source,
		Model:         cfg.Model,
		Encoding:      encodingName(cfg),
		MaxTokens:     cfg.MaxTokens,
		MaxChunkChars: cfg.MaxChunkChars,
		PathsIncluded: opts.Include,
		PathsExcluded: opts.Exclude,
		Truncated:     src.Truncated,
	}
	report.SetFiles(files)
	report.Summary.RedactedLines = sum.SecretLines
	report.Summary.RedactedFiles = sum.Files
	report.Timing.GitMs = gitMs

	return &run{
		cfg:    cfg,
		logger: logger,
		report: report,
		files:  files,
		text:   text,
		start:  start,
	}, nil
}

// finish stamps total timing and writes the report.
func (r *run) finish(cmd *cobra.Command) {
	r.report.Timing.TotalMs = time.Since(r.start).Milliseconds()
	writeReport(cmd, r.report, r.cfg.Format)
}

func encodingName(cfg config.Config) string {
	if cfg.Encoding != "" {
		return cfg.Encoding
	}
	return tokens.EncodingForModel(cfg.Model)
}

// newCounter returns the tiktoken counter for cfg, or the word estimate when
// the encoding cannot be loaded.
func newCounter(cfg config.Config, logger *slog.Logger) tokens.Counter {
	c, err := tokens.ForEncoding(encodingName(cfg))
	if err != nil {
		logger.Warn("tokenizer unavailable, estimating from word count", "error", err)
		return tokens.Words
	}
	return c
}
