package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/diffbudget/internal/budget"
	"github.com/dshills/diffbudget/internal/cache"
	"github.com/dshills/diffbudget/internal/tokens"
	"github.com/dshills/diffbudget/internal/udiff"
)

var (
	flagFailOverBudget bool
	flagNoCache        bool
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a diff and print its normalized form",
	Long: "Parse a unified diff into files and hunks. The diff format re-renders it " +
		"in normalized form; json includes the full parsed structure.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := prepare(cmd, "parse")
		if err != nil || r == nil {
			return err
		}
		r.report.Parsed = r.files
		r.report.Diff = udiff.RenderAll(r.files)
		r.finish(cmd)
		return nil
	},
}

var chunkCmd = &cobra.Command{
	Use:   "chunk",
	Short: "Split a diff into chunks that fit a character limit",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := prepare(cmd, "chunk")
		if err != nil || r == nil {
			return err
		}
		chunks := budget.SplitFiles(r.files, r.cfg.MaxChunkChars)
		r.logger.Debug("chunked diff", "files", len(r.files), "chunks", len(chunks), "maxChunkChars", r.cfg.MaxChunkChars)
		r.report.SetChunks(chunks)
		r.report.Diff = r.text
		r.finish(cmd)
		return nil
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Compress a diff to fit a token budget",
	Long: "Compress a diff to the token budget: first thin unchanged context lines, then keep " +
		"the most changed files that fit. Exits 1 with --fail-over-budget when nothing fits.",
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r, err := prepare(cmd, "optimize")
		if err != nil || r == nil {
			return err
		}

		optStart := time.Now()
		res, cached, err := optimizeCached(r)
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}
		r.report.Timing.OptimizeMs = time.Since(optStart).Milliseconds()
		r.report.ApplyResult(res)
		r.report.Summary.Cached = cached
		r.finish(cmd)

		if res.OverBudget && flagFailOverBudget && exitCode == ExitSuccess {
			exitCode = ExitOverBudget
		}
		return nil
	},
}

// cachedResult is the cache payload for an optimizer run.
type cachedResult struct {
	budget.Result
	Diff string `json:"diff"`
}

// optimizeCached runs the optimizer on r, consulting the result cache first.
func optimizeCached(r *run) (budget.Result, bool, error) {
	enc := encodingName(r.cfg)
	key := cache.BuildCacheKey(enc, r.cfg.MaxTokens, r.cfg.RecountHunks, r.text)

	c, err := cache.New(r.cfg.Cache.Enabled && !flagNoCache, r.cfg.Cache.Dir, r.cfg.Cache.TTLSeconds)
	if err != nil {
		r.logger.Warn("cache unavailable", "error", err)
		c = nil
	}

	if c != nil {
		if data, ok := c.Get(key); ok {
			var hit cachedResult
			if err := json.Unmarshal([]byte(data), &hit); err == nil {
				r.logger.Debug("cache hit", "key", key)
				res := hit.Result
				res.Diff = hit.Diff
				return res, true, nil
			}
			r.logger.Warn("ignoring unreadable cache entry", "key", key)
		}
	}

	opt := &budget.Optimizer{
		Count:        newCounter(r.cfg, r.logger),
		Logger:       r.logger,
		RecountHunks: r.cfg.RecountHunks,
	}
	res, err := opt.Run(r.text, r.cfg.MaxTokens)
	if err != nil {
		return budget.Result{}, false, fmt.Errorf("optimizing diff: %w", err)
	}

	if c != nil {
		data, err := json.Marshal(cachedResult{Result: res, Diff: res.Diff})
		if err == nil {
			err = c.Put(key, string(data))
		}
		if err != nil {
			r.logger.Warn("failed to write cache entry", "error", err)
		}
	}
	return res, false, nil
}

// countFiles records per-file token counts on the report and returns the
// total for the whole text.
func countFiles(r *run, count tokens.Counter) int {
	c := tokens.WithFallback(count, r.logger)
	for i, f := range r.files {
		if i < len(r.report.Files) {
			r.report.Files[i].Tokens = c(udiff.Render(f))
		}
	}
	return c(r.text)
}

func init() {
	for _, cmd := range []*cobra.Command{parseCmd, chunkCmd, optimizeCmd, tokensCmd, langCmd} {
		addInputFlags(cmd)
	}
	for _, cmd := range []*cobra.Command{chunkCmd, optimizeCmd, tokensCmd} {
		addBudgetFlags(cmd)
	}
	optimizeCmd.Flags().BoolVar(&flagFailOverBudget, "fail-over-budget", false, "Exit 1 when the result exceeds the token budget")
	optimizeCmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Skip the result cache")
}
