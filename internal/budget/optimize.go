package budget

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"

	"github.com/dshills/diffbudget/internal/tokens"
	"github.com/dshills/diffbudget/internal/udiff"
)

// ErrNegativeBudget is returned when the token budget is below zero.
var ErrNegativeBudget = errors.New("max tokens must not be negative")

// Strategy names the pass that produced an optimized diff.
type Strategy string

const (
	// StrategyNone means the input already fit and was returned unchanged.
	StrategyNone Strategy = "none"
	// StrategyThinContext means trimming context lines was enough.
	StrategyThinContext Strategy = "thin-context"
	// StrategyRankFiles means low-relevance files were dropped.
	StrategyRankFiles Strategy = "rank-files"
	// StrategyOverBudget means not even one file fit; the top file is returned.
	StrategyOverBudget Strategy = "over-budget"
)

// Result describes an optimization run.
type Result struct {
	Diff         string   `json:"-"`
	Strategy     Strategy `json:"strategy"`
	TokensBefore int      `json:"tokensBefore"`
	TokensAfter  int      `json:"tokensAfter"`
	MaxTokens    int      `json:"maxTokens"`
	Files        []string `json:"files"`
	Dropped      []string `json:"dropped,omitempty"`
	OverBudget   bool     `json:"overBudget"`
}

// Optimizer compresses diffs to a token budget.
type Optimizer struct {
	// Count measures text. Failures fall back to a word estimate.
	// When nil, the default tiktoken counter is used.
	Count tokens.Counter
	// Logger receives debug and warning records. Nil discards them.
	Logger *slog.Logger
	// RecountHunks rewrites hunk header counts after thinning so they match
	// the lines kept. By default the declared counts are preserved.
	RecountHunks bool
}

// Optimize compresses diff to at most maxTokens as measured by count, using
// the default Optimizer settings.
func Optimize(diff string, maxTokens int, count tokens.Counter) (string, error) {
	o := &Optimizer{Count: count}
	res, err := o.Run(diff, maxTokens)
	if err != nil {
		return "", err
	}
	return res.Diff, nil
}

// Run compresses diff to at most maxTokens. Only a negative budget is an
// error; an unsatisfiable budget yields the best over-budget result.
func (o *Optimizer) Run(diff string, maxTokens int) (Result, error) {
	if maxTokens < 0 {
		return Result{}, fmt.Errorf("%w: %d", ErrNegativeBudget, maxTokens)
	}
	logger := o.logger()
	counter := o.Count
	if counter == nil {
		counter = tokens.Default(logger)
	}
	count := tokens.WithFallback(counter, logger)

	files := udiff.Parse(diff)
	before := count(diff)
	res := Result{
		Diff:         diff,
		Strategy:     StrategyNone,
		TokensBefore: before,
		TokensAfter:  before,
		MaxTokens:    maxTokens,
		Files:        udiff.Paths(files),
	}
	if before <= maxTokens {
		return res, nil
	}
	if len(files) == 0 {
		logger.Warn("diff over budget but has no parseable files", "tokens", before, "maxTokens", maxTokens)
		res.OverBudget = true
		return res, nil
	}

	thinned := make([]udiff.File, len(files))
	for i, f := range files {
		thinned[i] = ThinContext(f, o.RecountHunks)
	}
	reduced := udiff.RenderAll(thinned)
	reducedTokens := count(reduced)
	logger.Debug("thinned context", "tokensBefore", before, "tokensAfter", reducedTokens, "maxTokens", maxTokens)

	if reducedTokens <= maxTokens {
		res.Diff = reduced
		res.Strategy = StrategyThinContext
		res.TokensAfter = reducedTokens
		return res, nil
	}

	ranked := RankByChanges(thinned)
	var kept []udiff.File
	var dropped []string
	running := 0
	for _, f := range ranked {
		// Charge the text RenderAll adds: a trailing newline per file and a
		// blank separator line before every file after the first.
		piece := udiff.Render(f) + "\n"
		if len(kept) > 0 {
			piece = "\n" + piece
		}
		n := count(piece)
		if running+n > maxTokens {
			dropped = append(dropped, f.Path())
			continue
		}
		kept = append(kept, f)
		running += n
	}

	res.Strategy = StrategyRankFiles
	if len(kept) == 0 {
		kept = ranked[:1]
		dropped = dropped[1:]
		res.Strategy = StrategyOverBudget
		res.OverBudget = true
		logger.Warn("no file fits the token budget, returning the most changed file",
			"file", kept[0].Path(), "maxTokens", maxTokens)
	}

	res.Diff = udiff.RenderAll(kept)
	res.TokensAfter = count(res.Diff)
	res.Files = udiff.Paths(kept)
	res.Dropped = dropped
	if res.TokensAfter > maxTokens {
		res.OverBudget = true
	}
	logger.Debug("ranked files", "kept", len(kept), "dropped", len(dropped), "tokensAfter", res.TokensAfter)
	return res, nil
}

func (o *Optimizer) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// ThinContext returns a copy of f in which each hunk keeps every change line
// and only the context lines nearest to them. A leading or trailing context
// block keeps its first two lines; an interior block keeps its first and
// last line. When recount is set, hunk counts are recomputed.
func ThinContext(f udiff.File, recount bool) udiff.File {
	hunks := make([]udiff.Hunk, 0, len(f.Hunks))
	for _, h := range f.Hunks {
		thin := h.WithLines(thinLines(h.Lines))
		if recount {
			thin = thin.Recount()
		}
		hunks = append(hunks, thin)
	}
	return f.WithHunks(hunks)
}

func thinLines(lines []udiff.Line) []udiff.Line {
	blocks := splitBlocks(lines)
	var kept []udiff.Line
	for i, b := range blocks {
		if b[0].Kind != udiff.Context {
			kept = append(kept, b...)
			continue
		}
		switch {
		case i == 0 || i == len(blocks)-1:
			kept = append(kept, b[:min(2, len(b))]...)
		case len(b) <= 2:
			kept = append(kept, b...)
		default:
			kept = append(kept, b[0], b[len(b)-1])
		}
	}
	return kept
}

// splitBlocks partitions lines into maximal runs of a single kind.
func splitBlocks(lines []udiff.Line) [][]udiff.Line {
	var blocks [][]udiff.Line
	start := 0
	for i := 1; i <= len(lines); i++ {
		if i == len(lines) || lines[i].Kind != lines[start].Kind {
			blocks = append(blocks, lines[start:i])
			start = i
		}
	}
	return blocks
}

// RankByChanges returns files ordered by changed-line count, most first.
// Files with equal counts keep their input order.
func RankByChanges(files []udiff.File) []udiff.File {
	ranked := make([]udiff.File, len(files))
	copy(ranked, files)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].ChangeCount() > ranked[j].ChangeCount()
	})
	return ranked
}
