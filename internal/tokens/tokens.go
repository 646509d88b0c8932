package tokens

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4"

// DefaultEncoding is used for models without a known encoding.
const DefaultEncoding = "cl100k_base"

// WordsEncoding selects the offline word-count estimate instead of tiktoken.
const WordsEncoding = "words"

// Counter returns the number of tokens in text.
type Counter func(text string) (int, error)

// ErrNegativeCount is reported when a counter returns a negative number.
var ErrNegativeCount = errors.New("token counter returned a negative count")

// modelEncodings maps model names to tiktoken encodings.
var modelEncodings = map[string]string{
	"gpt-3.5-turbo": "cl100k_base",
	"gpt-4":         "cl100k_base",
	"gpt-4-turbo":   "cl100k_base",
	"gpt-4o":        "o200k_base",
	"gpt-4o-mini":   "o200k_base",
}

// EncodingForModel returns the encoding name for model. Unknown models,
// including non-OpenAI ones, use DefaultEncoding.
func EncodingForModel(model string) string {
	if enc, ok := modelEncodings[strings.ToLower(model)]; ok {
		return enc
	}
	return DefaultEncoding
}

// Models returns the model names with a known encoding, sorted.
func Models() []string {
	names := make([]string, 0, len(modelEncodings))
	for m := range modelEncodings {
		names = append(names, m)
	}
	sort.Strings(names)
	return names
}

// EstimateWords approximates a token count as words / 0.75.
func EstimateWords(text string) int {
	return int(float64(len(strings.Fields(text))) / 0.75)
}

// Words is a Counter backed by EstimateWords. It never fails.
func Words(text string) (int, error) {
	return EstimateWords(text), nil
}

var (
	encMu    sync.Mutex
	encCache = map[string]*tiktoken.Tiktoken{}
)

// ForEncoding returns a Counter for a tiktoken encoding name such as
// "cl100k_base". Loaded encodings are shared across calls. WordsEncoding
// returns Words.
func ForEncoding(name string) (Counter, error) {
	if name == WordsEncoding {
		return Words, nil
	}
	encMu.Lock()
	defer encMu.Unlock()
	enc, ok := encCache[name]
	if !ok {
		var err error
		enc, err = tiktoken.GetEncoding(name)
		if err != nil {
			return nil, fmt.Errorf("loading encoding %s: %w", name, err)
		}
		encCache[name] = enc
	}
	return func(text string) (int, error) {
		return len(enc.Encode(text, nil, nil)), nil
	}, nil
}

// ForModel returns a Counter using the encoding for model.
func ForModel(model string) (Counter, error) {
	if model == "" {
		model = DefaultModel
	}
	return ForEncoding(EncodingForModel(model))
}

// Default returns a tiktoken Counter for DefaultModel, or Words when the
// encoding cannot be loaded.
func Default(logger *slog.Logger) Counter {
	c, err := ForModel(DefaultModel)
	if err != nil {
		orDiscard(logger).Warn("tokenizer unavailable, estimating from word count", "error", err)
		return Words
	}
	return c
}

// WithFallback wraps c so that errors and negative counts fall back to
// EstimateWords. A nil c counts words directly.
func WithFallback(c Counter, logger *slog.Logger) func(string) int {
	logger = orDiscard(logger)
	if c == nil {
		return EstimateWords
	}
	return func(text string) int {
		n, err := c(text)
		if err == nil && n < 0 {
			err = ErrNegativeCount
		}
		if err != nil {
			logger.Warn("token count failed, using word estimate", "error", err)
			return EstimateWords(text)
		}
		return n
	}
}

func orDiscard(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return logger
}
