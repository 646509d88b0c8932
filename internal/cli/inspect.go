package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/diffbudget/internal/config"
	"github.com/dshills/diffbudget/internal/lang"
	"github.com/dshills/diffbudget/internal/tokens"
)

var tokensCmd = &cobra.Command{
	Use:   "tokens [text...]",
	Short: "Count tokens in text or in a diff",
	Long: "Count tokens with the configured tokenizer. With arguments, the joined arguments " +
		"are counted; otherwise the selected diff is counted per file and in total.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return countArgs(cmd, strings.Join(args, " "))
		}
		r, err := prepare(cmd, "tokens")
		if err != nil || r == nil {
			return err
		}
		total := countFiles(r, newCounter(r.cfg, r.logger))
		r.report.Summary.TokensBefore = total
		r.report.Summary.TokensAfter = total
		if r.cfg.Format == "diff" {
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		}
		r.finish(cmd)
		return nil
	},
}

func countArgs(cmd *cobra.Command, text string) error {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return err
	}
	logger := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	n := tokens.WithFallback(newCounter(cfg, logger), logger)(text)
	if cfg.Format != "json" {
		fmt.Fprintln(cmd.OutOrStdout(), n)
		return nil
	}
	data, err := json.MarshalIndent(struct {
		Encoding string `json:"encoding"`
		Tokens   int    `json:"tokens"`
	}{encodingName(cfg), n}, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

var langCmd = &cobra.Command{
	Use:   "lang [path...]",
	Short: "Detect the language of file paths or of a diff's files",
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			printLanguages(cmd, args)
			return nil
		}
		r, err := prepare(cmd, "lang")
		if err != nil || r == nil {
			return err
		}
		if r.cfg.Format == "diff" {
			paths := make([]string, 0, len(r.report.Files))
			for _, f := range r.report.Files {
				paths = append(paths, f.Path)
			}
			printLanguages(cmd, paths)
			return nil
		}
		r.finish(cmd)
		return nil
	},
}

// printLanguages writes one "path<TAB>language" line per path followed by
// the common language, using "-" when none is detected.
func printLanguages(cmd *cobra.Command, paths []string) {
	w := cmd.OutOrStdout()
	for _, p := range paths {
		l, _ := lang.Detect(p)
		fmt.Fprintf(w, "%s\t%s\n", p, orDash(l))
	}
	common, _ := lang.DetectCommon(paths)
	fmt.Fprintf(w, "common\t%s\n", orDash(common))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
