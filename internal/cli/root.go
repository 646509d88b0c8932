package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/diffbudget/internal/budget"
	"github.com/dshills/diffbudget/internal/output"
)

const version = "0.1.0"

// Exit codes
const (
	ExitSuccess      = 0
	ExitOverBudget   = 1
	ExitUsageError   = 2
	ExitRuntimeError = 4
)

var rootCmd = &cobra.Command{
	Use:   "diffbudget",
	Short: "Fit unified diffs into an LLM token budget",
	Long: "diffbudget parses unified diffs, splits them into prompt-sized chunks and " +
		"compresses them to a token budget by thinning context and dropping low-impact files.",
	SilenceUsage: true,
}

// Run executes the root command and returns an exit code.
func Run() int {
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(chunkCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(tokensCmd)
	rootCmd.AddCommand(langCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(modelsCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(hookCmd)
	rootCmd.AddCommand(versionCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Cobra already prints the error
		return ExitUsageError
	}

	return exitCode
}

// exitCode is set by command handlers to control the process exit code.
var exitCode = ExitSuccess

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print diffbudget version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "diffbudget version %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level (debug, info, warn, error)")
}

// newLogger returns a text logger on w filtered at level.
func newLogger(w io.Writer, level string) *slog.Logger {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		l = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// runtimeError reports err on stderr and sets the runtime exit code.
func runtimeError(cmd *cobra.Command, err error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	exitCode = ExitRuntimeError
}

func writeReport(cmd *cobra.Command, report *budget.Report, format string) {
	if err := output.WriteReport(report, format, flagOut, cmd.OutOrStdout()); err != nil {
		runtimeError(cmd, fmt.Errorf("writing output: %w", err))
	}
}
