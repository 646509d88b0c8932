package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/diffbudget/internal/config"
	"github.com/dshills/diffbudget/internal/tokens"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Model and tokenizer information",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List models with a known tokenizer encoding",
	Run: func(cmd *cobra.Command, args []string) {
		w := cmd.OutOrStdout()
		for _, m := range tokens.Models() {
			fmt.Fprintf(w, "%-16s %s\n", m, tokens.EncodingForModel(m))
		}
		fmt.Fprintf(w, "\nOther models use %s.\n", tokens.DefaultEncoding)
	},
}

var modelsDoctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check that the configured tokenizer loads",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		enc := encodingName(cfg)
		fmt.Fprintf(cmd.OutOrStdout(), "Checking %s (model %s)...\n", enc, cfg.Model)

		count, err := tokens.ForEncoding(enc)
		if err == nil {
			_, err = count("hello world")
		}
		if err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "FAIL: %v\n", err)
			fmt.Fprintln(cmd.ErrOrStderr(), "Token counts will fall back to a word-based estimate.")
			exitCode = ExitRuntimeError
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "OK: %s is available\n", enc)
		return nil
	},
}

func init() {
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsDoctorCmd)
	modelsDoctorCmd.Flags().StringVar(&flagModel, "model", "", "Model to check")
	modelsDoctorCmd.Flags().StringVar(&flagEncoding, "encoding", "", "Encoding to check (overrides --model)")
}
