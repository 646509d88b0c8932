package cli

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const (
	hookMarkerStart = "# >>> diffbudget pre-commit hook >>>"
	hookMarkerEnd   = "# <<< diffbudget pre-commit hook <<<"
)

var (
	hookMaxTokens int
	hookBlock     bool
)

var hookCmd = &cobra.Command{
	Use:   "hook",
	Short: "Manage git pre-commit hook",
}

var hookInstallCmd = &cobra.Command{
	Use:   "install",
	Short: "Install a pre-commit hook that checks staged changes against a token budget",
	RunE: func(cmd *cobra.Command, args []string) error {
		if hookMaxTokens < 0 {
			return fmt.Errorf("--max-tokens must not be negative, got %d", hookMaxTokens)
		}
		hookPath, err := getHookPath()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		section := generateHookScript(hookMaxTokens, hookBlock)

		existing, err := os.ReadFile(hookPath)
		if err != nil && !os.IsNotExist(err) {
			runtimeError(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		var content string
		if os.IsNotExist(err) || len(existing) == 0 {
			content = "#!/bin/sh\n" + section
		} else {
			content = replaceHookSection(string(existing), section)
		}

		if err := os.MkdirAll(filepath.Dir(hookPath), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("creating hooks directory: %w", err))
			return nil
		}
		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Installed diffbudget pre-commit hook at %s\n", hookPath)
		return nil
	},
}

var hookUninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Remove diffbudget pre-commit hook",
	RunE: func(cmd *cobra.Command, args []string) error {
		hookPath, err := getHookPath()
		if err != nil {
			runtimeError(cmd, err)
			return nil
		}

		existing, err := os.ReadFile(hookPath)
		if err != nil {
			if os.IsNotExist(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "No pre-commit hook found.")
				return nil
			}
			runtimeError(cmd, fmt.Errorf("reading hook file: %w", err))
			return nil
		}

		content := removeHookSection(string(existing))

		// Only a shebang left: delete the file
		trimmed := strings.TrimSpace(content)
		if trimmed == "" || trimmed == "#!/bin/sh" || trimmed == "#!/bin/bash" {
			if err := os.Remove(hookPath); err != nil {
				runtimeError(cmd, fmt.Errorf("removing hook file: %w", err))
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed diffbudget pre-commit hook at %s\n", hookPath)
			return nil
		}

		if err := os.WriteFile(hookPath, []byte(content), 0o755); err != nil {
			runtimeError(cmd, fmt.Errorf("writing hook file: %w", err))
			return nil
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Removed diffbudget section from %s\n", hookPath)
		return nil
	},
}

func getHookPath() (string, error) {
	out, err := exec.Command("git", "rev-parse", "--git-path", "hooks").Output()
	if err != nil {
		return "", fmt.Errorf("not a git repository (git rev-parse --git-path hooks failed)")
	}
	return filepath.Join(strings.TrimSpace(string(out)), "pre-commit"), nil
}

// generateHookScript returns the marked hook section. maxTokens 0 uses the
// configured budget. Without block, an over-budget commit only prints a
// warning.
func generateHookScript(maxTokens int, block bool) string {
	var b strings.Builder
	b.WriteString(hookMarkerStart + "\n")
	b.WriteString("diffbudget optimize --staged --fail-over-budget --format text")
	if maxTokens > 0 {
		fmt.Fprintf(&b, " --max-tokens %d", maxTokens)
	}
	b.WriteString(" >/dev/null\n")
	b.WriteString("DIFFBUDGET_EXIT=$?\n")
	b.WriteString("if [ $DIFFBUDGET_EXIT -eq 1 ]; then\n")
	if block {
		b.WriteString("  echo \"diffbudget: staged changes do not fit the token budget, commit blocked\"\n")
		b.WriteString("  exit 1\n")
	} else {
		b.WriteString("  echo \"diffbudget: staged changes do not fit the token budget\"\n")
	}
	b.WriteString("elif [ $DIFFBUDGET_EXIT -ge 2 ]; then\n")
	b.WriteString("  echo \"diffbudget: warning, budget check failed (exit $DIFFBUDGET_EXIT), allowing commit\"\n")
	b.WriteString("fi\n")
	b.WriteString(hookMarkerEnd + "\n")
	return b.String()
}

func replaceHookSection(existing, section string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		if !strings.HasSuffix(existing, "\n") {
			existing += "\n"
		}
		return existing + section
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + section + after
}

func removeHookSection(existing string) string {
	startIdx := strings.Index(existing, hookMarkerStart)
	endIdx := strings.Index(existing, hookMarkerEnd)

	if startIdx == -1 || endIdx == -1 {
		return existing
	}

	before := existing[:startIdx]
	after := strings.TrimPrefix(existing[endIdx+len(hookMarkerEnd):], "\n")
	return before + after
}

func init() {
	hookCmd.AddCommand(hookInstallCmd)
	hookCmd.AddCommand(hookUninstallCmd)
	hookInstallCmd.Flags().IntVar(&hookMaxTokens, "max-tokens", 0, "Token budget checked by the hook (default from config)")
	hookInstallCmd.Flags().BoolVar(&hookBlock, "block", false, "Block commits whose staged diff does not fit the budget")
}
