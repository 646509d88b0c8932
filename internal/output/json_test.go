package output

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/dshills/diffbudget/internal/budget"
)

func TestJSONWriter(t *testing.T) {
	report := sampleReport("optimize")
	report.RunID = "test-run"
	report.ApplyResult(budget.Result{
		Diff:         "--- main.go\n+++ main.go\n",
		Strategy:     budget.StrategyThinContext,
		TokensBefore: 40,
		TokensAfter:  20,
		MaxTokens:    30,
	})

	var buf bytes.Buffer
	w := &JSONWriter{}
	if err := w.Write(&buf, report); err != nil {
		t.Fatalf("Write error: %v", err)
	}

	var parsed budget.Report
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}

	if parsed.Tool != "diffbudget" {
		t.Errorf("Tool = %q, want %q", parsed.Tool, "diffbudget")
	}
	if parsed.RunID != "test-run" {
		t.Errorf("RunID = %q, want %q", parsed.RunID, "test-run")
	}
	if len(parsed.Files) != 2 {
		t.Errorf("Files count = %d, want 2", len(parsed.Files))
	}
	if parsed.Summary.Strategy != budget.StrategyThinContext {
		t.Errorf("Strategy = %q, want %q", parsed.Summary.Strategy, budget.StrategyThinContext)
	}
	if parsed.Diff != report.Diff {
		t.Errorf("Diff = %q, want %q", parsed.Diff, report.Diff)
	}
}
