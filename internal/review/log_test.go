package review

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWriteRunLog(t *testing.T) {
	dir := t.TempDir()
	ts := time.Date(2026, 3, 1, 14, 30, 5, 0, time.UTC)

	rec := RunLog{
		Timestamp: ts,
		SpecPath:  "prd-widgets.md",
		PromptResults: []PromptRunResult{
			{PromptName: "security", Category: "security", Verdict: VerdictPass, Issues: []Issue{}, Suggestions: []Suggestion{}},
		},
		AggregatedResult: &AggregatedResult{Verdict: VerdictPass, Categories: map[string]CategoryResult{}},
		Prompts:          []PromptText{{Name: "security", FullPrompt: "review this"}},
	}

	path, err := WriteRunLog(dir, rec)
	if err != nil {
		t.Fatal(err)
	}

	if filepath.Base(path) != "review_2026-03-01-143005.json" {
		t.Errorf("log filename = %q", filepath.Base(path))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got RunLog
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("run log is not valid JSON: %v", err)
	}
	if got.SpecPath != "prd-widgets.md" {
		t.Errorf("specPath = %q", got.SpecPath)
	}
	if len(got.PromptResults) != 1 || got.PromptResults[0].PromptName != "security" {
		t.Errorf("promptResults = %+v", got.PromptResults)
	}
	if got.AggregatedResult == nil || got.AggregatedResult.Verdict != VerdictPass {
		t.Errorf("aggregatedResult = %+v", got.AggregatedResult)
	}
	if len(got.Prompts) != 1 || got.Prompts[0].FullPrompt != "review this" {
		t.Errorf("prompts = %+v", got.Prompts)
	}
}

func TestWriteRunLogMissingDir(t *testing.T) {
	_, err := WriteRunLog(filepath.Join(t.TempDir(), "absent"), RunLog{Timestamp: time.Now()})
	if err == nil {
		t.Fatal("expected error for missing directory")
	}
}
