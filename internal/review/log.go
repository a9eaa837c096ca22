package review

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PromptText pairs a prompt name with the full text that was sent, retained
// for audit.
type PromptText struct {
	Name       string `json:"name"`
	FullPrompt string `json:"fullPrompt"`
}

// RunLog is the structured record persisted once per review run.
type RunLog struct {
	Timestamp        time.Time         `json:"timestamp"`
	SpecPath         string            `json:"specPath"`
	PromptResults    []PromptRunResult `json:"promptResults"`
	AggregatedResult *AggregatedResult `json:"aggregatedResult"`
	Prompts          []PromptText      `json:"prompts"`
}

// WriteRunLog persists the run record as one JSON file under dir and returns
// its path. The record is written by the orchestrator alone, after the fan-out
// join, so there is never a concurrent writer.
func WriteRunLog(dir string, rec RunLog) (string, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode run log: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("review_%s.json", rec.Timestamp.Format("2006-01-02-150405")))
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write run log: %w", err)
	}
	return path, nil
}
