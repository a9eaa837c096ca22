// Package workspace defines the .ralph/ directory layout shared by every
// command: config, per-run prompt/transcript logs, verdict files, and the
// structured review records.
package workspace

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
)

//go:embed config.yaml
var DefaultConfig string

// RalphDir is the name of the ralph workspace directory.
const RalphDir = ".ralph"

// File and directory name constants for consistent usage across the codebase.
const (
	ConfigFile  = "config.yaml"
	HistoryFile = "history.db" // Run-history index (sqlite)
	LogsDir     = "logs"       // Prompt files and raw engine transcripts
	VerdictsDir = "verdicts"   // Side-channel verdict JSON files
	ReviewsDir  = "reviews"    // Structured run-log records
)

// Layout holds resolved absolute paths for one project's workspace.
type Layout struct {
	Root     string // <project>/.ralph
	Logs     string
	Verdicts string
	Reviews  string
	Config   string
	History  string
}

// Resolve returns the workspace layout for a project directory without
// touching the filesystem.
func Resolve(projectDir string) Layout {
	root := filepath.Join(projectDir, RalphDir)
	return Layout{
		Root:     root,
		Logs:     filepath.Join(root, LogsDir),
		Verdicts: filepath.Join(root, VerdictsDir),
		Reviews:  filepath.Join(root, ReviewsDir),
		Config:   filepath.Join(root, ConfigFile),
		History:  filepath.Join(root, HistoryFile),
	}
}

// Ensure creates the workspace directories, writing the default config on
// first use. Directory creation is idempotent.
func Ensure(projectDir string) (Layout, error) {
	l := Resolve(projectDir)
	for _, dir := range []string{l.Root, l.Logs, l.Verdicts, l.Reviews} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return Layout{}, fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if _, err := os.Stat(l.Config); os.IsNotExist(err) {
		if err := os.WriteFile(l.Config, []byte(DefaultConfig), 0644); err != nil {
			return Layout{}, fmt.Errorf("write default config: %w", err)
		}
	}
	return l, nil
}
