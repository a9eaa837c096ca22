package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ralphlabs/ralph/internal/workspace"
)

func writeConfig(t *testing.T, dir, content string) {
	t.Helper()
	path := workspace.Resolve(dir).Config
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("missing config must not error: %v", err)
	}
	if cfg.Engine != "claude" {
		t.Errorf("engine = %q, want claude default", cfg.Engine)
	}
	if cfg.HasReviewTimeout {
		t.Error("HasReviewTimeout should be false with no config file")
	}
}

func TestLoadFullConfig(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, `
engine: codex
model: gpt-5
reviewTimeoutMs: 600000
goldenStandardPath: docs/golden.md
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "codex" {
		t.Errorf("engine = %q", cfg.Engine)
	}
	if cfg.Model != "gpt-5" {
		t.Errorf("model = %q", cfg.Model)
	}
	if !cfg.HasReviewTimeout || cfg.ReviewTimeoutMs != 600000 {
		t.Errorf("timeout = (%v, %d)", cfg.HasReviewTimeout, cfg.ReviewTimeoutMs)
	}
	if cfg.GoldenStandardPath != "docs/golden.md" {
		t.Errorf("goldenStandardPath = %q", cfg.GoldenStandardPath)
	}
}

func TestLoadPartialConfigKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "model: opus\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "claude" {
		t.Errorf("engine = %q, want claude default", cfg.Engine)
	}
	if cfg.Model != "opus" {
		t.Errorf("model = %q", cfg.Model)
	}
	if cfg.HasReviewTimeout {
		t.Error("unset timeout must not be marked present")
	}
}

func TestLoadExplicitZeroTimeout(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "reviewTimeoutMs: 0\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.HasReviewTimeout {
		t.Error("explicit 0 must set HasReviewTimeout")
	}
	if cfg.ReviewTimeoutMs != 0 {
		t.Errorf("timeout = %d, want 0", cfg.ReviewTimeoutMs)
	}
}

func TestLoadEmptyEngineIgnored(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "engine: \"\"\n")

	cfg, err := Load(dir)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Engine != "claude" {
		t.Errorf("engine = %q, want default for explicit empty", cfg.Engine)
	}
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "engine: [unclosed\n")

	if _, err := Load(dir); err == nil {
		t.Fatal("malformed YAML must be an error")
	}
}
