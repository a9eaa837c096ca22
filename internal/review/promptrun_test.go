package review

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
)

type scriptedInvoker struct {
	output string
	err    error
	gotReq engine.Request
}

func (s *scriptedInvoker) Name() string { return "scripted" }

func (s *scriptedInvoker) Invoke(_ context.Context, req engine.Request) (engine.Response, error) {
	s.gotReq = req
	if s.err != nil {
		return engine.Response{}, s.err
	}
	return engine.Response{Output: s.output}, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRunDirectParsesStream(t *testing.T) {
	inv := &scriptedInvoker{output: "All good.\n```json\n{\"verdict\": \"PASS\", \"issues\": [], \"suggestions\": []}\n```"}
	r := &PromptRunner{Engine: inv, WorkDir: t.TempDir(), LogDir: t.TempDir(), Log: discardLogger()}

	def := PromptDefinition{Name: "security", Category: "security"}
	res := r.RunDirect(context.Background(), def, "check things", time.Minute)

	if res.Verdict != VerdictPass {
		t.Errorf("verdict = %v, want PASS", res.Verdict)
	}
	if res.PromptName != "security" || res.Category != "security" {
		t.Errorf("identity not carried: %+v", res)
	}
	if res.DurationMs < 0 {
		t.Errorf("durationMs = %d", res.DurationMs)
	}

	// The prompt must have reached the engine as a file in the log dir.
	if !strings.HasPrefix(filepath.Base(inv.gotReq.PromptPath), promptFilePrefix+"security_") {
		t.Errorf("prompt path = %q", inv.gotReq.PromptPath)
	}
	data, err := os.ReadFile(inv.gotReq.PromptPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "check things" {
		t.Errorf("prompt file content = %q", data)
	}
}

func TestRunDirectEngineFailure(t *testing.T) {
	inv := &scriptedInvoker{err: errors.New("claude execution failed: boom")}
	r := &PromptRunner{Engine: inv, WorkDir: t.TempDir(), LogDir: t.TempDir(), Log: discardLogger()}

	def := PromptDefinition{Name: "security", Category: "security"}
	res := r.RunDirect(context.Background(), def, "check things", time.Minute)

	if res.Verdict != VerdictFail {
		t.Errorf("verdict = %v, want FAIL", res.Verdict)
	}
	if len(res.Issues) != 1 {
		t.Fatalf("issues = %d, want 1", len(res.Issues))
	}
	if res.Issues[0].Severity != SeverityCritical {
		t.Errorf("severity = %v, want critical", res.Issues[0].Severity)
	}
	if !strings.Contains(res.Issues[0].Description, "boom") {
		t.Errorf("description = %q, want engine error text", res.Issues[0].Description)
	}
}

func TestWritePromptFilePurgesStale(t *testing.T) {
	logDir := t.TempDir()
	r := &PromptRunner{Engine: &scriptedInvoker{}, WorkDir: t.TempDir(), LogDir: logDir, Log: discardLogger()}

	stale := filepath.Join(logDir, promptFilePrefix+"security_1000.md")
	if err := os.WriteFile(stale, []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	// A different prompt's artifact survives the purge.
	other := filepath.Join(logDir, promptFilePrefix+"edge_cases_1000.md")
	if err := os.WriteFile(other, []byte("other"), 0644); err != nil {
		t.Fatal(err)
	}

	path, err := r.writePromptFile("security", "new prompt")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale prompt file not purged")
	}
	if _, err := os.Stat(other); err != nil {
		t.Error("unrelated prompt file was purged")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "new prompt" {
		t.Errorf("new prompt content = %q", data)
	}
}

func TestLaunchSwallowsEngineError(t *testing.T) {
	inv := &scriptedInvoker{err: errors.New("engine exploded")}
	r := &PromptRunner{Engine: inv, WorkDir: t.TempDir(), LogDir: t.TempDir(), Log: discardLogger()}

	// Must not panic or propagate; the verdict-file read decides the outcome.
	r.Launch(context.Background(), PromptDefinition{Name: "security", Category: "security"}, "check", time.Minute)

	if inv.gotReq.PromptPath == "" {
		t.Error("engine was never invoked")
	}
}
