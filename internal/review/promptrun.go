package review

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
)

// promptFilePrefix namespaces review prompt artifacts in the logs directory.
const promptFilePrefix = "spec_review_"

// PromptRunner executes one review prompt's full lifecycle: prompt file on
// disk, engine invocation under a timeout, and conversion of every failure
// mode into a typed PromptRunResult. It never lets an engine error escape to
// abort a sibling prompt.
type PromptRunner struct {
	Engine  engine.Invoker
	WorkDir string // Directory the engine operates in
	LogDir  string // Prompt files and transcripts
	Log     *slog.Logger
}

// RunDirect writes the prompt file, invokes the engine, and parses the
// verdict out of the engine's own output stream.
func (r *PromptRunner) RunDirect(ctx context.Context, def PromptDefinition, fullPrompt string, timeout time.Duration) PromptRunResult {
	start := time.Now()

	promptPath, err := r.writePromptFile(def.Name, fullPrompt)
	if err != nil {
		return r.failure(def, err, time.Since(start))
	}

	resp, err := r.Engine.Invoke(ctx, engine.Request{
		PromptPath: promptPath,
		WorkDir:    r.WorkDir,
		LogDir:     r.LogDir,
		Timeout:    timeout,
	})
	if err != nil {
		return r.failure(def, err, time.Since(start))
	}

	result := ParseStreamText(def, resp.Output)
	result.DurationMs = time.Since(start).Milliseconds()
	return result
}

// Launch writes the prompt file and invokes the engine in file-output mode:
// the engine was instructed to write its verdict to a side-channel file, so
// the direct output is not parsed here. Invocation errors are logged and
// swallowed; the separate verdict-file read decides the prompt's fate.
func (r *PromptRunner) Launch(ctx context.Context, def PromptDefinition, fullPrompt string, timeout time.Duration) {
	promptPath, err := r.writePromptFile(def.Name, fullPrompt)
	if err != nil {
		r.Log.Warn("failed to write prompt file", "prompt", def.Name, "error", err)
		return
	}

	_, err = r.Engine.Invoke(ctx, engine.Request{
		PromptPath: promptPath,
		WorkDir:    r.WorkDir,
		LogDir:     r.LogDir,
		Timeout:    timeout,
	})
	if err != nil {
		r.Log.Warn("engine invocation failed", "prompt", def.Name, "error", err)
	}
}

// failure converts an engine invocation error into a FAIL result with one
// critical issue, preserving the elapsed time up to the failure point.
func (r *PromptRunner) failure(def PromptDefinition, err error, elapsed time.Duration) PromptRunResult {
	return PromptRunResult{
		PromptName: def.Name,
		Category:   def.Category,
		Verdict:    VerdictFail,
		Issues: []Issue{{
			ID:          newID(),
			Severity:    SeverityCritical,
			Description: err.Error(),
		}},
		Suggestions: []Suggestion{},
		RawResponse: "",
		DurationMs:  elapsed.Milliseconds(),
	}
}

// writePromptFile persists the prompt under the logs directory. Stale prompt
// files for the same prompt name are purged first so repeated runs within one
// session don't accumulate artifacts.
func (r *PromptRunner) writePromptFile(name, fullPrompt string) (string, error) {
	if err := r.purgeStalePrompts(name); err != nil {
		r.Log.Debug("stale prompt cleanup failed", "prompt", name, "error", err)
	}

	filename := fmt.Sprintf("%s%s_%d.md", promptFilePrefix, name, time.Now().UnixMilli())
	path := filepath.Join(r.LogDir, filename)
	if err := os.WriteFile(path, []byte(fullPrompt), 0644); err != nil {
		return "", fmt.Errorf("write prompt file: %w", err)
	}
	return path, nil
}

// purgeStalePrompts deletes every spec_review_<name>_*.md in the log dir.
func (r *PromptRunner) purgeStalePrompts(name string) error {
	pattern := filepath.Join(r.LogDir, promptFilePrefix+name+"_*.md")
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}
