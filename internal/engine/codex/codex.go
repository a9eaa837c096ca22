package codex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
)

func init() {
	engine.Register("codex", func(cfg engine.Config) engine.Invoker {
		return New(cfg)
	})
}

// Invoker runs prompts through the OpenAI Codex CLI in exec mode.
type Invoker struct {
	model string
}

// New creates a new Codex invoker.
func New(cfg engine.Config) *Invoker {
	return &Invoker{model: cfg.Model}
}

// Name returns the engine identifier.
func (e *Invoker) Name() string {
	return "codex"
}

// CLICommand returns the CLI executable name.
func (e *Invoker) CLICommand() string {
	return "codex"
}

// BuildArgs returns the CLI arguments for execution.
func (e *Invoker) BuildArgs(prompt string) []string {
	args := []string{
		"exec",
		"--dangerously-bypass-approvals-and-sandbox",
		"--json",
	}
	if e.model != "" {
		args = append(args, "--model", e.model)
	}
	return append(args, prompt)
}

// Invoke executes the prompt file and returns the extracted text response.
func (e *Invoker) Invoke(ctx context.Context, req engine.Request) (engine.Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = engine.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	prompt, err := os.ReadFile(req.PromptPath)
	if err != nil {
		return engine.Response{}, fmt.Errorf("read prompt file: %w", err)
	}

	start := time.Now()

	cmd := exec.CommandContext(ctx, e.CLICommand(), e.BuildArgs(string(prompt))...)
	cmd.Dir = req.WorkDir
	cmd.Stdin = nil

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	duration := time.Since(start)

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return engine.Response{Duration: duration},
				fmt.Errorf("codex execution timed out after %s", timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		return engine.Response{Duration: duration}, fmt.Errorf("codex execution failed: %s", msg)
	}

	return engine.Response{Output: extractText(stdout.String()), Duration: duration}, nil
}

// extractText pulls agent message text out of Codex's JSONL event stream.
// Unparseable output is returned as-is so the caller can still scan it for
// fenced JSON.
func extractText(output string) string {
	var sb strings.Builder
	found := false

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var raw map[string]any
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			continue
		}
		msg, ok := raw["msg"].(map[string]any)
		if !ok {
			continue
		}
		if msg["type"] == "agent_message" {
			if text, ok := msg["message"].(string); ok {
				sb.WriteString(text)
				found = true
			}
		}
	}

	if !found {
		return output
	}
	return sb.String()
}
