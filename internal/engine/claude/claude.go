package claude

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
)

func init() {
	engine.Register("claude", func(cfg engine.Config) engine.Invoker {
		return New(cfg)
	})
}

// Invoker runs prompts through the Claude Code CLI in print mode.
type Invoker struct {
	model string
}

// New creates a new Claude invoker.
func New(cfg engine.Config) *Invoker {
	return &Invoker{model: cfg.Model}
}

// Name returns the engine identifier.
func (e *Invoker) Name() string {
	return "claude"
}

// CLICommand returns the CLI executable name.
func (e *Invoker) CLICommand() string {
	return "claude"
}

// BuildArgs returns the CLI arguments. The prompt itself is delivered over
// stdin so arbitrarily large prompts don't hit argv limits.
func (e *Invoker) BuildArgs() []string {
	args := []string{
		"-p",
		"--dangerously-skip-permissions",
		"--verbose",
		"--output-format", "stream-json",
	}
	if e.model != "" {
		args = append(args, "--model", e.model)
	}
	return args
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

	cmd := exec.CommandContext(ctx, e.CLICommand(), e.BuildArgs()...)
	cmd.Dir = req.WorkDir
	cmd.Stdin = bytes.NewReader(prompt)

	// Claude writes one JSON event per line. The collector extracts the
	// assistant's text; the raw stream is kept as a transcript for audit.
	collector := NewCollector()
	var stdout, stderr bytes.Buffer
	cmd.Stdout = io.MultiWriter(collector, &stdout)
	cmd.Stderr = &stderr

	runErr := cmd.Run()
	collector.Flush()
	duration := time.Since(start)

	if req.LogDir != "" {
		e.writeTranscript(req, stdout.Bytes())
	}

	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return engine.Response{Output: collector.Text(), Duration: duration},
				fmt.Errorf("claude execution timed out after %s", timeout)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = runErr.Error()
		}
		return engine.Response{Output: collector.Text(), Duration: duration},
			fmt.Errorf("claude execution failed: %s", msg)
	}

	return engine.Response{Output: collector.Text(), Duration: duration}, nil
}

// writeTranscript saves the raw stream-json output next to the prompt file.
// Transcript write failures never fail the invocation.
func (e *Invoker) writeTranscript(req engine.Request, raw []byte) {
	base := strings.TrimSuffix(filepath.Base(req.PromptPath), ".md")
	path := filepath.Join(req.LogDir, base+".jsonl")
	_ = os.WriteFile(path, raw, 0644)
}
