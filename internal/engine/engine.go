package engine

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Request describes one engine invocation. The prompt is always delivered as
// a file on disk so the exact text sent to the model survives for audit.
type Request struct {
	PromptPath string        // Path to the prompt file to feed the engine
	WorkDir    string        // Directory the engine should operate in
	LogDir     string        // Directory for raw stream transcripts
	Timeout    time.Duration // Outer bound; engines may enforce their own
	Model      string        // Optional model override
}

// Response carries the engine's final text output. Structured verdicts are
// extracted from it (or from a side-channel verdict file) by the caller.
type Response struct {
	Output   string
	Duration time.Duration
}

// Invoker runs a prompt through an AI engine CLI.
//
// Implementations must honor ctx cancellation and return an error for
// process-level failures (missing binary, crash, timeout). They never
// interpret the review semantics of the output.
type Invoker interface {
	// Name returns the engine identifier (e.g. "claude", "codex").
	Name() string

	// Invoke executes the prompt file and returns the engine's output.
	Invoke(ctx context.Context, req Request) (Response, error)
}

// Config holds per-engine settings resolved from .ralph/config.yaml.
type Config struct {
	Model string
}

// constructors maps engine names to factories. Engines register themselves
// from their package init.
var constructors = make(map[string]func(Config) Invoker)

// Register registers an engine constructor by name.
func Register(name string, constructor func(Config) Invoker) {
	constructors[strings.ToLower(name)] = constructor
}

// New creates an engine by name.
func New(name string, cfg Config) (Invoker, error) {
	constructor, ok := constructors[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("unknown engine: %s (supported: %s)", name, strings.Join(Available(), ", "))
	}
	return constructor(cfg), nil
}

// Available returns the registered engine names.
func Available() []string {
	names := make([]string, 0, len(constructors))
	for name := range constructors {
		names = append(names, name)
	}
	return names
}

// DefaultTimeout bounds a single engine invocation when the caller does not
// provide one.
const DefaultTimeout = 20 * time.Minute
