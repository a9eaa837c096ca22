package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/ralphlabs/ralph/internal/config"
	"github.com/ralphlabs/ralph/internal/engine"
	"github.com/ralphlabs/ralph/internal/history"
	"github.com/ralphlabs/ralph/internal/logging"
	"github.com/ralphlabs/ralph/internal/review"
	"github.com/ralphlabs/ralph/internal/spec"
	"github.com/ralphlabs/ralph/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	reviewProjectFlag string
	reviewTimeoutFlag int
	reviewCLIFlag     string
	reviewTypeFlag    string
	reviewVerboseFlag bool
	reviewJSONFlag    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review <spec-file>",
	Short: "Run the review prompt battery against a spec",
	Long: `Review a specification document with every applicable review prompt.

The review process:
  1. Detects the spec type (prd, tech-spec, bug) to select the prompt set
  2. Runs every prompt concurrently, each under its own timeout
  3. Collects verdicts from side-channel verdict files
  4. Aggregates findings through an AI agent, falling back to local merging
  5. Persists a structured run log under .ralph/reviews/

Timeout precedence: --timeout flag, then RALPH_REVIEW_TIMEOUT_MS, then a
20 minute default. Values are clamped to 30s..30m.

Examples:
  ralph review prd-auth.md                 # Review with the configured engine
  ralph review tech-auth.md --cli codex    # Use Codex instead
  ralph review prd-auth.md --timeout 300000
  ralph review prd-auth.md --json          # Machine-readable result`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVar(&reviewProjectFlag, "project", ".", "Project directory holding the .ralph workspace")
	reviewCmd.Flags().IntVar(&reviewTimeoutFlag, "timeout", 0, "Overall review timeout in milliseconds")
	reviewCmd.Flags().StringVar(&reviewCLIFlag, "cli", "", "Engine CLI to use (claude, codex)")
	reviewCmd.Flags().StringVar(&reviewTypeFlag, "type", "", "Spec type override (prd, tech-spec, bug)")
	reviewCmd.Flags().BoolVarP(&reviewVerboseFlag, "verbose", "v", false, "Enable debug logging")
	reviewCmd.Flags().BoolVar(&reviewJSONFlag, "json", false, "Print the aggregated result as JSON")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, args []string) error {
	specPath := args[0]
	if _, err := os.Stat(specPath); err != nil {
		return fmt.Errorf("spec file: %w", err)
	}

	level := slog.LevelWarn
	if reviewVerboseFlag {
		level = slog.LevelDebug
	}
	logging.Init(level, "text")

	config.LoadEnv(reviewProjectFlag)
	cfg, err := config.Load(reviewProjectFlag)
	if err != nil {
		return err
	}

	eng, err := newEngine(reviewCLIFlag, reviewProjectFlag)
	if err != nil {
		return err
	}

	display := engine.NewDisplay(os.Stdout)
	display.SetQuiet(reviewJSONFlag)
	display.ShowCommandHeader("Review", specPath, "engine: "+eng.Name())

	var specType spec.Type
	if reviewTypeFlag != "" {
		specType, err = spec.ParseType(reviewTypeFlag)
		if err != nil {
			return err
		}
	}

	timeoutFlagMs := reviewTimeoutFlag
	if timeoutFlagMs == 0 && cfg.HasReviewTimeout {
		timeoutFlagMs = cfg.ReviewTimeoutMs
	}
	timeoutMs := review.Timeout(timeoutFlagMs, display.ShowWarning)

	golden := loadGoldenStandard(cfg, display)

	runner := review.NewRunner(eng, display)
	result, err := runner.RunSpecReview(context.Background(), specPath, review.Options{
		ProjectDir:     reviewProjectFlag,
		SpecType:       specType,
		TimeoutMs:      timeoutMs,
		GoldenStandard: golden,
	})
	if err != nil {
		return err
	}

	recordHistory(specPath, specType, result)

	if reviewJSONFlag {
		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
	} else {
		printResult(display, result)
	}

	os.Exit(exitCode(result))
	return nil
}

// exitCode maps the aggregated result to the CLI contract: 0 PASS, 1 any
// failing verdict, 2 when a timeout left zero prompts completed.
func exitCode(result *review.AggregatedResult) int {
	if result.TimeoutInfo != nil && result.TimeoutInfo.CompletedPrompts == 0 {
		return 2
	}
	if result.Verdict == review.VerdictPass {
		return 0
	}
	return 1
}

func loadGoldenStandard(cfg config.Config, display *engine.Display) string {
	if cfg.GoldenStandardPath == "" {
		return ""
	}
	content, err := os.ReadFile(cfg.GoldenStandardPath)
	if err != nil {
		display.ShowWarning("Could not read golden standard %s: %s", cfg.GoldenStandardPath, err)
		return ""
	}
	return string(content)
}

// printResult renders the human-readable verdict, grouped categories, and
// the partial-timeout notice.
func printResult(display *engine.Display, result *review.AggregatedResult) {
	display.ShowVerdictLine(string(result.Verdict), time.Duration(result.DurationMs)*time.Millisecond)

	if result.ExecutiveSummary != "" {
		fmt.Println()
		fmt.Println(result.ExecutiveSummary)
	}

	categories := make([]string, 0, len(result.Categories))
	for name := range result.Categories {
		categories = append(categories, name)
	}
	sort.Strings(categories)

	for _, name := range categories {
		cat := result.Categories[name]
		fmt.Printf("\n%s: %s\n", name, cat.Verdict)
		for _, issue := range cat.Issues {
			fmt.Printf("  - [%s] %s\n", issue.Severity, issue.Description)
		}
	}

	if len(result.Suggestions) > 0 {
		fmt.Printf("\nSuggestions: %d", len(result.Suggestions))
		if result.DeduplicationStats != nil {
			fmt.Printf(" (deduplicated from %d)", result.DeduplicationStats.Before)
		}
		fmt.Println()
	}

	if result.SplitProposal != nil {
		fmt.Printf("\nSplit recommended: %s\n", result.SplitProposal.Reason)
		for _, p := range result.SplitProposal.ProposedSpecs {
			fmt.Printf("  - %s: %s\n", p.Filename, p.Description)
		}
	}

	if info := result.TimeoutInfo; info != nil {
		fmt.Printf("\n%d of %d reviewers completed before the %dms timeout.\n",
			info.CompletedPrompts, info.TotalPrompts, info.TimeoutMs)
		if len(info.CompletedPromptNames) > 0 {
			fmt.Printf("Completed: %v\n", info.CompletedPromptNames)
		}
		fmt.Printf("Increase the budget with --timeout or %s.\n", review.EnvTimeout)
	}

	if result.LogPath != "" {
		fmt.Printf("\nRun log: %s\n", result.LogPath)
	}
}

// recordHistory indexes the run in the sqlite history store. Failures are
// non-fatal; the JSON run log is the durable record.
func recordHistory(specPath string, specType spec.Type, result *review.AggregatedResult) {
	layout := workspace.Resolve(reviewProjectFlag)
	store, err := history.Open(layout.History)
	if err != nil {
		slog.Warn("could not open history db", "error", err)
		return
	}
	defer store.Close()

	completed, total := 0, 0
	if result.TimeoutInfo != nil {
		completed = result.TimeoutInfo.CompletedPrompts
		total = result.TimeoutInfo.TotalPrompts
	} else {
		completed = len(result.Categories)
		total = completed
	}

	err = store.Record(history.Run{
		Timestamp:        time.Now(),
		SpecPath:         specPath,
		SpecType:         string(specType),
		Verdict:          string(result.Verdict),
		DurationMs:       result.DurationMs,
		CompletedPrompts: completed,
		TotalPrompts:     total,
		LogPath:          result.LogPath,
	})
	if err != nil {
		slog.Warn("could not record run history", "error", err)
	}
}
