package review

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ralphlabs/ralph/internal/engine"
	"github.com/ralphlabs/ralph/internal/spec"
	"github.com/ralphlabs/ralph/internal/workspace"
)

// Aggregation timeouts: when the review is already degraded by a prompt
// timeout, don't spend the full budget polishing it.
const (
	aggregationTimeout         = 120 * time.Second
	degradedAggregationTimeout = 30 * time.Second
)

// Options configures one review run.
type Options struct {
	ProjectDir     string    // Project root; the .ralph workspace lives here
	SpecType       spec.Type // Empty means detect from the spec itself
	TimeoutMs      int       // Resolved overall budget (already validated)
	GoldenStandard string    // Optional golden-standard spec content
}

// Runner orchestrates one review session: concurrent fan-out of every
// applicable prompt, join-all collection of typed results, aggregation, and
// run-log persistence.
type Runner struct {
	eng     engine.Invoker
	display *engine.Display
	log     *slog.Logger
}

// NewRunner creates a review runner.
func NewRunner(eng engine.Invoker, display *engine.Display) *Runner {
	return &Runner{eng: eng, display: display, log: slog.Default().With("component", "review")}
}

// promptTask pairs a definition with its fully built prompt text.
type promptTask struct {
	def        PromptDefinition
	fullPrompt string
}

// RunSpecReview runs the full review session for one spec file. Individual
// prompt failures and timeouts become typed results inside the returned
// aggregate; only operational errors (unreadable spec, unusable workspace)
// are returned as errors.
func (r *Runner) RunSpecReview(ctx context.Context, specPath string, opts Options) (*AggregatedResult, error) {
	start := time.Now()

	layout, err := workspace.Ensure(opts.ProjectDir)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(specPath)
	if err != nil {
		return nil, fmt.Errorf("read spec: %w", err)
	}

	specType := opts.SpecType
	if specType == "" {
		specType = spec.DetectType(specPath, string(content))
	}
	r.display.ShowInfo("   Spec type: %s\n", specType)

	tasks, err := r.buildTasks(layout, specPath, string(content), specType, opts.GoldenStandard)
	if err != nil {
		return nil, err
	}

	runner := &PromptRunner{
		Engine:  r.eng,
		WorkDir: opts.ProjectDir,
		LogDir:  layout.Logs,
		Log:     r.log,
	}

	reviewerTimeout := perReviewerTimeout(opts.TimeoutMs)
	r.display.StartSpinner(fmt.Sprintf("Running %d reviewers...", len(tasks)))
	results := r.fanOut(ctx, runner, layout, tasks, reviewerTimeout)
	r.display.StopSpinner()

	for _, res := range results {
		verdict := string(res.Verdict)
		if res.TimedOut() {
			verdict = "TIMED_OUT"
		}
		r.display.ShowReviewerDone(res.PromptName, verdict, time.Duration(res.DurationMs)*time.Millisecond)
	}

	timedOut := len(results) - len(withoutTimedOut(results))
	aggTimeout := aggregationTimeout
	if timedOut > 0 {
		aggTimeout = degradedAggregationTimeout
	}

	r.display.StartSpinner("Aggregating findings...")
	aggregator := &Aggregator{Runner: runner, Log: r.log}
	agg := aggregator.Aggregate(ctx, specPath, results, aggTimeout)
	r.display.StopSpinner()

	if timedOut > 0 {
		completed := CompletedNames(results)
		agg.TimeoutInfo = &TimeoutInfo{
			TimeoutMs:            opts.TimeoutMs,
			CompletedPrompts:     len(completed),
			TotalPrompts:         len(results),
			CompletedPromptNames: completed,
		}
	}
	agg.DurationMs = time.Since(start).Milliseconds()

	logPath, err := WriteRunLog(layout.Reviews, RunLog{
		Timestamp:        start,
		SpecPath:         specPath,
		PromptResults:    results,
		AggregatedResult: agg,
		Prompts:          promptTexts(tasks),
	})
	if err != nil {
		r.log.Warn("failed to persist run log", "error", err)
	} else {
		agg.LogPath = logPath
	}

	return agg, nil
}

// buildTasks selects the applicable prompt set and builds every prompt text.
// For tech-specs, the story-alignment prompt is included only when the parent
// PRD actually has stories; otherwise it is skipped entirely, not counted as
// failed.
func (r *Runner) buildTasks(layout workspace.Layout, specPath, content string, specType spec.Type, golden string) ([]promptTask, error) {
	defs := PromptsFor(specType)

	var stories []spec.Story
	if specType == spec.TypeTechSpec {
		var err error
		stories, err = spec.LoadParentStories(specPath, content)
		if err != nil {
			r.log.Warn("could not load parent PRD stories", "error", err)
		}
	}

	var tasks []promptTask
	for _, def := range defs {
		if def.Name == StoryAlignmentPrompt && len(stories) == 0 {
			r.display.ShowInfo("   Skipping %s: parent PRD has no user stories\n", StoryAlignmentPrompt)
			continue
		}

		vars := map[string]string{
			"specPath":    specPath,
			"specContent": content,
		}
		if def.Name == StoryAlignmentPrompt {
			vars["userStories"] = renderStories(stories)
		}

		prompt := Build(def.Template, vars)
		prompt = WithGoldenStandard(prompt, golden)
		prompt = WithFileOutput(prompt, verdictPath(layout, def.Name))

		tasks = append(tasks, promptTask{def: def, fullPrompt: prompt})
	}
	return tasks, nil
}

// fanOut launches every prompt task concurrently and waits for the entire
// batch to settle. Partial results are valuable, so this is join-all, never
// first-wins; a task that exceeds its timeout settles with a synthetic
// timed-out result instead of hanging the join.
func (r *Runner) fanOut(ctx context.Context, runner *PromptRunner, layout workspace.Layout, tasks []promptTask, timeout time.Duration) []PromptRunResult {
	results := make([]PromptRunResult, len(tasks))

	g, ctx := errgroup.WithContext(ctx)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			results[i] = r.runOne(ctx, runner, layout, task, timeout)
			return nil
		})
	}
	// Tasks never return errors; failures are typed results.
	_ = g.Wait()

	return results
}

// runOne races a single prompt's launch-and-collect against its timer. The
// timer winning adopts a synthetic timeout result; the engine subprocess gets
// best-effort cancellation via its context, but the logical result settles
// either way.
func (r *Runner) runOne(ctx context.Context, runner *PromptRunner, layout workspace.Layout, task promptTask, timeout time.Duration) PromptRunResult {
	start := time.Now()

	// Remove any stale verdict from a previous run so an old file can't be
	// mistaken for this run's answer.
	vPath := verdictPath(layout, task.def.Name)
	_ = os.Remove(vPath)

	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan PromptRunResult, 1)
	go func() {
		runner.Launch(taskCtx, task.def, task.fullPrompt, timeout)
		res := ParseVerdictFile(task.def, vPath)
		res.DurationMs = time.Since(start).Milliseconds()
		done <- res
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-done:
		return res
	case <-timer.C:
		cancel()
		return timedOutResult(task.def, time.Since(start))
	}
}

// timedOutResult synthesizes the sentinel-tagged result for a reviewer that
// did not settle in time.
func timedOutResult(def PromptDefinition, elapsed time.Duration) PromptRunResult {
	return PromptRunResult{
		PromptName: def.Name,
		Category:   def.Category,
		Verdict:    VerdictNeedsImprovement,
		Issues: []Issue{{
			ID:          newID(),
			Severity:    SeverityWarning,
			Description: TimedOutDescription,
		}},
		Suggestions: []Suggestion{},
		DurationMs:  elapsed.Milliseconds(),
	}
}

// verdictPath is the side-channel file a reviewer is instructed to write.
func verdictPath(layout workspace.Layout, promptName string) string {
	return filepath.Join(layout.Verdicts, promptName+".json")
}

func renderStories(stories []spec.Story) string {
	var sb strings.Builder
	for i, s := range stories {
		status := "pending"
		if s.Done {
			status = "done"
		}
		sb.WriteString(fmt.Sprintf("%d. [%s] %s\n", i+1, status, s.Description))
	}
	return sb.String()
}

func promptTexts(tasks []promptTask) []PromptText {
	texts := make([]PromptText, 0, len(tasks))
	for _, t := range tasks {
		texts = append(texts, PromptText{Name: t.def.Name, FullPrompt: t.fullPrompt})
	}
	return texts
}
