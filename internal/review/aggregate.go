package review

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/ralphlabs/ralph/internal/engine"
	"github.com/ralphlabs/ralph/internal/retry"
)

// aggregationPromptName namespaces the consolidated prompt's artifacts.
const aggregationPromptName = "aggregation"

// Aggregator turns N per-dimension results into one coherent result. The
// agent-based path is always attempted first; any failure there (timeout,
// engine error, unparseable output) falls back to deterministic local
// aggregation. Nothing escapes the Aggregate boundary as an error.
type Aggregator struct {
	Runner *PromptRunner
	Log    *slog.Logger
}

// agentResponse is the JSON shape the aggregation agent is instructed to emit.
type agentResponse struct {
	Verdict            *string             `json:"verdict"`
	ExecutiveSummary   string              `json:"executiveSummary"`
	Suggestions        []json.RawMessage   `json:"suggestions"`
	DeduplicationStats *DeduplicationStats `json:"deduplicationStats"`
	SplitProposal      *SplitProposal      `json:"splitProposal"`
}

// Aggregate merges the settled prompt results under the given timeout.
func (a *Aggregator) Aggregate(ctx context.Context, specPath string, results []PromptRunResult, timeout time.Duration) *AggregatedResult {
	if agg := a.aggregateWithAgent(ctx, specPath, results, timeout); agg != nil {
		return agg
	}
	a.Log.Info("falling back to deterministic aggregation")
	return AggregateLocal(results)
}

// aggregateWithAgent re-invokes the engine over the combined findings and
// parses its consolidated response. Returns nil on any failure.
func (a *Aggregator) aggregateWithAgent(ctx context.Context, specPath string, results []PromptRunResult, timeout time.Duration) *AggregatedResult {
	completed := withoutTimedOut(results)
	if len(completed) == 0 {
		return nil
	}

	prompt, err := buildAggregationPrompt(specPath, completed)
	if err != nil {
		a.Log.Warn("could not build aggregation prompt", "error", err)
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	def := PromptDefinition{Name: aggregationPromptName, Category: "aggregation"}
	promptPath, err := a.Runner.writePromptFile(def.Name, prompt)
	if err != nil {
		a.Log.Warn("could not write aggregation prompt", "error", err)
		return nil
	}

	output, err := retry.Do(ctx, retry.Config{MaxRetries: 1, Logger: a.Log}, func() (string, error) {
		resp, invokeErr := a.Runner.Engine.Invoke(ctx, engine.Request{
			PromptPath: promptPath,
			WorkDir:    a.Runner.WorkDir,
			LogDir:     a.Runner.LogDir,
			Timeout:    timeout,
		})
		return resp.Output, invokeErr
	})
	if err != nil {
		a.Log.Warn("aggregation agent failed", "error", err)
		return nil
	}

	parsed := parseAgentResponse(output)
	if parsed == nil {
		a.Log.Warn("aggregation agent produced no parseable JSON")
		return nil
	}

	agg := &AggregatedResult{
		Verdict:            overallVerdict(results, parsed),
		Categories:         projectCategories(results),
		Suggestions:        normalizeSuggestions("aggregation", parsed.Suggestions),
		SplitProposal:      splitProposalFrom(results, parsed),
		ExecutiveSummary:   parsed.ExecutiveSummary,
		DeduplicationStats: parsed.DeduplicationStats,
	}
	return agg
}

// parseAgentResponse scans the agent output for fenced JSON blocks from the
// last backward, accepting the first one that parses with a verdict or
// summary field.
func parseAgentResponse(output string) *agentResponse {
	matches := fencedJSONRegex.FindAllStringSubmatch(output, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		var resp agentResponse
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[i][1])), &resp); err != nil {
			continue
		}
		if resp.Verdict == nil && resp.ExecutiveSummary == "" {
			continue
		}
		return &resp
	}
	// A bare JSON object with no fencing is also accepted.
	var resp agentResponse
	if err := json.Unmarshal([]byte(strings.TrimSpace(output)), &resp); err == nil &&
		(resp.Verdict != nil || resp.ExecutiveSummary != "") {
		return &resp
	}
	return nil
}

// overallVerdict combines the agent's verdict with the escalation rule over
// the raw inputs, so a lenient agent can never mask a critical finding.
func overallVerdict(results []PromptRunResult, parsed *agentResponse) Verdict {
	verdict := VerdictPass
	if parsed.Verdict != nil {
		verdict = normalizeVerdict(*parsed.Verdict)
	}
	if anyCriticalIssue(results) {
		verdict = EscalateVerdict(verdict, VerdictNeedsImprovement)
	}
	for _, r := range results {
		if r.Verdict == VerdictSplitRecommended && r.PromptName == GodSpecPrompt {
			verdict = VerdictSplitRecommended
		}
	}
	return verdict
}

// splitProposalFrom prefers the agent's proposal, falling back to the
// god-spec prompt's own.
func splitProposalFrom(results []PromptRunResult, parsed *agentResponse) *SplitProposal {
	if parsed.SplitProposal != nil {
		return parsed.SplitProposal
	}
	for _, r := range results {
		if r.PromptName == GodSpecPrompt && r.SplitProposal != nil {
			return r.SplitProposal
		}
	}
	return nil
}

// buildAggregationPrompt embeds every completed prompt's findings into one
// consolidated deduplication prompt.
func buildAggregationPrompt(specPath string, results []PromptRunResult) (string, error) {
	type promptFindings struct {
		PromptName  string       `json:"promptName"`
		Verdict     Verdict      `json:"verdict"`
		Issues      []Issue      `json:"issues"`
		Suggestions []Suggestion `json:"suggestions"`
	}

	findings := make([]promptFindings, 0, len(results))
	total := 0
	for _, r := range results {
		findings = append(findings, promptFindings{
			PromptName:  r.PromptName,
			Verdict:     r.Verdict,
			Issues:      r.Issues,
			Suggestions: r.Suggestions,
		})
		total += len(r.Suggestions)
	}

	encoded, err := json.MarshalIndent(findings, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode findings: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("You are consolidating the findings of multiple independent spec reviewers.\n\n")
	sb.WriteString(fmt.Sprintf("The spec under review is at: %s (you may read it to re-validate findings)\n\n", specPath))
	sb.WriteString("Reviewer findings:\n\n```json\n")
	sb.Write(encoded)
	sb.WriteString("\n```\n\n")
	sb.WriteString(`Tasks:
1. Identify duplicate suggestions: same line ranges and/or semantically equivalent issue descriptions.
2. Merge duplicates, keeping the most actionable suggestedFix and the highest severity among the merged set (critical > warning > info).
3. Re-validate each surviving suggestion against the actual spec content; drop suggestions the spec already addresses.
4. Write a short executive summary of the review.

Respond with a single fenced JSON block:

`)
	sb.WriteString("```json\n")
	sb.WriteString(fmt.Sprintf(`{
  "verdict": "PASS | FAIL | NEEDS_IMPROVEMENT | SPLIT_RECOMMENDED",
  "executiveSummary": "...",
  "suggestions": [ ...merged suggestion objects... ],
  "deduplicationStats": {"before": %d, "after": 0}
}`, total))
	sb.WriteString("\n```\n")
	return sb.String(), nil
}

// AggregateLocal is the deterministic fallback: category bucketing plus
// severity-based verdict derivation. It intentionally produces only PASS or
// FAIL; the richer intermediate verdicts require agent judgment. No
// deduplication happens here, so DeduplicationStats stays absent.
func AggregateLocal(results []PromptRunResult) *AggregatedResult {
	agg := &AggregatedResult{
		Verdict:    VerdictPass,
		Categories: projectCategories(results),
	}

	if anyCriticalIssue(results) {
		agg.Verdict = VerdictFail
	}

	for _, r := range results {
		for _, s := range r.Suggestions {
			s.ID = newID()
			agg.Suggestions = append(agg.Suggestions, s)
		}
	}

	return agg
}

// projectCategories re-projects per-prompt results into the category map used
// for grouped CLI display. Category falls back to the prompt name when absent.
// Results sharing a category merge issues under the escalated verdict.
func projectCategories(results []PromptRunResult) map[string]CategoryResult {
	categories := make(map[string]CategoryResult, len(results))
	for _, r := range results {
		key := r.Category
		if key == "" {
			key = r.PromptName
		}
		existing := categories[key]
		existing.Verdict = EscalateVerdict(existing.Verdict, r.Verdict)
		existing.Issues = append(existing.Issues, r.Issues...)
		categories[key] = existing
	}
	return categories
}

func anyCriticalIssue(results []PromptRunResult) bool {
	for _, r := range results {
		for _, issue := range r.Issues {
			if issue.Severity == SeverityCritical {
				return true
			}
		}
	}
	return false
}

// withoutTimedOut filters out results synthesized by the per-prompt timer.
func withoutTimedOut(results []PromptRunResult) []PromptRunResult {
	out := make([]PromptRunResult, 0, len(results))
	for _, r := range results {
		if !r.TimedOut() {
			out = append(out, r)
		}
	}
	return out
}

// CompletedNames returns the sorted names of non-timed-out results.
func CompletedNames(results []PromptRunResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range withoutTimedOut(results) {
		names = append(names, r.PromptName)
	}
	sort.Strings(names)
	return names
}
