package review

import (
	"github.com/google/uuid"
)

// Verdict is the categorical outcome of one review dimension or of the whole
// session.
type Verdict string

const (
	VerdictPass             Verdict = "PASS"
	VerdictFail             Verdict = "FAIL"
	VerdictNeedsImprovement Verdict = "NEEDS_IMPROVEMENT"
	VerdictSplitRecommended Verdict = "SPLIT_RECOMMENDED"
)

// actionRank orders verdicts by severity of required action. SPLIT_RECOMMENDED
// ranks highest but is only ever set by the god-spec dimension.
func actionRank(v Verdict) int {
	switch v {
	case VerdictPass:
		return 0
	case VerdictNeedsImprovement:
		return 1
	case VerdictFail:
		return 2
	case VerdictSplitRecommended:
		return 3
	default:
		// Unknown (including the zero value) ranks below every real
		// verdict so escalation always replaces it.
		return -1
	}
}

// EscalateVerdict returns the more severe of two verdicts.
func EscalateVerdict(a, b Verdict) Verdict {
	if actionRank(b) > actionRank(a) {
		return b
	}
	return a
}

// Severity classifies an issue or suggestion.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

func severityRank(s Severity) int {
	switch s {
	case SeverityCritical:
		return 2
	case SeverityWarning:
		return 1
	default:
		return 0
	}
}

// EscalateSeverity returns the higher of two severities.
func EscalateSeverity(a, b Severity) Severity {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}

// SuggestionType distinguishes actionable edits from commentary.
type SuggestionType string

const (
	SuggestionChange  SuggestionType = "change"
	SuggestionComment SuggestionType = "comment"
)

// StatusPending is the initial status of every suggestion; downstream
// consumers move suggestions through their own accept/reject lifecycle.
const StatusPending = "pending"

// Issue is one normalized finding from a review dimension.
type Issue struct {
	ID            string   `json:"id"`
	Severity      Severity `json:"severity"`
	Description   string   `json:"description"`
	SpecSection   string   `json:"specSection,omitempty"`
	AffectedTasks []string `json:"affectedTasks,omitempty"`
	SuggestedFix  string   `json:"suggestedFix,omitempty"`
}

// Suggestion is one normalized, individually addressable review suggestion.
// IDs are always generated locally; model-provided ids from independently run
// prompts can collide and are never trusted.
type Suggestion struct {
	ID           string         `json:"id"`
	Category     string         `json:"category"`
	Severity     Severity       `json:"severity"`
	Type         SuggestionType `json:"type"`
	Section      string         `json:"section,omitempty"`
	LineStart    int            `json:"lineStart,omitempty"`
	LineEnd      int            `json:"lineEnd,omitempty"`
	TextSnippet  string         `json:"textSnippet,omitempty"`
	Issue        string         `json:"issue"`
	SuggestedFix string         `json:"suggestedFix,omitempty"`
	Status       string         `json:"status"`
}

// PromptDefinition is one immutable review dimension: a named prompt template
// applied to a spec type.
type PromptDefinition struct {
	Name     string
	Category string
	Template string
}

// PromptRunResult is the settled outcome of running one review prompt. It is
// never mutated after construction; every result carries a populated verdict
// even when the engine failed or produced garbage.
type PromptRunResult struct {
	PromptName    string         `json:"promptName"`
	Category      string         `json:"category"`
	Verdict       Verdict        `json:"verdict"`
	Issues        []Issue        `json:"issues"`
	Suggestions   []Suggestion   `json:"suggestions"`
	SplitProposal *SplitProposal `json:"splitProposal,omitempty"`
	RawResponse   string         `json:"rawResponse"`
	DurationMs    int64          `json:"durationMs"`
}

// TimedOutDescription is the sentinel issue description attached by the
// orchestrator's timer when a reviewer does not settle in time.
const TimedOutDescription = "Review timed out"

// TimedOut reports whether this result was synthesized by the per-prompt
// timeout rather than produced by the reviewer.
func (r PromptRunResult) TimedOut() bool {
	for _, issue := range r.Issues {
		if issue.Description == TimedOutDescription {
			return true
		}
	}
	return false
}

// ProposedSpec is one spec suggested by a split proposal.
type ProposedSpec struct {
	Filename         string   `json:"filename"`
	Description      string   `json:"description"`
	EstimatedStories int      `json:"estimatedStories,omitempty"`
	Sections         []string `json:"sections,omitempty"`
}

// SplitProposal is produced when the god-spec dimension recommends splitting
// an oversized spec.
type SplitProposal struct {
	Reason        string         `json:"reason"`
	ProposedSpecs []ProposedSpec `json:"proposedSpecs"`
}

// CategoryResult is the per-category re-projection of prompt results used for
// grouped CLI display.
type CategoryResult struct {
	Verdict Verdict `json:"verdict"`
	Issues  []Issue `json:"issues"`
}

// DeduplicationStats counts suggestions before and after agent-based merging.
type DeduplicationStats struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

// TimeoutInfo summarizes partial completion when at least one prompt timed
// out. Its presence is a distinct, non-fatal exit path for the CLI.
type TimeoutInfo struct {
	TimeoutMs            int      `json:"timeoutMs"`
	CompletedPrompts     int      `json:"completedPrompts"`
	TotalPrompts         int      `json:"totalPrompts"`
	CompletedPromptNames []string `json:"completedPromptNames"`
}

// AggregatedResult is the externally consumed artifact of one review run.
type AggregatedResult struct {
	Verdict            Verdict                   `json:"verdict"`
	Categories         map[string]CategoryResult `json:"categories"`
	Suggestions        []Suggestion              `json:"suggestions"`
	SplitProposal      *SplitProposal            `json:"splitProposal,omitempty"`
	ExecutiveSummary   string                    `json:"executiveSummary,omitempty"`
	DeduplicationStats *DeduplicationStats       `json:"deduplicationStats,omitempty"`
	TimeoutInfo        *TimeoutInfo              `json:"timeoutInfo,omitempty"`
	LogPath            string                    `json:"logPath,omitempty"`
	DurationMs         int64                     `json:"durationMs"`
}

// newID generates a fresh globally unique id.
func newID() string {
	return uuid.NewString()
}
