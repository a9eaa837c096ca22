package review

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
)

// fencedJSONRegex matches ```json ... ``` (and bare ``` ... ```) blocks.
var fencedJSONRegex = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(.*?)```")

// rawPayload is the loosely-typed shape a reviewer may produce. Issues and
// suggestions arrive as strings or objects interchangeably; that
// heterogeneity never leaks past this file.
type rawPayload struct {
	Verdict       *string           `json:"verdict"`
	Issues        []json.RawMessage `json:"issues"`
	Suggestions   []json.RawMessage `json:"suggestions"`
	SplitProposal *SplitProposal    `json:"splitProposal"`
}

type rawIssue struct {
	Severity      string   `json:"severity"`
	Description   string   `json:"description"`
	SpecSection   string   `json:"specSection"`
	AffectedTasks []string `json:"affectedTasks"`
	SuggestedFix  string   `json:"suggestedFix"`
}

type rawSuggestion struct {
	Category     string `json:"category"`
	Severity     string `json:"severity"`
	Type         string `json:"type"`
	Section      string `json:"section"`
	LineStart    int    `json:"lineStart"`
	LineEnd      int    `json:"lineEnd"`
	TextSnippet  string `json:"textSnippet"`
	Issue        string `json:"issue"`
	SuggestedFix string `json:"suggestedFix"`
}

// ParseStreamText extracts a reviewer's verdict from raw engine output. All
// fenced JSON blocks are collected and scanned from the last one backward:
// models put their final answer last, and earlier "thinking" blocks often
// contain stray JSON. The first block that parses and carries a verdict field
// wins. If none qualifies, a parse-failure result is synthesized so the
// pipeline never drops a prompt silently.
func ParseStreamText(def PromptDefinition, raw string) PromptRunResult {
	matches := fencedJSONRegex.FindAllStringSubmatch(raw, -1)
	for i := len(matches) - 1; i >= 0; i-- {
		var payload rawPayload
		if err := json.Unmarshal([]byte(strings.TrimSpace(matches[i][1])), &payload); err != nil {
			continue
		}
		if payload.Verdict == nil {
			continue
		}
		return buildResult(def, payload, raw)
	}
	return parseFailure(def, raw, "No valid review JSON found (missing verdict field)")
}

// ParseVerdictFile reads a side-channel verdict file written by the engine.
// The content must be a single bare JSON object. Failure modes are
// distinguished so the caller can tell "agent never wrote the file" from
// "file exists but is garbage".
func ParseVerdictFile(def PromptDefinition, path string) PromptRunResult {
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return parseFailure(def, "", "Agent did not write verdict file")
	}
	if err != nil {
		return parseFailure(def, "", fmt.Sprintf("Failed to read verdict file: %s", err))
	}

	var payload rawPayload
	if jsonErr := json.Unmarshal(content, &payload); jsonErr != nil {
		return parseFailure(def, string(content), fmt.Sprintf("Verdict file contains invalid JSON: %s", jsonErr))
	}
	if payload.Verdict == nil {
		return parseFailure(def, string(content), "Verdict file missing 'verdict' field")
	}
	return buildResult(def, payload, string(content))
}

// parseFailure synthesizes the mandatory verdict for an unparseable reviewer.
// Severity is warning, not critical: one malformed reviewer must not sink the
// whole review.
func parseFailure(def PromptDefinition, raw, description string) PromptRunResult {
	return PromptRunResult{
		PromptName: def.Name,
		Category:   def.Category,
		Verdict:    VerdictNeedsImprovement,
		Issues: []Issue{{
			ID:          newID(),
			Severity:    SeverityWarning,
			Description: description,
		}},
		Suggestions: []Suggestion{},
		RawResponse: raw,
	}
}

func buildResult(def PromptDefinition, payload rawPayload, raw string) PromptRunResult {
	return PromptRunResult{
		PromptName:    def.Name,
		Category:      def.Category,
		Verdict:       normalizeVerdict(*payload.Verdict),
		Issues:        normalizeIssues(payload.Issues),
		Suggestions:   normalizeSuggestions(def.Category, payload.Suggestions),
		SplitProposal: payload.SplitProposal,
		RawResponse:   raw,
	}
}

func normalizeVerdict(s string) Verdict {
	switch Verdict(strings.ToUpper(strings.TrimSpace(s))) {
	case VerdictPass:
		return VerdictPass
	case VerdictFail:
		return VerdictFail
	case VerdictNeedsImprovement:
		return VerdictNeedsImprovement
	case VerdictSplitRecommended:
		return VerdictSplitRecommended
	default:
		return VerdictNeedsImprovement
	}
}

func normalizeSeverity(s string) Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(s))) {
	case SeverityCritical:
		return SeverityCritical
	case SeverityInfo:
		return SeverityInfo
	default:
		return SeverityWarning
	}
}

// normalizeIssues coerces string-or-object issue items into the canonical
// shape, assigning a fresh id to every item.
func normalizeIssues(items []json.RawMessage) []Issue {
	issues := make([]Issue, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			issues = append(issues, Issue{
				ID:          newID(),
				Severity:    SeverityWarning,
				Description: s,
			})
			continue
		}

		var obj rawIssue
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		issues = append(issues, Issue{
			ID:            newID(),
			Severity:      normalizeSeverity(obj.Severity),
			Description:   obj.Description,
			SpecSection:   obj.SpecSection,
			AffectedTasks: obj.AffectedTasks,
			SuggestedFix:  obj.SuggestedFix,
		})
	}
	return issues
}

// normalizeSuggestions coerces string-or-object suggestion items. Ids are
// always freshly generated: independently run prompts can produce colliding
// ids, so model-provided ids are discarded.
func normalizeSuggestions(category string, items []json.RawMessage) []Suggestion {
	suggestions := make([]Suggestion, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			suggestions = append(suggestions, Suggestion{
				ID:       newID(),
				Category: category,
				Severity: SeverityInfo,
				Type:     SuggestionComment,
				Issue:    s,
				Status:   StatusPending,
			})
			continue
		}

		var obj rawSuggestion
		if err := json.Unmarshal(item, &obj); err != nil {
			continue
		}
		if obj.Category == "" {
			obj.Category = category
		}
		suggestions = append(suggestions, Suggestion{
			ID:           newID(),
			Category:     obj.Category,
			Severity:     normalizeSeverity(obj.Severity),
			Type:         inferSuggestionType(obj),
			Section:      obj.Section,
			LineStart:    obj.LineStart,
			LineEnd:      obj.LineEnd,
			TextSnippet:  obj.TextSnippet,
			Issue:        obj.Issue,
			SuggestedFix: obj.SuggestedFix,
			Status:       StatusPending,
		})
	}
	return suggestions
}

// inferSuggestionType classifies a suggestion when the payload omits the type.
// A suggestion counts as an actionable change when it pins a snippet, carries
// a substantive fix, and that fix is not phrased as a question.
//
// TODO: drop this heuristic once the review prompts reliably emit an explicit
// type field; long-but-actionable fixes near the length threshold misclassify.
func inferSuggestionType(s rawSuggestion) SuggestionType {
	switch strings.ToLower(strings.TrimSpace(s.Type)) {
	case string(SuggestionChange):
		return SuggestionChange
	case string(SuggestionComment):
		return SuggestionComment
	}
	if s.TextSnippet != "" && len(s.SuggestedFix) > 20 && !strings.Contains(s.SuggestedFix, "?") {
		return SuggestionChange
	}
	return SuggestionComment
}
