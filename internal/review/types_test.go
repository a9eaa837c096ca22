package review

import "testing"

func TestEscalateVerdict(t *testing.T) {
	tests := []struct {
		a, b, want Verdict
	}{
		{VerdictPass, VerdictPass, VerdictPass},
		{VerdictPass, VerdictNeedsImprovement, VerdictNeedsImprovement},
		{VerdictNeedsImprovement, VerdictPass, VerdictNeedsImprovement},
		{VerdictNeedsImprovement, VerdictFail, VerdictFail},
		{VerdictFail, VerdictNeedsImprovement, VerdictFail},
		{VerdictFail, VerdictSplitRecommended, VerdictSplitRecommended},
		{VerdictSplitRecommended, VerdictFail, VerdictSplitRecommended},
		// The zero value loses to any real verdict.
		{"", VerdictPass, VerdictPass},
		{VerdictPass, "", VerdictPass},
	}

	for _, tt := range tests {
		if got := EscalateVerdict(tt.a, tt.b); got != tt.want {
			t.Errorf("EscalateVerdict(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEscalateSeverity(t *testing.T) {
	tests := []struct {
		a, b, want Severity
	}{
		{SeverityInfo, SeverityWarning, SeverityWarning},
		{SeverityWarning, SeverityInfo, SeverityWarning},
		{SeverityWarning, SeverityCritical, SeverityCritical},
		{SeverityCritical, SeverityInfo, SeverityCritical},
		{SeverityInfo, SeverityInfo, SeverityInfo},
	}

	for _, tt := range tests {
		if got := EscalateSeverity(tt.a, tt.b); got != tt.want {
			t.Errorf("EscalateSeverity(%q, %q) = %q, want %q", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestTimedOut(t *testing.T) {
	plain := PromptRunResult{
		Verdict: VerdictNeedsImprovement,
		Issues:  []Issue{{Severity: SeverityWarning, Description: "some finding"}},
	}
	if plain.TimedOut() {
		t.Error("ordinary result flagged as timed out")
	}

	timed := timedOutResult(PromptDefinition{Name: "x", Category: "y"}, 0)
	if !timed.TimedOut() {
		t.Error("synthesized timeout result not recognized")
	}
}
