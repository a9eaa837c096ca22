package review

import (
	"github.com/ralphlabs/ralph/internal/spec"
)

// Template placeholders shared by every review prompt:
//
//	{specPath}     absolute path of the spec under review
//	{specContent}  full markdown content of the spec
//	{userStories}  parent PRD stories (story alignment prompt only)
//
// Templates are immutable configuration loaded once at process start; the
// registry is never mutated at runtime.

const promptPreamble = `You are reviewing a specification document.

Spec path: {specPath}

Spec content:
` + "```markdown\n{specContent}\n```\n"

const requirementsCompletenessTemplate = promptPreamble + `
Review this spec for requirements completeness. Check that:
- Every feature states its acceptance criteria
- Inputs, outputs, and error cases are specified
- No requirement relies on unstated assumptions
- Dependencies on other systems are called out

Report each gap as an issue with the spec section it concerns.`

const storyQualityTemplate = promptPreamble + `
Review the user stories in this spec. Check that:
- Each story is independently deliverable and testable
- Stories state user value, not implementation steps
- Acceptance criteria are verifiable
- No story hides multiple unrelated features

Report weak or compound stories as issues with concrete rewrites as suggestions.`

const edgeCasesTemplate = promptPreamble + `
Review this spec for unhandled edge cases. Consider:
- Empty, missing, and malformed inputs
- Concurrent or repeated operations
- Partial failures and timeouts
- Boundary values on any stated limits

Report each unhandled case as an issue; suggest the spec text that would cover it.`

const godSpecTemplate = promptPreamble + `
Judge whether this spec is too large or unfocused to implement as one unit
(a "god spec"). Signals: more than ~10 user stories, multiple unrelated
feature areas, or sections that could ship independently.

If a split is warranted, use verdict SPLIT_RECOMMENDED and include a
"splitProposal" object:

` + "```json" + `
{
  "reason": "...",
  "proposedSpecs": [
    {"filename": "prd-....md", "description": "...", "estimatedStories": 0, "sections": ["..."]}
  ]
}
` + "```" + `

Otherwise judge scope normally (PASS / NEEDS_IMPROVEMENT / FAIL).`

const architectureTemplate = promptPreamble + `
Review the technical design in this spec. Check that:
- Component boundaries and data flow are explicit
- Failure modes of each dependency are addressed
- Data model changes are backward compatible or migrated
- The design does not contradict stated constraints

Report design gaps as issues with the affected section.`

const securityTemplate = promptPreamble + `
Review this spec for security concerns. Check for:
- Unvalidated external input reaching sensitive operations
- Credentials, tokens, or secrets in logs or artifacts
- Missing authentication or authorization on new surfaces
- Injection risks in any templated or concatenated content

Report each concern as an issue; severity critical for exploitable paths.`

const testabilityTemplate = promptPreamble + `
Review this spec for testability. Check that:
- Each behavior has an observable, assertable outcome
- Timing- or concurrency-dependent behavior can be tested deterministically
- External collaborators can be substituted in tests
- Stated invariants are phrased as checkable properties

Report untestable requirements as issues with suggested rephrasings.`

const storyAlignmentTemplate = promptPreamble + `
The parent PRD defines these user stories:

{userStories}

Check that this tech-spec covers every story above and introduces no work
unrelated to them. Report uncovered stories and out-of-scope additions as
issues naming the story and spec section involved.`

const bugReproductionTemplate = promptPreamble + `
Review this bug spec for reproduction quality. Check that:
- Steps to reproduce are complete and deterministic
- Expected vs actual behavior are both stated
- Environment and version information is captured
- The blast radius (affected users/features) is described

Report missing reproduction details as issues.`

const bugRootCauseTemplate = promptPreamble + `
Review the root-cause analysis in this bug spec. Check that:
- The stated cause explains every observed symptom
- The fix addresses the cause, not just the symptom
- Regression risk of the fix is assessed
- A test preventing recurrence is specified

Report gaps in the analysis as issues with suggested additions.`

// StoryAlignmentPrompt names the tech-spec dimension that is conditionally
// skipped when the parent PRD has no stories.
const StoryAlignmentPrompt = "story_alignment"

// GodSpecPrompt names the dimension allowed to produce SPLIT_RECOMMENDED.
const GodSpecPrompt = "god_spec"

var prdPrompts = []PromptDefinition{
	{Name: "requirements_completeness", Category: "completeness", Template: requirementsCompletenessTemplate},
	{Name: "story_quality", Category: "quality", Template: storyQualityTemplate},
	{Name: "edge_cases", Category: "robustness", Template: edgeCasesTemplate},
	{Name: GodSpecPrompt, Category: "scope", Template: godSpecTemplate},
}

var techSpecPrompts = []PromptDefinition{
	{Name: "architecture_soundness", Category: "architecture", Template: architectureTemplate},
	{Name: "security", Category: "security", Template: securityTemplate},
	{Name: "testability", Category: "testability", Template: testabilityTemplate},
	{Name: StoryAlignmentPrompt, Category: "alignment", Template: storyAlignmentTemplate},
}

var bugPrompts = []PromptDefinition{
	{Name: "reproduction_clarity", Category: "reproduction", Template: bugReproductionTemplate},
	{Name: "root_cause_analysis", Category: "analysis", Template: bugRootCauseTemplate},
	{Name: "edge_cases", Category: "robustness", Template: edgeCasesTemplate},
}

// PromptsFor returns the ordered prompt definitions for a spec type. The
// returned slice is a copy; callers may filter it freely.
func PromptsFor(t spec.Type) []PromptDefinition {
	var defs []PromptDefinition
	switch t {
	case spec.TypeTechSpec:
		defs = techSpecPrompts
	case spec.TypeBug:
		defs = bugPrompts
	default:
		defs = prdPrompts
	}
	out := make([]PromptDefinition, len(defs))
	copy(out, defs)
	return out
}
