package review

import (
	"fmt"
	"sort"
	"strings"
)

// Build performs literal placeholder substitution on a prompt template.
// Placeholders use {name} syntax. Substitution is a single simultaneous pass:
// replaced text is never rescanned, and unmatched placeholders are left
// verbatim. Build never fails.
func Build(template string, vars map[string]string) string {
	if len(vars) == 0 {
		return template
	}

	// Deterministic pair order keeps output stable for identical inputs.
	keys := make([]string, 0, len(vars))
	for k := range vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(vars)*2)
	for _, k := range keys {
		pairs = append(pairs, "{"+k+"}", vars[k])
	}
	return strings.NewReplacer(pairs...).Replace(template)
}

// WithGoldenStandard prepends a golden-standard reference block. An empty
// golden standard returns the prompt unchanged.
func WithGoldenStandard(prompt, golden string) string {
	if strings.TrimSpace(golden) == "" {
		return prompt
	}
	var sb strings.Builder
	sb.WriteString("## Golden Standard Reference\n\n")
	sb.WriteString("The following is an example of a well-formed spec. Use it as the quality bar when reviewing:\n\n")
	sb.WriteString("```markdown\n")
	sb.WriteString(golden)
	sb.WriteString("\n```\n\n---\n\n")
	sb.WriteString(prompt)
	return sb.String()
}

// verdictConfirmation is the closing phrase the engine must print after
// writing its verdict file; its presence in direct output is a cheap signal
// that the file-output instruction was followed.
const verdictConfirmation = "VERDICT_WRITTEN"

// WithFileOutput appends the machine-readable output instruction that turns a
// free-text completion into a parseable artifact: the exact verdict path, the
// expected JSON schema, and the closing confirmation phrase.
func WithFileOutput(prompt, verdictPath string) string {
	var sb strings.Builder
	sb.WriteString(prompt)
	sb.WriteString("\n\n---\n\n## Output Instructions\n\n")
	sb.WriteString(fmt.Sprintf("Write your complete review as a single JSON object to this exact file path:\n\n    %s\n\n", verdictPath))
	sb.WriteString("The file must contain only the JSON object (no markdown fences) with this schema:\n\n")
	sb.WriteString("```json\n")
	sb.WriteString(`{
  "verdict": "PASS | FAIL | NEEDS_IMPROVEMENT | SPLIT_RECOMMENDED",
  "issues": [
    {
      "severity": "critical | warning | info",
      "description": "...",
      "specSection": "...",
      "suggestedFix": "..."
    }
  ],
  "suggestions": [
    {
      "category": "...",
      "severity": "critical | warning | info",
      "type": "change | comment",
      "section": "...",
      "lineStart": 0,
      "lineEnd": 0,
      "textSnippet": "...",
      "issue": "...",
      "suggestedFix": "..."
    }
  ]
}`)
	sb.WriteString("\n```\n\n")
	sb.WriteString(fmt.Sprintf("After the file is written, reply with exactly: %s\n", verdictConfirmation))
	return sb.String()
}
