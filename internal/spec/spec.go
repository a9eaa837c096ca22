// Package spec resolves the identity of a specification document: its type
// (prd, tech-spec, bug) and, for tech-specs, the user stories of the parent
// PRD it implements.
package spec

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Type identifies which review prompt set applies to a document.
type Type string

const (
	TypePRD      Type = "prd"
	TypeTechSpec Type = "tech-spec"
	TypeBug      Type = "bug"
)

// ParseType converts a user-supplied string into a Type.
func ParseType(s string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prd":
		return TypePRD, nil
	case "tech-spec", "techspec", "tech":
		return TypeTechSpec, nil
	case "bug":
		return TypeBug, nil
	default:
		return "", fmt.Errorf("unknown spec type: %q (supported: prd, tech-spec, bug)", s)
	}
}

// DetectType infers the spec type from the filename and content. Filename
// prefixes win; content headings break ties; prd is the default.
func DetectType(path, content string) Type {
	name := strings.ToLower(filepath.Base(path))
	switch {
	case strings.HasPrefix(name, "bug-"), strings.HasPrefix(name, "bugfix-"):
		return TypeBug
	case strings.HasPrefix(name, "tech-"), strings.HasPrefix(name, "techspec-"), strings.HasPrefix(name, "spec-"):
		return TypeTechSpec
	case strings.HasPrefix(name, "prd-"):
		return TypePRD
	}

	lower := strings.ToLower(content)
	switch {
	case strings.Contains(lower, "steps to reproduce") || strings.Contains(lower, "## reproduction"):
		return TypeBug
	case strings.Contains(lower, "## architecture") ||
		strings.Contains(lower, "## technical design") ||
		strings.Contains(lower, "## implementation plan"):
		return TypeTechSpec
	default:
		return TypePRD
	}
}

// Story is one user story extracted from a PRD.
type Story struct {
	Description string // Full story text including continuation lines
	Done        bool   // Checked ([x]) vs pending ([ ])
	LineNumber  int    // 1-based line where the story starts
}

// ParseStories extracts checkbox stories from PRD markdown. Both pending and
// completed stories are returned; multi-line descriptions are supported via
// indented continuation lines.
func ParseStories(content string) []Story {
	var stories []Story
	var current *Story

	flush := func() {
		if current != nil {
			stories = append(stories, *current)
			current = nil
		}
	}

	for i, line := range strings.Split(content, "\n") {
		switch {
		case strings.HasPrefix(line, "- [ ] "):
			flush()
			current = &Story{Description: strings.TrimPrefix(line, "- [ ] "), LineNumber: i + 1}
		case strings.HasPrefix(line, "- [x] "), strings.HasPrefix(line, "- [X] "):
			flush()
			current = &Story{Description: line[6:], Done: true, LineNumber: i + 1}
		case current != nil && len(line) > 0 && (line[0] == ' ' || line[0] == '\t'):
			current.Description += "\n" + strings.TrimLeft(line, " \t")
		default:
			flush()
		}
	}
	flush()

	return stories
}

// LoadParentStories locates the parent PRD for a tech-spec and returns its
// user stories. The parent is resolved from a "PRD: <path>" reference line in
// the tech-spec, falling back to the first prd-*.md sibling. A missing parent
// yields an empty slice, not an error: the story-alignment review is simply
// skipped.
func LoadParentStories(specPath, specContent string) ([]Story, error) {
	dir := filepath.Dir(specPath)

	prdPath := referencedPRD(specContent)
	if prdPath != "" && !filepath.IsAbs(prdPath) {
		prdPath = filepath.Join(dir, prdPath)
	}
	if prdPath == "" {
		prdPath = siblingPRD(dir)
	}
	if prdPath == "" {
		return nil, nil
	}

	content, err := os.ReadFile(prdPath)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read parent prd %s: %w", prdPath, err)
	}

	return ParseStories(string(content)), nil
}

// referencedPRD scans for an explicit "PRD: <path>" line near the top of a
// tech-spec.
func referencedPRD(content string) string {
	for _, line := range strings.SplitN(content, "\n", 40) {
		trimmed := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), ">"))
		lower := strings.ToLower(trimmed)
		if strings.HasPrefix(lower, "prd:") {
			return strings.TrimSpace(trimmed[len("prd:"):])
		}
	}
	return ""
}

func siblingPRD(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, "prd-") && strings.HasSuffix(name, ".md") {
			return filepath.Join(dir, name)
		}
	}
	return ""
}
