// Package prepublish runs the publication readiness checklist over a story
// document, the rule set behind the inspector's prepublish tab.
package prepublish

import (
	"fmt"
	"strings"

	"github.com/storylens/storylens/internal/story"
)

// Severity ranks how strongly a check result should block publication.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Check is one checklist finding.
type Check struct {
	ID       string
	Severity Severity
	Message  string
}

const (
	maxTitleLength   = 70
	maxExcerptLength = 200
	minPageCount     = 4
	maxPageCount     = 30
)

// Run evaluates every readiness rule against the story and returns the
// findings in rule order. A publishable story yields an empty slice.
func Run(st *story.Story) []Check {
	if st == nil {
		return nil
	}

	var checks []Check
	add := func(id string, severity Severity, message string) {
		checks = append(checks, Check{ID: id, Severity: severity, Message: message})
	}

	title := strings.TrimSpace(st.Title)
	switch {
	case title == "":
		add("missing-title", SeverityError, "Add a story title; untitled stories are hidden from search and embeds.")
	case len([]rune(title)) > maxTitleLength:
		add("title-too-long", SeverityWarning, fmt.Sprintf("Shorten the title to %d characters or fewer so it is not truncated.", maxTitleLength))
	}

	if strings.TrimSpace(st.PosterURL) == "" {
		add("missing-poster", SeverityError, "Add a poster image; stories without one cannot be surfaced in story players.")
	}

	excerpt := strings.TrimSpace(st.Excerpt)
	switch {
	case excerpt == "":
		add("missing-excerpt", SeverityWarning, "Add a short excerpt to improve link previews and accessibility.")
	case len([]rune(excerpt)) > maxExcerptLength:
		add("excerpt-too-long", SeverityWarning, fmt.Sprintf("Shorten the excerpt to %d characters or fewer.", maxExcerptLength))
	}

	switch {
	case len(st.Pages) < minPageCount:
		add("story-too-short", SeverityWarning, fmt.Sprintf("Add more pages; stories read best with at least %d.", minPageCount))
	case len(st.Pages) > maxPageCount:
		add("story-too-long", SeverityWarning, fmt.Sprintf("Trim the story; readers rarely finish more than %d pages.", maxPageCount))
	}

	for i := range st.Pages {
		page := &st.Pages[i]
		if len(page.Elements) == 0 {
			add("empty-page", SeverityWarning, fmt.Sprintf("Page %d has no elements.", i+1))
			continue
		}
		for j := range page.Elements {
			el := &page.Elements[j]
			if el.Type == "text" && strings.TrimSpace(el.Text) == "" {
				add("empty-text", SeverityInfo, fmt.Sprintf("Page %d has a text element with no text.", i+1))
			}
			if transparent(el.Background) {
				add("transparent-background", SeverityInfo, fmt.Sprintf("Page %d has an element with a fully transparent background.", i+1))
			}
		}
	}

	return checks
}

// transparent reports a pattern whose every color carries zero alpha.
func transparent(p *story.Pattern) bool {
	if p == nil {
		return false
	}
	if p.Type == story.PatternSolid || p.Type == "" {
		return p.Color.A == 0
	}
	if len(p.Stops) == 0 {
		return false
	}
	for _, stop := range p.Stops {
		if stop.Color.A != 0 {
			return false
		}
	}
	return true
}

// Summary tallies the findings by severity.
func Summary(checks []Check) (errs, warns, hints int) {
	for _, check := range checks {
		switch check.Severity {
		case SeverityError:
			errs++
		case SeverityWarning:
			warns++
		default:
			hints++
		}
	}
	return errs, warns, hints
}
