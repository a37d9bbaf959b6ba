package tui

import (
	"fmt"
	"strings"

	"github.com/muesli/reflow/wordwrap"

	"github.com/storylens/storylens/internal/inspector"
	"github.com/storylens/storylens/internal/prepublish"
)

type pageLayout struct {
	windowWidth  int
	windowHeight int
	listWidth    int
	panelWidth   int
	bodyHeight   int
}

func newPageLayout() pageLayout {
	layout := pageLayout{}
	layout.Update(80, 24)
	return layout
}

func (l *pageLayout) Update(width, height int) {
	l.windowWidth = width
	l.windowHeight = height

	list := width / 3
	if list < minListWidth {
		list = minListWidth
	}
	if list > maxListWidth {
		list = maxListWidth
	}
	l.listWidth = list

	panel := width - list - columnGutter
	if panel < minPanelWidth {
		panel = minPanelWidth
	}
	l.panelWidth = panel

	body := height - chromeRows
	if body < minBodyHeight {
		body = minBodyHeight
	}
	l.bodyHeight = body
}

type contentBuilder struct {
	builder strings.Builder
	lines   int
}

func (cb *contentBuilder) WriteString(s string) {
	cb.builder.WriteString(s)
	cb.lines += strings.Count(s, "\n")
}

func (cb *contentBuilder) WriteRune(r rune) {
	cb.builder.WriteRune(r)
	if r == '\n' {
		cb.lines++
	}
}

func (cb *contentBuilder) String() string {
	return cb.builder.String()
}

func (cb *contentBuilder) Line() int {
	return cb.lines
}

func (m *model) wrapWidth(padding int) int {
	width := m.layout.panelWidth
	if width <= 0 {
		width = 80
	}
	if padding < 0 {
		padding = 0
	}
	available := width - padding
	if available < 20 {
		available = 20
	}
	return available
}

func (m *model) buildBrowseContent() string {
	cb := &contentBuilder{}
	cb.WriteString(sectionHeaderStyle.Render("Stories"))
	cb.WriteRune('\n')
	if len(m.stories) == 0 {
		cb.WriteString(helperStyle.Render("No stories on this site yet."))
		cb.WriteRune('\n')
		return clipToHeight(cb.String(), m.layout.bodyHeight)
	}
	for idx, st := range m.stories {
		cursor := "  "
		if idx == m.storyCursor {
			cursor = "▸ "
		}
		row := cursor + truncate(st.Title, 40)
		meta := st.Status
		if pages := len(st.Pages); pages > 0 {
			meta = fmt.Sprintf("%s · %d pages", meta, pages)
		}
		line := fmt.Sprintf("%s  %s", row, helperStyle.Render(meta))
		if idx == m.storyCursor {
			line = currentLineStyle.Render(row) + "  " + helperStyle.Render(meta)
		}
		cb.WriteString(line)
		cb.WriteRune('\n')
	}
	return clipToHeight(cb.String(), m.layout.bodyHeight)
}

// buildRailContent renders the left column of the inspect stage: the page
// strip and the active page's element list.
func (m *model) buildRailContent() string {
	cb := &contentBuilder{}
	st := m.session.Story()
	if st == nil {
		return ""
	}

	cb.WriteString(sectionHeaderStyle.Render("Pages"))
	cb.WriteRune('\n')
	for idx := range st.Pages {
		marker := "  "
		if idx == m.session.PageIndex() {
			marker = "▸ "
		}
		line := fmt.Sprintf("%s%2d  %s", marker, idx+1, helperStyle.Render(fmt.Sprintf("%d elements", len(st.Pages[idx].Elements))))
		if idx == m.session.PageIndex() {
			line = currentLineStyle.Render(fmt.Sprintf("%s%2d", marker, idx+1)) + "  " + helperStyle.Render(fmt.Sprintf("%d elements", len(st.Pages[idx].Elements)))
		}
		cb.WriteString(line)
		cb.WriteRune('\n')
	}

	page := m.session.CurrentPage()
	cb.WriteRune('\n')
	cb.WriteString(sectionHeaderStyle.Render("Elements"))
	cb.WriteRune('\n')
	if page == nil || len(page.Elements) == 0 {
		cb.WriteString(helperStyle.Render("This page is empty."))
		cb.WriteRune('\n')
		return clipToHeight(cb.String(), m.layout.bodyHeight)
	}
	selected := map[string]bool{}
	for _, id := range m.session.SelectedIDs() {
		selected[id] = true
	}
	for idx := range page.Elements {
		el := &page.Elements[idx]
		cursor := "  "
		if idx == m.elementCursor {
			cursor = "▸ "
		}
		check := " "
		if selected[el.ID] {
			check = "●"
		}
		label := el.Type
		if el.Text != "" {
			label = fmt.Sprintf("%s %q", el.Type, truncate(el.Text, 18))
		}
		row := fmt.Sprintf("%s%s %s", cursor, check, label)
		if idx == m.elementCursor {
			row = currentLineStyle.Render(row)
		}
		cb.WriteString(row)
		cb.WriteRune('\n')
	}
	return clipToHeight(cb.String(), m.layout.bodyHeight)
}

func (m *model) buildPanelContent() string {
	cb := &contentBuilder{}
	switch m.insp.Tab() {
	case inspector.TabDocument:
		m.writeDocumentPanel(cb)
	case inspector.TabPrepublish:
		m.writePrepublishPanel(cb)
	default:
		m.writeDesignPanel(cb)
	}
	return clipToHeight(cb.String(), m.layout.bodyHeight)
}

func (m *model) writeDesignPanel(cb *contentBuilder) {
	el := m.session.SelectedElement()
	if el == nil {
		cb.WriteString(helperStyle.Render("Select an element with j/k to see its design properties."))
		cb.WriteRune('\n')
		return
	}

	cb.WriteString(labelStyle.Render("Element "))
	cb.WriteString(fmt.Sprintf("%s (%s)", el.Type, truncate(el.ID, 8)))
	cb.WriteRune('\n')
	cb.WriteString(labelStyle.Render("Frame   "))
	cb.WriteString(fmt.Sprintf("%.0f×%.0f at (%.0f, %.0f)", el.Width, el.Height, el.X, el.Y))
	cb.WriteRune('\n')
	if el.Text != "" {
		cb.WriteString(labelStyle.Render("Text    "))
		cb.WriteString(wordwrap.String(el.Text, m.wrapWidth(10)))
		cb.WriteRune('\n')
	}

	if el.Background == nil {
		cb.WriteString(labelStyle.Render("Fill    "))
		cb.WriteString(helperStyle.Render("none"))
		cb.WriteRune('\n')
		return
	}

	preview, _ := el.Background.PreviewText()
	cb.WriteString(labelStyle.Render("Fill    "))
	cb.WriteString(preview)
	cb.WriteRune('\n')
	cb.WriteString(labelStyle.Render("Opacity "))
	cb.WriteString(m.opacity.View())
	cb.WriteRune('\n')
	if m.opacity.Focused() {
		cb.WriteString(helperStyle.Render("Enter applies, Esc cancels."))
		cb.WriteRune('\n')
	} else if m.opacity.Visible() {
		cb.WriteString(helperStyle.Render("Press Enter to edit the opacity."))
		cb.WriteRune('\n')
	} else {
		cb.WriteString(helperStyle.Render("Gradient fills hide the single-value editor."))
		cb.WriteRune('\n')
	}
}

func (m *model) writeDocumentPanel(cb *contentBuilder) {
	st := m.session.Story()

	cb.WriteString(sectionHeaderStyle.Render("Status"))
	cb.WriteRune('\n')
	switch {
	case m.insp.StatusesLoading():
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading statuses…", m.spinner.View())))
		cb.WriteRune('\n')
	case len(m.insp.Statuses()) == 0:
		cb.WriteString(helperStyle.Render("No statuses loaded. Press 2 to retry."))
		cb.WriteRune('\n')
	default:
		current := ""
		if st != nil {
			current = st.Status
		}
		writeOptionList(cb, m.insp.Statuses(), current)
	}

	cb.WriteRune('\n')
	cb.WriteString(sectionHeaderStyle.Render("Author"))
	cb.WriteRune('\n')
	switch {
	case m.insp.UsersLoading():
		cb.WriteString(helperStyle.Render(fmt.Sprintf("%s Loading users…", m.spinner.View())))
		cb.WriteRune('\n')
	case len(m.insp.Users()) == 0:
		cb.WriteString(helperStyle.Render("No users loaded. Press 2 to retry."))
		cb.WriteRune('\n')
	default:
		current := ""
		if st != nil {
			current = fmt.Sprintf("%d", st.Author)
		}
		writeOptionList(cb, m.insp.Users(), current)
	}
}

func writeOptionList(cb *contentBuilder, opts []inspector.Option, current string) {
	for _, opt := range opts {
		if opt.Value == current {
			cb.WriteString(currentLineStyle.Render("▸ " + opt.Name))
		} else {
			cb.WriteString("  " + opt.Name)
		}
		cb.WriteRune('\n')
	}
}

func (m *model) writePrepublishPanel(cb *contentBuilder) {
	cb.WriteString(sectionHeaderStyle.Render("Checklist"))
	cb.WriteRune('\n')
	if len(m.checks) == 0 {
		cb.WriteString(readyStyle.Render("Ready to publish. No findings."))
		cb.WriteRune('\n')
		return
	}
	wrap := m.wrapWidth(4)
	for _, check := range m.checks {
		lines := strings.Split(wordwrap.String(check.Message, wrap), "\n")
		cb.WriteString(severityBadge(check.Severity) + " " + lines[0])
		cb.WriteRune('\n')
		for _, line := range lines[1:] {
			cb.WriteString("  " + line)
			cb.WriteRune('\n')
		}
	}
	cb.WriteRune('\n')
	errs, warns, hints := prepublish.Summary(m.checks)
	cb.WriteString(helperStyle.Render(fmt.Sprintf("%d errors, %d warnings, %d hints", errs, warns, hints)))
	cb.WriteRune('\n')
}

func severityBadge(severity prepublish.Severity) string {
	switch severity {
	case prepublish.SeverityError:
		return errorStyle.Render("✖")
	case prepublish.SeverityWarning:
		return warnStyle.Render("▲")
	default:
		return helperStyle.Render("ℹ")
	}
}

func clipToHeight(content string, height int) string {
	if height <= 0 {
		return content
	}
	lines := strings.Split(strings.TrimRight(content, "\n"), "\n")
	if len(lines) <= height {
		return strings.Join(lines, "\n")
	}
	shown := lines[:height-1]
	hidden := len(lines) - len(shown)
	return strings.Join(shown, "\n") + "\n" + helperStyle.Render(fmt.Sprintf("… %d more lines", hidden))
}

func indentMultiline(text, prefix string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}

func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	return strings.TrimSpace(string(runes[:limit])) + "…"
}
