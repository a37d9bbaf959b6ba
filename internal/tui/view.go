package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/storylens/storylens/internal/inspector"
	"github.com/storylens/storylens/internal/prepublish"
)

func (m *model) View() string {
	switch m.stage {
	case stageConnect:
		return m.viewConnect()
	case stageLoading:
		return m.viewLoading()
	case stageBrowse:
		return m.viewBrowse()
	case stageInspect:
		return m.viewInspect()
	case stageAnalytics:
		return m.viewAnalytics()
	default:
		return ""
	}
}

func (m *model) viewConnect() string {
	form := strings.Builder{}
	form.WriteString(sectionHeaderStyle.Render("Connect to a WordPress site"))
	form.WriteRune('\n')
	form.WriteString(m.siteInput.View())
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render("Press Enter to load the site's Web Stories."))
	form.WriteRune('\n')
	form.WriteString(helperStyle.Render(m.infoMessage))
	if m.errorMessage != "" {
		form.WriteRune('\n')
		form.WriteString(errorStyle.Render(m.errorMessage))
	}
	return joinNonEmpty([]string{m.heroView(), form.String()})
}

func (m *model) viewLoading() string {
	body := fmt.Sprintf("%s %s", m.spinner.View(), m.infoMessage)
	return joinNonEmpty([]string{m.heroView(), body, m.footerView()})
}

func (m *model) viewBrowse() string {
	parts := []string{m.heroView(), m.buildBrowseContent()}
	parts = append(parts, m.messageLines()...)
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.footerView())
	return joinNonEmpty(parts)
}

func (m *model) viewInspect() string {
	rail := lipgloss.NewStyle().Width(m.layout.listWidth).Render(m.buildRailContent())
	panel := lipgloss.NewStyle().Width(m.layout.panelWidth).Render(
		joinNonEmpty([]string{m.tabBarView(), m.buildPanelContent()}),
	)
	columns := lipgloss.JoinHorizontal(lipgloss.Top, rail, strings.Repeat(" ", columnGutter), panel)

	parts := []string{m.heroView(), columns}
	parts = append(parts, m.messageLines()...)
	if m.helpVisible {
		parts = append(parts, m.keyLegendView())
	}
	parts = append(parts, m.footerView())
	return joinNonEmpty(parts)
}

func (m *model) viewAnalytics() string {
	body := strings.Builder{}
	body.WriteString(sectionHeaderStyle.Render("AMP Analytics"))
	body.WriteRune('\n')
	switch {
	case m.analyticsDiff:
		before, after := m.siteKitGtagSides()
		body.WriteString(helperStyle.Render("Site Kit gtag config, before and after the story triggers merge:"))
		body.WriteRune('\n')
		body.WriteString(renderLineDiff(before, after))
		body.WriteRune('\n')
	case m.analyticsSuppressed != "":
		body.WriteString(warnStyle.Render("No tag would be printed: " + m.analyticsSuppressed + "."))
		body.WriteRune('\n')
		body.WriteString(helperStyle.Render("Press g to see what the story triggers add to a Site Kit gtag config."))
		body.WriteRune('\n')
	default:
		body.WriteString(indentMultiline(m.analyticsTag, "  "))
		body.WriteRune('\n')
	}
	body.WriteString(helperStyle.Render("c copy · g toggle diff · Esc back"))

	parts := []string{m.heroView(), clipToHeight(body.String(), m.layout.bodyHeight+4)}
	parts = append(parts, m.messageLines()...)
	parts = append(parts, m.footerView())
	return joinNonEmpty(parts)
}

func (m *model) messageLines() []string {
	var parts []string
	if m.errorMessage != "" {
		parts = append(parts, errorStyle.Render(m.errorMessage))
	}
	if m.infoMessage != "" {
		message := m.infoMessage
		if m.loadingActive() {
			message = fmt.Sprintf("%s %s", m.spinner.View(), message)
		}
		parts = append(parts, helperStyle.Render(message))
	}
	return parts
}

func (m *model) tabBarView() string {
	active := 0
	for i, tab := range inspector.Tabs() {
		if tab == m.insp.Tab() {
			active = i
		}
	}
	return m.tabbar.WithActive(active).View()
}

func (m *model) heroView() string {
	wordmark := logoStyle.Render(" storylens ")
	if m.site == "" {
		return lipgloss.JoinVertical(lipgloss.Left, wordmark, taglineStyle.Render(heroTagline))
	}
	meta := []string{helperStyle.Render(m.site)}
	if st := m.session.Story(); st != nil {
		meta = append(meta, heroTitleStyle.Render(truncate(st.Title, 48)))
		meta = append(meta, helperStyle.Render(m.storyMetaLine(st.Status, len(st.Pages))))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, wordmark, heroMetaStyle.Render(strings.Join(meta, "\n")))
}

func (m *model) storyMetaLine(status string, pages int) string {
	if pages == 0 {
		return status + " · no pages"
	}
	return fmt.Sprintf("%s · page %d/%d", status, m.session.PageIndex()+1, pages)
}

func (m *model) footerView() string {
	footer := []string{m.sessionMeterView()}
	if len(m.sessionLog) > 0 {
		start := len(m.sessionLog) - 3
		if start < 0 {
			start = 0
		}
		logLines := make([]string, 0, 4)
		logLines = append(logLines, sectionHeaderStyle.Render("Session Log"))
		for _, entry := range m.sessionLog[start:] {
			logLines = append(logLines, helperStyle.Render(entry))
		}
		footer = append(footer, strings.Join(logLines, "\n"))
	}
	return joinNonEmpty(footer)
}

func (m *model) sessionMeterView() string {
	stats := []string{fmt.Sprintf("Stories %d", len(m.stories))}
	if st := m.session.Story(); st != nil {
		stats = append(stats, fmt.Sprintf("Page %d/%d", m.session.PageIndex()+1, len(st.Pages)))
		stats = append(stats, fmt.Sprintf("Selected %d", len(m.session.SelectedIDs())))
		errs, warns, hints := prepublish.Summary(m.checks)
		stats = append(stats, fmt.Sprintf("Checks %d✖ %d▲ %dℹ", errs, warns, hints))
	}
	if id := m.config.Emitter.TrackingID(); id != "" {
		stats = append(stats, "GA "+id)
	} else {
		stats = append(stats, "GA off")
	}
	if badges := m.jobStatusBadges(); len(badges) > 0 {
		stats = append(stats, badges...)
	}
	return statusBarStyle.Render(strings.Join(stats, "  •  "))
}

type keyHint struct {
	Key         string
	Description string
}

func (m *model) keyLegendView() string {
	hints := []keyHint{
		{"j/k", "Select element"},
		{"h/l", "Change page"},
		{"tab or 1-3", "Switch panel"},
		{"enter", "Edit opacity"},
		{"x", "Clear selection"},
		{"a", "Analytics tag"},
		{"c", "Copy (analytics)"},
		{"g", "Site Kit diff"},
		{"r", "Back"},
		{"?", "Toggle help"},
	}
	rows := []string{sectionHeaderStyle.Render("Keys")}
	const columns = 3
	for i := 0; i < len(hints); i += columns {
		end := i + columns
		if end > len(hints) {
			end = len(hints)
		}
		var cells []string
		for _, hint := range hints[i:end] {
			key := keyStyle.Render(hint.Key)
			desc := keyDescStyle.Render(" " + hint.Description)
			cells = append(cells, lipgloss.JoinHorizontal(lipgloss.Top, key, desc))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}
	return legendBoxStyle.Render(strings.Join(rows, "\n"))
}

func joinNonEmpty(parts []string) string {
	filtered := make([]string, 0, len(parts))
	for _, part := range parts {
		if strings.TrimSpace(part) == "" {
			continue
		}
		filtered = append(filtered, part)
	}
	return strings.Join(filtered, "\n\n")
}

var (
	sectionHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("81"))
	errorStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	warnStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	readyStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("114"))
	helperStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	labelStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("147"))

	heroAccentColor = lipgloss.Color("#ff8c00")
	heroInkColor    = lipgloss.Color("#2b1400")
	heroTextColor   = lipgloss.Color("#fff4d0")

	logoStyle        = lipgloss.NewStyle().Bold(true).Foreground(heroTextColor).Background(heroInkColor).Padding(0, 1)
	heroTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(heroAccentColor)
	heroMetaStyle    = lipgloss.NewStyle().PaddingLeft(2)
	taglineStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffb347")).Italic(true)
	statusBarStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6")).Padding(0, 1)
	keyStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#ffd166")).Padding(0, 1)
	keyDescStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#e0def4"))
	legendBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#56526e")).Padding(1, 2)
	currentLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#0f0f0f")).Background(lipgloss.Color("#8ecae6"))
)
