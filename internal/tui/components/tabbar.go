package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// TabBar renders a single-line bar of panel tabs with one active entry.
type TabBar struct {
	tabs   []string
	active int
}

// NewTabBar returns a bar over the given tab labels with the first active.
func NewTabBar(tabs ...string) TabBar {
	return TabBar{tabs: tabs}
}

// Active returns the active tab index.
func (t TabBar) Active() int {
	return t.active
}

// Len returns the number of tabs.
func (t TabBar) Len() int {
	return len(t.tabs)
}

// WithActive sets the active tab index, clamped into range.
func (t TabBar) WithActive(i int) TabBar {
	if i < 0 {
		i = 0
	}
	if i >= len(t.tabs) && len(t.tabs) > 0 {
		i = len(t.tabs) - 1
	}
	t.active = i
	return t
}

// View renders the bar.
func (t TabBar) View() string {
	if len(t.tabs) == 0 {
		return ""
	}
	cells := make([]string, 0, len(t.tabs))
	for i, label := range t.tabs {
		if i == t.active {
			cells = append(cells, tabActiveStyle.Render(label))
			continue
		}
		cells = append(cells, tabInactiveStyle.Render(label))
	}
	return strings.Join(cells, tabSeparatorStyle.Render("│"))
}

var (
	tabActiveStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("110")).Padding(0, 1)
	tabInactiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Padding(0, 1)
	tabSeparatorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
)
