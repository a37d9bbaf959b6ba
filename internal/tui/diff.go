package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	dmp "github.com/sergi/go-diff/diffmatchpatch"
)

// renderLineDiff renders a unified line diff between the two texts.
func renderLineDiff(before, after string) string {
	if before == after {
		return faintStyle.Render("No changes")
	}
	d := dmp.New()
	a, b, lineArray := d.DiffLinesToChars(before, after)
	diffs := d.DiffCharsToLines(d.DiffMain(a, b, false), lineArray)

	var sb strings.Builder
	for _, diff := range diffs {
		for _, line := range splitDiffLines(diff.Text) {
			switch diff.Type {
			case dmp.DiffDelete:
				sb.WriteString(diffDelStyle.Render("- " + line))
			case dmp.DiffInsert:
				sb.WriteString(diffAddStyle.Render("+ " + line))
			default:
				sb.WriteString(faintStyle.Render("  " + line))
			}
			sb.WriteRune('\n')
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func splitDiffLines(text string) []string {
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

var (
	diffDelStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "160", Dark: "203"})
	diffAddStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "28", Dark: "114"})
	faintStyle   = lipgloss.NewStyle().Faint(true)
)
