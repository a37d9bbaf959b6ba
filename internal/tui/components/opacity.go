// Package components holds the small reusable widgets the inspector panels
// are assembled from: the opacity preview field and the panel tab bar.
package components

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// OpacityChangedMsg is sent on every keystroke that leaves the opacity
// buffer parseable. Fraction is the typed percentage divided by 100; the
// owner clamps and applies it.
type OpacityChangedMsg struct {
	Fraction float64
}

// Opacity is a live-editable percentage field bound to a fraction in [0,1].
// While focused the bare number is edited; while blurred the committed value
// renders with the locale's percent affixes. Unparseable input stays visible
// in the buffer but never propagates.
type Opacity struct {
	input     textinput.Model
	committed float64
	// pending is the fraction of the last locally emitted edit. A commit
	// matching it does not resync the buffer, so typing is not clobbered
	// by its own round trip.
	pending    float64
	hasPending bool
	visible    bool
	width      int
	prefix     string
	suffix     string
}

// NewOpacity returns a blurred, visible field showing 100% formatted for the
// given locale.
func NewOpacity(tag language.Tag) Opacity {
	ti := textinput.New()
	ti.CharLimit = 4
	ti.Prompt = ""
	ti.Width = 5

	prefix, suffix := percentAffixes(tag)
	o := Opacity{
		input:     ti,
		committed: 1,
		visible:   true,
		width:     8,
		prefix:    prefix,
		suffix:    suffix,
	}
	o.input.SetValue(formatPercent(1))
	return o
}

// percentAffixes derives the locale's percent prefix and suffix by
// formatting a sample value and splitting around its digits.
func percentAffixes(tag language.Tag) (string, string) {
	sample := message.NewPrinter(tag).Sprint(number.Percent(0.42))
	start := strings.IndexAny(sample, "0123456789")
	end := strings.LastIndexAny(sample, "0123456789")
	if start < 0 || end < 0 {
		return "", "%"
	}
	return sample[:start], sample[end+1:]
}

// formatPercent renders a fraction as the integer percentage string the
// buffer holds.
func formatPercent(fraction float64) string {
	return strconv.Itoa(int(math.Round(fraction * 100)))
}

// parseIntPrefix parses the leading integer of s the way parseInt does:
// optional sign, then a digit run, trailing junk ignored. It fails only when
// no digits lead.
func parseIntPrefix(s string) (int, bool) {
	s = strings.TrimSpace(s)
	i := 0
	neg := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		neg = s[i] == '-'
		i++
	}
	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[start:i])
	if err != nil {
		return 0, false
	}
	if neg {
		n = -n
	}
	return n, true
}

// Value returns the committed fraction.
func (o Opacity) Value() float64 {
	return o.committed
}

// Buffer returns the raw text buffer, without affixes.
func (o Opacity) Buffer() string {
	return o.input.Value()
}

// Focused reports whether the field is being edited.
func (o Opacity) Focused() bool {
	return o.input.Focused()
}

// Visible reports whether the field renders its content. A hidden field
// still occupies its width.
func (o Opacity) Visible() bool {
	return o.visible
}

// WithVisible sets the display-rule result for the currently bound value.
func (o Opacity) WithVisible(visible bool) Opacity {
	o.visible = visible
	return o
}

// WithWidth sets the rendered width.
func (o Opacity) WithWidth(width int) Opacity {
	if width < 4 {
		width = 4
	}
	o.width = width
	return o
}

// SetValue records an externally committed fraction and resynchronizes the
// buffer immediately, discarding any local edit.
func (o Opacity) SetValue(fraction float64) Opacity {
	o.committed = fraction
	o.hasPending = false
	o.input.SetValue(formatPercent(fraction))
	o.input.CursorEnd()
	return o
}

// Commit records the fraction the owner applied in response to an edit. The
// buffer resyncs only when the applied value differs from the edit that
// produced it, so clamped input snaps back while plain typing flows on.
func (o Opacity) Commit(fraction float64) Opacity {
	matchesEdit := o.hasPending && o.pending == fraction
	o.committed = fraction
	o.hasPending = false
	if !matchesEdit {
		o.input.SetValue(formatPercent(fraction))
		o.input.CursorEnd()
	}
	return o
}

// Focus enters edit mode: the percent suffix is suppressed and the bare
// number is edited in place.
func (o Opacity) Focus() Opacity {
	o.input.Focus()
	o.input.CursorEnd()
	return o
}

// Blur leaves edit mode, restores the affixes, and resets the buffer to the
// last committed value regardless of intervening unparsed edits.
func (o Opacity) Blur() Opacity {
	o.input.Blur()
	o.hasPending = false
	o.input.SetValue(formatPercent(o.committed))
	return o
}

// Update feeds a message to the field. Keystrokes that change the buffer to
// a parseable number emit OpacityChangedMsg with the fraction; unparseable
// buffers emit nothing and keep the text.
func (o Opacity) Update(msg tea.Msg) (Opacity, tea.Cmd) {
	if !o.input.Focused() {
		return o, nil
	}

	before := o.input.Value()
	var cmd tea.Cmd
	o.input, cmd = o.input.Update(msg)
	value := o.input.Value()
	if value == before {
		return o, cmd
	}

	n, ok := parseIntPrefix(value)
	if !ok {
		return o, cmd
	}
	fraction := float64(n) / 100
	o.pending = fraction
	o.hasPending = true
	return o, tea.Batch(cmd, func() tea.Msg {
		return OpacityChangedMsg{Fraction: fraction}
	})
}

// View renders the field. Hidden fields render as blank space of the same
// width so surrounding layout holds still.
func (o Opacity) View() string {
	if !o.visible {
		return strings.Repeat(" ", o.width)
	}
	if o.input.Focused() {
		return opacityFocusedStyle.Width(o.width).Render(o.prefix + o.input.View())
	}
	return opacityStyle.Width(o.width).Render(o.prefix + o.input.Value() + o.suffix)
}

var (
	opacityStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	opacityFocusedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Bold(true)
)
