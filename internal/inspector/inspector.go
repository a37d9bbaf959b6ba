// Package inspector implements the story inspector's panel state: the
// design/document/prepublish tab machine, lazily loaded reference lists,
// and the measured content height relayed in by the layout pass.
package inspector

import (
	"context"
	"fmt"
	"strconv"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/felixgeelhaar/statekit"

	"github.com/storylens/storylens/internal/wp"
)

// Tab identifies one inspector panel.
type Tab string

const (
	TabDesign     Tab = "design"
	TabDocument   Tab = "document"
	TabPrepublish Tab = "prepublish"
)

// Tabs returns the fixed tab order.
func Tabs() []Tab {
	return []Tab{TabDesign, TabDocument, TabPrepublish}
}

// Title returns the tab's display label.
func (t Tab) Title() string {
	switch t {
	case TabDocument:
		return "Document"
	case TabPrepublish:
		return "Prepublish"
	}
	return "Design"
}

// Tab machine events. Selection changes are filtered at the source: only
// the empty-to-filled edge is sent, so the machine itself stays free of
// payload inspection.
const (
	eventSelectDesign     = "SELECT_DESIGN"
	eventSelectDocument   = "SELECT_DOCUMENT"
	eventSelectPrepublish = "SELECT_PREPUBLISH"
	eventSelectionFilled  = "SELECTION_CHANGED"
	eventPageChanged      = "PAGE_CHANGED"
)

const referenceFetchTimeout = 30 * time.Second

// Option is one {value, name} pair for a selection control.
type Option struct {
	Value string
	Name  string
}

// ReferenceFetcher supplies the raw reference records the inspector maps
// into options.
type ReferenceFetcher interface {
	ListStatuses(ctx context.Context) ([]wp.Status, error)
	ListUsers(ctx context.Context) ([]wp.User, error)
}

// StatusesLoadedMsg delivers a settled status fetch.
type StatusesLoadedMsg struct {
	Options []Option
	Err     error
	gen     int
}

// UsersLoadedMsg delivers a settled user fetch.
type UsersLoadedMsg struct {
	Options []Option
	Err     error
	gen     int
}

type tabContext struct{}

// Model is the inspector state provider. It is owned by a single program
// loop; load results are delivered back to it as messages.
type Model struct {
	fetcher ReferenceFetcher
	tabs    *statekit.Interpreter[tabContext]

	statuses        []Option
	users           []Option
	statusesLoading bool
	usersLoading    bool
	contentHeight   int

	// gen invalidates in-flight load results after Close.
	gen int
}

func buildTabMachine() (*statekit.Interpreter[tabContext], error) {
	machine, err := statekit.NewMachine[tabContext]("inspector-tabs").
		WithInitial(statekit.StateID(TabDesign)).
		WithContext(tabContext{}).
		State(statekit.StateID(TabDesign)).
		On(eventSelectDocument).Target(statekit.StateID(TabDocument)).
		On(eventSelectPrepublish).Target(statekit.StateID(TabPrepublish)).Done().
		State(statekit.StateID(TabDocument)).
		On(eventSelectDesign).Target(statekit.StateID(TabDesign)).
		On(eventSelectPrepublish).Target(statekit.StateID(TabPrepublish)).
		On(eventSelectionFilled).Target(statekit.StateID(TabDesign)).
		On(eventPageChanged).Target(statekit.StateID(TabDesign)).Done().
		State(statekit.StateID(TabPrepublish)).
		On(eventSelectDesign).Target(statekit.StateID(TabDesign)).
		On(eventSelectDocument).Target(statekit.StateID(TabDocument)).Done().
		Build()
	if err != nil {
		return nil, err
	}
	return statekit.NewInterpreter(machine), nil
}

// New returns a provider with the design tab active.
func New(fetcher ReferenceFetcher) (*Model, error) {
	interp, err := buildTabMachine()
	if err != nil {
		return nil, fmt.Errorf("build tab machine: %w", err)
	}
	interp.Start()
	return &Model{fetcher: fetcher, tabs: interp}, nil
}

// Close stops the tab machine and invalidates in-flight loads.
func (m *Model) Close() {
	m.gen++
	if m.tabs != nil {
		m.tabs.Stop()
		m.tabs = nil
	}
}

func (m *Model) send(event string) {
	if m.tabs != nil {
		m.tabs.Send(statekit.Event{Type: statekit.EventType(event)})
	}
}

// Tab returns the active tab.
func (m *Model) Tab() Tab {
	if m.tabs == nil {
		return TabDesign
	}
	return Tab(m.tabs.State().Value)
}

// SetTab activates the given tab.
func (m *Model) SetTab(tab Tab) {
	switch tab {
	case TabDesign:
		m.send(eventSelectDesign)
	case TabDocument:
		m.send(eventSelectDocument)
	case TabPrepublish:
		m.send(eventSelectPrepublish)
	}
}

// NextTab cycles to the following tab in display order.
func (m *Model) NextTab() {
	order := Tabs()
	current := m.Tab()
	for i, tab := range order {
		if tab == current {
			m.SetTab(order[(i+1)%len(order)])
			return
		}
	}
}

// SelectionChanged reports a change of the selected element set. Only the
// empty-to-filled edge reaches the machine, where it bumps a stale
// document tab back to design.
func (m *Model) SelectionChanged(prevEmpty, nowEmpty bool) {
	if prevEmpty && !nowEmpty {
		m.send(eventSelectionFilled)
	}
}

// PageChanged reports that another page became active, bumping a stale
// document tab back to design.
func (m *Model) PageChanged() {
	m.send(eventPageChanged)
}

// Statuses returns the loaded status options.
func (m *Model) Statuses() []Option {
	return m.statuses
}

// Users returns the loaded user options.
func (m *Model) Users() []Option {
	return m.users
}

// StatusesLoading reports an in-flight status fetch.
func (m *Model) StatusesLoading() bool {
	return m.statusesLoading
}

// UsersLoading reports an in-flight user fetch.
func (m *Model) UsersLoading() bool {
	return m.usersLoading
}

// SetContentHeight records the measured panel body height.
func (m *Model) SetContentHeight(h int) {
	if h < 0 {
		h = 0
	}
	m.contentHeight = h
}

// ContentHeight returns the last measured panel body height, 0 when
// unmeasured.
func (m *Model) ContentHeight() int {
	return m.contentHeight
}

// LoadStatuses starts the status fetch unless one is running or the list
// is already populated. The no-op case returns a nil command.
func (m *Model) LoadStatuses() tea.Cmd {
	if m.statusesLoading || len(m.statuses) > 0 {
		return nil
	}
	m.statusesLoading = true
	gen := m.gen
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), referenceFetchTimeout)
		defer cancel()
		records, err := fetcher.ListStatuses(ctx)
		if err != nil {
			return StatusesLoadedMsg{Err: err, gen: gen}
		}
		return StatusesLoadedMsg{Options: statusOptions(records), gen: gen}
	}
}

// LoadUsers starts the user fetch unless one is running or the list is
// already populated. The no-op case returns a nil command.
func (m *Model) LoadUsers() tea.Cmd {
	if m.usersLoading || len(m.users) > 0 {
		return nil
	}
	m.usersLoading = true
	gen := m.gen
	fetcher := m.fetcher
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), referenceFetchTimeout)
		defer cancel()
		records, err := fetcher.ListUsers(ctx)
		if err != nil {
			return UsersLoadedMsg{Err: err, gen: gen}
		}
		return UsersLoadedMsg{Options: userOptions(records), gen: gen}
	}
}

// Update consumes load-result messages; anything else is ignored. The
// loading flag clears whenever a fetch settles, success or failure, so a
// failed list can be loaded again explicitly.
func (m *Model) Update(msg tea.Msg) {
	switch msg := msg.(type) {
	case StatusesLoadedMsg:
		if msg.gen != m.gen {
			return
		}
		m.statusesLoading = false
		if msg.Err != nil {
			return
		}
		m.statuses = msg.Options
	case UsersLoadedMsg:
		if msg.gen != m.gen {
			return
		}
		m.usersLoading = false
		if msg.Err != nil {
			return
		}
		m.users = msg.Options
	}
}

func statusOptions(records []wp.Status) []Option {
	out := make([]Option, 0, len(records))
	for _, status := range records {
		if !status.ShowInList {
			continue
		}
		out = append(out, Option{Value: status.Slug, Name: status.Name})
	}
	return out
}

func userOptions(records []wp.User) []Option {
	out := make([]Option, 0, len(records))
	for _, user := range records {
		out = append(out, Option{Value: strconv.Itoa(user.ID), Name: user.Name})
	}
	return out
}
