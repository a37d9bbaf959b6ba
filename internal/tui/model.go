package tui

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/storylens/storylens/internal/analytics"
	"github.com/storylens/storylens/internal/hooks"
	"github.com/storylens/storylens/internal/inspector"
	"github.com/storylens/storylens/internal/options"
	"github.com/storylens/storylens/internal/prepublish"
	"github.com/storylens/storylens/internal/story"
	"github.com/storylens/storylens/internal/tui/components"
)

const logDurationRounding = 10 * time.Millisecond

// StoryService is the site backend the TUI browses: the Web Stories
// collection plus the reference lookups the inspector's document panel
// needs.
type StoryService interface {
	inspector.ReferenceFetcher
	ListStories(ctx context.Context) ([]story.Story, error)
	GetStory(ctx context.Context, id int) (*story.Story, error)
	Settings(ctx context.Context) (map[string]any, error)
}

// Config wires runtime options into the TUI program.
type Config struct {
	// Dial returns a service bound to the given site root. Required.
	Dial func(site string) StoryService
	// Site, when non-empty, connects immediately instead of prompting.
	Site    string
	Options *options.Store
	Emitter *analytics.Emitter
	Locale  language.Tag
}

// New returns a tea.Model ready to be mounted into a Program.
func New(config Config) tea.Model {
	if config.Options == nil {
		config.Options = options.NewStore()
	}
	if config.Emitter == nil {
		config.Emitter = analytics.NewEmitter(config.Options, hooks.NewRegistry())
	}

	siteInput := textinput.New()
	siteInput.Placeholder = sitePlaceholder
	siteInput.Focus()
	siteInput.CharLimit = 120
	siteInput.Width = 60

	spin := spinner.New()
	spin.Spinner = spinner.Dot

	titles := make([]string, 0, len(inspector.Tabs()))
	for _, tab := range inspector.Tabs() {
		titles = append(titles, tab.Title())
	}

	return &model{
		config:      config,
		stage:       stageConnect,
		siteInput:   siteInput,
		spinner:     spin,
		session:     story.NewSession(),
		opacity:     components.NewOpacity(config.Locale),
		tabbar:      components.NewTabBar(titles...),
		jobs:        newJobBus(),
		active:      map[string]jobSnapshot{},
		layout:      newPageLayout(),
		infoMessage: "Enter a WordPress site URL to begin.",
	}
}

type model struct {
	config Config
	stage  stage

	siteInput textinput.Model
	spinner   spinner.Model

	site    string
	service StoryService

	stories     []story.Story
	storyCursor int

	session       *story.Session
	insp          *inspector.Model
	opacity       components.Opacity
	tabbar        components.TabBar
	checks        []prepublish.Check
	elementCursor int

	pendingStoryID int

	jobs   *jobBus
	active map[string]jobSnapshot
	layout pageLayout

	analyticsTag        string
	analyticsSuppressed string
	analyticsDiff       bool

	sessionLog   []string
	infoMessage  string
	errorMessage string
	helpVisible  bool
}

func (m *model) Init() tea.Cmd {
	if m.config.Site != "" {
		return m.connect(m.config.Site)
	}
	return textinput.Blink
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.loadingActive() {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			return m.quit()
		case tea.KeyEsc:
			return m.handleEsc()
		}
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.layout.Update(msg.Width, msg.Height)
		if m.insp != nil {
			m.insp.SetContentHeight(m.layout.bodyHeight)
		}
		return m, nil
	case jobSignalMsg:
		m.active[msg.Snapshot.ID] = msg.Snapshot
		return m, m.spinner.Tick
	case jobResultEnvelope:
		m.finishJob(msg.Snapshot)
		if msg.Payload == nil {
			return m, nil
		}
		return m.Update(msg.Payload)
	case storiesResultMsg:
		if msg.err != nil {
			if len(m.stories) == 0 {
				m.stage = stageConnect
				m.siteInput.Focus()
				m.infoMessage = "Check the site URL and try again."
			} else {
				m.stage = stageBrowse
				m.infoMessage = "Reload failed. The previous list is still shown."
			}
			m.errorMessage = msg.err.Error()
			return m, nil
		}
		m.stories = msg.stories
		m.storyCursor = 0
		m.stage = stageBrowse
		m.errorMessage = ""
		if len(m.stories) == 0 {
			m.infoMessage = "The site has no stories yet."
		} else {
			m.infoMessage = fmt.Sprintf("Loaded %d stories. Press Enter to inspect one.", len(m.stories))
		}
		return m, nil
	case storyResultMsg:
		if msg.id != m.pendingStoryID {
			return m, nil
		}
		m.pendingStoryID = 0
		if msg.err != nil {
			m.stage = stageBrowse
			m.errorMessage = msg.err.Error()
			m.infoMessage = "Pick another story or press r to reload the list."
			return m, nil
		}
		m.openStory(msg.st)
		return m, nil
	case settingsResultMsg:
		if msg.err != nil {
			m.appendLog("Settings unavailable: " + msg.err.Error())
			return m, nil
		}
		m.config.Options.Seed(msg.settings)
		m.appendLog(fmt.Sprintf("Site settings loaded (%d keys).", len(msg.settings)))
		if id := m.config.Emitter.TrackingID(); id != "" {
			m.appendLog("Analytics tracking ID " + id + ".")
		}
		return m, nil
	case copyResultMsg:
		if msg.err != nil {
			m.errorMessage = "clipboard: " + msg.err.Error()
			return m, nil
		}
		m.errorMessage = ""
		m.infoMessage = "Copied to clipboard."
		return m, nil
	case components.OpacityChangedMsg:
		el := m.session.SelectedElement()
		if el == nil || el.Background == nil {
			return m, nil
		}
		el.Background.SetOpacity(msg.Fraction)
		m.opacity = m.opacity.Commit(el.Background.Opacity())
		m.checks = prepublish.Run(m.session.Story())
		return m, nil
	case inspector.StatusesLoadedMsg, inspector.UsersLoadedMsg:
		if m.insp != nil {
			m.insp.Update(msg)
		}
		return m, nil
	}
	return m, nil
}

func (m *model) handleEsc() (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageInspect:
		if m.opacity.Focused() {
			m.opacity = m.opacity.Blur()
			m.infoMessage = "Opacity edit canceled."
			return m, nil
		}
		m.leaveStory()
		return m, nil
	case stageAnalytics:
		m.stage = m.analyticsReturnStage()
		return m, nil
	default:
		return m.quit()
	}
}

func (m *model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.stage {
	case stageConnect:
		return m.handleConnectKey(key)
	case stageLoading:
		return m, nil
	case stageBrowse:
		return m.handleBrowseKey(key)
	case stageInspect:
		return m.handleInspectKey(key)
	case stageAnalytics:
		return m.handleAnalyticsKey(key)
	default:
		return m, nil
	}
}

func (m *model) handleConnectKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.siteInput, cmd = m.siteInput.Update(key)
	if key.Type == tea.KeyEnter {
		site := strings.TrimSpace(m.siteInput.Value())
		if site == "" {
			m.errorMessage = "Enter a site URL."
			return m, cmd
		}
		return m, tea.Batch(cmd, m.connect(site))
	}
	return m, cmd
}

func (m *model) handleBrowseKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		return m.quit()
	case "up", "k":
		m.moveStoryCursor(-1)
	case "down", "j":
		m.moveStoryCursor(1)
	case "enter":
		return m, m.openStoryCmd()
	case "a":
		m.enterAnalytics()
	case "r":
		m.stage = stageLoading
		m.infoMessage = "Reloading stories…"
		return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindStories, listStoriesJob(m.service)))
	case "?":
		m.toggleHelp()
	}
	return m, nil
}

func (m *model) handleInspectKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.opacity.Focused() {
		if key.Type == tea.KeyEnter {
			m.opacity = m.opacity.Blur()
			m.infoMessage = fmt.Sprintf("Opacity %d%%.", int(m.opacity.Value()*100+0.5))
			return m, nil
		}
		var cmd tea.Cmd
		m.opacity, cmd = m.opacity.Update(key)
		return m, cmd
	}

	switch key.String() {
	case "q":
		return m.quit()
	case "tab":
		m.insp.NextTab()
		return m, m.documentLoadCmd()
	case "1":
		m.insp.SetTab(inspector.TabDesign)
	case "2":
		m.insp.SetTab(inspector.TabDocument)
		return m, m.documentLoadCmd()
	case "3":
		m.insp.SetTab(inspector.TabPrepublish)
	case "h", "left":
		m.changePage(-1)
	case "l", "right":
		m.changePage(1)
	case "up", "k":
		m.selectElementAt(m.elementCursor - m.selectionStep())
	case "down", "j":
		m.selectElementAt(m.elementCursor + m.selectionStep())
	case "x":
		m.clearSelection()
		m.infoMessage = "Selection cleared."
	case "enter", "o":
		return m, m.focusOpacityCmd()
	case "a":
		m.enterAnalytics()
	case "r":
		m.leaveStory()
	case "?":
		m.toggleHelp()
	}
	return m, nil
}

func (m *model) handleAnalyticsKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key.String() {
	case "q":
		return m.quit()
	case "c":
		body := m.analyticsCopyBody()
		if body == "" {
			m.infoMessage = "Nothing to copy."
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindCopy, copyTextJob(body)))
	case "g":
		m.analyticsDiff = !m.analyticsDiff
		if m.analyticsDiff {
			m.infoMessage = "Showing the Site Kit gtag config before and after the story triggers merge."
		} else {
			m.infoMessage = "Showing the amp-analytics tag."
		}
	case "r":
		m.stage = m.analyticsReturnStage()
	case "?":
		m.toggleHelp()
	}
	return m, nil
}

func (m *model) connect(site string) tea.Cmd {
	if m.config.Dial == nil {
		m.errorMessage = "no site dialer configured"
		return nil
	}
	m.service = m.config.Dial(site)
	m.site = site

	insp, err := inspector.New(m.service)
	if err != nil {
		m.errorMessage = err.Error()
		m.stage = stageConnect
		return nil
	}
	if m.insp != nil {
		m.insp.Close()
	}
	m.insp = insp
	m.insp.SetContentHeight(m.layout.bodyHeight)

	m.stage = stageLoading
	m.errorMessage = ""
	m.infoMessage = "Loading stories…"
	m.appendLog("Connected to " + site + ".")
	return tea.Batch(
		m.spinner.Tick,
		m.jobs.Start(jobKindStories, listStoriesJob(m.service)),
		m.jobs.Start(jobKindSettings, fetchSettingsJob(m.service)),
	)
}

func (m *model) openStoryCmd() tea.Cmd {
	if len(m.stories) == 0 {
		m.infoMessage = "No stories to open."
		return nil
	}
	picked := m.stories[m.storyCursor]
	m.pendingStoryID = picked.ID
	m.infoMessage = fmt.Sprintf("Opening %q…", picked.Title)
	return tea.Batch(m.spinner.Tick, m.jobs.Start(jobKindStory, fetchStoryJob(m.service, picked.ID)))
}

func (m *model) openStory(st *story.Story) {
	m.session.SetStory(st)
	m.elementCursor = 0
	m.checks = prepublish.Run(st)
	m.insp.SetTab(inspector.TabDesign)
	m.syncOpacityFromSelection()
	m.stage = stageInspect
	m.errorMessage = ""
	m.infoMessage = fmt.Sprintf("Inspecting %q. Press ? for keys.", st.Title)
	m.appendLog(fmt.Sprintf("Opened %q (%d pages).", st.Title, len(st.Pages)))
}

func (m *model) leaveStory() {
	m.session.SetStory(nil)
	m.checks = nil
	m.elementCursor = 0
	m.syncOpacityFromSelection()
	m.stage = stageBrowse
	m.infoMessage = "Pick a story to inspect."
}

func (m *model) moveStoryCursor(delta int) {
	if len(m.stories) == 0 {
		return
	}
	target := m.storyCursor + delta
	if target < 0 {
		target = 0
	}
	if target >= len(m.stories) {
		target = len(m.stories) - 1
	}
	m.storyCursor = target
}

func (m *model) changePage(delta int) {
	st := m.session.Story()
	if st == nil {
		return
	}
	if !m.session.SetPage(m.session.PageIndex() + delta) {
		return
	}
	m.elementCursor = 0
	m.insp.PageChanged()
	m.syncOpacityFromSelection()
	m.infoMessage = fmt.Sprintf("Page %d of %d.", m.session.PageIndex()+1, len(st.Pages))
}

// selectionStep is 0 while nothing is selected so the first j/k press
// selects the element under the cursor instead of stepping past it.
func (m *model) selectionStep() int {
	if len(m.session.SelectedIDs()) == 0 {
		return 0
	}
	return 1
}

func (m *model) selectElementAt(idx int) {
	page := m.session.CurrentPage()
	if page == nil || len(page.Elements) == 0 {
		m.infoMessage = "This page has no elements."
		return
	}
	if idx < 0 {
		idx = 0
	}
	if idx >= len(page.Elements) {
		idx = len(page.Elements) - 1
	}
	m.elementCursor = idx
	prevEmpty := len(m.session.SelectedIDs()) == 0
	m.session.Select(page.Elements[idx].ID)
	m.insp.SelectionChanged(prevEmpty, false)
	m.syncOpacityFromSelection()
}

func (m *model) clearSelection() {
	prevEmpty := len(m.session.SelectedIDs()) == 0
	m.session.ClearSelection()
	m.insp.SelectionChanged(prevEmpty, true)
	m.syncOpacityFromSelection()
}

// syncOpacityFromSelection rebinds the opacity field to the selected
// element's fill. Gradient fills have no single numeric preview, so the
// field hides while keeping its width.
func (m *model) syncOpacityFromSelection() {
	m.opacity = m.opacity.Blur()
	el := m.session.SelectedElement()
	if el == nil || el.Background == nil {
		m.opacity = m.opacity.WithVisible(false)
		return
	}
	_, previewable := el.Background.PreviewText()
	m.opacity = m.opacity.WithVisible(previewable)
	if previewable {
		m.opacity = m.opacity.SetValue(el.Background.Opacity())
	}
}

func (m *model) focusOpacityCmd() tea.Cmd {
	if m.insp.Tab() != inspector.TabDesign {
		return nil
	}
	el := m.session.SelectedElement()
	if el == nil || el.Background == nil {
		m.infoMessage = "Select an element with a fill first."
		return nil
	}
	if !m.opacity.Visible() {
		m.infoMessage = "Gradient fills have no single opacity to edit."
		return nil
	}
	m.opacity = m.opacity.Focus()
	m.infoMessage = "Type a percentage. Enter applies, Esc cancels."
	return textinput.Blink
}

func (m *model) documentLoadCmd() tea.Cmd {
	if m.insp.Tab() != inspector.TabDocument {
		return nil
	}
	var cmds []tea.Cmd
	if cmd := m.insp.LoadStatuses(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if cmd := m.insp.LoadUsers(); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if len(cmds) == 0 {
		return nil
	}
	cmds = append(cmds, m.spinner.Tick)
	return tea.Batch(cmds...)
}

func (m *model) enterAnalytics() {
	m.analyticsDiff = false
	m.refreshAnalyticsTag()
	m.stage = stageAnalytics
	m.infoMessage = "c copies the tag, g toggles the Site Kit diff, Esc goes back."
}

func (m *model) analyticsReturnStage() stage {
	if m.session.Story() != nil {
		return stageInspect
	}
	return stageBrowse
}

func (m *model) refreshAnalyticsTag() {
	m.analyticsTag = ""
	m.analyticsSuppressed = m.config.Emitter.Suppression()
	if m.analyticsSuppressed != "" {
		return
	}
	var buf bytes.Buffer
	if err := m.config.Emitter.PrintAnalyticsTag(&buf); err != nil {
		m.errorMessage = err.Error()
		return
	}
	m.analyticsTag = strings.TrimRight(buf.String(), "\n")
}

// siteKitGtagSides renders the JSON a Site Kit amp gtag config would carry
// before and after the story trigger merge.
func (m *model) siteKitGtagSides() (string, string) {
	id := m.config.Emitter.TrackingID()
	baseline := map[string]any{
		"vars": map[string]any{
			"gtag_id": id,
			"config": map[string]any{
				id: map[string]any{"groups": "default"},
			},
		},
	}
	merged := m.config.Emitter.FilterSiteKitGtagOpt(baseline)

	before, err := json.MarshalIndent(baseline, "", "  ")
	if err != nil {
		return "", ""
	}
	after, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return "", ""
	}
	return string(before), string(after)
}

func (m *model) analyticsCopyBody() string {
	if m.analyticsDiff {
		_, after := m.siteKitGtagSides()
		return after
	}
	return m.analyticsTag
}

func (m *model) toggleHelp() {
	m.helpVisible = !m.helpVisible
	if m.helpVisible {
		m.infoMessage = "Help open. Press ? to hide."
	} else {
		m.infoMessage = "Help hidden."
	}
}

func (m *model) quit() (tea.Model, tea.Cmd) {
	if m.insp != nil {
		m.insp.Close()
	}
	return m, tea.Quit
}

func (m *model) loadingActive() bool {
	if m.stage == stageLoading {
		return true
	}
	if m.insp != nil && (m.insp.StatusesLoading() || m.insp.UsersLoading()) {
		return true
	}
	return len(m.active) > 0
}

func (m *model) finishJob(snapshot jobSnapshot) {
	delete(m.active, snapshot.ID)
	duration := snapshot.Duration.Round(logDurationRounding)
	if snapshot.Status == jobStatusFailed {
		m.appendLog(fmt.Sprintf("%s failed after %s: %s", snapshot.Kind, duration, snapshot.Err))
		return
	}
	m.appendLog(fmt.Sprintf("%s finished in %s.", snapshot.Kind, duration))
}

func (m *model) jobStatusBadges() []string {
	if len(m.active) == 0 {
		return nil
	}
	ids := make([]string, 0, len(m.active))
	for id := range m.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	badges := make([]string, 0, len(ids))
	for _, id := range ids {
		badges = append(badges, fmt.Sprintf("%s…", m.active[id].Kind))
	}
	return badges
}

func (m *model) appendLog(entry string) {
	m.sessionLog = append(m.sessionLog, entry)
	if len(m.sessionLog) > sessionLogLimit {
		m.sessionLog = m.sessionLog[len(m.sessionLog)-sessionLogLimit:]
	}
}
