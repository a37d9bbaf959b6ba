package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/language"

	"github.com/storylens/storylens/internal/analytics"
	"github.com/storylens/storylens/internal/hooks"
	"github.com/storylens/storylens/internal/inspector"
	"github.com/storylens/storylens/internal/options"
	"github.com/storylens/storylens/internal/prepublish"
	"github.com/storylens/storylens/internal/sitekit"
	"github.com/storylens/storylens/internal/story"
	"github.com/storylens/storylens/internal/tui/components"
	"github.com/storylens/storylens/internal/wp"
)

func keyMsg(key string) tea.KeyMsg {
	switch key {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "backspace":
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "left":
		return tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		return tea.KeyMsg{Type: tea.KeyRight}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
}

func press(m *model, key string) tea.Cmd {
	_, cmd := m.Update(keyMsg(key))
	return cmd
}

// launchDayStory is the inspect-stage fixture: a solid fill at 60% opacity,
// a two-stop gradient, a text element, and a second page.
func launchDayStory() *story.Story {
	return &story.Story{
		ID:     7,
		Title:  "Launch Day",
		Status: "draft",
		Author: 7,
		Pages: []story.Page{
			{
				ID: "page-1",
				Elements: []story.Element{
					{
						ID: "el-solid", Type: "shape", Width: 120, Height: 80, X: 10, Y: 20,
						Background: &story.Pattern{Type: story.PatternSolid, Color: story.Color{R: 255, G: 140, B: 0, A: 0.6}},
					},
					{
						ID: "el-grad", Type: "shape",
						Background: &story.Pattern{
							Type: story.PatternLinear,
							Stops: []story.Stop{
								{Color: story.Color{A: 1}},
								{Color: story.Color{R: 255, G: 255, B: 255, A: 1}, Position: 1},
							},
						},
					},
					{
						ID: "el-text", Type: "text", Text: "Hello",
						Background: &story.Pattern{Type: story.PatternSolid, Color: story.Color{R: 16, G: 16, B: 16, A: 1}},
					},
				},
			},
			{ID: "page-2", Elements: []story.Element{{ID: "el-last", Type: "image"}}},
		},
	}
}

func browseList() []story.Story {
	return []story.Story{
		{ID: 7, Title: "Launch Day", Status: "draft"},
		{ID: 9, Title: "Beta Recap", Status: "publish"},
	}
}

// openLaunchDay walks the model from the post-connect loading stage into the
// inspector with the fixture story open.
func openLaunchDay(t *testing.T, m *model) {
	t.Helper()
	m.Update(storiesResultMsg{stories: browseList()})
	if m.stage != stageBrowse {
		t.Fatalf("stage after stories = %d, want browse", m.stage)
	}
	if cmd := press(m, "enter"); cmd == nil {
		t.Fatal("opening a story should start a fetch job")
	}
	m.Update(storyResultMsg{id: 7, st: launchDayStory()})
	if m.stage != stageInspect {
		t.Fatalf("stage after story result = %d, want inspect", m.stage)
	}
}

func selectedAlpha(t *testing.T, m *model) float64 {
	t.Helper()
	el := m.session.SelectedElement()
	if el == nil || el.Background == nil {
		t.Fatal("no selected element with a fill")
	}
	return el.Background.Opacity()
}

func hasCheck(checks []prepublish.Check, id string) bool {
	for _, check := range checks {
		if check.ID == id {
			return true
		}
	}
	return false
}

func TestConfiguredSiteConnectsOnInit(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	if m.stage != stageLoading {
		t.Fatalf("stage = %d, want loading", m.stage)
	}
	if m.site != "https://stories.test" {
		t.Fatalf("site = %q", m.site)
	}
	if m.insp == nil {
		t.Fatal("connecting should create the inspector")
	}
	if len(m.sessionLog) == 0 || !strings.Contains(m.sessionLog[0], "Connected to https://stories.test") {
		t.Fatalf("session log missing connect entry: %v", m.sessionLog)
	}
}

func TestConnectPromptSubmitsTypedSite(t *testing.T) {
	t.Parallel()
	var dialed []string
	svc := &fakeService{}
	opts := options.NewStore()
	emitter := analytics.NewEmitter(opts, hooks.NewRegistry())
	emitter.Register()
	teaModel := New(Config{
		Dial: func(site string) StoryService {
			dialed = append(dialed, site)
			return svc
		},
		Options: opts,
		Emitter: emitter,
		Locale:  language.English,
	})
	m := teaModel.(*model)
	m.Init()
	t.Cleanup(func() {
		if m.insp != nil {
			m.insp.Close()
		}
	})

	if m.stage != stageConnect {
		t.Fatalf("stage = %d, want connect prompt", m.stage)
	}
	press(m, "enter")
	if m.errorMessage != "Enter a site URL." {
		t.Fatalf("empty submit error = %q", m.errorMessage)
	}
	if m.stage != stageConnect {
		t.Fatal("empty submit should stay on the prompt")
	}

	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("https://stories.example")})
	if cmd := press(m, "enter"); cmd == nil {
		t.Fatal("submitting a site should start the load jobs")
	}
	if len(dialed) != 1 || dialed[0] != "https://stories.example" {
		t.Fatalf("dialed = %v", dialed)
	}
	if m.stage != stageLoading {
		t.Fatalf("stage = %d, want loading", m.stage)
	}
}

func TestStoriesResultEntersBrowse(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, want browse", m.stage)
	}
	if len(m.stories) != 2 {
		t.Fatalf("stories = %d, want 2", len(m.stories))
	}
	if !strings.Contains(m.infoMessage, "Loaded 2 stories") {
		t.Fatalf("info = %q", m.infoMessage)
	}
}

func TestStoriesErrorReturnsToConnect(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{err: errors.New("connection refused")})
	if m.stage != stageConnect {
		t.Fatalf("stage = %d, want connect", m.stage)
	}
	if m.errorMessage != "connection refused" {
		t.Fatalf("error = %q", m.errorMessage)
	}
}

func TestReloadErrorKeepsExistingList(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	if cmd := press(m, "r"); cmd == nil {
		t.Fatal("reload should start a job")
	}
	m.Update(storiesResultMsg{err: errors.New("gateway timeout")})
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, want browse with the stale list", m.stage)
	}
	if len(m.stories) != 2 {
		t.Fatalf("stories = %d, want the previous 2", len(m.stories))
	}
	if m.errorMessage != "gateway timeout" {
		t.Fatalf("error = %q", m.errorMessage)
	}
}

func TestBrowseCursorClampsAtEnds(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	press(m, "k")
	if m.storyCursor != 0 {
		t.Fatalf("cursor = %d, want clamped at 0", m.storyCursor)
	}
	press(m, "j")
	press(m, "j")
	press(m, "j")
	if m.storyCursor != 1 {
		t.Fatalf("cursor = %d, want clamped at last story", m.storyCursor)
	}
}

func TestOpenStoryShowsInspector(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	if got := m.session.Story().Title; got != "Launch Day" {
		t.Fatalf("open story = %q", got)
	}
	if m.insp.Tab() != inspector.TabDesign {
		t.Fatalf("tab = %v, want design on open", m.insp.Tab())
	}
	if !hasCheck(m.checks, "missing-poster") {
		t.Fatal("opening should run the prepublish checklist")
	}
	if m.pendingStoryID != 0 {
		t.Fatalf("pending id = %d, want cleared", m.pendingStoryID)
	}
}

func TestStaleStoryResultIgnored(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	press(m, "enter")
	m.Update(storyResultMsg{id: 9, st: &story.Story{ID: 9, Title: "Beta Recap"}})
	if m.stage != stageBrowse {
		t.Fatalf("stale result moved stage to %d", m.stage)
	}
	if m.session.Story() != nil {
		t.Fatal("stale result should not open a story")
	}
	m.Update(storyResultMsg{id: 7, st: launchDayStory()})
	if m.stage != stageInspect {
		t.Fatal("matching result should open the story")
	}
}

func TestStoryFetchErrorReturnsToBrowse(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	press(m, "enter")
	m.Update(storyResultMsg{id: 7, err: errors.New("boom")})
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, want browse", m.stage)
	}
	if m.pendingStoryID != 0 {
		t.Fatalf("pending id = %d, want cleared", m.pendingStoryID)
	}
	if m.errorMessage != "boom" {
		t.Fatalf("error = %q", m.errorMessage)
	}
}

func TestFirstSelectionBumpsDocumentTabToDesign(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "2")
	if m.insp.Tab() != inspector.TabDocument {
		t.Fatalf("tab = %v, want document", m.insp.Tab())
	}
	press(m, "j")
	if m.insp.Tab() != inspector.TabDesign {
		t.Fatalf("tab = %v, want design after first selection", m.insp.Tab())
	}
	if got := m.session.SelectedIDs(); len(got) != 1 || got[0] != "el-solid" {
		t.Fatalf("selection = %v, want el-solid", got)
	}
}

func TestRefinedSelectionKeepsDocumentTab(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")
	press(m, "2")
	press(m, "j")
	if m.insp.Tab() != inspector.TabDocument {
		t.Fatalf("tab = %v, want document to survive a refined selection", m.insp.Tab())
	}
	if got := m.session.SelectedIDs(); len(got) != 1 || got[0] != "el-grad" {
		t.Fatalf("selection = %v, want el-grad", got)
	}
}

func TestClearSelectionKeepsDocumentTab(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")
	press(m, "2")
	press(m, "x")
	if m.insp.Tab() != inspector.TabDocument {
		t.Fatalf("tab = %v, want document after clearing", m.insp.Tab())
	}
	if got := m.session.SelectedIDs(); len(got) != 0 {
		t.Fatalf("selection = %v, want empty", got)
	}
	if m.opacity.Visible() {
		t.Fatal("opacity field should hide with nothing selected")
	}
}

func TestPageChangeResetsDocumentTab(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")
	press(m, "2")
	press(m, "l")
	if m.insp.Tab() != inspector.TabDesign {
		t.Fatalf("tab = %v, want design after a page change", m.insp.Tab())
	}
	if m.session.PageIndex() != 1 {
		t.Fatalf("page = %d, want 1", m.session.PageIndex())
	}
	if len(m.session.SelectedIDs()) != 0 {
		t.Fatal("page change should clear the selection")
	}

	// Clamped at the last page: no page change, so the tab stays put.
	press(m, "2")
	press(m, "l")
	if m.insp.Tab() != inspector.TabDocument {
		t.Fatalf("tab = %v, want document after a clamped page move", m.insp.Tab())
	}
}

func TestOpacityFieldTracksSelection(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)

	press(m, "j")
	if !m.opacity.Visible() {
		t.Fatal("solid fill should show the opacity field")
	}
	if got := m.opacity.Buffer(); got != "60" {
		t.Fatalf("buffer = %q, want 60", got)
	}

	press(m, "j")
	if m.opacity.Visible() {
		t.Fatal("gradient fill should hide the opacity field")
	}
	if got := m.opacity.View(); got != strings.Repeat(" ", 8) {
		t.Fatalf("hidden field = %q, want width-preserving blanks", got)
	}

	press(m, "j")
	if got := m.opacity.Buffer(); got != "100" {
		t.Fatalf("buffer = %q, want 100", got)
	}
}

func TestOpacityApplyClampsAndSnapsBuffer(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")

	m.Update(components.OpacityChangedMsg{Fraction: 0.42})
	if got := selectedAlpha(t, m); got != 0.42 {
		t.Fatalf("alpha = %v, want 0.42", got)
	}
	if got := m.opacity.Buffer(); got != "42" {
		t.Fatalf("buffer = %q, want 42", got)
	}

	m.Update(components.OpacityChangedMsg{Fraction: 1.5})
	if got := selectedAlpha(t, m); got != 1 {
		t.Fatalf("alpha = %v, want clamped to 1", got)
	}
	if got := m.opacity.Buffer(); got != "100" {
		t.Fatalf("buffer = %q, want snapped to 100", got)
	}

	m.Update(components.OpacityChangedMsg{Fraction: -0.2})
	if got := selectedAlpha(t, m); got != 0 {
		t.Fatalf("alpha = %v, want clamped to 0", got)
	}
	if !hasCheck(m.checks, "transparent-background") {
		t.Fatal("zero opacity should surface the transparency check")
	}
}

func TestOpacityTypingFlow(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")

	if cmd := press(m, "enter"); cmd == nil {
		t.Fatal("focusing the opacity field should return a blink command")
	}
	if !m.opacity.Focused() {
		t.Fatal("enter should focus the opacity field")
	}

	deliver(t, m, press(m, "backspace"))
	if got := m.opacity.Buffer(); got != "6" {
		t.Fatalf("buffer = %q, want the live edit kept", got)
	}
	if got := selectedAlpha(t, m); got != 0.06 {
		t.Fatalf("alpha = %v, want 0.06 applied live", got)
	}

	deliver(t, m, press(m, "backspace"))
	if got := selectedAlpha(t, m); got != 0.06 {
		t.Fatalf("alpha = %v, empty buffer should not propagate", got)
	}

	deliver(t, m, press(m, "4"))
	deliver(t, m, press(m, "2"))
	if got := m.opacity.Buffer(); got != "42" {
		t.Fatalf("buffer = %q, want 42", got)
	}
	if got := selectedAlpha(t, m); got != 0.42 {
		t.Fatalf("alpha = %v, want 0.42", got)
	}

	press(m, "enter")
	if m.opacity.Focused() {
		t.Fatal("enter should blur the field")
	}
	if !strings.Contains(m.infoMessage, "42%") {
		t.Fatalf("info = %q, want the applied percentage", m.infoMessage)
	}
}

func TestGradientFocusRefused(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")
	press(m, "j")
	if cmd := press(m, "enter"); cmd != nil {
		t.Fatal("gradient fills should not enter edit mode")
	}
	if m.opacity.Focused() {
		t.Fatal("opacity field focused on a gradient")
	}
	if !strings.Contains(m.infoMessage, "Gradient") {
		t.Fatalf("info = %q", m.infoMessage)
	}
}

func TestEscUnwindsEditThenStoryThenQuits(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	openLaunchDay(t, m)
	press(m, "j")
	press(m, "enter")

	press(m, "esc")
	if m.opacity.Focused() {
		t.Fatal("first esc should blur the opacity field")
	}
	if m.stage != stageInspect {
		t.Fatalf("stage = %d, want inspect", m.stage)
	}

	press(m, "esc")
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, want browse", m.stage)
	}
	if m.session.Story() != nil {
		t.Fatal("leaving should close the story")
	}

	cmd := press(m, "esc")
	if cmd == nil {
		t.Fatal("esc in browse should quit")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("quit command produced %T", cmd())
	}
}

func TestDocumentPanelLoadsReferenceOptions(t *testing.T) {
	t.Parallel()
	svc := &fakeService{
		storyByID: map[int]*story.Story{7: launchDayStory()},
		statuses: []wp.Status{
			{Slug: "draft", Name: "Draft", ShowInList: true},
			{Slug: "publish", Name: "Published", ShowInList: true},
			{Slug: "trash", Name: "Trash", ShowInList: false},
		},
		users: []wp.User{{ID: 7, Name: "Ada"}, {ID: 12, Name: "Grace"}},
	}
	m := newTestModel(t, svc)
	openLaunchDay(t, m)

	deliver(t, m, press(m, "2"))
	if m.insp.StatusesLoading() || m.insp.UsersLoading() {
		t.Fatal("reference loads should have settled")
	}
	if got := len(m.insp.Statuses()); got != 2 {
		t.Fatalf("statuses = %d, want the 2 listable ones", got)
	}
	if got := len(m.insp.Users()); got != 2 {
		t.Fatalf("users = %d, want 2", got)
	}

	panel := m.buildPanelContent()
	if !strings.Contains(panel, "▸ Draft") {
		t.Fatalf("panel should mark the current status:\n%s", panel)
	}
	if !strings.Contains(panel, "▸ Ada") {
		t.Fatalf("panel should mark the story author:\n%s", panel)
	}
	if strings.Contains(panel, "Trash") {
		t.Fatalf("panel should hide non-listable statuses:\n%s", panel)
	}
}

func TestAnalyticsStageRendersTag(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.config.Options.Set(analytics.SettingTrackingID, "UA-12345-6")
	openLaunchDay(t, m)

	press(m, "a")
	if m.stage != stageAnalytics {
		t.Fatalf("stage = %d, want analytics", m.stage)
	}
	if m.analyticsSuppressed != "" {
		t.Fatalf("suppressed = %q, want emission", m.analyticsSuppressed)
	}
	if !strings.Contains(m.analyticsTag, `<amp-analytics type="gtag"`) {
		t.Fatalf("tag missing amp-analytics element:\n%s", m.analyticsTag)
	}
	if !strings.Contains(m.analyticsTag, "UA-12345-6") {
		t.Fatal("tag should carry the tracking ID")
	}

	press(m, "esc")
	if m.stage != stageInspect {
		t.Fatalf("stage = %d, want back to the open story", m.stage)
	}
}

func TestAnalyticsSuppressedBySiteKit(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.config.Options.Set(analytics.SettingTrackingID, "UA-12345-6")
	m.config.Options.Set(sitekit.OptionActiveModules, []string{"analytics"})
	m.Update(storiesResultMsg{stories: browseList()})

	press(m, "a")
	if m.analyticsSuppressed != "Site Kit analytics module is active" {
		t.Fatalf("suppressed = %q", m.analyticsSuppressed)
	}
	if m.analyticsTag != "" {
		t.Fatal("no tag should render while suppressed")
	}

	press(m, "esc")
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, want browse with no story open", m.stage)
	}
}

func TestAnalyticsSuppressedWithoutTrackingID(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	press(m, "a")
	if m.analyticsSuppressed != "no tracking ID configured" {
		t.Fatalf("suppressed = %q", m.analyticsSuppressed)
	}
}

func TestAnalyticsDiffToggle(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.config.Options.Set(analytics.SettingTrackingID, "UA-12345-6")
	m.Update(storiesResultMsg{stories: browseList()})
	press(m, "a")

	press(m, "g")
	if !m.analyticsDiff {
		t.Fatal("g should enable the diff view")
	}
	before, after := m.siteKitGtagSides()
	if strings.Contains(before, "storyProgress") {
		t.Fatal("baseline config should not carry story triggers")
	}
	if !strings.Contains(after, "storyProgress") {
		t.Fatal("merged config should carry story triggers")
	}
	if got := m.analyticsCopyBody(); got != after {
		t.Fatal("copy should carry the merged side while diffing")
	}

	press(m, "g")
	if m.analyticsDiff {
		t.Fatal("g should toggle the diff view off")
	}
	if got := m.analyticsCopyBody(); got != m.analyticsTag {
		t.Fatal("copy should carry the tag outside the diff view")
	}
}

func TestWindowSizeFeedsPanelHeight(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	if m.layout.bodyHeight != 31 {
		t.Fatalf("body height = %d, want 31", m.layout.bodyHeight)
	}
	if got := m.insp.ContentHeight(); got != 31 {
		t.Fatalf("inspector content height = %d, want 31", got)
	}
}

func TestJobLifecycleBadgesAndLog(t *testing.T) {
	t.Parallel()
	m := newTestModel(t, &fakeService{})
	m.Update(storiesResultMsg{stories: browseList()})
	if m.loadingActive() {
		t.Fatal("idle model should not report loading")
	}

	snap := jobSnapshot{ID: "stories-1", Kind: jobKindStories, Status: jobStatusRunning, StartedAt: time.Now()}
	m.Update(jobSignalMsg{Snapshot: snap})
	if badges := m.jobStatusBadges(); len(badges) != 1 || badges[0] != "stories…" {
		t.Fatalf("badges = %v", badges)
	}
	if !m.loadingActive() {
		t.Fatal("a running job should report loading")
	}

	done := snap
	done.Status = jobStatusSucceeded
	done.Duration = 123 * time.Millisecond
	m.Update(jobResultEnvelope{Snapshot: done, Payload: storiesResultMsg{stories: browseList()}})
	if badges := m.jobStatusBadges(); len(badges) != 0 {
		t.Fatalf("badges after completion = %v", badges)
	}
	if m.stage != stageBrowse {
		t.Fatalf("stage = %d, payload should have been routed", m.stage)
	}
	last := m.sessionLog[len(m.sessionLog)-1]
	if !strings.Contains(last, "stories finished in 120ms") {
		t.Fatalf("log = %q", last)
	}
}
