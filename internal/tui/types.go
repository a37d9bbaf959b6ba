package tui

import (
	"github.com/storylens/storylens/internal/story"
)

type stage int

const (
	stageConnect stage = iota
	stageLoading
	stageBrowse
	stageInspect
	stageAnalytics
)

const heroTagline = "Inspect WordPress Web Stories from the terminal."

const (
	minListWidth  = 24
	maxListWidth  = 44
	minPanelWidth = 40
	columnGutter  = 3
	chromeRows    = 9
	minBodyHeight = 8

	sessionLogLimit = 40
	sitePlaceholder = "https://stories.example.com"
)

type storiesResultMsg struct {
	stories []story.Story
	err     error
}

type storyResultMsg struct {
	id  int
	st  *story.Story
	err error
}

type settingsResultMsg struct {
	settings map[string]any
	err      error
}

type copyResultMsg struct {
	err error
}
