package tui

import (
	"context"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

func listStoriesJob(svc StoryService) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 35*time.Second)
		defer cancel()
		stories, err := svc.ListStories(ctx)
		if err != nil {
			return storiesResultMsg{err: err}, err
		}
		return storiesResultMsg{stories: stories}, nil
	}
}

func fetchStoryJob(svc StoryService, id int) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 35*time.Second)
		defer cancel()
		st, err := svc.GetStory(ctx, id)
		if err != nil {
			return storyResultMsg{id: id, err: err}, err
		}
		return storyResultMsg{id: id, st: st}, nil
	}
}

func fetchSettingsJob(svc StoryService) jobRunner {
	return func(parent context.Context) (tea.Msg, error) {
		ctx, cancel := context.WithTimeout(parent, 20*time.Second)
		defer cancel()
		settings, err := svc.Settings(ctx)
		if err != nil {
			return settingsResultMsg{err: err}, err
		}
		return settingsResultMsg{settings: settings}, nil
	}
}

func copyTextJob(text string) jobRunner {
	return func(context.Context) (tea.Msg, error) {
		if err := clipboard.WriteAll(text); err != nil {
			return copyResultMsg{err: err}, err
		}
		return copyResultMsg{}, nil
	}
}
