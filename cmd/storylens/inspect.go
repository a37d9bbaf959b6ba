package main

import (
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"

	"github.com/storylens/storylens/internal/analytics"
	"github.com/storylens/storylens/internal/config"
	"github.com/storylens/storylens/internal/hooks"
	"github.com/storylens/storylens/internal/options"
	"github.com/storylens/storylens/internal/tui"
	"github.com/storylens/storylens/internal/wp"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [site]",
	Short: "Open the story inspector (the default command)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInspectCommand,
}

func init() {
	inspectCmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")
}

func runInspectCommand(_ *cobra.Command, args []string) error {
	site := ""
	if len(args) > 0 {
		site = args[0]
	}
	return runInspect(site)
}

// runInspect mounts the TUI. A non-empty site skips the connect prompt;
// it falls back to the configured site URL.
func runInspect(site string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if site == "" {
		site = cfg.Site.URL
	}

	// Breadcrumbs from the job bus go through the standard logger. On a
	// live terminal they would corrupt the frame, so they are discarded
	// unless a debug log file is configured.
	if cfg.Debug.Log != "" {
		logFile, err := tea.LogToFile(cfg.Debug.Log, "storylens")
		if err != nil {
			return fmt.Errorf("open debug log: %w", err)
		}
		defer logFile.Close()
	} else {
		log.SetOutput(io.Discard)
	}

	opts, emitter := buildAnalytics(cfg)

	programOpts := []tea.ProgramOption{}
	if !noAltScreen {
		programOpts = append(programOpts, tea.WithAltScreen())
	}
	program := tea.NewProgram(
		tui.New(tui.Config{
			Dial:    func(site string) tui.StoryService { return newService(site, cfg) },
			Site:    site,
			Options: opts,
			Emitter: emitter,
			Locale:  parseLocale(cfg.UI.Locale),
		}),
		programOpts...,
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("run program: %w", err)
	}
	return nil
}

// buildAnalytics assembles the option store and emitter shared by the TUI
// and the analytics subcommand. Config-pinned options are local overrides,
// so they win over anything later seeded from the site.
func buildAnalytics(cfg config.Config) (*options.Store, *analytics.Emitter) {
	opts := options.NewStore()
	for name, value := range cfg.Options {
		opts.Set(name, value)
	}
	emitter := analytics.NewEmitter(opts, hooks.NewRegistry())
	emitter.TrackingIDOverride = cfg.Analytics.TrackingID
	emitter.Register()
	return opts, emitter
}

// newService builds the REST client every fetch against site goes through.
func newService(site string, cfg config.Config) tui.StoryService {
	cache, err := wp.NewCache(cfg.Cache.Dir, cfg.Cache.TTL, nil)
	if err != nil {
		log.Printf("[cache] disabled: %v", err)
		cache = nil
	}
	return wp.NewClient(wp.Config{
		BaseURL:     site,
		Username:    cfg.Site.Username,
		AppPassword: cfg.Site.AppPassword,
		Timeout:     cfg.HTTP.Timeout,
		UserAgent:   "storylens/" + version,
		Cache:       cache,
	})
}

func parseLocale(tag string) language.Tag {
	parsed, err := language.Parse(tag)
	if err != nil {
		return language.English
	}
	return parsed
}
