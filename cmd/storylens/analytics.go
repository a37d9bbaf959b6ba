package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/storylens/storylens/internal/sitekit"
)

var (
	analyticsJSON    bool
	analyticsSiteKit bool
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Print the amp-analytics tag the site would emit",
	Long: `Prints the amp-analytics gtag markup a single-story view on the site
would carry, built from the configured tracking ID and the site's
settings. When emission is suppressed (Site Kit's analytics module is
active, or no tracking ID is configured) the reason goes to stderr and
nothing is printed, so an empty stdout always means no tag.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		opts, emitter := buildAnalytics(cfg)
		if analyticsSiteKit {
			opts.Set(sitekit.OptionActiveModules, []string{"analytics"})
		}

		// Site settings carry the tracking ID and Site Kit state when no
		// config pins them. Best effort: offline use still works off the
		// config alone.
		if cfg.Site.URL != "" {
			timeout := cfg.HTTP.Timeout
			if timeout <= 0 {
				timeout = 15 * time.Second
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			settings, err := newService(cfg.Site.URL, cfg).Settings(ctx)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: could not load site settings: %v\n", err)
			} else {
				opts.Seed(settings)
			}
		}

		if reason := emitter.Suppression(); reason != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "No tag would be printed: %s.\n", reason)
			return nil
		}

		if analyticsJSON {
			body, err := json.MarshalIndent(emitter.DefaultConfig(), "", "  ")
			if err != nil {
				return fmt.Errorf("encode analytics configuration: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(body))
			return nil
		}
		return emitter.PrintAnalyticsTag(cmd.OutOrStdout())
	},
}

func init() {
	analyticsCmd.Flags().BoolVar(&analyticsJSON, "json", false, "print the gtag configuration as JSON instead of tag markup")
	analyticsCmd.Flags().BoolVar(&analyticsSiteKit, "site-kit", false, "pretend Site Kit's analytics module is active")
}
