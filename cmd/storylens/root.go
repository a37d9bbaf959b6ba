package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storylens/storylens/internal/config"
)

var (
	// Global flags
	cfgFile  string
	siteFlag string
	debugLog string

	noAltScreen bool
)

var rootCmd = &cobra.Command{
	Use:   "storylens [site]",
	Short: "Terminal inspector for WordPress Web Stories",
	Long: `Storylens connects to a WordPress site running the Web Stories plugin
and opens a terminal inspector over its stories: browse the list, walk
pages and elements, edit element opacity, review the prepublish
checklist, and preview the amp-analytics tag the site would emit.

With no site on the command line or in the config file, storylens
starts at a connect prompt.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runInspectCommand,
}

// Execute runs the root command and reports its error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/storylens/config.toml)")
	rootCmd.PersistentFlags().StringVar(&siteFlag, "site", "", "WordPress site URL, e.g. https://stories.example.com")
	rootCmd.PersistentFlags().StringVar(&debugLog, "debug", "", "write debug output to this file")
	rootCmd.Flags().BoolVar(&noAltScreen, "no-alt-screen", false, "disable the alternate screen buffer")

	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(analyticsCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file and applies flag overrides on top.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if siteFlag != "" {
		cfg.Site.URL = siteFlag
	}
	if debugLog != "" {
		cfg.Debug.Log = debugLog
	}
	return cfg, nil
}

func printError(err error) {
	fmt.Fprintf(os.Stderr, "Error: %s\n", err)
}
