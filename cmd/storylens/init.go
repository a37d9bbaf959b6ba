package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/storylens/storylens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter config file",
	Long: `Write a starter config file with the default settings, ready to edit.

The file lands at --config when given, otherwise at the default
location. Flags like --site are folded into the written file, so

  storylens init --site https://stories.example.com

produces a config that connects immediately on the next run.`,
	Args: cobra.NoArgs,
	RunE: runInitCommand,
}

func runInitCommand(cmd *cobra.Command, _ []string) error {
	path := cfgFile
	if path == "" {
		def, err := config.DefaultPath()
		if err != nil {
			return err
		}
		path = def
	}
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "%s already exists. Edit it directly or pass --config for a different location.\n", path)
		return nil
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.Save(cfg, path); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration created: %s\n", path)
	return nil
}
