package cmd

import (
	"github.com/spf13/cobra"

	"github.com/runger/typeahead/internal/config"
)

// configPath overrides the default config file location when set.
var configPath string

var rootCmd = &cobra.Command{
	Use:   "typeahead",
	Short: "incremental full-text search for your terminal",
	Long: `typeahead - incremental full-text search for your terminal
  - type and watch results update as you pause
  - search a local index, a background daemon, or any command`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/typeahead/config.yaml)")
}

// loadConfig loads the config from --config or the default path.
func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.LoadFromFile(configPath)
	}
	return config.Load()
}
