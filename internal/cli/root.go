package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/Atliac/minitest/internal/config"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile string
	verbose bool
	cfg     *config.Config
)

// NewRootCommand creates the root cobra command
func NewRootCommand(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "minitest",
		Short: "minitest discovery and run tool",
		Long: `minitest works with programs that embed minitest test cases.

This command-line interface provides tools for:
  - Exporting the test cases of a binary to CTest
  - Listing test cases as text, JSON, YAML or CBOR
  - Running every test case in its own process
  - Inspecting the recorded run history`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./minitest.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(NewInitCommand())
	rootCmd.AddCommand(NewDiscoverCommand())
	rootCmd.AddCommand(NewListCommand())
	rootCmd.AddCommand(NewRunCommand())
	rootCmd.AddCommand(NewHistoryCommand())

	return rootCmd
}

// initConfig loads configuration from file
func initConfig() {
	cfg = nil
	if cfgFile == "" {
		if _, err := os.Stat(config.DefaultPath); err == nil {
			cfgFile = config.DefaultPath
		} else if _, err := os.Stat("minitest.yml"); err == nil {
			cfgFile = "minitest.yml"
		}
	}

	if cfgFile != "" {
		var err error
		cfg, err = config.LoadConfig(cfgFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to load config: %v\n", err)
		}
	}
}

// GetConfig returns the loaded configuration, or the defaults when no
// configuration file was found
func GetConfig() *config.Config {
	if cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// logger builds the diagnostic logger for the current command
func logger(c *config.Config) *slog.Logger {
	level := c.Log.Level
	if verbose {
		level = "debug"
	}
	return newLogger(level, c.Log.Format, os.Stderr)
}
