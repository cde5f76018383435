package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Atliac/minitest/internal/config"
	"github.com/Atliac/minitest/pkg/database"
	"github.com/spf13/cobra"
)

type initOptions struct {
	dir    string
	dbPath string
	force  bool
}

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a minitest.yaml configuration",
		Long: `Create a minitest.yaml configuration.

This command creates:
  - A configuration file (minitest.yaml) with the default settings
  - An SQLite database for the run history

Example:
  minitest init --dir build`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.dir, "dir", ".", "directory to write the configuration to")
	cmd.Flags().StringVar(&opts.dbPath, "db", "minitest.db", "path to SQLite database file")
	cmd.Flags().BoolVar(&opts.force, "force", false, "overwrite an existing configuration")

	return cmd
}

const configTemplate = `# minitest configuration

# Discovery of test cases in host binaries
discovery:
  # Limit for listing the test cases of one binary
  timeout: %s
  # CTest file to update; empty searches upward from the binary
  output: ""
  # Block marker; empty derives one from the binary path
  marker: ""

# Out-of-process runs
run:
  # Limit for one test case; 0s disables it
  timeout: 0s
  # Regular expression selecting test case names
  filter: ""

# Run history
database:
  path: %s
  enable_wal: true

# Diagnostic logging to stderr
log:
  level: info
  format: text
`

func runInit(cmd *cobra.Command, opts *initOptions) error {
	if err := os.MkdirAll(opts.dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	configPath := filepath.Join(opts.dir, config.DefaultPath)
	if _, err := os.Stat(configPath); err == nil && !opts.force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
	}

	defaults := config.DefaultConfig()
	content := fmt.Sprintf(configTemplate, defaults.Discovery.Timeout, opts.dbPath)
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// The written file must load with the same rules the other commands use
	if _, err := config.LoadConfig(configPath); err != nil {
		return err
	}

	dbPath := opts.dbPath
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(opts.dir, dbPath)
	}
	if verbose {
		fmt.Fprintln(cmd.OutOrStdout(), "Initializing database...")
	}
	db, err := database.OpenDatabase(database.DatabaseOptions{
		Path:      dbPath,
		EnableWAL: true,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	database.CloseDatabase(db)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "✓ minitest configuration initialized")
	fmt.Fprintf(out, "\nConfiguration:\n")
	fmt.Fprintf(out, "  Config:   %s\n", configPath)
	fmt.Fprintf(out, "  Database: %s\n", dbPath)
	fmt.Fprintf(out, "\nTo export test cases to CTest, run:\n")
	fmt.Fprintf(out, "  minitest discover --config %s <binary>\n", configPath)

	return nil
}
