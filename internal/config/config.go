package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the configuration file used when --config is not given
const DefaultPath = "minitest.yaml"

// Config represents the minitest tool configuration
type Config struct {
	// Discovery of test cases in host binaries
	Discovery DiscoveryConfig `yaml:"discovery"`

	// Out-of-process test runs
	Run RunConfig `yaml:"run"`

	// Run history database
	Database DatabaseConfig `yaml:"database"`

	// Diagnostic logging
	Log LogConfig `yaml:"log"`
}

// DiscoveryConfig represents discovery configuration
type DiscoveryConfig struct {
	Timeout time.Duration `yaml:"timeout"`
	Output  string        `yaml:"output"` // CTest file; empty means search upward from the binary
	Marker  string        `yaml:"marker"` // empty means derived from the binary path
}

// RunConfig represents configuration of the run command
type RunConfig struct {
	Timeout time.Duration `yaml:"timeout"` // per test case, zero disables the limit
	Filter  string        `yaml:"filter"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Path      string `yaml:"path"`
	EnableWAL bool   `yaml:"enable_wal"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn or error
	Format string `yaml:"format"` // text or json
}

var (
	logLevels  = []string{"debug", "info", "warn", "error"}
	logFormats = []string{"text", "json"}
)

// LoadConfig loads configuration from a YAML file
// Fields missing from the file keep their default values
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Discovery.Timeout <= 0 {
		return fmt.Errorf("discovery timeout must be positive: %s", c.Discovery.Timeout)
	}

	if c.Run.Timeout < 0 {
		return fmt.Errorf("run timeout must not be negative: %s", c.Run.Timeout)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if !slices.Contains(logLevels, c.Log.Level) {
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}

	if !slices.Contains(logFormats, c.Log.Format) {
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}

	return nil
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Discovery: DiscoveryConfig{
			Timeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path:      "minitest.db",
			EnableWAL: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SaveConfig saves configuration to a YAML file
func SaveConfig(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
