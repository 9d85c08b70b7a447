// Package config provides configuration management.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"uncertainty-budget/internal/errors"
	"uncertainty-budget/internal/logging"
)

// Storage backends understood by adapters/storage.
const (
	BackendMemory   = "memory"
	BackendFile     = "file"
	BackendPostgres = "postgres"
)

// Environment variables that override the file.
const (
	EnvStorageDSN = "UBUDGET_STORAGE_DSN"
	EnvAddr       = "UBUDGET_ADDR"
)

// Config is the main application configuration
type Config struct {
	// Version is the configuration version
	Version string `json:"version"`

	// Server contains HTTP server configuration
	Server ServerConfig `json:"server"`

	// Storage selects where instruments and calculations are kept
	Storage StorageConfig `json:"storage"`

	// Output contains output configuration
	Output OutputConfig `json:"output"`

	// Logging contains logging configuration
	Logging logging.Config `json:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	// Addr is the listen address
	Addr string `json:"addr"`
}

// StorageConfig contains storage settings
type StorageConfig struct {
	// Backend is one of memory, file, postgres
	Backend string `json:"backend"`

	// Directory is the root of the file backend
	Directory string `json:"directory,omitempty"`

	// DSN is the postgres connection string
	DSN string `json:"dsn,omitempty"`
}

// OutputConfig contains output-related settings
type OutputConfig struct {
	// Format is the default output format (table, json)
	Format string `json:"format"`

	// SignificantFigures used when rendering derived values
	SignificantFigures int `json:"significant_figures"`

	// NoColor disables terminal colours
	NoColor bool `json:"no_color"`
}

// Default returns a default configuration
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	dataDir := filepath.Join(homeDir, ".ubudget", "data")

	return &Config{
		Version: "1.0",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Storage: StorageConfig{
			Backend:   BackendFile,
			Directory: dataDir,
		},
		Output: OutputConfig{
			Format:             "table",
			SignificantFigures: 4,
		},
		Logging: logging.DefaultConfig(),
	}
}

// Load loads configuration from a file
func Load(path string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, errors.Wrap(errors.TypeConfig, "read config", err)
		}
	} else if err := json.Unmarshal(data, config); err != nil {
		return nil, errors.Wrap(errors.TypeConfig, "parse config "+path, err)
	}

	config.applyEnv()
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func (c *Config) applyEnv() {
	if dsn := os.Getenv(EnvStorageDSN); dsn != "" {
		c.Storage.Backend = BackendPostgres
		c.Storage.DSN = dsn
	}
	if addr := os.Getenv(EnvAddr); addr != "" {
		c.Server.Addr = addr
	}
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendMemory:
	case BackendFile:
		if c.Storage.Directory == "" {
			return errors.New(errors.TypeConfig, "storage.directory is required for the file backend")
		}
	case BackendPostgres:
		if c.Storage.DSN == "" {
			return errors.New(errors.TypeConfig, "storage.dsn is required for the postgres backend")
		}
	default:
		return errors.Newf(errors.TypeConfig, "unknown storage backend %q", c.Storage.Backend)
	}

	switch c.Output.Format {
	case "table", "json":
	default:
		return errors.Newf(errors.TypeConfig, "unknown output format %q", c.Output.Format)
	}
	if c.Output.SignificantFigures < 1 || c.Output.SignificantFigures > 15 {
		return errors.Newf(errors.TypeConfig, "output.significant_figures must be 1..15, got %d", c.Output.SignificantFigures)
	}
	return nil
}

// Save saves configuration to a file
func (c *Config) Save(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultPath is $HOME/.ubudget.json
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".ubudget.json")
}

// Global configuration instance
var globalConfig = Default()

// Get returns the global configuration
func Get() *Config {
	return globalConfig
}

// Set sets the global configuration
func Set(config *Config) {
	globalConfig = config
}
