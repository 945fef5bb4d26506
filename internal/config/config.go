// Package config loads and validates the typeahead configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Provider type names accepted in ProviderConfig.Type.
const (
	ProviderIndex  = "index"
	ProviderDaemon = "daemon"
	ProviderExec   = "exec"
)

// Config represents the typeahead configuration.
type Config struct {
	Pipeline PipelineConfig `yaml:"pipeline"`
	Provider ProviderConfig `yaml:"provider"`
	Index    IndexConfig    `yaml:"index"`
	Daemon   DaemonConfig   `yaml:"daemon"`
	Exec     ExecConfig     `yaml:"exec"`
}

// PipelineConfig holds the stream-pipeline settings.
type PipelineConfig struct {
	DebounceMs int `yaml:"debounce_ms"` // Quiet period before a term is searched
	Limit      int `yaml:"limit"`       // Max hits per search
}

// ProviderConfig selects the search backend.
type ProviderConfig struct {
	Type string `yaml:"type"` // index, daemon, or exec
}

// IndexConfig holds local index settings.
type IndexConfig struct {
	DBPath string `yaml:"db_path"` // SQLite database path (empty = default)
}

// DaemonConfig holds daemon-related settings.
type DaemonConfig struct {
	SocketPath string `yaml:"socket_path"` // Unix socket path (empty = default)
	LogLevel   string `yaml:"log_level"`   // debug, info, warn, error
}

// ExecConfig holds external-command provider settings.
type ExecConfig struct {
	Command string `yaml:"command"` // Command template, e.g. "rg --smart-case -l {query}"
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	return &Config{
		Pipeline: PipelineConfig{
			DebounceMs: 250,
			Limit:      20,
		},
		Provider: ProviderConfig{
			Type: ProviderIndex,
		},
		Daemon: DaemonConfig{
			LogLevel: "info",
		},
	}
}

// DefaultPath returns the default config file path
// (~/.config/typeahead/config.yaml).
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "typeahead", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "typeahead", "config.yaml"), nil
}

// Load reads the config from the default path. A missing file is not an
// error: defaults are returned.
func Load() (*Config, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return LoadFromFile(path)
}

// LoadFromFile reads the config from path. A missing file returns the
// defaults; a malformed file is an error.
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks config invariants and fills zero values with defaults.
func (c *Config) Validate() error {
	if c.Pipeline.DebounceMs < 0 {
		return errors.New("pipeline.debounce_ms must not be negative")
	}
	if c.Pipeline.DebounceMs == 0 {
		c.Pipeline.DebounceMs = 250
	}
	if c.Pipeline.Limit < 0 {
		return errors.New("pipeline.limit must not be negative")
	}
	if c.Pipeline.Limit == 0 {
		c.Pipeline.Limit = 20
	}

	switch c.Provider.Type {
	case "", ProviderIndex:
		c.Provider.Type = ProviderIndex
	case ProviderDaemon:
	case ProviderExec:
		if c.Exec.Command == "" {
			return errors.New("provider.type is exec but exec.command is empty")
		}
	default:
		return fmt.Errorf("unknown provider.type %q", c.Provider.Type)
	}

	switch c.Daemon.LogLevel {
	case "":
		c.Daemon.LogLevel = "info"
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown daemon.log_level %q", c.Daemon.LogLevel)
	}

	return nil
}

// Save writes the config to the default path, creating directories as
// needed.
func (c *Config) Save() error {
	path, err := DefaultPath()
	if err != nil {
		return err
	}
	return c.SaveToFile(path)
}

// SaveToFile writes the config to path.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
