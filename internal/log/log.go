// Package log provides JSON-lines structured logging for typeahead.
package log

import (
	"io"
	"log/slog"
	"os"
)

// EnvDebug enables debug logging when set to "1".
const EnvDebug = "TYPEAHEAD_DEBUG"

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr)
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo)
	Level slog.Level

	// Debug enables debug level logging (overrides Level)
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a new JSON-lines structured logger. The log format is one
// object per line:
//
//	{"ts":"2026-01-15T10:30:00Z","level":"INFO","msg":"daemon listening","socket":"..."}
//
// Log levels:
//   - debug: verbose (enabled via TYPEAHEAD_DEBUG=1)
//   - info: startup, shutdown, config load
//   - warn: non-fatal issues (failed searches, dropped connections)
//   - error: fatal issues requiring attention
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// NewFromEnv creates a logger configured from environment variables.
// TYPEAHEAD_DEBUG=1 enables debug logging.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv(EnvDebug) == "1" {
		cfg.Debug = true
	}
	return New(cfg)
}

// ParseLevel maps a config string to a slog level. Unknown values fall
// back to info.
func ParseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
