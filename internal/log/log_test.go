package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONLinesWithTsKey(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Output: &buf})

	logger.Info("hello", "socket", "/tmp/x.sock")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "hello", entry["msg"])
	assert.Equal(t, "/tmp/x.sock", entry["socket"])
	assert.Contains(t, entry, "ts")
	assert.NotContains(t, entry, "time")
}

func TestNew_DebugSuppressedByDefault(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Output: &buf})

	logger.Debug("hidden")
	assert.Zero(t, buf.Len())
}

func TestNew_DebugFlagEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&Config{Output: &buf, Debug: true})

	logger.Debug("visible")
	assert.NotZero(t, buf.Len())
}

func TestNewFromEnv(t *testing.T) {
	t.Setenv(EnvDebug, "1")
	logger := NewFromEnv()
	assert.True(t, logger.Enabled(nil, slog.LevelDebug))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"bogus", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), tt.in)
	}
}
