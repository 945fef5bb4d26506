package cmd

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/runger/typeahead/internal/config"
)

// captureStdout runs fn and returns everything it wrote to os.Stdout.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("os.Pipe() failed: %v", err)
	}
	os.Stdout = w

	outC := make(chan string)
	go func() {
		var buf bytes.Buffer
		_, _ = io.Copy(&buf, r)
		outC <- buf.String()
	}()

	fn()
	_ = w.Close()
	os.Stdout = old
	out := <-outC
	_ = r.Close()
	return out
}

// withTempConfig writes cfg to a temp file and points the --config flag
// at it for the duration of the test.
func withTempConfig(t *testing.T, cfg *config.Config) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := cfg.SaveToFile(path); err != nil {
		t.Fatalf("SaveToFile error: %v", err)
	}

	old := configPath
	configPath = path
	t.Cleanup(func() { configPath = old })
}

// indexConfig returns a config backed by a throwaway SQLite index.
func indexConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Index.DBPath = filepath.Join(t.TempDir(), "index.db")
	return cfg
}
