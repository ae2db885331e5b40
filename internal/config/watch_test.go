package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

const watchConfigYAML = `tui:
  theme: default
`

func setupWatchConfig(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(watchConfigYAML), 0o644); err != nil {
		t.Fatal(err)
	}

	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	return path
}

func waitForChange(t *testing.T, ch <-chan *Config, timeout time.Duration) *Config {
	t.Helper()
	select {
	case cfg := <-ch:
		return cfg
	case <-time.After(timeout):
		t.Fatal("timed out waiting for config change")
		return nil
	}
}

func TestWatcher_ReloadsOnChange(t *testing.T) {
	path := setupWatchConfig(t)

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	if err := os.WriteFile(path, []byte("tui:\n  theme: dracula\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := waitForChange(t, changes, 2*time.Second)
	if cfg.TUI.Theme != "dracula" {
		t.Errorf("theme = %q, want dracula", cfg.TUI.Theme)
	}
}

func TestWatcher_IgnoresInvalidEdit(t *testing.T) {
	path := setupWatchConfig(t)

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	// A theme outside the known set fails validation; the callback must
	// not fire for it.
	if err := os.WriteFile(path, []byte("tui:\n  theme: no_such_theme\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-changes:
		t.Errorf("callback fired for invalid config: theme=%q", cfg.TUI.Theme)
	case <-time.After(500 * time.Millisecond):
	}

	// A subsequent valid edit still gets through.
	if err := os.WriteFile(path, []byte("tui:\n  theme: nord\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := waitForChange(t, changes, 2*time.Second)
	if cfg.TUI.Theme != "nord" {
		t.Errorf("theme = %q, want nord", cfg.TUI.Theme)
	}
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	path := setupWatchConfig(t)

	changes := make(chan *Config, 4)
	w, err := NewWatcher(path, func(cfg *Config) {
		changes <- cfg
	})
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	defer w.Stop()
	w.Start()

	other := filepath.Join(filepath.Dir(path), "notes.txt")
	if err := os.WriteFile(other, []byte("unrelated"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-changes:
		t.Error("callback fired for an unrelated file")
	case <-time.After(500 * time.Millisecond):
	}
}

func TestWatcher_Stop(t *testing.T) {
	path := setupWatchConfig(t)

	w, err := NewWatcher(path, nil)
	if err != nil {
		t.Fatalf("NewWatcher failed: %v", err)
	}
	w.Start()
	w.Stop()

	// Writes after Stop must not panic the watch loop.
	if err := os.WriteFile(path, []byte("tui:\n  theme: monokai\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
}
