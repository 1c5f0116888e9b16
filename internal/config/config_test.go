package config

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadMissingReturnsDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Load()
	if cfg.Board.AutosaveSeconds != 30 {
		t.Errorf("autosave = %d, want default 30", cfg.Board.AutosaveSeconds)
	}
	if cfg.Live.Addr != "127.0.0.1:7474" {
		t.Errorf("live addr = %q", cfg.Live.Addr)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg := Default()
	cfg.Board.AutosaveSeconds = 5
	cfg.Export.Scale = 4.0
	cfg.Live.Enabled = true
	if err := Save(cfg); err != nil {
		t.Fatal(err)
	}

	got := Load()
	if got.Board.AutosaveSeconds != 5 || got.Export.Scale != 4.0 || !got.Live.Enabled {
		t.Errorf("round trip lost values: %+v", got)
	}
}

func TestLoadMalformedFileFallsBackAndLogs(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	path := filepath.Join(dir, "lattice", "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("not [valid toml"), 0o644); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	t.Cleanup(func() { slog.SetDefault(prev) })

	cfg := Load()
	if cfg.Board.AutosaveSeconds != 30 {
		t.Errorf("malformed config did not fall back to defaults")
	}
	if !strings.Contains(buf.String(), "config file unparsable") {
		t.Errorf("parse failure not logged: %q", buf.String())
	}
}

func TestDefaultBoardPath(t *testing.T) {
	cfg := Default()
	cfg.Board.Dir = "/tmp/boards"
	if got := cfg.DefaultBoardPath(); got != filepath.Join("/tmp/boards", "board.json") {
		t.Errorf("DefaultBoardPath = %q", got)
	}
}

func TestEnsureExists(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	if err := EnsureExists(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(configPath()); err != nil {
		t.Errorf("config file not created: %v", err)
	}
	// Second call leaves the existing file alone.
	if err := EnsureExists(); err != nil {
		t.Fatal(err)
	}
}
