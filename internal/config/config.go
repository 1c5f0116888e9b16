// Package config loads and saves lattice configuration from the XDG config
// directory.
package config

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds lattice configuration.
type Config struct {
	Board  BoardConfig  `toml:"board"`
	Export ExportConfig `toml:"export"`
	Live   LiveConfig   `toml:"live"`
	Log    LogConfig    `toml:"log"`
}

// BoardConfig controls editing and autosave behavior.
type BoardConfig struct {
	Dir             string `toml:"dir"`              // default board location when no path argument is given
	AutosaveSeconds int    `toml:"autosave_seconds"` // 0 disables autosave
}

// ExportConfig controls PNG export.
type ExportConfig struct {
	Scale      float64 `toml:"scale"`
	Background string  `toml:"background"`
}

// LiveConfig controls the live snapshot server and blueprint watching.
type LiveConfig struct {
	Enabled bool   `toml:"enabled"`
	Addr    string `toml:"addr"`
	Watch   bool   `toml:"watch"` // reload the board when its file changes
}

// LogConfig controls diagnostic output.
type LogConfig struct {
	Level string `toml:"level"` // "debug", "info", "warn", "error"
	File  string `toml:"file"`  // empty logs to stderr
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Board:  BoardConfig{Dir: defaultBoardDir(), AutosaveSeconds: 30},
		Export: ExportConfig{Scale: 2.0, Background: "#1e1e2e"},
		Live:   LiveConfig{Enabled: false, Addr: "127.0.0.1:7474", Watch: true},
		Log:    LogConfig{Level: "info"},
	}
}

func defaultBoardDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "lattice")
}

// ConfigDir returns the lattice config directory path.
func ConfigDir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "lattice")
}

func configPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file, falling back to defaults if it doesn't exist
// or fails to parse.
func Load() *Config {
	cfg := Default()
	data, err := os.ReadFile(configPath())
	if err != nil {
		return cfg
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		slog.Warn("config file unparsable, using defaults", "path", configPath(), "err", err)
		return Default()
	}
	return cfg
}

// DefaultBoardPath is the board file used when no path argument is given.
func (c *Config) DefaultBoardPath() string {
	return filepath.Join(c.Board.Dir, "board.json")
}

// Save writes the config to disk.
func Save(cfg *Config) error {
	path := configPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

// EnsureExists creates the config file with defaults if it doesn't exist.
func EnsureExists() error {
	if _, err := os.Stat(configPath()); err == nil {
		return nil
	}
	return Save(Default())
}
