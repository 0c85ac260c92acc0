// Package config loads and saves gokhd's daemon-level settings. This is
// distinct from the hotkey mapping file (parsed by package parser): this
// file controls the daemon process itself — where to find the mapping
// file, whether to hot-reload, and whether to log debug output. Shell and
// Log.File are loaded and saved but not used by the daemon: commands run
// with the mapping file's `.shell` (default /bin/bash) and debug output
// goes to stderr.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ReloadConfig holds hot-reload settings.
type ReloadConfig struct {
	Enabled    bool `toml:"enabled"`
	DebounceMs int  `toml:"debounce_ms"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Debug bool   `toml:"debug"`
	File  string `toml:"file"`
}

// Config is the top-level daemon configuration.
type Config struct {
	ConfigFile string       `toml:"config_file"`
	Shell      string       `toml:"shell"`
	SocketPath string       `toml:"socket_path"`
	Reload     ReloadConfig `toml:"reload"`
	Log        LogConfig    `toml:"log"`
}

// Default returns a Config populated with all default values.
func Default() *Config {
	return &Config{
		ConfigFile: DefaultMappingsPath(),
		Shell:      "/bin/bash",
		SocketPath: DefaultSocketPath(),
		Reload: ReloadConfig{
			Enabled:    true,
			DebounceMs: 200,
		},
		Log: LogConfig{
			Debug: false,
			File:  "",
		},
	}
}

// DefaultPath returns the default config file path (~/.config/gokhd/gokhd.toml).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gokhd", "gokhd.toml")
}

// DefaultMappingsPath returns the default hotkey-mapping file path
// (~/.config/gokhd/gokhdrc).
func DefaultMappingsPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "gokhd", "gokhdrc")
}

// DefaultSocketPath returns the default socket path. No socket is opened on
// it; the cli derives the daemon's PID file path from it, which the `reload`
// subcommand reads to signal a running daemon.
func DefaultSocketPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/gokhd.sock"
	}
	return filepath.Join(home, ".local", "state", "gokhd", "gokhd.sock")
}

// Save writes the config as TOML to the given path, creating parent
// directories if needed. The write is atomic: data is written to a
// temporary file and renamed into place so a crash mid-write cannot
// corrupt the existing config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".gokhd-config-*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return os.Rename(tmpPath, path)
}

// Load reads the TOML config from path. If the file does not exist,
// it returns the default config without error.
func Load(path string) (*Config, error) {
	cfg := Default()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	_, err = toml.DecodeFile(path, cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
