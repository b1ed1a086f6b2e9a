// Package daemonconfig holds keyrxd's own small daemon-level TOML
// config (SPEC_FULL.md §2.1) — where to find the compiled profile, how
// verbose to log, per-device grab overrides, the panic hotkey, and
// whether to render the foreground TUI. This is distinct from
// internal/config, which models the compiled profile itself.
package daemonconfig

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// DeviceOverride lets an operator exclude a device pattern from being
// grabbed at all (exclusive=false), for a keyboard that must stay usable
// by the window manager while profiles are being developed.
type DeviceOverride struct {
	Pattern   string `toml:"pattern"`
	Exclusive bool   `toml:"exclusive"`
}

// Config is keyrxd's top-level daemon configuration.
type Config struct {
	ProfilePath string           `toml:"profile_path"`
	LogLevel    string           `toml:"log_level"` // "debug" | "info" | "trace"
	Devices     []DeviceOverride `toml:"devices"`
	PanicHotkey string           `toml:"panic_hotkey"`
	TUI         bool             `toml:"tui"`
}

// Default returns a Config with every field set to its default value.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		ProfilePath: filepath.Join(home, ".config", "keyrxd", "default.krx"),
		LogLevel:    "info",
		Devices:     nil,
		PanicHotkey: "",
		TUI:         false,
	}
}

// DefaultPath returns ~/.config/keyrxd/keyrxd.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "keyrxd", "keyrxd.toml")
}

// Load reads the TOML config at path, returning Default() unmodified if
// the file doesn't exist yet.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg as TOML to path atomically: written to a temp file in
// the same directory, then renamed into place, so a crash mid-write
// never corrupts the existing config.
func Save(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".keyrxd-config-*.tmp")
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

// DeviceExclusive reports whether deviceName should be grabbed
// exclusively, honoring the first matching override and defaulting to
// true (spec.md §6: capture must suppress the original event) when
// nothing overrides it.
func (c *Config) DeviceExclusive(deviceName string) bool {
	for _, o := range c.Devices {
		if matchPattern(o.Pattern, deviceName) {
			return o.Exclusive
		}
	}
	return true
}

// matchPattern is a minimal glob: "*" matches everything, otherwise the
// pattern must appear as a substring, mirroring
// config.DeviceIdentifier.Matches in internal/config/mappings.go.
func matchPattern(pattern, deviceName string) bool {
	if pattern == "" || pattern == "*" {
		return true
	}
	return strings.Contains(deviceName, pattern)
}
