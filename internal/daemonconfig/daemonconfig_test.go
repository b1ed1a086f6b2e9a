package daemonconfig

import (
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.LogLevel != "info" {
		t.Fatalf("expected default log level \"info\", got %q", cfg.LogLevel)
	}
	if cfg.TUI {
		t.Fatal("expected TUI to default to false")
	}
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keyrxd.toml")
	cfg := Default()
	cfg.LogLevel = "debug"
	cfg.PanicHotkey = "Ctrl+Shift+F12"
	cfg.Devices = []DeviceOverride{{Pattern: "Logitech", Exclusive: false}}

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if got.LogLevel != "debug" || got.PanicHotkey != "Ctrl+Shift+F12" {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if len(got.Devices) != 1 || got.Devices[0].Pattern != "Logitech" || got.Devices[0].Exclusive {
		t.Fatalf("expected device override to round trip, got %+v", got.Devices)
	}
}

func TestDeviceExclusiveDefaultsToTrue(t *testing.T) {
	cfg := Default()
	if !cfg.DeviceExclusive("Unlisted Keyboard") {
		t.Fatal("expected an unlisted device to default to exclusive grab")
	}
}

func TestDeviceExclusiveHonorsOverride(t *testing.T) {
	cfg := Default()
	cfg.Devices = []DeviceOverride{{Pattern: "Built-in", Exclusive: false}}
	if cfg.DeviceExclusive("Built-in Keyboard") {
		t.Fatal("expected the matching override to disable exclusive grab")
	}
	if !cfg.DeviceExclusive("USB Keyboard") {
		t.Fatal("expected a non-matching device to still default to exclusive grab")
	}
}
