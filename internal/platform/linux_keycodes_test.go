//go:build linux

package platform

import (
	"testing"

	evdev "github.com/holoplot/go-evdev"

	"github.com/keyrx/keyrxd/internal/keycode"
)

func TestEvdevTableRoundTrips(t *testing.T) {
	for code := range evdevTable {
		ev, ok := evdevFromCode(code)
		if !ok {
			t.Fatalf("evdevFromCode missing entry for %s", code)
		}
		back, ok := codeFromEvdev(evdev.EvCode(ev))
		if !ok || back != code {
			t.Fatalf("round trip failed for %s: got %s", code, back)
		}
	}
}

func TestUnknownEvdevCodeIsNotRecognized(t *testing.T) {
	if _, ok := codeFromEvdev(evdev.EvCode(65535)); ok {
		t.Fatal("expected no mapping for an unused evdev code")
	}
	if _, ok := evdevFromCode(keycode.Unknown); ok {
		t.Fatal("expected no evdev mapping for keycode.Unknown")
	}
}
