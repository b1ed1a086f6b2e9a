//go:build darwin

package platform

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/keycode"
)

func TestDarwinTableRoundTrips(t *testing.T) {
	for code := range darwinTable {
		vk, ok := darwinFromCode(code)
		if !ok {
			t.Fatalf("darwinFromCode missing entry for %s", code)
		}
		back, ok := codeFromDarwin(vk)
		if !ok || back != code {
			t.Fatalf("round trip failed for %s: got %s", code, back)
		}
	}
}

func TestUnknownDarwinCodeIsNotRecognized(t *testing.T) {
	if _, ok := codeFromDarwin(0xFFFF); ok {
		t.Fatal("expected no mapping for an unused virtual key code")
	}
	if _, ok := darwinFromCode(keycode.Unknown); ok {
		t.Fatal("expected no macOS mapping for keycode.Unknown")
	}
}
