//go:build linux

package hotkeyguard

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

func TestInlineDetectorTogglesOnFullComboPress(t *testing.T) {
	d, g, err := NewInlineDetector("Ctrl+Shift+F12", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Observe(processor.KeyEvent{Key: keycode.LeftCtrl, IsPress: true})
	d.Observe(processor.KeyEvent{Key: keycode.LeftShift, IsPress: true})
	if g.Armed() {
		t.Fatal("expected modifiers alone not to arm the guard")
	}

	d.Observe(processor.KeyEvent{Key: keycode.F12, IsPress: true})
	if !g.Armed() {
		t.Fatal("expected the full combo press to arm the guard")
	}
}

func TestInlineDetectorIgnoresTriggerKeyWithoutModifiers(t *testing.T) {
	d, g, err := NewInlineDetector("Ctrl+F12", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Observe(processor.KeyEvent{Key: keycode.F12, IsPress: true})
	if g.Armed() {
		t.Fatal("expected the trigger key alone, without its modifier held, not to arm the guard")
	}
}

func TestInlineDetectorRejectsModifierOnlyCombo(t *testing.T) {
	if _, _, err := NewInlineDetector("Cmd+Option", nil); err == nil {
		t.Fatal("expected an error for a modifier-only combo on Linux")
	}
}

func TestInlineDetectorTogglesOffOnSecondPress(t *testing.T) {
	d, g, err := NewInlineDetector("Ctrl+F12", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d.Observe(processor.KeyEvent{Key: keycode.LeftCtrl, IsPress: true})
	d.Observe(processor.KeyEvent{Key: keycode.F12, IsPress: true})
	d.Observe(processor.KeyEvent{Key: keycode.F12, IsPress: false})
	d.Observe(processor.KeyEvent{Key: keycode.F12, IsPress: true})
	if g.Armed() {
		t.Fatal("expected the second full combo press to disarm the guard")
	}
}
