package hotkeyguard

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/keycode"
)

func TestParseComboModifierPlusKey(t *testing.T) {
	mods, key, name, err := ParseCombo("Ctrl+Shift+F12")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mods) != 2 || mods[0] != keycode.LeftCtrl || mods[1] != keycode.LeftShift {
		t.Fatalf("unexpected mods: %+v", mods)
	}
	if key != keycode.F12 {
		t.Fatalf("expected F12, got %v", key)
	}
	if name != "Ctrl+Shift+F12" {
		t.Fatalf("expected name preserved verbatim, got %q", name)
	}
}

func TestParseComboDigitAlias(t *testing.T) {
	_, key, _, err := ParseCombo("Ctrl+5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != keycode.Digit5 {
		t.Fatalf("expected Digit5, got %v", key)
	}
}

func TestParseComboModifierOnly(t *testing.T) {
	mods, key, _, err := ParseCombo("Cmd+Option")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key != keycode.Unknown {
		t.Fatalf("expected modifier-only combo to report Unknown key, got %v", key)
	}
	if len(mods) != 2 {
		t.Fatalf("expected 2 modifiers, got %+v", mods)
	}
}

func TestParseComboRejectsBareKey(t *testing.T) {
	if _, _, _, err := ParseCombo("Space"); err == nil {
		t.Fatal("expected an error for a combo with no modifier")
	}
}

func TestParseComboRejectsUnknownModifier(t *testing.T) {
	if _, _, _, err := ParseCombo("Hyper+Space"); err == nil {
		t.Fatal("expected an error for an unrecognized modifier")
	}
}

func TestParseComboRejectsUnknownKey(t *testing.T) {
	if _, _, _, err := ParseCombo("Ctrl+Nonexistent"); err == nil {
		t.Fatal("expected an error for an unrecognized key")
	}
}

func TestParseComboRejectsEmpty(t *testing.T) {
	if _, _, _, err := ParseCombo(""); err == nil {
		t.Fatal("expected an error for an empty combo")
	}
}

func TestParseComboRejectsTrailingSeparator(t *testing.T) {
	if _, _, _, err := ParseCombo("Ctrl+Shift+"); err == nil {
		t.Fatal("expected an error for a combo with a trailing '+' and no key, not a panic")
	}
}
