//go:build linux

package hotkeyguard

import (
	"log"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

// InlineDetector toggles a Guard by watching the same captured event
// stream the device runtime already reads, rather than opening an
// independent listener: Linux's EVIOCGRAB (internal/platform/linux.go)
// means a second file handle on the same device node would never see a
// key while the runtime holds the grab, so the combo has to be
// recognized inline, ahead of lookup/state/tap-hold, exactly where
// SPEC_FULL.md's library table says "the same feature is implemented
// directly on top of go-evdev instead".
type InlineDetector struct {
	guard   *Guard
	mods    []keycode.Code
	key     keycode.Code
	pressed map[keycode.Code]bool
}

// NewInlineDetector parses combo and builds a detector plus its Guard.
// Linux recognizes only modifier+key combos, not bare modifier-only
// combos (those need a flags-changed style event the plain press/release
// stream here doesn't carry). The macOS/Windows backend (external.go)
// rejects modifier-only combos as well.
func NewInlineDetector(combo string, logger *log.Logger) (*InlineDetector, *Guard, error) {
	mods, key, name, err := ParseCombo(combo)
	if err != nil {
		return nil, nil, err
	}
	if key == keycode.Unknown {
		return nil, nil, errModifierOnlyUnsupported(combo)
	}
	g := New(name, logger)
	return &InlineDetector{guard: g, mods: mods, key: key, pressed: make(map[keycode.Code]bool)}, g, nil
}

// Guard returns the detector's Guard, satisfying runtime.PanicGuard.
func (d *InlineDetector) Guard() *Guard { return d.guard }

func (d *InlineDetector) allModsHeld() bool {
	for _, m := range d.mods {
		if !d.pressed[m] {
			return false
		}
	}
	return true
}

// Observe feeds one captured event into the combo detector, toggling the
// guard on a fresh press of the trigger key while every configured
// modifier is already held.
func (d *InlineDetector) Observe(ev processor.KeyEvent) {
	if ev.IsPress {
		d.pressed[ev.Key] = true
	} else {
		delete(d.pressed, ev.Key)
	}

	if ev.IsPress && ev.Key == d.key && d.allModsHeld() {
		d.guard.Toggle()
	}
}

type comboError string

func (e comboError) Error() string { return string(e) }

func errModifierOnlyUnsupported(combo string) error {
	return comboError("hotkeyguard: panic_hotkey " + combo + " is modifier-only, which Linux's inline detector cannot recognize; add a trigger key (e.g. Ctrl+Shift+F12)")
}
