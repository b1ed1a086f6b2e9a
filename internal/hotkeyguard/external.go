//go:build darwin || windows

package hotkeyguard

import (
	"context"
	"fmt"
	"log"

	"golang.design/x/hotkey"

	"github.com/keyrx/keyrxd/internal/keycode"
)

// ExternalListener registers the panic_hotkey as an OS-level global
// hotkey via golang.design/x/hotkey, independent of the capture tap
// (SPEC_FULL.md §5: "it must keep working even if the tap itself is
// misbehaving"). Unlike Linux's InlineDetector, it needs no access to
// the captured event stream at all.
type ExternalListener struct {
	hk    *hotkey.Hotkey
	guard *Guard
}

// modKeycodeToHotkey translates the modifier keycodes ParseCombo returns
// into golang.design/x/hotkey's Modifier enum.
var modKeycodeToHotkey = map[keycode.Code]hotkey.Modifier{
	keycode.LeftCtrl:  hotkey.ModCtrl,
	keycode.LeftShift: hotkey.ModShift,
	keycode.LeftAlt:   hotkey.ModOption,
	keycode.LeftMeta:  hotkey.ModCmd,
}

// triggerKeycodeToHotkey covers the subset of keys a panic hotkey
// realistically needs: letters, digits, and function keys, the same
// subset the teacher's own keyMap (internal/hotkey/hotkey_darwin.go)
// exposes.
var triggerKeycodeToHotkey = map[keycode.Code]hotkey.Key{
	keycode.A: hotkey.KeyA, keycode.B: hotkey.KeyB, keycode.C: hotkey.KeyC,
	keycode.D: hotkey.KeyD, keycode.E: hotkey.KeyE, keycode.F: hotkey.KeyF,
	keycode.G: hotkey.KeyG, keycode.H: hotkey.KeyH, keycode.I: hotkey.KeyI,
	keycode.J: hotkey.KeyJ, keycode.K: hotkey.KeyK, keycode.L: hotkey.KeyL,
	keycode.M: hotkey.KeyM, keycode.N: hotkey.KeyN, keycode.O: hotkey.KeyO,
	keycode.P: hotkey.KeyP, keycode.Q: hotkey.KeyQ, keycode.R: hotkey.KeyR,
	keycode.S: hotkey.KeyS, keycode.T: hotkey.KeyT, keycode.U: hotkey.KeyU,
	keycode.V: hotkey.KeyV, keycode.W: hotkey.KeyW, keycode.X: hotkey.KeyX,
	keycode.Y: hotkey.KeyY, keycode.Z: hotkey.KeyZ,
	keycode.Digit0: hotkey.Key0, keycode.Digit1: hotkey.Key1, keycode.Digit2: hotkey.Key2,
	keycode.Digit3: hotkey.Key3, keycode.Digit4: hotkey.Key4, keycode.Digit5: hotkey.Key5,
	keycode.Digit6: hotkey.Key6, keycode.Digit7: hotkey.Key7, keycode.Digit8: hotkey.Key8,
	keycode.Digit9: hotkey.Key9,
	keycode.F1: hotkey.KeyF1, keycode.F2: hotkey.KeyF2, keycode.F3: hotkey.KeyF3,
	keycode.F4: hotkey.KeyF4, keycode.F5: hotkey.KeyF5, keycode.F6: hotkey.KeyF6,
	keycode.F7: hotkey.KeyF7, keycode.F8: hotkey.KeyF8, keycode.F9: hotkey.KeyF9,
	keycode.F10: hotkey.KeyF10, keycode.F11: hotkey.KeyF11, keycode.F12: hotkey.KeyF12,
	keycode.Space: hotkey.KeySpace,
}

// NewExternalListener parses combo and builds the registered hotkey plus
// its Guard. Modifier-only combos (key == keycode.Unknown) aren't
// supported here either: golang.design/x/hotkey registers a concrete
// trigger key, it doesn't expose a bare modifier-chord event.
func NewExternalListener(combo string, logger *log.Logger) (*ExternalListener, *Guard, error) {
	mods, key, name, err := ParseCombo(combo)
	if err != nil {
		return nil, nil, err
	}
	if key == keycode.Unknown {
		return nil, nil, fmt.Errorf("hotkeyguard: panic_hotkey %s must include a trigger key, not modifiers only", combo)
	}

	hkMods := make([]hotkey.Modifier, 0, len(mods))
	for _, m := range mods {
		hm, ok := modKeycodeToHotkey[m]
		if !ok {
			return nil, nil, fmt.Errorf("hotkeyguard: modifier %s has no OS hotkey equivalent", m)
		}
		hkMods = append(hkMods, hm)
	}
	hkKey, ok := triggerKeycodeToHotkey[key]
	if !ok {
		return nil, nil, fmt.Errorf("hotkeyguard: key %s is not supported as a panic_hotkey trigger", key)
	}

	g := New(name, logger)
	return &ExternalListener{hk: hotkey.New(hkMods, hkKey), guard: g}, g, nil
}

// Guard returns the listener's Guard, satisfying runtime.PanicGuard.
func (l *ExternalListener) Guard() *Guard { return l.guard }

// Run registers the hotkey and toggles the guard on every keydown until
// ctx is canceled, at which point it unregisters and returns.
func (l *ExternalListener) Run(ctx context.Context) error {
	if err := l.hk.Register(); err != nil {
		return fmt.Errorf("hotkeyguard: register panic_hotkey: %w", err)
	}
	defer l.hk.Unregister()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-l.hk.Keydown():
			l.guard.Toggle()
		}
	}
}
