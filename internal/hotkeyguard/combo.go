// Package hotkeyguard implements the panic_hotkey bypass (SPEC_FULL.md
// §2.1, §5.I, GLOSSARY "Panic hotkey"): a dedicated, non-profile combo
// that forces every device runtime into passthrough-only mode without
// tearing down the daemon, for recovering from a bad profile without a
// restart.
package hotkeyguard

import (
	"fmt"
	"strings"

	"github.com/keyrx/keyrxd/internal/keycode"
)

// modifierAliases maps the combo-string spellings a user is likely to
// type to their canonical keycode.Code, grounded on the teacher's own
// hotkey.modifierMap (internal/hotkey/hotkey_darwin.go) but keyed by the
// platform-independent keycode set rather than a CGEvent flag mask.
var modifierAliases = map[string]keycode.Code{
	"CTRL":    keycode.LeftCtrl,
	"CONTROL": keycode.LeftCtrl,
	"SHIFT":   keycode.LeftShift,
	"ALT":     keycode.LeftAlt,
	"OPTION":  keycode.LeftAlt,
	"CMD":     keycode.LeftMeta,
	"COMMAND": keycode.LeftMeta,
	"WIN":     keycode.LeftMeta,
	"SUPER":   keycode.LeftMeta,
	"META":    keycode.LeftMeta,
}

// digitAliases lets a combo spell a digit key as "0".."9" instead of the
// config container's canonical "Digit0".."Digit9".
var digitAliases = map[string]keycode.Code{
	"0": keycode.Digit0, "1": keycode.Digit1, "2": keycode.Digit2,
	"3": keycode.Digit3, "4": keycode.Digit4, "5": keycode.Digit5,
	"6": keycode.Digit6, "7": keycode.Digit7, "8": keycode.Digit8,
	"9": keycode.Digit9,
}

// resolveKey looks up a non-modifier combo part by its canonical keycode
// name, trying the part as written, fully upper-cased, and capitalized
// ("f12", "space" work; "pageup" does not match "PageUp"), or by one of
// the digit aliases above.
func resolveKey(part string) (keycode.Code, bool) {
	if part == "" {
		return 0, false
	}
	if c, ok := digitAliases[part]; ok {
		return c, true
	}
	upper := strings.ToUpper(part)
	for _, candidate := range []string{part, upper, strings.ToUpper(part[:1]) + strings.ToLower(part[1:])} {
		if c, ok := keycode.FromName(candidate); ok {
			return c, true
		}
	}
	return 0, false
}

// ParseCombo parses a combo string like "Ctrl+Shift+F12" or "Cmd+Option"
// (modifier-only) into its modifier codes, trigger key, and display name,
// mirroring the shape of the teacher's ParseHotkeyCombo
// (internal/hotkey/hotkey_darwin.go) generalized to the cross-platform
// keycode set instead of a macOS-only Modifier/Key pair. A modifier-only
// combo returns key == keycode.Unknown.
func ParseCombo(combo string) (mods []keycode.Code, key keycode.Code, name string, err error) {
	trimmed := strings.TrimSpace(combo)
	if trimmed == "" {
		return nil, 0, "", fmt.Errorf("hotkeyguard: empty panic_hotkey combo")
	}

	parts := strings.Split(trimmed, "+")
	if len(parts) < 2 {
		return nil, 0, "", fmt.Errorf("hotkeyguard: panic_hotkey must be modifier+key or modifier+modifier (e.g. Ctrl+Shift+F12), got %q", combo)
	}

	lastUpper := strings.ToUpper(strings.TrimSpace(parts[len(parts)-1]))
	if _, isMod := modifierAliases[lastUpper]; isMod {
		for _, p := range parts {
			m, ok := modifierAliases[strings.ToUpper(strings.TrimSpace(p))]
			if !ok {
				return nil, 0, "", fmt.Errorf("hotkeyguard: unknown modifier %q in panic_hotkey %q", p, combo)
			}
			mods = append(mods, m)
		}
		return mods, keycode.Unknown, trimmed, nil
	}

	for _, p := range parts[:len(parts)-1] {
		m, ok := modifierAliases[strings.ToUpper(strings.TrimSpace(p))]
		if !ok {
			return nil, 0, "", fmt.Errorf("hotkeyguard: unknown modifier %q in panic_hotkey %q", p, combo)
		}
		mods = append(mods, m)
	}

	key, ok := resolveKey(strings.TrimSpace(parts[len(parts)-1]))
	if !ok {
		return nil, 0, "", fmt.Errorf("hotkeyguard: unknown key %q in panic_hotkey %q", parts[len(parts)-1], combo)
	}
	return mods, key, trimmed, nil
}
