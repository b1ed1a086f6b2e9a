//go:build windows

package platform

import "github.com/keyrx/keyrxd/internal/keycode"

// scancodeEntry pairs a PC/AT scan code set 1 make code with whether the
// key carries the E0 escape prefix, mirroring the scancode | 0xE000
// convention the original rawinput.rs uses for is_e0 keys.
type scancodeEntry struct {
	code     uint32
	extended bool
}

// scancodeTable maps keyrxd's keycode.Code enum to PC/AT scan code set 1,
// the set Raw Input reports through RAWKEYBOARD.MakeCode/Flags. From
// Escape through F12 the base (non-extended) values line up with the evdev
// numbering in linux_keycodes.go: both are derived from the same historical
// AT keyboard controller scancode set. F13-F24 and Pause do not line up.
var scancodeTable = map[keycode.Code]scancodeEntry{
	keycode.Escape: {0x01, false},
	keycode.Digit1: {0x02, false}, keycode.Digit2: {0x03, false}, keycode.Digit3: {0x04, false},
	keycode.Digit4: {0x05, false}, keycode.Digit5: {0x06, false}, keycode.Digit6: {0x07, false},
	keycode.Digit7: {0x08, false}, keycode.Digit8: {0x09, false}, keycode.Digit9: {0x0A, false},
	keycode.Digit0: {0x0B, false},
	keycode.Minus:  {0x0C, false}, keycode.Equal: {0x0D, false}, keycode.Backspace: {0x0E, false},
	keycode.Tab: {0x0F, false},
	keycode.Q: {0x10, false}, keycode.W: {0x11, false}, keycode.E: {0x12, false}, keycode.R: {0x13, false},
	keycode.T: {0x14, false}, keycode.Y: {0x15, false}, keycode.U: {0x16, false}, keycode.I: {0x17, false},
	keycode.O: {0x18, false}, keycode.P: {0x19, false},
	keycode.LeftBrace: {0x1A, false}, keycode.RightBrace: {0x1B, false}, keycode.Enter: {0x1C, false},
	keycode.LeftCtrl: {0x1D, false},
	keycode.A: {0x1E, false}, keycode.S: {0x1F, false}, keycode.D: {0x20, false}, keycode.F: {0x21, false},
	keycode.G: {0x22, false}, keycode.H: {0x23, false}, keycode.J: {0x24, false}, keycode.K: {0x25, false},
	keycode.L: {0x26, false},
	keycode.Semicolon: {0x27, false}, keycode.Apostrophe: {0x28, false}, keycode.Grave: {0x29, false},
	keycode.LeftShift: {0x2A, false}, keycode.Backslash: {0x2B, false},
	keycode.Z: {0x2C, false}, keycode.X: {0x2D, false}, keycode.C: {0x2E, false}, keycode.V: {0x2F, false},
	keycode.B: {0x30, false}, keycode.N: {0x31, false}, keycode.M: {0x32, false},
	keycode.Comma: {0x33, false}, keycode.Dot: {0x34, false}, keycode.Slash: {0x35, false},
	keycode.RightShift: {0x36, false},
	keycode.NumpadAsterisk: {0x37, false}, keycode.LeftAlt: {0x38, false}, keycode.Space: {0x39, false},
	keycode.CapsLock: {0x3A, false},
	keycode.F1: {0x3B, false}, keycode.F2: {0x3C, false}, keycode.F3: {0x3D, false}, keycode.F4: {0x3E, false},
	keycode.F5: {0x3F, false}, keycode.F6: {0x40, false}, keycode.F7: {0x41, false}, keycode.F8: {0x42, false},
	keycode.F9: {0x43, false}, keycode.F10: {0x44, false},
	keycode.NumLock: {0x45, true}, keycode.ScrollLock: {0x46, false},
	keycode.Numpad7: {0x47, false}, keycode.Numpad8: {0x48, false}, keycode.Numpad9: {0x49, false},
	keycode.NumpadMinus: {0x4A, false},
	keycode.Numpad4: {0x4B, false}, keycode.Numpad5: {0x4C, false}, keycode.Numpad6: {0x4D, false},
	keycode.NumpadPlus: {0x4E, false},
	keycode.Numpad1: {0x4F, false}, keycode.Numpad2: {0x50, false}, keycode.Numpad3: {0x51, false},
	keycode.Numpad0: {0x52, false}, keycode.NumpadDot: {0x53, false},
	keycode.F11: {0x57, false}, keycode.F12: {0x58, false},
	keycode.F13: {0x64, false}, keycode.F14: {0x65, false}, keycode.F15: {0x66, false},
	keycode.F16: {0x67, false}, keycode.F17: {0x68, false}, keycode.F18: {0x69, false},
	keycode.F19: {0x6A, false}, keycode.F20: {0x6B, false}, keycode.F21: {0x6C, false},
	keycode.F22: {0x6D, false}, keycode.F23: {0x6E, false}, keycode.F24: {0x76, false},

	// Extended (E0-prefixed) keys.
	keycode.NumpadEnter: {0x1C, true}, keycode.RightCtrl: {0x1D, true},
	keycode.RightAlt: {0x38, true},
	keycode.Home: {0x47, true}, keycode.Up: {0x48, true}, keycode.PageUp: {0x49, true},
	keycode.Left: {0x4B, true}, keycode.Right: {0x4D, true},
	keycode.End: {0x4F, true}, keycode.Down: {0x50, true}, keycode.PageDown: {0x51, true},
	keycode.Insert: {0x52, true}, keycode.Delete: {0x53, true},
	keycode.LeftMeta: {0x5B, true}, keycode.RightMeta: {0x5C, true}, keycode.Menu: {0x5D, true},
	keycode.MediaPrev: {0x10, true}, keycode.MediaNext: {0x19, true}, keycode.MediaMute: {0x20, true},
	keycode.MediaPlayPause: {0x22, true}, keycode.MediaVolumeDown: {0x2E, true},
	keycode.MediaVolumeUp: {0x30, true},
	keycode.Pause: {0x45, false}, keycode.PrintScreen: {0x37, true},
}

var codeFromScancodeTable = func() map[uint32]keycode.Code {
	m := make(map[uint32]keycode.Code, len(scancodeTable))
	for k, v := range scancodeTable {
		key := v.code
		if v.extended {
			key |= 0xE000
		}
		m[key] = k
	}
	return m
}()

func codeFromScancode(sc uint32) (keycode.Code, bool) {
	c, ok := codeFromScancodeTable[sc]
	return c, ok
}

func scancodeFromCode(c keycode.Code) (uint32, bool, bool) {
	e, ok := scancodeTable[c]
	return e.code, e.extended, ok
}
