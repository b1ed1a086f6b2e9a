//go:build darwin

package platform

import "github.com/keyrx/keyrxd/internal/keycode"

// darwinTable maps keyrxd's closed keycode.Code enum to the macOS virtual
// key codes from HIToolbox's Events.h (kVK_* constants), extending the
// same numeric space the teacher's hotkey_darwin.go Key constants use for
// its hotkey binding.
var darwinTable = map[keycode.Code]uint16{
	keycode.A: 0x00, keycode.S: 0x01, keycode.D: 0x02, keycode.F: 0x03,
	keycode.H: 0x04, keycode.G: 0x05, keycode.Z: 0x06, keycode.X: 0x07,
	keycode.C: 0x08, keycode.V: 0x09, keycode.B: 0x0B, keycode.Q: 0x0C,
	keycode.W: 0x0D, keycode.E: 0x0E, keycode.R: 0x0F, keycode.Y: 0x10,
	keycode.T: 0x11,
	keycode.Digit1: 0x12, keycode.Digit2: 0x13, keycode.Digit3: 0x14,
	keycode.Digit4: 0x15, keycode.Digit6: 0x16, keycode.Digit5: 0x17,
	keycode.Equal: 0x18, keycode.Digit9: 0x19, keycode.Digit7: 0x1A,
	keycode.Minus: 0x1B, keycode.Digit8: 0x1C, keycode.Digit0: 0x1D,
	keycode.RightBrace: 0x1E, keycode.O: 0x1F, keycode.U: 0x20,
	keycode.LeftBrace: 0x21, keycode.I: 0x22, keycode.P: 0x23,
	keycode.Enter: 0x24, keycode.L: 0x25, keycode.J: 0x26,
	keycode.Apostrophe: 0x27, keycode.K: 0x28, keycode.Semicolon: 0x29,
	keycode.Backslash: 0x2A, keycode.Comma: 0x2B, keycode.Slash: 0x2C,
	keycode.N: 0x2D, keycode.M: 0x2E, keycode.Dot: 0x2F,
	keycode.Tab: 0x30, keycode.Space: 0x31, keycode.Grave: 0x32,
	keycode.Backspace: 0x33, keycode.Escape: 0x35,
	keycode.LeftMeta: 0x37, keycode.LeftShift: 0x38, keycode.CapsLock: 0x39,
	keycode.LeftAlt: 0x3A, keycode.LeftCtrl: 0x3B, keycode.RightShift: 0x3C,
	keycode.RightAlt: 0x3D, keycode.RightCtrl: 0x3E, keycode.RightMeta: 0x36,
	keycode.F17: 0x40,
	keycode.MediaVolumeUp: 0x48, keycode.MediaVolumeDown: 0x49, keycode.MediaMute: 0x4A,
	keycode.F18: 0x4F, keycode.F19: 0x50, keycode.F20: 0x5A,
	keycode.NumpadDot: 0x41, keycode.NumpadAsterisk: 0x43, keycode.NumpadPlus: 0x45,
	keycode.NumLock: 0x47, keycode.NumpadEnter: 0x4C, keycode.NumpadMinus: 0x4E,
	keycode.Numpad0: 0x52, keycode.Numpad1: 0x53, keycode.Numpad2: 0x54,
	keycode.Numpad3: 0x55, keycode.Numpad4: 0x56, keycode.Numpad5: 0x57,
	keycode.Numpad6: 0x58, keycode.Numpad7: 0x59, keycode.Numpad8: 0x5B,
	keycode.Numpad9: 0x5C,
	keycode.F5: 0x60, keycode.F6: 0x61, keycode.F7: 0x62, keycode.F3: 0x63,
	keycode.F8: 0x64, keycode.F9: 0x65, keycode.F11: 0x67, keycode.F13: 0x69,
	keycode.F16: 0x6A, keycode.F14: 0x6B, keycode.F10: 0x6D, keycode.F12: 0x6F,
	keycode.F15: 0x71,
	keycode.Home: 0x73, keycode.PageUp: 0x74, keycode.Delete: 0x75,
	keycode.F4: 0x76, keycode.End: 0x77, keycode.F2: 0x78, keycode.PageDown: 0x79,
	keycode.F1: 0x7A,
	keycode.Left: 0x7B, keycode.Right: 0x7C, keycode.Down: 0x7D, keycode.Up: 0x7E,

	// macOS has no scroll-lock key and no independent media previous/next
	// or play/pause scancodes reachable through CGEventTap the way evdev
	// exposes them; these are left unmapped rather than aliased to a
	// lookalike key, since a wrong injection is worse than a dropped one.
}

var codeFromDarwinTable = func() map[uint16]keycode.Code {
	m := make(map[uint16]keycode.Code, len(darwinTable))
	for k, v := range darwinTable {
		m[v] = k
	}
	return m
}()

func codeFromDarwin(vk uint16) (keycode.Code, bool) {
	c, ok := codeFromDarwinTable[vk]
	return c, ok
}

func darwinFromCode(c keycode.Code) (uint16, bool) {
	v, ok := darwinTable[c]
	return v, ok
}
