//go:build linux

package platform

import (
	evdev "github.com/holoplot/go-evdev"

	"github.com/keyrx/keyrxd/internal/keycode"
)

// evdevTable maps keyrxd's closed keycode.Code enum to Linux evdev key
// codes (include/uapi/linux/input-event-codes.h), the same numeric space
// the teacher's own keyNameMap uses for its hotkey binding.
var evdevTable = map[keycode.Code]uint16{
	keycode.Escape: 1,
	keycode.Digit1: 2, keycode.Digit2: 3, keycode.Digit3: 4, keycode.Digit4: 5,
	keycode.Digit5: 6, keycode.Digit6: 7, keycode.Digit7: 8, keycode.Digit8: 9,
	keycode.Digit9: 10, keycode.Digit0: 11,
	keycode.Minus: 12, keycode.Equal: 13, keycode.Backspace: 14, keycode.Tab: 15,
	keycode.Q: 16, keycode.W: 17, keycode.E: 18, keycode.R: 19, keycode.T: 20,
	keycode.Y: 21, keycode.U: 22, keycode.I: 23, keycode.O: 24, keycode.P: 25,
	keycode.LeftBrace: 26, keycode.RightBrace: 27, keycode.Enter: 28, keycode.LeftCtrl: 29,
	keycode.A: 30, keycode.S: 31, keycode.D: 32, keycode.F: 33, keycode.G: 34,
	keycode.H: 35, keycode.J: 36, keycode.K: 37, keycode.L: 38,
	keycode.Semicolon: 39, keycode.Apostrophe: 40, keycode.Grave: 41, keycode.LeftShift: 42,
	keycode.Backslash: 43,
	keycode.Z: 44, keycode.X: 45, keycode.C: 46, keycode.V: 47, keycode.B: 48,
	keycode.N: 49, keycode.M: 50,
	keycode.Comma: 51, keycode.Dot: 52, keycode.Slash: 53, keycode.RightShift: 54,
	keycode.NumpadAsterisk: 55, keycode.LeftAlt: 56, keycode.Space: 57, keycode.CapsLock: 58,
	keycode.F1: 59, keycode.F2: 60, keycode.F3: 61, keycode.F4: 62, keycode.F5: 63,
	keycode.F6: 64, keycode.F7: 65, keycode.F8: 66, keycode.F9: 67, keycode.F10: 68,
	keycode.NumLock: 69, keycode.ScrollLock: 70,
	keycode.Numpad7: 71, keycode.Numpad8: 72, keycode.Numpad9: 73, keycode.NumpadMinus: 74,
	keycode.Numpad4: 75, keycode.Numpad5: 76, keycode.Numpad6: 77, keycode.NumpadPlus: 78,
	keycode.Numpad1: 79, keycode.Numpad2: 80, keycode.Numpad3: 81, keycode.Numpad0: 82,
	keycode.NumpadDot: 83,
	keycode.F11: 87, keycode.F12: 88,
	keycode.NumpadEnter: 96, keycode.RightCtrl: 97,
	keycode.PrintScreen: 99,
	keycode.RightAlt: 100,
	keycode.Home: 102, keycode.Up: 103, keycode.PageUp: 104, keycode.Left: 105,
	keycode.Right: 106, keycode.End: 107, keycode.Down: 108, keycode.PageDown: 109,
	keycode.Insert: 110, keycode.Delete: 111,
	keycode.MediaMute: 113, keycode.MediaVolumeDown: 114, keycode.MediaVolumeUp: 115,
	keycode.MediaPrev: 165, keycode.MediaNext: 163, keycode.MediaPlayPause: 164,
	keycode.Pause: 119,
	keycode.LeftMeta: 125, keycode.RightMeta: 126,
	keycode.Menu: 139,
	keycode.F13: 183, keycode.F14: 184, keycode.F15: 185, keycode.F16: 186,
	keycode.F17: 187, keycode.F18: 188, keycode.F19: 189, keycode.F20: 190,
	keycode.F21: 191, keycode.F22: 192, keycode.F23: 193, keycode.F24: 194,
}

var codeFromEvdevTable = func() map[evdev.EvCode]keycode.Code {
	m := make(map[evdev.EvCode]keycode.Code, len(evdevTable))
	for k, v := range evdevTable {
		m[evdev.EvCode(v)] = k
	}
	return m
}()

func codeFromEvdev(code evdev.EvCode) (keycode.Code, bool) {
	c, ok := codeFromEvdevTable[code]
	return c, ok
}

func evdevFromCode(c keycode.Code) (uint16, bool) {
	v, ok := evdevTable[c]
	return v, ok
}
