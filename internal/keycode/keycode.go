// Package keycode defines the platform-independent key identifier set
// shared by every layer of keyrxd: the compiled config, the lookup index,
// the tap-hold engine, and each platform's capture/inject code.
package keycode

import "fmt"

// Code is a closed, stable key identifier. Its numeric values are part of
// the .krx wire format (internal/container) and must never be renumbered;
// new keys are appended, never inserted.
type Code uint16

const (
	Unknown Code = iota

	// Letters
	A
	B
	C
	D
	E
	F
	G
	H
	I
	J
	K
	L
	M
	N
	O
	P
	Q
	R
	S
	T
	U
	V
	W
	X
	Y
	Z

	// Digits (top row)
	Digit0
	Digit1
	Digit2
	Digit3
	Digit4
	Digit5
	Digit6
	Digit7
	Digit8
	Digit9

	// Function keys
	F1
	F2
	F3
	F4
	F5
	F6
	F7
	F8
	F9
	F10
	F11
	F12
	F13
	F14
	F15
	F16
	F17
	F18
	F19
	F20
	F21
	F22
	F23
	F24

	// Modifiers, left/right distinguished
	LeftShift
	RightShift
	LeftCtrl
	RightCtrl
	LeftAlt
	RightAlt
	LeftMeta
	RightMeta

	// Control cluster
	Escape
	Tab
	CapsLock
	Enter
	Backspace
	Space
	Minus
	Equal
	LeftBrace
	RightBrace
	Semicolon
	Apostrophe
	Grave
	Backslash
	Comma
	Dot
	Slash

	// Navigation
	Left
	Right
	Up
	Down
	Home
	End
	PageUp
	PageDown
	Insert
	Delete

	// Locks
	NumLock
	ScrollLock

	// Numpad
	NumpadAsterisk
	NumpadMinus
	NumpadPlus
	NumpadEnter
	NumpadDot
	Numpad0
	Numpad1
	Numpad2
	Numpad3
	Numpad4
	Numpad5
	Numpad6
	Numpad7
	Numpad8
	Numpad9

	// Media
	MediaPlayPause
	MediaNext
	MediaPrev
	MediaVolumeUp
	MediaVolumeDown
	MediaMute

	// Misc
	Pause
	PrintScreen
	Menu

	// maxCode is a sentinel marking the end of the enumeration; it is not
	// itself a valid key and exists so decoders can bounds-check a
	// variant tag read from an untrusted archive.
	maxCode
)

// Valid reports whether c is a recognized, in-range key identifier.
func Valid(c Code) bool {
	return c < maxCode
}

var names = map[Code]string{
	Unknown: "Unknown", A: "A", B: "B", C: "C", D: "D", E: "E", F: "F", G: "G",
	H: "H", I: "I", J: "J", K: "K", L: "L", M: "M", N: "N", O: "O", P: "P",
	Q: "Q", R: "R", S: "S", T: "T", U: "U", V: "V", W: "W", X: "X", Y: "Y", Z: "Z",
	Digit0: "Digit0", Digit1: "Digit1", Digit2: "Digit2", Digit3: "Digit3",
	Digit4: "Digit4", Digit5: "Digit5", Digit6: "Digit6", Digit7: "Digit7",
	Digit8: "Digit8", Digit9: "Digit9",
	F1: "F1", F2: "F2", F3: "F3", F4: "F4", F5: "F5", F6: "F6", F7: "F7", F8: "F8",
	F9: "F9", F10: "F10", F11: "F11", F12: "F12", F13: "F13", F14: "F14", F15: "F15",
	F16: "F16", F17: "F17", F18: "F18", F19: "F19", F20: "F20", F21: "F21", F22: "F22",
	F23: "F23", F24: "F24",
	LeftShift: "LeftShift", RightShift: "RightShift", LeftCtrl: "LeftCtrl",
	RightCtrl: "RightCtrl", LeftAlt: "LeftAlt", RightAlt: "RightAlt",
	LeftMeta: "LeftMeta", RightMeta: "RightMeta",
	Escape: "Escape", Tab: "Tab", CapsLock: "CapsLock", Enter: "Enter",
	Backspace: "Backspace", Space: "Space", Minus: "Minus", Equal: "Equal",
	LeftBrace: "LeftBrace", RightBrace: "RightBrace", Semicolon: "Semicolon",
	Apostrophe: "Apostrophe", Grave: "Grave", Backslash: "Backslash",
	Comma: "Comma", Dot: "Dot", Slash: "Slash",
	Left: "Left", Right: "Right", Up: "Up", Down: "Down", Home: "Home", End: "End",
	PageUp: "PageUp", PageDown: "PageDown", Insert: "Insert", Delete: "Delete",
	NumLock: "NumLock", ScrollLock: "ScrollLock",
	NumpadAsterisk: "NumpadAsterisk", NumpadMinus: "NumpadMinus", NumpadPlus: "NumpadPlus",
	NumpadEnter: "NumpadEnter", NumpadDot: "NumpadDot",
	Numpad0: "Numpad0", Numpad1: "Numpad1", Numpad2: "Numpad2", Numpad3: "Numpad3",
	Numpad4: "Numpad4", Numpad5: "Numpad5", Numpad6: "Numpad6", Numpad7: "Numpad7",
	Numpad8: "Numpad8", Numpad9: "Numpad9",
	MediaPlayPause: "MediaPlayPause", MediaNext: "MediaNext", MediaPrev: "MediaPrev",
	MediaVolumeUp: "MediaVolumeUp", MediaVolumeDown: "MediaVolumeDown", MediaMute: "MediaMute",
	Pause: "Pause", PrintScreen: "PrintScreen", Menu: "Menu",
}

// String returns the canonical name used in logs and the daemon TUI.
func (c Code) String() string {
	if name, ok := names[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", uint16(c))
}

var byName map[string]Code

func init() {
	byName = make(map[string]Code, len(names))
	for c, n := range names {
		byName[n] = c
	}
}

// FromName is the inverse of String, case-sensitive on the canonical
// spelling ("LeftCtrl", not "leftctrl"). Used to parse key names out of
// config fields such as the daemon's panic_hotkey combo string.
func FromName(name string) (Code, bool) {
	c, ok := byName[name]
	return c, ok
}

// OSModifier names a physical OS modifier kind, used by ModifiedOutput
// chords (spec.md §4.F): the emitted modifier for a chord is always the
// Left variant (see LeftVariant) regardless of which physical modifier
// key the user actually holds.
type OSModifier int

const (
	OSShift OSModifier = iota
	OSCtrl
	OSAlt
	OSWin
)

// LeftVariant maps an OS modifier kind to its canonical Left keycode.
func LeftVariant(m OSModifier) Code {
	switch m {
	case OSShift:
		return LeftShift
	case OSCtrl:
		return LeftCtrl
	case OSAlt:
		return LeftAlt
	case OSWin:
		return LeftMeta
	default:
		return Unknown
	}
}
