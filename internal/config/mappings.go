// Package config defines the compiled configuration data model: the
// mapping variants, conditions, device configs, and the root document
// produced by the external compiler and consumed by the core (spec.md §3).
//
// This package consumes only the compiled form; it does not parse the
// human-facing configuration DSL (that front end is out of scope).
package config

import (
	"strings"

	"github.com/keyrx/keyrxd/internal/keycode"
)

// BaseKeyMappingKind tags the variant of a BaseKeyMapping. It is the byte
// written immediately before a BaseKeyMapping's fields in the .krx archive
// (internal/container), so its numeric values are part of the wire format.
type BaseKeyMappingKind uint8

const (
	KindSimple BaseKeyMappingKind = iota
	KindModifier
	KindLock
	KindTapHold
	KindModifiedOutput
)

// BaseKeyMapping is a leaf action: the only mapping shape a Conditional
// block may contain (spec.md §3 limits nesting to one level).
//
// Exactly one of the field groups below is meaningful, selected by Kind;
// this mirrors the original Rust enum while staying a single concrete Go
// type, which keeps the lookup index (internal/lookup) and the archive
// codec (internal/container) simple — no type switch on an interface.
type BaseKeyMapping struct {
	Kind BaseKeyMappingKind

	From keycode.Code

	// Simple
	To keycode.Code

	// Modifier / Lock
	BitID uint8

	// TapHold
	Tap          keycode.Code
	HoldModifier uint8
	ThresholdUs  uint32

	// ModifiedOutput
	Shift bool
	Ctrl  bool
	Alt   bool
	Win   bool
}

// Simple builds a 1:1 substitution mapping.
func Simple(from, to keycode.Code) BaseKeyMapping {
	return BaseKeyMapping{Kind: KindSimple, From: from, To: to}
}

// Modifier builds a custom-modifier mapping: From never emits; bit
// modifierID is set in the device's modifier bitmap while held.
func Modifier(from keycode.Code, modifierID uint8) BaseKeyMapping {
	return BaseKeyMapping{Kind: KindModifier, From: from, BitID: modifierID}
}

// Lock builds a custom-lock mapping: From never emits; bit lockID toggles
// on each press.
func Lock(from keycode.Code, lockID uint8) BaseKeyMapping {
	return BaseKeyMapping{Kind: KindLock, From: from, BitID: lockID}
}

// TapHold builds a dual tap/hold mapping.
func TapHold(from, tap keycode.Code, holdModifier uint8, thresholdUs uint32) BaseKeyMapping {
	return BaseKeyMapping{
		Kind: KindTapHold, From: from, Tap: tap,
		HoldModifier: holdModifier, ThresholdUs: thresholdUs,
	}
}

// ModifiedOutput builds a synthetic chord: on press, emits the active OS
// modifiers (Shift, Ctrl, Alt, Win, in that fixed order) followed by To.
func ModifiedOutput(from, to keycode.Code, shift, ctrl, alt, win bool) BaseKeyMapping {
	return BaseKeyMapping{
		Kind: KindModifiedOutput, From: from, To: to,
		Shift: shift, Ctrl: ctrl, Alt: alt, Win: win,
	}
}

// ConditionKind tags a Condition variant; values are part of the wire format.
type ConditionKind uint8

const (
	CondModifierActive ConditionKind = iota
	CondLockActive
	CondAllActive
	CondNotActive
)

// ConditionItem is a single test usable inside AllActive/NotActive.
type ConditionItem struct {
	Kind ConditionKind // CondModifierActive or CondLockActive only
	ID   uint8
}

// Condition selects when a Conditional block's mappings are eligible.
// Exactly one field group is meaningful, selected by Kind.
type Condition struct {
	Kind ConditionKind

	// ModifierActive / LockActive
	ID uint8

	// AllActive / NotActive
	Items []ConditionItem
}

func ModifierActive(id uint8) Condition { return Condition{Kind: CondModifierActive, ID: id} }
func LockActive(id uint8) Condition     { return Condition{Kind: CondLockActive, ID: id} }
func AllActive(items ...ConditionItem) Condition {
	return Condition{Kind: CondAllActive, Items: items}
}
func NotActive(items ...ConditionItem) Condition {
	return Condition{Kind: CondNotActive, Items: items}
}

// KeyMappingKind tags a KeyMapping; values are part of the wire format.
type KeyMappingKind uint8

const (
	MappingBase KeyMappingKind = iota
	MappingConditional
)

// KeyMapping is either a bare Base mapping or a Conditional block guarding
// a list of Base mappings. Nesting is limited to this single level: a
// Conditional's Mappings field holds BaseKeyMapping, never KeyMapping.
type KeyMapping struct {
	Kind KeyMappingKind

	Base BaseKeyMapping // meaningful when Kind == MappingBase

	Condition Condition        // meaningful when Kind == MappingConditional
	Mappings  []BaseKeyMapping // meaningful when Kind == MappingConditional
}

// BaseMapping wraps a leaf mapping as a top-level, unconditional KeyMapping.
func BaseMapping(m BaseKeyMapping) KeyMapping {
	return KeyMapping{Kind: MappingBase, Base: m}
}

// Conditional wraps a set of leaf mappings behind a Condition.
func Conditional(cond Condition, mappings ...BaseKeyMapping) KeyMapping {
	return KeyMapping{Kind: MappingConditional, Condition: cond, Mappings: mappings}
}

// DeviceIdentifier matches a DeviceConfig against a physical keyboard.
// Pattern "*" matches any device; otherwise it is matched as a substring
// against the OS-reported device name.
type DeviceIdentifier struct {
	Pattern string
}

// Matches reports whether this identifier selects the given device name.
func (d DeviceIdentifier) Matches(deviceName string) bool {
	if d.Pattern == "*" {
		return true
	}
	return strings.Contains(deviceName, d.Pattern)
}

// DeviceConfig holds every mapping that applies to one matched device.
type DeviceConfig struct {
	Identifier DeviceIdentifier
	Mappings   []KeyMapping
}

// Version is the compiled-config format version (spec.md §3), distinct
// from the container's wire-format version field (internal/container).
type Version struct {
	Major, Minor, Patch uint16
}

// Metadata records provenance of a compiled artifact. None of these fields
// feed the hot path; they exist for diagnostics and for the external
// compiler/CLI to display "what produced this profile".
type Metadata struct {
	CompilationTimestamp uint64
	CompilerVersion      string
	SourceHash           string
}

// Root is the top-level compiled document: spec.md's ConfigRoot.
// First-match-wins across Devices: when more than one DeviceConfig's
// Identifier matches a discovered keyboard, the first in this slice is
// used (internal/runtime owns that selection).
type Root struct {
	Version  Version
	Devices  []DeviceConfig
	Metadata Metadata
}

// FindDevice returns the first DeviceConfig whose identifier matches
// deviceName, or false if none match.
func (r *Root) FindDevice(deviceName string) (DeviceConfig, bool) {
	for _, d := range r.Devices {
		if d.Identifier.Matches(deviceName) {
			return d, true
		}
	}
	return DeviceConfig{}, false
}
