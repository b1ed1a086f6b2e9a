// Package state implements the per-device runtime state (spec.md §3, §4.D):
// 256-bit modifier and lock bitmaps, and the condition evaluator lookup
// (internal/lookup) consults to pick between conditional mappings.
package state

import "github.com/keyrx/keyrxd/internal/config"

// bitmapWords is the number of uint32 words backing a 256-bit bitmap.
const bitmapWords = 8

// Device holds one physical keyboard's custom-modifier and custom-lock
// bitmaps. It is owned exclusively by a single per-device runtime
// (spec.md §5): no synchronization is needed because only one goroutine
// ever touches a given Device.
type Device struct {
	modifierBits [bitmapWords]uint32
	lockBits     [bitmapWords]uint32
}

// New returns a Device with every modifier and lock bit cleared.
func New() *Device {
	return &Device{}
}

func setBit(bits *[bitmapWords]uint32, id uint8) {
	bits[id/32] |= 1 << (id % 32)
}

func clearBit(bits *[bitmapWords]uint32, id uint8) {
	bits[id/32] &^= 1 << (id % 32)
}

func testBit(bits *[bitmapWords]uint32, id uint8) bool {
	return bits[id/32]&(1<<(id%32)) != 0
}

// SetModifier activates custom modifier bit id.
func (d *Device) SetModifier(id uint8) { setBit(&d.modifierBits, id) }

// ClearModifier deactivates custom modifier bit id.
func (d *Device) ClearModifier(id uint8) { clearBit(&d.modifierBits, id) }

// IsModifierActive reports whether custom modifier bit id is set.
func (d *Device) IsModifierActive(id uint8) bool { return testBit(&d.modifierBits, id) }

// ToggleLock flips custom lock bit id. Per spec.md §3, this must only be
// called on the press edge of the owning Lock mapping; release never
// toggles a lock.
func (d *Device) ToggleLock(id uint8) {
	if testBit(&d.lockBits, id) {
		clearBit(&d.lockBits, id)
	} else {
		setBit(&d.lockBits, id)
	}
}

// IsLockActive reports whether custom lock bit id is set.
func (d *Device) IsLockActive(id uint8) bool { return testBit(&d.lockBits, id) }

// ReleaseAllModifiers clears every modifier bit. Used on reload (spec.md
// §5, §9) so no custom-modifier state leaks across a config swap; lock
// state is deliberately untouched since locks (e.g. a vim-layer toggle)
// are meant to persist across reload the way a real OS CapsLock would.
func (d *Device) ReleaseAllModifiers() {
	for i := range d.modifierBits {
		d.modifierBits[i] = 0
	}
}

// Evaluate implements the Condition semantics of spec.md §4.D.
func (d *Device) Evaluate(c config.Condition) bool {
	switch c.Kind {
	case config.CondModifierActive:
		return d.IsModifierActive(c.ID)
	case config.CondLockActive:
		return d.IsLockActive(c.ID)
	case config.CondAllActive:
		for _, item := range c.Items {
			if !d.evaluateItem(item) {
				return false
			}
		}
		return true
	case config.CondNotActive:
		for _, item := range c.Items {
			if d.evaluateItem(item) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func (d *Device) evaluateItem(item config.ConditionItem) bool {
	switch item.Kind {
	case config.CondModifierActive:
		return d.IsModifierActive(item.ID)
	case config.CondLockActive:
		return d.IsLockActive(item.ID)
	default:
		return false
	}
}
