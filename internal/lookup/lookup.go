// Package lookup builds the O(1) per-device key lookup index (spec.md
// §4.C): physical key -> ordered list of candidate mappings, conditional
// entries first in registration order, then unconditional entries.
package lookup

import (
	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/state"
)

// entry pairs a leaf mapping with the condition that must hold for it to
// apply; a nil condition means "always applies" (an unconditional entry).
type entry struct {
	mapping   config.BaseKeyMapping
	condition *config.Condition
}

// Index is a device's compiled lookup table, built once from a
// config.DeviceConfig and consulted on every keystroke.
type Index struct {
	table map[keycode.Code][]entry
}

// Build constructs an Index from a device's mapping list, honoring the
// precedence rule of spec.md §4.C: for each key, all Conditional entries
// are appended (in their original registration order) before any
// unconditional (top-level Base) entry for the same key.
func Build(dc config.DeviceConfig) *Index {
	idx := &Index{table: make(map[keycode.Code][]entry)}

	for _, m := range dc.Mappings {
		if m.Kind != config.MappingConditional {
			continue
		}
		cond := m.Condition
		for _, base := range m.Mappings {
			key := inputKey(base)
			idx.table[key] = append(idx.table[key], entry{mapping: base, condition: &cond})
		}
	}

	for _, m := range dc.Mappings {
		if m.Kind != config.MappingBase {
			continue
		}
		key := inputKey(m.Base)
		idx.table[key] = append(idx.table[key], entry{mapping: m.Base})
	}

	return idx
}

// inputKey returns the physical key a BaseKeyMapping is registered under.
func inputKey(m config.BaseKeyMapping) keycode.Code {
	return m.From
}

// Find returns the first mapping registered for key whose condition (if
// any) evaluates true against state, or false if no mapping applies and
// the key should pass through unchanged.
func (idx *Index) Find(key keycode.Code, st *state.Device) (config.BaseKeyMapping, bool) {
	entries, ok := idx.table[key]
	if !ok {
		return config.BaseKeyMapping{}, false
	}
	for _, e := range entries {
		if e.condition == nil {
			return e.mapping, true
		}
		if st.Evaluate(*e.condition) {
			return e.mapping, true
		}
	}
	return config.BaseKeyMapping{}, false
}
