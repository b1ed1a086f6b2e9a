package config

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/keycode"
)

func TestDeviceIdentifierMatches(t *testing.T) {
	tests := []struct {
		pattern, device string
		want            bool
	}{
		{"*", "Anything At All", true},
		{"*", "", true},
		{"USB Keyboard", "My USB Keyboard 2.0", true},
		{"USB Keyboard", "Trackpad", false},
		{"", "Trackpad", true}, // empty pattern: substring of anything
	}
	for _, tt := range tests {
		got := DeviceIdentifier{Pattern: tt.pattern}.Matches(tt.device)
		if got != tt.want {
			t.Errorf("Matches(pattern=%q, device=%q) = %v, want %v", tt.pattern, tt.device, got, tt.want)
		}
	}
}

func TestFindDeviceFirstMatchWins(t *testing.T) {
	root := Root{
		Devices: []DeviceConfig{
			{Identifier: DeviceIdentifier{Pattern: "Keychron"}, Mappings: []KeyMapping{BaseMapping(Simple(keycode.A, keycode.B))}},
			{Identifier: DeviceIdentifier{Pattern: "*"}, Mappings: []KeyMapping{BaseMapping(Simple(keycode.A, keycode.C))}},
		},
	}

	dc, ok := root.FindDevice("Keychron Q1")
	if !ok || dc.Mappings[0].Base.To != keycode.B {
		t.Fatalf("expected the Keychron-specific config to win, got %+v", dc)
	}

	dc, ok = root.FindDevice("Some Other Keyboard")
	if !ok || dc.Mappings[0].Base.To != keycode.C {
		t.Fatalf("expected the wildcard config to win, got %+v", dc)
	}
}

func TestFindDeviceNoMatch(t *testing.T) {
	root := Root{Devices: []DeviceConfig{{Identifier: DeviceIdentifier{Pattern: "Keychron"}}}}
	if _, ok := root.FindDevice("Logitech"); ok {
		t.Fatal("expected no match")
	}
}

func TestMappingConstructors(t *testing.T) {
	m := TapHold(keycode.CapsLock, keycode.Escape, 0, 200_000)
	if m.Kind != KindTapHold || m.From != keycode.CapsLock || m.Tap != keycode.Escape ||
		m.HoldModifier != 0 || m.ThresholdUs != 200_000 {
		t.Fatalf("unexpected TapHold mapping: %+v", m)
	}

	cond := AllActive(ConditionItem{Kind: CondModifierActive, ID: 1}, ConditionItem{Kind: CondLockActive, ID: 2})
	if cond.Kind != CondAllActive || len(cond.Items) != 2 {
		t.Fatalf("unexpected condition: %+v", cond)
	}

	km := Conditional(ModifierActive(0), Simple(keycode.H, keycode.Left))
	if km.Kind != MappingConditional || km.Condition.Kind != CondModifierActive || len(km.Mappings) != 1 {
		t.Fatalf("unexpected conditional mapping: %+v", km)
	}
}
