package processor

import (
	"testing"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
)

func newProcessor(mappings ...config.KeyMapping) *Processor {
	return New("test-device", config.DeviceConfig{
		Identifier: config.DeviceIdentifier{Pattern: "*"},
		Mappings:   mappings,
	}, nil)
}

func TestProcessPassthroughUnregisteredKey(t *testing.T) {
	p := newProcessor()
	out := p.Process(KeyEvent{Key: keycode.A, IsPress: true, TsUs: 0})
	if len(out) != 1 || out[0].Key != keycode.A || !out[0].IsPress {
		t.Fatalf("expected passthrough of A press, got %+v", out)
	}
}

func TestProcessSimpleRemap(t *testing.T) {
	p := newProcessor(config.BaseMapping(config.Simple(keycode.A, keycode.B)))
	out := p.Process(KeyEvent{Key: keycode.A, IsPress: true, TsUs: 0})
	if len(out) != 1 || out[0].Key != keycode.B {
		t.Fatalf("expected A -> B, got %+v", out)
	}
}

func TestProcessModifierProducesNoOutputButUpdatesState(t *testing.T) {
	p := newProcessor(config.BaseMapping(config.Modifier(keycode.CapsLock, 0)))
	out := p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: true, TsUs: 0})
	if len(out) != 0 {
		t.Fatalf("expected no output events, got %+v", out)
	}
	if !p.State().IsModifierActive(0) {
		t.Fatal("expected modifier 0 active after press")
	}

	out = p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: false, TsUs: 0})
	if len(out) != 0 {
		t.Fatalf("expected no output events on release, got %+v", out)
	}
	if p.State().IsModifierActive(0) {
		t.Fatal("expected modifier 0 cleared after release")
	}
}

func TestProcessLockTogglesOnPressOnly(t *testing.T) {
	p := newProcessor(config.BaseMapping(config.Lock(keycode.ScrollLock, 1)))
	p.Process(KeyEvent{Key: keycode.ScrollLock, IsPress: true, TsUs: 0})
	if !p.State().IsLockActive(1) {
		t.Fatal("expected lock 1 active after press")
	}
	p.Process(KeyEvent{Key: keycode.ScrollLock, IsPress: false, TsUs: 0})
	if !p.State().IsLockActive(1) {
		t.Fatal("expected lock 1 to remain active: release must not toggle")
	}
}

func TestProcessModifiedOutputChordOrder(t *testing.T) {
	p := newProcessor(config.BaseMapping(config.ModifiedOutput(keycode.Digit1, keycode.Digit1, true, false, false, false)))

	press := p.Process(KeyEvent{Key: keycode.Digit1, IsPress: true, TsUs: 0})
	if len(press) != 2 {
		t.Fatalf("expected shift press + key press, got %+v", press)
	}
	if press[0].Key != keycode.LeftShift || !press[0].IsPress {
		t.Fatalf("expected LeftShift press first, got %+v", press[0])
	}
	if press[1].Key != keycode.Digit1 || !press[1].IsPress {
		t.Fatalf("expected Digit1 press second, got %+v", press[1])
	}

	release := p.Process(KeyEvent{Key: keycode.Digit1, IsPress: false, TsUs: 0})
	if len(release) != 2 {
		t.Fatalf("expected key release + shift release, got %+v", release)
	}
	if release[0].Key != keycode.Digit1 || release[0].IsPress {
		t.Fatalf("expected Digit1 release first, got %+v", release[0])
	}
	if release[1].Key != keycode.LeftShift || release[1].IsPress {
		t.Fatalf("expected LeftShift release second, got %+v", release[1])
	}
}

func TestProcessConditionalMappingAfterModifierActivation(t *testing.T) {
	p := newProcessor(
		config.BaseMapping(config.Modifier(keycode.CapsLock, 0)),
		config.Conditional(config.ModifierActive(0), config.Simple(keycode.H, keycode.Left)),
	)

	out := p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: true, TsUs: 0})
	if len(out) != 0 {
		t.Fatalf("expected modifier activation to emit nothing, got %+v", out)
	}

	out = p.Process(KeyEvent{Key: keycode.H, IsPress: true, TsUs: 1})
	if len(out) != 1 || out[0].Key != keycode.Left {
		t.Fatalf("expected H -> Left while MD_00 active, got %+v", out)
	}
}

func TestProcessTapHoldQuickTapThroughProcessor(t *testing.T) {
	p := newProcessor(config.BaseMapping(config.TapHold(keycode.CapsLock, keycode.Escape, 0, 200000)))

	out := p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: true, TsUs: 0})
	if len(out) != 0 {
		t.Fatalf("expected no output on tap-hold press, got %+v", out)
	}

	out = p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: false, TsUs: 50_000})
	if len(out) != 2 || out[0].Key != keycode.Escape || !out[0].IsPress || out[1].IsPress {
		t.Fatalf("expected Escape tap pair, got %+v", out)
	}
}

func TestProcessTapHoldPermissiveHoldViaInterruptingKey(t *testing.T) {
	p := newProcessor(
		config.BaseMapping(config.TapHold(keycode.CapsLock, keycode.Escape, 0, 200000)),
		config.Conditional(config.ModifierActive(0), config.Simple(keycode.J, keycode.Down)),
	)

	p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: true, TsUs: 0})

	out := p.Process(KeyEvent{Key: keycode.J, IsPress: true, TsUs: 10_000})
	if len(out) != 1 || out[0].Key != keycode.Down {
		t.Fatalf("expected permissive hold to promote MD_00 before J's own lookup, got %+v", out)
	}

	release := p.Process(KeyEvent{Key: keycode.CapsLock, IsPress: false, TsUs: 20_000})
	if len(release) != 0 {
		t.Fatalf("expected a silent deactivate for the held key, got %+v", release)
	}
	if p.State().IsModifierActive(0) {
		t.Fatal("expected modifier 0 cleared after the held key's release")
	}
}
