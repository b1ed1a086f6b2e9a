package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/latency"
	"github.com/keyrx/keyrxd/internal/platform"
	"github.com/keyrx/keyrxd/internal/processor"
)

func deviceConfig(mappings ...config.KeyMapping) config.DeviceConfig {
	return config.DeviceConfig{
		Identifier: config.DeviceIdentifier{Pattern: "*"},
		Mappings:   mappings,
	}
}

func runUntilDrained(t *testing.T, d *Device) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := d.Run(ctx); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
}

func TestSuppressingPlatformAlwaysInjectsPassthrough(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
		{Key: keycode.A, IsPress: false, TsUs: 1000},
	}
	mp := platform.NewMockPlatform("dev0", events, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	runUntilDrained(t, d)

	if len(mp.Out.Events()) != 2 {
		t.Fatalf("expected 2 passthrough injections on a suppressing platform, got %d", len(mp.Out.Events()))
	}
}

func TestNonSuppressingPlatformSkipsUntriggeredEvents(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
		{Key: keycode.A, IsPress: false, TsUs: 1000},
	}
	mp := platform.NewMockPlatform("dev0", events, false)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	runUntilDrained(t, d)

	if len(mp.Out.Events()) != 0 {
		t.Fatalf("expected no injections for an untriggered key on a non-suppressing platform, got %d", len(mp.Out.Events()))
	}
}

func TestNonSuppressingPlatformInjectsTriggeredRemap(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.CapsLock, IsPress: true, TsUs: 0},
		{Key: keycode.CapsLock, IsPress: false, TsUs: 1000},
	}
	mp := platform.NewMockPlatform("dev0", events, false)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	cfg := deviceConfig(config.BaseMapping(config.Simple(keycode.CapsLock, keycode.Escape)))
	d := New("dev0", cfg, in, out, mp.SuppressesInput(), nil)
	runUntilDrained(t, d)

	got := mp.Out.Events()
	if len(got) != 2 || got[0].Key != keycode.Escape || got[1].Key != keycode.Escape {
		t.Fatalf("expected two remapped Escape events, got %+v", got)
	}
}

func TestReloadClearsModifierStateAndReleasesHeldKeys(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.LeftCtrl, IsPress: true, TsUs: 0},
	}
	mp := platform.NewMockPlatform("dev0", events, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	cfg := deviceConfig(config.BaseMapping(config.Modifier(keycode.LeftCtrl, 0)))
	d := New("dev0", cfg, in, out, mp.SuppressesInput(), nil)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	_ = d.Run(ctx)
	cancel()

	oldProc := d.currentProcessor()
	if !oldProc.State().IsModifierActive(0) {
		t.Fatal("expected modifier bit 0 active before reload")
	}

	if err := d.Reload(deviceConfig()); err != nil {
		t.Fatalf("Reload returned error: %v", err)
	}
	if oldProc.State().IsModifierActive(0) {
		t.Fatal("expected the replaced triple's modifier state to be drained on reload")
	}
	if d.currentProcessor() == oldProc {
		t.Fatal("expected Reload to swap in a new processor triple")
	}
}

func TestShutdownReleasesOutputThenInput(t *testing.T) {
	mp := platform.NewMockPlatform("dev0", nil, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	if err := out.Inject(processor.KeyEvent{Key: keycode.A, IsPress: true}); err != nil {
		t.Fatal(err)
	}
	if err := d.Shutdown(); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}
}

type alwaysArmed struct{}

func (alwaysArmed) Armed() bool { return true }

func TestArmedGuardSkipsPassthroughOnNonSuppressingPlatform(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
		{Key: keycode.A, IsPress: false, TsUs: 1000},
	}
	mp := platform.NewMockPlatform("dev0", events, false)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	d.SetPanicGuard(alwaysArmed{})
	runUntilDrained(t, d)

	if len(mp.Out.Events()) != 0 {
		t.Fatalf("expected the OS to have already delivered the original keystroke on a non-suppressing platform, got %d duplicate injections", len(mp.Out.Events()))
	}
}

func TestArmedGuardAlwaysInjectsPassthroughOnSuppressingPlatform(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
		{Key: keycode.A, IsPress: false, TsUs: 1000},
	}
	mp := platform.NewMockPlatform("dev0", events, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	d.SetPanicGuard(alwaysArmed{})
	runUntilDrained(t, d)

	if len(mp.Out.Events()) != 2 {
		t.Fatalf("expected 2 passthrough injections on a suppressing platform, got %d", len(mp.Out.Events()))
	}
}

func TestLatencyRecorderObservesEveryInjection(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: uint64(time.Now().UnixMicro())},
	}
	mp := platform.NewMockPlatform("dev0", events, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	rec := latency.New()
	d.SetLatencyRecorder(rec)
	runUntilDrained(t, d)

	if got := rec.Snapshot().Count; got != 1 {
		t.Fatalf("expected 1 latency sample recorded, got %d", got)
	}
}

func TestStatsTracksInjectedEventCount(t *testing.T) {
	events := []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
	}
	mp := platform.NewMockPlatform("dev0", events, true)
	in, _ := mp.OpenInput("dev0")
	out, _ := mp.Output()

	d := New("dev0", deviceConfig(), in, out, mp.SuppressesInput(), nil)
	runUntilDrained(t, d)

	if d.Stats().Total() != 1 {
		t.Fatalf("expected 1 recorded event, got %d", d.Stats().Total())
	}
}
