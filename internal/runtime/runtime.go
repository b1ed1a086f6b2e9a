// Package runtime implements the per-device scheduler (spec.md §4.I): it
// owns one physical keyboard's input handle, the shared output device, and
// the active processor triple (lookup, state, tap-hold), and drives the
// capture → process → inject loop until shutdown or reload.
package runtime

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/latency"
	"github.com/keyrx/keyrxd/internal/platform"
	"github.com/keyrx/keyrxd/internal/processor"
)

// idleCheckInterval is the scheduler's capture timeout: long enough to
// avoid busy-looping, short enough that a pending tap-hold deadline is
// never missed by more than this much (spec.md §4.I).
const idleCheckInterval = 10 * time.Millisecond

// statsLogInterval mirrors the original daemon's EventLoopStats cadence
// (original_source/keyrx_daemon/src/daemon/event_loop.rs).
const statsLogInterval = 60 * time.Second

// PanicGuard reports whether the panic hotkey is currently armed. While
// armed, the scheduler still drains input (so the device doesn't appear
// hung) but routes every event straight to passthrough, bypassing
// lookup/state/tap-hold, and leaves existing state untouched so that
// disarming resumes exactly where it left off (SPEC_FULL.md §5.I).
type PanicGuard interface {
	Armed() bool
}

// EventObserver receives every captured event before it is processed.
// Linux's inline panic-hotkey detector (internal/hotkeyguard.InlineDetector)
// is wired in this way rather than as an independent listener: EVIOCGRAB
// means a second handle on the same device node never sees a key while
// the runtime holds the grab, so the combo has to be recognized off the
// same stream the runtime already reads.
type EventObserver interface {
	Observe(ev processor.KeyEvent)
}

// Stats tracks per-device event counters for the optional TUI, grounded
// on the original daemon's EventLoopStats.
type Stats struct {
	mu         sync.Mutex
	eventCount uint64
	lastLog    time.Time
}

func newStats() *Stats { return &Stats{lastLog: time.Now()} }

func (s *Stats) record() {
	s.mu.Lock()
	s.eventCount++
	s.mu.Unlock()
}

// Total returns the number of events injected so far.
func (s *Stats) Total() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eventCount
}

func (s *Stats) maybeLog(logger *log.Logger, deviceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if time.Since(s.lastLog) < statsLogInterval {
		return
	}
	if logger != nil {
		logger.Printf("runtime[%s]: %d events processed", deviceID, s.eventCount)
	}
	s.lastLog = time.Now()
}

// Device owns one physical device's capture/inject handles and processor
// triple, and runs the scheduler loop translating captured events into
// injected ones.
type Device struct {
	DeviceID string

	input      platform.InputDevice
	output     platform.OutputDevice
	suppresses bool
	logger     *log.Logger
	guard      PanicGuard
	observer   EventObserver
	latency    *latency.Recorder

	mu   sync.RWMutex
	proc *processor.Processor

	stats *Stats
}

// New builds a Device runtime from an opened input handle, the platform's
// shared output device, and the device's compiled configuration.
func New(deviceID string, dc config.DeviceConfig, input platform.InputDevice, output platform.OutputDevice, suppresses bool, logger *log.Logger) *Device {
	return &Device{
		DeviceID:   deviceID,
		input:      input,
		output:     output,
		suppresses: suppresses,
		logger:     logger,
		proc:       processor.New(deviceID, dc, logger),
		stats:      newStats(),
	}
}

// SetPanicGuard wires the optional panic-hotkey bypass; nil (the default)
// means no bypass is configured.
func (d *Device) SetPanicGuard(g PanicGuard) { d.guard = g }

// SetObserver wires an optional per-event observer (Linux's inline
// panic-hotkey detector); nil (the default) means no observer is
// configured.
func (d *Device) SetObserver(o EventObserver) { d.observer = o }

// SetLatencyRecorder wires the lock-free capture-to-injection latency
// recorder read by the optional diagnostics TUI (spec.md §4.I, §5); nil
// (the default) means no latency is recorded.
func (d *Device) SetLatencyRecorder(r *latency.Recorder) { d.latency = r }

// Stats exposes event-count telemetry for the optional TUI.
func (d *Device) Stats() *Stats { return d.stats }

func (d *Device) currentProcessor() *processor.Processor {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.proc
}

// Run drives the scheduler loop until ctx is canceled or the input
// signals a clean end of stream, matching
// original_source/keyrx_daemon/src/daemon/event_loop.rs's run_event_loop:
// block for input with a timeout, process on success, sweep tap-hold
// timeouts on idle, log stats periodically.
func (d *Device) Run(ctx context.Context) error {
	if d.logger != nil {
		d.logger.Printf("runtime[%s]: starting event loop", d.DeviceID)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		ev, err := d.input.CaptureWithTimeout(idleCheckInterval)
		if err != nil {
			if platform.IsEndOfStream(err) {
				if d.logger != nil {
					d.logger.Printf("runtime[%s]: event loop stopped, %d events processed", d.DeviceID, d.stats.Total())
				}
				return nil
			}
			if !platform.IsTimeout(err) {
				if d.logger != nil {
					d.logger.Printf("runtime[%s]: capture error: %v", d.DeviceID, err)
				}
				time.Sleep(idleCheckInterval)
			} else {
				// Idle wake: the tap-hold sweep already happened inside
				// handle() on the next real event, but a key parked past
				// its deadline with nothing else arriving must still be
				// promoted promptly, so sweep here too.
				d.sweepTimeouts()
			}
			d.stats.maybeLog(d.logger, d.DeviceID)
			continue
		}

		d.handle(ev)
		d.stats.maybeLog(d.logger, d.DeviceID)
	}
}

func (d *Device) sweepTimeouts() {
	if d.guard != nil && d.guard.Armed() {
		// Armed: tap-hold state is left untouched until disarm.
		return
	}
	proc := d.currentProcessor()
	outs := proc.SweepTimeouts(uint64(time.Now().UnixMicro()), d.DeviceID)
	if len(outs) == 0 {
		return
	}
	// A timeout-promoted hold never arises from an unmapped key, so it is
	// always real output regardless of platform (spec.md §4.I).
	d.inject(outs, true)
}

func (d *Device) handle(ev processor.KeyEvent) {
	if d.observer != nil {
		d.observer.Observe(ev)
	}

	if d.guard != nil && d.guard.Armed() {
		// Armed passthrough never goes through the processor, so
		// "triggered" must follow the same suppresses-gated rule inject
		// otherwise applies: a suppressing platform consumed the
		// original event and must always replay it, but a non-suppressing
		// one (Windows) already delivered it to the focused app, so
		// forcing injection here would duplicate every keystroke for as
		// long as the hotkey stays armed.
		d.inject([]processor.KeyEvent{ev}, d.suppresses)
		return
	}

	proc := d.currentProcessor()
	outs, triggered := proc.ProcessTriggered(ev)
	d.inject(outs, triggered)
}

// inject writes out to the shared output device, honoring spec.md §6:
// platforms that suppress the original event (Linux EVIOCGRAB, Darwin
// CGEventTap) must always inject, even an unchanged passthrough, since
// nothing else will deliver it; platforms that don't (Windows Raw Input)
// must skip injection entirely when nothing was triggered, or the
// original keystroke and the remap both reach the focused application.
func (d *Device) inject(out []processor.KeyEvent, triggered bool) {
	if !d.suppresses && !triggered {
		return
	}
	for _, ev := range out {
		if err := d.output.Inject(ev); err != nil {
			if d.logger != nil {
				d.logger.Printf("runtime[%s]: inject failed for %s: %v", d.DeviceID, ev.Key, err)
			}
			continue
		}
		d.stats.record()
		d.recordLatency(ev.TsUs)
	}
}

// recordLatency records the wall-clock span from capture to this
// injection (spec.md §4.I). captureTsUs is the originating event's
// capture timestamp, which every output event carries forward from the
// input it was derived from, including tap-hold promotions.
func (d *Device) recordLatency(captureTsUs uint64) {
	if d.latency == nil {
		return
	}
	now := uint64(time.Now().UnixMicro())
	if now < captureTsUs {
		return
	}
	d.latency.Record(now - captureTsUs)
}

// Reload atomically replaces the active processor triple with one built
// from a freshly compiled DeviceConfig. Held output keys are released
// before the swap, and the old triple's custom-modifier state and
// tap-hold registry are cleared right after it, so no state leaks across
// the swap (spec.md §4.I, "Concurrency of reloads").
//
// The output device is shared across every device runtime on this
// platform (spec.md §5), so ReleaseAll here clears every key currently
// held through it, not just this device's; a reload is already a
// whole-daemon event in practice (the orchestrator validates and swaps
// all device configs together), so this matches the spec's intent
// without needing per-device held-key bookkeeping in OutputDevice.
func (d *Device) Reload(dc config.DeviceConfig) error {
	next := processor.New(d.DeviceID, dc, d.logger)

	if err := d.output.ReleaseAll(); err != nil {
		return err
	}

	d.mu.Lock()
	old := d.proc
	d.proc = next
	d.mu.Unlock()

	if old == nil {
		return nil
	}
	old.State().ReleaseAllModifiers()
	old.TapHold().Clear()
	return nil
}

// Shutdown releases held output keys, then releases the input device
// (spec.md §4.I: output.release_all() then input.release()).
func (d *Device) Shutdown() error {
	if err := d.output.ReleaseAll(); err != nil && d.logger != nil {
		d.logger.Printf("runtime[%s]: release_all failed: %v", d.DeviceID, err)
	}
	return d.input.Release()
}
