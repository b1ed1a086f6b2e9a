// Package processor implements the event processor (spec.md §4.F): the
// per-device pipeline that turns one captured KeyEvent into zero or more
// output KeyEvents, consulting the tap-hold engine, the lookup index, and
// device state in the order the spec prescribes.
package processor

import (
	"log"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/lookup"
	"github.com/keyrx/keyrxd/internal/state"
	"github.com/keyrx/keyrxd/internal/taphold"
)

// MaxOutputsPerEvent bounds the output queue a single input event can
// produce (spec.md §4.F): a ModifiedOutput chord with all four modifiers
// active is the worst case, at four modifier presses/releases plus the
// target key.
const MaxOutputsPerEvent = 5

// KeyEvent is a single captured or emitted keystroke, annotated with the
// originating device and a capture-clock microsecond timestamp.
type KeyEvent struct {
	Key      keycode.Code
	IsPress  bool
	TsUs     uint64
	DeviceID string
}

// Processor owns one physical device's lookup index, runtime state, and
// tap-hold engine, and turns captured events into output events. It is
// never shared across goroutines (spec.md §5): the per-device runtime is
// its sole owner.
type Processor struct {
	DeviceID string

	lookup  *lookup.Index
	state   *state.Device
	tapHold *taphold.Processor
	logger  *log.Logger
}

// New builds a Processor for one device's compiled configuration.
func New(deviceID string, dc config.DeviceConfig, logger *log.Logger) *Processor {
	tp := taphold.NewProcessor(taphold.DefaultCapacity)
	for _, m := range dc.Mappings {
		if m.Kind != config.MappingBase {
			continue
		}
		if m.Base.Kind == config.KindTapHold {
			tp.Register(m.Base.From, taphold.Config{
				TapKey:       m.Base.Tap,
				HoldModifier: m.Base.HoldModifier,
				ThresholdUs:  m.Base.ThresholdUs,
			})
		}
	}
	return &Processor{
		DeviceID: deviceID,
		lookup:   lookup.Build(dc),
		state:    state.New(),
		tapHold:  tp,
		logger:   logger,
	}
}

// State exposes the device's runtime state, primarily so the per-device
// runtime can drain held modifiers/locks on reload or shutdown.
func (p *Processor) State() *state.Device { return p.state }

// TapHold exposes the tap-hold engine, primarily so the scheduler can
// call CheckTimeouts on its own idle-wake cadence.
func (p *Processor) TapHold() *taphold.Processor { return p.tapHold }

// SweepTimeouts checks the tap-hold registry for entries past their
// absolute deadline without a fresh input event to piggyback the check
// on (the scheduler's 10ms idle wake, spec.md §4.I), returning any
// resulting output events.
func (p *Processor) SweepTimeouts(nowUs uint64, deviceID string) []KeyEvent {
	out := make([]KeyEvent, 0, 2)
	p.applyTapHoldOutputs(p.tapHold.CheckTimeouts(nowUs), KeyEvent{DeviceID: deviceID, TsUs: nowUs}, &out)
	return out
}

// Process implements the spec.md §4.F algorithm for one input event,
// returning the output events (if any) the caller should inject. See
// ProcessTriggered for platforms (Windows) that must know whether a
// mapping actually fired before deciding whether to inject at all.
func (p *Processor) Process(in KeyEvent) []KeyEvent {
	out, _ := p.ProcessTriggered(in)
	return out
}

// ProcessTriggered is Process plus a triggered flag: false means no
// mapping fired and out is exactly the unchanged passthrough of in. Linux
// (EVIOCGRAB) and Darwin (CGEventTap) consume the original event and so
// must always inject out regardless of triggered; Windows Raw Input does
// not consume the original, so the runtime must skip injection entirely
// when triggered is false, per spec.md §6 ("the processor must not inject
// when no mapping was triggered, or a feedback loop results").
func (p *Processor) ProcessTriggered(in KeyEvent) ([]KeyEvent, bool) {
	out := make([]KeyEvent, 0, 4)
	triggered := false

	if in.IsPress && !p.tapHold.IsPending(in.Key) {
		if outs := p.tapHold.ProcessOtherKeyPress(in.Key); len(outs) > 0 {
			triggered = true
			p.applyTapHoldOutputs(outs, in, &out)
		}
	}
	if outs := p.tapHold.CheckTimeouts(in.TsUs); len(outs) > 0 {
		triggered = true
		p.applyTapHoldOutputs(outs, in, &out)
	}

	if p.tapHold.IsTapHoldKey(in.Key) {
		var taphOut []taphold.Output
		tracked := p.tapHold.IsPending(in.Key) || p.tapHold.IsHold(in.Key)
		if in.IsPress {
			taphOut = p.tapHold.ProcessPress(in.Key, in.TsUs)
			tracked = p.tapHold.IsPending(in.Key) || p.tapHold.IsHold(in.Key)
		} else {
			taphOut = p.tapHold.ProcessRelease(in.Key, in.TsUs)
		}
		if !tracked {
			// Registry full at press time: the press, and later its
			// release, pass through unchanged.
			out = append(out, in)
			return out, triggered
		}
		p.applyTapHoldOutputs(taphOut, in, &out)
		return out, true
	}

	mapping, ok := p.lookup.Find(in.Key, p.state)
	if !ok {
		out = append(out, in)
		return out, triggered
	}
	triggered = true

	switch mapping.Kind {
	case config.KindSimple:
		out = append(out, KeyEvent{Key: mapping.To, IsPress: in.IsPress, TsUs: in.TsUs, DeviceID: in.DeviceID})
	case config.KindModifier:
		if in.IsPress {
			p.state.SetModifier(mapping.BitID)
		} else {
			p.state.ClearModifier(mapping.BitID)
		}
	case config.KindLock:
		if in.IsPress {
			p.state.ToggleLock(mapping.BitID)
		}
	case config.KindModifiedOutput:
		out = append(out, p.modifiedOutputEvents(mapping, in)...)
	case config.KindTapHold:
		// Registered tap-hold keys are always dispatched in the branch
		// above; a TapHold mapping reaching here is one inside a
		// Conditional block, which New does not register.
		// Passthrough and log rather than drop the event silently.
		if p.logger != nil {
			p.logger.Printf("processor: unregistered TapHold mapping for key %s, passing through", in.Key)
		}
		out = append(out, in)
	default:
		out = append(out, in)
	}

	return out, triggered
}

// applyTapHoldOutputs mutates state for Activate/Deactivate outputs and
// appends any real keystroke (the emitted tap) to out.
func (p *Processor) applyTapHoldOutputs(outs []taphold.Output, in KeyEvent, out *[]KeyEvent) {
	for _, o := range outs {
		switch o.Kind {
		case taphold.OutActivateModifier:
			p.state.SetModifier(o.ModifierID)
		case taphold.OutDeactivateModifier:
			p.state.ClearModifier(o.ModifierID)
		case taphold.OutKeyEvent:
			*out = append(*out, KeyEvent{Key: o.Key, IsPress: o.IsPress, TsUs: o.TimestampUs, DeviceID: in.DeviceID})
		}
	}
}

// modifiedOutputEvents implements the ModifiedOutput chord (spec.md
// §4.F): on press, the active modifiers in fixed Shift/Ctrl/Alt/Win order
// followed by the target key; on release, the target key followed by the
// modifiers in reverse order. Each emitted modifier is its canonical
// Left-side variant.
func (p *Processor) modifiedOutputEvents(m config.BaseKeyMapping, in KeyEvent) []KeyEvent {
	type chordMod struct {
		active bool
		kind   keycode.OSModifier
	}
	mods := []chordMod{
		{m.Shift, keycode.OSShift},
		{m.Ctrl, keycode.OSCtrl},
		{m.Alt, keycode.OSAlt},
		{m.Win, keycode.OSWin},
	}

	var events []KeyEvent
	target := KeyEvent{Key: m.To, IsPress: in.IsPress, TsUs: in.TsUs, DeviceID: in.DeviceID}

	if in.IsPress {
		for _, mod := range mods {
			if mod.active {
				events = append(events, KeyEvent{Key: keycode.LeftVariant(mod.kind), IsPress: true, TsUs: in.TsUs, DeviceID: in.DeviceID})
			}
		}
		events = append(events, target)
		return events
	}

	events = append(events, target)
	for i := len(mods) - 1; i >= 0; i-- {
		if mods[i].active {
			events = append(events, KeyEvent{Key: keycode.LeftVariant(mods[i].kind), IsPress: false, TsUs: in.TsUs, DeviceID: in.DeviceID})
		}
	}
	return events
}
