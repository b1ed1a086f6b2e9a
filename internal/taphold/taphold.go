// Package taphold implements the tap-hold engine (spec.md §4.E): per-key
// state machines that decide, for each registered tap-hold key, whether a
// press resolves as a tap, a hold, or (on a late release) a delayed
// hold-then-deactivate pair — including the "permissive hold" discipline
// that lets an interrupting key see the promoted modifier state.
package taphold

import "github.com/keyrx/keyrxd/internal/keycode"

// DefaultCapacity is the default number of concurrent in-flight tap-hold
// keys a Processor can track (spec.md §4.E).
const DefaultCapacity = 32

// MaxOutputEvents bounds how many Output values a single ProcessPress or
// ProcessRelease call can produce (spec.md §4.E): a tap emits 2, a hold
// deactivation emits 1, and the late-hold branch emits 2. CheckTimeouts
// and ProcessOtherKeyPress emit one activation per promoted entry, so
// with many pending keys they can exceed this bound.
const MaxOutputEvents = 4

// Phase is a pending key's position in the tap/hold state machine.
type Phase int

const (
	Idle Phase = iota
	Pending
	Hold
)

// Config describes one tap-hold mapping's behavior.
type Config struct {
	TapKey       keycode.Code
	HoldModifier uint8
	ThresholdUs  uint32
}

// OutputKind tags an Output's meaning.
type OutputKind int

const (
	OutKeyEvent OutputKind = iota
	OutActivateModifier
	OutDeactivateModifier
)

// Output is one effect the engine asks the caller to apply: either a
// discrete keystroke (the emitted tap) or a state-only modifier
// activation/deactivation that influences subsequent lookups but never
// reaches the OS (spec.md §4.F).
type Output struct {
	Kind        OutputKind
	Key         keycode.Code // OutKeyEvent
	IsPress     bool         // OutKeyEvent
	TimestampUs uint64       // OutKeyEvent
	ModifierID  uint8        // OutActivateModifier / OutDeactivateModifier
}

func keyEvent(key keycode.Code, isPress bool, ts uint64) Output {
	return Output{Kind: OutKeyEvent, Key: key, IsPress: isPress, TimestampUs: ts}
}

func activate(id uint8) Output   { return Output{Kind: OutActivateModifier, ModifierID: id} }
func deactivate(id uint8) Output { return Output{Kind: OutDeactivateModifier, ModifierID: id} }

type pendingState struct {
	key     keycode.Code
	cfg     Config
	phase   Phase
	pressTs uint64
}

func (s *pendingState) elapsed(now uint64) uint64 {
	if now < s.pressTs {
		return 0
	}
	return now - s.pressTs
}

// thresholdExceeded implements the spec's "elapsed >= threshold" edge:
// exactly elapsed == threshold is a hold.
func (s *pendingState) thresholdExceeded(now uint64) bool {
	return s.elapsed(now) >= uint64(s.cfg.ThresholdUs)
}

// registry is the fixed-capacity arena of in-flight tap-hold states
// (spec.md §9): a linear-scan slot array rather than a growable map, so
// the hot path never allocates and the worst-case sweep cost is bounded.
type registry struct {
	slots []pendingState
	used  []bool
}

func newRegistry(capacity int) *registry {
	return &registry{slots: make([]pendingState, capacity), used: make([]bool, capacity)}
}

func (r *registry) indexOf(key keycode.Code) int {
	for i, u := range r.used {
		if u && r.slots[i].key == key {
			return i
		}
	}
	return -1
}

func (r *registry) contains(key keycode.Code) bool { return r.indexOf(key) >= 0 }

func (r *registry) get(key keycode.Code) (*pendingState, bool) {
	i := r.indexOf(key)
	if i < 0 {
		return nil, false
	}
	return &r.slots[i], true
}

// add inserts s into the first free slot, returning false if the
// registry is at capacity.
func (r *registry) add(s pendingState) bool {
	for i, u := range r.used {
		if !u {
			r.slots[i] = s
			r.used[i] = true
			return true
		}
	}
	return false
}

func (r *registry) remove(key keycode.Code) {
	if i := r.indexOf(key); i >= 0 {
		r.used[i] = false
	}
}

func (r *registry) clear() {
	for i := range r.used {
		r.used[i] = false
	}
}

// Processor manages every registered tap-hold key for one device.
type Processor struct {
	configs map[keycode.Code]Config
	pending *registry
}

// NewProcessor creates a Processor with the given pending-slot capacity.
func NewProcessor(capacity int) *Processor {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Processor{configs: make(map[keycode.Code]Config), pending: newRegistry(capacity)}
}

// Register adds a tap-hold configuration for key. Returns false if key is
// already registered.
func (p *Processor) Register(key keycode.Code, cfg Config) bool {
	if _, exists := p.configs[key]; exists {
		return false
	}
	p.configs[key] = cfg
	return true
}

// IsTapHoldKey reports whether key has a registered tap-hold configuration.
func (p *Processor) IsTapHoldKey(key keycode.Code) bool {
	_, ok := p.configs[key]
	return ok
}

// IsPending reports whether key currently has a Pending entry.
func (p *Processor) IsPending(key keycode.Code) bool {
	s, ok := p.pending.get(key)
	return ok && s.phase == Pending
}

// IsHold reports whether key currently has a Hold entry.
func (p *Processor) IsHold(key keycode.Code) bool {
	s, ok := p.pending.get(key)
	return ok && s.phase == Hold
}

// HasPendingKeys reports whether any key is currently Pending.
func (p *Processor) HasPendingKeys() bool {
	for i, u := range p.pending.used {
		if u && p.pending.slots[i].phase == Pending {
			return true
		}
	}
	return false
}

// ProcessPress handles the press of a registered tap-hold key: it always
// transitions Idle -> Pending and never emits output of its own (the
// outcome is decided on release or timeout).
func (p *Processor) ProcessPress(key keycode.Code, tsUs uint64) []Output {
	cfg, ok := p.configs[key]
	if !ok {
		return nil
	}
	if p.pending.contains(key) {
		// Already pending; a duplicate press (e.g. OS key-repeat) is
		// ignored rather than creating a second entry.
		return nil
	}
	if !p.pending.add(pendingState{key: key, cfg: cfg, phase: Pending, pressTs: tsUs}) {
		// Registry full: caller treats this press as passthrough.
		return nil
	}
	return nil
}

// ProcessRelease handles the release of a registered tap-hold key,
// resolving it as a tap, a late hold, or a hold deactivation depending on
// its phase and elapsed time (spec.md §4.E transition table).
func (p *Processor) ProcessRelease(key keycode.Code, tsUs uint64) []Output {
	s, ok := p.pending.get(key)
	if !ok {
		return nil
	}

	var out []Output
	switch s.phase {
	case Idle:
		// Unreachable in practice (Idle entries are never stored), but
		// handled for safety: just drop the stale entry.
	case Pending:
		if s.thresholdExceeded(tsUs) {
			out = append(out, activate(s.cfg.HoldModifier), deactivate(s.cfg.HoldModifier))
		} else {
			out = append(out, keyEvent(s.cfg.TapKey, true, tsUs), keyEvent(s.cfg.TapKey, false, tsUs))
		}
	case Hold:
		out = append(out, deactivate(s.cfg.HoldModifier))
	}
	p.pending.remove(key)
	return out
}

// CheckTimeouts promotes every Pending entry whose threshold has elapsed
// by now to Hold, emitting one ActivateModifier per promotion. The
// scheduler calls this on every input event and at least every 10ms of
// idle time (spec.md §4.E, §4.I).
func (p *Processor) CheckTimeouts(now uint64) []Output {
	var out []Output
	for i, u := range p.pending.used {
		if !u {
			continue
		}
		s := &p.pending.slots[i]
		if s.phase == Pending && s.thresholdExceeded(now) {
			s.phase = Hold
			out = append(out, activate(s.cfg.HoldModifier))
		}
	}
	return out
}

// ProcessOtherKeyPress implements permissive hold (spec.md §4.E glossary):
// called before resolving the mapping of any press that is not itself a
// pending tap-hold key, it promotes every currently Pending entry to Hold
// immediately, so the interrupting key's own lookup sees the new modifier
// state. Pressing another tap-hold key does not trigger this — it simply
// becomes its own Pending entry.
func (p *Processor) ProcessOtherKeyPress(key keycode.Code) []Output {
	if p.IsTapHoldKey(key) {
		return nil
	}
	var out []Output
	for i, u := range p.pending.used {
		if !u {
			continue
		}
		s := &p.pending.slots[i]
		if s.phase == Pending {
			s.phase = Hold
			out = append(out, activate(s.cfg.HoldModifier))
		}
	}
	return out
}

// Clear removes every pending entry without emitting deactivations; the
// caller (internal/runtime, on reload) is responsible for deactivating
// any modifiers that were active.
func (p *Processor) Clear() {
	p.pending.clear()
}
