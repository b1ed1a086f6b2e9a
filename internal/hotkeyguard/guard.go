package hotkeyguard

import (
	"log"
	"sync/atomic"
)

// Guard tracks whether the panic hotkey is currently toggled on.
// Press-to-arm, press-again-to-disarm: an emergency unlock valve is only
// useful if the user doesn't have to hold a chord down while they fix
// their profile. Guard satisfies internal/runtime.PanicGuard.
type Guard struct {
	name   string
	logger *log.Logger
	armed  atomic.Bool
}

// New builds an unarmed Guard for the combo's display name.
func New(name string, logger *log.Logger) *Guard {
	return &Guard{name: name, logger: logger}
}

// Armed reports whether passthrough bypass is currently active.
func (g *Guard) Armed() bool { return g.armed.Load() }

// Toggle flips the armed state and returns the new value, logging the
// transition so the reason every subsequent key stops remapping is
// visible in the daemon's own log.
func (g *Guard) Toggle() bool {
	next := !g.armed.Load()
	g.armed.Store(next)
	if g.logger != nil {
		state := "disarmed"
		if next {
			state = "armed"
		}
		g.logger.Printf("hotkeyguard: panic hotkey %s (%s), passthrough %s", g.name, state, map[bool]string{true: "forced", false: "resumed"}[next])
	}
	return next
}
