//go:build darwin || windows

package main

import (
	"log"

	"github.com/keyrx/keyrxd/internal/hotkeyguard"
	"github.com/keyrx/keyrxd/internal/runtime"
)

// newPanicGuard wires the panic_hotkey combo to an OS-level global
// hotkey registration (internal/hotkeyguard.ExternalListener), which
// runs its own goroutine independent of the capture tap, so the
// returned runtime.EventObserver is always nil here.
func newPanicGuard(combo string, logger *log.Logger) (*hotkeyguard.Guard, panicHotkeyRunner, runtime.EventObserver, error) {
	listener, g, err := hotkeyguard.NewExternalListener(combo, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, listener, nil, nil
}
