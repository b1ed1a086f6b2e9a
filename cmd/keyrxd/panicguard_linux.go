//go:build linux

package main

import (
	"log"

	"github.com/keyrx/keyrxd/internal/hotkeyguard"
	"github.com/keyrx/keyrxd/internal/runtime"
)

// newPanicGuard wires the panic_hotkey combo to Linux's inline detector
// (internal/hotkeyguard.InlineDetector): it rides the already-grabbed
// capture stream instead of needing its own listener goroutine, so the
// returned panicHotkeyRunner is always nil here.
func newPanicGuard(combo string, logger *log.Logger) (*hotkeyguard.Guard, panicHotkeyRunner, runtime.EventObserver, error) {
	det, g, err := hotkeyguard.NewInlineDetector(combo, logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return g, nil, det, nil
}
