//go:build darwin

package main

import (
	"os"

	"golang.design/x/mainthread"
)

// On macOS, golang.design/x/hotkey's registration must happen on the
// process's real main thread, so the whole daemon runs inside
// mainthread.Init rather than a plain os.Exit(run()). This costs
// nothing on the capture side — internal/platform's own CGEventTap
// already pins its run loop to a dedicated locked OS thread per device,
// independent of this one.
func main() {
	mainthread.Init(func() {
		os.Exit(run())
	})
}
