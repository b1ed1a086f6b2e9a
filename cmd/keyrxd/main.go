// Command keyrxd is the keyrxd daemon entrypoint: loads the daemon
// config and compiled profile, opens one runtime per matched physical
// keyboard, and drives them until a terminating signal arrives.
package main

import (
	"context"
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/keyrx/keyrxd/internal/config"
	"github.com/keyrx/keyrxd/internal/container"
	"github.com/keyrx/keyrxd/internal/daemonconfig"
	"github.com/keyrx/keyrxd/internal/diagnostics"
	"github.com/keyrx/keyrxd/internal/hotkeyguard"
	"github.com/keyrx/keyrxd/internal/latency"
	"github.com/keyrx/keyrxd/internal/platform"
	"github.com/keyrx/keyrxd/internal/runtime"
)

// exit codes, per spec.md §6.
const (
	exitOK          = 0
	exitStartupFail = 1
	exitBadProfile  = 2
)

// panicHotkeyRunner is satisfied by hotkeyguard.ExternalListener
// (macOS/Windows); Linux's InlineDetector is wired as a
// runtime.EventObserver instead and needs no independent goroutine.
type panicHotkeyRunner interface {
	Run(ctx context.Context) error
}

func run() int {
	cfgPath := flag.String("config", daemonconfig.DefaultPath(), "path to keyrxd.toml")
	flag.Parse()

	cfg, err := daemonconfig.Load(*cfgPath)
	if err != nil {
		log.Printf("load daemon config: %v", err)
		return exitStartupFail
	}

	verbose := cfg.LogLevel == "debug" || cfg.LogLevel == "trace"
	var dbg *log.Logger
	if verbose {
		dbg = log.New(os.Stderr, "", log.Ltime|log.Lmicroseconds)
	} else {
		dbg = log.New(io.Discard, "", 0)
	}

	root, err := loadProfile(cfg.ProfilePath)
	if err != nil {
		log.Printf("load profile %s: %v", cfg.ProfilePath, err)
		if isCorruptProfile(err) {
			return exitBadProfile
		}
		return exitStartupFail
	}

	plat := platform.New()
	if err := plat.Initialize(); err != nil {
		log.Printf("platform init: %v", err)
		return exitStartupFail
	}
	defer plat.Shutdown()

	devices, err := plat.ListDevices()
	if err != nil {
		log.Printf("list devices: %v", err)
		return exitStartupFail
	}

	output, err := plat.Output()
	if err != nil {
		log.Printf("open output: %v", err)
		return exitStartupFail
	}

	var guard *hotkeyguard.Guard
	var panicRunner panicHotkeyRunner
	var panicObserver runtime.EventObserver
	if cfg.PanicHotkey != "" {
		guard, panicRunner, panicObserver, err = newPanicGuard(cfg.PanicHotkey, dbg)
		if err != nil {
			log.Printf("panic_hotkey: %v", err)
			return exitStartupFail
		}
	}

	runtimes := make([]*runtime.Device, 0, len(devices))
	names := make([]string, 0, len(devices))
	sources := make([]diagnostics.DeviceSource, 0, len(devices))

	for _, di := range devices {
		dc, ok := root.FindDevice(di.Name)
		if !ok {
			continue
		}
		if !cfg.DeviceExclusive(di.Name) {
			dbg.Printf("keyrxd: skipping %s (exclusive=false override)", di.Name)
			continue
		}

		input, err := plat.OpenInput(di.ID)
		if err != nil {
			log.Printf("open input %s: %v", di.Name, err)
			return exitStartupFail
		}

		d := runtime.New(di.ID, dc, input, output, plat.SuppressesInput(), dbg)
		if guard != nil {
			d.SetPanicGuard(guard)
		}
		if panicObserver != nil {
			d.SetObserver(panicObserver)
		}

		rec := latency.New()
		d.SetLatencyRecorder(rec)
		runtimes = append(runtimes, d)
		names = append(names, di.Name)

		sources = append(sources, diagnostics.DeviceSource{
			Name:     di.Name,
			Stats:    d.Stats().Total,
			Recorder: rec,
		})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	for _, d := range runtimes {
		wg.Add(1)
		go func(d *runtime.Device) {
			defer wg.Done()
			if err := d.Run(ctx); err != nil {
				dbg.Printf("keyrxd: device %s stopped with error: %v", d.DeviceID, err)
			}
		}(d)
	}

	if panicRunner != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := panicRunner.Run(ctx); err != nil {
				dbg.Printf("keyrxd: panic hotkey listener stopped: %v", err)
			}
		}()
	}

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	go func() {
		for sig := range sigs {
			if sig == syscall.SIGHUP {
				fresh, err := loadProfile(cfg.ProfilePath)
				if err != nil {
					dbg.Printf("keyrxd: SIGHUP reload failed, keeping previous profile: %v", err)
					continue
				}
				root = fresh
				for i, d := range runtimes {
					dc, ok := root.FindDevice(names[i])
					if !ok {
						continue
					}
					if err := d.Reload(dc); err != nil {
						dbg.Printf("keyrxd: reload %s failed: %v", d.DeviceID, err)
					}
				}
				dbg.Printf("keyrxd: reloaded profile %s", cfg.ProfilePath)
				continue
			}
			cancel()
			return
		}
	}()

	var armed func() bool
	if guard != nil {
		armed = guard.Armed
	}

	if cfg.TUI {
		p := tea.NewProgram(diagnostics.NewModel(sources, armed))
		if _, err := p.Run(); err != nil {
			dbg.Printf("keyrxd: tui error: %v", err)
		}
		cancel()
	}

	wg.Wait()

	for _, d := range runtimes {
		if err := d.Shutdown(); err != nil {
			dbg.Printf("keyrxd: shutdown %s: %v", d.DeviceID, err)
		}
	}

	return exitOK
}

func loadProfile(path string) (*config.Root, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return container.Deserialize(data)
}

func isCorruptProfile(err error) bool {
	_, ok := err.(*container.DecodeError)
	return ok
}
