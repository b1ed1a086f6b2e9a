//go:build darwin

package platform

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation

#include <stdint.h>

extern int  startCapture(int tapID);
extern void stopCapture(int tapID);
extern void postKeyEvent(uint16_t vk, int keyDown);
*/
import "C"

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

const maxTaps = 256

var (
	tapMu       sync.Mutex
	tapMap      = make(map[int]*darwinInput)
	nextTapID   int
	freedTapIDs []int
)

func allocTapID() (int, error) {
	if n := len(freedTapIDs); n > 0 {
		id := freedTapIDs[n-1]
		freedTapIDs = freedTapIDs[:n-1]
		return id, nil
	}
	if nextTapID >= maxTaps {
		return 0, fmt.Errorf("event tap limit reached")
	}
	id := nextTapID
	nextTapID++
	return id, nil
}

func freeTapID(id int) { freedTapIDs = append(freedTapIDs, id) }

// New returns the Darwin Platform implementation.
func New() Platform { return &darwinPlatform{} }

type darwinPlatform struct {
	output *darwinOutput
}

func (p *darwinPlatform) Initialize() error {
	p.output = &darwinOutput{held: make(map[keycode.Code]bool)}
	return nil
}

func (p *darwinPlatform) ListDevices() ([]DeviceInfo, error) {
	// CGEventTap captures the whole login session's keyboard stream as one
	// merged feed; macOS exposes no per-device enumeration the way evdev
	// exposes /dev/input/event*. A single synthetic device represents the
	// entire capture surface (spec.md §6).
	return []DeviceInfo{{ID: "session", Name: "macOS session keyboard input", Path: "cgeventtap"}}, nil
}

func (p *darwinPlatform) OpenInput(deviceID string) (InputDevice, error) {
	tapMu.Lock()
	id, err := allocTapID()
	if err != nil {
		tapMu.Unlock()
		return nil, newDeviceError(ErrTransient, "%v", err)
	}
	di := &darwinInput{
		id:     deviceID,
		tapID:  id,
		events: make(chan processor.KeyEvent, 16),
		errs:   make(chan error, 1),
		ready:  make(chan struct{}),
	}
	tapMap[id] = di
	tapMu.Unlock()

	go di.run()

	select {
	case <-di.ready:
	case err := <-di.errs:
		return nil, err
	}
	return di, nil
}

func (p *darwinPlatform) Output() (OutputDevice, error) {
	if p.output == nil {
		return nil, fmt.Errorf("output device not initialized")
	}
	return p.output, nil
}

func (p *darwinPlatform) Shutdown() error {
	if p.output == nil {
		return nil
	}
	return p.output.Shutdown()
}

func (p *darwinPlatform) SuppressesInput() bool { return true }

// darwinInput runs a CGEventTap for the lifetime of the daemon on its own
// locked OS thread, mirroring the teacher's hotkey_darwin.go Start()
// pattern of runtime.LockOSThread before the blocking C call.
type darwinInput struct {
	id        string
	tapID     int
	events    chan processor.KeyEvent
	errs      chan error
	ready     chan struct{}
	readyOnce sync.Once
}

func (di *darwinInput) run() {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	di.readyOnce.Do(func() { close(di.ready) })

	ret := C.startCapture(C.int(di.tapID))

	tapMu.Lock()
	delete(tapMap, di.tapID)
	freeTapID(di.tapID)
	tapMu.Unlock()

	if ret != 0 {
		di.errs <- newDeviceError(ErrPermission, "failed to create CGEventTap (grant Accessibility and Input Monitoring permission in System Settings > Privacy & Security)")
		return
	}
	di.errs <- newDeviceError(ErrEndOfStream, "event tap stopped")
}

func (di *darwinInput) DeviceID() string { return di.id }

func (di *darwinInput) CaptureWithTimeout(dt time.Duration) (processor.KeyEvent, error) {
	select {
	case ev := <-di.events:
		return ev, nil
	case err := <-di.errs:
		return processor.KeyEvent{}, err
	case <-time.After(dt):
		return processor.KeyEvent{}, newDeviceError(ErrTimeout, "")
	}
}

func (di *darwinInput) Release() error {
	C.stopCapture(C.int(di.tapID))
	return nil
}

const (
	cgEventKeyDown = 10
	cgEventKeyUp   = 11
)

//export captureEventCallback
func captureEventCallback(tapID C.int, eventType C.int, virtualKey C.uint16_t) {
	tapMu.Lock()
	di, ok := tapMap[int(tapID)]
	tapMu.Unlock()
	if !ok {
		return
	}
	code, ok := codeFromDarwin(uint16(virtualKey))
	if !ok {
		return
	}
	select {
	case di.events <- processor.KeyEvent{
		Key:      code,
		IsPress:  int(eventType) == cgEventKeyDown,
		TsUs:     uint64(time.Now().UnixMicro()),
		DeviceID: di.id,
	}:
	default:
		// Channel saturated: drop rather than block the event tap
		// thread, which would stall every keystroke system-wide.
	}
}

// darwinOutput injects synthesized keystrokes by posting CGEvents back
// into the HID event stream, the standard macOS counterpart to uinput.
type darwinOutput struct {
	mu   sync.Mutex
	held map[keycode.Code]bool
}

func (o *darwinOutput) Inject(ev processor.KeyEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	vk, ok := darwinFromCode(ev.Key)
	if !ok {
		return newDeviceError(ErrTransient, "no macOS virtual-key mapping for %s", ev.Key)
	}
	down := C.int(0)
	if ev.IsPress {
		down = 1
		o.held[ev.Key] = true
	} else {
		delete(o.held, ev.Key)
	}
	C.postKeyEvent(C.uint16_t(vk), down)
	return nil
}

func (o *darwinOutput) ReleaseAll() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for code := range o.held {
		if vk, ok := darwinFromCode(code); ok {
			C.postKeyEvent(C.uint16_t(vk), 0)
		}
		delete(o.held, code)
	}
	return nil
}

func (o *darwinOutput) Shutdown() error {
	return o.ReleaseAll()
}
