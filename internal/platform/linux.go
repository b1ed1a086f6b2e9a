//go:build linux

package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"syscall"
	"time"
	"unsafe"

	evdev "github.com/holoplot/go-evdev"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

// eviocgrab is EVIOCGRAB: issued against a device's fd to make this
// process the exclusive recipient of its events (spec.md §6). It is
// issued on a dedicated fd separate from the one go-evdev uses to read,
// since the grab applies to the whole device regardless of which open
// fd requested it.
const eviocgrab = 0x40044590

func ioctlInt(fd uintptr, req uintptr, val uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, fd, req, val)
	if errno != 0 {
		return errno
	}
	return nil
}

// New returns the Linux Platform implementation.
func New() Platform { return &linuxPlatform{} }

type linuxPlatform struct {
	output *uinputOutput
}

func (p *linuxPlatform) Initialize() error {
	out, err := newUinputOutput()
	if err != nil {
		return fmt.Errorf("initialize uinput output: %w (add your user to the 'input' and 'uinput' groups, or install a udev rule granting access to /dev/uinput, then re-login)", err)
	}
	p.output = out
	return nil
}

func (p *linuxPlatform) ListDevices() ([]DeviceInfo, error) {
	matches, err := filepath.Glob("/dev/input/event*")
	if err != nil {
		return nil, fmt.Errorf("glob /dev/input/event*: %w", err)
	}
	sort.Slice(matches, func(i, j int) bool {
		ni, _ := strconv.Atoi(strings.TrimPrefix(matches[i], "/dev/input/event"))
		nj, _ := strconv.Atoi(strings.TrimPrefix(matches[j], "/dev/input/event"))
		return ni < nj
	})

	var infos []DeviceInfo
	for _, path := range matches {
		dev, err := evdev.Open(path)
		if err != nil {
			continue
		}
		if isKeyboard(dev) {
			name, _ := dev.Name()
			if name == "" {
				name = path
			}
			infos = append(infos, DeviceInfo{ID: path, Name: name, Path: path})
		}
		_ = dev.Close()
	}
	return infos, nil
}

// isKeyboard rejects devices exposing a relative axis (mice, trackpads)
// and requires the letter-key range KEY_A..KEY_Z, the same heuristic the
// corpus uses to distinguish real keyboards from power buttons.
func isKeyboard(dev *evdev.InputDevice) bool {
	for _, t := range dev.CapableTypes() {
		if t == evdev.EV_REL {
			return false
		}
	}
	hasA, hasZ := false, false
	for _, code := range dev.CapableEvents(evdev.EV_KEY) {
		switch uint16(code) {
		case 30:
			hasA = true
		case 44:
			hasZ = true
		}
	}
	return hasA && hasZ
}

func (p *linuxPlatform) OpenInput(deviceID string) (InputDevice, error) {
	dev, err := evdev.Open(deviceID)
	if err != nil {
		return nil, newDeviceError(ErrTransient, "open %s: %v", deviceID, err)
	}

	grabFd, err := os.OpenFile(deviceID, os.O_RDWR, 0)
	if err != nil {
		_ = dev.Close()
		return nil, newDeviceError(ErrPermission, "open %s for exclusive grab: %v", deviceID, err)
	}
	if err := ioctlInt(grabFd.Fd(), eviocgrab, 1); err != nil {
		_ = grabFd.Close()
		_ = dev.Close()
		return nil, newDeviceError(ErrPermission, "EVIOCGRAB %s: %v", deviceID, err)
	}

	li := &linuxInput{id: deviceID, dev: dev, grabFd: grabFd, events: make(chan processor.KeyEvent, 16), errs: make(chan error, 1)}
	go li.readLoop()
	return li, nil
}

func (p *linuxPlatform) Output() (OutputDevice, error) {
	if p.output == nil {
		return nil, fmt.Errorf("output device not initialized")
	}
	return p.output, nil
}

func (p *linuxPlatform) Shutdown() error {
	if p.output == nil {
		return nil
	}
	return p.output.Shutdown()
}

func (p *linuxPlatform) SuppressesInput() bool { return true }

type linuxInput struct {
	id     string
	dev    *evdev.InputDevice
	grabFd *os.File
	events chan processor.KeyEvent
	errs   chan error
	closed int32
}

func (li *linuxInput) DeviceID() string { return li.id }

func (li *linuxInput) readLoop() {
	for {
		ev, err := li.dev.ReadOne()
		if err != nil {
			if atomic.LoadInt32(&li.closed) == 1 {
				li.errs <- newDeviceError(ErrEndOfStream, "device released")
			} else {
				li.errs <- newDeviceError(ErrTransient, "%v", err)
			}
			return
		}
		if ev.Type != evdev.EV_KEY || ev.Value == 2 {
			// EV_SYN/EV_MSC noise and key-repeat (value 2) are not
			// forwarded; the tap-hold engine and OS key-repeat would
			// otherwise double-count a held key.
			continue
		}
		code, ok := codeFromEvdev(ev.Code)
		if !ok {
			continue
		}
		li.events <- processor.KeyEvent{
			Key:      code,
			IsPress:  ev.Value == 1,
			TsUs:     uint64(ev.Time.Sec)*1_000_000 + uint64(ev.Time.Usec),
			DeviceID: li.id,
		}
	}
}

func (li *linuxInput) CaptureWithTimeout(dt time.Duration) (processor.KeyEvent, error) {
	select {
	case ev := <-li.events:
		return ev, nil
	case err := <-li.errs:
		return processor.KeyEvent{}, err
	case <-time.After(dt):
		return processor.KeyEvent{}, newDeviceError(ErrTimeout, "")
	}
}

func (li *linuxInput) Release() error {
	atomic.StoreInt32(&li.closed, 1)
	_ = ioctlInt(li.grabFd.Fd(), eviocgrab, 0)
	_ = li.grabFd.Close()
	return li.dev.Close()
}

// uinputOutput injects synthesized keystrokes through a single virtual
// keyboard, grounded on the /dev/uinput ioctl sequence the corpus uses
// (UI_SET_EVBIT, UI_SET_KEYBIT, UI_DEV_SETUP, UI_DEV_CREATE).
type uinputOutput struct {
	mu   sync.Mutex
	fd   int
	held map[keycode.Code]bool
}

const (
	uiSetEvbit    = 0x40045564
	uiSetKeybit   = 0x40045565
	uiDevCreate   = 0x5501
	uiDevDestroy  = 0x5502
	uiDevSetup    = 0x405c5503
	busUSB        = 0x03
	uinputMaxName = 80
	evSyn         = 0x00
	evKey         = 0x01
	synReport     = 0
)

type uinputSetup struct {
	ID struct {
		Bustype uint16
		Vendor  uint16
		Product uint16
		Version uint16
	}
	Name      [uinputMaxName]byte
	FFEffects uint32
}

type rawInputEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

func newUinputOutput() (*uinputOutput, error) {
	fd, err := syscall.Open("/dev/uinput", syscall.O_WRONLY|syscall.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/uinput: %w", err)
	}

	out := &uinputOutput{fd: fd, held: make(map[keycode.Code]bool)}

	if err := out.ioctl(uiSetEvbit, evKey); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("UI_SET_EVBIT: %w", err)
	}
	for code := 0; code < 256; code++ {
		if err := out.ioctl(uiSetKeybit, uintptr(code)); err != nil {
			syscall.Close(fd)
			return nil, fmt.Errorf("UI_SET_KEYBIT %d: %w", code, err)
		}
	}

	var setup uinputSetup
	setup.ID.Bustype = busUSB
	setup.ID.Vendor = 0x4b52
	setup.ID.Product = 0x5801
	setup.ID.Version = 1
	copy(setup.Name[:], "keyrxd virtual keyboard")
	if err := out.ioctlPtr(uiDevSetup, unsafe.Pointer(&setup)); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("UI_DEV_SETUP: %w", err)
	}
	if err := out.ioctl(uiDevCreate, 0); err != nil {
		syscall.Close(fd)
		return nil, fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	time.Sleep(100 * time.Millisecond)
	return out, nil
}

func (o *uinputOutput) ioctl(req, val uintptr) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(o.fd), req, val)
	if errno != 0 {
		return errno
	}
	return nil
}

func (o *uinputOutput) ioctlPtr(req uintptr, ptr unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(o.fd), req, uintptr(ptr))
	if errno != 0 {
		return errno
	}
	return nil
}

func (o *uinputOutput) writeEvent(evType, code uint16, value int32) error {
	var tv syscall.Timeval
	syscall.Gettimeofday(&tv)
	ev := rawInputEvent{Time: tv, Type: evType, Code: code, Value: value}
	buf := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	_, err := syscall.Write(o.fd, buf)
	return err
}

func (o *uinputOutput) sync() error { return o.writeEvent(evSyn, synReport, 0) }

func (o *uinputOutput) Inject(ev processor.KeyEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	evdevCode, ok := evdevFromCode(ev.Key)
	if !ok {
		return newDeviceError(ErrTransient, "no evdev mapping for %s", ev.Key)
	}
	value := int32(0)
	if ev.IsPress {
		value = 1
		o.held[ev.Key] = true
	} else {
		delete(o.held, ev.Key)
	}
	if err := o.writeEvent(evKey, evdevCode, value); err != nil {
		return newDeviceError(ErrTransient, "write key event: %v", err)
	}
	return o.sync()
}

func (o *uinputOutput) ReleaseAll() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for code := range o.held {
		evdevCode, ok := evdevFromCode(code)
		if !ok {
			continue
		}
		_ = o.writeEvent(evKey, evdevCode, 0)
		_ = o.sync()
		delete(o.held, code)
	}
	return nil
}

func (o *uinputOutput) Shutdown() error {
	_ = o.ReleaseAll()
	o.mu.Lock()
	defer o.mu.Unlock()
	_ = o.ioctl(uiDevDestroy, 0)
	return syscall.Close(o.fd)
}
