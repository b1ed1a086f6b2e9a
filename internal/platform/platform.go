// Package platform defines the minimal OS input/output surface (spec.md
// §6) that the per-device runtime consumes: capture events from a
// physical keyboard, inject events to a virtual one, and enumerate
// candidate devices. Each OS gets its own build-tagged implementation;
// this file holds the shared interface and error types.
package platform

import (
	"fmt"
	"time"

	"github.com/keyrx/keyrxd/internal/processor"
)

// DeviceInfo describes one candidate physical keyboard discovered by
// ListDevices, before any DeviceConfig has matched it.
type DeviceInfo struct {
	ID   string // stable identifier: serial number where available, else OS device path
	Name string // OS-reported product name, matched against DeviceIdentifier patterns
	Path string // OS-specific handle (e.g. /dev/input/event4); informational only
}

// ErrorKind classifies a DeviceError so callers can distinguish a clean
// shutdown from a retryable fault (spec.md §4.I).
type ErrorKind int

const (
	// ErrEndOfStream signals the input device was closed deliberately
	// (Release was called, or the underlying device disappeared during
	// planned shutdown); the scheduler exits its loop without error.
	ErrEndOfStream ErrorKind = iota
	// ErrTimeout signals capture_with_timeout's deadline elapsed with no
	// event; not an error, but shaped as one so a single CaptureWithTimeout
	// return value can express it without an extra bool.
	ErrTimeout
	// ErrPermission signals the OS denied access (missing group
	// membership, Accessibility permission, or similar); fatal at
	// startup, logged and retried at reload.
	ErrPermission
	// ErrTransient signals a recoverable I/O fault; the scheduler logs
	// and retries after 10ms (spec.md §4.I).
	ErrTransient
)

func (k ErrorKind) String() string {
	switch k {
	case ErrEndOfStream:
		return "end of stream"
	case ErrTimeout:
		return "timeout"
	case ErrPermission:
		return "permission denied"
	case ErrTransient:
		return "transient I/O error"
	default:
		return "unknown device error"
	}
}

// DeviceError is the error type returned by InputDevice/OutputDevice
// operations, carrying enough context for the remediation messages
// spec.md §6 requires on Linux permission failures.
type DeviceError struct {
	Kind ErrorKind
	Msg  string
}

func (e *DeviceError) Error() string {
	if e.Msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func newDeviceError(kind ErrorKind, format string, args ...any) *DeviceError {
	return &DeviceError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// IsTimeout reports whether err is a DeviceError carrying ErrTimeout —
// the scheduler's normal idle-wake path, not a fault.
func IsTimeout(err error) bool {
	de, ok := err.(*DeviceError)
	return ok && de.Kind == ErrTimeout
}

// IsEndOfStream reports whether err signals a deliberate, clean close.
func IsEndOfStream(err error) bool {
	de, ok := err.(*DeviceError)
	return ok && de.Kind == ErrEndOfStream
}

// InputDevice captures keystrokes from one physical keyboard (spec.md §6).
// Where the platform's SuppressesInput is true the capture is exclusive and
// the OS never delivers the same keystroke to any other application; on
// Windows Raw Input the original keystroke is still delivered.
type InputDevice interface {
	// DeviceID returns the stable identifier this input was opened for.
	DeviceID() string
	// CaptureWithTimeout blocks for the next event or until dt elapses,
	// returning a DeviceError{Kind: ErrTimeout} in the latter case.
	CaptureWithTimeout(dt time.Duration) (processor.KeyEvent, error)
	// Release drops exclusive access and closes the underlying handle.
	Release() error
}

// OutputDevice injects synthesized keystrokes through a single virtual
// keyboard shared by every per-device runtime in the daemon (spec.md §5).
type OutputDevice interface {
	// Inject emits one keystroke through the virtual device.
	Inject(ev processor.KeyEvent) error
	// ReleaseAll emits a release for every key this device currently
	// tracks as held, then clears its held-key set (spec.md §4.I).
	ReleaseAll() error
	// Shutdown destroys the virtual device after releasing held keys.
	Shutdown() error
}

// Platform is the minimal per-OS surface the daemon consumes (spec.md
// §6): enumerate candidate keyboards, open an exclusive input handle for
// one, and obtain the single shared output device.
type Platform interface {
	// Initialize performs one-time OS setup (Linux opens /dev/uinput,
	// macOS prepares the output device; Windows has nothing to set up here).
	Initialize() error
	// ListDevices enumerates candidate physical keyboards.
	ListDevices() ([]DeviceInfo, error)
	// OpenInput starts capture for one device by its stable ID, exclusively
	// where SuppressesInput is true.
	OpenInput(deviceID string) (InputDevice, error)
	// Output returns the daemon's single shared virtual output device.
	Output() (OutputDevice, error)
	// Shutdown tears down everything Initialize set up.
	Shutdown() error
	// SuppressesInput reports whether capture consumes the original event
	// before it reaches any other application (Linux EVIOCGRAB, Darwin
	// CGEventTap). When false (Windows Raw Input), the OS delivers the
	// original keystroke regardless of what the daemon does, so the
	// runtime must only inject when a mapping actually fired — otherwise
	// both the original and the remap reach the focused application
	// (spec.md §6).
	SuppressesInput() bool
}
