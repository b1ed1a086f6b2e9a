package platform

import (
	"time"

	"github.com/keyrx/keyrxd/internal/processor"
)

// MockInput replays a fixed sequence of events, then reports end of
// stream. It grounds internal/runtime's tests the same way
// original_source's `MockInput` grounds the Rust processor tests.
type MockInput struct {
	id     string
	events []processor.KeyEvent
	pos    int
}

// NewMockInput builds a MockInput that replays events in order.
func NewMockInput(id string, events []processor.KeyEvent) *MockInput {
	return &MockInput{id: id, events: events}
}

func (m *MockInput) DeviceID() string { return m.id }

func (m *MockInput) CaptureWithTimeout(dt time.Duration) (processor.KeyEvent, error) {
	if m.pos >= len(m.events) {
		return processor.KeyEvent{}, newDeviceError(ErrEndOfStream, "mock input exhausted")
	}
	ev := m.events[m.pos]
	m.pos++
	return ev, nil
}

func (m *MockInput) Release() error { return nil }

// MockOutput records every injected event for assertions.
type MockOutput struct {
	events []processor.KeyEvent
	held   map[string]bool
}

// NewMockOutput builds an empty MockOutput.
func NewMockOutput() *MockOutput {
	return &MockOutput{held: make(map[string]bool)}
}

func (m *MockOutput) Inject(ev processor.KeyEvent) error {
	m.events = append(m.events, ev)
	key := ev.Key.String()
	if ev.IsPress {
		m.held[key] = true
	} else {
		delete(m.held, key)
	}
	return nil
}

func (m *MockOutput) ReleaseAll() error {
	for k := range m.held {
		delete(m.held, k)
	}
	return nil
}

func (m *MockOutput) Shutdown() error { return nil }

// Events returns every event injected so far, in order.
func (m *MockOutput) Events() []processor.KeyEvent { return m.events }

// MockPlatform drives internal/runtime's tests without a real OS device.
// Suppresses mirrors a specific OS's capture model: true replays Linux's
// EVIOCGRAB/Darwin's CGEventTap behavior (inject unconditionally), false
// replays Windows Raw Input (inject only when a mapping fired).
type MockPlatform struct {
	Devices    []DeviceInfo
	Input      *MockInput
	Out        *MockOutput
	Suppresses bool
}

// NewMockPlatform builds a MockPlatform with a single device, a given
// input event sequence, and suppression behavior mirroring a real OS.
func NewMockPlatform(deviceID string, events []processor.KeyEvent, suppresses bool) *MockPlatform {
	return &MockPlatform{
		Devices:    []DeviceInfo{{ID: deviceID, Name: deviceID, Path: deviceID}},
		Input:      NewMockInput(deviceID, events),
		Out:        NewMockOutput(),
		Suppresses: suppresses,
	}
}

func (m *MockPlatform) Initialize() error                      { return nil }
func (m *MockPlatform) ListDevices() ([]DeviceInfo, error)     { return m.Devices, nil }
func (m *MockPlatform) OpenInput(_ string) (InputDevice, error) { return m.Input, nil }
func (m *MockPlatform) Output() (OutputDevice, error)          { return m.Out, nil }
func (m *MockPlatform) Shutdown() error                        { return m.Out.Shutdown() }
func (m *MockPlatform) SuppressesInput() bool                  { return m.Suppresses }
