//go:build windows

package platform

import (
	"fmt"
	"runtime"
	"sync"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

// Raw Input and SendInput are not wrapped by golang.org/x/sys/windows, so
// the corpus pattern (grounded on the original rawinput.rs implementation)
// is to resolve the user32 procs directly through windows.NewLazySystemDLL,
// the same escape hatch x/sys/windows itself uses internally.
var (
	user32                       = windows.NewLazySystemDLL("user32.dll")
	procRegisterClassExW         = user32.NewProc("RegisterClassExW")
	procCreateWindowExW          = user32.NewProc("CreateWindowExW")
	procDestroyWindow            = user32.NewProc("DestroyWindow")
	procDefWindowProcW           = user32.NewProc("DefWindowProcW")
	procGetMessageW              = user32.NewProc("GetMessageW")
	procTranslateMessage         = user32.NewProc("TranslateMessage")
	procDispatchMessageW         = user32.NewProc("DispatchMessageW")
	procPostQuitMessage          = user32.NewProc("PostQuitMessage")
	procPostMessageW             = user32.NewProc("PostMessageW")
	procRegisterRawInputDevices  = user32.NewProc("RegisterRawInputDevices")
	procGetRawInputData          = user32.NewProc("GetRawInputData")
	procSendInput                = user32.NewProc("SendInput")
	procSetWindowLongPtrW        = user32.NewProc("SetWindowLongPtrW")
	procGetWindowLongPtrW        = user32.NewProc("GetWindowLongPtrW")
)

const (
	hwndMessage    = ^uintptr(2) + 1 // (HWND)-3, message-only window parent
	wmInput        = 0x00FF
	wmQuit         = 0x0012
	gwlpUserdata   = -21
	ridevInputSink = 0x00000100
	ridevDevnotify = 0x00002000
	ridInput       = 0x10000003
	rimTypeKeyboard = 1

	keyeventfKeyUp     = 0x0002
	keyeventfScancode  = 0x0008
	keyeventfExtendedk = 0x0001
	inputKeyboard      = 1
)

type wndClassExW struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     windows.Handle
	hIcon         windows.Handle
	hCursor       windows.Handle
	hbrBackground windows.Handle
	lpszMenuName  *uint16
	lpszClassName *uint16
	hIconSm       windows.Handle
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

type rawInputDevice struct {
	usUsagePage uint16
	usUsage     uint16
	dwFlags     uint32
	hwndTarget  uintptr
}

type rawInputHeader struct {
	dwType  uint32
	dwSize  uint32
	hDevice uintptr
	wParam  uintptr
}

type rawKeyboard struct {
	MakeCode         uint16
	Flags            uint16
	Reserved         uint16
	VKey             uint16
	Message          uint32
	ExtraInformation uint32
}

type keybdInput struct {
	wVk         uint16
	wScan       uint16
	dwFlags     uint32
	time        uint32
	dwExtraInfo uintptr
}

type input struct {
	typ uint32
	ki  keybdInput
	// padded to the union's largest member (MOUSEINPUT) by the trailing
	// bytes the compiler would otherwise add; on amd64 this matches the
	// real INPUT struct size.
	_ [8]byte
}

// New returns the Windows Platform implementation.
func New() Platform { return &windowsPlatform{} }

type windowsPlatform struct {
	mu     sync.Mutex
	window *messageWindow
}

func (p *windowsPlatform) Initialize() error { return nil }

func (p *windowsPlatform) ListDevices() ([]DeviceInfo, error) {
	// RAWINPUT reports device arrival/removal through WM_INPUT_DEVICE_CHANGE
	// once the message window is running; until then there is exactly one
	// logical capture surface, matching the macOS session model.
	return []DeviceInfo{{ID: "session", Name: "Windows Raw Input keyboard session", Path: "rawinput"}}, nil
}

func (p *windowsPlatform) OpenInput(deviceID string) (InputDevice, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.window != nil {
		return nil, newDeviceError(ErrTransient, "raw input window already open for this process")
	}

	w, err := newMessageWindow(deviceID)
	if err != nil {
		return nil, newDeviceError(ErrPermission, "create Raw Input message window: %v", err)
	}
	p.window = w
	return w, nil
}

func (p *windowsPlatform) Output() (OutputDevice, error) {
	return &windowsOutput{held: make(map[keycode.Code]bool)}, nil
}

func (p *windowsPlatform) Shutdown() error { return nil }

func (p *windowsPlatform) SuppressesInput() bool { return false }

// messageWindow hosts a message-only window pumped on its own locked OS
// thread (required for RegisterRawInputDevices delivery), grounded on the
// original RawInputManager's CreateWindowExW(HWND_MESSAGE) design.
type messageWindow struct {
	id       string
	hwnd     uintptr
	events   chan processor.KeyEvent
	errs     chan error
	quitOnce sync.Once
}

var (
	windowRegistry   sync.Map // hwnd(uintptr) -> *messageWindow
	classRegisterOne sync.Once
)

const className = "KeyRxRawInput"

func newMessageWindow(deviceID string) (*messageWindow, error) {
	w := &messageWindow{id: deviceID, events: make(chan processor.KeyEvent, 16), errs: make(chan error, 1)}
	ready := make(chan error, 1)

	go func() {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		hwnd, err := createWindow()
		if err != nil {
			ready <- err
			return
		}
		w.hwnd = hwnd
		windowRegistry.Store(hwnd, w)

		if err := registerRawInput(hwnd); err != nil {
			windowRegistry.Delete(hwnd)
			destroyWindow(hwnd)
			ready <- err
			return
		}
		ready <- nil

		runMessageLoop(hwnd)

		windowRegistry.Delete(hwnd)
		w.errs <- newDeviceError(ErrEndOfStream, "message loop exited")
	}()

	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

func createWindow() (uintptr, error) {
	classNamePtr, _ := windows.UTF16PtrFromString(className)

	classRegisterOne.Do(func() {
		wc := wndClassExW{
			lpfnWndProc:   windows.NewCallback(wndProc),
			lpszClassName: classNamePtr,
		}
		wc.cbSize = uint32(unsafe.Sizeof(wc))
		procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wc)))
	})

	hwnd, _, _ := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(classNamePtr)),
		uintptr(unsafe.Pointer(classNamePtr)),
		0, 0, 0, 0, 0,
		hwndMessage,
		0, 0, 0,
	)
	if hwnd == 0 {
		return 0, fmt.Errorf("CreateWindowExW failed")
	}
	return hwnd, nil
}

func destroyWindow(hwnd uintptr) { procDestroyWindow.Call(hwnd) }

func registerRawInput(hwnd uintptr) error {
	rid := rawInputDevice{
		usUsagePage: 1,
		usUsage:     6,
		dwFlags:     ridevInputSink | ridevDevnotify,
		hwndTarget:  hwnd,
	}
	ret, _, _ := procRegisterRawInputDevices.Call(
		uintptr(unsafe.Pointer(&rid)), 1, uintptr(unsafe.Sizeof(rid)),
	)
	if ret == 0 {
		return fmt.Errorf("RegisterRawInputDevices failed")
	}
	return nil
}

func runMessageLoop(hwnd uintptr) {
	var m msg
	for {
		ret, _, _ := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) <= 0 {
			return
		}
		if m.message == wmQuit {
			return
		}
		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

func wndProc(hwnd uintptr, message uint32, wParam, lParam uintptr) uintptr {
	if message == wmInput {
		v, ok := windowRegistry.Load(hwnd)
		if ok {
			handleRawInput(v.(*messageWindow), lParam)
		}
	}
	ret, _, _ := procDefWindowProcW.Call(hwnd, uintptr(message), wParam, lParam)
	return ret
}

func handleRawInput(w *messageWindow, hRawInput uintptr) {
	var size uint32
	procGetRawInputData.Call(hRawInput, ridInput, 0, uintptr(unsafe.Pointer(&size)), uintptr(unsafe.Sizeof(rawInputHeader{})))

	const maxRawInputSize = 4096
	if size == 0 || size > maxRawInputSize {
		return
	}

	buf := make([]byte, size)
	ret, _, _ := procGetRawInputData.Call(hRawInput, ridInput, uintptr(unsafe.Pointer(&buf[0])), uintptr(unsafe.Pointer(&size)), uintptr(unsafe.Sizeof(rawInputHeader{})))
	if ret == ^uintptr(0) {
		return
	}

	header := (*rawInputHeader)(unsafe.Pointer(&buf[0]))
	if header.dwType != rimTypeKeyboard {
		return
	}
	kb := (*rawKeyboard)(unsafe.Pointer(&buf[unsafe.Sizeof(rawInputHeader{})]))

	isBreak := kb.Flags&1 != 0
	isE0 := kb.Flags&2 != 0
	scancode := uint32(kb.MakeCode)
	if isE0 {
		scancode |= 0xE000
	}
	if scancode == 0xFF {
		return
	}

	code, ok := codeFromScancode(scancode)
	if !ok {
		return
	}
	select {
	case w.events <- processor.KeyEvent{
		Key:      code,
		IsPress:  !isBreak,
		TsUs:     uint64(time.Now().UnixMicro()),
		DeviceID: w.id,
	}:
	default:
	}
}

func (w *messageWindow) DeviceID() string { return w.id }

func (w *messageWindow) CaptureWithTimeout(dt time.Duration) (processor.KeyEvent, error) {
	select {
	case ev := <-w.events:
		return ev, nil
	case err := <-w.errs:
		return processor.KeyEvent{}, err
	case <-time.After(dt):
		return processor.KeyEvent{}, newDeviceError(ErrTimeout, "")
	}
}

func (w *messageWindow) Release() error {
	w.quitOnce.Do(func() {
		procPostMessageW.Call(w.hwnd, wmQuit, 0, 0)
	})
	return nil
}

// windowsOutput injects synthesized keystrokes with SendInput at the
// scancode level, matching the original daemon's choice to bypass
// virtual-key translation entirely (keeps layout-independent behavior
// symmetric with capture, which also classifies by scancode).
type windowsOutput struct {
	mu   sync.Mutex
	held map[keycode.Code]bool
}

func (o *windowsOutput) Inject(ev processor.KeyEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	scancode, extended, ok := scancodeFromCode(ev.Key)
	if !ok {
		return newDeviceError(ErrTransient, "no Windows scancode mapping for %s", ev.Key)
	}

	flags := uint32(keyeventfScancode)
	if extended {
		flags |= keyeventfExtendedk
	}
	if ev.IsPress {
		o.held[ev.Key] = true
	} else {
		flags |= keyeventfKeyUp
		delete(o.held, ev.Key)
	}

	in := input{typ: inputKeyboard, ki: keybdInput{wScan: uint16(scancode), dwFlags: flags}}
	ret, _, _ := procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
	if ret == 0 {
		return newDeviceError(ErrTransient, "SendInput failed for %s", ev.Key)
	}
	return nil
}

func (o *windowsOutput) ReleaseAll() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	for code := range o.held {
		scancode, extended, ok := scancodeFromCode(code)
		if !ok {
			continue
		}
		flags := uint32(keyeventfScancode | keyeventfKeyUp)
		if extended {
			flags |= keyeventfExtendedk
		}
		in := input{typ: inputKeyboard, ki: keybdInput{wScan: uint16(scancode), dwFlags: flags}}
		procSendInput.Call(1, uintptr(unsafe.Pointer(&in)), unsafe.Sizeof(in))
		delete(o.held, code)
	}
	return nil
}

func (o *windowsOutput) Shutdown() error { return o.ReleaseAll() }
