package platform

import (
	"testing"
	"time"

	"github.com/keyrx/keyrxd/internal/keycode"
	"github.com/keyrx/keyrxd/internal/processor"
)

func TestMockInputReplaysThenEndOfStream(t *testing.T) {
	in := NewMockInput("dev0", []processor.KeyEvent{
		{Key: keycode.A, IsPress: true, TsUs: 0},
		{Key: keycode.A, IsPress: false, TsUs: 10},
	})

	ev, err := in.CaptureWithTimeout(time.Millisecond)
	if err != nil || ev.Key != keycode.A || !ev.IsPress {
		t.Fatalf("expected first event, got %+v err=%v", ev, err)
	}

	ev, err = in.CaptureWithTimeout(time.Millisecond)
	if err != nil || ev.IsPress {
		t.Fatalf("expected release event, got %+v err=%v", ev, err)
	}

	_, err = in.CaptureWithTimeout(time.Millisecond)
	if !IsEndOfStream(err) {
		t.Fatalf("expected end-of-stream error, got %v", err)
	}
}

func TestMockOutputTracksHeldKeys(t *testing.T) {
	out := NewMockOutput()
	if err := out.Inject(processor.KeyEvent{Key: keycode.A, IsPress: true}); err != nil {
		t.Fatal(err)
	}
	if err := out.Inject(processor.KeyEvent{Key: keycode.B, IsPress: true}); err != nil {
		t.Fatal(err)
	}
	if len(out.Events()) != 2 {
		t.Fatalf("expected 2 recorded events, got %d", len(out.Events()))
	}
	if err := out.ReleaseAll(); err != nil {
		t.Fatal(err)
	}
	if len(out.held) != 0 {
		t.Fatalf("expected ReleaseAll to clear held set, got %v", out.held)
	}
}

func TestDeviceErrorKindString(t *testing.T) {
	err := newDeviceError(ErrPermission, "missing group membership")
	if err.Error() != "permission denied: missing group membership" {
		t.Fatalf("unexpected error string: %s", err.Error())
	}
}
