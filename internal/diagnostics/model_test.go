package diagnostics

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/keyrx/keyrxd/internal/latency"
)

func TestViewListsEveryDevice(t *testing.T) {
	rec := latency.New()
	rec.Record(42)
	devices := []DeviceSource{
		{Name: "dev0", Stats: func() uint64 { return 7 }, Recorder: rec},
		{Name: "dev1", Stats: func() uint64 { return 0 }, Recorder: latency.New()},
	}
	m := NewModel(devices, nil)

	view := m.View()
	if !strings.Contains(view, "dev0") || !strings.Contains(view, "dev1") {
		t.Fatalf("expected both devices in view, got:\n%s", view)
	}
}

func TestViewShowsArmedBanner(t *testing.T) {
	m := NewModel(nil, func() bool { return true })
	if !strings.Contains(m.View(), "ARMED") {
		t.Fatal("expected the armed banner when armed() returns true")
	}
}

func TestUpdateQuitsOnQ(t *testing.T) {
	m := NewModel(nil, nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected a non-nil command for 'q'")
	}
}
