// Package diagnostics implements the optional foreground view
// (SPEC_FULL.md §2.1 "tui bool", §2.4, §5.I): a read-only bubbletea
// program showing each device runtime's event count and latency
// percentiles, styled in the teacher's own lipgloss theme shape
// (internal/tui/theme.go) but reduced to a single always-on panel since
// there is no recording/transcription state machine to drive here.
package diagnostics

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/keyrx/keyrxd/internal/latency"
)

const tickInterval = 500 * time.Millisecond

// DeviceSource is the read side of a runtime.Device the TUI needs:
// an event counter and a latency snapshot. Kept minimal and decoupled
// from internal/runtime so this package never has to import it.
type DeviceSource struct {
	Name     string
	Stats    func() uint64
	Recorder *latency.Recorder
}

// Model is the bubbletea model for the diagnostics view.
type Model struct {
	devices []DeviceSource
	armed   func() bool
	theme   theme
	width   int
}

// NewModel builds a diagnostics Model over the given device sources.
// armed, if non-nil, reports whether the panic hotkey bypass is
// currently active, surfaced as a banner.
func NewModel(devices []DeviceSource, armed func() bool) Model {
	return Model{devices: devices, armed: armed, theme: synthwave}
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Init starts the refresh ticker.
func (m Model) Init() tea.Cmd { return tickCmd() }

// Update advances the model on a tick or quits on 'q'/ctrl+c.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tickMsg:
		return m, tickCmd()
	}
	return m, nil
}

// View renders the current device table.
func (m Model) View() string {
	var b strings.Builder

	title := m.theme.title.Render("keyrxd")
	b.WriteString(title + "\n")

	if m.armed != nil && m.armed() {
		b.WriteString(m.theme.warning.Render("PANIC HOTKEY ARMED, all devices in passthrough") + "\n")
	}
	b.WriteString("\n")

	header := m.theme.label.Render(fmt.Sprintf("%-24s %10s %10s %10s", "device", "events", "p50 (us)", "p95 (us)"))
	b.WriteString(header + "\n")

	for _, d := range m.devices {
		snap := d.Recorder.Snapshot()
		row := fmt.Sprintf("%-24s %10d %10d %10d", d.Name, d.Stats(), snap.PercentileUs(50), snap.PercentileUs(95))
		b.WriteString(m.theme.text.Render(row) + "\n")
	}

	b.WriteString("\n" + m.theme.dimmed.Render("press q to quit") + "\n")
	return b.String()
}

type theme struct {
	title   lipgloss.Style
	label   lipgloss.Style
	text    lipgloss.Style
	warning lipgloss.Style
	dimmed  lipgloss.Style
}

var synthwave = theme{
	title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6AC1")),
	label:   lipgloss.NewStyle().Foreground(lipgloss.Color("#00E5FF")),
	text:    lipgloss.NewStyle().Foreground(lipgloss.Color("#E0E0E0")),
	warning: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FFAB40")),
	dimmed:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
}
