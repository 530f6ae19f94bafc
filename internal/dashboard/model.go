// Package dashboard is the terminal front end of the monitor: a Bubble Tea
// program that renders the engine's views and turns keystrokes into engine
// events.
package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

// Submitter hands an event to the engine.
type Submitter func(monitor.Event)

// Width breakpoints for the metric bars.
const (
	BreakpointCompact = 90
	BreakpointWide    = 130
)

// Model is the Bubble Tea model for the container dashboard. It holds the
// latest view and nothing else the engine owns.
type Model struct {
	view    monitor.View
	hasView bool
	submit  Submitter

	width    int
	height   int
	showHelp bool
	quitting bool
}

// viewMsg carries a fresh view from the engine.
type viewMsg struct {
	view monitor.View
}

// NewModel creates a dashboard model. submit may be nil, in which case keys
// only affect local state.
func NewModel(submit Submitter) Model {
	return Model{submit: submit}
}

// Init implements tea.Model. Views are pushed by the engine, so there is
// nothing to start.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		handled, cmd := m.HandleKeyMsg(msg)
		if handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, m.submitCmd(monitor.Resize{Width: msg.Width, Height: msg.Height})

	case viewMsg:
		m.view = msg.view
		m.hasView = true
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// Current returns the last view received from the engine.
func (m Model) Current() monitor.View {
	return m.view
}

// Quitting reports whether the user asked to quit.
func (m Model) Quitting() bool {
	return m.quitting
}

func (m Model) submitCmd(ev monitor.Event) tea.Cmd {
	if m.submit == nil {
		return nil
	}
	submit := m.submit
	return func() tea.Msg {
		submit(ev)
		return nil
	}
}

// barWidth picks the metric bar width for the terminal width; 0 means
// numbers only.
func (m Model) barWidth() int {
	switch {
	case m.width >= BreakpointWide:
		return 20
	case m.width >= BreakpointCompact:
		return 10
	default:
		return 0
	}
}
