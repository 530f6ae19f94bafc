package dashboard

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

// Key bindings as constants for consistency.
const (
	KeyQuit        = "q"
	KeyQuitAlt     = "ctrl+c"
	KeySelectPrev  = "up"
	KeySelectPrevK = "k"
	KeySelectNext  = "down"
	KeySelectNextJ = "j"
	KeyCollapse    = "esc"
	KeyToggleHelp  = "?"
)

// IntentFor maps a key to the engine event it stands for.
func IntentFor(key string) (monitor.Event, bool) {
	switch key {
	case KeyQuit, KeyQuitAlt:
		return monitor.Quit{}, true
	case KeySelectPrev, KeySelectPrevK:
		return monitor.SelectPrevious{}, true
	case KeySelectNext, KeySelectNextJ:
		return monitor.SelectNext{}, true
	}
	return nil, false
}

// HandleKeyMsg processes keyboard input. Selection and quitting are forwarded
// to the engine, which owns that state; the help overlay is local.
// Returns true if the key was handled, false otherwise.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	key := msg.String()

	if key == KeyToggleHelp {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && key == KeyCollapse {
		m.showHelp = false
		return true, nil
	}

	ev, ok := IntentFor(key)
	if !ok {
		return false, nil
	}

	if _, quit := ev.(monitor.Quit); quit {
		m.quitting = true
		// Without an engine there is nobody to close the display for us.
		if m.submit == nil {
			return true, tea.Quit
		}
	}
	return true, m.submitCmd(ev)
}
