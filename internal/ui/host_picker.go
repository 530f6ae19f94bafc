package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dtui/pkg/sshutil"
)

// hostItem implements list.Item for the Bubbles list component.
type hostItem struct {
	entry sshutil.HostEntry
}

func (i hostItem) Title() string       { return i.entry.Alias }
func (i hostItem) Description() string { return i.entry.Description() }

func (i hostItem) FilterValue() string {
	values := []string{i.entry.Alias}
	if i.entry.Hostname != "" {
		values = append(values, i.entry.Hostname)
	}
	if i.entry.User != "" {
		values = append(values, i.entry.User)
	}
	return strings.Join(values, " ")
}

// HostPickerModel is a Bubble Tea model for choosing an ssh_config alias
// whose Docker engine should be monitored.
type HostPickerModel struct {
	list        list.Model
	selected    *sshutil.HostEntry
	manualEntry bool
	quitting    bool
}

type hostPickerKeyMap struct {
	Enter  key.Binding
	Manual key.Binding
	Quit   key.Binding
}

var hostPickerKeys = hostPickerKeyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	Manual: key.NewBinding(
		key.WithKeys("m"),
		key.WithHelp("m", "manual entry"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q/esc", "cancel"),
	),
}

// NewHostPickerModel creates a picker over the given entries.
func NewHostPickerModel(entries []sshutil.HostEntry) HostPickerModel {
	items := make([]list.Item, len(entries))
	for i, e := range entries {
		items[i] = hostItem{entry: e}
	}

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.
		Foreground(ColorPrimary).
		BorderForeground(ColorSecondary)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.
		Foreground(ColorMuted)

	l := list.New(items, delegate, 80, 15)
	l.Title = "Select a Docker host from your SSH config"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = lipgloss.NewStyle().
		Foreground(ColorPrimary).
		Bold(true).
		Padding(0, 0, 1, 0)
	l.Styles.HelpStyle = MutedStyle
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{hostPickerKeys.Manual}
	}

	return HostPickerModel{list: l}
}

// Init implements tea.Model.
func (m HostPickerModel) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m HostPickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Keys belong to the filter input while it is open.
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch {
		case key.Matches(msg, hostPickerKeys.Enter):
			if item, ok := m.list.SelectedItem().(hostItem); ok {
				entry := item.entry
				m.selected = &entry
			}
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Manual):
			m.manualEntry = true
			m.quitting = true
			return m, tea.Quit

		case key.Matches(msg, hostPickerKeys.Quit):
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width, msg.Height-2)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m HostPickerModel) View() string {
	if m.quitting {
		return ""
	}
	return m.list.View() + MutedStyle.Render("\n  Press 'm' to type an engine URL instead")
}

// Selected returns the chosen entry, or nil.
func (m HostPickerModel) Selected() *sshutil.HostEntry {
	return m.selected
}

// ManualEntry reports whether the user asked to type a URL.
func (m HostPickerModel) ManualEntry() bool {
	return m.manualEntry
}

// PickHost runs the picker on the terminal.
// Returns:
//   - the entry, false when the user picks one
//   - nil, false when the user asks for manual entry (or there are no entries)
//   - nil, true when the user cancels
func PickHost(entries []sshutil.HostEntry) (*sshutil.HostEntry, bool, error) {
	return PickHostWithIO(entries, os.Stdout, os.Stdin)
}

// PickHostWithIO runs the picker with custom I/O.
func PickHostWithIO(entries []sshutil.HostEntry, output io.Writer, input io.Reader) (*sshutil.HostEntry, bool, error) {
	if len(entries) == 0 {
		return nil, false, nil
	}

	p := tea.NewProgram(
		NewHostPickerModel(entries),
		tea.WithOutput(output),
		tea.WithInput(input),
	)

	final, err := p.Run()
	if err != nil {
		return nil, false, fmt.Errorf("host picker: %w", err)
	}

	m, ok := final.(HostPickerModel)
	if !ok {
		return nil, true, nil
	}
	if m.ManualEntry() {
		return nil, false, nil
	}
	if m.Selected() == nil {
		return nil, true, nil
	}
	return m.Selected(), false, nil
}
