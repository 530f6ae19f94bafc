package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

// Lines taken by everything that is not a table row: header, host line,
// table header and its border, footer.
const chromeHeight = 6

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	var b strings.Builder

	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderHostLine())
	b.WriteString("\n")
	b.WriteString(m.renderTable())
	b.WriteString("\n")
	b.WriteString(m.renderFooter())

	return b.String()
}

// renderHeader renders the title and summary counts.
func (m Model) renderHeader() string {
	active := 0
	for _, h := range m.view.Hosts {
		if h.State == monitor.HostActive {
			active++
		}
	}

	title := TitleStyle.Render("dtui")
	stats := LabelStyle.Render(fmt.Sprintf(" | %d containers | %d/%d hosts active",
		len(m.view.Rows), active, len(m.view.Hosts)))

	return HeaderStyle.Render(title + stats)
}

// renderHostLine renders one indicator per host, with the reason for any
// host that stopped on an error.
func (m Model) renderHostLine() string {
	if len(m.view.Hosts) == 0 {
		return MutedStyle.Render(" waiting for hosts")
	}

	parts := make([]string, 0, len(m.view.Hosts))
	for _, h := range m.view.Hosts {
		glyph, style := HostGlyph(h.State)
		part := style.Render(glyph) + " " + h.ID
		if h.State != monitor.HostActive {
			part += MutedStyle.Render(" " + h.State.String())
		}
		if h.Err != "" {
			part += ErrorTextStyle.Render(": " + h.Err)
		}
		parts = append(parts, part)
	}
	return " " + strings.Join(parts, "   ")
}

// columns returns the table headers for the current view.
func (m Model) columns() []string {
	cols := []string{"ID", "NAME"}
	if m.view.MultiHost {
		cols = append(cols, "HOST")
	}
	return append(cols, "CPU", "MEMORY", "STATUS", "CREATED")
}

// renderTable renders the visible slice of container rows.
func (m Model) renderTable() string {
	rows := m.view.Rows
	if len(rows) == 0 {
		msg := "No running containers"
		if !m.hasView {
			msg = "Connecting..."
		}
		return "\n " + LabelStyle.Render(msg) + "\n"
	}

	start, end := visibleWindow(m.view.Selected, len(rows), m.tableCapacity())
	bar := m.barWidth()
	now := time.Now()

	data := make([][]string, 0, end-start)
	for _, r := range rows[start:end] {
		data = append(data, m.cells(r, bar, now))
	}
	selected := m.view.Selected - start

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorBorder)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		Headers(m.columns()...).
		Rows(data...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row == selected:
				return SelectedCellStyle
			default:
				return CellStyle
			}
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}

	return t.Render()
}

func (m Model) cells(r monitor.Row, bar int, now time.Time) []string {
	cpu, mem := MutedStyle.Render("-"), MutedStyle.Render("-")
	if r.HasMetrics {
		cpu = MetricBar(bar, r.CPU)
		mem = MetricBar(bar, r.Memory)
	}

	out := []string{r.ID, r.Name}
	if m.view.MultiHost {
		out = append(out, r.HostID)
	}
	return append(out, cpu, mem, r.Status, FormatAge(r.Created, now))
}

// tableCapacity is the number of rows that fit the terminal; 0 means no
// limit is known yet.
func (m Model) tableCapacity() int {
	if m.height == 0 {
		return 0
	}
	if n := m.height - chromeHeight; n > 1 {
		return n
	}
	return 1
}

// visibleWindow returns the [start, end) slice of total rows to show so that
// selected stays on screen. capacity <= 0 shows everything.
func visibleWindow(selected, total, capacity int) (start, end int) {
	if capacity <= 0 || total <= capacity {
		return 0, total
	}
	if selected < 0 {
		selected = 0
	}
	if selected >= total {
		selected = total - 1
	}
	start = selected - capacity + 1
	if start < 0 {
		start = 0
	}
	return start, start + capacity
}

// renderFooter renders the key hints and the log link for the selected
// container's host.
func (m Model) renderFooter() string {
	hints := []string{
		"q quit",
		"↑↓ select",
		"? help",
	}
	footer := FooterStyle.Render(strings.Join(hints, " | "))

	if link := m.selectedDashboard(); link != "" {
		footer += LabelStyle.Render("logs: ") + LinkStyle.Render(link)
	}
	return footer
}

// selectedDashboard returns the external dashboard link of the host owning
// the selected row.
func (m Model) selectedDashboard() string {
	row, ok := m.view.SelectedRow()
	if !ok {
		return ""
	}
	h, ok := m.view.Host(row.HostID)
	if !ok {
		return ""
	}
	return h.Dashboard
}

// FormatAge renders how long ago t was, in the largest whole unit.
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "-"
	}
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
