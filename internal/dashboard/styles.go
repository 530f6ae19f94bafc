package dashboard

import (
	"fmt"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/dtui/internal/monitor"
)

// Dashboard color palette
const (
	ColorDarkBg    = lipgloss.Color("#0A0A0F")
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	// Semantic colors for metrics
	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent    = lipgloss.Color("#FF2E97")
	ColorAccentDim = lipgloss.Color("#BF40FF")
	ColorLink      = lipgloss.Color("#00FFFF")

	ColorBarEmpty = lipgloss.Color("#3A3A5A")
)

// Metric bands: up to LowThreshold is healthy, up to HighThreshold is a
// warning, anything above is critical.
const (
	LowThreshold  = 50.0
	HighThreshold = 80.0
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	LinkStyle = lipgloss.NewStyle().
			Foreground(ColorLink).
			Underline(true)

	ErrorTextStyle = lipgloss.NewStyle().
			Foreground(ColorCritical)

	// Table cells
	TableHeaderStyle = lipgloss.NewStyle().
				Foreground(ColorAccent).
				Bold(true).
				Padding(0, 1)

	CellStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Padding(0, 1)

	SelectedCellStyle = CellStyle.
				Background(ColorBorder).
				Bold(true)
)

// Host state glyphs
const (
	GlyphConnecting   = "◐"
	GlyphActive       = "◉"
	GlyphShuttingDown = "◔"
	GlyphStopped      = "◌"
)

// HostGlyph returns the indicator and its style for a host state.
func HostGlyph(state monitor.HostState) (string, lipgloss.Style) {
	switch state {
	case monitor.HostActive:
		return GlyphActive, lipgloss.NewStyle().Foreground(ColorHealthy)
	case monitor.HostShuttingDown:
		return GlyphShuttingDown, lipgloss.NewStyle().Foreground(ColorWarning)
	case monitor.HostStopped:
		return GlyphStopped, lipgloss.NewStyle().Foreground(ColorCritical)
	default:
		return GlyphConnecting, lipgloss.NewStyle().Foreground(ColorTextSecondary)
	}
}

// MetricColor returns the band color for a percentage.
func MetricColor(percent float64) lipgloss.Color {
	switch {
	case percent > HighThreshold:
		return ColorCritical
	case percent > LowThreshold:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// MetricStyle returns a style with the band color for percent.
func MetricStyle(percent float64) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(MetricColor(percent))
}

// FormatPercent renders a percentage with one decimal, right aligned.
func FormatPercent(percent float64) string {
	return fmt.Sprintf("%5.1f%%", percent)
}

// MetricBar renders a bar of the given width followed by the numeric value.
// The bar saturates at 100 while the label keeps the real reading, so a
// container using three CPUs shows a full bar and "300.0%". A width below 1
// renders the label only.
func MetricBar(width int, percent float64) string {
	label := MetricStyle(percent).Render(FormatPercent(percent))
	if width < 1 {
		return label
	}

	fill := percent / 100
	switch {
	case fill < 0:
		fill = 0
	case fill > 1:
		fill = 1
	}

	bar := progress.New(
		progress.WithSolidFill(string(MetricColor(percent))),
		progress.WithFillCharacters('▰', '▱'),
		progress.WithWidth(width),
		progress.WithoutPercentage(),
		progress.WithColorProfile(lipgloss.ColorProfile()),
	)
	bar.EmptyColor = string(ColorBarEmpty)

	return bar.ViewAs(fill) + " " + label
}
