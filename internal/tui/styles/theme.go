// Package styles holds the lipgloss styles shared by the CLI commands
package styles

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"
)

// Catppuccin Mocha palette, the subset in use
var (
	Subtext0 = lipgloss.Color("#a6adc8")
	Text     = lipgloss.Color("#cdd6f4")
	Green    = lipgloss.Color("#a6e3a1")
	Red      = lipgloss.Color("#f38ba8")
	Mauve    = lipgloss.Color("#cba6f7")
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Mauve)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Red)

	// DeviceStyle highlights USB adapters, the usual programmer targets
	DeviceStyle = lipgloss.NewStyle().
			Foreground(Green)
)

// TableStyles returns the bubbles table styles for static listings. Nothing
// is selectable so the selection highlight is neutralised.
func TableStyles() table.Styles {
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(Subtext0).
		BorderBottom(true).
		Bold(true).
		Foreground(Text)
	s.Selected = lipgloss.NewStyle()
	return s
}
