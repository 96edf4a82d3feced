package ui

import "github.com/charmbracelet/lipgloss"

// Color palette for the monitor tables.
var (
	Green  = lipgloss.Color("#2AFFAA") // positive PnL
	Red    = lipgloss.Color("#FF5555") // negative PnL / errors
	Yellow = lipgloss.Color("#FFB500") // warnings
	Cyan   = lipgloss.Color("#00E5FF") // headers / highlights
	Muted  = lipgloss.Color("#6C7280") // absent values, borders

	positiveStyle = lipgloss.NewStyle().Foreground(Green)
	negativeStyle = lipgloss.NewStyle().Foreground(Red)
	neutralStyle  = lipgloss.NewStyle()
	mutedStyle    = lipgloss.NewStyle().Foreground(Muted)
	errorStyle    = lipgloss.NewStyle().Foreground(Red).Bold(true)
	headerStyle   = lipgloss.NewStyle().Foreground(Cyan).Bold(true)
	titleStyle    = lipgloss.NewStyle().Bold(true)
)

// signStyle picks the style for a signed metric cell.
func signStyle(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return positiveStyle
	case v < 0:
		return negativeStyle
	default:
		return neutralStyle
	}
}
