package ui

import "github.com/charmbracelet/lipgloss"

// Color palette: a single lime accent on grays.
const (
	ColorLime     = "154" // Primary accent (#AFFF00)
	ColorLimeDim  = "106" // Dimmed lime for inactive/borders
	ColorWhite    = "255" // Headers, important text
	ColorGray     = "245" // Secondary text, labels
	ColorDarkGray = "238" // Box borders, separators
	ColorRed      = "196" // Errors
	ColorYellow   = "220" // Warnings
)

// Styles holds all UI styles.
type Styles struct {
	// Text styles
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Active  lipgloss.Style
	Label   lipgloss.Style
	Status  lipgloss.Style

	// List entries
	Selected lipgloss.Style
	Cursor   lipgloss.Style

	// Panel/layout styles
	Border       lipgloss.Style
	Panel        lipgloss.Style
	FocusedPanel lipgloss.Style
}

// DefaultStyles returns the colored styles.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Active:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Label:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorGray)),
		Status:  lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)),

		Selected: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(ColorLime)),
		Cursor:   lipgloss.NewStyle().Foreground(lipgloss.Color(ColorWhite)).Background(lipgloss.Color(ColorDarkGray)),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color(ColorDarkGray)),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorDarkGray)).
			Padding(0, 1),
		FocusedPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(ColorLimeDim)).
			Padding(0, 1),
	}
}

// NoColorStyles returns unstyled components for plain mode.
// Panels keep their borders so the layout survives.
func NoColorStyles() Styles {
	return Styles{
		Header:       lipgloss.NewStyle(),
		Success:      lipgloss.NewStyle(),
		Warning:      lipgloss.NewStyle(),
		Error:        lipgloss.NewStyle(),
		Dim:          lipgloss.NewStyle(),
		Active:       lipgloss.NewStyle(),
		Label:        lipgloss.NewStyle(),
		Status:       lipgloss.NewStyle(),
		Selected:     lipgloss.NewStyle(),
		Cursor:       lipgloss.NewStyle(),
		Border:       lipgloss.NewStyle(),
		Panel:        lipgloss.NewStyle().Border(lipgloss.NormalBorder()).Padding(0, 1),
		FocusedPanel: lipgloss.NewStyle().Border(lipgloss.DoubleBorder()).Padding(0, 1),
	}
}

// GetStyles returns the appropriate styles based on color preference.
func GetStyles(noColor bool) Styles {
	if noColor {
		return NoColorStyles()
	}
	return DefaultStyles()
}
