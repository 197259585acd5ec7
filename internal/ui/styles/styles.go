// Package styles defines the visual styling for the application.
package styles

import "github.com/charmbracelet/lipgloss"

// Color definitions for the Doublers theme.
var (
	// Primary colors
	Primary = lipgloss.Color("214") // Amber
	Subtle  = lipgloss.Color("240") // Gray

	// Price colors
	Gain = lipgloss.Color("42")  // Green
	Loss = lipgloss.Color("203") // Salmon

	// Status colors
	Success = lipgloss.Color("42")  // Green
	Error   = lipgloss.Color("196") // Red
	Warning = lipgloss.Color("220") // Yellow
	Info    = lipgloss.Color("39")  // Blue

	// Background colors
	BgDark   = lipgloss.Color("235")
	BgAccent = lipgloss.Color("236")

	// Text colors
	TextPrimary   = lipgloss.Color("252")
	TextSecondary = lipgloss.Color("245")
	TextMuted     = lipgloss.Color("240")

	// ToastStyle for floating notifications.
	ToastStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(Primary).
			Padding(0, 1).
			MarginBottom(1)
)

// TitleStyle is used for main headings.
var TitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// DocStyle provides consistent document margins.
var DocStyle = lipgloss.NewStyle().
	Margin(1, 2).
	Padding(0, 1)

// CardStyle creates a bordered card container.
var CardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(1, 2).
	MarginBottom(1)

// CardTitleStyle styles card headers.
var CardTitleStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	MarginBottom(1)

// ProgressLabelStyle styles progress bar labels.
var ProgressLabelStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Width(20)

// ProgressPercentStyle styles the percentage display.
var ProgressPercentStyle = lipgloss.NewStyle().
	Foreground(TextPrimary).
	Width(6).
	Align(lipgloss.Right)

// HelpStyle is the base style for help text.
var HelpStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// HelpPanelStyle creates the help overlay panel.
var HelpPanelStyle = lipgloss.NewStyle().
	Border(lipgloss.DoubleBorder()).
	BorderForeground(Primary).
	Padding(1, 3).
	Background(BgDark)

// TableHeaderStyle styles table headers.
var TableHeaderStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(Primary).
	BorderStyle(lipgloss.NormalBorder()).
	BorderBottom(true).
	BorderForeground(Subtle)

// TableSelectedStyle styles selected table rows.
var TableSelectedStyle = lipgloss.NewStyle().
	Background(BgAccent).
	Foreground(TextPrimary).
	Bold(true)

// GainStyle colours positive returns.
var GainStyle = lipgloss.NewStyle().
	Foreground(Gain)

// LossStyle colours negative returns.
var LossStyle = lipgloss.NewStyle().
	Foreground(Loss)

// MetricValueStyle renders the number in a metric card.
var MetricValueStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(TextPrimary)

// MetricLabelStyle renders the caption under a metric value.
var MetricLabelStyle = lipgloss.NewStyle().
	Foreground(TextMuted)

// MetricCardStyle boxes a single metric.
var MetricCardStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(Subtle).
	Padding(0, 2).
	MarginRight(1)

// HorizonActiveStyle marks the selected horizon in the rankings header.
var HorizonActiveStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("229")).
	Background(Primary).
	Padding(0, 1)

// HorizonInactiveStyle marks the other horizons.
var HorizonInactiveStyle = lipgloss.NewStyle().
	Foreground(TextSecondary).
	Padding(0, 1)

// StatusCompletedStyle marks completed runs.
var StatusCompletedStyle = lipgloss.NewStyle().
	Foreground(Success)

// StatusFailedStyle marks failed runs.
var StatusFailedStyle = lipgloss.NewStyle().
	Foreground(Error).
	Bold(true)

// StatusRunningStyle marks runs still in progress.
var StatusRunningStyle = lipgloss.NewStyle().
	Foreground(Warning).
	Italic(true)

// ErrorTextStyle for error messages.
var ErrorTextStyle = lipgloss.NewStyle().
	Foreground(Error)

// SuccessTextStyle for success messages.
var SuccessTextStyle = lipgloss.NewStyle().
	Foreground(Success)

// WarningTextStyle for warning messages.
var WarningTextStyle = lipgloss.NewStyle().
	Foreground(Warning)

// InfoTextStyle for info messages.
var InfoTextStyle = lipgloss.NewStyle().
	Foreground(Info)

// GetReturnStyle returns the style for a fractional return.
func GetReturnStyle(ret float64) lipgloss.Style {
	if ret < 0 {
		return LossStyle
	}
	return GainStyle
}

// GetStatusStyle returns the style for a run status string.
func GetStatusStyle(status string) lipgloss.Style {
	switch status {
	case "completed":
		return StatusCompletedStyle
	case "failed":
		return StatusFailedStyle
	default:
		return StatusRunningStyle
	}
}

// CenterBoth centers content both horizontally and vertically.
func CenterBoth(content string, width, height int) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center).
		AlignVertical(lipgloss.Center).
		Render(content)
}
