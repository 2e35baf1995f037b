package ui

import "github.com/charmbracelet/lipgloss"

// Colors defines the color scheme used throughout the application
type Colors struct {
	Subtle    lipgloss.AdaptiveColor
	Highlight lipgloss.AdaptiveColor
	Special   lipgloss.AdaptiveColor
	Warm      lipgloss.AdaptiveColor
	Error     lipgloss.AdaptiveColor
}

var defaultColors = Colors{
	Subtle:    lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"},
	Highlight: lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#7D56F4"},
	Special:   lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"},
	Warm:      lipgloss.AdaptiveColor{Light: "#C8732A", Dark: "#E8A25C"},
	Error:     lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF4040"},
}

// Style represents a collection of styles used in the application
type Style struct {
	Title          lipgloss.Style
	ActiveStatus   lipgloss.Style
	InactiveStatus lipgloss.Style
	Detail         lipgloss.Style
	Selected       lipgloss.Style
	Unselected     lipgloss.Style
	Check          lipgloss.Style
	InputBox       lipgloss.Style
	Help           lipgloss.Style
	Error          lipgloss.Style
	Countdown      lipgloss.Style
	ProgressFilled lipgloss.Style
	ProgressEmpty  lipgloss.Style
}

// DefaultStyle returns the default style configuration
func DefaultStyle() Style {
	base := lipgloss.NewStyle().
		PaddingLeft(1).
		PaddingRight(1)

	return Style{
		Title: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		ActiveStatus: base.
			Bold(true).
			Foreground(defaultColors.Warm),

		InactiveStatus: base.
			Foreground(defaultColors.Subtle),

		Detail: base.
			Foreground(defaultColors.Subtle),

		Selected: base.
			Bold(true).
			Foreground(defaultColors.Highlight),

		Unselected: base,

		Check: lipgloss.NewStyle().
			Foreground(defaultColors.Special),

		InputBox: base.
			Border(lipgloss.RoundedBorder()).
			BorderForeground(defaultColors.Highlight).
			Padding(0, 1),

		Help: base.
			Foreground(defaultColors.Subtle),

		Error: base.
			Foreground(defaultColors.Error),

		Countdown: base.
			Foreground(defaultColors.Highlight).
			Bold(true),

		ProgressFilled: lipgloss.NewStyle().
			Background(defaultColors.Highlight),

		ProgressEmpty: lipgloss.NewStyle().
			Background(defaultColors.Subtle),
	}
}

// Current holds the current style configuration
var Current = DefaultStyle()
