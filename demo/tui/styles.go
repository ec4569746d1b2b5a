package tui

import (
	"github.com/charmbracelet/lipgloss"

	"newsshorts/pipeline"
)

// Palette for the news desk dashboard
const (
	colorAccent = "#E63946"
	colorActive = "#F4A261"
	colorDone   = "#2A9D8F"
	colorError  = "#D00000"
	colorMuted  = "#6C757D"
	colorLight  = "#F1FAEE"
	colorLink   = "#457B9D"
	colorBorder = "#A8DADC"
)

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorLight)).
		Background(lipgloss.Color(colorAccent)).
		Padding(0, 2).
		MarginTop(1)

	StatusStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorActive))

	DoneStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorDone))

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorError))

	InfoStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colorMuted))

	LogTimeStyle = lipgloss.NewStyle().
		Faint(true)

	LinkStyle = lipgloss.NewStyle().
		Underline(true).
		Foreground(lipgloss.Color(colorLink))

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.NormalBorder(), true, false).
		BorderForeground(lipgloss.Color(colorBorder)).
		Padding(0, 1)

	HighlightStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colorAccent))
)

// stateStyle colours the headline by run state.
func stateStyle(s pipeline.State) lipgloss.Style {
	switch {
	case s == pipeline.StateError:
		return ErrorStyle
	case s == pipeline.StateComplete:
		return DoneStyle
	case s.Busy():
		return StatusStyle
	default:
		return HighlightStyle
	}
}
