package tui

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7D79F6"}
	muted  = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#5C5C5C"}

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(accent).
			Padding(0, 1).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().Foreground(muted)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.AdaptiveColor{Light: "#02A35B", Dark: "#04B575"})

	errStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#D7263D", Dark: "#FF5F87"}).
			Bold(true)

	noticeStyle = lipgloss.NewStyle().Foreground(accent).Italic(true)

	frameStyle = lipgloss.NewStyle().Margin(1, 2)
)
