package tui

import "github.com/charmbracelet/lipgloss"

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF6B6B")).
			MarginBottom(1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CCCCCC")).Bold(true)
	requiredStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	detailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
	fieldErrStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	errorBanner   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#FF6B6B")).
			Padding(0, 1)

	buttonStyle = lipgloss.NewStyle().
			Padding(0, 2).
			Border(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("#444444"))
	buttonFocusedStyle = buttonStyle.
				BorderForeground(lipgloss.Color("#5B8DEF")).
				Bold(true)
	buttonDisabledStyle = buttonStyle.
				Foreground(lipgloss.Color("#666666"))
	primaryButtonStyle = buttonStyle.
				Foreground(lipgloss.Color("#4CAF50"))
)
