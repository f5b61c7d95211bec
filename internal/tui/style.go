package tui

import "github.com/charmbracelet/lipgloss"

// Flexoki Dark, same palette as the cli package.
var (
	colorBorder = lipgloss.Color("#282726")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorBlue   = lipgloss.Color("#4385BE")
	colorPurple = lipgloss.Color("#8B7EC8")
	colorRed    = lipgloss.Color("#D14D41")
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(colorBorder)

	userStyle      = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	assistantStyle = lipgloss.NewStyle().Bold(true).Foreground(colorBlue)
	systemStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorPurple)
	errorStyle     = lipgloss.NewStyle().Foreground(colorRed)
	helpStyle      = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle    = lipgloss.NewStyle().Foreground(colorAccent)
)
