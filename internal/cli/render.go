package cli

import (
	"fmt"
	"strings"

	"lochat/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// Theme colors (Flexoki Dark)
var (
	ColorBorder    = lipgloss.Color("#282726")
	ColorTextDim   = lipgloss.Color("#575653")
	ColorTextMuted = lipgloss.Color("#6F6E69")
	ColorText      = lipgloss.Color("#FFFCF0")
	ColorAccent    = lipgloss.Color("#3AA99F")
	ColorGreen     = lipgloss.Color("#879A39")
	ColorBlue      = lipgloss.Color("#4385BE")
	ColorPurple    = lipgloss.Color("#8B7EC8")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorText).
			Align(lipgloss.Center)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorAccent)

	valueStyle = lipgloss.NewStyle().
			Foreground(ColorText)

	dimStyle = lipgloss.NewStyle().
			Foreground(ColorTextDim)

	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(ColorGreen)
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	systemLabelStyle    = lipgloss.NewStyle().Bold(true).Foreground(ColorPurple)
	metaStyle           = lipgloss.NewStyle().Foreground(ColorTextMuted)
)

// RenderTitle renders a centered title bar in a bordered box.
func RenderTitle(title string) string {
	border := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Width(55).
		Align(lipgloss.Center).
		Padding(0, 1)

	return border.Render(titleStyle.Render(title))
}

// Table represents a bordered text table for CLI output.
type Table struct {
	Headers []string
	Rows    [][]string
}

// RenderTable renders a bordered table with headers and rows. The first
// column is left-aligned, the rest right-aligned.
func RenderTable(t Table) string {
	numCols := len(t.Headers)
	if numCols == 0 {
		return ""
	}

	// Size columns by display width, not byte length, so wide and
	// non-ASCII cells keep the borders aligned.
	widths := make([]int, numCols)
	for i, h := range t.Headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i < numCols && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	pad := func(cell string, width int, alignRight bool) string {
		fill := strings.Repeat(" ", width-lipgloss.Width(cell))
		if alignRight {
			return " " + fill + cell + " "
		}
		return " " + cell + fill + " "
	}

	rule := func(left, mid, right string) string {
		parts := make([]string, numCols)
		for i, w := range widths {
			parts[i] = strings.Repeat("─", w+2)
		}
		return dimStyle.Render(left+strings.Join(parts, mid)+right) + "\n"
	}

	var b strings.Builder
	b.WriteString(rule("╭", "┬", "╮"))

	b.WriteString(dimStyle.Render("│"))
	for i, h := range t.Headers {
		b.WriteString(headerStyle.Render(pad(h, widths[i], false)))
		b.WriteString(dimStyle.Render("│"))
	}
	b.WriteString("\n")
	b.WriteString(rule("├", "┼", "┤"))

	for _, row := range t.Rows {
		b.WriteString(dimStyle.Render("│"))
		for i := 0; i < numCols; i++ {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			b.WriteString(valueStyle.Render(pad(cell, widths[i], i != 0)))
			b.WriteString(dimStyle.Render("│"))
		}
		b.WriteString("\n")
	}

	b.WriteString(rule("╰", "┴", "╯"))
	return b.String()
}

// RenderTranscript renders a session's messages as a labeled transcript.
func RenderTranscript(msgs []model.Message) string {
	var b strings.Builder
	for _, m := range msgs {
		var label string
		switch m.Role {
		case model.RoleUser:
			label = userLabelStyle.Render(RoleLabel(m.Role))
		case model.RoleAssistant:
			label = assistantLabelStyle.Render(RoleLabel(m.Role))
		default:
			label = systemLabelStyle.Render(RoleLabel(m.Role))
		}

		b.WriteString(fmt.Sprintf("  %s %s\n", label, metaStyle.Render(FormatRelative(m.CreatedAt))))
		for _, line := range strings.Split(strings.TrimRight(m.Content, "\n"), "\n") {
			b.WriteString("  " + line + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
