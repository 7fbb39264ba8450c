package components

import (
	"github.com/theirongolddev/wealthtax/internal/tui/theme"

	"github.com/charmbracelet/lipgloss"
)

// RenderStatusBar renders the bottom status bar: key hints on the left,
// data status on the right.
func RenderStatusBar(width int, hints, status string, warn bool) string {
	t := theme.Active

	base := lipgloss.NewStyle().
		Foreground(t.TextMuted).
		Background(t.Surface)

	statusStyle := base
	if warn {
		statusStyle = statusStyle.Foreground(t.Orange)
	}

	left := base.Render(" " + hints)
	right := statusStyle.Render(status + " ")

	gap := width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return left + base.Width(gap).Render("") + right
}
