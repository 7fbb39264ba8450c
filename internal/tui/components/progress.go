package components

import (
	"github.com/theirongolddev/wealthtax/internal/tui/theme"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
)

// SliderPosition maps rate into [0, 1] across the [lo, hi] domain.
func SliderPosition(rate, lo, hi float64) float64 {
	if hi <= lo {
		return 1
	}
	pos := (rate - lo) / (hi - lo)
	return min(max(pos, 0), 1)
}

// ColorForPosition shades the slider from green through yellow to orange.
func ColorForPosition(pos float64) lipgloss.Color {
	t := theme.Active
	switch {
	case pos >= 0.75:
		return t.Orange
	case pos >= 0.4:
		return t.Yellow
	default:
		return t.Green
	}
}

// RateSlider renders the rate as a filled bar with the domain bounds on
// either side, e.g. "1% ███████░░░░ 8%".
func RateSlider(rate, lo, hi float64, lowLabel, highLabel string, width int) string {
	t := theme.Active
	pos := SliderPosition(rate, lo, hi)

	labelStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spaceStyle := lipgloss.NewStyle().Background(t.Surface)

	barW := width - lipgloss.Width(lowLabel) - lipgloss.Width(highLabel) - 2
	if barW < 4 {
		barW = 4
	}

	bar := progress.New(
		progress.WithSolidFill(string(ColorForPosition(pos))),
		progress.WithWidth(barW),
		progress.WithoutPercentage(),
	)
	bar.EmptyColor = string(t.TextDim)

	return labelStyle.Render(lowLabel) +
		spaceStyle.Render(" ") +
		bar.ViewAs(pos) +
		spaceStyle.Render(" ") +
		labelStyle.Render(highLabel)
}
