package cli

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// RenderMarkdown renders release notes for the terminal, wrapped at width.
// The raw text is returned if rendering fails.
func RenderMarkdown(md string, width int) string {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}
