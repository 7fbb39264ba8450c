package cmd

import (
	"fmt"

	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/tui"
	"github.com/theirongolddev/wealthtax/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive calculator",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(_ *cobra.Command, _ []string) error {
	theme.SetActive(cfg.Appearance.Theme)

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	// Log lines would tear the alt screen; load failures show in the status bar.
	log = zerolog.Nop()

	app := tui.NewApp(tui.Options{
		Engine:      cfg.Engine,
		DefaultRate: cfg.General.DefaultRate,
		Title:       cfg.Server.Title,
		Subtitle:    cfg.Server.Subtitle,
		Source:      dataset.Resolve(cfg.General.DataSource),
		Load:        loadTable,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}
