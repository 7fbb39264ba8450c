// Package tui provides the interactive Bubble Tea calculator.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
	"github.com/theirongolddev/wealthtax/internal/tui/components"
	"github.com/theirongolddev/wealthtax/internal/tui/theme"
	"github.com/theirongolddev/wealthtax/internal/widget"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	minTerminalWidth = 60
	maxContentWidth  = 100
	bigStep          = 1.0
)

// TableLoadedMsg is sent when the comparison table finishes loading.
type TableLoadedMsg struct {
	Table    model.Table
	LoadTime time.Duration
}

// Loader produces the comparison table. Failures yield an empty table.
type Loader func(ctx context.Context) model.Table

// Options configures the calculator.
type Options struct {
	Engine      config.EngineConfig
	DefaultRate float64
	Title       string
	Subtitle    string
	// Source names the data source in the status bar.
	Source string
	Load   Loader
}

// App is the root Bubble Tea model.
type App struct {
	engine      revenue.Engine
	domain      config.EngineConfig
	defaultRate float64
	attrs       widget.Attrs
	source      string
	load        Loader

	// Data
	table    model.Table
	loaded   bool
	loadTime time.Duration

	// Current evaluation
	rate   float64
	result revenue.Result

	// UI state
	width    int
	height   int
	showHelp bool
	keys     keyMap
	help     help.Model
	spinner  spinner.Model
}

// NewApp creates the calculator at the default rate. The table is empty
// until the loader reports back, so the first frames show the placeholder.
func NewApp(opts Options) App {
	if opts.Engine.RateStep <= 0 {
		opts.Engine = config.DefaultConfig().Engine
	}
	if opts.Load == nil {
		opts.Load = func(context.Context) model.Table { return model.Table{} }
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	a := App{
		engine:      revenue.New(opts.Engine.TotalWealth),
		domain:      opts.Engine,
		defaultRate: opts.Engine.ClampRate(opts.DefaultRate),
		attrs:       widget.Attrs{Title: opts.Title, Subtitle: opts.Subtitle}.WithDefaults(),
		source:      opts.Source,
		load:        opts.Load,
		keys:        defaultKeyMap(),
		help:        help.New(),
		spinner:     sp,
	}
	a.setRate(a.defaultRate)
	return a
}

// Rate returns the current slider rate.
func (a App) Rate() float64 { return a.rate }

// Result returns the current evaluation.
func (a App) Result() revenue.Result { return a.result }

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(a.spinner.Tick, loadTableCmd(a.load))
}

func (a *App) setRate(rate float64) {
	a.rate = a.domain.ClampRate(rate)
	a.result = a.engine.Evaluate(a.rate, a.table)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		return a, nil

	case TableLoadedMsg:
		a.table = msg.Table
		a.loaded = true
		a.loadTime = msg.LoadTime
		a.setRate(a.rate)
		return a, nil

	case spinner.TickMsg:
		if a.loaded {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.updateKey(msg)
	}
	return a, nil
}

func (a App) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, a.keys.Quit) {
		return a, tea.Quit
	}
	if a.showHelp {
		a.showHelp = false
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Left):
		a.setRate(a.rate - a.domain.RateStep)
	case key.Matches(msg, a.keys.Right):
		a.setRate(a.rate + a.domain.RateStep)
	case key.Matches(msg, a.keys.BigLeft):
		a.setRate(a.rate - bigStep)
	case key.Matches(msg, a.keys.BigRight):
		a.setRate(a.rate + bigStep)
	case key.Matches(msg, a.keys.Min):
		a.setRate(a.domain.MinRate)
	case key.Matches(msg, a.keys.Max):
		a.setRate(a.domain.MaxRate)
	case key.Matches(msg, a.keys.Reset):
		a.setRate(a.defaultRate)
	case key.Matches(msg, a.keys.Theme):
		theme.Active = theme.Next(theme.Active.Name)
	case key.Matches(msg, a.keys.Reload):
		if !a.loaded {
			return a, nil
		}
		a.loaded = false
		return a, tea.Batch(a.spinner.Tick, loadTableCmd(a.load))
	case key.Matches(msg, a.keys.Help):
		a.showHelp = true
	}
	return a, nil
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}
	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}
	if a.showHelp {
		return a.viewHelp()
	}
	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(a.height, 5)
	msg := fmt.Sprintf("\n  Terminal too narrow (%d cols)\n\n  The calculator needs at least %d columns.\n",
		a.width, minTerminalWidth)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)

	titleStyle := lipgloss.NewStyle().
		Foreground(t.AccentBright).
		Background(t.Surface).
		Bold(true)

	dimStyle := lipgloss.NewStyle().
		Foreground(t.TextDim).
		Background(t.Surface)

	h := a.help
	h.ShowAll = true

	body := titleStyle.Render("◈ Keyboard Shortcuts") + "\n\n" +
		h.View(a.keys) + "\n\n" +
		dimStyle.Render("Press any key to close")

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(body),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := min(w, maxContentWidth)
	inner := components.CardInnerWidth(cw)

	text := lipgloss.NewStyle().Foreground(t.TextPrimary).Background(t.Surface)
	muted := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	link := lipgloss.NewStyle().Foreground(t.Blue).Background(t.Surface).Underline(true)

	// Header
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Background).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Background)
	header := titleStyle.Render(a.attrs.Title) + "\n" + subStyle.Render(a.attrs.Subtitle)

	// Slider
	rateStyle := lipgloss.NewStyle().
		Foreground(components.ColorForPosition(components.SliderPosition(a.rate, a.domain.MinRate, a.domain.MaxRate))).
		Background(t.Surface).
		Bold(true)
	slider := components.FocusCard("Tax Rate on Billionaire Wealth",
		rateStyle.Render(cli.FormatRate(a.rate))+"\n"+
			components.RateSlider(a.rate, a.domain.MinRate, a.domain.MaxRate,
				cli.FormatRate(a.domain.MinRate), cli.FormatRate(a.domain.MaxRate), inner),
		cw)

	// Revenue
	widths := components.LayoutRow(cw, 2)
	revenueCard := components.MetricCard(
		cli.Explanation(a.rate, a.domain.WealthLabel),
		cli.FormatCurrency(a.result.Revenue),
		t.Green, widths[0])
	shortCard := components.MetricCard("Annual Tax Revenue", cli.FormatShortCurrency(a.result.Revenue), t.Accent, widths[1])
	revenueRow := components.CardRow([]string{revenueCard, shortCard})

	// Comparison
	var fund string
	c := a.result.Comparison
	if !a.loaded {
		fund = text.Render(a.spinner.View()+" ") + muted.Render(c.Description)
	} else {
		fund = text.Width(inner).Render(c.Description)
	}
	fund += "\n" + muted.Render("Source: ") + link.Render(c.SourceText)
	if c.SourceURL != "" && c.SourceURL != "#" {
		fund += "\n" + muted.Render(c.SourceURL)
	}
	comparison := components.ContentCard("What Could This Fund?", fund, cw)

	sources := components.ContentCard("Sources",
		muted.Width(inner).Render(widget.WealthSource.Text+" - billionaire wealth estimate of "+a.domain.WealthLabel),
		cw)

	body := lipgloss.JoinVertical(lipgloss.Left, header, "", slider, revenueRow, comparison, sources)

	statusBar := components.RenderStatusBar(w, "[←/→]rate  [t]heme  [?]help  [q]uit", a.statusText(), a.loaded && len(a.table) == 0)
	contentH := max(a.height-lipgloss.Height(statusBar), 5)

	body = padHeight(truncateHeight(body, contentH), contentH)
	body = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, body,
		lipgloss.WithWhitespaceBackground(t.Background))

	return lipgloss.JoinVertical(lipgloss.Left, body, statusBar)
}

func (a App) statusText() string {
	switch {
	case !a.loaded:
		return "loading comparisons…"
	case len(a.table) == 0:
		return "comparison data unavailable"
	}
	parts := []string{fmt.Sprintf("%d comparisons", len(a.table))}
	if a.source != "" {
		parts = append(parts, a.source)
	}
	parts = append(parts, fmt.Sprintf("%.1fs", a.loadTime.Seconds()), theme.Active.Name)
	return strings.Join(parts, " · ")
}

func loadTableCmd(load Loader) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		table := load(context.Background())
		return TableLoadedMsg{Table: table, LoadTime: time.Since(start)}
	}
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}
