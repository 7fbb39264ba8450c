package tui

import (
	"context"
	"strings"
	"testing"

	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
	"github.com/theirongolddev/wealthtax/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
)

var testTable = model.Table{
	{MinRevenue: 0, MaxRevenue: 200e9, Description: "low band", SourceText: "Low", SourceURL: "https://low.example"},
	{MinRevenue: 200e9, MaxRevenue: 400e9, Description: "middle band", SourceText: "Middle", SourceURL: "https://mid.example"},
	{MinRevenue: 400e9, MaxRevenue: 2e12, Description: "high band", SourceText: "High", SourceURL: "https://high.example"},
}

func newTestApp(t *testing.T) App {
	t.Helper()
	return NewApp(Options{
		Engine:      config.DefaultConfig().Engine,
		DefaultRate: 2,
		Source:      "test",
		Load:        func(context.Context) model.Table { return testTable },
	})
}

func send(t *testing.T, a App, msgs ...tea.Msg) App {
	t.Helper()
	for _, msg := range msgs {
		m, _ := a.Update(msg)
		a = m.(App)
	}
	return a
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T, a App) App {
	t.Helper()
	msg := loadTableCmd(a.load)()
	return send(t, a, msg)
}

func TestNewApp_PlaceholderUntilLoaded(t *testing.T) {
	a := newTestApp(t)
	if a.Rate() != 2 {
		t.Fatalf("Rate() = %v, want 2", a.Rate())
	}
	if a.Result().Revenue != 306e9 {
		t.Fatalf("Revenue = %v, want 306e9", a.Result().Revenue)
	}
	if !revenue.IsPlaceholder(a.Result().Comparison) {
		t.Fatalf("comparison before load = %+v, want placeholder", a.Result().Comparison)
	}

	a = loaded(t, a)
	if got := a.Result().Comparison.Description; got != "middle band" {
		t.Fatalf("comparison after load = %q, want middle band", got)
	}
}

func TestKeys_StepAndClamp(t *testing.T) {
	a := loaded(t, newTestApp(t))

	cases := []struct {
		name string
		msg  tea.KeyMsg
		want float64
	}{
		{"right", tea.KeyMsg{Type: tea.KeyRight}, 2.1},
		{"left", runes("h"), 2},
		{"big right", tea.KeyMsg{Type: tea.KeyShiftRight}, 3},
		{"big right rune", runes("L"), 4},
		{"max", tea.KeyMsg{Type: tea.KeyEnd}, 8},
		{"right at max", runes("l"), 8},
		{"min", runes("g"), 1},
		{"left at min", tea.KeyMsg{Type: tea.KeyLeft}, 1},
		{"big left at min", runes("H"), 1},
		{"reset", runes("0"), 2},
	}
	for _, tc := range cases {
		a = send(t, a, tc.msg)
		if a.Rate() != tc.want {
			t.Fatalf("%s: Rate() = %v, want %v", tc.name, a.Rate(), tc.want)
		}
		if want := revenue.ComputeRevenue(revenue.DefaultTotalWealth, tc.want); a.Result().Revenue != want {
			t.Fatalf("%s: Revenue = %v, want %v", tc.name, a.Result().Revenue, want)
		}
	}
}

func TestKeys_MaxRateSelectsHighBand(t *testing.T) {
	a := loaded(t, newTestApp(t))
	a = send(t, a, tea.KeyMsg{Type: tea.KeyEnd})
	if got := a.Result().Comparison.Description; got != "high band" {
		t.Fatalf("comparison at 8%% = %q, want high band", got)
	}
}

func TestKeys_HelpAndQuit(t *testing.T) {
	a := newTestApp(t)
	a = send(t, a, tea.WindowSizeMsg{Width: 100, Height: 40}, runes("?"))
	if !a.showHelp {
		t.Fatal("? did not open help")
	}
	if !strings.Contains(a.View(), "Keyboard Shortcuts") {
		t.Fatal("help view missing title")
	}

	// Any key closes help without acting on it.
	a = send(t, a, tea.KeyMsg{Type: tea.KeyRight})
	if a.showHelp || a.Rate() != 2 {
		t.Fatalf("help close: showHelp=%v rate=%v", a.showHelp, a.Rate())
	}

	_, cmd := a.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q did not quit")
	}
}

func TestKeys_ThemeCycles(t *testing.T) {
	theme.SetActive("flexoki-dark")
	t.Cleanup(func() { theme.SetActive("flexoki-dark") })

	a := newTestApp(t)
	send(t, a, runes("t"))
	if theme.Active.Name != theme.Next("flexoki-dark").Name {
		t.Fatalf("theme = %s, want %s", theme.Active.Name, theme.Next("flexoki-dark").Name)
	}
}

func TestKeys_ReloadRefetches(t *testing.T) {
	calls := 0
	a := NewApp(Options{
		Engine:      config.DefaultConfig().Engine,
		DefaultRate: 2,
		Load: func(context.Context) model.Table {
			calls++
			return testTable
		},
	})
	a = loaded(t, a)

	m, cmd := a.Update(runes("r"))
	a = m.(App)
	if cmd == nil || a.loaded {
		t.Fatalf("reload: cmd=%v loaded=%v", cmd != nil, a.loaded)
	}
	a = loaded(t, a)
	if calls != 2 || !a.loaded {
		t.Fatalf("calls = %d loaded = %v, want 2 true", calls, a.loaded)
	}
}

func TestView(t *testing.T) {
	a := loaded(t, newTestApp(t))

	if a.View() != "" {
		t.Fatal("View before WindowSizeMsg should be empty")
	}

	narrow := send(t, a, tea.WindowSizeMsg{Width: 40, Height: 20})
	if !strings.Contains(narrow.View(), "too narrow") {
		t.Fatal("narrow view missing warning")
	}

	a = send(t, a, tea.WindowSizeMsg{Width: 100, Height: 40})
	out := a.View()
	for _, want := range []string{"2.0%", "$306,000,000,000", "middle band", "3 comparisons"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if got := len(strings.Split(out, "\n")); got != 40 {
		t.Fatalf("view has %d lines, want 40", got)
	}
}

func TestView_EmptyTableWarns(t *testing.T) {
	a := NewApp(Options{Engine: config.DefaultConfig().Engine, DefaultRate: 2})
	a = send(t, a, loadTableCmd(a.load)(), tea.WindowSizeMsg{Width: 100, Height: 40})
	out := a.View()
	if !strings.Contains(out, "comparison data unavailable") {
		t.Fatalf("empty table not flagged:\n%s", out)
	}
	if !strings.Contains(out, revenue.Placeholder.Description) {
		t.Fatal("placeholder description not shown")
	}
}
