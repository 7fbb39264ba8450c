package cli

import (
	"math"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestFormatCurrency(t *testing.T) {
	cases := map[float64]string{
		306_000_000_000:   "$306,000,000,000",
		168_300_000_000.4: "$168,300,000,000",
		999.5:             "$1,000",
		0:                 "$0",
		-153_000_000_000:  "$-153,000,000,000",
		1e19:              "$10,000,000,000,000,000,000",
		1e21:              "$1,000,000,000,000,000,000,000",
		-1e19:             "$-10,000,000,000,000,000,000",
	}
	for in, want := range cases {
		if got := FormatCurrency(in); got != want {
			t.Fatalf("FormatCurrency(%v) = %q, want %q", in, got, want)
		}
	}
	if got := FormatCurrency(math.NaN()); got != "$NaN" {
		t.Fatalf("FormatCurrency(NaN) = %q", got)
	}
}

func TestFormatShortCurrency(t *testing.T) {
	cases := map[float64]string{
		306e9:    "$306.0B",
		1.224e12: "$1.2T",
		2.5e6:    "$2.5M",
		-4e9:     "-$4.0B",
		12:       "$12",
	}
	for in, want := range cases {
		if got := FormatShortCurrency(in); got != want {
			t.Fatalf("FormatShortCurrency(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestExplanation(t *testing.T) {
	got := Explanation(2, "$15.3 trillion")
	if got != "2.0% of $15.3 trillion in billionaire wealth =" {
		t.Fatalf("Explanation = %q", got)
	}
	if got := FormatRate(2.5); got != "2.5%" {
		t.Fatalf("FormatRate(2.5) = %q", got)
	}
}

func TestFormatWealthLabel(t *testing.T) {
	if got := FormatWealthLabel(15.3e12); got != "$15.3 trillion" {
		t.Fatalf("FormatWealthLabel(15.3e12) = %q", got)
	}
	if got := FormatWealthLabel(2e12); got != "$2 trillion" {
		t.Fatalf("FormatWealthLabel(2e12) = %q", got)
	}
	if got := FormatWealthLabel(750e9); got != "$750 billion" {
		t.Fatalf("FormatWealthLabel(750e9) = %q", got)
	}
}

func TestRenderTable_AlignsAndTruncates(t *testing.T) {
	out := RenderTable(Table{
		Headers:      []string{"Rate", "Revenue", "Could fund"},
		Rows:         [][]string{{"1.0%", "$153.0B", "a very long description that should be cut"}, {"---"}, {"8.0%", "$1.2T", "short"}},
		MaxCellWidth: 12,
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 7 {
		t.Fatalf("got %d lines, want 7:\n%s", len(lines), out)
	}
	width := lipgloss.Width(lines[0])
	for i, line := range lines {
		if lipgloss.Width(line) != width {
			t.Fatalf("line %d width %d, want %d:\n%s", i, lipgloss.Width(line), width, out)
		}
	}
	if !strings.Contains(out, "a very long…") {
		t.Fatalf("long cell not truncated:\n%s", out)
	}
}

func TestRenderMarkdown(t *testing.T) {
	out := RenderMarkdown("## Changes\n\n- slider snaps to 0.1%\n- new comparison records\n", 60)
	for _, want := range []string{"Changes", "slider snaps to 0.1%", "new comparison records"} {
		if !strings.Contains(out, want) {
			t.Fatalf("rendered markdown missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "- slider") {
		t.Fatalf("list markup not rendered:\n%s", out)
	}
}
