// Package widget renders the embeddable calculator markup.
package widget

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
)

// Shortcode is the tag name accepted by ParseShortcode.
const Shortcode = "billionaire_wealth_tax"

const (
	DefaultTitle    = "Billionaire Wealth Tax Calculator"
	DefaultSubtitle = "Calculate potential revenue from taxing billionaire wealth"
)

// WealthSource is the citation for the wealth estimate, listed after the
// comparison's own source.
var WealthSource = Citation{
	Text: "Distribution of Income by Source, U.S. Department of the Treasury (2024)",
	URL:  "https://home.treasury.gov/system/files/131/Distribution-of-Income-by-Source-2024.pdf",
}

//go:embed templates/*.html.tmpl
var templateFS embed.FS

var templates = template.Must(
	template.New("wealthtax").Funcs(template.FuncMap{
		"rate": cli.FormatRate,
		"num":  formatNumber,
	}).ParseFS(templateFS, "templates/*.html.tmpl"),
)

// Attrs are the user-supplied display attributes.
type Attrs struct {
	Title    string
	Subtitle string
}

// WithDefaults fills empty attributes with their defaults.
func (a Attrs) WithDefaults() Attrs {
	if strings.TrimSpace(a.Title) == "" {
		a.Title = DefaultTitle
	}
	if strings.TrimSpace(a.Subtitle) == "" {
		a.Subtitle = DefaultSubtitle
	}
	return a
}

// Slider is the rate input domain.
type Slider struct {
	Min  float64
	Max  float64
	Step float64
}

// Citation is a linked source.
type Citation struct {
	Text string
	URL  string
}

// View is everything the widget displays.
type View struct {
	Attrs       Attrs
	Slider      Slider
	Result      revenue.Result
	WealthLabel string
	// APIPath, when set, lets the slider re-evaluate through the JSON API.
	APIPath string
	// DataURL, when set and APIPath is not, makes the slider compute in the
	// browser against the comparison data fetched from this URL. A URL ending
	// in "/" is a base and gets comparisons.json appended.
	DataURL     string
	TotalWealth float64
}

type viewData struct {
	Attrs        Attrs
	Slider       Slider
	Rate         float64
	Explanation  string
	RevenueText  string
	Comparison   string
	Source       Citation
	WealthSource Citation
	WealthLabel  string
	APIPath      string
	DataURL      string
	TotalWealth  float64
	Placeholder  model.Comparison
}

func (v View) data() viewData {
	d := viewData{
		Attrs:        v.Attrs.WithDefaults(),
		Slider:       v.Slider,
		Rate:         v.Result.Rate,
		Explanation:  cli.Explanation(v.Result.Rate, v.WealthLabel),
		RevenueText:  cli.FormatCurrency(v.Result.Revenue),
		Comparison:   v.Result.Comparison.Description,
		Source:       Citation{Text: v.Result.Comparison.SourceText, URL: v.Result.Comparison.SourceURL},
		WealthSource: WealthSource,
		WealthLabel:  v.WealthLabel,
		APIPath:      v.APIPath,
		Placeholder:  revenue.Placeholder,
	}
	if v.APIPath == "" && v.DataURL != "" {
		// The comparison is unknown until the browser has fetched the data.
		d.DataURL = ResolveDataURL(v.DataURL)
		d.TotalWealth = revenue.New(v.TotalWealth).TotalWealth
		d.Comparison = revenue.Placeholder.Description
		d.Source = Citation{Text: revenue.Placeholder.SourceText, URL: revenue.Placeholder.SourceURL}
	}
	return d
}

// ResolveDataURL returns the comparison data location for a data URL,
// appending comparisons.json to a base URL.
func ResolveDataURL(u string) string {
	u = strings.TrimSpace(u)
	if strings.HasSuffix(u, "/") {
		return u + "comparisons.json"
	}
	return u
}

// Render writes the widget fragment, the markup the shortcode expands to.
func Render(w io.Writer, v View) error {
	if err := templates.ExecuteTemplate(w, "widget", v.data()); err != nil {
		return fmt.Errorf("rendering widget: %w", err)
	}
	return nil
}

// RenderPage writes a standalone HTML document around the widget.
func RenderPage(w io.Writer, v View) error {
	if err := templates.ExecuteTemplate(w, "page", v.data()); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}

var (
	shortcodeRe = regexp.MustCompile(`^\[\s*([A-Za-z0-9_-]+)((?:\s+[^\]]*)?)\s*/?\]$`)
	attrRe      = regexp.MustCompile(`([A-Za-z0-9_-]+)\s*=\s*(?:"([^"]*)"|'([^']*)'|([^\s"']+))`)
)

// ParseShortcode parses `[billionaire_wealth_tax title="..." subtitle="..."]`.
// Unknown attributes are ignored and missing ones take their defaults.
func ParseShortcode(s string) (Attrs, error) {
	m := shortcodeRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Attrs{}, fmt.Errorf("widget: %q is not a shortcode", s)
	}
	if m[1] != Shortcode {
		return Attrs{}, fmt.Errorf("widget: unknown shortcode %q", m[1])
	}

	var a Attrs
	for _, kv := range attrRe.FindAllStringSubmatch(m[2], -1) {
		val := kv[2] + kv[3] + kv[4]
		switch strings.ToLower(kv[1]) {
		case "title":
			a.Title = val
		case "subtitle":
			a.Subtitle = val
		}
	}
	return a.WithDefaults(), nil
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
