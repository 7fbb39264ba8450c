package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
	"github.com/theirongolddev/wealthtax/internal/widget"

	"github.com/spf13/cobra"
)

var (
	flagRenderTitle     string
	flagRenderSubtitle  string
	flagRenderShortcode string
	flagRenderRate      float64
	flagRenderPage      bool
	flagRenderOutput    string
	flagRenderDataURL   string
	flagRenderAPI       string
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Print the embeddable HTML widget",
	Long: "Render the calculator widget as HTML. Attributes come from --title and\n" +
		"--subtitle or from a shortcode such as\n" +
		"  [" + widget.Shortcode + " title=\"Tax the Rich\"]\n\n" +
		"Without --data-url or --api the slider is static. --data-url makes the\n" +
		"widget fetch the comparison data in the browser and recompute on every\n" +
		"move; a URL ending in / gets comparisons.json appended. --api points the\n" +
		"slider at a running `wealthtax serve` revenue endpoint instead.",
	RunE: runRender,
}

func init() {
	renderCmd.Flags().StringVar(&flagRenderTitle, "title", "", "Widget heading")
	renderCmd.Flags().StringVar(&flagRenderSubtitle, "subtitle", "", "Widget subheading")
	renderCmd.Flags().StringVar(&flagRenderShortcode, "shortcode", "", "Shortcode to take attributes from")
	renderCmd.Flags().Float64Var(&flagRenderRate, "rate", 0, "Initial rate (default from config)")
	renderCmd.Flags().BoolVar(&flagRenderPage, "page", false, "Wrap the widget in a standalone HTML page")
	renderCmd.Flags().StringVarP(&flagRenderOutput, "output", "o", "", "Write to file instead of stdout")
	renderCmd.Flags().StringVar(&flagRenderDataURL, "data-url", "", "Comparison data URL the browser loads (base URL ending in / or a JSON file)")
	renderCmd.Flags().StringVar(&flagRenderAPI, "api", "", "Revenue API endpoint the slider queries, e.g. https://host/v1/revenue")
	renderCmd.MarkFlagsMutuallyExclusive("data-url", "api")
	rootCmd.AddCommand(renderCmd)
}

func runRender(cmd *cobra.Command, _ []string) error {
	attrs := widget.Attrs{Title: cfg.Server.Title, Subtitle: cfg.Server.Subtitle}
	if flagRenderShortcode != "" {
		sc, err := widget.ParseShortcode(flagRenderShortcode)
		if err != nil {
			return err
		}
		attrs = sc
	}
	if cmd.Flags().Changed("title") {
		attrs.Title = flagRenderTitle
	}
	if cmd.Flags().Changed("subtitle") {
		attrs.Subtitle = flagRenderSubtitle
	}

	rate := cfg.General.DefaultRate
	if cmd.Flags().Changed("rate") {
		rate = flagRenderRate
	}
	rate = clampRate(rate)

	var table model.Table
	if flagRenderDataURL == "" {
		table = loadTable(cmd.Context())
	}
	view := widget.View{
		Attrs: attrs.WithDefaults(),
		Slider: widget.Slider{
			Min:  cfg.Engine.MinRate,
			Max:  cfg.Engine.MaxRate,
			Step: cfg.Engine.RateStep,
		},
		Result:      revenue.New(cfg.Engine.TotalWealth).Evaluate(rate, table),
		WealthLabel: cfg.Engine.WealthLabel,
		TotalWealth: cfg.Engine.TotalWealth,
		DataURL:     flagRenderDataURL,
		APIPath:     flagRenderAPI,
	}

	var w io.Writer = os.Stdout
	if flagRenderOutput != "" {
		f, err := os.Create(flagRenderOutput)
		if err != nil {
			return fmt.Errorf("creating output: %w", err)
		}
		defer func() { _ = f.Close() }()
		w = f
	}

	render := widget.Render
	if flagRenderPage {
		render = widget.RenderPage
	}
	if err := render(w, view); err != nil {
		return err
	}

	if flagRenderOutput != "" {
		log.Info().Str("path", flagRenderOutput).Msg("widget written")
	}
	return nil
}
