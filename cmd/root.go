// Package cmd implements the wealthtax CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/logging"
	"github.com/theirongolddev/wealthtax/internal/model"
	"github.com/theirongolddev/wealthtax/internal/revenue"
	"github.com/theirongolddev/wealthtax/internal/store"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// Version is the installed version, set at build time with
// -ldflags "-X github.com/theirongolddev/wealthtax/cmd.Version=1.2.0".
var Version = "0.0.0-dev"

var (
	flagData    string
	flagConfig  string
	flagVerbose bool
	flagQuiet   bool
	flagRate    float64
)

// Resolved in PersistentPreRunE and shared by every command.
var (
	cfg config.Config
	log zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "wealthtax",
	Short: "Billionaire wealth tax revenue calculator",
	Long: "Estimate the annual revenue of a tax on U.S. billionaire wealth and\n" +
		"compare it to real spending programs.",
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runCalc,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagData, "data", "d", "", "Comparison data source: file, URL, base URL ending in /, or builtin")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default $XDG_CONFIG_HOME/wealthtax/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Debug logging")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Only log errors")
	rootCmd.Flags().Float64VarP(&flagRate, "rate", "r", 0, "Tax rate in percent (default from config)")
}

func setup(_ *cobra.Command, _ []string) error {
	if flagQuiet {
		log = logging.Quiet(os.Stderr)
	} else {
		log = logging.New(os.Stderr, flagVerbose)
	}

	config.SetPath(flagConfig)
	var err error
	cfg, err = config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("using default configuration")
		cfg = config.LoadOrDefault()
	}
	if flagData != "" {
		cfg.General.DataSource = flagData
	}
	return nil
}

// loadTable is the shared data loading path used by all commands. Remote
// sources keep a snapshot in the local store so an outage serves the
// last good copy. It never fails: an unavailable source yields an empty
// table and lookups fall back to the placeholder.
func loadTable(ctx context.Context) model.Table {
	opts := dataset.Options{UserAgent: userAgent()}

	if dataset.Resolve(cfg.General.DataSource) != dataset.Builtin {
		snaps, err := store.Open(store.DefaultPath())
		if err != nil {
			log.Debug().Err(err).Msg("snapshot store unavailable")
		} else {
			defer func() { _ = snaps.Close() }()
			opts.Snapshots = snaps
		}
	}

	return dataset.LoadOrEmpty(ctx, cfg.General.DataSource, opts, log)
}

func userAgent() string {
	return "wealthtax/" + Version
}

// clampRate restricts a user-supplied rate to the slider domain,
// warning when the value had to move.
func clampRate(rate float64) float64 {
	clamped := cfg.Engine.ClampRate(rate)
	if clamped != rate {
		log.Warn().Float64("requested", rate).Float64("rate", clamped).Msg("rate adjusted to the configured domain")
	}
	return clamped
}

func runCalc(cmd *cobra.Command, _ []string) error {
	rate := cfg.General.DefaultRate
	if cmd.Flags().Changed("rate") {
		rate = flagRate
	}
	rate = clampRate(rate)

	table := loadTable(cmd.Context())
	res := revenue.New(cfg.Engine.TotalWealth).Evaluate(rate, table)

	fmt.Println()
	fmt.Println(cli.RenderTitle("BILLIONAIRE WEALTH TAX"))
	fmt.Println()
	fmt.Println(cli.RenderField("Rate", cli.FormatRate(res.Rate), false))
	fmt.Println(cli.RenderField("Wealth", cfg.Engine.WealthLabel, false))
	fmt.Println(cli.RenderField("Revenue", cli.FormatCurrency(res.Revenue), true))
	fmt.Println(cli.RenderField("", cli.Explanation(res.Rate, cfg.Engine.WealthLabel)+" "+cli.FormatShortCurrency(res.Revenue), false))
	fmt.Println()
	fmt.Println(cli.RenderField("Could fund", res.Comparison.Description, false))
	fmt.Println(cli.RenderCitation(res.Comparison.SourceText, res.Comparison.SourceURL))
	fmt.Println()

	if revenue.IsPlaceholder(res.Comparison) {
		fmt.Println(cli.RenderWarning("comparison data unavailable from " + dataset.Resolve(cfg.General.DataSource)))
		fmt.Println()
	}
	return nil
}
