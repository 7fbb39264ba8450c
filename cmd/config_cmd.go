package cmd

import (
	"fmt"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/config"
	"github.com/theirongolddev/wealthtax/internal/dataset"
	"github.com/theirongolddev/wealthtax/internal/store"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	fmt.Printf("  Config file: %s\n", config.Path())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Data source:  %s\n", cfg.General.DataSource)
	if resolved := dataset.Resolve(cfg.General.DataSource); resolved != cfg.General.DataSource {
		fmt.Printf("    Resolved to:  %s\n", resolved)
	}
	fmt.Printf("    Default rate: %s\n", cli.FormatRate(cfg.General.DefaultRate))
	fmt.Println()

	fmt.Println("  [Engine]")
	fmt.Printf("    Total wealth: %s (%s)\n", cli.FormatCurrency(cfg.Engine.TotalWealth), cfg.Engine.WealthLabel)
	fmt.Printf("    Rate range:   %s to %s, step %s\n",
		cli.FormatRate(cfg.Engine.MinRate), cli.FormatRate(cfg.Engine.MaxRate), cli.FormatRate(cfg.Engine.RateStep))
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address: %s\n", cfg.Server.Addr)
	if cfg.Server.Title != "" {
		fmt.Printf("    Title:   %s\n", cfg.Server.Title)
	}
	if cfg.Server.Subtitle != "" {
		fmt.Printf("    Subtitle: %s\n", cfg.Server.Subtitle)
	}
	fmt.Println()

	fmt.Println("  [Update]")
	fmt.Printf("    Repository: %s\n", cfg.Update.Repo)
	fmt.Printf("    Asset:      %s\n", cfg.Update.AssetName)
	if cfg.Update.InstallDir != "" {
		fmt.Printf("    Install to: %s\n", cfg.Update.InstallDir)
	} else {
		fmt.Println("    Install to: not configured")
	}
	if cfg.Update.Token != "" {
		fmt.Printf("    Token:      %s\n", maskToken(cfg.Update.Token))
	} else {
		fmt.Println("    Token:      not configured")
	}
	fmt.Println()

	fmt.Println("  [Cache]")
	fmt.Printf("    Path: %s\n", store.DefaultPath())
	if c, err := store.Open(store.DefaultPath()); err == nil {
		entries, snaps, err := c.Counts()
		_ = c.Close()
		if err == nil {
			fmt.Printf("    Release lookups: %d, data snapshots: %d\n", entries, snaps)
		}
	}
	fmt.Println()

	fmt.Println("  Run `wealthtax setup` to reconfigure.")
	return nil
}
