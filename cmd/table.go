package cmd

import (
	"errors"
	"fmt"
	"math"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/revenue"

	"github.com/spf13/cobra"
)

var flagStep float64

var tableCmd = &cobra.Command{
	Use:   "table",
	Short: "Revenue and comparison across the rate range",
	RunE:  runTable,
}

func init() {
	tableCmd.Flags().Float64Var(&flagStep, "step", 1.0, "Rate increment in percent")
	rootCmd.AddCommand(tableCmd)
}

func runTable(cmd *cobra.Command, _ []string) error {
	if !(flagStep > 0) {
		return errors.New("--step must be positive")
	}

	e := cfg.Engine
	engine := revenue.New(e.TotalWealth)
	table := loadTable(cmd.Context())

	var rows [][]string
	prev := ""
	for i := 0; ; i++ {
		rate := math.Round((e.MinRate+float64(i)*flagStep)*1e6) / 1e6
		if rate > e.MaxRate {
			break
		}
		res := engine.Evaluate(rate, table)
		// A separator marks where the comparison changes band.
		if prev != "" && res.Comparison.Description != prev {
			rows = append(rows, []string{"---"})
		}
		prev = res.Comparison.Description
		rows = append(rows, []string{
			cli.FormatRate(rate),
			cli.FormatShortCurrency(res.Revenue),
			res.Comparison.Description,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:        fmt.Sprintf("Annual revenue on %s of billionaire wealth", e.WealthLabel),
		Headers:      []string{"Rate", "Revenue", "Could fund"},
		Rows:         rows,
		MaxCellWidth: 72,
	}))
	if len(table) == 0 {
		fmt.Println(cli.RenderWarning("comparison data unavailable"))
	}
	fmt.Println()
	return nil
}
