package cmd

import (
	"fmt"
	"strconv"

	"github.com/theirongolddev/wealthtax/internal/cli"
	"github.com/theirongolddev/wealthtax/internal/dataset"

	"github.com/spf13/cobra"
)

var comparisonsCmd = &cobra.Command{
	Use:   "comparisons",
	Short: "List the loaded comparison table",
	RunE:  runComparisons,
}

func init() {
	rootCmd.AddCommand(comparisonsCmd)
}

func runComparisons(cmd *cobra.Command, _ []string) error {
	table := loadTable(cmd.Context())
	src := dataset.Resolve(cfg.General.DataSource)

	if len(table) == 0 {
		fmt.Println()
		fmt.Println(cli.RenderWarning("no comparisons loaded from " + src))
		fmt.Println()
		return nil
	}

	rows := make([][]string, 0, len(table))
	for i, c := range table {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			cli.FormatShortCurrency(c.MinRevenue),
			cli.FormatShortCurrency(c.MaxRevenue),
			c.Description,
			c.SourceText,
		})
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(cli.Table{
		Title:        fmt.Sprintf("%d comparisons from %s", len(table), src),
		Headers:      []string{"#", "From", "To", "Description", "Source"},
		Rows:         rows,
		MaxCellWidth: 48,
	}))

	issues := dataset.Validate(table)
	if len(issues) > 0 {
		fmt.Println()
		for _, issue := range issues {
			fmt.Println(cli.RenderWarning(issue.Message))
		}
	}
	fmt.Println()
	return nil
}
