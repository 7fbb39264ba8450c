// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
)

// FormatCurrency formats a dollar amount rounded to whole dollars with
// en-US grouping, e.g. 306000000000 -> "$306,000,000,000".
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		return "$" + fmt.Sprint(amount)
	}
	rounded := math.Round(amount)
	if rounded >= math.MaxInt64 || rounded <= math.MinInt64 {
		n, _ := new(big.Float).SetFloat64(rounded).Int(nil)
		return "$" + humanize.BigComma(n)
	}
	return "$" + humanize.Comma(int64(rounded))
}

// FormatShortCurrency formats a dollar amount with a magnitude suffix.
// e.g., 306000000000 -> "$306.0B", 1224000000000 -> "$1.2T"
func FormatShortCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	switch {
	case amount >= 1e12:
		return fmt.Sprintf("%s$%.1fT", sign, amount/1e12)
	case amount >= 1e9:
		return fmt.Sprintf("%s$%.1fB", sign, amount/1e9)
	case amount >= 1e6:
		return fmt.Sprintf("%s$%.1fM", sign, amount/1e6)
	default:
		return sign + FormatCurrency(amount)
	}
}

// FormatRate formats a percent rate with one decimal, e.g. 2 -> "2.0%".
func FormatRate(rate float64) string {
	return fmt.Sprintf("%.1f%%", rate)
}

// Explanation renders the "2.0% of $15.3 trillion in billionaire wealth =" lead-in.
func Explanation(rate float64, wealthLabel string) string {
	return fmt.Sprintf("%s of %s in billionaire wealth =", FormatRate(rate), wealthLabel)
}

// FormatWealthLabel derives a label like "$15.3 trillion" from a dollar amount.
func FormatWealthLabel(totalWealth float64) string {
	switch {
	case totalWealth >= 1e12:
		return fmt.Sprintf("$%s trillion", trimZero(totalWealth/1e12))
	case totalWealth >= 1e9:
		return fmt.Sprintf("$%s billion", trimZero(totalWealth/1e9))
	default:
		return FormatCurrency(totalWealth)
	}
}

func trimZero(f float64) string {
	s := fmt.Sprintf("%.1f", f)
	return strings.TrimSuffix(s, ".0")
}
