// Package revenue converts a wealth tax rate into projected annual revenue
// and picks the comparison record that illustrates that amount.
package revenue

import "github.com/theirongolddev/wealthtax/internal/model"

// DefaultTotalWealth is the 2024 U.S. Treasury estimate of billionaire wealth, in dollars.
const DefaultTotalWealth = 15.3e12

// Placeholder is returned by FindComparison when no comparison data is available.
// SourceURL "#" is deliberately non-navigable.
var Placeholder = model.Comparison{
	Description: "Comparison data loading…",
	SourceText:  "Loading…",
	SourceURL:   "#",
}

// ComputeRevenue returns totalWealth * (taxRatePercent / 100).
// The rate is not clamped or validated; NaN and negative rates pass straight through.
func ComputeRevenue(totalWealth, taxRatePercent float64) float64 {
	return totalWealth * (taxRatePercent / 100)
}

// FindComparison returns the first record in table order whose inclusive range
// contains revenue. Revenue outside every range falls back to the last record.
// An empty table yields Placeholder.
func FindComparison(revenue float64, table model.Table) model.Comparison {
	if len(table) == 0 {
		return Placeholder
	}

	for _, c := range table {
		if c.Contains(revenue) {
			return c
		}
	}

	return table[len(table)-1]
}

// IsPlaceholder reports whether c is the no-data placeholder.
func IsPlaceholder(c model.Comparison) bool {
	return c == Placeholder
}

// Engine binds the wealth constant so presentation code can evaluate a rate in one call.
type Engine struct {
	TotalWealth float64
}

// New returns an Engine for totalWealth, falling back to DefaultTotalWealth when it is not positive.
func New(totalWealth float64) Engine {
	if !(totalWealth > 0) {
		totalWealth = DefaultTotalWealth
	}
	return Engine{TotalWealth: totalWealth}
}

// Result is one evaluation of the engine for a single rate.
type Result struct {
	Rate       float64          `json:"rate"`
	Revenue    float64          `json:"revenue"`
	Comparison model.Comparison `json:"comparison"`
}

// Revenue computes the revenue for rate against the engine's wealth constant.
func (e Engine) Revenue(rate float64) float64 {
	return ComputeRevenue(e.TotalWealth, rate)
}

// Evaluate runs the compute-then-lookup sequence every presentation layer performs.
func (e Engine) Evaluate(rate float64, table model.Table) Result {
	rev := e.Revenue(rate)
	return Result{
		Rate:       rate,
		Revenue:    rev,
		Comparison: FindComparison(rev, table),
	}
}
