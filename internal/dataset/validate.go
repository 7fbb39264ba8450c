package dataset

import (
	"fmt"

	"github.com/theirongolddev/wealthtax/internal/model"
)

// IssueKind classifies a dataset integrity problem.
type IssueKind string

// Issue kinds reported by Validate.
const (
	IssueEmpty    IssueKind = "empty"
	IssueInverted IssueKind = "inverted"
	IssueOverlap  IssueKind = "overlap"
	IssueGap      IssueKind = "gap"
)

// gapTolerance is the largest distance between consecutive ranges still
// treated as contiguous; datasets use whole-dollar bounds (max, max+1).
const gapTolerance = 1

// Issue describes one integrity problem at a record index.
type Issue struct {
	Index   int
	Kind    IssueKind
	Message string
}

// Validate checks the contiguity invariant of a table. Lookups never
// consult it; first-match-in-order stays in effect whatever it reports.
func Validate(table model.Table) []Issue {
	if len(table) == 0 {
		return []Issue{{Index: -1, Kind: IssueEmpty, Message: "comparison table has no records"}}
	}

	var issues []Issue
	for i, c := range table {
		if c.MinRevenue > c.MaxRevenue {
			issues = append(issues, Issue{
				Index:   i,
				Kind:    IssueInverted,
				Message: fmt.Sprintf("record %d has minRevenue %.0f above maxRevenue %.0f", i, c.MinRevenue, c.MaxRevenue),
			})
		}
		if i == 0 {
			continue
		}

		prev := table[i-1]
		switch {
		case c.MinRevenue <= prev.MaxRevenue:
			issues = append(issues, Issue{
				Index:   i,
				Kind:    IssueOverlap,
				Message: fmt.Sprintf("record %d overlaps record %d; the earlier record wins", i, i-1),
			})
		case c.MinRevenue-prev.MaxRevenue > gapTolerance:
			issues = append(issues, Issue{
				Index:   i,
				Kind:    IssueGap,
				Message: fmt.Sprintf("gap between record %d and %d; revenue in it falls back to the last record", i-1, i),
			})
		}
	}
	return issues
}
