// Package model defines the shared data types for the wealth tax calculator.
package model

// Comparison maps an inclusive revenue range to something that revenue could fund.
type Comparison struct {
	MinRevenue  float64 `json:"minRevenue" yaml:"minRevenue"`
	MaxRevenue  float64 `json:"maxRevenue" yaml:"maxRevenue"`
	Description string  `json:"description" yaml:"description"`
	SourceText  string  `json:"sourceText" yaml:"sourceText"`
	SourceURL   string  `json:"sourceUrl" yaml:"sourceUrl"`
}

// Contains reports whether revenue falls inside the record's range, both bounds inclusive.
func (c Comparison) Contains(revenue float64) bool {
	return revenue >= c.MinRevenue && revenue <= c.MaxRevenue
}

// Table is the ordered comparison dataset. It is read-only once loaded.
type Table []Comparison

// Document is the on-disk / on-wire shape of the comparison data source.
type Document struct {
	Comparisons Table `json:"comparisons" yaml:"comparisons"`
}
