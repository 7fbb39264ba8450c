// Package data embeds the default comparison dataset shipped with wealthtax.
package data

import _ "embed"

// Comparisons is the built-in comparisons.json document.
//
//go:embed comparisons.json
var Comparisons []byte

// ComparisonsName is the file name the dataset is published under.
const ComparisonsName = "comparisons.json"
