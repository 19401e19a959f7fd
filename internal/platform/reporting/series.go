// Package reporting implements the KPI aggregation engine: read-only
// queries over persons and tests shaped into chart-ready series.
package reporting

import "math"

// Series is a single-dataset chart payload.
type Series struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
}

// Dataset is one labeled line/bar in a MultiSeries.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// MultiSeries is a multi-dataset chart payload sharing one label axis.
type MultiSeries struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// NamedValue is a single labeled scalar, used for top/bottom rankings.
type NamedValue struct {
	Label string  `json:"label"`
	Value float64 `json:"y"`
}

func emptySeries() *Series {
	return &Series{Labels: []string{}, Data: []float64{}}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
