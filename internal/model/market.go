package model

import (
	"math"
	"time"
)

// PricePoint is a single closing price observation.
type PricePoint struct {
	Time  time.Time
	Close float64
}

// PriceSeries holds the closing prices fetched for one asset.
type PriceSeries struct {
	Symbol string
	Points []PricePoint
}

// PriceTable is a date-aligned table of closing prices.
// Rows are trading dates in strictly increasing order, columns are assets.
// A missing observation is stored as NaN and treated as a gap.
type PriceTable struct {
	Dates  []time.Time
	Assets []string
	Closes map[string][]float64 // asset -> one value per date
}

// NewPriceTable returns an empty table for the given dates and assets,
// with every cell marked as missing.
func NewPriceTable(dates []time.Time, assets []string) *PriceTable {
	t := &PriceTable{
		Dates:  dates,
		Assets: assets,
		Closes: make(map[string][]float64, len(assets)),
	}
	for _, a := range assets {
		col := make([]float64, len(dates))
		for i := range col {
			col[i] = math.NaN()
		}
		t.Closes[a] = col
	}
	return t
}

// Rows returns the number of dates in the table.
func (t *PriceTable) Rows() int {
	if t == nil {
		return 0
	}
	return len(t.Dates)
}

// Column returns the closes of one asset, or nil if the asset is not in the table.
func (t *PriceTable) Column(asset string) []float64 {
	if t == nil {
		return nil
	}
	return t.Closes[asset]
}

// IsGap reports whether a cell holds no usable price.
func IsGap(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0) || v <= 0
}
