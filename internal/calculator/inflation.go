package calculator

import (
	"context"
	"math"
)

// DefaultInflationRate is the annual rate in percent used when no provider answers.
const DefaultInflationRate = 5.0

// InflationProvider returns the latest annual inflation rate in percent.
type InflationProvider interface {
	InflationRate(ctx context.Context) (float64, error)
}

// AdjustForInflation scales a nominal target by compounded inflation over years.
func AdjustForInflation(target, ratePct float64, years int) float64 {
	return target * math.Pow(1+ratePct/100, float64(years))
}

// ResolveInflationRate asks the provider for a rate and falls back to
// DefaultInflationRate when it fails or returns a non-finite value.
// The returned error is the provider failure, reported for logging only.
func ResolveInflationRate(ctx context.Context, p InflationProvider) (rate float64, fellBack bool, err error) {
	if p == nil {
		return DefaultInflationRate, true, nil
	}
	rate, err = p.InflationRate(ctx)
	if err != nil || math.IsNaN(rate) || math.IsInf(rate, 0) {
		return DefaultInflationRate, true, err
	}
	return rate, false, nil
}
