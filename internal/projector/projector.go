package projector

import (
	"errors"
	"fmt"

	"SpendSmart/internal/model"
)

// ErrAssetMismatch is returned when a weighted asset has no realized return.
var ErrAssetMismatch = errors.New("allocation and returns do not cover the same assets")

// Plan describes a recurring contribution schedule.
type Plan struct {
	MonthlyInvestment float64
	GrowthRate        float64 // annual contribution growth in percent
	Years             int
}

// Project simulates the plan year by year under a fixed allocation.
//
// Each year the annual contribution grows by GrowthRate (starting from twelve
// monthly contributions, growth applied in year one), is split across assets by
// weight, is added to the carried balances, and the combined balances grow by
// the portfolio return Σ w_i·r_i.
func Project(plan Plan, weights model.Weights, returns map[string]float64) (*model.Projection, error) {
	if plan.Years < 0 {
		return nil, fmt.Errorf("negative horizon: %d years", plan.Years)
	}

	var portfolioReturn float64
	for _, aw := range weights {
		r, ok := returns[aw.Asset]
		if !ok {
			return nil, fmt.Errorf("%w: no return for %s", ErrAssetMismatch, aw.Asset)
		}
		portfolioReturn += aw.Weight * r
	}

	balances := make([]float64, len(weights))
	annual := 12 * plan.MonthlyInvestment
	for year := 1; year <= plan.Years; year++ {
		annual *= 1 + plan.GrowthRate/100
		for i, aw := range weights {
			balances[i] = (balances[i] + aw.Weight*annual) * (1 + portfolioReturn)
		}
	}

	out := &model.Projection{Balances: make(map[string]float64, len(weights))}
	for i, aw := range weights {
		out.Balances[aw.Asset] = balances[i]
		out.FutureValue += balances[i]
	}
	return out, nil
}
