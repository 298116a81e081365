package model

import "time"

// Goal is a financial target to reach within a number of years.
type Goal struct {
	Name   string  `json:"name,omitempty"`
	Target float64 `json:"target"`
	Years  int     `json:"years"`
}

// Projection is the goal projector output.
type Projection struct {
	Balances    map[string]float64 // ending balance per asset
	FutureValue float64
}

// ProjectionResult is the outcome for one goal.
type ProjectionResult struct {
	Goal                    Goal               `json:"goal"`
	Achieved                bool               `json:"achieved"`
	FutureValue             float64            `json:"future_value"`
	InflationAdjustedTarget float64            `json:"inflation_adjusted_target"`
	Balances                map[string]float64 `json:"balances,omitempty"`
}

// CalculationRequest is one batch of goals evaluated under a shared allocation.
type CalculationRequest struct {
	MonthlyInvestment float64 `json:"monthly_investment"`
	GrowthRate        float64 `json:"growth_rate"`
	RiskFreeRate      float64 `json:"risk_free_rate"`
	Goals             []Goal  `json:"goals"`
}

// CalculationResult is the computed record handed to the presentation layer.
type CalculationResult struct {
	OptimalWeights     map[string]float64 `json:"optimal_weights"`
	GoalsStatus        []ProjectionResult `json:"goals_status"`
	OptimizationStatus OptimizationStatus `json:"optimization_status"`
	InflationRate      float64            `json:"inflation_rate"`
	InflationFallback  bool               `json:"inflation_fallback"`
	CalculatedAt       time.Time          `json:"calculated_at"`

	// Weights keeps the ordered allocation for callers that need it.
	Weights Weights `json:"-"`
}
