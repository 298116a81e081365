package recorder

import (
	"time"

	"SpendSmart/internal/model"
)

// CalculationRecord holds one projection batch with its inputs and outcome.
type CalculationRecord struct {
	RunID    string
	Request  model.CalculationRequest
	Result   *model.CalculationResult
	Universe []string
}

// CalculationSummary is a stored batch as read back from the database.
type CalculationSummary struct {
	RunID              string
	Timestamp          time.Time
	MonthlyInvestment  float64
	GrowthRate         float64
	RiskFreeRate       float64
	OptimizationStatus model.OptimizationStatus
	InflationRate      float64
	InflationFallback  bool
	Weights            map[string]float64
	Goals              []model.ProjectionResult
}

// Recorder persists calculation history for analysis.
type Recorder interface {
	RecordCalculation(rec *CalculationRecord) error
	Close() error
}
