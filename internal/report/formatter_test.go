package report

import (
	"strings"
	"testing"
	"time"

	"SpendSmart/internal/model"
	"SpendSmart/internal/recorder"

	"github.com/stretchr/testify/assert"
)

func sampleResult() *model.CalculationResult {
	return &model.CalculationResult{
		OptimalWeights:     map[string]float64{"GLD": 0.25, "^NSEI": 0.75},
		OptimizationStatus: model.StatusConverged,
		InflationRate:      5,
		InflationFallback:  true,
		CalculatedAt:       time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC),
		GoalsStatus: []model.ProjectionResult{
			{Goal: model.Goal{Name: "car", Target: 20000, Years: 2}, Achieved: true,
				FutureValue: 27000, InflationAdjustedTarget: 22050},
			{Goal: model.Goal{Target: 100000, Years: 3}, FutureValue: 40000, InflationAdjustedTarget: 115762.5},
		},
	}
}

func TestFormatResult(t *testing.T) {
	out := FormatResult(sampleResult())

	assert.Contains(t, out, "2024-01-01 09:30")
	assert.Contains(t, out, "Allocation (converged)")
	assert.Contains(t, out, "(default, provider unavailable)")
	assert.Contains(t, out, "✅ car: 20000 in 2y → 22050 after inflation, projected 27000 (+4950)")
	assert.Contains(t, out, "❌ goal: 100000 in 3y")
	assert.Less(t, strings.Index(out, "^NSEI"), strings.Index(out, "GLD"), "largest weight first")
}

func TestFormatResult_UsesOrderedWeights(t *testing.T) {
	res := sampleResult()
	res.InflationFallback = false
	res.Weights = model.Weights{{Asset: "GLD", Weight: 0.5}, {Asset: "BOND", Weight: 0.5}}

	out := FormatResult(res)
	assert.NotContains(t, out, "provider unavailable")
	assert.Less(t, strings.Index(out, "BOND"), strings.Index(out, "GLD"), "ties ordered by name")
}

func TestFormatHistory(t *testing.T) {
	assert.Equal(t, "No calculations recorded.\n", FormatHistory(nil))

	out := FormatHistory([]recorder.CalculationSummary{{
		RunID:              "0123456789abcdef",
		Timestamp:          time.Date(2024, 1, 1, 0, 0, 0, 0, time.Local),
		MonthlyInvestment:  1000,
		GrowthRate:         5,
		OptimizationStatus: model.StatusFallbackApplied,
		Goals:              []model.ProjectionResult{{Achieved: true}, {}},
	}})
	assert.Contains(t, out, "01234567 ")
	assert.NotContains(t, out, "89abcdef")
	assert.Contains(t, out, "fallback_applied")
	assert.Contains(t, out, "goals 1/2")
}
