package optimizer

import (
	"testing"

	"SpendSmart/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAssetModel() *model.ReturnsModel {
	return &model.ReturnsModel{
		Assets:          []string{"EQ", "BOND"},
		ExpectedReturns: map[string]float64{"EQ": 0.08, "BOND": 0.05},
		Covariance: [][]float64{
			{0.04, 0},
			{0, 0.01},
		},
	}
}

func assertSimplex(t *testing.T, w model.Weights, n int) {
	t.Helper()
	require.Len(t, w, n)
	for _, aw := range w {
		assert.GreaterOrEqual(t, aw.Weight, 0.0, aw.Asset)
		assert.LessOrEqual(t, aw.Weight, 1.0, aw.Asset)
	}
	assert.InDelta(t, 1.0, w.Sum(), 1e-6)
}

func TestOptimize_TwoAssetScenario(t *testing.T) {
	alloc, err := New(DefaultOptions()).Optimize(twoAssetModel(), 0.02)
	require.NoError(t, err)
	require.Equal(t, model.StatusConverged, alloc.Status, alloc.Reason)
	assertSimplex(t, alloc.Weights, 2)

	eq, ok := alloc.Weights.Of("EQ")
	require.True(t, ok)
	bond, ok := alloc.Weights.Of("BOND")
	require.True(t, ok)

	// The lower-variance asset is favoured but the penalty keeps both invested.
	assert.Greater(t, bond, eq)
	assert.Less(t, bond, 1.0)
	assert.Greater(t, eq, 0.0)
	assert.InDelta(t, 0.454, eq, 0.01)
	assert.InDelta(t, 0.546, bond, 0.01)
	assert.Greater(t, alloc.Sharpe, 0.0)
}

func TestOptimize_ImprovesOnEqualWeights(t *testing.T) {
	m := twoAssetModel()
	alloc, err := New(Options{}).Optimize(m, 0.02)
	require.NoError(t, err)

	w := []float64{alloc.Weights[0].Weight, alloc.Weights[1].Weight}
	got, err := Objective(m, 0.02, w)
	require.NoError(t, err)
	equal, err := Objective(m, 0.02, []float64{0.5, 0.5})
	require.NoError(t, err)
	assert.LessOrEqual(t, got, equal)
}

func TestOptimize_FourAssetsOnSimplex(t *testing.T) {
	m := &model.ReturnsModel{
		Assets: []string{"^NSEI", "^BSESN", "GLD", "FUND"},
		ExpectedReturns: map[string]float64{
			"^NSEI": 0.12, "^BSESN": 0.11, "GLD": 0.07, "FUND": 0.09,
		},
		Covariance: [][]float64{
			{0.040, 0.036, 0.002, 0.010},
			{0.036, 0.038, 0.002, 0.009},
			{0.002, 0.002, 0.025, 0.001},
			{0.010, 0.009, 0.001, 0.020},
		},
	}
	for _, rf := range []float64{0, 0.02, 0.06, 0.2} {
		alloc, err := New(DefaultOptions()).Optimize(m, rf)
		require.NoError(t, err)
		assert.Equal(t, model.StatusConverged, alloc.Status, "rf=%v: %s", rf, alloc.Reason)
		assertSimplex(t, alloc.Weights, 4)
	}
	alloc, err := New(DefaultOptions()).Optimize(m, 0.06)
	require.NoError(t, err)
	for i, aw := range alloc.Weights {
		assert.Equal(t, m.Assets[i], aw.Asset)
	}
}

func TestOptimize_SingularCovarianceFallsBack(t *testing.T) {
	m := &model.ReturnsModel{
		Assets:          []string{"A", "B", "C"},
		ExpectedReturns: map[string]float64{"A": 0.05, "B": 0.06, "C": 0.07},
		Covariance: [][]float64{
			{0, 0, 0},
			{0, 0, 0},
			{0, 0, 0},
		},
	}
	alloc, err := New(DefaultOptions()).Optimize(m, 0.02)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFallbackApplied, alloc.Status)
	assert.NotEmpty(t, alloc.Reason)
	assert.Equal(t, model.EqualWeights(m.Assets), alloc.Weights)
	assert.Zero(t, alloc.Sharpe)
}

func TestOptimize_IterationLimitFallsBack(t *testing.T) {
	m := twoAssetModel()
	alloc, err := New(Options{MaxIterations: 1}).Optimize(m, 0.02)
	require.NoError(t, err)
	assert.Equal(t, model.StatusFallbackApplied, alloc.Status)
	for _, aw := range alloc.Weights {
		assert.Equal(t, 0.5, aw.Weight)
	}
}

func TestOptimize_SingleAsset(t *testing.T) {
	m := &model.ReturnsModel{
		Assets:          []string{"GLD"},
		ExpectedReturns: map[string]float64{"GLD": 0.07},
		Covariance:      [][]float64{{0.02}},
	}
	alloc, err := New(DefaultOptions()).Optimize(m, 0.02)
	require.NoError(t, err)
	assert.Equal(t, model.StatusConverged, alloc.Status)
	assert.Equal(t, model.Weights{{Asset: "GLD", Weight: 1}}, alloc.Weights)
}

func TestOptimize_InvalidModel(t *testing.T) {
	_, err := New(DefaultOptions()).Optimize(&model.ReturnsModel{}, 0.02)
	assert.ErrorIs(t, err, ErrInvalidModel)

	bad := twoAssetModel()
	bad.Covariance = [][]float64{{0.04}}
	_, err = New(DefaultOptions()).Optimize(bad, 0.02)
	assert.ErrorIs(t, err, ErrInvalidModel)

	missing := twoAssetModel()
	delete(missing.ExpectedReturns, "BOND")
	_, err = New(DefaultOptions()).Optimize(missing, 0.02)
	assert.ErrorIs(t, err, ErrInvalidModel)
}

func TestObjective_ZeroRiskIsPenalized(t *testing.T) {
	m := &model.ReturnsModel{
		Assets:          []string{"A", "CASH"},
		ExpectedReturns: map[string]float64{"A": 0.08, "CASH": 0.02},
		Covariance: [][]float64{
			{0.04, 0},
			{0, 0},
		},
	}
	v, err := Objective(m, 0.02, []float64{0, 1})
	require.NoError(t, err)
	assert.Equal(t, undefinedPenalty, v)

	v, err = Objective(m, 0.02, []float64{1, 0})
	require.NoError(t, err)
	assert.InDelta(t, -0.3+1, v, 1e-12)

	_, err = Objective(m, 0.02, []float64{1})
	assert.ErrorIs(t, err, ErrInvalidModel)
}
