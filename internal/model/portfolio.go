package model

// ReturnsModel holds annualized return statistics for a set of assets.
// Covariance rows and columns follow the order of Assets.
type ReturnsModel struct {
	Assets          []string
	ExpectedReturns map[string]float64
	Covariance      [][]float64
}

// Len returns the number of assets in the model.
func (m *ReturnsModel) Len() int { return len(m.Assets) }

// ExpectedVector returns the expected returns ordered like Assets.
func (m *ReturnsModel) ExpectedVector() []float64 {
	mu := make([]float64, len(m.Assets))
	for i, a := range m.Assets {
		mu[i] = m.ExpectedReturns[a]
	}
	return mu
}

// AssetWeight pairs an asset with its allocation.
type AssetWeight struct {
	Asset  string
	Weight float64
}

// Weights is an ordered allocation across assets. Weights are non-negative
// and sum to 1.
type Weights []AssetWeight

// EqualWeights allocates 1/N to each asset.
func EqualWeights(assets []string) Weights {
	w := make(Weights, len(assets))
	for i, a := range assets {
		w[i] = AssetWeight{Asset: a, Weight: 1 / float64(len(assets))}
	}
	return w
}

// Sum returns the total allocation.
func (w Weights) Sum() float64 {
	var s float64
	for _, aw := range w {
		s += aw.Weight
	}
	return s
}

// Of returns the weight of an asset and whether it is allocated at all.
func (w Weights) Of(asset string) (float64, bool) {
	for _, aw := range w {
		if aw.Asset == asset {
			return aw.Weight, true
		}
	}
	return 0, false
}

// Map returns the allocation as an asset -> weight map for display.
func (w Weights) Map() map[string]float64 {
	m := make(map[string]float64, len(w))
	for _, aw := range w {
		m[aw.Asset] = aw.Weight
	}
	return m
}

// OptimizationStatus records how the optimizer produced its weights.
type OptimizationStatus string

const (
	StatusConverged       OptimizationStatus = "converged"
	StatusFallbackApplied OptimizationStatus = "fallback_applied"
)

// Allocation is the optimizer output.
type Allocation struct {
	Weights Weights
	Status  OptimizationStatus
	Sharpe  float64 // Sharpe ratio of Weights, 0 when undefined
	Reason  string  // why the fallback was applied, empty when converged
}
