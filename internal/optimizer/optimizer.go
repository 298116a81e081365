// Package optimizer computes risk-adjusted portfolio allocations.
//
// The objective is a penalized Sharpe ratio:
//
//	minimize  -(w·μ - r_f) / sqrt(wᵀΣw) + Σ w_i²
//	subject to Σ w_i = 1, 0 ≤ w_i ≤ 1
//
// The simplex constraints hold by construction: the solver searches an
// unconstrained vector z and weights are w_i = z_i² / Σ z_j².
package optimizer

import (
	"errors"
	"fmt"
	"math"

	"SpendSmart/internal/model"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// minVariance is the portfolio variance below which the Sharpe ratio is undefined.
	minVariance = 1e-12
	// undefinedPenalty replaces the objective where the Sharpe ratio is undefined.
	undefinedPenalty = 1e6
	// sumTolerance bounds the deviation of Σ w_i from 1.
	sumTolerance = 1e-6
)

// ErrInvalidModel is returned for a returns model the optimizer cannot read.
var ErrInvalidModel = errors.New("invalid returns model")

// Options bounds the solver.
type Options struct {
	MaxIterations  int // major iterations, 0 means the default
	MaxEvaluations int // objective evaluations, 0 means the default
}

// DefaultOptions returns the solver bounds used in production.
func DefaultOptions() Options {
	return Options{MaxIterations: 500, MaxEvaluations: 20000}
}

// Optimizer solves for penalized-Sharpe weights.
type Optimizer struct {
	opts Options
}

// New creates an Optimizer. Zero fields in opts take their default.
func New(opts Options) *Optimizer {
	def := DefaultOptions()
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	if opts.MaxEvaluations <= 0 {
		opts.MaxEvaluations = def.MaxEvaluations
	}
	return &Optimizer{opts: opts}
}

// Optimize returns the allocation for m at the given risk-free rate.
// A solve that does not converge yields equal weights with StatusFallbackApplied.
// Only a malformed model is reported as an error.
func (o *Optimizer) Optimize(m *model.ReturnsModel, riskFree float64) (model.Allocation, error) {
	p, err := newProblem(m, riskFree)
	if err != nil {
		return model.Allocation{}, err
	}
	n := len(p.assets)
	if n == 1 {
		w := model.Weights{{Asset: p.assets[0], Weight: 1}}
		sharpe, _ := p.sharpe([]float64{1})
		return model.Allocation{Weights: w, Status: model.StatusConverged, Sharpe: sharpe}, nil
	}

	z0 := make([]float64, n)
	for i := range z0 {
		z0[i] = 1 / math.Sqrt(float64(n))
	}

	prob := optimize.Problem{
		Func: p.objectiveZ,
		Grad: func(grad, z []float64) {
			fd.Gradient(grad, p.objectiveZ, z, &fd.Settings{Formula: fd.Central})
		},
	}
	settings := &optimize.Settings{
		MajorIterations:   o.opts.MaxIterations,
		FuncEvaluations:   o.opts.MaxEvaluations,
		GradientThreshold: 1e-9,
	}

	result, err := optimize.Minimize(prob, z0, settings, &optimize.BFGS{})
	if err != nil {
		return p.fallback(fmt.Sprintf("solver error: %v", err)), nil
	}
	if result == nil || !converged(result.Status) {
		status := optimize.NotTerminated
		if result != nil {
			status = result.Status
		}
		return p.fallback(fmt.Sprintf("solver stopped with status %v", status)), nil
	}

	w := make([]float64, n)
	if !toWeights(w, result.X) {
		return p.fallback("solver returned a degenerate point"), nil
	}
	sharpe, ok := p.sharpe(w)
	if !ok {
		return p.fallback("portfolio risk is zero at the solution"), nil
	}
	if math.Abs(floats.Sum(w)-1) > sumTolerance {
		return p.fallback("weights do not sum to one"), nil
	}

	weights := make(model.Weights, n)
	for i, a := range p.assets {
		weights[i] = model.AssetWeight{Asset: a, Weight: w[i]}
	}
	return model.Allocation{Weights: weights, Status: model.StatusConverged, Sharpe: sharpe}, nil
}

// Objective evaluates the penalized objective at w, ordered like m.Assets.
// Points with undefined Sharpe ratio evaluate to a large finite penalty.
func Objective(m *model.ReturnsModel, riskFree float64, w []float64) (float64, error) {
	p, err := newProblem(m, riskFree)
	if err != nil {
		return 0, err
	}
	if len(w) != len(p.assets) {
		return 0, fmt.Errorf("%w: %d weights for %d assets", ErrInvalidModel, len(w), len(p.assets))
	}
	return p.objective(w), nil
}

func converged(s optimize.Status) bool {
	switch s {
	case optimize.Success, optimize.FunctionConvergence, optimize.GradientThreshold,
		optimize.StepConvergence, optimize.MethodConverge:
		return true
	}
	return false
}

type problem struct {
	assets   []string
	mu       []float64
	sigma    *mat.SymDense
	riskFree float64
}

func newProblem(m *model.ReturnsModel, riskFree float64) (*problem, error) {
	if m == nil || m.Len() == 0 {
		return nil, fmt.Errorf("%w: no assets", ErrInvalidModel)
	}
	n := m.Len()
	if len(m.Covariance) != n {
		return nil, fmt.Errorf("%w: covariance has %d rows for %d assets", ErrInvalidModel, len(m.Covariance), n)
	}
	sigma := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		if len(m.Covariance[i]) != n {
			return nil, fmt.Errorf("%w: covariance row %d has %d columns", ErrInvalidModel, i, len(m.Covariance[i]))
		}
		for j := i; j < n; j++ {
			sigma.SetSym(i, j, m.Covariance[i][j])
		}
	}
	mu := m.ExpectedVector()
	for i, a := range m.Assets {
		if _, ok := m.ExpectedReturns[a]; !ok {
			return nil, fmt.Errorf("%w: missing expected return for %s", ErrInvalidModel, a)
		}
		if math.IsNaN(mu[i]) || math.IsInf(mu[i], 0) {
			return nil, fmt.Errorf("%w: expected return for %s is not finite", ErrInvalidModel, a)
		}
	}
	return &problem{assets: m.Assets, mu: mu, sigma: sigma, riskFree: riskFree}, nil
}

// sharpe returns the Sharpe ratio at w and false when it is undefined.
func (p *problem) sharpe(w []float64) (float64, bool) {
	v := mat.NewVecDense(len(w), w)
	variance := mat.Inner(v, p.sigma, v)
	if math.IsNaN(variance) || math.IsInf(variance, 0) || variance <= minVariance {
		return 0, false
	}
	s := (floats.Dot(w, p.mu) - p.riskFree) / math.Sqrt(variance)
	if math.IsNaN(s) || math.IsInf(s, 0) {
		return 0, false
	}
	return s, true
}

func (p *problem) objective(w []float64) float64 {
	s, ok := p.sharpe(w)
	if !ok {
		return undefinedPenalty
	}
	return -s + floats.Dot(w, w)
}

func (p *problem) objectiveZ(z []float64) float64 {
	w := make([]float64, len(z))
	if !toWeights(w, z) {
		return undefinedPenalty
	}
	return p.objective(w)
}

func (p *problem) fallback(reason string) model.Allocation {
	w := model.EqualWeights(p.assets)
	raw := make([]float64, len(w))
	for i := range w {
		raw[i] = w[i].Weight
	}
	sharpe, _ := p.sharpe(raw)
	return model.Allocation{Weights: w, Status: model.StatusFallbackApplied, Sharpe: sharpe, Reason: reason}
}

// toWeights maps z onto the simplex. It reports false when z is all zeros or not finite.
func toWeights(dst, z []float64) bool {
	var total float64
	for _, v := range z {
		total += v * v
	}
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return false
	}
	for i, v := range z {
		dst[i] = v * v / total
	}
	return true
}
