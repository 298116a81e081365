package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"SpendSmart/internal/calculator"
	"SpendSmart/internal/metrics"
	"SpendSmart/internal/model"
	"SpendSmart/internal/optimizer"
	"SpendSmart/internal/projector"
	"SpendSmart/internal/recorder"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrInvalidRequest is returned when a calculation request fails validation.
var ErrInvalidRequest = errors.New("invalid calculation request")

// PriceProvider returns aligned daily closes. Columns for tickers that could
// not be fetched may be missing from the table.
type PriceProvider interface {
	GetPriceHistory(ctx context.Context, tickers []string, start, end time.Time) (*model.PriceTable, error)
}

// Config is the immutable engine configuration.
type Config struct {
	Universe    []string
	WindowStart time.Time
	Optimizer   optimizer.Options
}

// Engine runs calculation batches. It is safe for concurrent use.
type Engine struct {
	cfg       Config
	prices    PriceProvider
	inflation calculator.InflationProvider
	optimizer *optimizer.Optimizer

	Recorder recorder.Recorder // optional
	Metrics  *metrics.Metrics  // optional
	Now      func() time.Time
}

// New creates an Engine over the given providers. inflation may be nil, in
// which case every batch uses the default inflation rate.
func New(cfg Config, prices PriceProvider, inflation calculator.InflationProvider) *Engine {
	return &Engine{
		cfg:       cfg,
		prices:    prices,
		inflation: inflation,
		optimizer: optimizer.New(cfg.Optimizer),
		Now:       time.Now,
	}
}

// Validate checks a request before any data is fetched.
func Validate(req model.CalculationRequest) error {
	if !(req.MonthlyInvestment > 0) || math.IsInf(req.MonthlyInvestment, 0) {
		return fmt.Errorf("%w: monthly_investment must be positive", ErrInvalidRequest)
	}
	if math.IsNaN(req.GrowthRate) || math.IsInf(req.GrowthRate, 0) {
		return fmt.Errorf("%w: growth_rate must be finite", ErrInvalidRequest)
	}
	if math.IsNaN(req.RiskFreeRate) || math.IsInf(req.RiskFreeRate, 0) {
		return fmt.Errorf("%w: risk_free_rate must be finite", ErrInvalidRequest)
	}
	if len(req.Goals) == 0 {
		return fmt.Errorf("%w: at least one goal is required", ErrInvalidRequest)
	}
	for i, g := range req.Goals {
		if !(g.Target > 0) || math.IsInf(g.Target, 0) {
			return fmt.Errorf("%w: goals[%d].target must be positive", ErrInvalidRequest, i)
		}
		if g.Years < 1 {
			return fmt.Errorf("%w: goals[%d].years must be at least 1", ErrInvalidRequest, i)
		}
	}
	return nil
}

// Calculate evaluates every goal of req under one optimized allocation.
func (e *Engine) Calculate(ctx context.Context, req model.CalculationRequest) (*model.CalculationResult, error) {
	started := time.Now()
	res, err := e.calculate(ctx, req)
	outcome := "ok"
	switch {
	case errors.Is(err, ErrInvalidRequest):
		outcome = "invalid"
	case errors.Is(err, calculator.ErrDataUnavailable):
		outcome = "data_unavailable"
	case err != nil:
		outcome = "error"
	}
	e.Metrics.ObserveCalculation(outcome, time.Since(started))
	return res, err
}

func (e *Engine) calculate(ctx context.Context, req model.CalculationRequest) (*model.CalculationResult, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}

	now := e.Now()
	log.Info().Strs("universe", e.cfg.Universe).Int("goals", len(req.Goals)).Msg("calculation started")

	table, err := e.prices.GetPriceHistory(ctx, e.cfg.Universe, e.cfg.WindowStart, now)
	if err != nil {
		return nil, fmt.Errorf("price history: %w", err)
	}

	returns, err := calculator.EstimateReturns(table)
	if err != nil {
		return nil, fmt.Errorf("estimate returns: %w", err)
	}

	alloc, err := e.optimizer.Optimize(returns, req.RiskFreeRate)
	if err != nil {
		return nil, fmt.Errorf("optimize: %w", err)
	}
	e.Metrics.ObserveOptimizer(string(alloc.Status))
	if alloc.Status == model.StatusFallbackApplied {
		log.Warn().Str("reason", alloc.Reason).Msg("optimizer did not converge, using equal weights")
	} else {
		log.Info().Float64("sharpe", alloc.Sharpe).Msg("optimizer converged")
	}

	realized, err := calculator.RealizedReturns(table)
	if err != nil {
		return nil, fmt.Errorf("realized returns: %w", err)
	}

	rate, fellBack, ierr := calculator.ResolveInflationRate(ctx, e.inflation)
	if fellBack {
		e.Metrics.InflationFallback()
		log.Warn().Err(ierr).Float64("rate", rate).Msg("inflation rate unavailable, using default")
	}

	statuses := make([]model.ProjectionResult, 0, len(req.Goals))
	for _, g := range req.Goals {
		proj, err := projector.Project(projector.Plan{
			MonthlyInvestment: req.MonthlyInvestment,
			GrowthRate:        req.GrowthRate,
			Years:             g.Years,
		}, alloc.Weights, realized)
		if err != nil {
			return nil, fmt.Errorf("project goal %q: %w", g.Name, err)
		}
		adjusted := calculator.AdjustForInflation(g.Target, rate, g.Years)
		statuses = append(statuses, model.ProjectionResult{
			Goal:                    g,
			Achieved:                proj.FutureValue >= adjusted,
			FutureValue:             proj.FutureValue,
			InflationAdjustedTarget: adjusted,
			Balances:                proj.Balances,
		})
	}

	result := &model.CalculationResult{
		OptimalWeights:     alloc.Weights.Map(),
		GoalsStatus:        statuses,
		OptimizationStatus: alloc.Status,
		InflationRate:      rate,
		InflationFallback:  fellBack,
		CalculatedAt:       now,
		Weights:            alloc.Weights,
	}
	e.record(req, result)
	return result, nil
}

func (e *Engine) record(req model.CalculationRequest, res *model.CalculationResult) {
	if e.Recorder == nil {
		return
	}
	rec := &recorder.CalculationRecord{
		RunID:    uuid.NewString(),
		Request:  req,
		Result:   res,
		Universe: e.cfg.Universe,
	}
	if err := e.Recorder.RecordCalculation(rec); err != nil {
		log.Error().Err(err).Str("run_id", rec.RunID).Msg("record calculation")
	}
}
