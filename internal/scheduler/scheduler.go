package scheduler

import (
	"context"
	"fmt"
	"time"

	"SpendSmart/internal/calculator"
	"SpendSmart/internal/engine"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Scheduler manages the cache warm-up cron task.
type Scheduler struct {
	Cron      *cron.Cron
	Prices    engine.PriceProvider
	Inflation calculator.InflationProvider
	Universe  []string
	Start     time.Time
	Ctx       context.Context

	now func() time.Time
}

// NewScheduler creates a new Scheduler that warms prices for universe from start.
func NewScheduler(ctx context.Context, prices engine.PriceProvider, infl calculator.InflationProvider, universe []string, start time.Time) *Scheduler {
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds()),
		Prices:    prices,
		Inflation: infl,
		Universe:  universe,
		Start:     start,
		Ctx:       ctx,
		now:       time.Now,
	}
}

// RegisterWarm registers the warm-up task on warmCron.
func (s *Scheduler) RegisterWarm(warmCron string) error {
	if _, err := s.Cron.AddFunc(warmCron, s.warmTask); err != nil {
		return fmt.Errorf("register warm task: %w", err)
	}
	return nil
}

// Run starts the cron scheduler.
func (s *Scheduler) Run() {
	s.Cron.Start()
	log.Info().Int("entries", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running task to finish.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	log.Info().Msg("scheduler stopped")
}

// RunWarmNow executes the warm-up immediately (for RUN_ON_START).
func (s *Scheduler) RunWarmNow() error {
	return s.Warm(s.Ctx)
}

// Warm fetches the price history of the universe and the inflation rate so
// that later calculations are served from cache.
func (s *Scheduler) Warm(ctx context.Context) error {
	table, err := s.Prices.GetPriceHistory(ctx, s.Universe, s.Start, s.now())
	if err != nil {
		return fmt.Errorf("warm prices: %w", err)
	}
	if table.Rows() == 0 {
		return fmt.Errorf("warm prices: %w", calculator.ErrDataUnavailable)
	}
	log.Info().Int("assets", len(table.Assets)).Int("rows", table.Rows()).Msg("price cache warmed")

	if s.Inflation == nil {
		return nil
	}
	rate, err := s.Inflation.InflationRate(ctx)
	if err != nil {
		return fmt.Errorf("warm inflation: %w", err)
	}
	log.Info().Float64("rate", rate).Msg("inflation cache warmed")
	return nil
}

func (s *Scheduler) warmTask() {
	log.Info().Msg("running cache warm-up")
	if err := s.Warm(s.Ctx); err != nil {
		log.Error().Err(err).Msg("cache warm-up")
	}
}
