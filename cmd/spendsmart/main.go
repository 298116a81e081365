package main

import (
	"os"
	"time"

	"SpendSmart/internal/cache"
	"SpendSmart/internal/calculator"
	"SpendSmart/internal/collector"
	"SpendSmart/internal/config"
	"SpendSmart/internal/engine"
	"SpendSmart/internal/inflation"
	"SpendSmart/internal/metrics"
	"SpendSmart/internal/optimizer"
	"SpendSmart/internal/recorder"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const version = "v0.3.0"

func main() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	rootCmd := &cobra.Command{
		Use:           "spendsmart",
		Short:         "SpendSmart - goal projection under an optimized portfolio",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newCalculateCmd(), newServeCmd(), newHistoryCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// loadConfig reads CONFIG_PATH (default configs/config.yaml) and sets up logging.
func loadConfig() (*config.Config, error) {
	cfgPath := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		cfgPath = v
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.Log.JSON {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
	return cfg, nil
}

// app holds the wired providers shared by the commands.
type app struct {
	cfg       *config.Config
	prices    *collector.Collector
	inflation calculator.InflationProvider
	recorder  recorder.Recorder
	metrics   *metrics.Metrics
	engine    *engine.Engine
}

func newApp(cfg *config.Config, offline bool, m *metrics.Metrics) (*app, error) {
	start, err := cfg.WindowStart()
	if err != nil {
		return nil, err
	}

	c := cache.New(cfg.Cache.RedisAddr)

	var fetcher collector.Fetcher
	var infl calculator.InflationProvider
	if offline {
		fetcher = &collector.MockFetcher{}
		infl = inflation.Static{Rate: calculator.DefaultInflationRate}
	} else {
		fetcher = collector.NewYahooFetcher(cfg.PriceSource.BaseURL, cfg.Proxy, cfg.PriceSource.Timeout, cfg.PriceSource.RequestsPerSecond)
		fred := inflation.NewFREDFetcher(cfg.Inflation.BaseURL, cfg.Inflation.SeriesID, cfg.Proxy, cfg.Inflation.Timeout)
		fred.Cache = c
		fred.TTL = cfg.Cache.TTL
		fred.Metrics = m
		infl = fred
	}
	log.Info().Str("source", fetcher.Name()).Msg("price source selected")

	var rec recorder.Recorder
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath)
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
			rec = recorder.NewNoopRecorder()
		} else {
			rec = sr
		}
	} else {
		rec = recorder.NewNoopRecorder()
	}

	prices := collector.NewCollector(fetcher, c, cfg.Cache.TTL, m)
	eng := engine.New(engine.Config{
		Universe:    cfg.Symbols(),
		WindowStart: start,
		Optimizer: optimizer.Options{
			MaxIterations:  cfg.Optimizer.MaxIterations,
			MaxEvaluations: cfg.Optimizer.MaxEvaluations,
		},
	}, prices, infl)
	eng.Recorder = rec
	eng.Metrics = m

	return &app{cfg: cfg, prices: prices, inflation: infl, recorder: rec, metrics: m, engine: eng}, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Warn().Err(err).Msg("close recorder")
	}
}
