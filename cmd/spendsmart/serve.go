package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SpendSmart/internal/metrics"
	"SpendSmart/internal/scheduler"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve calculations and metrics, warming caches on a schedule",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a, err := newApp(cfg, false, metrics.New(reg))
	if err != nil {
		return err
	}
	defer a.Close()

	// Context for graceful shutdown
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	start, _ := cfg.WindowStart()
	sched := scheduler.NewScheduler(ctx, a.prices, a.inflation, cfg.Symbols(), start)
	if err := sched.RegisterWarm(cfg.Schedule.WarmCron); err != nil {
		return err
	}
	sched.Run()
	defer sched.Stop()

	if os.Getenv("RUN_ON_START") == "true" {
		log.Info().Msg("RUN_ON_START enabled, warming caches now")
		go func() {
			if err := sched.RunWarmNow(); err != nil {
				log.Error().Err(err).Msg("cache warm-up")
			}
		}()
	}

	srv := &http.Server{
		Addr:              cfg.Metrics.Addr,
		Handler:           newMux(a.engine.Calculate, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server")
			cancel()
		}
	}()
	log.Info().Str("addr", cfg.Metrics.Addr).Msg("SpendSmart is running. Press Ctrl+C to stop.")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigCh:
		log.Info().Msg("shutdown signal received, stopping...")
	case <-ctx.Done():
	}

	shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("metrics server shutdown")
	}
	cancel()
	log.Info().Msg("SpendSmart stopped")
	return nil
}
