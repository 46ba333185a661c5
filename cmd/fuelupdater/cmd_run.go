package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/rodacerto/fuel-price-updater/internal/http"
	"github.com/rodacerto/fuel-price-updater/internal/metrics"
	"github.com/rodacerto/fuel-price-updater/internal/scheduler"
	"github.com/rodacerto/fuel-price-updater/internal/updater"
)

func runCmd() *cobra.Command {
	var runOnStart bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the continuous updater service",
		Long:  "Starts the fuel price updater with an internal scheduler that runs daily at the specified hour.",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogger()

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger.Info().
				Str("version", Version).
				Str("commit", Commit).
				Str("buildDate", BuildDate).
				Str("httpAddr", cfg.HTTPAddr).
				Int("updateHour", cfg.UpdateHour).
				Str("collector", cfg.Collector).
				Str("store", cfg.Store).
				Msg("starting fuel price updater")

			c, err := buildCollector(cfg, logger)
			if err != nil {
				return err
			}

			s, closer, err := buildStore(cfg, logger)
			if err != nil {
				return err
			}
			defer closer.Close()

			// Wire Prometheus metrics to the updater
			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			u := updater.New(c, s, logger)
			u.SetPrometheusMetrics(metrics.New(reg))

			sched := scheduler.New(u, cfg.UpdateHour, runOnStart, logger)
			// SQL destinations report their connection on /health
			var pinger http.Pinger
			if p, ok := s.(http.Pinger); ok {
				pinger = p
			}
			httpServer := http.NewServer(cfg.HTTPAddr, u, sched, reg, pinger, logger)

			// Setup signal handling
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

			// Start HTTP server in goroutine
			go func() {
				if err := httpServer.Start(); err != nil {
					logger.Error().Err(err).Msg("HTTP server error")
					cancel()
				}
			}()

			// Start scheduler in goroutine
			go func() {
				if err := sched.Start(ctx); err != nil && err != context.Canceled {
					logger.Error().Err(err).Msg("scheduler error")
					cancel()
				}
			}()

			// Wait for signal
			select {
			case sig := <-sigCh:
				logger.Info().Str("signal", sig.String()).Msg("received signal, shutting down")
			case <-ctx.Done():
			}
			cancel()

			// Graceful shutdown
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer shutdownCancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("HTTP server shutdown error")
			}

			logger.Info().Msg("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP server address for /metrics, /status")
	cmd.Flags().IntVar(&cfg.UpdateHour, "update-hour", cfg.UpdateHour, "Hour of day (0-23) to update")
	cmd.Flags().BoolVar(&runOnStart, "run-on-start", true, "Run an update immediately on start")

	return cmd
}
