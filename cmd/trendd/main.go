// Command trendd implements the hostpulse trend and anomaly monitor.
//
// trendd runs a continuous collection loop that:
//  1. Captures a metric snapshot of the host (disk, memory, load, docker)
//  2. Appends it to the snapshot store
//  3. Loads the analysis window and summarizes per-metric trends
//  4. Classifies warnings and anomalies against the configured thresholds
//  5. Publishes the report via HTTP API at /report
//
// trendd serves an HTTP API on port 8082 (configurable) providing:
//   - GET /report - Latest trend report (?format=text for plain text)
//   - GET /healthz - Health check endpoint
//   - GET /readyz - Readiness check (store reachability)
//   - GET /metrics - Prometheus metrics endpoint
//
// Usage:
//
//	trendd \
//	  -data-dir=/var/lib/hostpulse \
//	  -window=24h \
//	  -interval=60s \
//	  -disk-warn-high=85
//
// One-shot mode runs a single pipeline pass and prints the report:
//
//	trendd -once -format=text
//
// Environment variables:
//
//	LISTEN           - HTTP listen address (default: :8082)
//	STORE            - Store backend: fs, memory, or redis (default: fs)
//	DATA_DIR         - Snapshot directory for the fs store (default: /tmp/hostpulse)
//	REDIS_ADDR       - Redis server address
//	HOST             - Host identifier keying the series (default: hostname)
//	WINDOW           - Analysis window (default: 24h)
//	INTERVAL         - Collection interval (default: 60s)
//	FORMAT           - Report format: text or json (default: text)
//	LOG_LEVEL        - Logging level: debug, info, warn, error (default: info)
//	LOG_FORMAT       - Logging format: text, json (default: text)
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HatiCode/hostpulse/cmd/trendd/config"
	"github.com/HatiCode/hostpulse/cmd/trendd/logger"
	"github.com/HatiCode/hostpulse/cmd/trendd/metrics"
	"github.com/HatiCode/hostpulse/cmd/trendd/router"
	"github.com/HatiCode/hostpulse/pkg/collect"
	"github.com/HatiCode/hostpulse/pkg/httpx"
	"github.com/HatiCode/hostpulse/pkg/policy"
	"github.com/HatiCode/hostpulse/pkg/report"
	"github.com/HatiCode/hostpulse/pkg/store"
)

// version is set via ldflags at build time
var version = "dev"

func main() {
	cfg := config.ParseFlags()

	logger := logger.New(cfg)
	slog.SetDefault(logger)

	logger.Info("starting hostpulse trendd",
		"version", version,
		"host", cfg.Host,
		"store", cfg.Store,
	)

	st, err := newStore(cfg)
	if err != nil {
		logger.Error("failed to create store", "error", err)
		os.Exit(1)
	}
	if closer, ok := st.(interface{ Close() error }); ok {
		defer func() {
			if err := closer.Close(); err != nil {
				logger.Error("failed to close store", "error", err)
			}
		}()
	}

	provider, err := newProvider(cfg)
	if err != nil {
		logger.Error("failed to create provider", "error", err)
		os.Exit(1)
	}

	pol := policy.Policy{
		DiskWarnMediumPercent:   cfg.DiskWarnMedium,
		DiskWarnHighPercent:     cfg.DiskWarnHigh,
		DiskGrowthWindowSamples: cfg.GrowthSamples,
		DiskGrowthRateThreshold: cfg.GrowthRate,
		LoadAvgWarnHigh:         cfg.LoadWarn,
		LoadSpikeMultiplier:     cfg.SpikeMultiplier,
	}

	if cfg.Once {
		if err := runOnce(cfg, provider, st, pol, logger); err != nil {
			logger.Error("one-shot run failed", "error", err)
			os.Exit(1)
		}
		return
	}

	mon := NewMonitor(cfg.Host, provider, st, pol, cfg.Window, logger, metrics.New(cfg.Host))
	if cfg.Output != "" {
		mon.SetSink(func(rep report.Report) {
			if err := writeReport(cfg.Output, cfg.Format, rep); err != nil {
				logger.Error("failed to write report file", "path", cfg.Output, "error", err)
			}
		})
	}

	staleAfter := 2 * cfg.Interval // Report is stale if older than 2x the interval
	handler := router.SetupRoutes(mon, readiness(st), staleAfter, logger)
	httpServer := httpx.NewServer(cfg.Listen, handler, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := mon.Run(ctx, cfg.Interval); err != nil && err != context.Canceled {
			logger.Error("collection loop failed", "error", err)
		}
	}()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- httpServer.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", "signal", sig)
	case err := <-serverErr:
		if err != nil {
			logger.Error("server failed", "error", err)
		}
	}

	logger.Info("shutting down")
	cancel()

	if err := httpServer.Stop(10 * time.Second); err != nil {
		logger.Error("server shutdown failed", "error", err)
		os.Exit(1)
	}

	logger.Info("shutdown complete")
}

// runOnce performs a single pipeline pass and writes the report to the
// configured output, or stdout when none is set.
func runOnce(cfg *config.Config, provider collect.Provider, st store.Store, pol policy.Policy, logger *slog.Logger) error {
	mon := NewMonitor(cfg.Host, provider, st, pol, cfg.Window, logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rep, err := mon.Tick(ctx)
	if err != nil {
		return err
	}

	if cfg.Output != "" {
		return writeReport(cfg.Output, cfg.Format, rep)
	}

	rendered, err := renderReport(cfg.Format, rep)
	if err != nil {
		return err
	}
	fmt.Print(rendered)
	return nil
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.Store {
	case "fs":
		return store.NewFSStore(cfg.DataDir)
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.Host, cfg.RedisTTL)
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

func newProvider(cfg *config.Config) (collect.Provider, error) {
	switch cfg.Provider {
	case "system":
		return collect.New("system", map[string]string{
			"mount":  cfg.Mount,
			"docker": cfg.Docker,
		})
	case "file":
		return collect.New("file", map[string]string{"path": cfg.File})
	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

// readiness builds the /readyz check. Stores with a Ping method (redis) are
// probed; the rest are ready once constructed.
func readiness(st store.Store) func() error {
	pinger, ok := st.(interface{ Ping(ctx context.Context) error })
	if !ok {
		return nil
	}
	return func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return pinger.Ping(ctx)
	}
}
