package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/platinummonkey/tally/pkg/api"
	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/backends"
	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/reports"
)

// version is set at build time
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if cfg.Observability.OTelServiceVersion == "dev" {
		cfg.Observability.OTelServiceVersion = version
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Server exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx := context.Background()

	providers, err := observability.InitOTel(ctx, cfg.Observability.OTel(), logger)
	if err != nil {
		return fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	set, err := backends.Open(ctx, cfg)
	if err != nil {
		observability.ShutdownOTel(ctx, providers, logger)
		return fmt.Errorf("failed to open backends: %w", err)
	}
	logger.WithFields(map[string]any{
		"audit_backend": cfg.Audit.Backend,
		"stats_backend": cfg.Stats.Backend,
	}).Info("Backends opened")

	readerConfig := audit.ReaderConfig{Concurrency: cfg.Audit.ReadConcurrency}
	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		registry := prometheus.NewRegistry()
		registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		metrics = observability.NewMetrics(registry)
		readerConfig.Observer = metrics
		if set.Cache != nil {
			metrics.RegisterCacheStats("stats", set.Cache.CacheStats)
		}
	}

	registry := reports.NewRegistry(reports.Sources{
		Audit:     audit.NewReader(set.Audit, readerConfig),
		Clients:   set.Stats,
		FileStore: set.Stats,
		Clock:     clock.Real{},
	}, observability.NewLogrusLogger(cfg.Observability.Level(), os.Stdout))
	if err := reports.RegisterDefaults(registry); err != nil {
		set.Close()
		return err
	}

	service := reports.NewService(registry, observability.NewLogrusLogger(cfg.Observability.Level(), os.Stdout))
	if metrics != nil {
		service = service.WithObserver(metrics)
	}

	opts := api.Options{
		Logger:  logger,
		Metrics: metrics,
		Health:  set.Health,
		Tracing: cfg.Observability.OTelEnabled,
	}
	cleanupCtx, stopCleanup := context.WithCancel(ctx)
	defer stopCleanup()
	if cfg.Server.RateLimit > 0 {
		opts.RateLimit = api.NewRateLimiter(api.RateLimitConfig{
			RequestsPerMinute: cfg.Server.RateLimit,
			Burst:             cfg.Server.RateLimitBurst,
		}, clock.Real{})
		opts.RateLimit.StartCleanup(cleanupCtx)
	}
	handler := api.NewServer(service, opts)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := observability.NewShutdownManager(logger, server, cfg.Server.ShutdownTimeout)
	shutdown.Register(func(ctx context.Context) error {
		return set.Close()
	})
	shutdown.Register(func(ctx context.Context) error {
		return observability.ShutdownOTel(ctx, providers, logger)
	})

	serverErr := make(chan error, 1)
	go func() {
		logger.Infof("Starting tally report server on %s with %d reports", server.Addr, registry.Count())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	shutdownErr := make(chan error, 1)
	go func() {
		shutdownErr <- shutdown.WaitForSignal()
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			shutdown.Shutdown(context.Background())
			return fmt.Errorf("server failed: %w", err)
		}
		return <-shutdownErr
	case err := <-shutdownErr:
		return err
	}
}
