package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/tally/pkg/backends"
	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/config"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/stats"
)

var (
	runOnce     = flag.Bool("run-once", false, "Run aggregation once and exit")
	schedule    = flag.String("schedule", "", "Cron schedule, overrides TALLY_AGGREGATOR_SCHEDULE")
	watch       = flag.Bool("watch", false, "Also aggregate when the inventory file changes")
	metricsAddr = flag.String("metrics-addr", "", "Serve Prometheus metrics on this address (e.g. :9091)")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *schedule != "" {
		cfg.Aggregator.Schedule = *schedule
	}

	logger := observability.NewLogger(cfg.Observability.Level(), os.Stdout)
	if err := run(cfg, logger); err != nil {
		logger.WithError(err).Error("Aggregator exited with error")
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *observability.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	set, err := backends.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open backends: %w", err)
	}
	defer set.Close()

	if cfg.Stats.Backend == config.StatsBackendMemory {
		logger.Warn("Stats backend is memory; snapshots are discarded when the aggregator exits")
	}

	j := &job{
		inventory: func(ctx context.Context) (stats.Inventory, error) {
			return set.OpenInventory(ctx, cfg.Aggregator)
		},
		store:   set.Stats,
		clock:   clock.Real{},
		timeout: cfg.Aggregator.Timeout,
		logger:  logger,
		logrus:  observability.NewLogrusLogger(cfg.Observability.Level(), os.Stdout),
	}

	if *runOnce {
		_, err := j.run(ctx, "run-once")
		return err
	}

	if *metricsAddr != "" {
		j.metrics = observability.NewMetrics(prometheus.NewRegistry())
		server := &http.Server{Addr: *metricsAddr, Handler: j.metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.WithError(err).Error("Metrics server failed")
			}
		}()
		defer server.Close()
	}

	c := cron.New()
	_, err = c.AddFunc(cfg.Aggregator.Schedule, func() {
		defer observability.RecoverPanic(logger, "scheduled aggregation")
		j.run(ctx, "schedule")
	})
	if err != nil {
		return fmt.Errorf("failed to schedule aggregation: %w", err)
	}

	c.Start()
	logger.Infof("Tally aggregator started with schedule %q", cfg.Aggregator.Schedule)

	if *watch && cfg.Aggregator.InventoryFile != "" {
		go func() {
			defer observability.RecoverPanic(logger, "inventory watcher")
			err := watchFile(ctx, cfg.Aggregator.InventoryFile, 2*time.Second, logger, func() {
				j.run(ctx, "inventory-change")
			})
			if err != nil {
				logger.WithError(err).Error("Inventory watcher stopped")
			}
		}()
	}

	<-ctx.Done()
	logger.Info("Shutting down gracefully...")

	stopped := c.Stop()
	<-stopped.Done()

	logger.Info("Aggregator stopped")
	return nil
}
