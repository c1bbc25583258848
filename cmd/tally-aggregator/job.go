package main

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/stats"
)

// job runs one aggregation at a time. The inventory is reopened on every run so
// edits to an inventory file are picked up.
type job struct {
	inventory func(ctx context.Context) (stats.Inventory, error)
	store     stats.Writer
	clock     clock.Clock
	timeout   time.Duration
	metrics   *observability.Metrics
	logger    *observability.Logger
	logrus    *logrus.Logger

	mu sync.Mutex
}

func (j *job) run(ctx context.Context, trigger string) (result *stats.Result, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			err = observability.PanicError(r)
		}

		var clients, files int
		if result != nil {
			clients, files = result.Clients, result.Files
		}
		if j.metrics != nil {
			j.metrics.ObserveAggregation(clients, files, time.Since(start), err)
		}

		entry := j.logger.WithFields(map[string]any{
			"trigger":     trigger,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if err != nil {
			entry.WithError(err).Error("Aggregation failed")
			return
		}
		entry.WithFields(map[string]any{
			"clients":   clients,
			"files":     files,
			"snapshots": result.Snapshots,
		}).Info("Aggregation completed")
	}()

	if j.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.timeout)
		defer cancel()
	}

	inventory, err := j.inventory(ctx)
	if err != nil {
		return nil, err
	}

	aggregator := stats.NewAggregator(inventory, j.store, j.clock, j.logrus)
	return aggregator.Run(ctx)
}
