// Package observability provides structured logging, Prometheus metrics, health
// checks and OpenTelemetry setup for the tally binaries.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.WithField("report", name).Info("Report generated")
//
// Request-scoped logging:
//
//	ctx = observability.WithRequestID(ctx, id)
//	observability.FromContext(ctx).Warn("Upstream read failed")
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	service := reports.NewService(registry, log).WithObserver(metrics)
//	reader := audit.NewReader(store, audit.ReaderConfig{Observer: metrics})
//
// Metrics implements both reports.Observer and audit.ShardObserver so report
// outcomes and shard reads are counted without those packages importing
// Prometheus.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker()
//	checker.AddCheck("postgres", observability.DBCheck(db), true)
//	checker.AddCheck("redis", observability.RedisCheck(client), false)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, cfg, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
package observability
