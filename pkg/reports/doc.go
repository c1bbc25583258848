// Package reports implements the dashboard report engine: a registry of named
// report plugins, the built-in plugins, and the Service the API layer calls.
//
// # Plugins
//
// A Plugin turns one Request into one charts.ReportData. Client plugins read
// pre-aggregated statistics (pkg/stats); server plugins read the audit log
// (pkg/audit) or file store statistics. Every plugin returns the same chart
// shape with or without data, so callers never special-case an empty report.
//
// # Registry
//
// Plugins are registered once at startup from a static table (RegisterDefaults)
// and instantiated lazily on first use:
//
//	registry := reports.NewRegistry(reports.Sources{
//		Audit:     audit.NewReader(store, audit.ReaderConfig{}),
//		Clients:   statsStore,
//		FileStore: statsStore,
//	}, logger)
//	if err := reports.RegisterDefaults(registry); err != nil {
//		return err
//	}
//	service := reports.NewService(registry, logger)
//
// # Errors
//
// ErrNotFound, ErrInvalidRequest, ErrUpstreamRead and ErrDuplicateName are
// matched with errors.Is.
package reports
