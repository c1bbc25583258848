package reports

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/stats"
)

func date(month time.Month, day int) time.Time {
	return time.Date(2012, month, day, 0, 0, 0, 0, time.UTC)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

type testEnv struct {
	audit    *audit.MemoryStore
	stats    *stats.MemoryStore
	registry *Registry
	service  *Service
}

// setupReportsTest builds a registry of the built-in plugins over in-memory
// stores with the clock fixed at now
func setupReportsTest(t *testing.T, now time.Time) *testEnv {
	t.Helper()

	auditStore := audit.NewMemoryStore()
	statsStore := stats.NewMemoryStore(0)
	registry := NewRegistry(Sources{
		Audit:     audit.NewReader(auditStore, audit.ReaderConfig{}),
		Clients:   statsStore,
		FileStore: statsStore,
		Clock:     clock.Fixed(now),
	}, quietLogger())
	require.NoError(t, RegisterDefaults(registry))

	return &testEnv{
		audit:    auditStore,
		stats:    statsStore,
		registry: registry,
		service:  NewService(registry, quietLogger()),
	}
}

func (e *testEnv) addEvents(t *testing.T, events ...audit.Event) {
	t.Helper()
	require.NoError(t, e.audit.Append(context.Background(), events...))
}

func (e *testEnv) addSnapshot(t *testing.T, label string, metric stats.Metric, at time.Time, counts map[string]int64) {
	t.Helper()
	require.NoError(t, e.stats.AppendSnapshot(context.Background(), label, metric, stats.Snapshot{
		Timestamp: at,
		Counts:    counts,
	}))
}

func (e *testEnv) report(t *testing.T, req Request) *charts.ReportData {
	t.Helper()
	data, err := e.service.GetReport(context.Background(), req)
	require.NoError(t, err)
	return data
}

func ptr[T any](v T) *T {
	return &v
}
