package reports

import (
	"context"
	"time"

	"github.com/platinummonkey/tally/pkg/audit"
	"github.com/platinummonkey/tally/pkg/charts"
	"github.com/platinummonkey/tally/pkg/clock"
	"github.com/platinummonkey/tally/pkg/stats"
)

// Plugin produces one chart per request
type Plugin interface {
	Descriptor() Descriptor
	GetReportData(ctx context.Context, req Request) (*charts.ReportData, error)
}

// AuditSource reads audit events in a time window, oldest first
type AuditSource interface {
	ReadAll(ctx context.Context, start time.Time, duration time.Duration) ([]audit.Event, error)
}

// Sources are the collaborators plugins read from
type Sources struct {
	Audit     AuditSource
	Clients   stats.ClientStats
	FileStore stats.FileStoreStats
	Clock     clock.Clock
}

// Constructor builds a plugin instance for its descriptor
type Constructor func(desc Descriptor, src Sources) Plugin

// Registration pairs a descriptor with the constructor of its plugin
type Registration struct {
	Descriptor Descriptor
	New        Constructor
}

// base carries the descriptor and sources shared by every built-in plugin
type base struct {
	desc Descriptor
	src  Sources
}

func (b *base) Descriptor() Descriptor {
	return b.desc
}

func (b *base) now() time.Time {
	return clock.OrReal(b.src.Clock).Now()
}

// readAudit resolves the request's time range and reads the audit log
func (b *base) readAudit(ctx context.Context, req Request) ([]audit.Event, error) {
	start, duration, err := req.TimeRange(b.now(), DefaultRange)
	if err != nil {
		return nil, err
	}
	return b.readAuditWindow(ctx, start, duration)
}

func (b *base) readAuditWindow(ctx context.Context, start time.Time, duration time.Duration) ([]audit.Event, error) {
	if b.src.Audit == nil {
		return nil, upstream("audit log", errNoSource)
	}
	events, err := b.src.Audit.ReadAll(ctx, start, duration)
	if err != nil {
		return nil, upstream("audit log", err)
	}
	return events, nil
}
