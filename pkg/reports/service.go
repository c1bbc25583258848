package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/platinummonkey/tally/pkg/charts"
)

var tracer = otel.Tracer("github.com/platinummonkey/tally/pkg/reports")

// Observer receives the outcome of every GetReport call
type Observer interface {
	ObserveReport(name, status string, duration time.Duration)
}

// Report outcome statuses passed to an Observer
const (
	StatusOK       = "ok"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
	StatusUpstream = "upstream_error"
	StatusError    = "error"
)

// Service is the entry point the API layer uses
type Service struct {
	registry *Registry
	log      *logrus.Logger
	observer Observer
}

// NewService creates a service over registry
func NewService(registry *Registry, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{registry: registry, log: log}
}

// WithObserver sets the observer notified after each report
func (s *Service) WithObserver(o Observer) *Service {
	s.observer = o
	return s
}

// ListPlugins returns every descriptor in registration order
func (s *Service) ListPlugins() []Descriptor {
	return s.registry.Available()
}

// GetReport runs the plugin named by req.Name. The returned chart always
// passes charts.ReportData.Validate.
func (s *Service) GetReport(ctx context.Context, req Request) (*charts.ReportData, error) {
	ctx, span := tracer.Start(ctx, "Service.GetReport")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.name", req.Name),
		attribute.String("report.label", req.Label()),
	)

	start := time.Now()
	data, err := s.getReport(ctx, req)
	elapsed := time.Since(start)

	status := Status(err)
	span.SetAttributes(attribute.String("report.status", status))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "report generation failed")
	} else {
		span.SetStatus(codes.Ok, "report generated")
	}
	if s.observer != nil {
		s.observer.ObserveReport(req.Name, status, elapsed)
	}

	fields := logrus.Fields{
		"report":   req.Name,
		"status":   status,
		"duration": elapsed.String(),
	}
	if err != nil {
		s.log.WithFields(fields).WithError(err).Warn("Report generation failed")
		return nil, err
	}
	s.log.WithFields(fields).Debug("Report generated")
	return data, nil
}

func (s *Service) getReport(ctx context.Context, req Request) (*charts.ReportData, error) {
	plugin, err := s.registry.Get(req.Name)
	if err != nil {
		return nil, err
	}

	data, err := plugin.GetReportData(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := data.Validate(); err != nil {
		return nil, fmt.Errorf("report %s produced an invalid chart: %w", req.Name, err)
	}
	return data, nil
}

// Status classifies an error returned by GetReport
func Status(err error) string {
	switch {
	case err == nil:
		return StatusOK
	case errors.Is(err, ErrNotFound):
		return StatusNotFound
	case errors.Is(err, ErrInvalidRequest):
		return StatusInvalid
	case errors.Is(err, ErrUpstreamRead):
		return StatusUpstream
	}
	return StatusError
}
