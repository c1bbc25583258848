package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	HTTPResponseSize    *prometheus.HistogramVec

	// Report metrics
	ReportRequestsTotal *prometheus.CounterVec
	ReportDuration      *prometheus.HistogramVec

	// Audit log metrics
	AuditShardReadsTotal *prometheus.CounterVec

	// Aggregation metrics
	AggregationRunsTotal *prometheus.CounterVec
	AggregationDuration  prometheus.Histogram
	AggregatedClients    prometheus.Gauge
	AggregatedFiles      prometheus.Gauge

	registry *prometheus.Registry
}

// NewMetrics creates and registers all metrics on registry
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		HTTPResponseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_http_response_size_bytes",
				Help:    "HTTP response size in bytes",
				Buckets: prometheus.ExponentialBuckets(100, 10, 8),
			},
			[]string{"method", "route"},
		),

		ReportRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_report_requests_total",
				Help: "Total number of report requests by outcome",
			},
			[]string{"report", "status"},
		),
		ReportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tally_report_duration_seconds",
				Help:    "Report generation duration in seconds",
				Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"report"},
		),

		AuditShardReadsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_audit_shard_reads_total",
				Help: "Total number of audit log shard reads by backend and outcome",
			},
			[]string{"backend", "status"},
		),

		AggregationRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tally_aggregation_runs_total",
				Help: "Total number of statistics aggregation runs",
			},
			[]string{"status"},
		),
		AggregationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "tally_aggregation_duration_seconds",
				Help:    "Statistics aggregation duration in seconds",
				Buckets: []float64{.1, .5, 1, 5, 10, 30, 60, 120, 300},
			},
		),
		AggregatedClients: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_aggregated_clients",
				Help: "Number of clients seen by the last aggregation run",
			},
		),
		AggregatedFiles: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "tally_aggregated_files",
				Help: "Number of file store entries seen by the last aggregation run",
			},
		),

		registry: registry,
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.HTTPResponseSize,
		m.ReportRequestsTotal,
		m.ReportDuration,
		m.AuditShardReadsTotal,
		m.AggregationRunsTotal,
		m.AggregationDuration,
		m.AggregatedClients,
		m.AggregatedFiles,
	)

	return m
}

// ObserveReport records one report outcome
func (m *Metrics) ObserveReport(name, status string, duration time.Duration) {
	m.ReportRequestsTotal.WithLabelValues(name, status).Inc()
	m.ReportDuration.WithLabelValues(name).Observe(duration.Seconds())
}

// ObserveShardRead records one audit shard fetch
func (m *Metrics) ObserveShardRead(backend, status string) {
	m.AuditShardReadsTotal.WithLabelValues(backend, status).Inc()
}

// ObserveAggregation records one aggregation run
func (m *Metrics) ObserveAggregation(clients, files int, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.AggregatedClients.Set(float64(clients))
		m.AggregatedFiles.Set(float64(files))
	}
	m.AggregationRunsTotal.WithLabelValues(status).Inc()
	m.AggregationDuration.Observe(duration.Seconds())
}

// RegisterCacheStats exposes hit and miss counters read from stats
func (m *Metrics) RegisterCacheStats(name string, stats func() (hits, misses int64)) {
	labels := prometheus.Labels{"cache": name}
	m.registry.MustRegister(
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "tally_cache_hits_total",
			Help:        "Total number of cache hits",
			ConstLabels: labels,
		}, func() float64 {
			hits, _ := stats()
			return float64(hits)
		}),
		prometheus.NewCounterFunc(prometheus.CounterOpts{
			Name:        "tally_cache_misses_total",
			Help:        "Total number of cache misses",
			ConstLabels: labels,
		}, func() float64 {
			_, misses := stats()
			return float64(misses)
		}),
	)
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// responseWriter wraps http.ResponseWriter to capture status code and size
type responseWriter struct {
	http.ResponseWriter
	statusCode   int
	bytesWritten int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.bytesWritten += n
	return n, err
}

// HTTPMetricsMiddleware instruments HTTP requests. Requests are labeled by
// their mux route template so report names do not explode cardinality.
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(rw, r)

			route := routeLabel(r)
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rw.statusCode)).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
			metrics.HTTPResponseSize.WithLabelValues(r.Method, route).Observe(float64(rw.bytesWritten))
		})
	}
}

func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return "unmatched"
}
