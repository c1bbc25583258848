package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/platinummonkey/tally/pkg/httputil"
	"github.com/platinummonkey/tally/pkg/observability"
	"github.com/platinummonkey/tally/pkg/reports"
)

// Options configures optional server dependencies. Zero values disable the
// corresponding feature.
type Options struct {
	Logger    *observability.Logger
	Metrics   *observability.Metrics
	Health    *observability.HealthChecker
	RateLimit *RateLimiter
	Tracing   bool
}

// Server represents our API server
type Server struct {
	router  *mux.Router
	handler http.Handler
	logger  *observability.Logger
}

// NewServer creates a new API server over the report service
func NewServer(service *reports.Service, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = observability.NewLogger(observability.InfoLevel, nil)
	}

	s := &Server{
		router: mux.NewRouter(),
		logger: opts.Logger,
	}

	if opts.Metrics != nil {
		s.router.Use(observability.HTTPMetricsMiddleware(opts.Metrics))
		s.router.Handle("/metrics", opts.Metrics.Handler()).Methods("GET")
	}

	health := opts.Health
	if health == nil {
		health = observability.NewHealthChecker()
	}
	s.router.HandleFunc("/healthz", health.Readiness).Methods("GET")
	s.router.HandleFunc("/livez", health.Liveness).Methods("GET")

	s.RegisterRoutes(NewReportHandlers(service))

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		httputil.WriteNotFound(w, "route not found")
	})

	var h http.Handler = s.router
	if opts.RateLimit != nil {
		h = opts.RateLimit.Middleware(h)
	}
	h = httputil.Chain(
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(opts.Logger),
		httputil.RecoveryMiddleware(opts.Logger),
	)(h)
	if opts.Tracing {
		h = otelhttp.NewHandler(h, "tally-api")
	}
	s.handler = h

	return s
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// RouteRegistrar is an interface for types that can register routes
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

// RegisterRoutes registers routes from a RouteRegistrar
func (s *Server) RegisterRoutes(registrar RouteRegistrar) {
	registrar.RegisterRoutes(s.router)
}

// Router returns the underlying router
func (s *Server) Router() *mux.Router {
	return s.router
}
