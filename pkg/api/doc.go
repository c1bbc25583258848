// Package api provides the HTTP REST API of the tally report server.
//
// # Overview
//
// The API exposes the report plugin registry over HTTP. It is built on
// gorilla/mux and wraps every request with request IDs, structured logging,
// panic recovery, Prometheus metrics and optional OpenTelemetry tracing.
//
// # Endpoints
//
//	GET /api/v2/reports                      list plugin descriptors
//	GET /api/v2/reports/{name}               run a report
//	GET /api/v2/reports/{name}/export        download audit rows as CSV or NDJSON
//	GET /healthz                             readiness with dependency checks
//	GET /livez                               liveness
//	GET /metrics                             Prometheus metrics
//
// Report requests accept client_label, start_time (RFC 3339 or unix seconds)
// and duration (Go duration, or whole days "30d" and weeks "2w").
//
// # Errors
//
// Errors are JSON bodies of the form {"error": "..."}:
//
//   - 404 unknown report
//   - 400 malformed or non-positive time range, or export of a non-audit report
//   - 502 audit log or statistics backend failure
//   - 500 anything else
//
// # Usage
//
//	server := api.NewServer(service, api.Options{Logger: logger, Metrics: metrics})
//	http.ListenAndServe(":8080", server)
//
// Client is the matching Go client used by tally-cli:
//
//	client := api.NewClient("http://localhost:8080", nil)
//	descriptors, err := client.ListReports(ctx)
package api
