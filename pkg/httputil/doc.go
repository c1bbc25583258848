// Package httputil provides helpers for JSON and CSV responses, path and query
// parsing, and the middleware chain shared by the tally HTTP server.
//
// # Responses
//
//	httputil.WriteJSON(w, http.StatusOK, data)
//	httputil.WriteErrorMessage(w, http.StatusBadGateway, "audit log unavailable")
//	httputil.WriteCSV(w, "ClientApprovalsReportPlugin.csv", body)
//
// Error bodies always have the shape {"error": "..."}.
//
// # Request Parsing
//
//	name, ok := httputil.ParsePathStringOrError(w, r, "name")
//	label := httputil.ParseQueryString(r, "client_label", "")
//
// # Middleware
//
//	handler := httputil.Chain(
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//		httputil.RecoveryMiddleware(logger),
//	)(router)
package httputil
