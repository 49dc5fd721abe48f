// Package router configures HTTP routes for trendd's HTTP API.
//
// trendd exposes an HTTP server on port 8082 (configurable) that provides
// the latest trend report, health checks, and Prometheus metrics. This
// package sets up the routes for that HTTP server.
//
// Routes configured:
//   - GET /report - Latest trend report (JSON by default, ?format=text for plain text)
//   - GET /healthz - Health check endpoint (returns 200 OK)
//   - GET /readyz - Readiness check (verifies the snapshot store is reachable)
//   - GET /metrics - Prometheus metrics endpoint
//
// Reports older than the stale threshold include an X-Hostpulse-Stale
// header so scrapers can tell a live report from a leftover one.
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/HatiCode/hostpulse/pkg/httpx"
	"github.com/HatiCode/hostpulse/pkg/report"
)

// Source supplies the latest published report.
type Source interface {
	Latest() (report.Report, bool)
}

// SetupRoutes configures HTTP endpoints for trendd. readiness is invoked
// by /readyz and should verify store connectivity; nil means always ready.
// The returned handler logs every request and recovers handler panics
// into a 500 response.
func SetupRoutes(src Source, readiness func() error, staleAfter time.Duration, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.Handle("/healthz", httpx.HealthHandler())

	if readiness != nil {
		mux.Handle("/readyz", httpx.HealthHandlerWithCheck(readiness))
	} else {
		mux.Handle("/readyz", httpx.HealthHandler())
	}

	mux.HandleFunc("/report", handleGetReport(src, staleAfter, logger))

	mux.Handle("/metrics", promhttp.Handler())

	handler := httpx.LoggingMiddleware(logger)(mux)
	return httpx.RecoveryMiddleware(logger)(handler)
}

// handleGetReport returns a handler for GET /report.
func handleGetReport(src Source, staleAfter time.Duration, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rep, ok := src.Latest()
		if !ok {
			httpx.WriteErrorMessage(w, http.StatusNotFound, "no report generated yet")
			return
		}

		if staleAfter > 0 && time.Since(rep.GeneratedAt) > staleAfter {
			w.Header().Set("X-Hostpulse-Stale", "true")
		}

		if r.URL.Query().Get("format") == "text" {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			if _, err := w.Write([]byte(rep.Render())); err != nil {
				logger.Error("failed to write text report", "error", err)
			}
			return
		}

		if err := httpx.WriteJSON(w, http.StatusOK, rep); err != nil {
			logger.Error("failed to write JSON response", "error", err)
		}
	}
}
