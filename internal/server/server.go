// Package server exposes the orchestrator's HTTP surface: run submission,
// audit trail reads, liveness, and metrics.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	// runTimeout bounds a synchronous pipeline run. It must exceed the sum of
	// the configured stage timeouts or runs get cut off mid-stage.
	runTimeout = 2 * time.Minute

	// readTimeout bounds the audit and health endpoints.
	readTimeout = 10 * time.Second
)

// NewRouter assembles the middleware chain and mounts the handlers.
func NewRouter(logger *slog.Logger, h *Handlers) *chi.Mux {
	r := chi.NewRouter()

	// Apply middleware in order
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(logger))
	r.Use(middleware.Recoverer)

	// Wrap with OpenTelemetry HTTP instrumentation
	r.Use(func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, "stagegate")
	})

	r.With(timeoutMiddleware(readTimeout)).Get("/healthz", h.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.With(timeoutMiddleware(runTimeout)).Post("/runs", h.CreateRun)
		r.With(timeoutMiddleware(readTimeout)).Get("/audit", h.ListAudit)
		r.With(timeoutMiddleware(readTimeout)).Get("/audit/{auditID}", h.GetAudit)
	})

	return r
}

// timeoutMiddleware enforces a per-route request timeout. It cancels the
// request context; handlers are expected to honor cancellation rather than
// being forcibly terminated.
func timeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
