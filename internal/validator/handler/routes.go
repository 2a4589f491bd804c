package handler

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/health"
	healthhandler "sales-pipeline/internal/health/handler"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/server"
)

// Routes returns the validator's router with CORS and request metrics applied.
func Routes(h *Handler, checker *health.Checker, reg *prometheus.Registry, m *metrics.HTTP, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /validate", server.Instrument("validate", http.HandlerFunc(h.Validate), m, logger))
	mux.Handle("GET /dlq/stats", server.Instrument("dlq_stats", http.HandlerFunc(h.DLQStats), m, logger))
	mux.Handle("GET /dlq/entries", server.Instrument("dlq_entries", http.HandlerFunc(h.DLQEntries), m, logger))
	mux.Handle("GET /health", server.Instrument("health", healthhandler.HTTP(checker), m, logger))
	mux.Handle("GET /metrics", metrics.Handler(reg))
	mux.Handle("GET /", server.Instrument("index", http.HandlerFunc(h.Index), m, logger))
	return server.WithCORS(mux)
}
