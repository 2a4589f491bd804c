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

// Routes returns the intake router with CORS and request metrics applied.
func Routes(h *Handler, checker *health.Checker, reg *prometheus.Registry, m *metrics.HTTP, logger logrus.FieldLogger) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /ingest", server.Instrument("ingest", http.HandlerFunc(h.Ingest), m, logger))
	mux.Handle("GET /health", server.Instrument("health", healthhandler.HTTP(checker), m, logger))
	mux.Handle("GET /metrics", metrics.Handler(reg))
	return server.WithCORS(mux)
}
