// Package handler exposes store health over HTTP and gRPC.
package handler

import (
	"encoding/json"
	"net/http"

	"sales-pipeline/internal/health"
)

// HTTP serves GET /health: 200 {"status":"healthy","service":...} when every store answers,
// 503 {"status":"unhealthy","error":...} otherwise.
func HTTP(checker *health.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := checker.Check(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": err.Error()})
			return
		}
		var service string
		if checker != nil {
			service = checker.Service()
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "healthy", "service": service})
	}
}
