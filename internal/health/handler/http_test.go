package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"sales-pipeline/internal/health"
)

func TestHTTP(t *testing.T) {
	testCases := []struct {
		name       string
		pingErr    error
		wantCode   int
		wantStatus string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"unhealthy", errors.New("connection refused"), http.StatusServiceUnavailable, "unhealthy"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			checker := health.NewChecker("data-validator").Add("holding", &mockPinger{pingErr: tc.pingErr})
			rec := httptest.NewRecorder()
			HTTP(checker).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			if rec.Code != tc.wantCode {
				t.Errorf("code = %d, want %d", rec.Code, tc.wantCode)
			}
			var body map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body["status"] != tc.wantStatus {
				t.Errorf("status = %q, want %q", body["status"], tc.wantStatus)
			}
			if tc.pingErr == nil && body["service"] != "data-validator" {
				t.Errorf("service = %q", body["service"])
			}
			if tc.pingErr != nil && !strings.Contains(body["error"], "connection refused") {
				t.Errorf("error = %q, should carry the ping failure", body["error"])
			}
		})
	}
}
