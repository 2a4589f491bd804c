package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	"sales-pipeline/internal/deadletter"
	"sales-pipeline/internal/deadletter/dlqtest"
	"sales-pipeline/internal/health"
	"sales-pipeline/internal/intake/intaketest"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/validation"
	"sales-pipeline/internal/validator"
)

const (
	validSale       = `{"sale_id":"S1001","sale_date":"2024-01-01T00:00:00","customer_id":5,"item_id":10,"item_name":"Hat","quantity":2,"unit_price":9.99,"total_price":19.98}`
	mismatchedTotal = `{"sale_id":"S1001","sale_date":"2024-01-01T00:00:00","customer_id":5,"item_id":10,"item_name":"Hat","quantity":2,"unit_price":9.99,"total_price":99.99}`
)

// failingChecker implements Checker and always fails.
type failingChecker struct{}

func (failingChecker) Check(string, []byte) (*validation.Result, error) {
	return nil, errors.New("boom")
}

func newTestRouter(t *testing.T) (http.Handler, *dlqtest.MemoryRepository) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	dlqRepo := &dlqtest.MemoryRepository{}
	store := deadletter.NewStore(dlqRepo)
	v := validator.New(&intaketest.MemoryRepository{}, store, metrics.NewValidator(reg), nil, logger, validator.Options{})
	h := New(v, store, logger)
	return Routes(h, health.NewChecker("data-validator"), reg, metrics.NewHTTP(reg), logger), dlqRepo
}

func do(t *testing.T, h http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
			t.Fatalf("decode %s %s response: %v", method, target, err)
		}
	}
	return rec, out
}

func TestValidate(t *testing.T) {
	router, _ := newTestRouter(t)

	testCases := []struct {
		name      string
		target    string
		body      string
		wantCode  int
		wantValid bool
		wantError string
	}{
		{"valid", "/validate?schema_type=sales", validSale, http.StatusOK, true, ""},
		{"default schema", "/validate", validSale, http.StatusOK, true, ""},
		{"business rule", "/validate", mismatchedTotal, http.StatusUnprocessableEntity, false, ""},
		{"empty body", "/validate", "", http.StatusBadRequest, false, "No data provided"},
		{"empty object", "/validate", "{}", http.StatusBadRequest, false, "No data provided"},
		{"null", "/validate", "null", http.StatusBadRequest, false, "No data provided"},
		{"malformed", "/validate", `{"sale_id":`, http.StatusBadRequest, false, "Invalid JSON"},
		{"other schema passes", "/validate?schema_type=inventory", `{"sku":"X"}`, http.StatusOK, true, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec, body := do(t, router, http.MethodPost, tc.target, tc.body)
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d (body %s)", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantError != "" {
				if msg, _ := body["error"].(string); !strings.Contains(msg, tc.wantError) {
					t.Errorf("error = %q, want it to contain %q", msg, tc.wantError)
				}
				return
			}
			if body["is_valid"] != tc.wantValid {
				t.Errorf("is_valid = %v, want %v", body["is_valid"], tc.wantValid)
			}
			if _, ok := body["warnings"].([]any); !ok {
				t.Errorf("warnings = %v, want an array", body["warnings"])
			}
			errs, _ := body["errors"].([]any)
			if tc.wantValid && len(errs) != 0 {
				t.Errorf("errors = %v, want none", errs)
			}
			if !tc.wantValid && len(errs) == 0 {
				t.Error("invalid payload should report errors")
			}
		})
	}
}

func TestValidate_OtherSchemaCountsAsValid(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodPost, "/validate?schema_type=inventory", `{"sku":"X"}`)
	if rec.Code != http.StatusOK || body["is_valid"] != true {
		t.Fatalf("POST /validate?schema_type=inventory = %d %v", rec.Code, body)
	}
	rec, _ = do(t, router, http.MethodGet, "/metrics", "")
	want := `validation_total{schema_type="inventory",status="valid"} 1`
	if !strings.Contains(rec.Body.String(), want) {
		t.Errorf("metrics output should contain %s", want)
	}
}

func TestValidate_DoesNotQuarantine(t *testing.T) {
	router, dlqRepo := newTestRouter(t)
	do(t, router, http.MethodPost, "/validate", mismatchedTotal)
	if n := len(dlqRepo.Entries()); n != 0 {
		t.Errorf("dlq entries = %d, want 0: /validate is a dry run", n)
	}
}

func TestValidate_CheckerFailure(t *testing.T) {
	logger, _ := test.NewNullLogger()
	h := New(failingChecker{}, deadletter.NewStore(&dlqtest.MemoryRepository{}), logger)
	rec := httptest.NewRecorder()
	h.Validate(rec, httptest.NewRequest(http.MethodPost, "/validate", strings.NewReader(validSale)))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
}

func TestDLQStats(t *testing.T) {
	router, dlqRepo := newTestRouter(t)
	store := deadletter.NewStore(dlqRepo)
	for i := 0; i < 2; i++ {
		if _, err := store.Append(context.Background(), json.RawMessage(mismatchedTotal), []string{"bad"}, "sales"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rec, body := do(t, router, http.MethodGet, "/dlq/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	stats, _ := body["dlq_stats"].([]any)
	if len(stats) != 1 {
		t.Fatalf("dlq_stats = %v, want one schema", body["dlq_stats"])
	}
	s := stats[0].(map[string]any)
	if s["schema_type"] != "sales" || s["count"] != float64(2) {
		t.Errorf("stats = %v", s)
	}
	if _, err := time.Parse(time.RFC3339Nano, s["oldest_failure"].(string)); err != nil {
		t.Errorf("oldest_failure = %v: %v", s["oldest_failure"], err)
	}
}

func TestDLQStats_Empty(t *testing.T) {
	router, _ := newTestRouter(t)
	rec, body := do(t, router, http.MethodGet, "/dlq/stats", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	if stats, ok := body["dlq_stats"].([]any); !ok || len(stats) != 0 {
		t.Errorf("dlq_stats = %v, want []", body["dlq_stats"])
	}
}

func TestDLQStats_StoreFailure(t *testing.T) {
	router, dlqRepo := newTestRouter(t)
	dlqRepo.ReadErr = errors.New("dlq down")
	rec, body := do(t, router, http.MethodGet, "/dlq/stats", "")
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("code = %d, want 500", rec.Code)
	}
	if body["error"] == nil {
		t.Error("error body expected")
	}
}

func TestDLQEntries(t *testing.T) {
	router, dlqRepo := newTestRouter(t)
	store := deadletter.NewStore(dlqRepo)
	for _, p := range []string{`{"sale_id":"S1"}`, `{"sale_id":"S2"}`, `{"sale_id":"S3"}`} {
		if _, err := store.Append(context.Background(), json.RawMessage(p), []string{"bad"}, "sales"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	rec, body := do(t, router, http.MethodGet, "/dlq/entries?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d, want 200", rec.Code)
	}
	entries, _ := body["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	first := entries[0].(map[string]any)
	if data, _ := first["original_data"].(map[string]any); data["sale_id"] != "S3" {
		t.Errorf("first entry = %v, want newest (S3)", first)
	}
	if first["last_retry_at"] != nil {
		t.Errorf("last_retry_at = %v, want null", first["last_retry_at"])
	}

	for _, target := range []string{"/dlq/entries?limit=0", "/dlq/entries?limit=501", "/dlq/entries?offset=-1", "/dlq/entries?limit=x"} {
		if rec, _ := do(t, router, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s code = %d, want 400", target, rec.Code)
		}
	}
}

func TestIndexHealthAndMetrics(t *testing.T) {
	router, _ := newTestRouter(t)

	rec, body := do(t, router, http.MethodGet, "/", "")
	if rec.Code != http.StatusOK || body["service"] != "data-validator" || body["status"] != "running" {
		t.Errorf("GET / = %d %v", rec.Code, body)
	}
	if rec, _ := do(t, router, http.MethodGet, "/nope", ""); rec.Code != http.StatusNotFound {
		t.Errorf("GET /nope = %d, want 404", rec.Code)
	}

	rec, body = do(t, router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || body["status"] != "healthy" {
		t.Errorf("GET /health = %d %v", rec.Code, body)
	}

	do(t, router, http.MethodPost, "/validate", validSale)
	rec, _ = do(t, router, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET /metrics = %d", rec.Code)
	}
	for _, want := range []string{"validation_total", "http_requests_total"} {
		if !strings.Contains(rec.Body.String(), want) {
			t.Errorf("metrics output should contain %s", want)
		}
	}
}

func TestNoData(t *testing.T) {
	testCases := []struct {
		body string
		want bool
	}{
		{"", true},
		{"  \n", true},
		{"null", true},
		{"false", true},
		{"0", true},
		{`""`, true},
		{"[]", true},
		{"{}", true},
		{`{"a":1}`, false},
		{"[1]", false},
		{"true", false},
	}
	for _, tc := range testCases {
		got, err := noData([]byte(tc.body))
		if err != nil {
			t.Errorf("noData(%q) error: %v", tc.body, err)
			continue
		}
		if got != tc.want {
			t.Errorf("noData(%q) = %v, want %v", tc.body, got, tc.want)
		}
	}
	if _, err := noData([]byte("{")); err == nil {
		t.Error("noData should fail on malformed JSON")
	}
}
