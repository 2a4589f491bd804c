// Package handler serves the validator's HTTP API.
package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/deadletter/domain"
	"sales-pipeline/internal/logging"
	"sales-pipeline/internal/pipeline"
	"sales-pipeline/internal/validation"
)

const (
	maxBodyBytes      = 1 << 20
	defaultEntryLimit = 50
	maxEntryLimit     = 500
)

// Checker validates one payload. Implemented by *validator.Validator.
type Checker interface {
	Check(schemaType string, payload []byte) (*validation.Result, error)
}

// DeadLetterReader is the read side of the dead-letter store.
type DeadLetterReader interface {
	Stats(ctx context.Context) ([]*domain.SchemaStats, error)
	List(ctx context.Context, limit, offset int32) ([]*domain.Entry, error)
}

// Handler implements the validator endpoints.
type Handler struct {
	checker Checker
	dlq     DeadLetterReader
	logger  logrus.FieldLogger
}

func New(checker Checker, dlq DeadLetterReader, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{checker: checker, dlq: dlq, logger: logging.Component(logger, "validator_api")}
}

type validateResponse struct {
	IsValid  bool     `json:"is_valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// Validate handles POST /validate?schema_type=sales. 200 when valid, 422 with the same shape when not.
// Schema types other than sales carry no rules and always come back valid.
func (h *Handler) Validate(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}
	empty, err := noData(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON: "+err.Error())
		return
	}
	if empty {
		writeError(w, http.StatusBadRequest, "No data provided")
		return
	}

	schemaType := r.URL.Query().Get("schema_type")
	if schemaType == "" {
		schemaType = pipeline.SchemaSales
	}

	res, err := h.checker.Check(schemaType, body)
	if err != nil {
		h.logger.WithError(err).Error("validate request failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	code := http.StatusOK
	if !res.Valid() {
		code = http.StatusUnprocessableEntity
	}
	writeJSON(w, code, validateResponse{IsValid: res.Valid(), Errors: res.Messages(), Warnings: res.Warnings})
}

type schemaStats struct {
	SchemaType    string `json:"schema_type"`
	Count         int64  `json:"count"`
	OldestFailure string `json:"oldest_failure"`
	NewestFailure string `json:"newest_failure"`
}

// DLQStats handles GET /dlq/stats.
func (h *Handler) DLQStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.dlq.Stats(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("dead-letter stats failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]schemaStats, 0, len(stats))
	for _, s := range stats {
		out = append(out, schemaStats{
			SchemaType:    s.SchemaType,
			Count:         s.Count,
			OldestFailure: s.OldestFailure.Format(time.RFC3339Nano),
			NewestFailure: s.NewestFailure.Format(time.RFC3339Nano),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"dlq_stats": out})
}

type entryJSON struct {
	ID               int64           `json:"id"`
	OriginalData     json.RawMessage `json:"original_data"`
	ValidationErrors []string        `json:"validation_errors"`
	SchemaType       string          `json:"schema_type"`
	FailedAt         time.Time       `json:"failed_at"`
	RetryCount       int32           `json:"retry_count"`
	LastRetryAt      *time.Time      `json:"last_retry_at"`
}

// DLQEntries handles GET /dlq/entries?limit=&offset=, newest first. Read-only.
func (h *Handler) DLQEntries(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultEntryLimit)
	if err != nil || limit < 1 || limit > maxEntryLimit {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
		return
	}

	entries, err := h.dlq.List(r.Context(), int32(limit), int32(offset))
	if err != nil {
		h.logger.WithError(err).Error("dead-letter list failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		msgs := e.ValidationErrors
		if msgs == nil {
			msgs = []string{}
		}
		out = append(out, entryJSON{
			ID:               e.ID,
			OriginalData:     e.OriginalPayload,
			ValidationErrors: msgs,
			SchemaType:       e.SchemaType,
			FailedAt:         e.FailedAt,
			RetryCount:       e.RetryCount,
			LastRetryAt:      e.LastRetryAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out, "limit": limit, "offset": offset})
}

// Index handles GET / with the service description.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service": "data-validator",
		"status":  "running",
		"endpoints": map[string]string{
			"/health":      "Health check",
			"/metrics":     "Prometheus metrics",
			"/validate":    "Validate data (POST)",
			"/dlq/stats":   "Dead letter queue statistics",
			"/dlq/entries": "Dead letter queue entries, newest first",
		},
	})
}

// noData reports whether body carries nothing to validate: empty, null, false, 0, "" or an empty object or array.
func noData(body []byte) (bool, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return true, nil
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return false, err
	}
	switch t := v.(type) {
	case nil:
		return true, nil
	case bool:
		return !t, nil
	case float64:
		return t == 0, nil
	case string:
		return t == "", nil
	case map[string]any:
		return len(t) == 0, nil
	case []any:
		return len(t) == 0, nil
	}
	return false, nil
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
