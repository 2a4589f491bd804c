// Package handler serves the producer-facing intake API.
package handler

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"

	"sales-pipeline/internal/intake/domain"
	"sales-pipeline/internal/logging"
	"sales-pipeline/internal/telemetry"
)

const maxBodyBytes = 1 << 20

// Appender writes one payload to the intake log.
type Appender interface {
	Append(ctx context.Context, payload json.RawMessage) (*domain.IntakeRecord, error)
}

// Handler implements POST /ingest.
type Handler struct {
	intake Appender
	apiKey string
	events telemetry.EventEmitter
	logger logrus.FieldLogger
}

// New returns a Handler. apiKey must be non-empty; events may be nil.
func New(intake Appender, apiKey string, events telemetry.EventEmitter, logger logrus.FieldLogger) *Handler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Handler{intake: intake, apiKey: apiKey, events: events, logger: logging.Component(logger, "intake_api")}
}

// Ingest stores the JSON body verbatim. 201 {"status":"ok","id":N}; 401 on a wrong x-api-key;
// 400 unless the body is a non-empty JSON object or array; 500 when the store write fails.
func (h *Handler) Ingest(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r.Header.Get("x-api-key")) {
		writeError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "request body too large or unreadable")
		return
	}
	if !acceptable(body) {
		writeError(w, http.StatusBadRequest, "Missing JSON")
		return
	}

	rec, err := h.intake.Append(r.Context(), json.RawMessage(body))
	if err != nil {
		h.logger.WithError(err).Error("append to intake log failed")
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	h.logger.WithField("record_id", rec.ID).Debug("record ingested")
	telemetry.EmitAsync(h.events, h.logger, telemetry.NewEvent(telemetry.EventRecordIngested, "intake_api", rec.ID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_ = json.NewEncoder(w).Encode(map[string]any{"status": "ok", "id": rec.ID})
}

func (h *Handler) authorized(key string) bool {
	if h.apiKey == "" || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(h.apiKey)) == 1
}

// acceptable reports whether body is a JSON object or array with at least one element.
func acceptable(body []byte) bool {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" || (trimmed[0] != '{' && trimmed[0] != '[') {
		return false
	}
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	}
	return false
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
