package telemetry

import (
	"encoding/json"
	"time"
)

// Pipeline event types.
const (
	EventRecordReplicated  = "record_replicated"
	EventRecordValidated   = "record_validated"
	EventRecordQuarantined = "record_quarantined"
	EventParseFailed       = "parse_failed"
	EventRecordIngested    = "record_ingested"
)

// Event is one pipeline event. It is the JSON value of the Kafka message the Loki worker consumes.
type Event struct {
	EventType  string          `json:"eventType"`
	Source     string          `json:"source"`
	RecordID   int64           `json:"recordId,omitempty"`
	SchemaType string          `json:"schemaType,omitempty"`
	CycleID    string          `json:"cycleId,omitempty"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewEvent returns an event stamped with the current UTC time.
func NewEvent(eventType, source string, recordID int64) *Event {
	return &Event{
		EventType: eventType,
		Source:    source,
		RecordID:  recordID,
		CreatedAt: time.Now().UTC(),
	}
}

// WithMetadata sets Metadata to v encoded as JSON. Encoding failures leave Metadata unset.
func (e *Event) WithMetadata(v any) *Event {
	if b, err := json.Marshal(v); err == nil {
		e.Metadata = b
	}
	return e
}
