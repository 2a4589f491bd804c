package domain

import (
	"encoding/json"
	"time"
)

// Entry is a quarantined payload with the reasons it failed validation.
// RetryCount and LastRetryAt are stored but nothing re-drives entries today.
type Entry struct {
	ID               int64
	OriginalPayload  json.RawMessage
	ValidationErrors []string
	SchemaType       string
	FailedAt         time.Time
	RetryCount       int32
	LastRetryAt      *time.Time
}

// SchemaStats aggregates entries for one schema type.
type SchemaStats struct {
	SchemaType    string
	Count         int64
	OldestFailure time.Time
	NewestFailure time.Time
}
