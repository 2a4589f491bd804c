package domain

import (
	"encoding/json"
	"time"
)

// MainRecord is a replicated payload. Rows are append-only and not deduplicated against the intake id.
type MainRecord struct {
	ID         int64
	Payload    json.RawMessage
	ReceivedAt time.Time
	SyncedAt   time.Time
	CreatedAt  time.Time
}
