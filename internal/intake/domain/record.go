package domain

import (
	"encoding/json"
	"time"
)

// IntakeRecord is one raw payload in the intake log. Processed is owned by the validator.
type IntakeRecord struct {
	ID         int64
	Payload    json.RawMessage
	ReceivedAt time.Time
	Processed  bool
	CreatedAt  time.Time
}

// Checkpoint marks an intake record as copied to the main store. Owned by the replicator.
type Checkpoint struct {
	ID        int64
	HoldingID int64
	SyncedAt  time.Time
}
