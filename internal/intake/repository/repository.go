package repository

import (
	"context"
	"encoding/json"
	"time"

	"sales-pipeline/internal/intake/domain"
)

// Repository defines persistence for the intake log and its replication checkpoints.
type Repository interface {
	// Append stores payload verbatim with received_at = now and processed = false.
	Append(ctx context.Context, payload json.RawMessage) (*domain.IntakeRecord, error)
	GetByID(ctx context.Context, id int64) (*domain.IntakeRecord, error)
	// ListUnsynced returns records with no checkpoint, ascending by id.
	ListUnsynced(ctx context.Context) ([]*domain.IntakeRecord, error)
	// ListUnprocessed returns up to limit records with processed = false, oldest received_at first.
	ListUnprocessed(ctx context.Context, limit int32) ([]*domain.IntakeRecord, error)
	// MarkProcessed sets processed = true. Marking an already processed record is a no-op.
	MarkProcessed(ctx context.Context, id int64) error
	// BeginCheckpoint opens a local transaction for writing one checkpoint.
	BeginCheckpoint(ctx context.Context) (CheckpointTx, error)
}

// CheckpointTx is a local transaction on the intake log store.
type CheckpointTx interface {
	CreateCheckpoint(ctx context.Context, holdingID int64, syncedAt time.Time) (*domain.Checkpoint, error)
	Commit() error
	Rollback() error
}
