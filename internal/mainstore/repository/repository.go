package repository

import (
	"context"
	"encoding/json"
	"time"

	"sales-pipeline/internal/mainstore/domain"
)

// Repository defines persistence for the main store.
type Repository interface {
	// Begin opens a local transaction for inserting one replicated record.
	Begin(ctx context.Context) (Tx, error)
	Count(ctx context.Context) (int64, error)
}

// Tx is a local transaction on the main store.
type Tx interface {
	Insert(ctx context.Context, payload json.RawMessage, receivedAt, syncedAt time.Time) (*domain.MainRecord, error)
	Commit() error
	Rollback() error
}
