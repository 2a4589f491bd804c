package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"sales-pipeline/internal/db/sqlc/gen"
	"sales-pipeline/internal/intake/domain"
)

type PostgresRepository struct {
	db      *sql.DB
	queries *gen.Queries
}

// NewPostgresRepository returns an intake log repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, queries: gen.New(db)}
}

// Append inserts payload and returns the stored record with its assigned id.
func (r *PostgresRepository) Append(ctx context.Context, payload json.RawMessage) (*domain.IntakeRecord, error) {
	h, err := r.queries.CreateHoldingIngest(ctx, gen.CreateHoldingIngestParams{
		Data:       payload,
		ReceivedAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}
	return genHoldingIngestToDomain(&h), nil
}

// GetByID returns the record for id, or nil if not found.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*domain.IntakeRecord, error) {
	h, err := r.queries.GetHoldingIngest(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return genHoldingIngestToDomain(&h), nil
}

func (r *PostgresRepository) ListUnsynced(ctx context.Context) ([]*domain.IntakeRecord, error) {
	list, err := r.queries.ListUnsyncedHoldingIngest(ctx)
	if err != nil {
		return nil, err
	}
	return genHoldingIngestsToDomain(list), nil
}

func (r *PostgresRepository) ListUnprocessed(ctx context.Context, limit int32) ([]*domain.IntakeRecord, error) {
	list, err := r.queries.ListUnprocessedHoldingIngest(ctx, limit)
	if err != nil {
		return nil, err
	}
	return genHoldingIngestsToDomain(list), nil
}

func (r *PostgresRepository) MarkProcessed(ctx context.Context, id int64) error {
	return r.queries.MarkHoldingIngestProcessed(ctx, id)
}

// BeginCheckpoint starts a transaction on the intake log store. Caller must Commit or Rollback.
func (r *PostgresRepository) BeginCheckpoint(ctx context.Context) (CheckpointTx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresCheckpointTx{tx: tx, queries: r.queries.WithTx(tx)}, nil
}

type postgresCheckpointTx struct {
	tx      *sql.Tx
	queries *gen.Queries
}

func (t *postgresCheckpointTx) CreateCheckpoint(ctx context.Context, holdingID int64, syncedAt time.Time) (*domain.Checkpoint, error) {
	s, err := t.queries.CreateSyncedRecord(ctx, gen.CreateSyncedRecordParams{HoldingID: holdingID, SyncedAt: syncedAt})
	if err != nil {
		return nil, err
	}
	return &domain.Checkpoint{ID: s.ID, HoldingID: s.HoldingID, SyncedAt: s.SyncedAt}, nil
}

func (t *postgresCheckpointTx) Commit() error   { return t.tx.Commit() }
func (t *postgresCheckpointTx) Rollback() error { return t.tx.Rollback() }

func genHoldingIngestsToDomain(list []gen.HoldingIngest) []*domain.IntakeRecord {
	out := make([]*domain.IntakeRecord, len(list))
	for i := range list {
		out[i] = genHoldingIngestToDomain(&list[i])
	}
	return out
}

func genHoldingIngestToDomain(h *gen.HoldingIngest) *domain.IntakeRecord {
	if h == nil {
		return nil
	}
	return &domain.IntakeRecord{
		ID:         h.ID,
		Payload:    h.Data,
		ReceivedAt: h.ReceivedAt,
		Processed:  h.Processed,
		CreatedAt:  h.CreatedAt,
	}
}
