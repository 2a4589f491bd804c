package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"sales-pipeline/internal/db/sqlc/gen"
	"sales-pipeline/internal/mainstore/domain"
)

type PostgresRepository struct {
	db      *sql.DB
	queries *gen.Queries
}

// NewPostgresRepository returns a main store repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db, queries: gen.New(db)}
}

// Begin starts a transaction on the main store. Caller must Commit or Rollback.
func (r *PostgresRepository) Begin(ctx context.Context) (Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &postgresTx{tx: tx, queries: r.queries.WithTx(tx)}, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountMainIngest(ctx)
}

type postgresTx struct {
	tx      *sql.Tx
	queries *gen.Queries
}

func (t *postgresTx) Insert(ctx context.Context, payload json.RawMessage, receivedAt, syncedAt time.Time) (*domain.MainRecord, error) {
	m, err := t.queries.CreateMainIngest(ctx, gen.CreateMainIngestParams{
		Data:       payload,
		ReceivedAt: receivedAt,
		SyncedAt:   syncedAt,
	})
	if err != nil {
		return nil, err
	}
	return &domain.MainRecord{
		ID:         m.ID,
		Payload:    m.Data,
		ReceivedAt: m.ReceivedAt,
		SyncedAt:   m.SyncedAt,
		CreatedAt:  m.CreatedAt,
	}, nil
}

func (t *postgresTx) Commit() error   { return t.tx.Commit() }
func (t *postgresTx) Rollback() error { return t.tx.Rollback() }
