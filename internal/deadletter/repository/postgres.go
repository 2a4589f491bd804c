package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"sales-pipeline/internal/db/sqlc/gen"
	"sales-pipeline/internal/deadletter/domain"
)

type PostgresRepository struct {
	queries *gen.Queries
}

// NewPostgresRepository returns a dead-letter repository that uses the given db for persistence.
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{queries: gen.New(db)}
}

// Create persists e. A payload that is not valid JSON is stored as a JSON string so the row is never rejected.
func (r *PostgresRepository) Create(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	msgs := e.ValidationErrors
	if msgs == nil {
		msgs = []string{}
	}
	errs, err := json.Marshal(msgs)
	if err != nil {
		return nil, fmt.Errorf("encode validation errors: %w", err)
	}
	f, err := r.queries.CreateFailedValidation(ctx, gen.CreateFailedValidationParams{
		OriginalData:     storablePayload(e.OriginalPayload),
		ValidationErrors: errs,
		SchemaType:       e.SchemaType,
		FailedAt:         e.FailedAt,
	})
	if err != nil {
		return nil, err
	}
	return genFailedValidationToDomain(&f), nil
}

func (r *PostgresRepository) Stats(ctx context.Context) ([]*domain.SchemaStats, error) {
	rows, err := r.queries.FailedValidationStats(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.SchemaStats, len(rows))
	for i, row := range rows {
		out[i] = &domain.SchemaStats{
			SchemaType:    row.SchemaType,
			Count:         row.Count,
			OldestFailure: row.OldestFailure,
			NewestFailure: row.NewestFailure,
		}
	}
	return out, nil
}

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	return r.queries.CountFailedValidations(ctx)
}

func (r *PostgresRepository) List(ctx context.Context, limit, offset int32) ([]*domain.Entry, error) {
	list, err := r.queries.ListFailedValidations(ctx, gen.ListFailedValidationsParams{Limit: limit, Offset: offset})
	if err != nil {
		return nil, err
	}
	out := make([]*domain.Entry, len(list))
	for i := range list {
		out[i] = genFailedValidationToDomain(&list[i])
	}
	return out, nil
}

// storablePayload returns p unchanged when it is valid JSON, else p encoded as a JSON string.
func storablePayload(p json.RawMessage) json.RawMessage {
	if len(p) > 0 && json.Valid(p) {
		return p
	}
	b, _ := json.Marshal(string(p))
	return b
}

func genFailedValidationToDomain(f *gen.FailedValidation) *domain.Entry {
	if f == nil {
		return nil
	}
	var msgs []string
	if err := json.Unmarshal(f.ValidationErrors, &msgs); err != nil {
		msgs = []string{string(f.ValidationErrors)}
	}
	e := &domain.Entry{
		ID:               f.ID,
		OriginalPayload:  f.OriginalData,
		ValidationErrors: msgs,
		SchemaType:       f.SchemaType,
		FailedAt:         f.FailedAt,
		RetryCount:       f.RetryCount,
	}
	if f.LastRetryAt.Valid {
		t := f.LastRetryAt.Time
		e.LastRetryAt = &t
	}
	return e
}
