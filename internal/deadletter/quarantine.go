// Package deadletter quarantines payloads that failed validation.
package deadletter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"sales-pipeline/internal/deadletter/domain"
	dlqrepo "sales-pipeline/internal/deadletter/repository"
)

// Quarantiner appends failed payloads to the dead-letter store. Used by the validator loop.
type Quarantiner interface {
	Append(ctx context.Context, payload json.RawMessage, validationErrors []string, schemaType string) (*domain.Entry, error)
}

// Store implements Quarantiner on top of the dead-letter repository.
type Store struct {
	repo dlqrepo.Repository
	now  func() time.Time
}

// NewStore returns a Store that persists to repo.
func NewStore(repo dlqrepo.Repository) *Store {
	return &Store{repo: repo, now: func() time.Time { return time.Now().UTC() }}
}

// Append writes one entry with the payload verbatim and errors in the order given.
// Every call creates a new row; the same payload quarantined twice yields two entries.
func (s *Store) Append(ctx context.Context, payload json.RawMessage, validationErrors []string, schemaType string) (*domain.Entry, error) {
	if s.repo == nil {
		return nil, fmt.Errorf("deadletter: no repository")
	}
	msgs := make([]string, len(validationErrors))
	copy(msgs, validationErrors)
	entry := &domain.Entry{
		OriginalPayload:  payload,
		ValidationErrors: msgs,
		SchemaType:       schemaType,
		FailedAt:         s.now(),
	}
	saved, err := s.repo.Create(ctx, entry)
	if err != nil {
		return nil, fmt.Errorf("quarantine %s payload: %w", schemaType, err)
	}
	return saved, nil
}

// Stats returns entry counts grouped by schema type.
func (s *Store) Stats(ctx context.Context) ([]*domain.SchemaStats, error) {
	return s.repo.Stats(ctx)
}

// Size returns the total number of entries.
func (s *Store) Size(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}

// List returns entries newest first.
func (s *Store) List(ctx context.Context, limit, offset int32) ([]*domain.Entry, error) {
	return s.repo.List(ctx, limit, offset)
}
