package repository

import (
	"context"

	"sales-pipeline/internal/deadletter/domain"
)

// Repository defines persistence for the dead-letter store.
type Repository interface {
	// Create stores e. It never rejects an entry because of its payload shape.
	Create(ctx context.Context, e *domain.Entry) (*domain.Entry, error)
	Stats(ctx context.Context) ([]*domain.SchemaStats, error)
	Count(ctx context.Context) (int64, error)
	// List returns entries newest first, paginated by limit and offset.
	List(ctx context.Context, limit, offset int32) ([]*domain.Entry, error)
}
