// Package dlqtest provides an in-memory dead-letter repository for tests.
package dlqtest

import (
	"context"
	"sort"
	"sync"

	"sales-pipeline/internal/deadletter/domain"
	"sales-pipeline/internal/deadletter/repository"
)

var _ repository.Repository = (*MemoryRepository)(nil)

// MemoryRepository implements the dead-letter repository interface in memory.
// Set CreateErr or ReadErr to make writes or reads fail.
type MemoryRepository struct {
	mu        sync.Mutex
	entries   []*domain.Entry
	CreateErr error
	ReadErr   error
}

func (m *MemoryRepository) Create(ctx context.Context, e *domain.Entry) (*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	saved := *e
	saved.ID = int64(len(m.entries) + 1)
	m.entries = append(m.entries, &saved)
	return &saved, nil
}

func (m *MemoryRepository) Stats(ctx context.Context) ([]*domain.SchemaStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	by := map[string]*domain.SchemaStats{}
	for _, e := range m.entries {
		s, ok := by[e.SchemaType]
		if !ok {
			s = &domain.SchemaStats{SchemaType: e.SchemaType, OldestFailure: e.FailedAt, NewestFailure: e.FailedAt}
			by[e.SchemaType] = s
		}
		s.Count++
		if e.FailedAt.Before(s.OldestFailure) {
			s.OldestFailure = e.FailedAt
		}
		if e.FailedAt.After(s.NewestFailure) {
			s.NewestFailure = e.FailedAt
		}
	}
	out := make([]*domain.SchemaStats, 0, len(by))
	for _, s := range by {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaType < out[j].SchemaType })
	return out, nil
}

func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return 0, m.ReadErr
	}
	return int64(len(m.entries)), nil
}

func (m *MemoryRepository) List(ctx context.Context, limit, offset int32) ([]*domain.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	var out []*domain.Entry
	for i := len(m.entries) - 1 - int(offset); i >= 0 && len(out) < int(limit); i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}

// Entries returns a snapshot of stored entries in insertion order.
func (m *MemoryRepository) Entries() []*domain.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Entry, len(m.entries))
	copy(out, m.entries)
	return out
}
