// Package mainstoretest provides an in-memory main store repository for tests.
package mainstoretest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"sales-pipeline/internal/mainstore/domain"
	"sales-pipeline/internal/mainstore/repository"
)

var _ repository.Repository = (*MemoryRepository)(nil)

var errTxDone = errors.New("mainstoretest: transaction already finished")

// MemoryRepository implements the main store repository in memory. Inserted rows become visible on Commit.
// BeginErr and CommitErr fail every Begin or Commit; InsertErr is consulted per payload.
type MemoryRepository struct {
	mu        sync.Mutex
	rows      []*domain.MainRecord
	BeginErr  error
	InsertErr func(payload json.RawMessage) error
	CommitErr error
}

func (m *MemoryRepository) Begin(ctx context.Context) (repository.Tx, error) {
	if m.BeginErr != nil {
		return nil, m.BeginErr
	}
	return &memoryTx{store: m}, nil
}

func (m *MemoryRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.rows)), nil
}

// Rows returns the committed rows in insertion order.
func (m *MemoryRepository) Rows() []*domain.MainRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.MainRecord, len(m.rows))
	copy(out, m.rows)
	return out
}

type memoryTx struct {
	store   *MemoryRepository
	pending []*domain.MainRecord
	done    bool
}

func (t *memoryTx) Insert(ctx context.Context, payload json.RawMessage, receivedAt, syncedAt time.Time) (*domain.MainRecord, error) {
	if t.store.InsertErr != nil {
		if err := t.store.InsertErr(payload); err != nil {
			return nil, err
		}
	}
	r := &domain.MainRecord{Payload: payload, ReceivedAt: receivedAt, SyncedAt: syncedAt, CreatedAt: syncedAt}
	t.pending = append(t.pending, r)
	return r, nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if t.store.CommitErr != nil {
		return t.store.CommitErr
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	for _, r := range t.pending {
		r.ID = int64(len(t.store.rows) + 1)
		t.store.rows = append(t.store.rows, r)
	}
	return nil
}

func (t *memoryTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.pending = nil
	return nil
}
