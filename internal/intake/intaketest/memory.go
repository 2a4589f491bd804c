// Package intaketest provides an in-memory intake log for tests.
package intaketest

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	"sales-pipeline/internal/intake/domain"
	"sales-pipeline/internal/intake/repository"
)

var _ repository.Repository = (*MemoryRepository)(nil)

var errTxDone = errors.New("intaketest: transaction already finished")

// MemoryRepository implements the intake repository in memory. Checkpoints written in a
// transaction become visible on Commit. The *Err fields and hooks inject failures.
type MemoryRepository struct {
	mu          sync.Mutex
	records     []*domain.IntakeRecord
	checkpoints []*domain.Checkpoint
	clock       time.Time

	AppendErr          error
	ListErr            error
	MarkErr            error
	BeginCheckpointErr error
	// CheckpointErr, if set, is called before each checkpoint insert; a non-nil result fails it.
	CheckpointErr func(holdingID int64) error
	// CommitErr, if set, is called on checkpoint commit; a non-nil result fails it and discards the write.
	CommitErr func(holdingIDs []int64) error
}

// Append stores payload. Each record gets a received_at one second after the previous one.
func (m *MemoryRepository) Append(ctx context.Context, payload json.RawMessage) (*domain.IntakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.AppendErr != nil {
		return nil, m.AppendErr
	}
	if m.clock.IsZero() {
		m.clock = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	m.clock = m.clock.Add(time.Second)
	rec := &domain.IntakeRecord{
		ID:         int64(len(m.records) + 1),
		Payload:    append(json.RawMessage(nil), payload...),
		ReceivedAt: m.clock,
		CreatedAt:  m.clock,
	}
	m.records = append(m.records, rec)
	return cloneRecord(rec), nil
}

// SetReceivedAt overrides a record's received_at so tests can control FIFO order.
func (m *MemoryRepository) SetReceivedAt(id int64, t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.records {
		if r.ID == id {
			r.ReceivedAt = t
		}
	}
}

func (m *MemoryRepository) GetByID(ctx context.Context, id int64) (*domain.IntakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for _, r := range m.records {
		if r.ID == id {
			return cloneRecord(r), nil
		}
	}
	return nil, nil
}

func (m *MemoryRepository) ListUnsynced(ctx context.Context) ([]*domain.IntakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	synced := map[int64]bool{}
	for _, c := range m.checkpoints {
		synced[c.HoldingID] = true
	}
	var out []*domain.IntakeRecord
	for _, r := range m.records {
		if !synced[r.ID] {
			out = append(out, cloneRecord(r))
		}
	}
	return out, nil
}

func (m *MemoryRepository) ListUnprocessed(ctx context.Context, limit int32) ([]*domain.IntakeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	var out []*domain.IntakeRecord
	for _, r := range m.records {
		if !r.Processed {
			out = append(out, cloneRecord(r))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].ReceivedAt.Equal(out[j].ReceivedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].ReceivedAt.Before(out[j].ReceivedAt)
	})
	if len(out) > int(limit) {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryRepository) MarkProcessed(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.MarkErr != nil {
		return m.MarkErr
	}
	for _, r := range m.records {
		if r.ID == id {
			r.Processed = true
		}
	}
	return nil
}

func (m *MemoryRepository) BeginCheckpoint(ctx context.Context) (repository.CheckpointTx, error) {
	if m.BeginCheckpointErr != nil {
		return nil, m.BeginCheckpointErr
	}
	return &memoryCheckpointTx{repo: m}, nil
}

// Checkpoints returns committed checkpoints in commit order.
func (m *MemoryRepository) Checkpoints() []*domain.Checkpoint {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.Checkpoint, len(m.checkpoints))
	copy(out, m.checkpoints)
	return out
}

// Records returns a snapshot of all records in id order.
func (m *MemoryRepository) Records() []*domain.IntakeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*domain.IntakeRecord, len(m.records))
	for i, r := range m.records {
		out[i] = cloneRecord(r)
	}
	return out
}

type memoryCheckpointTx struct {
	repo    *MemoryRepository
	pending []*domain.Checkpoint
	done    bool
}

func (t *memoryCheckpointTx) CreateCheckpoint(ctx context.Context, holdingID int64, syncedAt time.Time) (*domain.Checkpoint, error) {
	if t.repo.CheckpointErr != nil {
		if err := t.repo.CheckpointErr(holdingID); err != nil {
			return nil, err
		}
	}
	c := &domain.Checkpoint{HoldingID: holdingID, SyncedAt: syncedAt}
	t.pending = append(t.pending, c)
	return c, nil
}

func (t *memoryCheckpointTx) Commit() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	if t.repo.CommitErr != nil {
		ids := make([]int64, len(t.pending))
		for i, c := range t.pending {
			ids[i] = c.HoldingID
		}
		if err := t.repo.CommitErr(ids); err != nil {
			return err
		}
	}
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	for _, c := range t.pending {
		c.ID = int64(len(t.repo.checkpoints) + 1)
		t.repo.checkpoints = append(t.repo.checkpoints, c)
	}
	return nil
}

func (t *memoryCheckpointTx) Rollback() error {
	if t.done {
		return errTxDone
	}
	t.done = true
	t.pending = nil
	return nil
}

func cloneRecord(r *domain.IntakeRecord) *domain.IntakeRecord {
	c := *r
	c.Payload = append(json.RawMessage(nil), r.Payload...)
	return &c
}
