package deadletter

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"sales-pipeline/internal/deadletter/dlqtest"
)

func TestStore_Append(t *testing.T) {
	repo := &dlqtest.MemoryRepository{}
	store := NewStore(repo)
	payload := json.RawMessage(`{"sale_id": "S1", "extra": [1, 2]}`)

	saved, err := store.Append(context.Background(), payload, []string{"first", "second"}, "sales")
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if saved.ID == 0 {
		t.Error("saved entry should have an id")
	}
	if string(saved.OriginalPayload) != string(payload) {
		t.Errorf("payload = %s, want %s", saved.OriginalPayload, payload)
	}
	if len(saved.ValidationErrors) != 2 || saved.ValidationErrors[0] != "first" || saved.ValidationErrors[1] != "second" {
		t.Errorf("errors = %v, want [first second]", saved.ValidationErrors)
	}
	if saved.SchemaType != "sales" {
		t.Errorf("schema_type = %q, want %q", saved.SchemaType, "sales")
	}
	if saved.FailedAt.IsZero() {
		t.Error("FailedAt should be set")
	}
	if saved.RetryCount != 0 || saved.LastRetryAt != nil {
		t.Error("retry bookkeeping should stay unset")
	}
}

func TestStore_Append_KeepsDuplicates(t *testing.T) {
	repo := &dlqtest.MemoryRepository{}
	store := NewStore(repo)
	payload := json.RawMessage(`{}`)
	for i := 0; i < 2; i++ {
		if _, err := store.Append(context.Background(), payload, []string{"bad"}, "sales"); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if n, _ := store.Size(context.Background()); n != 2 {
		t.Errorf("size = %d, want 2", n)
	}
}

func TestStore_Append_RepoError(t *testing.T) {
	repoErr := errors.New("dlq down")
	store := NewStore(&dlqtest.MemoryRepository{CreateErr: repoErr})
	_, err := store.Append(context.Background(), json.RawMessage(`{}`), nil, "sales")
	if !errors.Is(err, repoErr) {
		t.Errorf("Append error = %v, want wrapping %v", err, repoErr)
	}
}

func TestStore_Stats(t *testing.T) {
	repo := &dlqtest.MemoryRepository{}
	store := NewStore(repo)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	store.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	ctx := context.Background()
	for _, schema := range []string{"sales", "sales", "inventory"} {
		if _, err := store.Append(ctx, json.RawMessage(`{}`), []string{"x"}, schema); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 2 {
		t.Fatalf("len(stats) = %d, want 2", len(stats))
	}
	if stats[0].SchemaType != "inventory" || stats[0].Count != 1 {
		t.Errorf("stats[0] = %+v", stats[0])
	}
	sales := stats[1]
	if sales.Count != 2 {
		t.Errorf("sales count = %d, want 2", sales.Count)
	}
	if !sales.OldestFailure.Equal(base.Add(time.Minute)) || !sales.NewestFailure.Equal(base.Add(2*time.Minute)) {
		t.Errorf("sales window = %v..%v", sales.OldestFailure, sales.NewestFailure)
	}
}

func TestStore_List_NewestFirst(t *testing.T) {
	repo := &dlqtest.MemoryRepository{}
	store := NewStore(repo)
	ctx := context.Background()
	for _, p := range []string{`{"n":1}`, `{"n":2}`, `{"n":3}`} {
		_, _ = store.Append(ctx, json.RawMessage(p), nil, "sales")
	}
	list, err := store.List(ctx, 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || string(list[0].OriginalPayload) != `{"n":3}` {
		t.Errorf("List(2, 0) = %v", list)
	}
	list, _ = store.List(ctx, 10, 2)
	if len(list) != 1 || string(list[0].OriginalPayload) != `{"n":1}` {
		t.Errorf("List(10, 2) = %v", list)
	}
}
