package filedrop

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"

	"sales-pipeline/internal/intake/intaketest"
)

const sale = `{"sale_id":"S1001","sale_date":"2024-01-01T00:00:00","customer_id":5,"item_id":10,"item_name":"Hat","quantity":2,"unit_price":9.99,"total_price":19.98}`

func newTestWatcher(t *testing.T, repo *intaketest.MemoryRepository) (*Watcher, string) {
	t.Helper()
	dir := t.TempDir()
	logger, _ := test.NewNullLogger()
	w := New(dir, repo, nil, logger)
	w.debounce = 20 * time.Millisecond
	for _, sub := range []string{processedDir, failedDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	return w, dir
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestIngestFile(t *testing.T) {
	testCases := []struct {
		name    string
		file    string
		content string
		want    int
	}{
		{"single object", "one.json", sale, 1},
		{"array", "batch.json", "[" + sale + "," + sale + "]", 2},
		{"ndjson", "batch.ndjson", sale + "\n\n" + sale + "\n", 2},
		{"jsonl", "batch.jsonl", sale + "\n", 1},
		{"csv", "batch.csv", "sale_id,quantity,unit_price\nS1,2,9.99\nS2,1,5\n", 2},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &intaketest.MemoryRepository{}
			w, dir := newTestWatcher(t, repo)
			path := writeFile(t, dir, tc.file, tc.content)

			n, err := w.IngestFile(context.Background(), path)
			if err != nil {
				t.Fatalf("IngestFile: %v", err)
			}
			if n != tc.want || len(repo.Records()) != tc.want {
				t.Errorf("appended = %d (store %d), want %d", n, len(repo.Records()), tc.want)
			}
			if exists(path) {
				t.Error("file should have been moved")
			}
			if !exists(filepath.Join(dir, processedDir, tc.file)) {
				t.Error("file should be in processed/")
			}
		})
	}
}

func TestIngestFile_CSVTypes(t *testing.T) {
	repo := &intaketest.MemoryRepository{}
	w, dir := newTestWatcher(t, repo)
	path := writeFile(t, dir, "sales.csv", "sale_id,customer_id,unit_price,item_name\nS1001,5,9.99,Hat\n")

	if _, err := w.IngestFile(context.Background(), path); err != nil {
		t.Fatalf("IngestFile: %v", err)
	}
	want := `{"sale_id":"S1001","customer_id":5,"unit_price":9.99,"item_name":"Hat"}`
	if got := string(repo.Records()[0].Payload); got != want {
		t.Errorf("payload = %s, want %s", got, want)
	}
}

func TestIngestFile_Unparseable(t *testing.T) {
	for _, tc := range []struct{ file, content string }{
		{"bad.json", `{"sale_id":`},
		{"scalars.json", `[1,2]`},
		{"bad.ndjson", sale + "\n[1]\n"},
		{"ragged.csv", "a,b\n1\n"},
		{"empty.json", ""},
	} {
		t.Run(tc.file, func(t *testing.T) {
			repo := &intaketest.MemoryRepository{}
			w, dir := newTestWatcher(t, repo)
			path := writeFile(t, dir, tc.file, tc.content)

			if _, err := w.IngestFile(context.Background(), path); err == nil {
				t.Fatal("IngestFile should fail")
			}
			if len(repo.Records()) != 0 {
				t.Error("nothing should be appended from an unparseable file")
			}
			if !exists(filepath.Join(dir, failedDir, tc.file)) {
				t.Error("file should be in failed/")
			}
		})
	}
}

func TestIngestFile_StoreFailureKeepsFile(t *testing.T) {
	repo := &intaketest.MemoryRepository{AppendErr: errors.New("connection refused")}
	w, dir := newTestWatcher(t, repo)
	path := writeFile(t, dir, "batch.json", sale)

	if _, err := w.IngestFile(context.Background(), path); err == nil {
		t.Fatal("IngestFile should fail")
	}
	if !exists(path) {
		t.Error("file should stay in place for a retry")
	}
}

func TestIngestFile_NameCollision(t *testing.T) {
	repo := &intaketest.MemoryRepository{}
	w, dir := newTestWatcher(t, repo)
	for i := 0; i < 2; i++ {
		path := writeFile(t, dir, "daily.json", sale)
		if _, err := w.IngestFile(context.Background(), path); err != nil {
			t.Fatalf("IngestFile %d: %v", i+1, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(dir, processedDir))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("processed/ has %d files, want 2", len(entries))
	}
}

func TestSupported(t *testing.T) {
	for name, want := range map[string]bool{
		"a.json": true, "a.JSON": true, "a.ndjson": true, "a.jsonl": true, "a.csv": true,
		"a.txt": false, "a.json.tmp": false, "README": false,
	} {
		if got := supported(name); got != want {
			t.Errorf("supported(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestRun_StartupScanAndWatch(t *testing.T) {
	repo := &intaketest.MemoryRepository{}
	w, dir := newTestWatcher(t, repo)
	writeFile(t, dir, "existing.json", sale)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return len(repo.Records()) == 1 })
	writeFile(t, dir, "new.ndjson", sale+"\n"+sale+"\n")
	waitFor(t, func() bool { return len(repo.Records()) == 3 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if !exists(filepath.Join(dir, processedDir, "new.ndjson")) {
		t.Error("new.ndjson should be in processed/")
	}
}

func TestRun_MissingDir(t *testing.T) {
	logger, _ := test.NewNullLogger()
	w := New(filepath.Join(t.TempDir(), "a", "b"), &intaketest.MemoryRepository{}, nil, logger)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// MkdirAll creates the tree, so a missing directory is not an error.
	if err := w.Run(ctx); err != nil {
		t.Errorf("Run = %v, want nil", err)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
