package replicator

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus/hooks/test"

	"sales-pipeline/internal/intake/intaketest"
	"sales-pipeline/internal/mainstore/mainstoretest"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/pipeline"
)

const sale = `{"sale_id":"S1001","sale_date":"2024-01-01T00:00:00","customer_id":5,"item_id":10,"item_name":"Hat","quantity":2,"unit_price":9.99,"total_price":19.98}`

func newTestReplicator(t *testing.T, intake *intaketest.MemoryRepository, main *mainstoretest.MemoryRepository) (*Replicator, *prometheus.Registry) {
	t.Helper()
	logger, _ := test.NewNullLogger()
	reg := prometheus.NewRegistry()
	return New(intake, main, metrics.NewReplicator(reg), nil, logger), reg
}

// metricValue returns the value of the named counter or gauge series carrying the given label pair.
func metricValue(t *testing.T, reg *prometheus.Registry, name, label, value string) float64 {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("Gather: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			matched := label == ""
			for _, lp := range m.GetLabel() {
				if lp.GetName() == label && lp.GetValue() == value {
					matched = true
				}
			}
			if !matched {
				continue
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func appendN(t *testing.T, intake *intaketest.MemoryRepository, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if _, err := intake.Append(context.Background(), json.RawMessage(sale)); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
}

func TestTick_EndToEnd(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)
	rec, _ := intake.Append(context.Background(), json.RawMessage(sale))

	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if report.Pending != 1 || report.Synced != 1 || report.Failed != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.CycleID == "" {
		t.Error("report should carry a cycle id")
	}

	rows := main.Rows()
	if len(rows) != 1 {
		t.Fatalf("main rows = %d, want 1", len(rows))
	}
	if string(rows[0].Payload) != sale {
		t.Errorf("payload = %s, want %s", rows[0].Payload, sale)
	}
	if !rows[0].ReceivedAt.Equal(rec.ReceivedAt) {
		t.Errorf("received_at = %v, want %v", rows[0].ReceivedAt, rec.ReceivedAt)
	}
	cps := intake.Checkpoints()
	if len(cps) != 1 || cps[0].HoldingID != rec.ID {
		t.Errorf("checkpoints = %+v, want one for record %d", cps, rec.ID)
	}
	if intake.Records()[0].Processed {
		t.Error("replicator must not touch the processed flag")
	}
}

func TestTick_Idempotent(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)
	appendN(t, intake, 3)

	if _, err := r.Tick(context.Background()); err != nil {
		t.Fatalf("first Tick: %v", err)
	}
	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if report.Pending != 0 || report.Synced != 0 {
		t.Errorf("second report = %+v, want nothing to do", report)
	}
	if n := len(main.Rows()); n != 3 {
		t.Errorf("main rows = %d, want 3", n)
	}
	if n := len(intake.Checkpoints()); n != 3 {
		t.Errorf("checkpoints = %d, want 3", n)
	}
}

func TestTick_CheckpointCommitFailureReplicatesAgain(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)
	appendN(t, intake, 1)

	failOnce := true
	intake.CommitErr = func([]int64) error {
		if failOnce {
			failOnce = false
			return errors.New("connection reset")
		}
		return nil
	}

	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("first report = %+v, want one failure", report)
	}
	if len(main.Rows()) != 1 || len(intake.Checkpoints()) != 0 {
		t.Fatalf("after crash window: main rows = %d, checkpoints = %d; want 1, 0", len(main.Rows()), len(intake.Checkpoints()))
	}

	if _, err := r.Tick(context.Background()); err != nil {
		t.Fatalf("second Tick: %v", err)
	}
	if n := len(main.Rows()); n != 2 {
		t.Errorf("main rows = %d, want 2 (duplicate from at-least-once replay)", n)
	}
	if n := len(intake.Checkpoints()); n != 1 {
		t.Errorf("checkpoints = %d, want 1", n)
	}
}

func TestTick_MainInsertFailureRollsBack(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, reg := newTestReplicator(t, intake, main)
	appendN(t, intake, 3)
	_, _ = intake.Append(context.Background(), json.RawMessage(`{"sale_id":"S-bad"}`))

	main.InsertErr = func(p json.RawMessage) error {
		if string(p) == `{"sale_id":"S-bad"}` {
			return errors.New("value too long")
		}
		return nil
	}

	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if report.Synced != 3 || report.Failed != 1 {
		t.Errorf("report = %+v, want 3 synced and 1 failed", report)
	}
	unsynced, _ := intake.ListUnsynced(context.Background())
	if len(unsynced) != 1 || unsynced[0].ID != 4 {
		t.Errorf("unsynced = %+v, want record 4 only", unsynced)
	}
	if got := metricValue(t, reg, "sync_records_total", "status", "success"); got != 3 {
		t.Errorf("success counter = %v, want 3", got)
	}
	if got := metricValue(t, reg, "sync_records_total", "status", "error"); got != 1 {
		t.Errorf("error counter = %v, want 1", got)
	}
}

func TestTick_CheckpointInsertFailureRollsBackMain(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)
	appendN(t, intake, 1)
	intake.CheckpointErr = func(int64) error { return errors.New("deadlock detected") }

	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if report.Failed != 1 {
		t.Errorf("report = %+v", report)
	}
	if n := len(main.Rows()); n != 0 {
		t.Errorf("main rows = %d, want 0 after rollback", n)
	}
}

func TestReplicate_ErrorsAreTransientWrites(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{BeginErr: errors.New("too many connections")}
	r, _ := newTestReplicator(t, intake, main)
	rec, _ := intake.Append(context.Background(), json.RawMessage(sale))

	err := r.replicate(context.Background(), rec)
	if !errors.Is(err, pipeline.ErrTransientWrite) {
		t.Errorf("error = %v, want ErrTransientWrite", err)
	}
}

func TestTick_ListFailureAbortsTick(t *testing.T) {
	intake := &intaketest.MemoryRepository{ListErr: errors.New("dial tcp: connection refused")}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)

	_, err := r.Tick(context.Background())
	if !errors.Is(err, pipeline.ErrConnectivity) {
		t.Errorf("error = %v, want ErrConnectivity", err)
	}
}

func TestTick_EmptyQueue(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, reg := newTestReplicator(t, intake, main)
	r.metrics.QueueSize(5)

	report, err := r.Tick(context.Background())
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if report.Pending != 0 || report.Synced != 0 || report.Failed != 0 {
		t.Errorf("report = %+v, want zero work", report)
	}
	if n := len(main.Rows()); n != 0 {
		t.Errorf("main rows = %d, want 0", n)
	}
	if got := metricValue(t, reg, "sync_queue_size", "", ""); got != 0 {
		t.Errorf("queue size = %v, want 0", got)
	}
}

func TestTick_QueueDepthRecordedBeforeProcessing(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, reg := newTestReplicator(t, intake, main)
	appendN(t, intake, 4)

	if _, err := r.Tick(context.Background()); err != nil {
		t.Fatalf("Tick: %v", err)
	}
	if got := metricValue(t, reg, "sync_queue_size", "", ""); got != 4 {
		t.Errorf("queue size = %v, want 4", got)
	}
}

func TestTick_CancelledContextStopsBetweenRecords(t *testing.T) {
	intake := &intaketest.MemoryRepository{}
	main := &mainstoretest.MemoryRepository{}
	r, _ := newTestReplicator(t, intake, main)
	appendN(t, intake, 3)

	ctx, cancel := context.WithCancel(context.Background())
	main.InsertErr = func(json.RawMessage) error {
		cancel()
		return nil
	}
	report, err := r.Tick(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
	if report.Synced != 1 {
		t.Errorf("synced = %d, want 1 (the record in flight)", report.Synced)
	}
}

func TestRunTick(t *testing.T) {
	intake := &intaketest.MemoryRepository{ListErr: errors.New("down")}
	r, _ := newTestReplicator(t, intake, &mainstoretest.MemoryRepository{})
	if err := r.RunTick(context.Background()); err == nil {
		t.Error("RunTick should surface the tick error")
	}
}
