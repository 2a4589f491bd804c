// Package replicator copies intake log records into the main store and checkpoints them.
package replicator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	intakedomain "sales-pipeline/internal/intake/domain"
	intakerepo "sales-pipeline/internal/intake/repository"
	"sales-pipeline/internal/logging"
	mainrepo "sales-pipeline/internal/mainstore/repository"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/pipeline"
	"sales-pipeline/internal/telemetry"
	tracing "sales-pipeline/internal/telemetry/otel"
)

const source = "replicator"

// Report summarizes one tick.
type Report struct {
	CycleID  string
	Pending  int
	Synced   int
	Failed   int
	Duration time.Duration
}

// Replicator moves unsynced intake records into the main store. It only ever writes checkpoints
// on the intake log; the processed flag belongs to the validator.
type Replicator struct {
	intake  intakerepo.Repository
	main    mainrepo.Repository
	metrics *metrics.Replicator
	events  telemetry.EventEmitter
	logger  logrus.FieldLogger
	now     func() time.Time
}

// New returns a Replicator. m and events may be nil.
func New(intake intakerepo.Repository, main mainrepo.Repository, m *metrics.Replicator, events telemetry.EventEmitter, logger logrus.FieldLogger) *Replicator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Replicator{
		intake:  intake,
		main:    main,
		metrics: m,
		events:  events,
		logger:  logging.Component(logger, source),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RunTick adapts Tick to scheduler.TickFunc.
func (r *Replicator) RunTick(ctx context.Context) error {
	_, err := r.Tick(ctx)
	return err
}

// Tick replicates every record that has no checkpoint. A failure to list records aborts the tick
// with pipeline.ErrConnectivity; a failure on one record is counted and the tick moves on.
// Delivery is at-least-once: if the main store commits and the checkpoint commit then fails,
// the record is copied again on the next tick.
func (r *Replicator) Tick(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	report = &Report{CycleID: uuid.NewString()}
	logger := r.logger.WithField("cycle_id", report.CycleID)

	ctx, span := tracing.StartSpan(ctx, "replicator.tick", attribute.String("cycle_id", report.CycleID))
	defer func() {
		report.Duration = time.Since(start)
		r.metrics.CycleDone(report.Duration)
		span.SetAttributes(
			attribute.Int("pending", report.Pending),
			attribute.Int("synced", report.Synced),
			attribute.Int("failed", report.Failed),
		)
		tracing.EndSpan(span, err)
	}()

	records, err := r.intake.ListUnsynced(ctx)
	if err != nil {
		return report, fmt.Errorf("%w: list unsynced records: %w", pipeline.ErrConnectivity, err)
	}
	report.Pending = len(records)
	r.metrics.QueueSize(len(records))

	if len(records) == 0 {
		logger.Debug("no unsynced records")
		return report, nil
	}
	logger.WithField("pending", len(records)).Info("replicating records")

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			logger.WithField("remaining", report.Pending-report.Synced-report.Failed).Warn("tick cancelled, remaining records left for next tick")
			return report, err
		}
		recLogger := logger.WithField("record_id", rec.ID)
		if err := r.replicate(ctx, rec); err != nil {
			report.Failed++
			r.metrics.Failed()
			recLogger.WithError(err).Error("replication failed, record stays unsynced")
			continue
		}
		report.Synced++
		r.metrics.Synced()
		recLogger.Debug("record replicated")

		event := telemetry.NewEvent(telemetry.EventRecordReplicated, source, rec.ID)
		event.CycleID = report.CycleID
		telemetry.EmitAsync(r.events, r.logger, event)
	}

	logger.WithFields(logrus.Fields{
		"synced": report.Synced,
		"failed": report.Failed,
	}).Info("replication cycle completed")
	return report, nil
}

// replicate writes rec to the main store and its checkpoint to the intake log, each in its own
// local transaction. Both stay uncommitted until both inserts succeed.
func (r *Replicator) replicate(ctx context.Context, rec *intakedomain.IntakeRecord) error {
	syncedAt := r.now()

	mainTx, err := r.main.Begin(ctx)
	if err != nil {
		return fmt.Errorf("%w: begin main store transaction: %w", pipeline.ErrTransientWrite, err)
	}
	if _, err := mainTx.Insert(ctx, rec.Payload, rec.ReceivedAt, syncedAt); err != nil {
		_ = mainTx.Rollback()
		return fmt.Errorf("%w: insert into main store: %w", pipeline.ErrTransientWrite, err)
	}

	cpTx, err := r.intake.BeginCheckpoint(ctx)
	if err != nil {
		_ = mainTx.Rollback()
		return fmt.Errorf("%w: begin checkpoint transaction: %w", pipeline.ErrTransientWrite, err)
	}
	if _, err := cpTx.CreateCheckpoint(ctx, rec.ID, syncedAt); err != nil {
		_ = mainTx.Rollback()
		_ = cpTx.Rollback()
		return fmt.Errorf("%w: write checkpoint: %w", pipeline.ErrTransientWrite, err)
	}

	if err := mainTx.Commit(); err != nil {
		_ = cpTx.Rollback()
		return fmt.Errorf("%w: commit main store: %w", pipeline.ErrTransientWrite, err)
	}
	if err := cpTx.Commit(); err != nil {
		return fmt.Errorf("%w: commit checkpoint after main store commit, record will be copied again: %w", pipeline.ErrTransientWrite, err)
	}
	return nil
}
