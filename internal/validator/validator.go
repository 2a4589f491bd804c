// Package validator runs the validation loop over the intake log: valid records are marked
// processed, invalid ones are quarantined in the dead-letter store.
package validator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"

	"sales-pipeline/internal/deadletter"
	intakedomain "sales-pipeline/internal/intake/domain"
	intakerepo "sales-pipeline/internal/intake/repository"
	"sales-pipeline/internal/logging"
	"sales-pipeline/internal/metrics"
	"sales-pipeline/internal/pipeline"
	"sales-pipeline/internal/telemetry"
	tracing "sales-pipeline/internal/telemetry/otel"
	"sales-pipeline/internal/validation"
)

const (
	source           = "validator"
	defaultBatchSize = 100
)

// DeadLetter is the part of the dead-letter store the loop needs.
type DeadLetter interface {
	deadletter.Quarantiner
	Size(ctx context.Context) (int64, error)
}

// Options tune a Validator.
type Options struct {
	// BatchSize caps the records read per tick. Zero means 100.
	BatchSize int32
	// QuarantineUnparseable sends payloads that cannot be decoded to the dead-letter store.
	// They are still left unprocessed.
	QuarantineUnparseable bool
}

// Report summarizes one tick.
type Report struct {
	CycleID      string
	Total        int
	Valid        int
	Invalid      int
	ParseFailed  int
	Quarantined  int
	QualityScore float64
	Duration     time.Duration
}

// Validator validates unprocessed intake records. It only ever writes the processed flag on
// the intake log; checkpoints belong to the replicator.
type Validator struct {
	intake  intakerepo.Repository
	dlq     DeadLetter
	metrics *metrics.Validator
	events  telemetry.EventEmitter
	logger  logrus.FieldLogger
	opts    Options
}

// New returns a Validator. m and events may be nil.
func New(intake intakerepo.Repository, dlq DeadLetter, m *metrics.Validator, events telemetry.EventEmitter, logger logrus.FieldLogger, opts Options) *Validator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultBatchSize
	}
	return &Validator{
		intake:  intake,
		dlq:     dlq,
		metrics: m,
		events:  events,
		logger:  logging.Component(logger, source),
		opts:    opts,
	}
}

// Check validates payload and records the outcome in the validation metrics.
// It is shared by the loop and the /validate endpoint.
func (v *Validator) Check(schemaType string, payload []byte) (*validation.Result, error) {
	start := time.Now()
	res, err := validation.Validate(schemaType, payload)
	if err != nil {
		if errors.Is(err, pipeline.ErrUnhandledParse) {
			v.metrics.ParseFailed()
			v.metrics.Validated(schemaType, false, string(pipeline.KindParse), time.Since(start))
		}
		return nil, err
	}
	v.metrics.Validated(schemaType, res.Valid(), string(res.Kind()), time.Since(start))
	return res, nil
}

// RunTick adapts Tick to scheduler.TickFunc.
func (v *Validator) RunTick(ctx context.Context) error {
	_, err := v.Tick(ctx)
	return err
}

// Tick validates up to BatchSize unprocessed records, oldest first. A failure to list records
// aborts the tick with pipeline.ErrConnectivity; per-record failures are logged and counted.
// Quarantined records stay unprocessed and are validated again on the next tick.
func (v *Validator) Tick(ctx context.Context) (report *Report, err error) {
	start := time.Now()
	report = &Report{CycleID: uuid.NewString()}
	logger := v.logger.WithField("cycle_id", report.CycleID)

	ctx, span := tracing.StartSpan(ctx, "validator.tick", attribute.String("cycle_id", report.CycleID))
	defer func() {
		report.Duration = time.Since(start)
		v.metrics.CycleDone(report.Duration)
		span.SetAttributes(
			attribute.Int("valid", report.Valid),
			attribute.Int("invalid", report.Invalid),
			attribute.Int("quarantined", report.Quarantined),
		)
		tracing.EndSpan(span, err)
	}()

	records, err := v.intake.ListUnprocessed(ctx, v.opts.BatchSize)
	if err != nil {
		return report, fmt.Errorf("%w: list unprocessed records: %w", pipeline.ErrConnectivity, err)
	}
	report.Total = len(records)

	if len(records) == 0 {
		logger.Debug("no unprocessed records to validate")
	} else {
		logger.WithField("batch", len(records)).Info("validating records")
	}

	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			logger.Warn("tick cancelled, remaining records left for next tick")
			v.finish(ctx, logger, report)
			return report, err
		}
		v.process(ctx, logger.WithField("record_id", rec.ID), report, rec)
	}

	v.finish(ctx, logger, report)
	return report, nil
}

func (v *Validator) process(ctx context.Context, logger logrus.FieldLogger, report *Report, rec *intakedomain.IntakeRecord) {
	res, err := v.Check(pipeline.SchemaSales, rec.Payload)
	if err != nil {
		report.Invalid++
		report.ParseFailed++
		logger.WithError(err).Error("payload could not be parsed, record left unprocessed")
		telemetry.EmitAsync(v.events, v.logger, v.event(telemetry.EventParseFailed, rec, report.CycleID))
		if v.opts.QuarantineUnparseable {
			v.quarantine(ctx, logger, report, rec, []string{"Unhandled parse error: " + err.Error()})
		}
		return
	}

	if res.Valid() {
		if err := v.intake.MarkProcessed(ctx, rec.ID); err != nil {
			report.Invalid++
			logger.WithError(err).Error("mark processed failed, record will be validated again")
			return
		}
		report.Valid++
		logger.Debug("record validated")
		telemetry.EmitAsync(v.events, v.logger, v.event(telemetry.EventRecordValidated, rec, report.CycleID))
		return
	}

	report.Invalid++
	logger.WithFields(logrus.Fields{
		"error_type": res.Kind(),
		"errors":     res.Messages(),
	}).Warn("record failed validation")
	v.quarantine(ctx, logger, report, rec, res.Messages())
}

func (v *Validator) quarantine(ctx context.Context, logger logrus.FieldLogger, report *Report, rec *intakedomain.IntakeRecord, msgs []string) {
	entry, err := v.dlq.Append(ctx, rec.Payload, msgs, pipeline.SchemaSales)
	if err != nil {
		logger.WithError(err).Error("send to dead-letter store failed")
		return
	}
	report.Quarantined++
	logger.WithField("dlq_id", entry.ID).Info("record sent to dead-letter store")
	event := v.event(telemetry.EventRecordQuarantined, rec, report.CycleID).WithMetadata(map[string]any{
		"dlqId":  entry.ID,
		"errors": msgs,
	})
	telemetry.EmitAsync(v.events, v.logger, event)
}

// finish publishes the batch quality score and refreshes the dead-letter size gauge.
func (v *Validator) finish(ctx context.Context, logger logrus.FieldLogger, report *Report) {
	if total := report.Valid + report.Invalid; total > 0 {
		report.QualityScore = float64(report.Valid) / float64(total) * 100
		v.metrics.QualityScore(report.QualityScore)
		logger.WithFields(logrus.Fields{
			"valid":         report.Valid,
			"invalid":       report.Invalid,
			"quality_score": report.QualityScore,
		}).Info("validation cycle completed")
	}

	size, err := v.dlq.Size(ctx)
	if err != nil {
		logger.WithError(err).Warn("dead-letter size refresh failed")
		return
	}
	v.metrics.DeadLetterSize(size)
}

func (v *Validator) event(eventType string, rec *intakedomain.IntakeRecord, cycleID string) *telemetry.Event {
	e := telemetry.NewEvent(eventType, source, rec.ID)
	e.SchemaType = pipeline.SchemaSales
	e.CycleID = cycleID
	return e
}
