// Package producer publishes pipeline events to Kafka for the Loki worker.
package producer

import (
	"context"

	"sales-pipeline/internal/telemetry"
)

// Producer emits pipeline events. Callers use it best-effort: log and ignore errors.
type Producer interface {
	// Emit sends a single event. Implementations may block briefly; use telemetry.EmitAsync from loops.
	Emit(ctx context.Context, event *telemetry.Event) error
	// Close releases resources (e.g. Kafka writer). Safe to call if already closed.
	Close() error
}
