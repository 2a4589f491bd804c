// Package relay copies pipeline events from Kafka into Loki.
package relay

import (
	"context"
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// Reader is the consumer-group side of a kafka.Reader.
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Pusher sends one event JSON document to the log store.
type Pusher interface {
	PushEventJSON(ctx context.Context, eventJSON []byte) error
}

// Relay reads events and pushes them. An offset is committed only after its push has finished,
// so a crash between the two replays the event.
type Relay struct {
	reader      Reader
	pusher      Pusher
	logger      logrus.FieldLogger
	pushTimeout time.Duration
}

// New returns a Relay reading from r and pushing to p.
func New(r Reader, p Pusher, logger logrus.FieldLogger) *Relay {
	if logger == nil {
		logger = logrus.New()
	}
	return &Relay{reader: r, pusher: p, logger: logger, pushTimeout: 40 * time.Second}
}

// Run relays until ctx is cancelled. Read errors are logged and the loop continues.
func (r *Relay) Run(ctx context.Context) error {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.WithError(err).Warn("kafka read error")
			continue
		}
		if err := r.Handle(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.WithError(err).WithField("offset", msg.Offset).Warn("relay failed")
		}
	}
}

// Handle pushes msg and commits its offset. A push that fails after retries is dropped
// with a warning and still committed; a cancelled push is not.
func (r *Relay) Handle(ctx context.Context, msg kafka.Message) error {
	pushCtx, cancel := context.WithTimeout(ctx, r.pushTimeout)
	err := r.pusher.PushEventJSON(pushCtx, msg.Value)
	cancel()
	if err != nil {
		if errors.Is(err, context.Canceled) && ctx.Err() != nil {
			return err
		}
		r.logger.WithError(err).WithField("offset", msg.Offset).Warn("loki push failed, dropping event")
	}
	return r.reader.CommitMessages(ctx, msg)
}
