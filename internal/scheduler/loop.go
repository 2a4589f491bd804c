// Package scheduler runs a tick function on a fixed interval until its context is cancelled.
package scheduler

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// TickFunc is one polling cycle. A returned error is logged; the loop keeps its schedule.
type TickFunc func(ctx context.Context) error

// Loop runs Tick immediately, then every Interval.
type Loop struct {
	Name     string
	Interval time.Duration
	Tick     TickFunc
	// Grace bounds how long an in-flight tick may continue after shutdown is requested.
	Grace  time.Duration
	Logger logrus.FieldLogger
}

// Run blocks until ctx is cancelled. A tick in progress when ctx is cancelled keeps running
// with its own context for up to Grace, then that context is cancelled too. No new tick starts
// after shutdown is requested.
func (l *Loop) Run(ctx context.Context) {
	logger := l.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger = logger.WithField("loop", l.Name)

	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()

	logger.WithField("interval", l.Interval.String()).Info("loop started")
	for {
		l.runTick(ctx, logger)
		select {
		case <-ctx.Done():
			logger.Info("loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (l *Loop) runTick(ctx context.Context, logger logrus.FieldLogger) {
	if ctx.Err() != nil {
		return
	}
	tickCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	done := make(chan struct{})
	go func() {
		select {
		case <-done:
		case <-ctx.Done():
			logger.WithField("grace", l.Grace.String()).Info("shutdown requested, letting current tick finish")
			select {
			case <-done:
			case <-time.After(l.Grace):
				logger.Warn("grace period elapsed, cancelling tick")
				cancel()
			}
		}
	}()

	err := l.Tick(tickCtx)
	close(done)
	if err != nil {
		logger.WithError(err).Error("tick failed")
	}
}
