package db

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

// Open opens a Postgres connection pool using the given DSN. Caller must call Close when done.
func Open(dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty DSN")
	}
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// OpenWithRetry calls Open with exponential backoff until it succeeds, ctx is done, or maxElapsed passes.
// Stores usually come up alongside the pipeline binaries, so a refused connection at startup is expected.
func OpenWithRetry(ctx context.Context, dsn string, maxElapsed time.Duration, logger logrus.FieldLogger) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("db: empty DSN")
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 5 * time.Second
	b.MaxElapsedTime = maxElapsed

	var db *sql.DB
	op := func() error {
		var err error
		db, err = Open(dsn)
		return err
	}
	notify := func(err error, next time.Duration) {
		if logger != nil {
			logger.WithError(err).WithField("retry_in", next.String()).Warn("store unreachable, retrying")
		}
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return db, nil
}
