// Package migrate runs database migrations from embedded SQL files using golang-migrate.
package migrate

import (
	"errors"
	"fmt"
	"net/url"

	"sales-pipeline/internal/db"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ErrNoChange is returned when Up/Down has nothing to do (already at target version).
var ErrNoChange = migrate.ErrNoChange

// Store names a database with its own migration set under internal/db/migrations/<store>.
type Store string

const (
	StoreHolding Store = "holding"
	StoreMain    Store = "main"
	StoreDLQ     Store = "dlq"
)

// Stores lists every store in the order cmd/migrate applies them.
var Stores = []Store{StoreHolding, StoreMain, StoreDLQ}

// ParseStore returns the Store for name, or an error if it is not a known store.
func ParseStore(name string) (Store, error) {
	for _, s := range Stores {
		if string(s) == name {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown store %q (want holding, main or dlq)", name)
}

// Run applies the store's migrations in the given direction using the provided DSN.
// direction must be "up" or "down". Returns nil on success, including when already at the target version.
// Each store keeps its own version table (schema_migrations_<store>) so stores may share one database.
func Run(dsn string, store Store, direction string) error {
	if dsn == "" {
		return fmt.Errorf("%s: database URL is not set", store)
	}
	if _, err := ParseStore(string(store)); err != nil {
		return err
	}
	if direction != "up" && direction != "down" {
		return fmt.Errorf("direction must be up or down, got %q", direction)
	}

	target, err := withMigrationsTable(dsn, store)
	if err != nil {
		return err
	}

	sourceDriver, err := iofs.New(db.MigrationFS, "migrations/"+string(store))
	if err != nil {
		return fmt.Errorf("migrate source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", sourceDriver, target)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	defer func() { _, _ = m.Close() }()

	switch direction {
	case "up":
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	case "down":
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			return err
		}
	}
	return nil
}

// EnsureSchema brings the store up to the latest migration. Safe to call at every process start.
func EnsureSchema(dsn string, store Store) error {
	if err := Run(dsn, store, "up"); err != nil {
		return fmt.Errorf("ensure %s schema: %w", store, err)
	}
	return nil
}

func withMigrationsTable(dsn string, store Store) (string, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return "", fmt.Errorf("invalid database URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("invalid database URL: want postgres://host/db")
	}
	q := u.Query()
	q.Set("x-migrations-table", "schema_migrations_"+string(store))
	u.RawQuery = q.Encode()
	return u.String(), nil
}
