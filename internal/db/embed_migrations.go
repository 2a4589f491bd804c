package db

import "embed"

// MigrationFS embeds SQL migration files from internal/db/migrations/<store>.
// Used by the migrate runner (cmd/migrate and every binary at startup) to apply migrations.
//
//go:embed migrations/*/*.sql
var MigrationFS embed.FS
