package store

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationLockID keys the transaction-scoped advisory lock that serializes
// concurrent openers (keep-alive replicas, a login running beside them).
const migrationLockID int64 = 0x657473795f763300

// RunMigrations applies pending migrations in filename order inside one
// transaction. Applied versions are tracked in schema_migrations; there are
// no down migrations.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	pending, err := fs.Glob(migrationsFS, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	slices.Sort(pending)

	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", migrationLockID); err != nil {
			return fmt.Errorf("locking migrations: %w", err)
		}
		if _, err := tx.Exec(ctx, `
			CREATE TABLE IF NOT EXISTS schema_migrations (
				version    TEXT PRIMARY KEY,
				applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)
		`); err != nil {
			return fmt.Errorf("creating schema_migrations table: %w", err)
		}

		rows, err := tx.Query(ctx, "SELECT version FROM schema_migrations")
		if err != nil {
			return fmt.Errorf("reading applied migrations: %w", err)
		}
		applied, err := pgx.CollectRows(rows, pgx.RowTo[string])
		if err != nil {
			return fmt.Errorf("reading applied migrations: %w", err)
		}

		for _, file := range pending {
			version := path.Base(file)
			if slices.Contains(applied, version) {
				continue
			}
			sql, err := migrationsFS.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading migration %s: %w", version, err)
			}
			if _, err := tx.Exec(ctx, string(sql)); err != nil {
				return fmt.Errorf("applying migration %s: %w", version, err)
			}
			if _, err := tx.Exec(ctx,
				"INSERT INTO schema_migrations (version) VALUES ($1)", version,
			); err != nil {
				return fmt.Errorf("recording migration %s: %w", version, err)
			}
		}
		return nil
	})
}
