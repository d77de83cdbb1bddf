package sqlstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/uptrace/bun"
)

//go:embed migrations
var embeddedMigrations embed.FS

const schemaMigrationsDDL = `CREATE TABLE IF NOT EXISTS schema_migrations (
    version    VARCHAR(255) PRIMARY KEY,
    applied_at TIMESTAMP NOT NULL
)`

// Migrate applies every pending migrations/<driver>/*.up.sql file in name
// order, recording applied versions in schema_migrations.
func Migrate(ctx context.Context, db *bun.DB, driver string) error {
	dir := path.Join("migrations", driver)
	entries, err := fs.ReadDir(embeddedMigrations, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("migrate: read %s: %w", dir, err)
	}

	var ups []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	if _, err := db.NewRaw(schemaMigrationsDDL).Exec(ctx); err != nil {
		return fmt.Errorf("migrate: schema_migrations: %w", mapError(err))
	}

	for _, name := range ups {
		version := strings.TrimSuffix(name, ".up.sql")

		applied, err := isApplied(ctx, db, version)
		if err != nil {
			return err
		}
		if applied {
			continue
		}

		data, err := embeddedMigrations.ReadFile(path.Join(dir, name))
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}
		if err := apply(ctx, db, version, string(data)); err != nil {
			return err
		}
	}
	return nil
}

func isApplied(ctx context.Context, db *bun.DB, version string) (bool, error) {
	var one int
	err := db.NewRaw("SELECT 1 FROM schema_migrations WHERE version = ?", version).Scan(ctx, &one)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sql.ErrNoRows):
		return false, nil
	default:
		return false, fmt.Errorf("migrate: check %s: %w", version, mapError(err))
	}
}

func apply(ctx context.Context, db *bun.DB, version, script string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("migrate: begin %s: %w", version, err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range splitStatements(script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: apply %s: %w", version, mapError(err))
		}
	}

	if _, err := tx.NewRaw("INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
		version, time.Now().UTC()).Exec(ctx); err != nil {
		return fmt.Errorf("migrate: record %s: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migrate: commit %s: %w", version, err)
	}
	return nil
}

// splitStatements breaks a script on semicolons. Migration files must not
// contain semicolons inside literals.
func splitStatements(script string) []string {
	var out []string
	for _, part := range strings.Split(script, ";") {
		if stmt := strings.TrimSpace(part); stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}
