package store

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/i474232898/city-explorer/internal/common"
)

const migrationTable = "schema_migrations"

// ApplyMigrations executes the *.sql files under root at most once each, in name order.
// Only the "-- +migrate Up" section of each file runs.
func ApplyMigrations(ctx context.Context, db *sql.DB, d Dialect, migrationFS fs.FS, root string) error {
	if db == nil {
		return fmt.Errorf("migrate: db is nil")
	}

	root = strings.TrimSpace(root)
	if root == "" {
		root = "."
	}

	entries, err := fs.ReadDir(migrationFS, root)
	if err != nil {
		return fmt.Errorf("migrate: read migrations dir: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			sqlFiles = append(sqlFiles, entry.Name())
		}
	}
	sort.Strings(sqlFiles)

	createSQL := fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    name TEXT PRIMARY KEY,
    applied_at BIGINT NOT NULL
);`, migrationTable)
	if _, err := db.ExecContext(ctx, createSQL); err != nil {
		return fmt.Errorf("migrate: ensure migration table: %w", err)
	}

	for _, file := range sqlFiles {
		name := path.Join(root, file)

		content, err := fs.ReadFile(migrationFS, name)
		if err != nil {
			return fmt.Errorf("migrate: read %s: %w", name, err)
		}

		applied, err := isApplied(ctx, db, d, name)
		if err != nil {
			return fmt.Errorf("migrate: check %s: %w", name, err)
		}
		if applied {
			continue
		}

		upSQL := ExtractUpMigration(string(content))
		if strings.TrimSpace(upSQL) == "" {
			continue
		}

		record := d.Rebind(fmt.Sprintf("INSERT INTO %s (name, applied_at) VALUES (?, ?)", migrationTable))

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("migrate: begin %s: %w", name, err)
		}

		if _, err := tx.ExecContext(ctx, upSQL); err != nil {
			// PostgreSQL aborts the transaction on any error, so it cannot record the
			// migration even when the objects already exist.
			_ = tx.Rollback()
			if !IsAlreadyExistsError(err) {
				return fmt.Errorf("migrate: exec %s: %w", name, err)
			}
			if _, err := db.ExecContext(ctx, record, name, time.Now().UTC().UnixMilli()); err != nil {
				return fmt.Errorf("migrate: record %s: %w", name, err)
			}
			continue
		}

		if _, err := tx.ExecContext(ctx, record, name, time.Now().UTC().UnixMilli()); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("migrate: record %s: %w", name, err)
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate: commit %s: %w", name, err)
		}
	}

	return nil
}

// ExtractUpMigration returns the SQL in the -- +migrate Up section.
func ExtractUpMigration(content string) string {
	upIdx := strings.Index(content, "-- +migrate Up")
	if upIdx == -1 {
		return content
	}
	downIdx := strings.Index(content, "-- +migrate Down")
	if downIdx == -1 {
		return content[upIdx+len("-- +migrate Up"):]
	}
	return content[upIdx+len("-- +migrate Up") : downIdx]
}

// IsAlreadyExistsError reports whether this error indicates idempotent DDL success.
func IsAlreadyExistsError(err error) bool {
	return common.HasAny(err.Error(), "already exists", "duplicate column name")
}

func isApplied(ctx context.Context, db *sql.DB, d Dialect, name string) (bool, error) {
	var found int
	row := db.QueryRowContext(ctx, d.Rebind("SELECT 1 FROM "+migrationTable+" WHERE name = ?"), name)
	if err := row.Scan(&found); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
