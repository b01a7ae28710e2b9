package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/i474232898/city-explorer/internal/explorer"
	"github.com/i474232898/city-explorer/internal/logger"
	"github.com/i474232898/city-explorer/internal/store/migrations"
)

// Dialect selects driver and placeholder syntax.
type Dialect int

const (
	DialectSQLite Dialect = iota
	DialectPostgres
)

func (d Dialect) String() string {
	if d == DialectPostgres {
		return "postgres"
	}
	return "sqlite"
}

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

// Rebind rewrites "?" placeholders to "$n" for PostgreSQL.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseDatabaseURL picks the dialect and driver DSN for a DATABASE_URL value.
// postgres:// and postgresql:// URLs go to pgx; anything else is a SQLite path or
// file: URI.
func ParseDatabaseURL(databaseURL string) (Dialect, string, error) {
	u := strings.TrimSpace(databaseURL)
	if u == "" {
		return 0, "", errors.New("database url is empty")
	}
	if strings.HasPrefix(u, "postgres://") || strings.HasPrefix(u, "postgresql://") {
		return DialectPostgres, u, nil
	}

	dsn := strings.TrimPrefix(u, "sqlite://")
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	dsn += sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	return DialectSQLite, dsn, nil
}

// SQLStore persists locations and resource records through database/sql.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	log     *zap.SugaredLogger
}

// Open connects to databaseURL, applies migrations and returns the store. The pool is
// pinned to a single connection held for the life of the process.
func Open(ctx context.Context, databaseURL string) (*SQLStore, error) {
	dialect, dsn, err := ParseDatabaseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	db, err := sql.Open(dialect.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open: sql open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: ping: %w", err)
	}

	if err := ApplyMigrations(ctx, db, dialect, migrations.FS, dialect.String()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open: %w", err)
	}

	log := logger.GetLogger("store")
	log.Infof("%s store ready", dialect)

	return &SQLStore{db: db, dialect: dialect, log: log}, nil
}

// Close releases the database handle.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Ping checks the connection.
func (s *SQLStore) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("ping: db is nil")
	}
	return s.db.PingContext(ctx)
}

// FindBy returns every row of table whose column equals value, ordered by id.
func (s *SQLStore) FindBy(ctx context.Context, table explorer.ResourceType, column string, value any) ([]explorer.Row, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("find: db is nil")
	}
	// Identifiers cannot be bound, so only known names reach the query text.
	if !explorer.HasColumn(table, column) {
		return nil, fmt.Errorf("find: unknown column %s.%s", table, column)
	}

	query := s.dialect.Rebind(fmt.Sprintf("SELECT * FROM %s WHERE %s = ? ORDER BY id", table, column))
	rows, err := s.db.QueryContext(ctx, query, value)
	if err != nil {
		return nil, fmt.Errorf("find %s: query: %w", table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("find %s: columns: %w", table, err)
	}

	var result []explorer.Row
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("find %s: scan: %w", table, err)
		}

		row := make(explorer.Row, len(cols))
		for i, c := range cols {
			if b, ok := values[i].([]byte); ok {
				row[c] = string(b)
				continue
			}
			row[c] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("find %s: rows: %w", table, err)
	}
	return result, nil
}

// Insert appends row to table and returns it with its assigned id. Every column of
// the table must be present in row.
func (s *SQLStore) Insert(ctx context.Context, table explorer.ResourceType, row explorer.Row) (explorer.Row, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("insert: db is nil")
	}
	cols := explorer.Columns(table)
	if cols == nil {
		return nil, fmt.Errorf("insert: unknown table %q", table)
	}

	args := make([]any, 0, len(cols))
	for _, c := range cols {
		v, ok := row[c]
		if !ok {
			return nil, fmt.Errorf("insert %s: missing column %q", table, c)
		}
		args = append(args, v)
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(cols)), ", ")
	query := s.dialect.Rebind(fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) RETURNING id",
		table, strings.Join(cols, ", "), placeholders,
	))

	var id int64
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}

	stored := make(explorer.Row, len(cols)+1)
	for i, c := range cols {
		stored[c] = args[i]
	}
	stored["id"] = id
	return stored, nil
}
