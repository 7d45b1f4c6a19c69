package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect names a supported SQL backend.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

// DB wraps the template database connection.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// Open connects to the database for dialect and runs migrations. For
// SQLite an empty dsn means <dataDir>/dashboard.db.
func Open(ctx context.Context, dialect Dialect, dsn, dataDir string) (*DB, error) {
	switch dialect {
	case "", DialectSQLite:
		dialect = DialectSQLite
		if dsn == "" {
			dsn = filepath.Join(dataDir, "dashboard.db")
		}
		if err := os.MkdirAll(filepath.Dir(dsn), 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
		if !strings.Contains(dsn, "?") {
			dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
		}
	case DialectPostgres, DialectMySQL:
		if dsn == "" {
			return nil, fmt.Errorf("open %s: dsn is required", dialect)
		}
		if dialect == DialectMySQL {
			var err error
			if dsn, err = mysqlDSN(dsn); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("unsupported store driver: %s", dialect)
	}

	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// SQLite only supports one writer; a single connection avoids SQLITE_BUSY
		conn.SetMaxOpenConns(1)
	}
	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// mysqlDSN makes DATETIME columns scan into time.Time, stored as UTC.
func mysqlDSN(dsn string) (string, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return cfg.FormatDSN(), nil
}

// OpenSQLite opens (or creates) a SQLite database file.
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	return Open(ctx, DialectSQLite, path, filepath.Dir(path))
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders for dialects that number them.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) exec(ctx context.Context, q sqlExecer, query string, args ...any) (sql.Result, error) {
	return q.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, q sqlQueryer, query string, args ...any) (*sql.Rows, error) {
	return q.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, q sqlQueryer, query string, args ...any) *sql.Row {
	return q.QueryRowContext(ctx, db.rebind(query), args...)
}

type sqlExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type sqlQueryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// columnTypes are the per-dialect spellings used by the migrations.
type columnTypes struct {
	key, text, time string
}

func (db *DB) types() columnTypes {
	switch db.dialect {
	case DialectPostgres:
		return columnTypes{key: "TEXT", text: "TEXT", time: "TIMESTAMPTZ"}
	case DialectMySQL:
		return columnTypes{key: "VARCHAR(191)", text: "LONGTEXT", time: "DATETIME(6)"}
	default:
		return columnTypes{key: "TEXT", text: "TEXT", time: "DATETIME"}
	}
}

func (db *DB) migrate(ctx context.Context) error {
	t := db.types()
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS templates (
			id ` + t.key + ` PRIMARY KEY,
			name ` + t.text + ` NOT NULL,
			status VARCHAR(16) NOT NULL,
			version INTEGER NOT NULL,
			document_json ` + t.text + ` NOT NULL,
			created_at ` + t.time + ` NOT NULL,
			updated_at ` + t.time + ` NOT NULL,
			published_at ` + t.time + ` NULL
		)`,
		`CREATE TABLE IF NOT EXISTS template_revisions (
			id ` + t.key + ` PRIMARY KEY,
			template_id ` + t.key + ` NOT NULL,
			parent_id ` + t.key + ` NULL,
			seq INTEGER NOT NULL,
			label ` + t.text + ` NOT NULL,
			kind VARCHAR(16) NOT NULL,
			snapshot_json ` + t.text + ` NOT NULL,
			created_at ` + t.time + ` NOT NULL
		)`,
		`CREATE INDEX idx_template_revisions_template ON template_revisions(template_id, seq)`,
		`CREATE INDEX idx_templates_status ON templates(status)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			// Index creation fails once the index exists; MySQL has no IF NOT EXISTS for it
			if strings.HasPrefix(m, "CREATE INDEX") && isDuplicateIndex(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", m[:40], err)
		}
	}
	return nil
}

func isDuplicateIndex(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "already exists") || strings.Contains(msg, "duplicate key name")
}
