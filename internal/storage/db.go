package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"expense-api/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	// Register the "pgx" database/sql driver.
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect selects the SQL flavour of the backing database.
type Dialect string

const (
	// SQLite is the default, file-backed dialect.
	SQLite Dialect = "sqlite"
	// Postgres talks to PostgreSQL through pgx.
	Postgres Dialect = "postgres"
)

// DB wraps a sql.DB connection pool.
type DB struct {
	conn    *sql.DB
	dialect Dialect
}

// NewDB opens a SQLite database at path and runs migrations.
func NewDB(path string) (*DB, error) {
	return Open(context.Background(), SQLite, path)
}

// Open opens a database of the given dialect, pings it and runs migrations.
// For SQLite dsn is a file path; for Postgres it is a connection URL.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	var driver string
	switch dialect {
	case SQLite:
		driver = "sqlite"
	case Postgres:
		driver = "pgx"
	default:
		return nil, fmt.Errorf("unsupported database dialect %q", dialect)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if dialect == SQLite && strings.Contains(dsn, ":memory:") {
		// Every connection to :memory: is a separate database.
		conn.SetMaxOpenConns(1)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	db := New(conn, dialect)
	if err := db.migrate(ctx); err != nil {
		conn.Close()
		return nil, err
	}

	return db, nil
}

// New wraps an existing pool. It does not run migrations.
func New(conn *sql.DB, dialect Dialect) *DB {
	return &DB{conn: conn, dialect: dialect}
}

// Dialect reports the SQL flavour in use.
func (db *DB) Dialect() Dialect { return db.dialect }

// SetMaxOpenConns caps the pool size.
func (db *DB) SetMaxOpenConns(n int) {
	if n > 0 {
		db.conn.SetMaxOpenConns(n)
	}
}

// Ping checks that the database answers.
func (db *DB) Ping(ctx context.Context) error {
	var one int
	if err := db.conn.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return apperr.Infrastructure("storage.Ping", err)
	}
	return nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate(ctx context.Context) error {
	migrations := sqliteMigrations
	if db.dialect == Postgres {
		migrations = postgresMigrations
	}

	for _, m := range migrations {
		if _, err := db.conn.ExecContext(ctx, m); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

var sqliteMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		email VARCHAR(100) UNIQUE NOT NULL,
		username VARCHAR(50) NOT NULL,
		password_hash VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER REFERENCES users(id),
		category VARCHAR(50),
		amount DECIMAL(10, 2),
		date DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(128) PRIMARY KEY,
		expires_at TIMESTAMP NOT NULL,
		data TEXT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
}

var postgresMigrations = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(100) UNIQUE NOT NULL,
		username VARCHAR(50) NOT NULL,
		password_hash VARCHAR(255) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS expenses (
		id SERIAL PRIMARY KEY,
		user_id INT REFERENCES users(id),
		category VARCHAR(50),
		amount DECIMAL(10, 2),
		date DATE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_expenses_user_date ON expenses (user_id, date)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		session_id VARCHAR(128) PRIMARY KEY,
		expires_at TIMESTAMPTZ NOT NULL,
		data JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions (expires_at)`,
}

// rebind rewrites '?' placeholders to '$n' for Postgres.
func (db *DB) rebind(query string) string {
	if db.dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func (db *DB) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.conn.ExecContext(ctx, db.rebind(query), args...)
}

func (db *DB) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.conn.QueryContext(ctx, db.rebind(query), args...)
}

func (db *DB) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return db.conn.QueryRowContext(ctx, db.rebind(query), args...)
}

// isUniqueViolation recognises unique-constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			liteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}
