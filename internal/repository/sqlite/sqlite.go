// Package sqlite implements repository.Storage on top of SQLite.
//
// It uses modernc.org/sqlite, a pure Go translation of SQLite, so the binary
// builds without cgo. Pass ":memory:" as the path for a throwaway database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	sqlitedrv "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/grid-manager/internal/repository"
)

var _ repository.Storage = (*DB)(nil)

// DB wraps a sql.DB connection pool and implements every repository.
type DB struct {
	conn   *sql.DB
	logger *zap.Logger
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// New opens the database at dbPath and runs migrations.
//
// The pool is capped at one connection: SQLite serializes writers anyway,
// and a ":memory:" database exists only on the connection that created it.
//
// CONNECTION SETUP:
//
//	journal_mode=WAL   stored in the database file; writes go to a -wal file
//	                   next to it and readers in other processes keep seeing
//	                   the last commit
//	foreign_keys=ON    per connection; SQLite ignores REFERENCES clauses
//	                   unless it is set
//
// Migrations are plain CREATE TABLE IF NOT EXISTS statements run in order on
// every start. There is no version table; a column change needs a new
// statement here and a fresh database.
func New(dbPath string, logger *zap.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.Wrap(err, "sqlite: opening database")
	}
	conn.SetMaxOpenConns(1)

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "sqlite: pinging database")
	}

	// WAL lets readers proceed while a write is in flight.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "sqlite: setting WAL mode")
	}

	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "sqlite: enabling foreign keys")
	}

	db := &DB{conn: conn, logger: logger}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "sqlite: running migrations")
	}

	logger.Debug("sqlite database ready", zap.String("path", dbPath))
	return db, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates the schema. AUTOINCREMENT keeps SQLite from handing out
// the id of a deleted row again.
//
// regions.grid_id has no foreign key, so deleting a grid leaves
// its regions behind.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			email         TEXT NOT NULL,
			is_admin      INTEGER NOT NULL DEFAULT 0,
			first_name    TEXT,
			last_name     TEXT,
			date_joined   DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS avatars (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id     INTEGER NOT NULL,
			avatar_type TEXT NOT NULL,
			name        TEXT NOT NULL,
			created     DATETIME NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_avatars_user_id ON avatars(user_id);
	`)
	if err != nil {
		return fmt.Errorf("creating avatars table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS grids (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			name             TEXT NOT NULL,
			nickname         TEXT NOT NULL,
			admin_email      TEXT NOT NULL,
			external_address TEXT NOT NULL,
			status           TEXT NOT NULL DEFAULT 'offline',
			last_started     DATETIME,
			port             INTEGER NOT NULL DEFAULT 8000,
			external_port    INTEGER NOT NULL DEFAULT 8002,
			is_running       INTEGER NOT NULL DEFAULT 0
		);
	`)
	if err != nil {
		return fmt.Errorf("creating grids table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS regions (
			id               INTEGER PRIMARY KEY AUTOINCREMENT,
			grid_id          INTEGER NOT NULL,
			name             TEXT NOT NULL,
			position_x       INTEGER NOT NULL,
			position_y       INTEGER NOT NULL,
			size_x           INTEGER NOT NULL DEFAULT 256,
			size_y           INTEGER NOT NULL DEFAULT 256,
			port             INTEGER NOT NULL,
			template         TEXT NOT NULL DEFAULT 'empty',
			status           TEXT NOT NULL DEFAULT 'offline',
			is_running       INTEGER NOT NULL DEFAULT 0,
			owner_id         INTEGER,
			is_pending_setup INTEGER NOT NULL DEFAULT 0
		);
		CREATE INDEX IF NOT EXISTS idx_regions_grid_id ON regions(grid_id);
	`)
	if err != nil {
		return fmt.Errorf("creating regions table: %w", err)
	}

	_, err = db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS settings (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			setting_key  TEXT NOT NULL UNIQUE,
			value        TEXT NOT NULL,
			last_updated DATETIME NOT NULL
		);
	`)
	if err != nil {
		return fmt.Errorf("creating settings table: %w", err)
	}

	return nil
}

// inTx runs fn inside a transaction, committing on success.
func (db *DB) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "sqlite: beginning transaction")
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return errors.Wrap(tx.Commit(), "sqlite: committing transaction")
}

// isUniqueViolation reports whether err came from a UNIQUE constraint. The
// driver enables extended result codes, so the constraint kind is in the
// code itself and the message text never needs parsing.
func isUniqueViolation(err error) bool {
	var se *sqlitedrv.Error
	return errors.As(err, &se) && se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE
}

// nullString converts an optional string to a SQL value.
func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

func stringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func int64Ptr(ni sql.NullInt64) *int64 {
	if !ni.Valid {
		return nil
	}
	i := ni.Int64
	return &i
}
