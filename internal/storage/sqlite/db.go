// ABOUTME: SQLite connection for persisted vector indexes, with schema versioning
// ABOUTME: Uses modernc.org/sqlite (pure Go); one database holds every session namespace
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrSchemaTooNew is returned when the database was written by a newer schema
var ErrSchemaTooNew = errors.New("index database schema is newer than this build")

const memoryPath = ":memory:"

// DB is a database handle shared by every namespace Store
type DB struct {
	conn *sql.DB
	path string
}

// Open opens or creates the index database at path. WAL keeps loads from
// blocking on a snapshot replace; busy_timeout covers two processes (serve
// and a CLI ingest) writing the same file.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return open(path, path+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(5000)")
}

// OpenInMemory creates a private in-memory database
func OpenInMemory() (*DB, error) {
	return open(memoryPath, memoryPath+"?_pragma=foreign_keys(ON)")
}

func open(path, dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open index database %s: %w", path, err)
	}
	if path == memoryPath {
		// each pooled connection would get its own empty database
		conn.SetMaxOpenConns(1)
	}

	db := &DB{conn: conn, path: path}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

// migrate creates the tables on a fresh database and refuses one stamped
// with a newer SchemaVersion
func (db *DB) migrate() error {
	version, err := db.SchemaVersion()
	if err != nil {
		return err
	}
	if version > SchemaVersion {
		return fmt.Errorf("%w: %s is at version %d, this build knows %d", ErrSchemaTooNew, db.path, version, SchemaVersion)
	}

	return db.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(Schema); err != nil {
			return fmt.Errorf("failed to create index tables: %w", err)
		}
		if version == SchemaVersion {
			return nil
		}
		// PRAGMA does not accept bound parameters
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("failed to stamp schema version: %w", err)
		}
		return nil
	})
}

// SchemaVersion reports the version stamped on the database, 0 when fresh
func (db *DB) SchemaVersion() (int, error) {
	var v int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&v); err != nil {
		return 0, fmt.Errorf("failed to read schema version: %w", err)
	}
	return v, nil
}

// withTx runs fn in a transaction, committing only when fn succeeds
func (db *DB) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	if db.conn == nil {
		return nil
	}
	return db.conn.Close()
}

// Conn exposes the pool for tests and diagnostics
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file, or ":memory:"
func (db *DB) Path() string {
	return db.path
}
