package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewConnection opens the SQLite database at path, creating it when absent.
// WAL mode keeps the API readable while the scheduler writes.
func NewConnection(path string) (*DB, error) {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// modernc sqlite serializes writes; a single writer connection avoids
	// SQLITE_BUSY churn under the worker pool
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// IsConstraintViolation reports whether err is a uniqueness (or other
// constraint) failure. The unique index on (source_id, url) is the dedup
// backstop, so insert paths treat this as "duplicate", not as a fault.
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		code := sqliteErr.Code()
		return code == 19 || code/256 == 19 // SQLITE_CONSTRAINT and extended codes
	}

	return strings.Contains(strings.ToLower(err.Error()), "constraint")
}
