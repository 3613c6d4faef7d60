// Package store is the durable checkpoint ledger: one append-only table of
// tried outcomes and one of found outcomes, backed by SQLite.
//
// The store has exactly one writer — the supervisor goroutine. Workers never
// touch it; they send outcome messages upward. Appends are synchronous and
// durable before they return: a crash after an append acknowledges cannot
// lose the record, and a crash before simply means the candidate is retried
// on the next run (at-least-once, deduped by the UNIQUE phrase constraint).
package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for tried and found ledgers.
type Store struct {
	db *sql.DB
}

// Open creates or opens the checkpoint database at path.
// Idempotent: pragmas and schema are applied on every open.
//
// synchronous=FULL is deliberate. The whole point of the ledger is that an
// acknowledged append survives a crash; NORMAL can lose the tail of the WAL
// on power failure.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection sidesteps SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = FULL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}
