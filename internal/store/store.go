// Package store provides SQLite storage for gesture settings, command bindings
// and the history of fired gestures.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Pragmas applied to every connection. WAL lets the web UI read history
// while the pipeline records a gesture.
const dsnPragmas = "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// Store is the application database.
type Store struct {
	db *sql.DB
}

// New opens or creates the database at dbPath, brings the schema up to date
// and seeds the default bindings into an empty bindings table.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+dsnPragmas)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	if err := s.Bindings().SeedDefaults(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to seed bindings: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
func (s *Store) DB() *sql.DB {
	return s.db
}
