// CLAUDE:SUMMARY SQLite run history: one row per analysis plus its per-group diagnostics.
// Package store persists the diagnostics of past analyses. Flags are never
// stored: every run recomputes them from the page.
package store

import (
	"database/sql"

	"github.com/hazyhaar/domcore/dbopen"
)

// Store is the run-history database handle.
type Store struct {
	DB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string, opts ...dbopen.Option) (*Store, error) {
	all := append([]dbopen.Option{
		dbopen.WithMkdirAll(),
		dbopen.WithSchema(Schema),
	}, opts...)

	db, err := dbopen.Open(path, all...)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.DB.Close()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
