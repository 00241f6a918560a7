// Package dbopen opens the SQLite database that holds the run history.
//
// Every pooled connection gets the same pragmas:
//
//	foreign_keys = ON
//	journal_mode = WAL
//	busy_timeout = 10000
//	synchronous  = NORMAL
//
// The pure-Go modernc.org/sqlite driver is registered by this package, so
// callers never need a blank import.
package dbopen

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	_ "modernc.org/sqlite"
)

// Memory is the path of a private in-memory database.
const Memory = ":memory:"

type config struct {
	busyTimeout int
	synchronous string
	mkdirAll    bool
	schemas     []string
}

// Option customises Open.
type Option func(*config)

// WithBusyTimeout sets PRAGMA busy_timeout in milliseconds.
func WithBusyTimeout(ms int) Option { return func(c *config) { c.busyTimeout = ms } }

// WithSynchronous sets PRAGMA synchronous.
func WithSynchronous(mode string) Option { return func(c *config) { c.synchronous = mode } }

// WithMkdirAll creates the parent directory of the database file.
func WithMkdirAll() Option { return func(c *config) { c.mkdirAll = true } }

// WithSchema queues DDL that runs once the pragmas are applied. Schemas run
// in the order given and must be idempotent.
func WithSchema(ddl string) Option {
	return func(c *config) { c.schemas = append(c.schemas, ddl) }
}

// Open opens path, applies the pragmas and the queued schemas, and pings.
func Open(path string, opts ...Option) (*sql.DB, error) {
	cfg := config{busyTimeout: 10_000, synchronous: "NORMAL"}
	for _, o := range opts {
		o(&cfg)
	}

	if cfg.mkdirAll && path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("dbopen: mkdir: %w", err)
		}
	}

	dsn := path
	if path != Memory {
		dsn = fileDSN(path, cfg.pragmas())
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("dbopen: open %s: %w", path, err)
	}
	if path == Memory {
		// each connection to :memory: is a separate database, so the
		// single pooled connection takes the pragmas directly
		db.SetMaxOpenConns(1)
		if err := applyPragmas(db, cfg.pragmas()); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := setup(db, &cfg); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

type pragma struct{ name, value string }

func (c *config) pragmas() []pragma {
	return []pragma{
		{"foreign_keys", "1"},
		{"journal_mode", "WAL"},
		{"busy_timeout", strconv.Itoa(c.busyTimeout)},
		{"synchronous", c.synchronous},
	}
}

// fileDSN puts the pragmas in the URI so the driver applies them to every
// connection the pool opens, not only the first one.
func fileDSN(path string, pragmas []pragma) string {
	q := make([]string, len(pragmas))
	for i, p := range pragmas {
		q[i] = "_pragma=" + url.QueryEscape(p.name+"("+p.value+")")
	}
	return "file:" + uriPath.Replace(path) + "?" + strings.Join(q, "&")
}

var uriPath = strings.NewReplacer("%", "%25", "?", "%3f", "#", "%23")

func applyPragmas(db *sql.DB, pragmas []pragma) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("dbopen: %s: %w", stmt, err)
		}
	}
	return nil
}

// OpenMemory opens an in-memory database closed by t.Cleanup.
func OpenMemory(t testing.TB, opts ...Option) *sql.DB {
	t.Helper()
	db, err := Open(Memory, opts...)
	if err != nil {
		t.Fatalf("dbopen.OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func setup(db *sql.DB, cfg *config) error {
	for i, s := range cfg.schemas {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("dbopen: schema %d: %w", i, err)
		}
	}
	if err := db.Ping(); err != nil {
		return fmt.Errorf("dbopen: ping: %w", err)
	}
	return nil
}
