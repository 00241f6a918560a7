// Package idgen generates identifiers for analysis runs and captured pages.
//
// IDs are UUIDv7 so they sort by creation time, which keeps the run history
// ordered without a separate sequence column.
package idgen

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Generator produces unique string identifiers.
type Generator func() string

// UUIDv7 returns a Generator that produces RFC 9562 UUID v7 strings.
func UUIDv7() Generator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends prefix to every ID produced by gen.
func Prefixed(prefix string, gen Generator) Generator {
	return func() string {
		return prefix + gen()
	}
}

const (
	RunPrefix      = "run_"
	SnapshotPrefix = "snap_"
)

var (
	// Default backs New.
	Default Generator = UUIDv7()
	// Run names one analysis, stored in the run history.
	Run Generator = Prefixed(RunPrefix, UUIDv7())
	// Snapshot names one captured copy of a page.
	Snapshot Generator = Prefixed(SnapshotPrefix, UUIDv7())
)

// New produces an ID using the Default generator.
func New() string {
	return Default()
}

// Parse validates id, accepting the run and snapshot prefixes, and returns
// it in canonical form.
func Parse(id string) (string, error) {
	prefix := ""
	for _, p := range []string{RunPrefix, SnapshotPrefix} {
		if strings.HasPrefix(id, p) {
			prefix = p
			break
		}
	}
	u, err := uuid.Parse(strings.TrimPrefix(id, prefix))
	if err != nil {
		return "", fmt.Errorf("idgen: parse %q: %w", id, err)
	}
	return prefix + u.String(), nil
}
