package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/domcore/dbopen"
	"github.com/hazyhaar/domcore/repeat"
)

// ErrNotFound is returned for unknown run IDs.
var ErrNotFound = errors.New("store: run not found")

// Run is one stored analysis.
type Run struct {
	ID         string `json:"id"`
	URL        string `json:"url,omitempty"`
	SnapshotID string `json:"snapshot_id,omitempty"`
	HTMLHash   string `json:"html_hash,omitempty"`
	Method     string `json:"method,omitempty"`
	Nodes      int    `json:"nodes"`
	GroupCount int    `json:"group_count"`
	Flagged    int    `json:"flagged"`
	Truncated  bool   `json:"truncated,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  int64  `json:"created_at"`

	// Groups is only filled by GetRun.
	Groups []repeat.GroupSummary `json:"groups,omitempty"`
}

// InsertRun stores r and its group diagnostics in one transaction.
func (s *Store) InsertRun(ctx context.Context, r *Run) error {
	if r.CreatedAt == 0 {
		r.CreatedAt = time.Now().UnixMilli()
	}
	r.GroupCount = len(r.Groups)

	return dbopen.RunTx(ctx, s.DB, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO runs
				(id, url, snapshot_id, html_hash, method, nodes, group_count,
				 flagged, truncated, duration_ms, created_at)
			VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
			r.ID, r.URL, r.SnapshotID, r.HTMLHash, r.Method, r.Nodes, r.GroupCount,
			r.Flagged, boolInt(r.Truncated), r.DurationMS, r.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("store: insert run: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO run_groups
				(run_id, position, signature, members, readable, reference_index, reference_size,
				 newly_flagged, supported, truncated, size_mean, size_stddev, skipped)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
		if err != nil {
			return fmt.Errorf("store: prepare groups: %w", err)
		}
		defer stmt.Close()

		for i, g := range r.Groups {
			if _, err := stmt.ExecContext(ctx,
				r.ID, i, g.Signature, g.Members, g.Readable, g.ReferenceIndex, g.ReferenceSize,
				g.NewlyFlagged, g.Supported, boolInt(g.Truncated), g.SizeMean, g.SizeStdDev, g.Skipped,
			); err != nil {
				return fmt.Errorf("store: insert group %d: %w", i, err)
			}
		}
		return nil
	})
}

const runColumns = `id, url, snapshot_id, html_hash, method, nodes, group_count,
	flagged, truncated, duration_ms, created_at`

func scanRun(sc interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var truncated int
	if err := sc.Scan(
		&r.ID, &r.URL, &r.SnapshotID, &r.HTMLHash, &r.Method, &r.Nodes, &r.GroupCount,
		&r.Flagged, &truncated, &r.DurationMS, &r.CreatedAt,
	); err != nil {
		return nil, err
	}
	r.Truncated = truncated != 0
	return r, nil
}

// GetRun returns the run with id and its groups in processing order.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	r, err := scanRun(s.DB.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("store: get run: %w", err)
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT signature, members, readable, reference_index, reference_size, newly_flagged,
		       supported, truncated, size_mean, size_stddev, skipped
		FROM run_groups WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("store: get groups: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var g repeat.GroupSummary
		var truncated int
		if err := rows.Scan(
			&g.Signature, &g.Members, &g.Readable, &g.ReferenceIndex, &g.ReferenceSize, &g.NewlyFlagged,
			&g.Supported, &truncated, &g.SizeMean, &g.SizeStdDev, &g.Skipped,
		); err != nil {
			return nil, fmt.Errorf("store: scan group: %w", err)
		}
		g.Truncated = truncated != 0
		r.Groups = append(r.Groups, g)
	}
	return r, rows.Err()
}

// ListRuns returns the most recent runs first, without groups. limit <= 0
// means 50.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("store: scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its groups.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: delete run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
