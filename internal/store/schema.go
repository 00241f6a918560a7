package store

// Schema contains the DDL for the run history.
const Schema = `
-- One analysis of one page
CREATE TABLE IF NOT EXISTS runs (
    id           TEXT PRIMARY KEY,
    url          TEXT NOT NULL DEFAULT '',
    snapshot_id  TEXT NOT NULL DEFAULT '',
    html_hash    TEXT NOT NULL DEFAULT '',
    method       TEXT NOT NULL DEFAULT '',
    nodes        INTEGER NOT NULL DEFAULT 0,
    group_count  INTEGER NOT NULL DEFAULT 0,
    flagged      INTEGER NOT NULL DEFAULT 0,
    truncated    INTEGER NOT NULL DEFAULT 0,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    created_at   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_runs_hash ON runs(html_hash);

-- Per-group diagnostics of a run, in processing order
CREATE TABLE IF NOT EXISTS run_groups (
    run_id          TEXT NOT NULL,
    position        INTEGER NOT NULL,
    signature       TEXT NOT NULL,
    members         INTEGER NOT NULL,
    readable        INTEGER NOT NULL DEFAULT 0,
    reference_index INTEGER NOT NULL,
    reference_size  INTEGER NOT NULL,
    newly_flagged   INTEGER NOT NULL,
    supported       INTEGER NOT NULL,
    truncated       INTEGER NOT NULL DEFAULT 0,
    size_mean       REAL NOT NULL DEFAULT 0,
    size_stddev     REAL NOT NULL DEFAULT 0,
    skipped         TEXT NOT NULL DEFAULT '',
    PRIMARY KEY (run_id, position),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);
`
