package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hazyhaar/domcore/dbopen"
	"github.com/hazyhaar/domcore/repeat"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return &Store{DB: dbopen.OpenMemory(t, dbopen.WithSchema(Schema))}
}

func sampleRun(id string, created int64) *Run {
	return &Run{
		ID:         id,
		URL:        "https://example.com/thread",
		SnapshotID: "snap_1",
		HTMLHash:   "abc",
		Method:     "http",
		Nodes:      120,
		Flagged:    14,
		DurationMS: 3,
		CreatedAt:  created,
		Groups: []repeat.GroupSummary{
			{Signature: "/html[1]/body[1]/ul[1]/li[*]", Members: 5, Readable: 4, ReferenceIndex: 2, ReferenceSize: 3, NewlyFlagged: 14, Supported: 3, SizeMean: 3.2, SizeStdDev: 0.44},
			{Signature: "/html[1]/body[1]/nav[1]/a[*]", Members: 4, Readable: 1, Skipped: repeat.SkipUnreadable, Truncated: true},
		},
	}
}

func TestRunCRUD(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	in := sampleRun("run_1", 1000)
	require.NoError(t, s.InsertRun(ctx, in))
	assert.Equal(t, 2, in.GroupCount)

	got, err := s.GetRun(ctx, "run_1")
	require.NoError(t, err)
	assert.Equal(t, in, got)

	require.NoError(t, s.DeleteRun(ctx, "run_1"))
	_, err = s.GetRun(ctx, "run_1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteRun(ctx, "run_1"), ErrNotFound)

	var n int
	require.NoError(t, s.DB.QueryRow(`SELECT COUNT(*) FROM run_groups`).Scan(&n))
	assert.Zero(t, n, "groups cascade with their run")
}

func TestListRuns(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for i := range 5 {
		require.NoError(t, s.InsertRun(ctx, sampleRun(fmt.Sprintf("run_%d", i), int64(1000+i))))
	}

	runs, err := s.ListRuns(ctx, 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run_4", runs[0].ID)
	assert.Equal(t, "run_2", runs[2].ID)
	assert.Nil(t, runs[0].Groups)
	assert.Equal(t, 2, runs[0].GroupCount)

	runs, err = s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 5)
}

func TestInsertRun_DuplicateRollsBack(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.InsertRun(ctx, sampleRun("run_x", 1)))
	assert.Error(t, s.InsertRun(ctx, sampleRun("run_x", 2)))

	got, err := s.GetRun(ctx, "run_x")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.CreatedAt)
	assert.Len(t, got.Groups, 2)
}

func TestOpen_File(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "data", "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.InsertRun(context.Background(), sampleRun("run_f", 1)))
}

func TestDeleteRun_CascadesOnAnyPooledConnection(t *testing.T) {
	ctx := context.Background()
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.InsertRun(ctx, sampleRun("run_c", 1)))

	// keep one connection busy so the delete runs on a fresh one
	held, err := s.DB.Conn(ctx)
	require.NoError(t, err)
	defer held.Close()

	require.NoError(t, s.DeleteRun(ctx, "run_c"))

	var n int
	require.NoError(t, held.QueryRowContext(ctx, `SELECT COUNT(*) FROM run_groups WHERE run_id = 'run_c'`).Scan(&n))
	assert.Zero(t, n)
}
