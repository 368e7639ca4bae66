package runlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/hydrodispatch/core/model"
	"github.com/kilianp07/hydrodispatch/core/performance"
)

func sampleRecords(now time.Time) []Record {
	sched := model.Schedule{Power: []float64{1, 2}, Storage: []float64{10, 9, 7}, Method: model.MethodLP}
	return []Record{
		{ID: "a", Kind: KindOptimize, Timestamp: now.Add(-2 * time.Hour), Strategy: "chain", Hours: 2, Schedule: &sched, Revenue: 30},
		{ID: "b", Kind: KindEvaluate, Timestamp: now.Add(-time.Hour), Hours: 48, Summary: &performance.Summary{Efficiency: 95}},
		{ID: "c", Kind: KindOptimize, Timestamp: now, Error: "infeasible", ErrorKind: "infeasible"},
	}
}

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, r := range sampleRecords(now) {
		require.NoError(t, store.Append(ctx, r))
	}

	all, err := store.Query(ctx, Query{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{all[0].ID, all[1].ID, all[2].ID})
	require.NotNil(t, all[0].Schedule)
	assert.Equal(t, []float64{1, 2}, all[0].Schedule.Power)
	require.NotNil(t, all[1].Summary)
	assert.Equal(t, 95.0, all[1].Summary.Efficiency)

	opt, err := store.Query(ctx, Query{Kind: KindOptimize})
	require.NoError(t, err)
	assert.Len(t, opt, 2)

	one, err := store.Query(ctx, Query{ID: "b"})
	require.NoError(t, err)
	require.Len(t, one, 1)
	assert.Equal(t, KindEvaluate, one[0].Kind)

	recent, err := store.Query(ctx, Query{Start: now.Add(-90 * time.Minute)})
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	last, err := store.Query(ctx, Query{Limit: 1})
	require.NoError(t, err)
	require.Len(t, last, 1)
	assert.Equal(t, "c", last[0].ID)
}

func TestJSONLStore(t *testing.T) {
	store, err := NewJSONLStore(filepath.Join(t.TempDir(), "runs.jsonl"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestRotatingJSONLStore(t *testing.T) {
	store, err := NewRotatingJSONLStore(filepath.Join(t.TempDir(), "logs", "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestSQLiteStore(t *testing.T) {
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	exerciseStore(t, store)
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	for _, tc := range []struct {
		cfg  Config
		want any
	}{
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "a.jsonl")}, &JSONLStore{}},
		{Config{Backend: "jsonl", Path: filepath.Join(dir, "b.jsonl"), MaxSizeMB: 5}, &RotatingJSONLStore{}},
		{Config{Backend: "sqlite", Path: filepath.Join(dir, "c.db")}, &SQLiteStore{}},
		{Config{Backend: "none"}, NopStore{}},
	} {
		s, err := Open(tc.cfg)
		require.NoError(t, err, tc.cfg.Backend)
		assert.IsType(t, tc.want, s)
		require.NoError(t, s.Close())
	}
	_, err := Open(Config{Backend: "mongo", Path: "x"})
	assert.Error(t, err)
	_, err = Open(Config{Backend: "jsonl"})
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, "jsonl", c.Backend)
	assert.Equal(t, "runs.jsonl", c.Path)
	require.NoError(t, c.Validate())

	s := Config{Backend: "sqlite"}
	s.SetDefaults()
	assert.Equal(t, "runs.db", s.Path)
}
