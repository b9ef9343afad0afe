package iocache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/hypeplot/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRunStore(t *testing.T) *RunStoreImpl {
	t.Helper()
	store, err := NewRunStore(schema.SQLiteBackend, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleRows() []schema.SourceRow {
	return []schema.SourceRow{
		{Period: "2023", StartDate: schema.Date(2023, 1, 1), EndDate: schema.Date(2023, 12, 31), Metrics: schema.Metrics{"papers": int64(10)}},
		{Period: "2024", StartDate: schema.Date(2024, 1, 1), EndDate: schema.Date(2024, 12, 31), Metrics: schema.Metrics{"papers": int64(12)}},
	}
}

func TestRunStoreLifecycle(t *testing.T) {
	store := newTestRunStore(t)

	start := time.Now().Add(-2 * time.Second)
	runID, err := store.BeginRun("uuid-1", "rust", start, map[string]any{"bucket": "yearly"})
	require.NoError(t, err)
	assert.Positive(t, runID)

	require.NoError(t, store.RecordRows(runID, "arxiv", sampleRows()))
	require.NoError(t, store.RecordRows(runID, "github", []schema.SourceRow{
		{Period: "2024", StartDate: schema.Date(2024, 1, 1), EndDate: schema.Date(2024, 12, 31), Metrics: schema.Metrics{"repos": int64(3), "label": "x"}},
	}))
	require.NoError(t, store.EndRun(runID, time.Now(), 3))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRuns)
	assert.Equal(t, runID, status.LastRunID)
	assert.Equal(t, 3, status.TotalRows)
	assert.Equal(t, int64(1), status.TableSizes[fetchRunsTable])
	assert.Equal(t, int64(4), status.TableSizes[fetchRowsTable])

	runs, err := store.GetAllFetchRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "uuid-1", runs[0].RunUUID)
	assert.Equal(t, "rust", runs[0].Term)
	assert.Equal(t, int32(3), runs[0].TotalRows)
	require.NotNil(t, runs[0].EndTime)
	require.NotNil(t, runs[0].RunDurationMs)
	assert.GreaterOrEqual(t, *runs[0].RunDurationMs, int32(2000))
	require.NotNil(t, runs[0].ConfigParams)
	assert.JSONEq(t, `{"bucket":"yearly"}`, *runs[0].ConfigParams)

	rows, err := store.GetAllFetchRows()
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "arxiv", rows[0].Source)
	assert.Equal(t, schema.Date(2023, 1, 1), rows[0].StartDate)
	assert.Equal(t, 10.0, rows[0].Value)

	var text *string
	for _, r := range rows {
		if r.Metric == "label" {
			text = r.TextValue
		}
	}
	require.NotNil(t, text)
	assert.Equal(t, "x", *text)
}

func TestRunStoreDuplicateRowsRejected(t *testing.T) {
	store := newTestRunStore(t)
	runID, err := store.BeginRun("uuid-2", "go", time.Now(), nil)
	require.NoError(t, err)

	require.NoError(t, store.RecordRows(runID, "arxiv", sampleRows()))
	assert.Error(t, store.RecordRows(runID, "arxiv", sampleRows()))

	// The failed transaction leaves the first batch intact
	rows, err := store.GetAllFetchRows()
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestRunStoreNoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	runID, err := store.BeginRun("u", "t", time.Now(), nil)
	require.NoError(t, err)
	assert.Zero(t, runID)
	assert.NoError(t, store.RecordRows(runID, "arxiv", sampleRows()))
	assert.NoError(t, store.EndRun(runID, time.Now(), 0))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	runs, err := store.GetAllFetchRuns()
	assert.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestMigrateRunsSQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))
	// Second run is a no-op
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, -1))

	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	runID, err := store.BeginRun("m", "term", time.Now(), nil)
	require.NoError(t, err)
	require.NoError(t, store.RecordRows(runID, "arxiv", sampleRows()))
	require.NoError(t, store.Close())

	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 1))
	require.NoError(t, MigrateRuns(schema.SQLiteBackend, dbPath, 0))
}

func TestMigrateRunsNoneBackend(t *testing.T) {
	assert.Error(t, MigrateRuns(schema.NoneBackend, "", -1))
}

func TestExecuteRunsExport(t *testing.T) {
	t.Run("requires output file", func(t *testing.T) {
		assert.Error(t, ExecuteRunsExport(""))
	})

	t.Run("disabled run tracking", func(t *testing.T) {
		resetManager(t)
		assert.Error(t, ExecuteRunsExport(filepath.Join(t.TempDir(), "out")))
	})

	t.Run("empty store", func(t *testing.T) {
		resetManager(t)
		runs := &MockRunStore{}
		runs.On("GetStatus").Return(schema.RunStatus{Backend: "sqlite", Connected: true}, nil)
		Manager.runs = runs

		assert.Error(t, ExecuteRunsExport(filepath.Join(t.TempDir(), "out")))
		runs.AssertNotCalled(t, "GetAllFetchRuns")
	})

	t.Run("writes both files", func(t *testing.T) {
		resetManager(t)
		store := newTestRunStore(t)
		runID, err := store.BeginRun("e", "rust", time.Now(), nil)
		require.NoError(t, err)
		require.NoError(t, store.RecordRows(runID, "arxiv", sampleRows()))
		require.NoError(t, store.EndRun(runID, time.Now(), 2))

		runs := &MockRunStore{}
		runs.On("GetStatus").Return(store.GetStatus())
		runs.On("GetAllFetchRuns").Return(store.GetAllFetchRuns())
		runs.On("GetAllFetchRows").Return(store.GetAllFetchRows())
		Manager.runs = runs

		prefix := filepath.Join(t.TempDir(), "export")
		require.NoError(t, ExecuteRunsExport(prefix))

		for _, suffix := range []string{".fetch_runs.parquet", ".fetch_rows.parquet"} {
			info, err := os.Stat(prefix + suffix)
			require.NoError(t, err)
			assert.Greater(t, info.Size(), int64(0))
		}
		runs.AssertExpectations(t)
		runs.AssertNotCalled(t, "Close")
	})
}

func TestMockCacheManager(t *testing.T) {
	store := &MockCacheStore{}
	store.On("Get", "k").Return(nil, 0, int64(0), assert.AnError)

	mgr := &MockCacheManager{}
	mgr.On("GetFetchStore").Return(store)
	mgr.On("GetRunStore").Return(nil)

	_, _, _, err := mgr.GetFetchStore().Get("k")
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, mgr.GetRunStore())
	mgr.AssertExpectations(t)
	store.AssertCalled(t, "Get", mock.Anything)
}
