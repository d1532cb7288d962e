package stresstest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studiowebux/webbench/internal/types"
)

// createTestManager creates a Manager backed by an in-memory SQLite database
func createTestManager(t *testing.T) *Manager {
	t.Helper()
	manager, err := NewManager(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func sampleRun(framework, endpoint string, startedAt time.Time) *types.RunResult {
	return &types.RunResult{
		Framework: framework,
		Endpoint:  endpoint,
		Target: types.EndpointTarget{
			Label:   endpoint,
			BaseURL: "http://localhost:3000",
			Path:    "/api/products",
			Method:  "POST",
			Body:    `{"name":"Test Product"}`,
		},
		Config:    types.BenchmarkConfig{Concurrency: 2, TotalRequests: 3, RequestTimeout: 5 * time.Second, MaxRPS: 25},
		StartedAt: startedAt,
		TotalTime: 42 * time.Millisecond,
		Outcomes: []types.RequestOutcome{
			{Succeeded: true, StatusCode: 201, Latency: 11 * time.Millisecond},
			{Succeeded: false, StatusCode: 500, Latency: 7*time.Millisecond + 123},
			{ErrorKind: types.ErrorKindConnectionReset, Latency: 3 * time.Millisecond, Detail: "read: connection reset by peer"},
		},
	}
}

func TestManager_SaveAndLoadRun(t *testing.T) {
	manager := createTestManager(t)
	original := sampleRun("Axum", "Create Product", time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	id, err := manager.SaveRun(original)
	require.NoError(t, err)
	assert.Positive(t, id)

	stored, err := manager.LoadRun(id)
	require.NoError(t, err)
	assert.Equal(t, id, stored.ID)

	got := stored.Result
	assert.Equal(t, original.Framework, got.Framework)
	assert.Equal(t, original.Endpoint, got.Endpoint)
	assert.Equal(t, original.Target, got.Target)
	assert.Equal(t, original.Config, got.Config)
	assert.Equal(t, original.TotalTime, got.TotalTime)
	assert.True(t, original.StartedAt.Equal(got.StartedAt))
	assert.Equal(t, original.Outcomes, got.Outcomes)
}

func TestManager_HistoryRecomputesSameStats(t *testing.T) {
	manager := createTestManager(t)
	original := sampleRun("ActixWeb", "Create Product", time.Now())

	id, err := manager.SaveRun(original)
	require.NoError(t, err)
	stored, err := manager.LoadRun(id)
	require.NoError(t, err)

	want, err := Aggregate(original)
	require.NoError(t, err)
	got, err := Aggregate(stored.Result)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestManager_ListRuns(t *testing.T) {
	manager := createTestManager(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, fw := range []string{"Axum", "ActixWeb", "Axum"} {
		_, err := manager.SaveRun(sampleRun(fw, "Health Check", base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}
	_, err := manager.SaveRun(sampleRun("Axum", "GraphQL Query", base.Add(10*time.Minute)))
	require.NoError(t, err)

	all, err := manager.ListRuns(RunFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "GraphQL Query", all[0].Result.Endpoint, "newest first")
	for _, run := range all {
		assert.Len(t, run.Result.Outcomes, 3)
	}

	axum, err := manager.ListRuns(RunFilter{Framework: "Axum"})
	require.NoError(t, err)
	assert.Len(t, axum, 3)

	health, err := manager.ListRuns(RunFilter{Framework: "Axum", Endpoint: "Health Check"})
	require.NoError(t, err)
	assert.Len(t, health, 2)

	limited, err := manager.ListRuns(RunFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestManager_DeleteRun(t *testing.T) {
	manager := createTestManager(t)

	id, err := manager.SaveRun(sampleRun("Axum", "Health Check", time.Now()))
	require.NoError(t, err)
	require.NoError(t, manager.DeleteRun(id))

	_, err = manager.LoadRun(id)
	assert.ErrorIs(t, err, ErrRunNotFound)

	var outcomes int
	require.NoError(t, manager.db.QueryRow("SELECT COUNT(*) FROM benchmark_outcomes WHERE run_id = ?", id).Scan(&outcomes))
	assert.Zero(t, outcomes)
}

func TestManager_DeleteUnknownRun(t *testing.T) {
	manager := createTestManager(t)

	id, err := manager.SaveRun(sampleRun("Axum", "Health Check", time.Now()))
	require.NoError(t, err)

	err = manager.DeleteRun(id + 100)
	assert.ErrorIs(t, err, ErrRunNotFound)

	_, err = manager.LoadRun(id)
	assert.NoError(t, err, "other runs are untouched")
}

func TestManager_SaveNilRun(t *testing.T) {
	_, err := createTestManager(t).SaveRun(nil)
	assert.Error(t, err)
}

func TestRecorder_SavesFinishedRuns(t *testing.T) {
	manager := createTestManager(t)
	driver := NewDriver(&fakeRequester{}, WithObserver(NewRecorder(manager, nil)))

	_, err := driver.Run(t.Context(), "Axum", testTarget, types.BenchmarkConfig{Concurrency: 2, TotalRequests: 10})
	require.NoError(t, err)

	runs, err := manager.ListRuns(RunFilter{Framework: "Axum"})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Len(t, runs[0].Result.Outcomes, 10)
	assert.Equal(t, "Health Check", runs[0].Result.Endpoint)
}
