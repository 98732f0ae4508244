package web

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datamind-studio/datamind/internal/analysis"
	"github.com/datamind-studio/datamind/internal/render"
)

func TestWorkspaceRunLifecycle(t *testing.T) {
	ws := newWorkspace(time.Now())
	assert.Equal(t, render.StatusIdle, ws.Snapshot().Status)

	require.NoError(t, ws.BeginRun())
	assert.ErrorIs(t, ws.BeginRun(), ErrRunInFlight)
	assert.ErrorIs(t, ws.Reset(), ErrRunInFlight)
	assert.Equal(t, render.StatusLoading, ws.Snapshot().Status)

	// an upload during the run is accepted and the run result lands after it
	ws.SetFile("late.csv", "a\n1\n")
	snap := ws.Snapshot()
	assert.Equal(t, render.StatusLoading, snap.Status)
	assert.Equal(t, "late.csv", snap.FileName)

	res := &analysis.AnalysisResult{Code: "x"}
	ws.FinishRun(res, "")
	snap = ws.Snapshot()
	assert.Equal(t, render.StatusReady, snap.Status)
	assert.Same(t, res, snap.Result)
	assert.Equal(t, "late.csv", snap.FileName)

	require.NoError(t, ws.BeginRun())
	ws.FinishRun(nil, "boom")
	snap = ws.Snapshot()
	assert.Equal(t, render.StatusError, snap.Status)
	assert.Equal(t, "boom", snap.Error)
	assert.Same(t, res, snap.Result)
}

func TestWorkspaceFailKeepsResult(t *testing.T) {
	ws := newWorkspace(time.Now())
	res := &analysis.AnalysisResult{}
	require.NoError(t, ws.BeginRun())
	ws.FinishRun(res, "")
	ws.Fail("needs more input")
	snap := ws.Snapshot()
	assert.Equal(t, render.StatusError, snap.Status)
	assert.Same(t, res, snap.Result)
}

func TestWorkspaceDefaultsAndReset(t *testing.T) {
	ws := newWorkspace(time.Now())
	ws.SetSelections("custom goal", []analysis.ModelType{analysis.ModelSVM}, nil)
	ws.SetFile("f.csv", "1")
	req := ws.Request()
	assert.Equal(t, "custom goal", req.Goal)
	assert.Equal(t, "f.csv", req.FileName)
	assert.Empty(t, req.Metrics)

	require.NoError(t, ws.Reset())
	snap := ws.Snapshot()
	assert.Equal(t, analysis.DefaultGoal, snap.Goal)
	assert.Equal(t, analysis.DefaultModels(), snap.Models)
	assert.Equal(t, analysis.DefaultMetrics(), snap.Metrics)
	assert.Empty(t, snap.FileName)
}

func TestWorkspaceCountsCharacters(t *testing.T) {
	ws := newWorkspace(time.Now())
	ws.SetFile("accents.csv", "año,€\n1,2\n")
	assert.Equal(t, 10, ws.Snapshot().DataChars)
}

func TestStoreExpiresIdleWorkspaces(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := NewStore(time.Hour)
	s.now = func() time.Time { return now }

	idle := s.Create()
	busy := s.Create()
	require.NoError(t, busy.BeginRun())
	require.Equal(t, 2, s.Len())

	now = now.Add(2 * time.Hour)
	_, ok := s.Get(idle.ID)
	assert.False(t, ok)
	got, ok := s.Get(busy.ID)
	assert.True(t, ok)
	assert.Same(t, busy, got)
	assert.Equal(t, 1, s.Len())
}
