package store

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newthinker/alphalab/internal/core"
)

func TestStore_CreateAndGet(t *testing.T) {
	s := New(100, time.Hour)

	run := s.Create("backtest")
	assert.Len(t, run.ID, 8)
	assert.Equal(t, "backtest", run.Kind)
	assert.Equal(t, StatusPending, run.Status)
	assert.False(t, run.CreatedAt.IsZero())

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, got.ID)
	assert.Equal(t, run.Kind, got.Kind)
}

func TestStore_GetReturnsCopy(t *testing.T) {
	s := New(100, time.Hour)
	run := s.Create("scan")

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	got.Status = StatusFailed
	got.Progress = 99

	again, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, again.Status)
	assert.Equal(t, 0, again.Progress)
}

func TestStore_Update(t *testing.T) {
	s := New(100, time.Hour)
	run := s.Create("sweep")

	err := s.Update(run.ID, func(r *Run) {
		r.Status = StatusRunning
		r.Progress = 50
	})
	require.NoError(t, err)

	got, err := s.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRunning, got.Status)
	assert.Equal(t, 50, got.Progress)
	assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

	err = s.Update("nonexistent", func(r *Run) {})
	assert.True(t, errors.Is(err, core.ErrRunNotFound))
}

func TestStore_MaxSizeEvictsOldest(t *testing.T) {
	s := New(2, time.Hour)

	first := s.Create("backtest")
	second := s.Create("backtest")
	third := s.Create("backtest")

	_, err := s.Get(first.ID)
	assert.True(t, errors.Is(err, core.ErrRunNotFound), "oldest run should be evicted")

	_, err = s.Get(second.ID)
	assert.NoError(t, err)
	_, err = s.Get(third.ID)
	assert.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestStore_NotFound(t *testing.T) {
	s := New(100, time.Hour)

	_, err := s.Get("nonexistent")
	assert.True(t, errors.Is(err, core.ErrRunNotFound))
}

func TestStore_ListInsertionOrder(t *testing.T) {
	s := New(100, time.Hour)
	a := s.Create("backtest")
	b := s.Create("sweep")
	c := s.Create("scan")

	runs := s.List()
	require.Len(t, runs, 3)
	assert.Equal(t, []string{a.ID, b.ID, c.ID}, []string{runs[0].ID, runs[1].ID, runs[2].ID})
}

func TestStore_Delete(t *testing.T) {
	s := New(100, time.Hour)
	run := s.Create("backtest")
	keep := s.Create("scan")

	require.NoError(t, s.Delete(run.ID))

	_, err := s.Get(run.ID)
	assert.True(t, errors.Is(err, core.ErrRunNotFound))

	runs := s.List()
	require.Len(t, runs, 1)
	assert.Equal(t, keep.ID, runs[0].ID)

	err = s.Delete(run.ID)
	assert.True(t, errors.Is(err, core.ErrRunNotFound))
}

func TestStore_TTLExpiry(t *testing.T) {
	s := New(100, 5*time.Millisecond)
	old := s.Create("backtest")

	time.Sleep(50 * time.Millisecond)

	_, err := s.Get(old.ID)
	assert.True(t, errors.Is(err, core.ErrRunNotFound), "expired run should not be readable")
	assert.Equal(t, 0, s.Len())
	assert.Empty(t, s.List())

	// New runs prune the stale entry instead of counting it toward capacity.
	fresh := s.Create("backtest")
	_, err = s.Get(fresh.ID)
	assert.NoError(t, err)
	assert.Equal(t, 1, s.Len())
}

func TestStore_ZeroTTLNeverExpires(t *testing.T) {
	s := New(100, 0)
	run := s.Create("backtest")

	time.Sleep(10 * time.Millisecond)

	_, err := s.Get(run.ID)
	assert.NoError(t, err)
}

func TestStore_UniqueIDs(t *testing.T) {
	s := New(100, time.Hour)

	seen := make(map[string]struct{})
	for i := 0; i < 50; i++ {
		run := s.Create("scan")
		_, dup := seen[run.ID]
		require.False(t, dup, "duplicate run ID %s", run.ID)
		seen[run.ID] = struct{}{}
	}
}

func TestStatus_Terminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:   false,
		StatusRunning:   false,
		StatusCompleted: true,
		StatusFailed:    true,
		StatusCancelled: true,
	}
	for status, want := range terminal {
		assert.Equal(t, want, status.Terminal(), "status %s", status)
	}
}
