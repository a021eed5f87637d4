package syncsched_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	syncsched "github.com/jdziat/sync-schedules"
)

func TestIntegration_RestartKeepsSchedulesAndSkip(t *testing.T) {
	ctx := context.Background()
	db := openIntegrationDB(t)

	// Both "processes" share the database but nothing in memory.
	open := func() *syncsched.GormStorage {
		store := syncsched.NewGormStorage(db)
		require.NoError(t, store.Migrate(ctx))
		return store
	}

	// First process: add two schedules and skip one.
	store := open()
	reg := syncsched.NewRegistry(syncsched.WithSyncer(store))
	start := time.Now().Add(48 * time.Hour).Truncate(time.Second)

	a, err := reg.Add(ctx, syncsched.Draft{StartAt: start, Label: "a", IntervalDays: 1})
	require.NoError(t, err)
	_, err = reg.Add(ctx, syncsched.Draft{StartAt: start.Add(time.Hour), Label: "b", IntervalDays: 1})
	require.NoError(t, err)
	require.NoError(t, reg.Save(ctx))
	require.NoError(t, store.SetSkipNext(ctx, a.ID, true))

	// Second process: reload and check the skip is reported.
	store2 := open()
	reg2 := syncsched.NewRegistry(syncsched.WithSyncer(store2))
	rows, err := store2.LoadSchedules(ctx)
	require.NoError(t, err)
	reg2.Load(rows)
	require.Equal(t, 2, reg2.Len())

	var runs atomic.Int32
	d2 := syncsched.NewDispatcher(reg2, syncsched.RunnerFunc(func(context.Context, syncsched.Schedule, time.Time) error {
		runs.Add(1)
		return nil
	}), syncsched.WithRecorder(store2))

	reloaded, ok := reg2.Get(a.ID)
	require.True(t, ok)
	assert.True(t, d2.Skipping(reloaded))

	next, at, ok := d2.NextSync()
	require.True(t, ok)
	assert.Equal(t, "b", next.Label, "a's first occurrence is skipped, so b comes first")
	assert.True(t, start.Add(time.Hour).Equal(at))
}

func TestIntegration_SyncNowRecordsRun(t *testing.T) {
	ctx := context.Background()
	store := openIntegrationStorage(t)
	reg := syncsched.NewRegistry(syncsched.WithSyncer(store))

	var calls atomic.Int32
	d := syncsched.NewDispatcher(reg, syncsched.RunnerFunc(func(context.Context, syncsched.Schedule, time.Time) error {
		calls.Add(1)
		return nil
	}), syncsched.WithRecorder(store), syncsched.MinGap(time.Hour))

	require.NoError(t, d.SyncNow(ctx))
	assert.ErrorIs(t, d.SyncNow(ctx), syncsched.ErrTooSoon)
	assert.Equal(t, int32(1), calls.Load())

	runs, err := store.ListRuns(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	statuses := []syncsched.RunStatus{runs[0].Status, runs[1].Status}
	assert.ElementsMatch(t, []syncsched.RunStatus{syncsched.RunCompleted, syncsched.RunSkipped}, statuses)
}
