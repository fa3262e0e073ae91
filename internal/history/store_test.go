package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scheerer/redlight/internal/game"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSaveAndRecent(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	base := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	for i, reason := range []string{"motion", "quit", "motion"} {
		require.NoError(t, store.Save(ctx, Record{
			StartedAt:     base.Add(time.Duration(i) * time.Minute),
			EndedAt:       base.Add(time.Duration(i)*time.Minute + 30*time.Second + time.Duration(i)*time.Millisecond),
			Reason:        reason,
			Rounds:        i * 2,
			StopsSurvived: i,
			Source:        "camera 0",
		}))
	}

	got, err := store.Recent(ctx, 2)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, 2, got[0].StopsSurvived)
	assert.Equal(t, 1, got[1].StopsSurvived)
	assert.Equal(t, "quit", got[1].Reason)
	assert.NotEmpty(t, got[0].ID)
	assert.Equal(t, 30*time.Second+2*time.Millisecond, got[0].Duration())
	assert.True(t, got[0].StartedAt.Equal(base.Add(2*time.Minute)))
}

func TestBest(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	_, ok, err := store.Best(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	now := time.Now()
	require.NoError(t, store.Save(ctx, Record{ID: "a", StartedAt: now, EndedAt: now.Add(time.Second), Reason: "motion", StopsSurvived: 4}))
	require.NoError(t, store.Save(ctx, Record{ID: "b", StartedAt: now, EndedAt: now.Add(2 * time.Second), Reason: "motion", StopsSurvived: 7}))
	require.NoError(t, store.Save(ctx, Record{ID: "c", StartedAt: now, EndedAt: now.Add(3 * time.Second), Reason: "quit", StopsSurvived: 7}))

	best, ok, err := store.Best(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", best.ID)
}

func TestSaveRejectsDuplicateID(t *testing.T) {
	ctx := context.Background()
	store := openStore(t)

	r := Record{ID: "dup", StartedAt: time.Now(), EndedAt: time.Now(), Reason: "quit"}
	require.NoError(t, store.Save(ctx, r))
	assert.Error(t, store.Save(ctx, r))
}

func TestFromSession(t *testing.T) {
	s := game.NewSession(2)
	c := game.NewController(s, 2)
	for i := 0; i < 5; i++ {
		c.Tick()
	}
	s.End(game.ReasonMotion)

	r := FromSession(s, "screen 0")
	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "motion", r.Reason)
	assert.Equal(t, 2, r.Rounds)
	assert.Equal(t, 1, r.StopsSurvived)
	assert.Equal(t, "screen 0", r.Source)
	assert.False(t, r.EndedAt.Before(r.StartedAt))
}

func TestBestReportsCorruptTimestamps(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	_, err := store.db.ExecContext(ctx, `
INSERT INTO games (id, started_at, ended_at, reason, rounds, stops_survived, source)
VALUES ('broken', 'yesterday', 'today', 'motion', 1, 9, 'camera 0')`)
	require.NoError(t, err)

	_, ok, err := store.Best(ctx)
	assert.False(t, ok)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse started_at of broken")
}
