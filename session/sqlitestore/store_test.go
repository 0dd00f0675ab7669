package sqlitestore

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mintauth/mintauth/session"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func activeRecord(sessionID, userID string) session.Record {
	return session.Record{
		SessionID: sessionID,
		UserID:    userID,
		Status:    session.StatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := activeRecord("s1", "u1")
	require.NoError(t, store.Create(ctx, rec))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.UserID)
	assert.Equal(t, session.StatusActive, got.Status)
	assert.WithinDuration(t, rec.ExpiresAt, got.ExpiresAt, time.Millisecond)

	_, err = store.Get(ctx, "missing")
	assert.ErrorIs(t, err, session.ErrNotFound)

	assert.ErrorIs(t, store.Create(ctx, activeRecord("s1", "u1")), session.ErrDuplicateID)
}

func TestRotate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("s1", "u1")))
	require.NoError(t, store.Rotate(ctx, "s1", activeRecord("s2", "u1")))

	old, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusRotated, old.Status)

	next, err := store.Get(ctx, "s2")
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, next.Status)

	assert.ErrorIs(t, store.Rotate(ctx, "s1", activeRecord("s3", "u1")), session.ErrConflict)
	assert.ErrorIs(t, store.Rotate(ctx, "missing", activeRecord("s4", "u1")), session.ErrNotFound)
}

func TestRotateConcurrentSingleWinner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("s1", "u1")))

	const n = 8
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		next := activeRecord("next-"+string(rune('a'+i)), "u1")
		go func(next session.Record) {
			defer wg.Done()
			results <- store.Rotate(ctx, "s1", next)
		}(next)
	}
	wg.Wait()
	close(results)

	success, conflict := 0, 0
	for err := range results {
		switch {
		case err == nil:
			success++
		default:
			require.ErrorIs(t, err, session.ErrConflict)
			conflict++
		}
	}

	assert.Equal(t, 1, success, "exactly one rotation must win")
	assert.Equal(t, n-1, conflict)
}

func TestRevokeIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("s1", "u1")))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Revoke(ctx, "s1"))
	}
	require.NoError(t, store.Revoke(ctx, "never-existed"))

	rec, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusRevoked, rec.Status)
}

func TestRevokeDoesNotResurrectRotated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("s1", "u1")))
	require.NoError(t, store.Rotate(ctx, "s1", activeRecord("s2", "u1")))
	require.NoError(t, store.Revoke(ctx, "s1"))

	rec, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusRotated, rec.Status, "terminal status must not change")
}

func TestRevokeAllForUser(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, activeRecord("s1", "u1")))
	require.NoError(t, store.Create(ctx, activeRecord("s2", "u1")))
	require.NoError(t, store.Create(ctx, activeRecord("other", "u2")))

	require.NoError(t, store.RevokeAllForUser(ctx, "u1"))
	require.NoError(t, store.RevokeAllForUser(ctx, "u1"))

	for _, sid := range []string{"s1", "s2"} {
		rec, err := store.Get(ctx, sid)
		require.NoError(t, err)
		assert.Equal(t, session.StatusRevoked, rec.Status)
	}

	rec, err := store.Get(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, session.StatusActive, rec.Status)
}

func TestDeleteExpiredBefore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	stale := activeRecord("stale", "u1")
	stale.ExpiresAt = time.Now().Add(-time.Hour)
	require.NoError(t, store.Create(ctx, stale))
	require.NoError(t, store.Create(ctx, activeRecord("fresh", "u1")))

	deleted, err := store.DeleteExpiredBefore(ctx, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, deleted)

	_, err = store.Get(ctx, "stale")
	assert.ErrorIs(t, err, session.ErrNotFound)

	_, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
}
