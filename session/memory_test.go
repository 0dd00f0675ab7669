package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func activeRecord(sessionID, userID string) Record {
	return Record{
		SessionID: sessionID,
		UserID:    userID,
		Status:    StatusActive,
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func TestMemoryCreateAndGet(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Create(ctx, activeRecord("s1", "u1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	rec, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.UserID != "u1" || rec.Status != StatusActive {
		t.Fatalf("unexpected record: %+v", rec)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := store.Create(ctx, activeRecord("s1", "u1")); !errors.Is(err, ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestMemoryRotate(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Create(ctx, activeRecord("s1", "u1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := store.Rotate(ctx, "s1", activeRecord("s2", "u1")); err != nil {
		t.Fatalf("Rotate error: %v", err)
	}

	old, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if old.Status != StatusRotated {
		t.Fatalf("expected ROTATED, got %s", old.Status)
	}

	next, err := store.Get(ctx, "s2")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if next.Status != StatusActive {
		t.Fatalf("expected ACTIVE, got %s", next.Status)
	}

	// The rotated-out session is terminal.
	if err := store.Rotate(ctx, "s1", activeRecord("s3", "u1")); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if err := store.Rotate(ctx, "missing", activeRecord("s4", "u1")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryRotateConcurrentSingleWinner(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Create(ctx, activeRecord("s1", "u1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)

	results := make(chan error, n)
	for i := 0; i < n; i++ {
		next := activeRecord("next-"+string(rune('a'+i)), "u1")
		go func(next Record) {
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
		case errors.Is(err, ErrConflict):
			conflict++
		default:
			t.Fatalf("unexpected rotation error: %v", err)
		}
	}

	if success != 1 {
		t.Fatalf("expected exactly one rotation winner, got %d", success)
	}
	if conflict != n-1 {
		t.Fatalf("expected %d conflicts, got %d", n-1, conflict)
	}
}

func TestMemoryRevokeIdempotent(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	if err := store.Create(ctx, activeRecord("s1", "u1")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := store.Revoke(ctx, "s1"); err != nil {
			t.Fatalf("Revoke attempt %d error: %v", i, err)
		}
	}
	if err := store.Revoke(ctx, "never-existed"); err != nil {
		t.Fatalf("Revoke of missing session: %v", err)
	}

	rec, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Status != StatusRevoked {
		t.Fatalf("expected REVOKED, got %s", rec.Status)
	}
}

func TestMemoryRevokeAllForUser(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	for _, sid := range []string{"s1", "s2"} {
		if err := store.Create(ctx, activeRecord(sid, "u1")); err != nil {
			t.Fatalf("Create error: %v", err)
		}
	}
	if err := store.Create(ctx, activeRecord("other", "u2")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	if err := store.RevokeAllForUser(ctx, "u1"); err != nil {
		t.Fatalf("RevokeAllForUser error: %v", err)
	}

	for _, sid := range []string{"s1", "s2"} {
		rec, err := store.Get(ctx, sid)
		if err != nil {
			t.Fatalf("Get error: %v", err)
		}
		if rec.Status != StatusRevoked {
			t.Fatalf("%s: expected REVOKED, got %s", sid, rec.Status)
		}
	}

	rec, err := store.Get(ctx, "other")
	if err != nil {
		t.Fatalf("Get error: %v", err)
	}
	if rec.Status != StatusActive {
		t.Fatalf("unrelated user's session was revoked: %s", rec.Status)
	}
}
