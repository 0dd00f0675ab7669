package session

import (
	"context"
	"sync"
)

// Memory is an in-process [Store] guarded by a single mutex. The mutex makes
// Rotate trivially atomic, which is the reference behavior the distributed
// backends must reproduce. Intended for embedding in single-process hosts and
// for tests.
type Memory struct {
	mu      sync.Mutex
	records map[string]*Record
	byUser  map[string]map[string]struct{}
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]*Record),
		byUser:  make(map[string]map[string]struct{}),
	}
}

// Create installs a new ACTIVE record.
func (m *Memory) Create(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[rec.SessionID]; exists {
		return ErrDuplicateID
	}

	m.insertLocked(rec)
	return nil
}

// Get returns a copy of the record for sessionID.
func (m *Memory) Get(_ context.Context, sessionID string) (*Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.records[sessionID]
	if !ok {
		return nil, ErrNotFound
	}

	out := *rec
	return &out, nil
}

// Rotate performs the conditional ACTIVE→ROTATED transition and installs next
// under the same lock, so concurrent callers serialize and exactly one wins.
func (m *Memory) Rotate(_ context.Context, oldSessionID string, next Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	old, ok := m.records[oldSessionID]
	if !ok {
		return ErrNotFound
	}
	if old.Status != StatusActive {
		return ErrConflict
	}
	if _, exists := m.records[next.SessionID]; exists {
		return ErrDuplicateID
	}

	old.Status = StatusRotated
	m.insertLocked(next)
	return nil
}

// Revoke marks sessionID REVOKED. Missing or already-terminal sessions are a no-op.
func (m *Memory) Revoke(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[sessionID]; ok && rec.Status == StatusActive {
		rec.Status = StatusRevoked
	}
	return nil
}

// RevokeAllForUser marks every ACTIVE session of userID REVOKED.
func (m *Memory) RevokeAllForUser(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for sessionID := range m.byUser[userID] {
		if rec, ok := m.records[sessionID]; ok && rec.Status == StatusActive {
			rec.Status = StatusRevoked
		}
	}
	return nil
}

func (m *Memory) insertLocked(rec Record) {
	stored := rec
	m.records[rec.SessionID] = &stored

	sessions, ok := m.byUser[rec.UserID]
	if !ok {
		sessions = make(map[string]struct{})
		m.byUser[rec.UserID] = sessions
	}
	sessions[rec.SessionID] = struct{}{}
}
