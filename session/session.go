package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a session ID.
	ErrNotFound = errors.New("session not found")
	// ErrConflict is returned when an atomic rotation loses to a concurrent
	// transition: the old record was no longer ACTIVE.
	ErrConflict = errors.New("session rotation conflict")
	// ErrDuplicateID is returned when creating a record under a session ID
	// that already exists. Session IDs are never reused.
	ErrDuplicateID = errors.New("session id already exists")
	// ErrUnavailable wraps backend transport failures (Redis down, database
	// locked). It never classifies token validity.
	ErrUnavailable = errors.New("session store unavailable")
)

// Status is the lifecycle state of a session record.
type Status uint8

const (
	// StatusActive permits refresh verification and rotation.
	StatusActive Status = iota
	// StatusRotated marks a session superseded by rotation. Terminal.
	StatusRotated
	// StatusRevoked marks a session ended by logout or explicit revocation. Terminal.
	StatusRevoked
)

// String returns the store-facing name of the status.
func (s Status) String() string {
	switch s {
	case StatusActive:
		return "ACTIVE"
	case StatusRotated:
		return "ROTATED"
	case StatusRevoked:
		return "REVOKED"
	default:
		return "UNKNOWN"
	}
}

// Record is the server-side state of one refresh-token session.
type Record struct {
	SessionID string
	UserID    string
	Status    Status
	ExpiresAt time.Time
}

// Expired reports whether the record's expiry has lapsed at now.
func (r *Record) Expired(now time.Time) bool {
	return now.After(r.ExpiresAt)
}

// Store persists session records. Implementations must be safe for concurrent
// use and must make Rotate a single atomic conditional operation.
type Store interface {
	// Create installs a new ACTIVE record. Fails with ErrDuplicateID if the
	// session ID is already present.
	Create(ctx context.Context, rec Record) error

	// Get returns the record for sessionID, or ErrNotFound. Get never filters
	// by status or expiry; classification is the caller's job.
	Get(ctx context.Context, sessionID string) (*Record, error)

	// Rotate atomically transitions oldSessionID from ACTIVE to ROTATED and
	// installs next as a new ACTIVE record. Returns ErrNotFound when the old
	// record is missing and ErrConflict when it exists but is not ACTIVE.
	// At most one of N concurrent calls on the same oldSessionID succeeds.
	Rotate(ctx context.Context, oldSessionID string, next Record) error

	// Revoke transitions sessionID to REVOKED. Idempotent: revoking a missing
	// or already-terminal session returns nil.
	Revoke(ctx context.Context, sessionID string) error

	// RevokeAllForUser revokes every session belonging to userID. Idempotent.
	RevokeAllForUser(ctx context.Context, userID string) error
}
