// Package sqlitestore implements the session.Store contract on SQLite.
//
// A single table holds one row per session. Rotation is a conditional UPDATE
// keyed on the row still being ACTIVE plus the INSERT of the successor, both
// inside one transaction; SQLite's writer serialization makes the pair behave
// as a compare-and-swap, so concurrent rotations of the same session resolve
// to exactly one winner.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/mintauth/mintauth/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	session_id TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	status     INTEGER NOT NULL,
	expires_at INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	rotated_to TEXT
);
CREATE INDEX IF NOT EXISTS sessions_user_id_idx ON sessions (user_id);
`

// Store is a SQLite-backed session.Store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the session database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("storage path is required")
	}

	dsn := path + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// One writer connection keeps rotation transactions serialized without
	// surfacing SQLITE_BUSY to callers.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store, err := NewFromDB(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// NewFromDB wraps an existing handle and applies the schema. The caller keeps
// ownership of db.
func NewFromDB(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("nil database handle")
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("apply session schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Create inserts a new ACTIVE row. The primary key enforces that session IDs
// are never reused.
func (s *Store) Create(ctx context.Context, rec session.Record) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, status, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		rec.SessionID, rec.UserID, int(rec.Status), toMillis(rec.ExpiresAt), toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return session.ErrDuplicateID
		}
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// Get returns the row for sessionID regardless of status or expiry.
func (s *Store) Get(ctx context.Context, sessionID string) (*session.Record, error) {
	var (
		userID       string
		status       int
		expiresMilli int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, status, expires_at FROM sessions WHERE session_id = ?`,
		sessionID,
	).Scan(&userID, &status, &expiresMilli)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	return &session.Record{
		SessionID: sessionID,
		UserID:    userID,
		Status:    session.Status(status),
		ExpiresAt: fromMillis(expiresMilli),
	}, nil
}

// Rotate transitions oldSessionID out of ACTIVE and inserts next in one
// transaction. The UPDATE's status predicate is the CAS: whichever concurrent
// transaction commits first flips the row, and every later UPDATE matches
// zero rows.
func (s *Store) Rotate(ctx context.Context, oldSessionID string, next session.Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE sessions SET status = ?, rotated_to = ? WHERE session_id = ? AND status = ?`,
		int(session.StatusRotated), next.SessionID, oldSessionID, int(session.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	if affected == 0 {
		var status int
		err := tx.QueryRowContext(ctx,
			`SELECT status FROM sessions WHERE session_id = ?`, oldSessionID,
		).Scan(&status)
		if errors.Is(err, sql.ErrNoRows) {
			return session.ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
		}
		return session.ErrConflict
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO sessions (session_id, user_id, status, expires_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		next.SessionID, next.UserID, int(next.Status), toMillis(next.ExpiresAt), toMillis(time.Now()),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return session.ErrDuplicateID
		}
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// Revoke marks sessionID REVOKED. Rows already terminal (or absent) are left
// untouched, keeping the operation idempotent.
func (s *Store) Revoke(ctx context.Context, sessionID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE session_id = ? AND status = ?`,
		int(session.StatusRevoked), sessionID, int(session.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// RevokeAllForUser revokes every ACTIVE session of userID in one statement.
func (s *Store) RevokeAllForUser(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET status = ? WHERE user_id = ? AND status = ?`,
		int(session.StatusRevoked), userID, int(session.StatusActive),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return nil
}

// DeleteExpiredBefore removes rows whose expiry lapsed before cutoff. Hosts
// may run this from a maintenance job; correctness never depends on it since
// expiry is enforced lazily at verification time.
func (s *Store) DeleteExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE expires_at < ?`, toMillis(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", session.ErrUnavailable, err)
	}
	return n, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis restores millisecond precision and keeps UTC normalization.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}
