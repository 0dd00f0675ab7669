package mintauth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/mintauth/mintauth/jwt"
	"github.com/mintauth/mintauth/password"
	"github.com/mintauth/mintauth/session"
)

// Engine is the caller-facing credential API. Construct through
// [Builder.Build]; a built Engine is immutable and safe for concurrent use.
type Engine struct {
	config  Config
	tokens  *jwt.Manager
	hasher  *password.Hasher
	policy  *password.Policy
	store   session.Store
	metrics *Metrics
	warn    func(format string, args ...any)
}

// IssuePair mints an access/refresh pair for identity, creating a new ACTIVE
// refresh session. This is the token half of a login flow; credential
// verification against stored users happens before this call, on the host's
// side.
func (e *Engine) IssuePair(ctx context.Context, identity Identity) (*TokenPair, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	access, _, err := e.tokens.IssueAccess(identity.UserID, identity.Email, identity.Role)
	if err != nil {
		return nil, err
	}
	e.metricInc(MetricAccessIssued)

	refresh, sessionID, err := e.IssueRefreshToken(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		SessionID:    sessionID,
	}, nil
}

// IssueAccessToken stamps and signs a short-lived access token for identity.
// Stateless: no store interaction, no server-side record.
func (e *Engine) IssueAccessToken(identity Identity) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}

	token, _, err := e.tokens.IssueAccess(identity.UserID, identity.Email, identity.Role)
	if err != nil {
		return "", err
	}
	e.metricInc(MetricAccessIssued)
	return token, nil
}

// VerifyAccessToken checks signature and expiry and returns verified claims.
// Fails with [ErrMalformed], [ErrInvalidSignature], or [ErrTokenExpired].
func (e *Engine) VerifyAccessToken(token string) (*jwt.AccessClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyAccess(token)
	if err != nil {
		e.metricInc(MetricAccessRejected)
		return nil, err
	}
	e.metricInc(MetricAccessVerified)
	return claims, nil
}

// DecodeToken parses a token of either kind without verifying signature or
// expiry, for non-trust-sensitive introspection. Returns nil when the input
// cannot be parsed at all. The result proves nothing about authenticity.
func (e *Engine) DecodeToken(token string) *jwt.UnverifiedClaims {
	if e == nil {
		return nil
	}
	return e.tokens.Decode(token)
}

// IssueRefreshToken creates a fresh unguessable session ID, records it as
// ACTIVE in the store, and returns the signed refresh token together with the
// session ID.
func (e *Engine) IssueRefreshToken(ctx context.Context, userID string) (string, string, error) {
	if e == nil {
		return "", "", ErrEngineNotReady
	}

	sessionID := uuid.NewString()
	token, claims, err := e.tokens.IssueRefresh(userID, sessionID)
	if err != nil {
		return "", "", err
	}

	err = e.store.Create(ctx, session.Record{
		SessionID: sessionID,
		UserID:    userID,
		Status:    session.StatusActive,
		ExpiresAt: claims.ExpiresAt.Time,
	})
	if err != nil {
		return "", "", err
	}

	e.metricInc(MetricRefreshIssued)
	return token, sessionID, nil
}

// VerifyRefreshToken checks signature and expiry, then requires the embedded
// session to resolve to an ACTIVE store record. Cryptographic validity alone
// is never sufficient: a missing, ROTATED, or REVOKED record fails with
// [ErrRevoked] no matter how valid the signature is.
func (e *Engine) VerifyRefreshToken(ctx context.Context, token string) (*jwt.RefreshClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyRefresh(token)
	if err != nil {
		e.metricInc(MetricRefreshRejected)
		return nil, err
	}

	if err := e.checkSessionActive(ctx, claims); err != nil {
		e.metricInc(MetricRefreshRejected)
		return nil, err
	}

	e.metricInc(MetricRefreshVerified)
	return claims, nil
}

func (e *Engine) checkSessionActive(ctx context.Context, claims *jwt.RefreshClaims) error {
	rec, err := e.store.Get(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return ErrRevoked
		}
		return err
	}

	if rec.Status != session.StatusActive {
		return ErrRevoked
	}
	if rec.Expired(time.Now()) {
		return ErrTokenExpired
	}
	return nil
}

// RotateRefreshToken verifies the presented token, atomically transitions its
// session from ACTIVE to ROTATED, and installs a new ACTIVE session, returning
// the new token and session ID. Of N concurrent rotations on one session
// exactly one succeeds; the rest fail with [ErrRevoked]. A conflict on a
// still-existing record means a superseded token was replayed; with
// Session.RevokeOnReuse set, every session of that user is revoked
// best-effort as a precaution.
func (e *Engine) RotateRefreshToken(ctx context.Context, token string) (string, string, error) {
	if e == nil {
		return "", "", ErrEngineNotReady
	}

	claims, err := e.tokens.VerifyRefresh(token)
	if err != nil {
		e.metricInc(MetricRefreshRejected)
		return "", "", err
	}

	newSessionID := uuid.NewString()
	newToken, newClaims, err := e.tokens.IssueRefresh(claims.Subject, newSessionID)
	if err != nil {
		return "", "", err
	}

	err = e.store.Rotate(ctx, claims.SessionID, session.Record{
		SessionID: newSessionID,
		UserID:    claims.Subject,
		Status:    session.StatusActive,
		ExpiresAt: newClaims.ExpiresAt.Time,
	})
	if err != nil {
		switch {
		case errors.Is(err, session.ErrConflict):
			e.metricInc(MetricRefreshReuseDetected)
			e.handleReuse(ctx, claims.Subject)
			return "", "", ErrRevoked
		case errors.Is(err, session.ErrNotFound):
			return "", "", ErrRevoked
		default:
			return "", "", err
		}
	}

	e.metricInc(MetricRefreshIssued)
	e.metricInc(MetricRefreshRotated)
	return newToken, newSessionID, nil
}

// handleReuse revokes the whole session family after reuse detection. Failure
// here must not mask the ErrRevoked the caller is about to receive, so it is
// only logged through the Warn hook.
func (e *Engine) handleReuse(ctx context.Context, userID string) {
	if !e.config.Session.RevokeOnReuse {
		return
	}
	if err := e.store.RevokeAllForUser(ctx, userID); err != nil && e.warn != nil {
		e.warn("mintauth: family revocation after reuse detection failed: %v", err)
	}
}

// RevokeSession transitions the session to REVOKED. Idempotent: revoking a
// missing or already-terminal session succeeds.
func (e *Engine) RevokeSession(ctx context.Context, sessionID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.store.Revoke(ctx, sessionID); err != nil {
		return err
	}
	e.metricInc(MetricSessionRevoked)
	return nil
}

// RevokeAllSessions revokes every session belonging to userID. Idempotent.
func (e *Engine) RevokeAllSessions(ctx context.Context, userID string) error {
	if e == nil {
		return ErrEngineNotReady
	}

	if err := e.store.RevokeAllForUser(ctx, userID); err != nil {
		return err
	}
	e.metricInc(MetricUserSessionsRevoked)
	return nil
}

// HashPassword derives a fresh-salted Argon2id hash. Two calls with the same
// plaintext never return the same string.
func (e *Engine) HashPassword(plaintext string) (string, error) {
	if e == nil {
		return "", ErrEngineNotReady
	}
	return e.hasher.Hash(plaintext)
}

// ComparePassword reports whether plaintext matches hash in constant time.
func (e *Engine) ComparePassword(plaintext, hash string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	return e.hasher.Compare(plaintext, hash)
}

// ValidatePassword checks candidate against the strength policy and returns a
// *password.PolicyError listing every violated rule, or nil. Validation is
// independent of hashing; callers validate before hashing, never the reverse.
func (e *Engine) ValidatePassword(candidate string) error {
	if e == nil {
		return ErrEngineNotReady
	}
	return e.policy.Validate(candidate)
}

// NeedsRehash reports whether hash was produced with weaker Argon2id
// parameters than currently configured.
func (e *Engine) NeedsRehash(hash string) (bool, error) {
	if e == nil {
		return false, ErrEngineNotReady
	}
	return e.hasher.NeedsRehash(hash)
}

// MetricsSnapshot returns a copy of the Engine counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{Counters: map[MetricID]uint64{}}
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}
