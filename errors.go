package mintauth

import (
	"errors"

	"github.com/mintauth/mintauth/jwt"
	"github.com/mintauth/mintauth/password"
	"github.com/mintauth/mintauth/session"
)

// The closed error taxonomy. Every Engine operation fails with exactly one of
// these (or a *password.PolicyError, which unwraps to ErrPasswordPolicy), so
// call sites can handle failures exhaustively instead of matching on message
// strings.
var (
	// ErrMalformed means the input could not be parsed as a token at all.
	// Fatal; never retried.
	ErrMalformed = jwt.ErrMalformed
	// ErrInvalidSignature means tampering, a wrong secret, or a token of the
	// wrong kind. Fatal; callers should force re-authentication.
	ErrInvalidSignature = jwt.ErrInvalidSignature
	// ErrTokenExpired means a validly signed token past its expiry. Callers
	// holding a refresh token should attempt a refresh, otherwise force login.
	ErrTokenExpired = jwt.ErrTokenExpired
	// ErrRevoked means the session was ended or superseded by rotation or
	// reuse. Callers must force a full re-login, never silently reissue.
	ErrRevoked = errors.New("session revoked")
	// ErrPasswordPolicy is the sentinel behind every *password.PolicyError.
	// Recoverable; violations are surfaced to the end user verbatim.
	ErrPasswordPolicy = password.ErrPolicy
	// ErrStoreUnavailable wraps session-store transport failures. It reports
	// infrastructure state, never token validity.
	ErrStoreUnavailable = session.ErrUnavailable
	// ErrEngineNotReady is returned by methods on a nil or unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)
