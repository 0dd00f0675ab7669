package mintauth

import "github.com/mintauth/mintauth/jwt"

// Role aliases the claim-level role type so hosts rarely need to import the
// jwt subpackage directly.
type Role = jwt.Role

const (
	// RoleUser is the default role for authenticated end users.
	RoleUser = jwt.RoleUser
	// RoleAdmin marks administrative principals.
	RoleAdmin = jwt.RoleAdmin
)

// Identity is the caller-supplied principal minted into tokens. The Engine
// never looks identities up; authentication of the underlying user is the
// host's responsibility.
type Identity struct {
	UserID string
	Email  string
	Role   Role
}

// TokenPair is the result of a login-style issuance: a short-lived access
// token, its long-lived refresh companion, and the refresh session ID for
// later explicit revocation.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	SessionID    string
}
