package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrMalformed is returned when the input cannot be parsed as a token at all.
	ErrMalformed = errors.New("token malformed")
	// ErrInvalidSignature is returned when the signature does not verify, including
	// tokens signed with a different secret or presented to the wrong verifier.
	ErrInvalidSignature = errors.New("token signature invalid")
	// ErrTokenExpired is returned when a validly signed token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
)

// TokenType discriminates access tokens from refresh tokens in the "typ" claim.
type TokenType string

const (
	// TypeAccess marks short-lived stateless bearer tokens.
	TypeAccess TokenType = "access"
	// TypeRefresh marks long-lived revocable session tokens.
	TypeRefresh TokenType = "refresh"
)

// Role is the coarse role carried inside access-token claims.
type Role string

const (
	// RoleUser is the default role for authenticated end users.
	RoleUser Role = "USER"
	// RoleAdmin marks administrative principals.
	RoleAdmin Role = "ADMIN"
)

// Config holds the signing material and lifetimes for both token kinds.
//
// Config instances are validated once in [NewManager] and treated as immutable
// afterwards.
type Config struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// Manager signs and verifies access and refresh tokens. Safe for concurrent
// use; it holds no mutable state after construction.
type Manager struct {
	config     Config
	accessKey  []byte
	refreshKey []byte
	now        func() time.Time
}

// AccessClaims are the verified contents of an access token. Subject carries
// the user ID.
type AccessClaims struct {
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// RefreshClaims are the verified contents of a refresh token. Subject carries
// the user ID; SessionID is the sole revocation key.
type RefreshClaims struct {
	SessionID string    `json:"sid"`
	TokenType TokenType `json:"typ"`
	jwt.RegisteredClaims
}

// UnverifiedClaims are claims read without signature or expiry checks.
// They prove nothing about authenticity and must never be used for
// authorization decisions.
type UnverifiedClaims struct {
	UserID    string
	Email     string
	Role      Role
	SessionID string
	TokenType TokenType
	IssuedAt  time.Time
	ExpiresAt time.Time
}

const minSecretBytes = 32

// NewManager validates cfg and returns a ready Manager. Secrets shorter than
// 32 bytes and non-positive TTLs are rejected at construction so a
// misconfigured service fails at startup, not on first use.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretBytes {
		return nil, errors.New("signing secret must be at least 32 bytes")
	}
	if cfg.AccessTTL <= 0 || cfg.RefreshTTL <= 0 {
		return nil, errors.New("invalid TTL configuration")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}

	return &Manager{
		config:     cfg,
		accessKey:  deriveKey(cfg.Secret, TypeAccess),
		refreshKey: deriveKey(cfg.Secret, TypeRefresh),
		now:        time.Now,
	}, nil
}

// deriveKey domain-separates the signing key per token kind so the two
// verifiers never accept each other's tokens.
func deriveKey(secret []byte, kind TokenType) []byte {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte("mintauth/key/" + kind))
	return mac.Sum(nil)
}

// IssueAccess stamps iat=now and exp=now+AccessTTL, signs the claims with the
// access key, and returns the compact token string.
func (m *Manager) IssueAccess(userID, email string, role Role) (string, *AccessClaims, error) {
	now := m.now()
	claims := &AccessClaims{
		Email:     email,
		Role:      role,
		TokenType: TypeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.AccessTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.accessKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// IssueRefresh signs a refresh token binding userID to sessionID with
// exp=now+RefreshTTL.
func (m *Manager) IssueRefresh(userID, sessionID string) (string, *RefreshClaims, error) {
	now := m.now()
	claims := &RefreshClaims{
		SessionID: sessionID,
		TokenType: TypeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.RefreshTTL)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.refreshKey)
	if err != nil {
		return "", nil, err
	}
	return signed, claims, nil
}

// VerifyAccess checks signature and expiry and returns the claims.
// Failures map onto the closed taxonomy: [ErrMalformed], [ErrInvalidSignature],
// [ErrTokenExpired].
func (m *Manager) VerifyAccess(tokenStr string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := m.verify(tokenStr, claims, m.accessKey); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeAccess {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

// VerifyRefresh checks signature and expiry and returns the claims. It does
// NOT consult revocation state; cryptographic validity alone never authorizes
// a refresh.
func (m *Manager) VerifyRefresh(tokenStr string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := m.verify(tokenStr, claims, m.refreshKey); err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, ErrInvalidSignature
	}
	return claims, nil
}

func (m *Manager) verify(tokenStr string, claims jwt.Claims, key []byte) error {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	}
	if m.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(m.config.Leeway))
	}
	if m.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(m.config.Issuer))
	}

	parser := jwt.NewParser(options...)
	token, err := parser.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return key, nil
	})
	if err != nil {
		return classifyParseError(err)
	}
	if !token.Valid {
		return ErrInvalidSignature
	}
	return nil
}

// classifyParseError folds golang-jwt's error set into the closed taxonomy.
// Signature failures win over expiry: a tampered token must never be reported
// as merely expired.
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenMalformed):
		return ErrMalformed
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrInvalidSignature
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	default:
		return ErrInvalidSignature
	}
}

// decodeClaims is the superset claim shape used by Decode so one parse covers
// both token kinds.
type decodeClaims struct {
	Email     string    `json:"email,omitempty"`
	Role      Role      `json:"role,omitempty"`
	SessionID string    `json:"sid,omitempty"`
	TokenType TokenType `json:"typ,omitempty"`
	jwt.RegisteredClaims
}

// Decode parses a token without verifying signature or expiry and returns an
// [*UnverifiedClaims], or nil when the input is not parseable at all. An
// expired but structurally valid token still decodes.
func (m *Manager) Decode(tokenStr string) *UnverifiedClaims {
	claims := &decodeClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenStr, claims); err != nil {
		return nil
	}

	out := &UnverifiedClaims{
		UserID:    claims.Subject,
		Email:     claims.Email,
		Role:      claims.Role,
		SessionID: claims.SessionID,
		TokenType: claims.TokenType,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out
}
