package mintauth

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the explicit configuration passed to [Builder.WithConfig]. There
// is no implicit global state: every secret and lifetime is supplied here and
// checked fail-fast in [Builder.Build].
type Config struct {
	JWT      JWTConfig
	Session  SessionConfig
	Password PasswordConfig
	Metrics  MetricsConfig
}

// JWTConfig holds the signing secret and token lifetimes. The secret must be
// at least 32 bytes; access and refresh signing keys are derived from it with
// domain separation.
type JWTConfig struct {
	Secret     []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Issuer     string
	Leeway     time.Duration
}

// SessionConfig controls refresh-session behavior.
type SessionConfig struct {
	// RevokeOnReuse revokes every session of a user when a superseded refresh
	// token is presented again, treating reuse as a theft signal.
	RevokeOnReuse bool
}

// PasswordConfig holds Argon2id cost parameters and strength-policy settings.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32

	MinLength    int
	SpecialChars string
}

// MetricsConfig toggles the in-process counter registry.
type MetricsConfig struct {
	Enabled bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
			Issuer:     "mintauth",
		},
		Session: SessionConfig{
			RevokeOnReuse: true,
		},
		Password: PasswordConfig{
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
			MinLength:   8,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = append([]byte(nil), cfg.JWT.Secret...)
	return out
}

// envConfig is the flat environment-variable view of [Config].
type envConfig struct {
	Secret     string        `env:"MINTAUTH_JWT_SECRET"`
	AccessTTL  time.Duration `env:"MINTAUTH_ACCESS_TTL" envDefault:"15m"`
	RefreshTTL time.Duration `env:"MINTAUTH_REFRESH_TTL" envDefault:"168h"`
	Issuer     string        `env:"MINTAUTH_ISSUER" envDefault:"mintauth"`
	Leeway     time.Duration `env:"MINTAUTH_LEEWAY" envDefault:"0"`

	RevokeOnReuse bool `env:"MINTAUTH_REVOKE_ON_REUSE" envDefault:"true"`

	ArgonMemory      uint32 `env:"MINTAUTH_ARGON_MEMORY_KB" envDefault:"65536"`
	ArgonTime        uint32 `env:"MINTAUTH_ARGON_TIME" envDefault:"3"`
	ArgonParallelism uint8  `env:"MINTAUTH_ARGON_PARALLELISM" envDefault:"2"`
	PasswordMinLen   int    `env:"MINTAUTH_PASSWORD_MIN_LENGTH" envDefault:"8"`

	MetricsEnabled bool `env:"MINTAUTH_METRICS_ENABLED" envDefault:"false"`
}

// FromEnv loads configuration from MINTAUTH_* environment variables on top of
// the defaults. Values are only shape-checked here; semantic validation
// happens in [Builder.Build].
func FromEnv() (Config, error) {
	var raw envConfig
	if err := env.Parse(&raw); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg := defaultConfig()
	cfg.JWT.Secret = []byte(raw.Secret)
	cfg.JWT.AccessTTL = raw.AccessTTL
	cfg.JWT.RefreshTTL = raw.RefreshTTL
	cfg.JWT.Issuer = raw.Issuer
	cfg.JWT.Leeway = raw.Leeway
	cfg.Session.RevokeOnReuse = raw.RevokeOnReuse
	cfg.Password.Memory = raw.ArgonMemory
	cfg.Password.Time = raw.ArgonTime
	cfg.Password.Parallelism = raw.ArgonParallelism
	cfg.Password.MinLength = raw.PasswordMinLen
	cfg.Metrics.Enabled = raw.MetricsEnabled

	return cfg, nil
}
