package mintauth

import (
	"errors"
	"log"

	"github.com/mintauth/mintauth/jwt"
	"github.com/mintauth/mintauth/password"
	"github.com/mintauth/mintauth/session"
)

// Builder assembles an [Engine] from explicit configuration and a session
// store. All validation is front-loaded into [Builder.Build] so a
// misconfigured service fails at startup rather than lazily on first use.
type Builder struct {
	config Config
	store  session.Store
	warn   func(format string, args ...any)

	built bool
}

// New returns a Builder preloaded with defaults.
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
		warn:   log.Printf,
	}
}

// WithConfig replaces the configuration. The config is cloned; later mutation
// of cfg by the caller does not affect the Builder.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithStore sets the session store backing refresh-token revocation state.
func (b *Builder) WithStore(store session.Store) *Builder {
	b.store = store
	return b
}

// WithWarnFunc replaces the logger used for best-effort failures outside
// request paths (family revocation after reuse detection). Engine operations
// themselves never log.
func (b *Builder) WithWarnFunc(warn func(format string, args ...any)) *Builder {
	b.warn = warn
	return b
}

// WithMetricsEnabled toggles the counter registry.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// Build validates the configuration and returns a ready Engine. A Builder can
// be used once.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("session store is required")
	}

	manager, err := jwt.NewManager(jwt.Config{
		Secret:     b.config.JWT.Secret,
		AccessTTL:  b.config.JWT.AccessTTL,
		RefreshTTL: b.config.JWT.RefreshTTL,
		Issuer:     b.config.JWT.Issuer,
		Leeway:     b.config.JWT.Leeway,
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{
		Memory:      b.config.Password.Memory,
		Time:        b.config.Password.Time,
		Parallelism: b.config.Password.Parallelism,
		SaltLength:  b.config.Password.SaltLength,
		KeyLength:   b.config.Password.KeyLength,
	})
	if err != nil {
		return nil, err
	}

	b.built = true

	return &Engine{
		config:  b.config,
		tokens:  manager,
		hasher:  hasher,
		policy:  password.NewPolicy(b.config.Password.MinLength, b.config.Password.SpecialChars),
		store:   b.store,
		metrics: NewMetrics(b.config.Metrics),
		warn:    b.warn,
	}, nil
}
