package config

import (
	"fmt"
	"strings"
	"time"
)

// SessionBackend selects which store holds admin sessions.
type SessionBackend string

const (
	// SessionBackendPostgres stores sessions in PostgreSQL.
	SessionBackendPostgres SessionBackend = "postgres"
	// SessionBackendSQLite stores sessions in a local SQLite file.
	SessionBackendSQLite SessionBackend = "sqlite"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionBackend.
func (b *SessionBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(string(text))
	switch v {
	case "postgres", "sqlite":
		*b = SessionBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionBackend: %q (valid options: postgres, sqlite)", v)
	}
}

// AuthConfig groups all session and credential configuration.
type AuthConfig struct {
	// Backend selects the session store implementation.
	Backend SessionBackend `env:"SESSION_BACKEND" envDefault:"postgres"`

	// SessionLifetime is how long an issued session stays valid.
	SessionLifetime time.Duration `env:"SESSION_LIFETIME" envDefault:"24h"`

	// OpTimeout bounds each login, logout, and session restoration.
	// A hung backend resolves to a failed operation instead of a stuck one.
	OpTimeout time.Duration `env:"AUTH_OP_TIMEOUT" envDefault:"10s"`

	// ReapInterval is how often expired sessions are purged.
	ReapInterval time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"1h"`

	// TokenPath is where the local session token is persisted between runs.
	// Empty means the default path under the user config directory.
	TokenPath string `env:"SESSION_TOKEN_PATH" envDefault:""`

	// SessionCache enables the Redis read-through cache in front of the
	// session store.
	SessionCache bool `env:"SESSION_CACHE" envDefault:"false"`

	// AllowPlaintextFallback accepts stored credentials that were never
	// hashed. Only for migrating legacy rows; keep off in production.
	AllowPlaintextFallback bool `env:"AUTH_ALLOW_PLAINTEXT_FALLBACK" envDefault:"false"`
}

// Sanitize applies guardrails to auth configuration values.
func (a *AuthConfig) Sanitize() {
	if a.SessionLifetime <= 0 {
		a.SessionLifetime = 24 * time.Hour
	}
	if a.OpTimeout <= 0 {
		a.OpTimeout = 10 * time.Second
	}
	if a.ReapInterval <= 0 {
		a.ReapInterval = time.Hour
	}
}
