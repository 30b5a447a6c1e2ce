// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.
package ports

import (
	"context"
	"time"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
)

// ErrNotFound is returned by SessionStore lookups when the requested record
// does not exist. FindValidSession also returns it for expired sessions;
// callers cannot distinguish the two cases.
var ErrNotFound error = notFoundError{}

type notFoundError struct{}

func (notFoundError) Error() string { return "not found" }

// SessionStore persists identities' sessions against the remote data store.
// Both relational backends implement the same contract.
type SessionStore interface {
	// FindActiveIdentityByEmail returns the active identity with the given
	// email, with its role joined in. Email matching is case-insensitive.
	// Inactive and unknown identities both yield ErrNotFound.
	FindActiveIdentityByEmail(ctx context.Context, email string) (*domainauth.Identity, error)

	// CreateSession inserts a new session row. Tokens are unique.
	CreateSession(ctx context.Context, sess domainauth.Session) error

	// DeleteSession removes the session with the given token. Deleting a
	// token that does not exist is not an error.
	DeleteSession(ctx context.Context, token string) error

	// FindValidSession returns the identity (with role) owning a non-expired
	// session with the given token, along with the session's expiry. Missing
	// and expired sessions are both ErrNotFound. Decorators rely on the
	// returned expiry; it is the single source of session lifetime.
	FindValidSession(ctx context.Context, token string) (*domainauth.Identity, time.Time, error)

	// TouchLastLogin records a successful login time. Callers treat failures
	// as best-effort.
	TouchLastLogin(ctx context.Context, identityID string) error

	// PurgeExpiredSessions deletes expired session rows and reports how many
	// were removed. Purely hygienic; validity never depends on it.
	PurgeExpiredSessions(ctx context.Context) (int64, error)
}

// CredentialVerifier compares a supplied plaintext secret against a stored
// credential representation. Implementations never panic; any internal
// comparison failure reads as "not equal".
type CredentialVerifier interface {
	Verify(supplied, stored string) bool
}

// TokenIssuer mints opaque session tokens with their expiry.
type TokenIssuer interface {
	Issue() (token string, expiresAt time.Time)
}

// TokenVault is the single piece of cross-restart local state: the persisted
// session token. Absence means unauthenticated; presence proves nothing
// until re-checked against the store.
type TokenVault interface {
	Load() (string, error)
	Store(token string) error
	Clear() error
}
