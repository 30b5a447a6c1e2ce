package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

// Sentinel errors surfaced by Login. Everything the adapters can fail with
// collapses into one of these two; callers never see adapter errors.
var (
	// ErrInvalidCredentials covers unknown emails, inactive identities, and
	// wrong secrets alike. The three are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrBackendUnavailable covers any I/O failure during login.
	ErrBackendUnavailable = errors.New("login failed")
)

// dummyBcryptHash is compared against the supplied secret when the email
// lookup finds nothing, keeping the unknown-email and wrong-secret paths in
// the same timing class. Hash of an unused random string.
const dummyBcryptHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// SessionManagerOptions groups dependencies for SessionManager.
type SessionManagerOptions struct {
	Store    ports.SessionStore
	Verifier ports.CredentialVerifier
	Issuer   ports.TokenIssuer
	Vault    ports.TokenVault
	Logger   *slog.Logger

	// OpTimeout bounds each store-backed operation (login, logout, restore)
	// so a hung backend can never leave the console loading forever.
	// Zero means no bound.
	OpTimeout time.Duration
}

// SessionManager orchestrates login, logout, and session restoration, owns
// the process-local AuthState, and broadcasts every state change to
// subscribers. It is constructed once by the composition root and injected
// into consumers; there is no package-level instance.
//
// Login, Logout, and CheckAuth are serialized against each other so a stale
// late-arriving response can never overwrite a newer state. AuthState and
// HasPermission are synchronous reads and never touch the network.
type SessionManager struct {
	store    ports.SessionStore
	verifier ports.CredentialVerifier
	issuer   ports.TokenIssuer
	vault    ports.TokenVault
	logger   *slog.Logger
	timeout  time.Duration

	// opMu serializes login/logout/restore; stateMu guards the snapshot.
	opMu    sync.Mutex
	stateMu sync.RWMutex
	state   domainauth.AuthState

	subs *broadcaster
}

// NewSessionManager constructs a SessionManager in the Authenticating state:
// the manager always attempts restoration before declaring the operator
// unauthenticated.
func NewSessionManager(opts SessionManagerOptions) *SessionManager {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionManager{
		store:    opts.Store,
		verifier: opts.Verifier,
		issuer:   opts.Issuer,
		vault:    opts.Vault,
		logger:   logger,
		timeout:  opts.OpTimeout,
		state:    domainauth.AuthState{Loading: true},
		subs:     newBroadcaster(),
	}
}

// AuthState returns a snapshot of the current authentication state.
func (m *SessionManager) AuthState() domainauth.AuthState {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()
	return m.state
}

// Subscribe registers an observer for state changes and returns its
// unsubscribe function. The observer is not called with the current state
// at registration time.
func (m *SessionManager) Subscribe(fn Observer) func() {
	return m.subs.subscribe(fn)
}

// HasPermission evaluates a "resource.action" permission key against the
// current identity's role. Unauthenticated states, missing roles, and
// missing permission paths all deny. Never consults the network.
func (m *SessionManager) HasPermission(key string) bool {
	m.stateMu.RLock()
	defer m.stateMu.RUnlock()

	if !m.state.Authenticated || m.state.Identity == nil || m.state.Identity.Role == nil {
		return false
	}
	return m.state.Identity.Role.Permissions.AllowsKey(key)
}

// Login verifies the supplied credentials and establishes a new session.
// On success the manager transitions to Authenticated and broadcasts; on any
// failure it resolves to the safe Unauthenticated state and returns either
// ErrInvalidCredentials or ErrBackendUnavailable. It never returns adapter
// errors and never leaves the state pending.
func (m *SessionManager) Login(ctx context.Context, creds domainauth.Credentials) error {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	ctx, cancel := m.bound(ctx)
	defer cancel()

	identity, err := m.store.FindActiveIdentityByEmail(ctx, creds.Email)
	if errors.Is(err, ports.ErrNotFound) {
		// Burn a comparison so unknown emails cost the same as wrong secrets.
		m.verifier.Verify(creds.Password, dummyBcryptHash)
		m.setState(domainauth.AuthState{})
		return ErrInvalidCredentials
	}
	if err != nil {
		m.logger.Error("login: identity lookup failed", "error", err)
		m.setState(domainauth.AuthState{})
		return ErrBackendUnavailable
	}

	if !m.verifier.Verify(creds.Password, identity.PasswordHash) {
		m.setState(domainauth.AuthState{})
		return ErrInvalidCredentials
	}

	if touchErr := m.store.TouchLastLogin(ctx, identity.ID); touchErr != nil {
		m.logger.Warn("login: last-login touch failed", "error", touchErr)
	}

	token, expiresAt := m.issuer.Issue()
	sess := domainauth.Session{
		Token:      token,
		IdentityID: identity.ID,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now(),
	}
	if createErr := m.store.CreateSession(ctx, sess); createErr != nil {
		m.logger.Error("login: create session failed", "error", createErr)
		m.setState(domainauth.AuthState{})
		return ErrBackendUnavailable
	}

	if vaultErr := m.vault.Store(token); vaultErr != nil {
		// The session still works for this run; only restoration is lost.
		m.logger.Warn("login: persist token failed", "error", vaultErr)
	}

	m.setState(domainauth.AuthState{Identity: identity, Authenticated: true})
	return nil
}

// Logout tears down the current session. The remote delete is best-effort;
// local state is always cleared and broadcast, so a failed backend can never
// keep the console signed in. Calling Logout twice is a no-op the second
// time.
func (m *SessionManager) Logout(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	ctx, cancel := m.bound(ctx)
	defer cancel()

	token, err := m.vault.Load()
	if err != nil {
		m.logger.Warn("logout: read persisted token failed", "error", err)
	}
	if token != "" {
		if delErr := m.store.DeleteSession(ctx, token); delErr != nil {
			m.logger.Warn("logout: remote session delete failed", "error", delErr)
		}
	}
	if clearErr := m.vault.Clear(); clearErr != nil {
		m.logger.Warn("logout: clear persisted token failed", "error", clearErr)
	}

	m.setState(domainauth.AuthState{})
}

// CheckAuth restores the session recorded in the token vault, if any. With
// no persisted token it transitions straight to Unauthenticated without a
// backend call. A missing or expired session clears the persisted token.
// Runs once at startup and may be re-invoked manually; it is idempotent.
func (m *SessionManager) CheckAuth(ctx context.Context) {
	m.opMu.Lock()
	defer m.opMu.Unlock()

	token, err := m.vault.Load()
	if err != nil {
		m.logger.Warn("restore: read persisted token failed", "error", err)
	}
	if token == "" {
		m.setState(domainauth.AuthState{})
		return
	}

	ctx, cancel := m.bound(ctx)
	defer cancel()

	identity, _, err := m.store.FindValidSession(ctx, token)
	if errors.Is(err, ports.ErrNotFound) {
		if clearErr := m.vault.Clear(); clearErr != nil {
			m.logger.Warn("restore: clear persisted token failed", "error", clearErr)
		}
		m.setState(domainauth.AuthState{})
		return
	}
	if err != nil {
		m.logger.Error("restore: session lookup failed", "error", err)
		m.setState(domainauth.AuthState{})
		return
	}

	m.setState(domainauth.AuthState{Identity: identity, Authenticated: true})
}

// setState swaps the snapshot and broadcasts it. Because every mutation path
// holds opMu, state changes and their broadcasts never interleave.
func (m *SessionManager) setState(state domainauth.AuthState) {
	m.stateMu.Lock()
	m.state = state
	m.stateMu.Unlock()
	m.subs.notify(state)
}

func (m *SessionManager) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, m.timeout)
}
