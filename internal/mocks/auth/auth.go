// Package auth contains hand-written test doubles for the auth ports.
package auth

import (
	"context"
	"strings"
	"sync"
	"time"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.SessionStore       = (*MemorySessionStore)(nil)
	_ ports.CredentialVerifier = (*StaticVerifier)(nil)
	_ ports.TokenIssuer        = (*FixedIssuer)(nil)
	_ ports.TokenVault         = (*MemoryVault)(nil)
)

// MemorySessionStore is an in-memory session store implementing the full
// store contract, with per-method override hooks for error injection.
type MemorySessionStore struct {
	mu         sync.Mutex
	identities map[string]*domainauth.Identity // keyed by lowercase email
	sessions   map[string]domainauth.Session   // keyed by token
	now        func() time.Time

	// Call counters for asserting on backend traffic.
	FindIdentityCalls int
	FindSessionCalls  int
	TouchCalls        int

	// Optional overrides; when set they replace the default behavior.
	FindIdentityFunc func(ctx context.Context, email string) (*domainauth.Identity, error)
	CreateFunc       func(ctx context.Context, sess domainauth.Session) error
	DeleteFunc       func(ctx context.Context, token string) error
	FindSessionFunc  func(ctx context.Context, token string) (*domainauth.Identity, time.Time, error)
	TouchFunc        func(ctx context.Context, identityID string) error
}

// NewMemorySessionStore creates an empty in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		identities: make(map[string]*domainauth.Identity),
		sessions:   make(map[string]domainauth.Session),
		now:        time.Now,
	}
}

// SetClock overrides the store's notion of "now" for expiry checks.
func (m *MemorySessionStore) SetClock(now func() time.Time) { m.now = now }

// AddIdentity registers an identity for email lookup.
func (m *MemorySessionStore) AddIdentity(id *domainauth.Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[strings.ToLower(id.Email)] = id
}

// SessionCount reports the number of stored sessions.
func (m *MemorySessionStore) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *MemorySessionStore) FindActiveIdentityByEmail(ctx context.Context, email string) (*domainauth.Identity, error) {
	m.mu.Lock()
	m.FindIdentityCalls++
	m.mu.Unlock()
	if m.FindIdentityFunc != nil {
		return m.FindIdentityFunc(ctx, email)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.identities[strings.ToLower(email)]
	if !ok || !id.Active {
		return nil, ports.ErrNotFound
	}
	return id, nil
}

func (m *MemorySessionStore) CreateSession(ctx context.Context, sess domainauth.Session) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, sess)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[sess.Token] = sess
	return nil
}

func (m *MemorySessionStore) DeleteSession(ctx context.Context, token string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, token)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func (m *MemorySessionStore) FindValidSession(ctx context.Context, token string) (*domainauth.Identity, time.Time, error) {
	m.mu.Lock()
	m.FindSessionCalls++
	m.mu.Unlock()
	if m.FindSessionFunc != nil {
		return m.FindSessionFunc(ctx, token)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	sess, ok := m.sessions[token]
	if !ok || !sess.Valid(m.now()) {
		return nil, time.Time{}, ports.ErrNotFound
	}
	for _, id := range m.identities {
		if id.ID == sess.IdentityID {
			return id, sess.ExpiresAt, nil
		}
	}
	return nil, time.Time{}, ports.ErrNotFound
}

func (m *MemorySessionStore) TouchLastLogin(ctx context.Context, identityID string) error {
	m.mu.Lock()
	m.TouchCalls++
	m.mu.Unlock()
	if m.TouchFunc != nil {
		return m.TouchFunc(ctx, identityID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for _, id := range m.identities {
		if id.ID == identityID {
			id.LastLogin = &now
		}
	}
	return nil
}

func (m *MemorySessionStore) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	now := m.now()
	for token, sess := range m.sessions {
		if !sess.Valid(now) {
			delete(m.sessions, token)
			n++
		}
	}
	return n, nil
}

// StaticVerifier accepts exactly one secret, regardless of the stored
// representation.
type StaticVerifier struct {
	Secret string
}

func (v StaticVerifier) Verify(supplied, _ string) bool { return supplied == v.Secret }

// FixedIssuer mints a predetermined token with a fixed lifetime.
type FixedIssuer struct {
	Token    string
	Lifetime time.Duration
}

func (i FixedIssuer) Issue() (string, time.Time) {
	lifetime := i.Lifetime
	if lifetime == 0 {
		lifetime = 24 * time.Hour
	}
	return i.Token, time.Now().Add(lifetime)
}

// MemoryVault is an in-memory token vault with optional error injection.
type MemoryVault struct {
	mu    sync.Mutex
	token string

	LoadErr  error
	StoreErr error
	ClearErr error
}

func (v *MemoryVault) Load() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.LoadErr != nil {
		return "", v.LoadErr
	}
	return v.token, nil
}

func (v *MemoryVault) Store(token string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.StoreErr != nil {
		return v.StoreErr
	}
	v.token = token
	return nil
}

func (v *MemoryVault) Clear() error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.ClearErr != nil {
		return v.ClearErr
	}
	v.token = ""
	return nil
}
