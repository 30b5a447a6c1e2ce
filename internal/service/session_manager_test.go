package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	mocks "github.com/nanolancers/admin-console/internal/mocks/auth"
	"github.com/nanolancers/admin-console/internal/ports"
)

func testIdentity() *domainauth.Identity {
	return &domainauth.Identity{
		ID:           "user-1",
		Email:        "a@x.com",
		FullName:     "Admin One",
		PasswordHash: "stored-hash",
		Active:       true,
		RoleID:       "role-1",
		Role: &domainauth.Role{
			ID:   "role-1",
			Name: "editor",
			Permissions: domainauth.Permissions{Grants: map[string]map[string]bool{
				"users": {"write": true},
			}},
		},
	}
}

type managerFixture struct {
	mgr   *SessionManager
	store *mocks.MemorySessionStore
	vault *mocks.MemoryVault
}

func newFixture(t *testing.T) *managerFixture {
	t.Helper()
	store := mocks.NewMemorySessionStore()
	vault := &mocks.MemoryVault{}
	mgr := NewSessionManager(SessionManagerOptions{
		Store:    store,
		Verifier: mocks.StaticVerifier{Secret: "s3cret"},
		Issuer:   mocks.FixedIssuer{Token: "tok-1"},
		Vault:    vault,
	})
	return &managerFixture{mgr: mgr, store: store, vault: vault}
}

func TestSessionManager_InitialState(t *testing.T) {
	f := newFixture(t)

	state := f.mgr.AuthState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.Authenticated)
	assert.True(t, state.Loading)
}

func TestSessionManager_Login_Success(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	require.NoError(t, err)

	state := f.mgr.AuthState()
	assert.True(t, state.Authenticated)
	assert.False(t, state.Loading)
	require.NotNil(t, state.Identity)
	assert.Equal(t, "user-1", state.Identity.ID)

	// Token persisted locally and session created remotely.
	token, err := f.vault.Load()
	require.NoError(t, err)
	assert.Equal(t, "tok-1", token)
	assert.Equal(t, 1, f.store.SessionCount())

	// Permission map of the resolved role answers queries.
	assert.True(t, f.mgr.HasPermission("users.write"))
	assert.False(t, f.mgr.HasPermission("users.delete"))
}

func TestSessionManager_Login_WrongSecret(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	state := f.mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
	assert.Nil(t, state.Identity)
}

func TestSessionManager_Login_UnknownEmailSameError(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	unknownErr := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "nobody@x.com", Password: "s3cret"})
	wrongErr := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "wrong"})

	// Unknown email and wrong secret must be externally identical.
	assert.ErrorIs(t, unknownErr, ErrInvalidCredentials)
	assert.ErrorIs(t, wrongErr, ErrInvalidCredentials)
	assert.Equal(t, unknownErr.Error(), wrongErr.Error())
}

func TestSessionManager_Login_InactiveIdentity(t *testing.T) {
	f := newFixture(t)
	id := testIdentity()
	id.Active = false
	f.store.AddIdentity(id)

	// Correct secret, inactive account: still invalid credentials.
	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.False(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_Login_BackendError(t *testing.T) {
	f := newFixture(t)
	f.store.FindIdentityFunc = func(context.Context, string) (*domainauth.Identity, error) {
		return nil, errors.New("connection refused")
	}

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)

	state := f.mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
}

func TestSessionManager_Login_CreateSessionError(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	f.store.CreateFunc = func(context.Context, domainauth.Session) error {
		return errors.New("insert failed")
	}

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrBackendUnavailable)
	assert.False(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_Login_TouchFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	f.store.TouchFunc = func(context.Context, string) error {
		return errors.New("update failed")
	}

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_Login_VaultFailureIsBestEffort(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	f.vault.StoreErr = errors.New("disk full")

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	require.NoError(t, err)
	assert.True(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_Logout(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	f.mgr.Logout(context.Background())

	state := f.mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.Nil(t, state.Identity)
	assert.False(t, state.Loading)

	token, err := f.vault.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
	assert.Equal(t, 0, f.store.SessionCount())
}

func TestSessionManager_Logout_Twice(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	f.mgr.Logout(context.Background())
	f.mgr.Logout(context.Background()) // second call is a local no-op

	assert.False(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_Logout_RemoteDeleteFailure(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	f.store.DeleteFunc = func(context.Context, string) error {
		return errors.New("connection reset")
	}

	// Logout still completes locally.
	f.mgr.Logout(context.Background())

	assert.False(t, f.mgr.AuthState().Authenticated)
	token, err := f.vault.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionManager_CheckAuth_NoToken(t *testing.T) {
	f := newFixture(t)

	f.mgr.CheckAuth(context.Background())

	state := f.mgr.AuthState()
	assert.Nil(t, state.Identity)
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)

	// No backend call happens beyond the local vault check.
	assert.Equal(t, 0, f.store.FindSessionCalls)
}

func TestSessionManager_CheckAuth_RestoresAfterLogin(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	// Simulate a reload: fresh manager sharing the store and vault.
	mgr2 := NewSessionManager(SessionManagerOptions{
		Store:    f.store,
		Verifier: mocks.StaticVerifier{Secret: "s3cret"},
		Issuer:   mocks.FixedIssuer{Token: "tok-2"},
		Vault:    f.vault,
	})
	mgr2.CheckAuth(context.Background())

	state := mgr2.AuthState()
	assert.True(t, state.Authenticated)
	require.NotNil(t, state.Identity)
	assert.Equal(t, "user-1", state.Identity.ID)
}

func TestSessionManager_CheckAuth_ExpiredSession(t *testing.T) {
	f := newFixture(t)
	id := testIdentity()
	f.store.AddIdentity(id)
	require.NoError(t, f.store.CreateSession(context.Background(), domainauth.Session{
		Token:      "stale",
		IdentityID: id.ID,
		ExpiresAt:  time.Now().Add(-time.Minute),
	}))
	require.NoError(t, f.vault.Store("stale"))

	f.mgr.CheckAuth(context.Background())

	state := f.mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)

	// Expired sessions clear the persisted token.
	token, err := f.vault.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionManager_CheckAuth_ExpiryBoundary(t *testing.T) {
	f := newFixture(t)
	id := testIdentity()
	f.store.AddIdentity(id)

	base := time.Now()
	f.store.SetClock(func() time.Time { return base })
	require.NoError(t, f.store.CreateSession(context.Background(), domainauth.Session{
		Token:      "edge",
		IdentityID: id.ID,
		ExpiresAt:  base,
	}))
	require.NoError(t, f.vault.Store("edge"))

	// expires_at == now is invalid.
	f.mgr.CheckAuth(context.Background())
	assert.False(t, f.mgr.AuthState().Authenticated)

	// One millisecond of remaining lifetime is valid.
	require.NoError(t, f.store.CreateSession(context.Background(), domainauth.Session{
		Token:      "edge2",
		IdentityID: id.ID,
		ExpiresAt:  base.Add(time.Millisecond),
	}))
	require.NoError(t, f.vault.Store("edge2"))

	f.mgr.CheckAuth(context.Background())
	assert.True(t, f.mgr.AuthState().Authenticated)
}

func TestSessionManager_CheckAuth_BackendError(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.vault.Store("tok"))
	f.store.FindSessionFunc = func(context.Context, string) (*domainauth.Identity, time.Time, error) {
		return nil, time.Time{}, errors.New("connection refused")
	}

	f.mgr.CheckAuth(context.Background())

	// Resolved to the safe state, never left pending.
	state := f.mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
}

func TestSessionManager_CheckAuth_Idempotent(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	f.mgr.CheckAuth(context.Background())
	first := f.mgr.AuthState()
	f.mgr.CheckAuth(context.Background())
	second := f.mgr.AuthState()

	assert.Equal(t, first.Authenticated, second.Authenticated)
	assert.Equal(t, first.Identity.ID, second.Identity.ID)
}

func TestSessionManager_HasPermission_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	f.mgr.CheckAuth(context.Background())

	assert.False(t, f.mgr.HasPermission("users.write"))
	assert.False(t, f.mgr.HasPermission("anything.at-all"))
}

func TestSessionManager_HasPermission_Wildcard(t *testing.T) {
	f := newFixture(t)
	id := testIdentity()
	id.Role.Permissions = domainauth.Permissions{All: true}
	f.store.AddIdentity(id)
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	assert.True(t, f.mgr.HasPermission("users.delete"))
	assert.True(t, f.mgr.HasPermission("x.y"))
}

func TestSessionManager_HasPermission_NilRole(t *testing.T) {
	f := newFixture(t)
	id := testIdentity()
	id.Role = nil
	f.store.AddIdentity(id)
	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	assert.False(t, f.mgr.HasPermission("users.write"))
}

func TestSessionManager_BroadcastFanOut(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	var order []int
	var states []domainauth.AuthState
	for i := 1; i <= 3; i++ {
		i := i
		f.mgr.Subscribe(func(state domainauth.AuthState) {
			order = append(order, i)
			states = append(states, state)
		})
	}

	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))

	// All three observers, exactly once, in registration order, each with
	// the post-login state.
	require.Equal(t, []int{1, 2, 3}, order)
	for _, state := range states {
		assert.True(t, state.Authenticated)
		require.NotNil(t, state.Identity)
		assert.Equal(t, "user-1", state.Identity.ID)
	}
}

func TestSessionManager_Unsubscribe(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	calls := 0
	unsubscribe := f.mgr.Subscribe(func(domainauth.AuthState) { calls++ })

	require.NoError(t, f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"}))
	assert.Equal(t, 1, calls)

	unsubscribe()
	f.mgr.Logout(context.Background())
	assert.Equal(t, 1, calls)
}

func TestSessionManager_OpTimeout(t *testing.T) {
	store := mocks.NewMemorySessionStore()
	store.FindSessionFunc = func(ctx context.Context, _ string) (*domainauth.Identity, time.Time, error) {
		<-ctx.Done()
		return nil, time.Time{}, ctx.Err()
	}
	vault := &mocks.MemoryVault{}
	require.NoError(t, vault.Store("tok"))

	mgr := NewSessionManager(SessionManagerOptions{
		Store:     store,
		Verifier:  mocks.StaticVerifier{Secret: "s3cret"},
		Issuer:    mocks.FixedIssuer{Token: "tok"},
		Vault:     vault,
		OpTimeout: 20 * time.Millisecond,
	})

	done := make(chan struct{})
	go func() {
		mgr.CheckAuth(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("restore did not resolve within the operation timeout")
	}

	// A hung backend resolves to Unauthenticated instead of loading forever.
	state := mgr.AuthState()
	assert.False(t, state.Authenticated)
	assert.False(t, state.Loading)
}

func TestSessionManager_SerializedOperations(t *testing.T) {
	f := newFixture(t)
	f.store.AddIdentity(testIdentity())

	release := make(chan struct{})
	inLookup := make(chan struct{})
	f.store.FindIdentityFunc = func(context.Context, string) (*domainauth.Identity, error) {
		close(inLookup)
		<-release
		return testIdentity(), nil
	}

	loginDone := make(chan struct{})
	go func() {
		_ = f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
		close(loginDone)
	}()
	<-inLookup

	// Logout issued while the login is still suspended must run after it,
	// leaving the manager unauthenticated.
	done := make(chan struct{})
	go func() {
		f.mgr.Logout(context.Background())
		close(done)
	}()

	close(release)
	<-loginDone

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("logout never completed")
	}

	assert.False(t, f.mgr.AuthState().Authenticated)
	token, err := f.vault.Load()
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestSessionManager_StoreErrNotFoundMapsToInvalidCredentials(t *testing.T) {
	f := newFixture(t)
	f.store.FindIdentityFunc = func(context.Context, string) (*domainauth.Identity, error) {
		return nil, ports.ErrNotFound
	}

	err := f.mgr.Login(context.Background(), domainauth.Credentials{Email: "a@x.com", Password: "s3cret"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	assert.NotErrorIs(t, err, ErrBackendUnavailable)
}
