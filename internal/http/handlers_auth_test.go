package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	mockauth "github.com/nanolancers/admin-console/internal/mocks/auth"
	"github.com/nanolancers/admin-console/internal/service"
)

func newTestManager(t *testing.T) (*service.SessionManager, *mockauth.MemorySessionStore) {
	t.Helper()
	store := mockauth.NewMemorySessionStore()
	store.AddIdentity(&domainauth.Identity{
		ID:     "u1",
		Email:  "ops@example.com",
		Active: true,
		Role: &domainauth.Role{
			Name: "editor",
			Permissions: domainauth.Permissions{
				Grants: map[string]map[string]bool{
					"courses": {"read": true, "write": true},
				},
			},
		},
	})
	manager := service.NewSessionManager(service.SessionManagerOptions{
		Store:    store,
		Verifier: mockauth.StaticVerifier{Secret: "hunter2"},
		Issuer:   mockauth.FixedIssuer{Token: "tok-1"},
		Vault:    &mockauth.MemoryVault{},
	})
	return manager, store
}

func newTestRouter(t *testing.T) (http.Handler, *service.SessionManager) {
	t.Helper()
	manager, _ := newTestManager(t)
	router := NewRouter(RouterServices{Auth: manager})
	return router, manager
}

func TestLoginSuccess(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"email": "ops@example.com", "password": "hunter2"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_authenticated":true`)
	assert.Contains(t, rec.Body.String(), `"ops@example.com"`)
	assert.NotContains(t, rec.Body.String(), "password_hash")
}

func TestLoginWrongPassword(t *testing.T) {
	router, _ := newTestRouter(t)

	body := strings.NewReader(`{"email": "ops@example.com", "password": "nope"}`)
	req := httptest.NewRequest(http.MethodPost, "/auth/login", body)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid_credentials")
}

func TestLoginUnknownEmailSameResponse(t *testing.T) {
	router, _ := newTestRouter(t)

	wrongSecret := httptest.NewRecorder()
	router.ServeHTTP(wrongSecret, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "ops@example.com", "password": "nope"}`)))

	unknownEmail := httptest.NewRecorder()
	router.ServeHTTP(unknownEmail, httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "ghost@example.com", "password": "nope"}`)))

	require.Equal(t, wrongSecret.Code, unknownEmail.Code)
	assert.Equal(t, wrongSecret.Body.String(), unknownEmail.Body.String())
}

func TestLoginMissingFields(t *testing.T) {
	router, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"email": "ops@example.com"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginBackendUnavailable(t *testing.T) {
	manager, store := newTestManager(t)
	store.FindIdentityFunc = func(ctx context.Context, email string) (*domainauth.Identity, error) {
		return nil, context.DeadlineExceeded
	}
	router := NewRouter(RouterServices{Auth: manager})

	req := httptest.NewRequest(http.MethodPost, "/auth/login",
		strings.NewReader(`{"email": "ops@example.com", "password": "hunter2"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "login_failed")
}

func TestLogoutAlwaysNoContent(t *testing.T) {
	router, manager := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, manager.AuthState().Authenticated)
}

func TestMeReflectsState(t *testing.T) {
	router, manager := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_authenticated":false`)

	require.NoError(t, manager.Login(context.Background(),
		domainauth.Credentials{Email: "ops@example.com", Password: "hunter2"}))

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"is_authenticated":true`)
}

func TestEventsRequireAuth(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/events", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestEventsStreamsStateChanges(t *testing.T) {
	manager, _ := newTestManager(t)
	require.NoError(t, manager.Login(context.Background(),
		domainauth.Credentials{Email: "ops@example.com", Password: "hunter2"}))

	handlers := &AuthHandlers{Auth: manager}

	ctx, cancel := context.WithCancel(context.Background())
	req := httptest.NewRequest(http.MethodGet, "/auth/events", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	done := make(chan struct{})
	go func() {
		defer close(done)
		handlers.Events(rec, req)
	}()

	// Give the handler time to subscribe and write the initial event, then
	// trigger a state change before disconnecting.
	time.Sleep(50 * time.Millisecond)
	manager.Logout(context.Background())
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("events handler did not stop on disconnect")
	}

	body := rec.Body.String()
	assert.Equal(t, "text/event-stream", rec.Header().Get("Content-Type"))
	assert.GreaterOrEqual(t, strings.Count(body, "event: auth_state"), 2)
	assert.Contains(t, body, `"is_authenticated":true`)
	assert.Contains(t, body, `"is_authenticated":false`)
}

func TestHealthz(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
