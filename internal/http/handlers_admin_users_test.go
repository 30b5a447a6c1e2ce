package httpx

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nanolancers/admin-console/internal/data"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
)

// fakeAdminUserRepo is an in-memory AdminUserRepository for handler tests.
type fakeAdminUserRepo struct {
	users map[string]domainauth.Identity
}

func newFakeAdminUserRepo() *fakeAdminUserRepo {
	return &fakeAdminUserRepo{users: map[string]domainauth.Identity{}}
}

func (f *fakeAdminUserRepo) List(context.Context) ([]domainauth.Identity, error) {
	out := make([]domainauth.Identity, 0, len(f.users))
	for _, u := range f.users {
		out = append(out, u)
	}
	return out, nil
}

func (f *fakeAdminUserRepo) Create(_ context.Context, req data.CreateAdminUserRequest) (*domainauth.Identity, error) {
	for _, u := range f.users {
		if strings.EqualFold(u.Email, req.Email) {
			return nil, data.ErrEmailExists
		}
	}
	id := domainauth.Identity{ID: "user-1", Email: req.Email, FullName: req.FullName, Active: true}
	f.users[id.ID] = id
	return &id, nil
}

func (f *fakeAdminUserRepo) SetActive(_ context.Context, id string, active bool) error {
	u, ok := f.users[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	u.Active = active
	f.users[id] = u
	return nil
}

func (f *fakeAdminUserRepo) AssignRole(_ context.Context, id, roleID string) error {
	u, ok := f.users[id]
	if !ok {
		return data.ErrRecordNotFound
	}
	u.RoleID = roleID
	f.users[id] = u
	return nil
}

func adminUsersRouter(t *testing.T) (http.Handler, *fakeAdminUserRepo) {
	t.Helper()
	repo := newFakeAdminUserRepo()
	manager, store := newTestManager(t)
	store.AddIdentity(&domainauth.Identity{
		ID:     "root",
		Email:  "root@example.com",
		Active: true,
		Role: &domainauth.Role{
			Name:        "super_admin",
			Permissions: domainauth.Permissions{All: true},
		},
	})
	require.NoError(t, manager.Login(context.Background(),
		domainauth.Credentials{Email: "root@example.com", Password: "hunter2"}))
	return NewRouter(RouterServices{Auth: manager, AdminUsers: repo, Logger: testLogger()}), repo
}

func TestAdminUserCreateAndList(t *testing.T) {
	router, _ := adminUsersRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin-users",
		strings.NewReader(`{"email": "new@example.com", "full_name": "New Operator", "password": "s3cret99"}`)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin-users", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "new@example.com")
	assert.NotContains(t, rec.Body.String(), "s3cret99")
}

func TestAdminUserDuplicateEmailConflict(t *testing.T) {
	router, _ := adminUsersRouter(t)

	body := `{"email": "dup@example.com", "full_name": "Dup", "password": "s3cret99"}`
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin-users", strings.NewReader(body)))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin-users", strings.NewReader(body)))
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email_exists")
}

func TestAdminUserSetActive(t *testing.T) {
	router, repo := adminUsersRouter(t)
	repo.users["user-9"] = domainauth.Identity{ID: "user-9", Email: "x@example.com", Active: true}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin-users/user-9/active",
		strings.NewReader(`{"active": false}`)))
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, repo.users["user-9"].Active)
}

func TestAdminUserAssignRoleNotFound(t *testing.T) {
	router, _ := adminUsersRouter(t)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPut, "/api/admin-users/ghost/role",
		strings.NewReader(`{"role_id": "r1"}`)))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAdminUserRoutesNeedUsersPermission(t *testing.T) {
	// The plain editor role has no users grants.
	manager, _ := newTestManager(t)
	require.NoError(t, manager.Login(context.Background(),
		domainauth.Credentials{Email: "ops@example.com", Password: "hunter2"}))
	router := NewRouter(RouterServices{Auth: manager, AdminUsers: newFakeAdminUserRepo(), Logger: testLogger()})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin-users", nil))
	require.Equal(t, http.StatusForbidden, rec.Code)
}
