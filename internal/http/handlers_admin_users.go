package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/nanolancers/admin-console/internal/data"
	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
)

// AdminUserRepository defines the admin user operations the HTTP layer needs.
type AdminUserRepository interface {
	List(ctx context.Context) ([]domainauth.Identity, error)
	Create(ctx context.Context, req data.CreateAdminUserRequest) (*domainauth.Identity, error)
	SetActive(ctx context.Context, id string, active bool) error
	AssignRole(ctx context.Context, id, roleID string) error
}

// AdminUserHandlers provides HTTP handlers for managing console operators.
type AdminUserHandlers struct {
	Repo AdminUserRepository
}

// List handles GET /api/admin-users.
func (h *AdminUserHandlers) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.Repo.List(r.Context())
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "list_users_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusOK, users)
}

// Create handles POST /api/admin-users.
func (h *AdminUserHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req data.CreateAdminUserRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := req.Validate(); err != nil {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "invalid_request", Err: err})
		return
	}

	user, err := h.Repo.Create(r.Context(), req)
	if errors.Is(err, data.ErrEmailExists) {
		WriteError(w, ErrorParams{Code: http.StatusConflict, ErrCode: "email_exists", Err: err})
		return
	}
	if err != nil {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "create_user_failed", Err: err})
		return
	}
	WriteJSON(w, http.StatusCreated, user)
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

// SetActive handles PUT /api/admin-users/{id}/active.
func (h *AdminUserHandlers) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if err := h.Repo.SetActive(r.Context(), r.PathValue("id"), req.Active); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "set_active_failed", Err: err})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type assignRoleRequest struct {
	RoleID string `json:"role_id"`
}

// AssignRole handles PUT /api/admin-users/{id}/role.
func (h *AdminUserHandlers) AssignRole(w http.ResponseWriter, r *http.Request) {
	var req assignRoleRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.RoleID == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_role_id", Err: errors.New("role_id is required")})
		return
	}
	if err := h.Repo.AssignRole(r.Context(), r.PathValue("id"), req.RoleID); err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
			return
		}
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "assign_role_failed", Err: err})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
