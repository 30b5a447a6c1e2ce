// Package httpx provides the HTTP surface of the admin console API.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/nanolancers/admin-console/internal/domain/auth"
	"github.com/nanolancers/admin-console/internal/service"
)

// SessionAuth defines the session manager operations the HTTP layer needs.
type SessionAuth interface {
	Login(ctx context.Context, creds domainauth.Credentials) error
	Logout(ctx context.Context)
	CheckAuth(ctx context.Context)
	AuthState() domainauth.AuthState
	HasPermission(key string) bool
	Subscribe(fn service.Observer) func()
}

// AuthHandlers provides HTTP handlers for session operations.
type AuthHandlers struct {
	Auth   SessionAuth
	Logger *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.Email == "" || req.Password == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_credentials",
			Err:     errors.New("email and password are required"),
		})
		return
	}

	err := h.Auth.Login(r.Context(), domainauth.Credentials{Email: req.Email, Password: req.Password})
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "invalid_credentials",
			Err:     err,
		})
		return
	case err != nil:
		h.logger().Error("login failed", "err", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusServiceUnavailable,
			ErrCode: "login_failed",
			Err:     errors.New("login temporarily unavailable"),
		})
		return
	}

	WriteJSON(w, http.StatusOK, h.Auth.AuthState())
}

// Logout handles POST /auth/logout. Always succeeds locally.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	h.Auth.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me handles GET /auth/me and returns the current authentication state.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, h.Auth.AuthState())
}

// Events handles GET /auth/events: a server-sent event stream of auth state
// changes. The current state is sent immediately, then every change until
// the client disconnects.
func (h *AuthHandlers) Events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "streaming_unsupported",
			Err:     errors.New("response writer does not support streaming"),
		})
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	// Buffered so a disconnected client can't block the broadcaster.
	events := make(chan domainauth.AuthState, 8)
	unsubscribe := h.Auth.Subscribe(func(state domainauth.AuthState) {
		select {
		case events <- state:
		default:
		}
	})
	defer unsubscribe()

	writeEvent := func(state domainauth.AuthState) bool {
		payload, err := json.Marshal(state)
		if err != nil {
			return false
		}
		if _, err := w.Write([]byte("event: auth_state\ndata: " + string(payload) + "\n\n")); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	if !writeEvent(h.Auth.AuthState()) {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case state := <-events:
			if !writeEvent(state) {
				return
			}
		}
	}
}
