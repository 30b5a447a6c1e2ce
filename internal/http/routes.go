package httpx

import (
	"log/slog"
	"net/http"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Auth       SessionAuth
	Catalog    CatalogRepository
	AdminUsers AdminUserRepository
	Logger     *slog.Logger
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandlers := &AuthHandlers{Auth: services.Auth, Logger: logger}
	registerAuthRoutes(mux, authHandlers, services.Auth)

	if services.Catalog != nil {
		registerCatalogRoutes(mux, &CatalogHandlers{Repo: services.Catalog}, services.Auth)
	}
	if services.AdminUsers != nil {
		registerAdminUserRoutes(mux, &AdminUserHandlers{Repo: services.AdminUsers}, services.Auth)
	}

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return mux
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers, auth SessionAuth) {
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/me", h.Me)
	mux.Handle("GET /auth/events", RequireAuth(auth)(http.HandlerFunc(h.Events)))
}

func registerCatalogRoutes(mux *http.ServeMux, h *CatalogHandlers, auth SessionAuth) {
	guard := func(key string, fn http.HandlerFunc) http.Handler {
		return RequirePermission(auth, key)(fn)
	}

	mux.Handle("GET /api/courses", guard("courses.read", h.ListCourses))
	mux.Handle("GET /api/courses/{id}", guard("courses.read", h.GetCourse))
	mux.Handle("POST /api/courses", guard("courses.write", h.CreateCourse))
	mux.Handle("PUT /api/courses/{id}", guard("courses.write", h.UpdateCourse))
	mux.Handle("DELETE /api/courses/{id}", guard("courses.write", h.DeleteCourse))

	mux.Handle("GET /api/posts", guard("posts.read", h.ListPosts))
	mux.Handle("GET /api/posts/{id}", guard("posts.read", h.GetPost))
	mux.Handle("POST /api/posts", guard("posts.write", h.CreatePost))
	mux.Handle("PUT /api/posts/{id}", guard("posts.write", h.UpdatePost))
	mux.Handle("DELETE /api/posts/{id}", guard("posts.write", h.DeletePost))

	mux.Handle("GET /api/tools", guard("tools.read", h.ListTools))
	mux.Handle("GET /api/tools/{id}", guard("tools.read", h.GetTool))
	mux.Handle("POST /api/tools", guard("tools.write", h.CreateTool))
	mux.Handle("PUT /api/tools/{id}", guard("tools.write", h.UpdateTool))
	mux.Handle("DELETE /api/tools/{id}", guard("tools.write", h.DeleteTool))
}

func registerAdminUserRoutes(mux *http.ServeMux, h *AdminUserHandlers, auth SessionAuth) {
	guard := func(key string, fn http.HandlerFunc) http.Handler {
		return RequirePermission(auth, key)(fn)
	}

	mux.Handle("GET /api/admin-users", guard("users.read", h.List))
	mux.Handle("POST /api/admin-users", guard("users.write", h.Create))
	mux.Handle("PUT /api/admin-users/{id}/active", guard("users.write", h.SetActive))
	mux.Handle("PUT /api/admin-users/{id}/role", guard("users.write", h.AssignRole))
}
