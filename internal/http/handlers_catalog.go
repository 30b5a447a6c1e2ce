package httpx

import (
	"context"
	"errors"
	"net/http"

	"github.com/nanolancers/admin-console/internal/data"
	"github.com/nanolancers/admin-console/internal/domain/catalog"
)

// CatalogRepository defines the catalog operations the HTTP layer needs.
type CatalogRepository interface {
	ListCourses(ctx context.Context) ([]catalog.Course, error)
	GetCourse(ctx context.Context, id string) (*catalog.Course, error)
	CreateCourse(ctx context.Context, course catalog.Course) (*catalog.Course, error)
	UpdateCourse(ctx context.Context, course catalog.Course) error
	DeleteCourse(ctx context.Context, id string) error

	ListPosts(ctx context.Context) ([]catalog.BlogPost, error)
	GetPost(ctx context.Context, id string) (*catalog.BlogPost, error)
	CreatePost(ctx context.Context, post catalog.BlogPost) (*catalog.BlogPost, error)
	UpdatePost(ctx context.Context, post catalog.BlogPost) error
	DeletePost(ctx context.Context, id string) error

	ListTools(ctx context.Context) ([]catalog.AITool, error)
	GetTool(ctx context.Context, id string) (*catalog.AITool, error)
	CreateTool(ctx context.Context, tool catalog.AITool) (*catalog.AITool, error)
	UpdateTool(ctx context.Context, tool catalog.AITool) error
	DeleteTool(ctx context.Context, id string) error
}

// CatalogHandlers provides HTTP handlers for courses, blog posts, and AI tools.
type CatalogHandlers struct {
	Repo CatalogRepository
}

func writeRepoError(w http.ResponseWriter, op string, err error) {
	if errors.Is(err, data.ErrRecordNotFound) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "not_found", Err: err})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: op, Err: err})
}

// --- courses ---

// ListCourses handles GET /api/courses.
func (h *CatalogHandlers) ListCourses(w http.ResponseWriter, r *http.Request) {
	courses, err := h.Repo.ListCourses(r.Context())
	if err != nil {
		writeRepoError(w, "list_courses_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, courses)
}

// GetCourse handles GET /api/courses/{id}.
func (h *CatalogHandlers) GetCourse(w http.ResponseWriter, r *http.Request) {
	course, err := h.Repo.GetCourse(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, "get_course_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, course)
}

// CreateCourse handles POST /api/courses.
func (h *CatalogHandlers) CreateCourse(w http.ResponseWriter, r *http.Request) {
	var course catalog.Course
	if !DecodeJSON(w, r, &course) {
		return
	}
	if course.Title == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_title", Err: errors.New("title is required")})
		return
	}
	created, err := h.Repo.CreateCourse(r.Context(), course)
	if err != nil {
		writeRepoError(w, "create_course_failed", err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// UpdateCourse handles PUT /api/courses/{id}.
func (h *CatalogHandlers) UpdateCourse(w http.ResponseWriter, r *http.Request) {
	var course catalog.Course
	if !DecodeJSON(w, r, &course) {
		return
	}
	course.ID = r.PathValue("id")
	if err := h.Repo.UpdateCourse(r.Context(), course); err != nil {
		writeRepoError(w, "update_course_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, course)
}

// DeleteCourse handles DELETE /api/courses/{id}.
func (h *CatalogHandlers) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteCourse(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, "delete_course_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- blog posts ---

// ListPosts handles GET /api/posts.
func (h *CatalogHandlers) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.Repo.ListPosts(r.Context())
	if err != nil {
		writeRepoError(w, "list_posts_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, posts)
}

// GetPost handles GET /api/posts/{id}.
func (h *CatalogHandlers) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.Repo.GetPost(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, "get_post_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

// CreatePost handles POST /api/posts.
func (h *CatalogHandlers) CreatePost(w http.ResponseWriter, r *http.Request) {
	var post catalog.BlogPost
	if !DecodeJSON(w, r, &post) {
		return
	}
	if post.Title == "" || post.Slug == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_fields", Err: errors.New("title and slug are required")})
		return
	}
	created, err := h.Repo.CreatePost(r.Context(), post)
	if err != nil {
		writeRepoError(w, "create_post_failed", err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// UpdatePost handles PUT /api/posts/{id}.
func (h *CatalogHandlers) UpdatePost(w http.ResponseWriter, r *http.Request) {
	var post catalog.BlogPost
	if !DecodeJSON(w, r, &post) {
		return
	}
	post.ID = r.PathValue("id")
	if err := h.Repo.UpdatePost(r.Context(), post); err != nil {
		writeRepoError(w, "update_post_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, post)
}

// DeletePost handles DELETE /api/posts/{id}.
func (h *CatalogHandlers) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeletePost(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, "delete_post_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- AI tools ---

// ListTools handles GET /api/tools.
func (h *CatalogHandlers) ListTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.Repo.ListTools(r.Context())
	if err != nil {
		writeRepoError(w, "list_tools_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, tools)
}

// GetTool handles GET /api/tools/{id}.
func (h *CatalogHandlers) GetTool(w http.ResponseWriter, r *http.Request) {
	tool, err := h.Repo.GetTool(r.Context(), r.PathValue("id"))
	if err != nil {
		writeRepoError(w, "get_tool_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, tool)
}

// CreateTool handles POST /api/tools.
func (h *CatalogHandlers) CreateTool(w http.ResponseWriter, r *http.Request) {
	var tool catalog.AITool
	if !DecodeJSON(w, r, &tool) {
		return
	}
	if tool.Name == "" {
		WriteError(w, ErrorParams{Code: http.StatusBadRequest, ErrCode: "missing_name", Err: errors.New("name is required")})
		return
	}
	created, err := h.Repo.CreateTool(r.Context(), tool)
	if err != nil {
		writeRepoError(w, "create_tool_failed", err)
		return
	}
	WriteJSON(w, http.StatusCreated, created)
}

// UpdateTool handles PUT /api/tools/{id}.
func (h *CatalogHandlers) UpdateTool(w http.ResponseWriter, r *http.Request) {
	var tool catalog.AITool
	if !DecodeJSON(w, r, &tool) {
		return
	}
	tool.ID = r.PathValue("id")
	if err := h.Repo.UpdateTool(r.Context(), tool); err != nil {
		writeRepoError(w, "update_tool_failed", err)
		return
	}
	WriteJSON(w, http.StatusOK, tool)
}

// DeleteTool handles DELETE /api/tools/{id}.
func (h *CatalogHandlers) DeleteTool(w http.ResponseWriter, r *http.Request) {
	if err := h.Repo.DeleteTool(r.Context(), r.PathValue("id")); err != nil {
		writeRepoError(w, "delete_tool_failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
