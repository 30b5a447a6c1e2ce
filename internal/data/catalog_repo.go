// Package data contains the console's pass-through repositories: the remote
// tables the UI edits directly, with no business logic of their own.
package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/nanolancers/admin-console/internal/data/pgxutil"
	"github.com/nanolancers/admin-console/internal/domain/catalog"
)

// ErrRecordNotFound is returned when a requested row does not exist.
var ErrRecordNotFound = errors.New("record not found")

// CatalogRepo provides CRUD for courses, blog posts, and AI tools.
type CatalogRepo struct {
	DB *sql.DB
}

// NewCatalogRepo creates a CatalogRepo.
func NewCatalogRepo(db *sql.DB) *CatalogRepo {
	return &CatalogRepo{DB: db}
}

// collectRows runs query and maps every row onto T by column name.
func collectRows[T any](ctx context.Context, db *sql.DB, query string, args ...any) ([]T, error) {
	var out []T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectRows(rows, pgx.RowToStructByName[T])
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// collectOneRow runs query and maps the single expected row onto T.
func collectOneRow[T any](ctx context.Context, db *sql.DB, query string, args ...any) (*T, error) {
	var out T
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[T])
		return err
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func execAffected(ctx context.Context, db *sql.DB, query string, args ...any) (int64, error) {
	var affected int64
	err := pgxutil.WithPgxConn(ctx, db, func(conn *pgx.Conn) error {
		tag, execErr := conn.Exec(ctx, query, args...)
		if execErr != nil {
			return execErr
		}
		affected = tag.RowsAffected()
		return nil
	})
	return affected, err
}

func execOne(ctx context.Context, db *sql.DB, op, query string, args ...any) error {
	affected, err := execAffected(ctx, db, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// --- courses ---

const courseColumns = `
	id, title, urdu_title, description, instructor, category, price,
	original_price, duration, lessons_count, thumbnail_url, status,
	is_featured AS featured, rating, students_count, created_at`

// ListCourses returns all courses, newest first.
func (r *CatalogRepo) ListCourses(ctx context.Context) ([]catalog.Course, error) {
	rows, err := collectRows[catalog.Course](ctx, r.DB,
		`SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return rows, nil
}

// GetCourse returns one course by id.
func (r *CatalogRepo) GetCourse(ctx context.Context, id string) (*catalog.Course, error) {
	course, err := collectOneRow[catalog.Course](ctx, r.DB,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get course: %w", err)
	}
	return course, err
}

// CreateCourse inserts a course and returns it with its generated id.
func (r *CatalogRepo) CreateCourse(ctx context.Context, course catalog.Course) (*catalog.Course, error) {
	course.ID = uuid.NewString()
	course.CreatedAt = time.Now()
	if course.Status == "" {
		course.Status = catalog.CourseDraft
	}

	const query = `
		INSERT INTO courses (
			id, title, urdu_title, description, instructor, category, price,
			original_price, duration, lessons_count, thumbnail_url, status,
			is_featured, rating, students_count, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`
	_, err := execAffected(ctx, r.DB, query,
		course.ID, course.Title, course.UrduTitle, course.Description,
		course.Instructor, course.Category, course.Price, course.OriginalPrice,
		course.Duration, course.LessonsCount, course.ThumbnailURL, course.Status,
		course.Featured, course.Rating, course.StudentsCount, course.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	return &course, nil
}

// UpdateCourse overwrites a course's editable fields.
func (r *CatalogRepo) UpdateCourse(ctx context.Context, course catalog.Course) error {
	const query = `
		UPDATE courses SET
			title = $2, urdu_title = $3, description = $4, instructor = $5,
			category = $6, price = $7, original_price = $8, duration = $9,
			lessons_count = $10, thumbnail_url = $11, status = $12,
			is_featured = $13, rating = $14, students_count = $15
		WHERE id = $1`
	return execOne(ctx, r.DB, "update course", query,
		course.ID, course.Title, course.UrduTitle, course.Description,
		course.Instructor, course.Category, course.Price, course.OriginalPrice,
		course.Duration, course.LessonsCount, course.ThumbnailURL, course.Status,
		course.Featured, course.Rating, course.StudentsCount)
}

// DeleteCourse removes a course.
func (r *CatalogRepo) DeleteCourse(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "delete course", `DELETE FROM courses WHERE id = $1`, id)
}

// --- blog posts ---

const postColumns = `
	id, title, urdu_title, slug, excerpt, content, author, category,
	thumbnail_url, status, is_featured AS featured, views_count, read_time,
	published_at, created_at`

// ListPosts returns all blog posts, newest first.
func (r *CatalogRepo) ListPosts(ctx context.Context) ([]catalog.BlogPost, error) {
	rows, err := collectRows[catalog.BlogPost](ctx, r.DB,
		`SELECT `+postColumns+` FROM blog_posts ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return rows, nil
}

// GetPost returns one blog post by id.
func (r *CatalogRepo) GetPost(ctx context.Context, id string) (*catalog.BlogPost, error) {
	post, err := collectOneRow[catalog.BlogPost](ctx, r.DB,
		`SELECT `+postColumns+` FROM blog_posts WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get post: %w", err)
	}
	return post, err
}

// CreatePost inserts a blog post and returns it with its generated id.
func (r *CatalogRepo) CreatePost(ctx context.Context, post catalog.BlogPost) (*catalog.BlogPost, error) {
	post.ID = uuid.NewString()
	post.CreatedAt = time.Now()
	if post.Status == "" {
		post.Status = catalog.PostDraft
	}

	const query = `
		INSERT INTO blog_posts (
			id, title, urdu_title, slug, excerpt, content, author, category,
			thumbnail_url, status, is_featured, views_count, read_time,
			published_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := execAffected(ctx, r.DB, query,
		post.ID, post.Title, post.UrduTitle, post.Slug, post.Excerpt,
		post.Content, post.Author, post.Category, post.ThumbnailURL,
		post.Status, post.Featured, post.ViewsCount, post.ReadTime,
		post.PublishedAt, post.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return &post, nil
}

// UpdatePost overwrites a blog post's editable fields.
func (r *CatalogRepo) UpdatePost(ctx context.Context, post catalog.BlogPost) error {
	const query = `
		UPDATE blog_posts SET
			title = $2, urdu_title = $3, slug = $4, excerpt = $5, content = $6,
			author = $7, category = $8, thumbnail_url = $9, status = $10,
			is_featured = $11, views_count = $12, read_time = $13,
			published_at = $14
		WHERE id = $1`
	return execOne(ctx, r.DB, "update post", query,
		post.ID, post.Title, post.UrduTitle, post.Slug, post.Excerpt,
		post.Content, post.Author, post.Category, post.ThumbnailURL,
		post.Status, post.Featured, post.ViewsCount, post.ReadTime,
		post.PublishedAt)
}

// DeletePost removes a blog post.
func (r *CatalogRepo) DeletePost(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "delete post", `DELETE FROM blog_posts WHERE id = $1`, id)
}

// --- AI tools ---

const toolColumns = `
	id, name, description, category, website_url, logo_url, pricing,
	is_featured AS featured, rating, created_at`

// ListTools returns all AI tools, newest first.
func (r *CatalogRepo) ListTools(ctx context.Context) ([]catalog.AITool, error) {
	rows, err := collectRows[catalog.AITool](ctx, r.DB,
		`SELECT `+toolColumns+` FROM ai_tools ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return rows, nil
}

// GetTool returns one AI tool by id.
func (r *CatalogRepo) GetTool(ctx context.Context, id string) (*catalog.AITool, error) {
	tool, err := collectOneRow[catalog.AITool](ctx, r.DB,
		`SELECT `+toolColumns+` FROM ai_tools WHERE id = $1`, id)
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		return nil, fmt.Errorf("get tool: %w", err)
	}
	return tool, err
}

// CreateTool inserts an AI tool and returns it with its generated id.
func (r *CatalogRepo) CreateTool(ctx context.Context, tool catalog.AITool) (*catalog.AITool, error) {
	tool.ID = uuid.NewString()
	tool.CreatedAt = time.Now()

	const query = `
		INSERT INTO ai_tools (
			id, name, description, category, website_url, logo_url, pricing,
			is_featured, rating, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := execAffected(ctx, r.DB, query,
		tool.ID, tool.Name, tool.Description, tool.Category, tool.WebsiteURL,
		tool.LogoURL, tool.Pricing, tool.Featured, tool.Rating, tool.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create tool: %w", err)
	}
	return &tool, nil
}

// UpdateTool overwrites an AI tool's editable fields.
func (r *CatalogRepo) UpdateTool(ctx context.Context, tool catalog.AITool) error {
	const query = `
		UPDATE ai_tools SET
			name = $2, description = $3, category = $4, website_url = $5,
			logo_url = $6, pricing = $7, is_featured = $8, rating = $9
		WHERE id = $1`
	return execOne(ctx, r.DB, "update tool", query,
		tool.ID, tool.Name, tool.Description, tool.Category, tool.WebsiteURL,
		tool.LogoURL, tool.Pricing, tool.Featured, tool.Rating)
}

// DeleteTool removes an AI tool.
func (r *CatalogRepo) DeleteTool(ctx context.Context, id string) error {
	return execOne(ctx, r.DB, "delete tool", `DELETE FROM ai_tools WHERE id = $1`, id)
}
