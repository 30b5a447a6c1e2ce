// Package catalog contains domain types for the console's content surfaces:
// the course catalog, the blog, and the AI-tool directory. These are
// pass-through records; the console applies no business logic to them.
package catalog

import "time"

// CourseStatus enumerates the publication states of a course.
type CourseStatus string

const (
	CourseDraft     CourseStatus = "draft"
	CoursePublished CourseStatus = "published"
	CourseArchived  CourseStatus = "archived"
)

// Course is one entry in the course catalog.
type Course struct {
	ID            string       `json:"id"`
	Title         string       `json:"title"`
	UrduTitle     string       `json:"urdu_title,omitempty"`
	Description   string       `json:"description,omitempty"`
	Instructor    string       `json:"instructor"`
	Category      string       `json:"category"`
	Price         float64      `json:"price"`
	OriginalPrice *float64     `json:"original_price,omitempty"`
	Duration      string       `json:"duration,omitempty"`
	LessonsCount  int          `json:"lessons_count"`
	ThumbnailURL  string       `json:"thumbnail_url,omitempty"`
	Status        CourseStatus `json:"status"`
	Featured      bool         `json:"is_featured"`
	Rating        float64      `json:"rating"`
	StudentsCount int          `json:"students_count"`
	CreatedAt     time.Time    `json:"created_at"`
}

// PostStatus enumerates the publication states of a blog post.
type PostStatus string

const (
	PostDraft     PostStatus = "draft"
	PostPublished PostStatus = "published"
	PostScheduled PostStatus = "scheduled"
)

// BlogPost is one entry on the blog.
type BlogPost struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	UrduTitle    string     `json:"urdu_title,omitempty"`
	Slug         string     `json:"slug"`
	Excerpt      string     `json:"excerpt,omitempty"`
	Content      string     `json:"content,omitempty"`
	Author       string     `json:"author"`
	Category     string     `json:"category"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Status       PostStatus `json:"status"`
	Featured     bool       `json:"is_featured"`
	ViewsCount   int        `json:"views_count"`
	ReadTime     string     `json:"read_time,omitempty"`
	PublishedAt  *time.Time `json:"published_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// AITool is one entry in the AI-tool directory.
type AITool struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category"`
	WebsiteURL  string    `json:"website_url"`
	LogoURL     string    `json:"logo_url,omitempty"`
	Pricing     string    `json:"pricing,omitempty"`
	Featured    bool      `json:"is_featured"`
	Rating      float64   `json:"rating"`
	CreatedAt   time.Time `json:"created_at"`
}
