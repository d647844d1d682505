// Package domain defines the persistence models of the blog application.
// These types are mapped with GORM and form the core data layer.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// Article status values.
const (
	StatusDraft       = "draft"
	StatusPublished   = "published"
	StatusUnpublished = "unpublished"
)

// Content formats accepted for article bodies.
const (
	FormatMarkdown = "markdown"
	FormatNovel    = "novel"
)

// Article is the system of record for a blog post. It carries two content
// variants: CurrentContent is the last published body and is what public
// readers see; DraftContent is the author's working copy and may lag or lead
// CurrentContent until the next publish.
//
// Invariants:
//   - A published article always has a non-empty CurrentContent.
//   - PublishedAt is set once, on first publish, and never cleared; editing
//     and republishing keeps the original publish time.
//   - DraftContent is never serialized for non-owners (the service layer
//     blanks it before returning articles to other callers).
//
// Content is a view-only field: it is filled per request with whichever
// content variant the requester is allowed to see, and is never stored.
type Article struct {
	ID             string         `json:"id"                        gorm:"type:char(36);primaryKey"`
	Title          string         `json:"title"                     gorm:"type:varchar(255);not null"`
	CurrentContent string         `json:"current_content,omitempty" gorm:"type:text"`
	DraftContent   string         `json:"draft_content,omitempty"   gorm:"type:text"`
	Content        string         `json:"content"                   gorm:"-"`
	ContentFormat  string         `json:"content_format"            gorm:"type:varchar(16);not null;default:'novel'"`
	Status         string         `json:"status"                    gorm:"type:varchar(16);not null;default:'draft';check:status IN ('draft','published','unpublished')"`
	AuthorID       string         `json:"author_id"                 gorm:"type:varchar(64);index:idx_author_articles"`
	AuthorName     string         `json:"author_name,omitempty"     gorm:"type:varchar(128)"`
	PublishedAt    *time.Time     `json:"published_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"-"                         gorm:"index"`
}

// TableName returns the database table name for Article.
func (Article) TableName() string { return "articles" }

// IsPublished reports whether the article is currently visible to the public.
func (a *Article) IsPublished() bool { return a.Status == StatusPublished }

// VisibleContent returns the content variant an owner should see: the working
// draft when present, otherwise the published body.
func (a *Article) VisibleContent() string {
	if a.DraftContent != "" {
		return a.DraftContent
	}
	return a.CurrentContent
}
