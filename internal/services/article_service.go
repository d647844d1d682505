// Package services – ArticleService
//
// This file implements the article mutation and read paths: create, update
// (including the publish flow), delete, bulk delete, expanded single fetch,
// and the two cached listing queries. Every successful mutation invalidates
// the affected listing-cache namespaces and clears any matching volatile
// draft key, so the reconciliation engine can never re-apply obsolete
// transient content over an authoritative save.
package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/draftstore"
	"github.com/tbourn/go-blog-backend/internal/repo"
)

// ArticleRepo defines the repository contract required by ArticleService.
type ArticleRepo interface {
	CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error
	GetArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error)
	GetPublishedArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error)
	SaveArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error
	DeleteArticle(ctx context.Context, db *gorm.DB, id string) error
	DeleteArticlesOwned(ctx context.Context, db *gorm.DB, ids []string, authorID string) (int64, error)
	CountPublished(ctx context.Context, db *gorm.DB) (int64, error)
	ListPublishedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Article, error)
	CountOwned(ctx context.Context, db *gorm.DB, authorID string) (int64, error)
	ListOwnedPage(ctx context.Context, db *gorm.DB, authorID string, offset, limit int) ([]domain.Article, error)
}

// ArticleService owns the durable article store semantics: validation,
// publish monotonicity, ownership checks, cache invalidation, and volatile
// draft-session cleanup.
type ArticleService struct {
	DB     *gorm.DB
	Repo   ArticleRepo
	Cache  *cache.Cache
	Drafts *draftstore.Store

	// MinContentLen is the smallest accepted article body, in bytes.
	MinContentLen int
}

// NewArticleService constructs an ArticleService with default content rules.
func NewArticleService(db *gorm.DB, r ArticleRepo, c *cache.Cache, d *draftstore.Store) *ArticleService {
	return &ArticleService{DB: db, Repo: r, Cache: c, Drafts: d, MinContentLen: 5}
}

// CreateInput carries the fields accepted by Create.
//
// Autosave marks a creation coming from the draft flush path (stop or
// reconciliation); it relaxes the minimum body length so a short in-progress
// draft is preserved rather than rejected. The title rule still applies, but
// the flush path always supplies a placeholder title.
type CreateInput struct {
	Title         string
	Content       string
	Status        string
	ContentFormat string
	AuthorID      string
	AuthorName    string
	Autosave      bool
}

// UpdateInput carries a partial update; nil fields are left untouched.
// Content presence matters: a nil Content on a publish request falls back
// to the article's existing draft (then current) content.
type UpdateInput struct {
	Title         *string
	Content       *string
	Status        *string
	ContentFormat *string
}

// Create validates and inserts a new article. The submitted content always
// becomes DraftContent; on publish-status creation it is also snapshotted
// into CurrentContent and PublishedAt is set. On success the published and
// per-author merged cache namespaces are invalidated.
func (s *ArticleService) Create(ctx context.Context, in CreateInput) (*domain.Article, error) {
	if in.Title == "" {
		return nil, ErrEmptyTitle
	}
	if !in.Autosave && len(in.Content) < s.MinContentLen {
		return nil, ErrContentTooShort
	}

	status := in.Status
	if status == "" {
		status = domain.StatusDraft
	}
	format := in.ContentFormat
	if format == "" {
		format = domain.FormatNovel
	}

	a := &domain.Article{
		Title:         in.Title,
		DraftContent:  in.Content,
		ContentFormat: format,
		Status:        status,
		AuthorID:      in.AuthorID,
		AuthorName:    in.AuthorName,
	}
	if status == domain.StatusPublished {
		a.CurrentContent = in.Content
		now := nowUTC()
		a.PublishedAt = &now
	}

	if err := s.Repo.CreateArticle(ctx, s.DB, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx, a.AuthorID)
	a.Content = a.DraftContent
	return a, nil
}

// Update applies a partial update on behalf of requesterID, enforcing
// ownership. Publishing takes content from the request, falling back to the
// existing draft and then the current content, and sets PublishedAt only on
// first publish. A non-publishing update touches only the draft content and
// title; a "draft" status request cannot demote an article that has ever
// been published (unpublishing must be explicit).
//
// On success the relevant cache namespaces are invalidated and the volatile
// draft key for (owner, id) is cleared.
func (s *ArticleService) Update(ctx context.Context, id string, in UpdateInput, requesterID string) (*domain.Article, error) {
	a, err := s.Repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	if a.AuthorID != requesterID {
		return nil, ErrNotOwner
	}

	if in.Title != nil && *in.Title == "" {
		return nil, ErrEmptyTitle
	}

	publishing := in.Status != nil && *in.Status == domain.StatusPublished

	if publishing {
		content := a.CurrentContent
		if a.DraftContent != "" {
			content = a.DraftContent
		}
		if in.Content != nil {
			content = *in.Content
		}
		if len(content) < s.MinContentLen {
			return nil, ErrContentTooShort
		}

		if in.Title != nil {
			a.Title = *in.Title
		}
		a.CurrentContent = content
		a.DraftContent = content
		a.Status = domain.StatusPublished
		if in.ContentFormat != nil {
			a.ContentFormat = *in.ContentFormat
		}
		if a.PublishedAt == nil {
			now := nowUTC()
			a.PublishedAt = &now
		}
	} else {
		if in.Content != nil {
			a.DraftContent = *in.Content
		}
		if in.Title != nil {
			a.Title = *in.Title
		}
		if in.ContentFormat != nil {
			a.ContentFormat = *in.ContentFormat
		}
		// Unpublishing must be explicit. A "draft" status request is
		// ignored for any article that has left draft state, so an
		// autosave can never silently demote a published article.
		if in.Status != nil && *in.Status == domain.StatusUnpublished {
			a.Status = domain.StatusUnpublished
		}
	}

	if err := s.Repo.SaveArticle(ctx, s.DB, a); err != nil {
		return nil, err
	}

	s.invalidate(ctx, a.AuthorID)
	s.clearDraft(ctx, a.AuthorID, a.ID)
	a.Content = a.VisibleContent()
	return a, nil
}

// Delete removes an article owned by requesterID, invalidating caches and
// clearing the matching volatile draft key.
func (s *ArticleService) Delete(ctx context.Context, id, requesterID string) error {
	a, err := s.Repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrArticleNotFound
		}
		return err
	}
	if a.AuthorID != requesterID {
		return ErrNotOwner
	}
	if err := s.Repo.DeleteArticle(ctx, s.DB, id); err != nil {
		return err
	}
	s.invalidate(ctx, requesterID)
	s.clearDraft(ctx, requesterID, id)
	return nil
}

// BulkDelete removes all given articles atomically: if any id is not owned
// by requesterID, nothing is deleted and ErrNotOwner is returned.
func (s *ArticleService) BulkDelete(ctx context.Context, ids []string, requesterID string) (int64, error) {
	deleted, err := s.Repo.DeleteArticlesOwned(ctx, s.DB, ids, requesterID)
	if err != nil {
		if errors.Is(err, repo.ErrNotOwned) {
			return 0, ErrNotOwner
		}
		return 0, err
	}
	s.invalidate(ctx, requesterID)
	for _, id := range ids {
		s.clearDraft(ctx, requesterID, id)
	}
	return deleted, nil
}

// GetExpanded fetches a single article applying visibility rules. Owners
// always see their working draft (falling back to the published body).
// Non-owners see only the published body of published articles; for any
// other status they get ErrArticleNotFound, never a forbidden error, so the
// article's existence is not disclosed.
func (s *ArticleService) GetExpanded(ctx context.Context, id, requesterID string) (*domain.Article, error) {
	a, err := s.Repo.GetArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}

	if requesterID != "" && requesterID == a.AuthorID {
		a.Content = a.VisibleContent()
		return a, nil
	}
	if a.IsPublished() {
		return publicView(a), nil
	}
	return nil, ErrArticleNotFound
}

// GetPublished fetches a single published article in its public shape.
func (s *ArticleService) GetPublished(ctx context.Context, id string) (*domain.Article, error) {
	a, err := s.Repo.GetPublishedArticle(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrArticleNotFound
		}
		return nil, err
	}
	return publicView(a), nil
}

// PublishedPage returns one page of the public published listing, served
// from the read cache when possible. A cache failure degrades to a direct
// durable-store query; it never fails the request.
func (s *ArticleService) PublishedPage(ctx context.Context, page, limit int) (cache.Page, error) {
	page, limit = clampPage(page, limit)
	key := cache.PublishedKey(page, limit)
	if p, ok := s.Cache.GetPage(ctx, key); ok {
		return p, nil
	}

	total, err := s.Repo.CountPublished(ctx, s.DB)
	if err != nil {
		return cache.Page{}, err
	}
	items := []domain.Article{}
	if total > 0 {
		items, err = s.Repo.ListPublishedPage(ctx, s.DB, (page-1)*limit, limit)
		if err != nil {
			return cache.Page{}, err
		}
	}
	for i := range items {
		items[i] = *publicView(&items[i])
	}

	p := cache.Page{Items: items, Total: total}
	s.Cache.SetPage(ctx, key, p)
	return p, nil
}

// MergedPage returns one page of the caller's own articles (any status),
// draft content included, served from the per-user cache namespace.
func (s *ArticleService) MergedPage(ctx context.Context, userID string, page, limit int) (cache.Page, error) {
	page, limit = clampPage(page, limit)
	key := cache.MergedKey(userID, page, limit)
	if p, ok := s.Cache.GetPage(ctx, key); ok {
		return p, nil
	}

	total, err := s.Repo.CountOwned(ctx, s.DB, userID)
	if err != nil {
		return cache.Page{}, err
	}
	items := []domain.Article{}
	if total > 0 {
		items, err = s.Repo.ListOwnedPage(ctx, s.DB, userID, (page-1)*limit, limit)
		if err != nil {
			return cache.Page{}, err
		}
	}
	for i := range items {
		items[i].Content = items[i].VisibleContent()
	}

	p := cache.Page{Items: items, Total: total}
	s.Cache.SetPage(ctx, key, p)
	return p, nil
}

// invalidate drops the published listing namespace and the author's merged
// namespace after any successful mutation.
func (s *ArticleService) invalidate(ctx context.Context, authorID string) {
	s.Cache.InvalidatePublished(ctx)
	if authorID != "" {
		s.Cache.InvalidateMerged(ctx, authorID)
	}
}

// clearDraft best-effort deletes the volatile draft key for (owner, id) so a
// later reconciliation tick cannot replay stale transient content over this
// save. Failures are logged; the durable save already succeeded.
func (s *ArticleService) clearDraft(ctx context.Context, userID, articleID string) {
	if err := s.Drafts.ClearDraft(ctx, userID, articleID); err != nil {
		log.Warn().Err(err).
			Str("user_id", userID).
			Str("article_id", articleID).
			Msg("failed to clear volatile draft after save")
	}
}

// publicView returns a copy shaped for non-owners: content is the published
// body and the working draft is stripped.
func publicView(a *domain.Article) *domain.Article {
	out := *a
	out.Content = out.CurrentContent
	out.DraftContent = ""
	return &out
}

func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit
}
