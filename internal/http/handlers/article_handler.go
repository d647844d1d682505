// Article HTTP handlers.
//
// This file exposes REST endpoints for article resources:
//   - GET    /articles/public        (published listing, cached)
//   - GET    /articles/public/{id}   (published article)
//   - GET    /articles               (merged listing for caller, ETag support)
//   - GET    /articles/{id}          (expanded fetch, owner sees draft)
//   - POST   /articles               (create)
//   - PUT    /articles/{id}          (update / publish)
//   - DELETE /articles/{id}          (delete)
//   - POST   /articles/bulk-delete   (atomic bulk delete)
//   - POST   /articles/generate      (AI-generate a published article)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses (including conditional responses).
package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/cache"
	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/repo"
	"github.com/tbourn/go-blog-backend/internal/services"
	"github.com/tbourn/go-blog-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ArticleService defines article lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type ArticleService interface {
	Create(ctx context.Context, in services.CreateInput) (*domain.Article, error)
	Update(ctx context.Context, id string, in services.UpdateInput, requesterID string) (*domain.Article, error)
	Delete(ctx context.Context, id, requesterID string) error
	BulkDelete(ctx context.Context, ids []string, requesterID string) (int64, error)
	GetExpanded(ctx context.Context, id, requesterID string) (*domain.Article, error)
	GetPublished(ctx context.Context, id string) (*domain.Article, error)
	PublishedPage(ctx context.Context, page, limit int) (cache.Page, error)
	MergedPage(ctx context.Context, userID string, page, limit int) (cache.Page, error)
}

// GeneratorService produces a complete published article on demand.
type GeneratorService interface {
	Generate(ctx context.Context, authorID, authorName string) (*domain.Article, error)
}

//
// Handler wiring
//

// ArticleHandlers groups HTTP endpoints for article resources.
type ArticleHandlers struct {
	svc ArticleService
	gen GeneratorService
}

// NewArticleHandlers constructs handlers bound to the given services.
// gen may be nil, in which case the generate endpoint reports 503.
func NewArticleHandlers(svc ArticleService, gen GeneratorService) *ArticleHandlers {
	return &ArticleHandlers{svc: svc, gen: gen}
}

//
// DTOs
//

// CreateArticleRequest is the JSON payload for creating an article.
type CreateArticleRequest struct {
	Title         string `json:"title" example:"My first post"`
	Content       string `json:"content" example:"Hello world, this is my first post."`
	Status        string `json:"status" example:"draft"`
	ContentFormat string `json:"contentFormat" example:"markdown"`
}

// UpdateArticleRequest is the JSON payload for updating an article.
// All fields are optional; absent fields are left untouched.
type UpdateArticleRequest struct {
	Title         *string `json:"title"`
	Content       *string `json:"content"`
	Status        *string `json:"status" example:"published"`
	ContentFormat *string `json:"contentFormat"`
}

// BulkDeleteRequest names the articles to delete in one atomic operation.
type BulkDeleteRequest struct {
	IDs []string `json:"ids" binding:"required,min=1"`
}

// BulkDeleteResponse reports how many articles were removed.
type BulkDeleteResponse struct {
	Deleted int64 `json:"deleted"`
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// ListArticlesResponse wraps a page of articles and pagination information.
type ListArticlesResponse struct {
	Articles   []domain.Article `json:"articles"`
	Pagination Pagination       `json:"pagination"`
}

//
// Helpers
//

// pageParams parses and bounds the page and limit query params.
func pageParams(c *gin.Context) (page, limit int) {
	const (
		defaultLimit = 10
		maxLimit     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), 1)
	if page < 1 {
		page = 1
	}
	limit = utils.AtoiDefault(c.Query("limit"), defaultLimit)
	if limit < 1 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return
}

func listResponse(p cache.Page, page, limit int) ListArticlesResponse {
	totalPages := int((p.Total + int64(limit) - 1) / int64(limit))
	items := p.Items
	if items == nil {
		items = []domain.Article{}
	}
	return ListArticlesResponse{
		Articles: items,
		Pagination: Pagination{
			Page:       page,
			Limit:      limit,
			Total:      p.Total,
			TotalPages: totalPages,
			HasNext:    page < totalPages,
		},
	}
}

// writeServiceError maps well-known service errors onto HTTP responses.
// Ownership failures surface as not_found so handlers never disclose
// the existence of another user's article.
func writeServiceError(c *gin.Context, err error, fallbackCode string) {
	switch {
	case errors.Is(err, services.ErrArticleNotFound),
		errors.Is(err, services.ErrNotOwner):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "article not found")
	case errors.Is(err, services.ErrEmptyTitle),
		errors.Is(err, services.ErrContentTooShort):
		fail(c, http.StatusBadRequest, ErrCodeValidation, err.Error())
	default:
		fail(c, http.StatusInternalServerError, fallbackCode, err.Error())
	}
}

//
// Handlers
//

// ListPublished godoc
// @ID          listPublishedArticles
// @Summary     List published articles
// @Description Returns a page of published articles, newest first. Served from cache when warm.
// @Tags        Articles
// @Produce     json
//
// @Param       page   query  int  false "Page number"     minimum(1) default(1)
// @Param       limit  query  int  false "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.ListArticlesResponse
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/public [get]
func (h *ArticleHandlers) ListPublished(c *gin.Context) {
	page, limit := pageParams(c)
	p, err := h.svc.PublishedPage(c.Request.Context(), page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, listResponse(p, page, limit))
}

// GetPublishedArticle godoc
// @ID          getPublishedArticle
// @Summary     Fetch a published article
// @Description Returns a single published article. Draft-only or unpublished articles report 404.
// @Tags        Articles
// @Produce     json
//
// @Param       id  path  string  true "Article ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Article
// @Failure     404  {object} handlers.ErrorResponse "Article not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/public/{id} [get]
func (h *ArticleHandlers) GetPublishedArticle(c *gin.Context) {
	a, err := h.svc.GetPublished(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeServiceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, a)
}

// ListMerged godoc
// @ID          listMergedArticles
// @Summary     List the caller's articles merged with published ones
// @Description Returns a page of the caller's own articles. Supports weak ETag via If-None-Match.
// @Tags        Articles
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       If-None-Match  header  string  false "Return 304 if ETag matches"
// @Param       page           query   int     false "Page number"     minimum(1) default(1)
// @Param       limit          query   int     false "Items per page"  minimum(1) maximum(100) default(10)
//
// @Success     200  {object} handlers.ListArticlesResponse
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles [get]
func (h *ArticleHandlers) ListMerged(c *gin.Context) {
	ctx := c.Request.Context()
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	page, limit := pageParams(c)

	// ETag pre-check (best effort).
	var db *gorm.DB
	if svc, okCast := h.svc.(*services.ArticleService); okCast {
		db = svc.DB
	}
	if db != nil {
		count, maxTS, err := repo.ArticlesStats(ctx, db, uid)
		if err == nil {
			var ts int64
			if maxTS != nil {
				ts = maxTS.Unix()
			}
			etag := fmt.Sprintf(`W/"articles:%s:%d:%d"`, uid, count, ts)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	p, err := h.svc.MergedPage(ctx, uid, page, limit)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		return
	}
	ok(c, http.StatusOK, listResponse(p, page, limit))
}

// GetArticle godoc
// @ID          getArticle
// @Summary     Fetch an article (expanded)
// @Description Owners see their working draft content; other callers only see published articles.
// @Tags        Articles
// @Produce     json
//
// @Param       Authorization  header  string  false "Bearer token"
// @Param       id             path    string  true  "Article ID (UUID)" format(uuid)
//
// @Success     200  {object} domain.Article
// @Failure     404  {object} handlers.ErrorResponse "Article not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/{id} [get]
func (h *ArticleHandlers) GetArticle(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	a, err := h.svc.GetExpanded(c.Request.Context(), c.Param("id"), uid)
	if err != nil {
		writeServiceError(c, err, ErrCodeInternal)
		return
	}
	ok(c, http.StatusOK, a)
}

// CreateArticle godoc
// @ID          createArticle
// @Summary     Create an article
// @Description Creates an article for the caller. Status may be draft (default) or published.
// @Tags        Articles
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       body           body    handlers.CreateArticleRequest true "Create payload"
//
// @Success     201  {object} domain.Article
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles [post]
func (h *ArticleHandlers) CreateArticle(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if id.ID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req CreateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.svc.Create(c.Request.Context(), services.CreateInput{
		Title:         strings.TrimSpace(req.Title),
		Content:       req.Content,
		Status:        req.Status,
		ContentFormat: req.ContentFormat,
		AuthorID:      id.ID,
		AuthorName:    id.Name,
	})
	if err != nil {
		writeServiceError(c, err, ErrCodeCreateFailed)
		return
	}
	ok(c, http.StatusCreated, a)
}

// UpdateArticle godoc
// @ID          updateArticle
// @Summary     Update or publish an article
// @Description Applies partial updates to an article owned by the caller. Setting status to published promotes the working draft.
// @Tags        Articles
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Article ID (UUID)" format(uuid)
// @Param       body           body    handlers.UpdateArticleRequest true "Update payload"
//
// @Success     200  {object} domain.Article
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Article not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/{id} [put]
func (h *ArticleHandlers) UpdateArticle(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req UpdateArticleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, err := h.svc.Update(c.Request.Context(), c.Param("id"), services.UpdateInput{
		Title:         req.Title,
		Content:       req.Content,
		Status:        req.Status,
		ContentFormat: req.ContentFormat,
	}, uid)
	if err != nil {
		writeServiceError(c, err, ErrCodeUpdateFailed)
		return
	}
	ok(c, http.StatusOK, a)
}

// DeleteArticle godoc
// @ID          deleteArticle
// @Summary     Delete an article
// @Tags        Articles
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       id             path    string  true "Article ID (UUID)" format(uuid)
//
// @Success     204  {string} string "No Content"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Article not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/{id} [delete]
func (h *ArticleHandlers) DeleteArticle(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if err := h.svc.Delete(c.Request.Context(), c.Param("id"), uid); err != nil {
		writeServiceError(c, err, ErrCodeDeleteFailed)
		return
	}
	noContent(c)
}

// BulkDeleteArticles godoc
// @ID          bulkDeleteArticles
// @Summary     Delete several articles atomically
// @Description Deletes all named articles, or none. A single foreign article in the batch rejects the whole request.
// @Tags        Articles
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       body           body    handlers.BulkDeleteRequest true "Article IDs"
//
// @Success     200  {object} handlers.BulkDeleteResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Article not found"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/bulk-delete [post]
func (h *ArticleHandlers) BulkDeleteArticles(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.IDs) == 0 {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "ids required")
		return
	}

	n, err := h.svc.BulkDelete(c.Request.Context(), req.IDs, uid)
	if err != nil {
		writeServiceError(c, err, ErrCodeDeleteFailed)
		return
	}
	ok(c, http.StatusOK, BulkDeleteResponse{Deleted: n})
}

// GenerateArticle godoc
// @ID          generateArticle
// @Summary     Generate and publish an AI-written article
// @Tags        Articles
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
//
// @Success     201  {object} domain.Article
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503  {object} handlers.ErrorResponse "Generation unavailable"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Router      /articles/generate [post]
func (h *ArticleHandlers) GenerateArticle(c *gin.Context) {
	id := middleware.IdentityFrom(c)
	if id.ID == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}
	if h.gen == nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeGenerateFailed, "article generation is not configured")
		return
	}

	a, err := h.gen.Generate(c.Request.Context(), id.ID, id.Name)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeGenerateFailed, err.Error())
		return
	}
	ok(c, http.StatusCreated, a)
}
