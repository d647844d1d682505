// Editing session HTTP handlers.
//
// This file exposes the endpoints driving live editing sessions:
//   - GET  /editor/draft      (fetch the transient draft for an article)
//   - POST /editor/heartbeat  (signal liveness and autosave draft content)
//   - POST /editor/stop       (end the session, committing the draft)
//
// The draft store backing these endpoints is ephemeral. A store outage is
// reported as 503 so clients keep local state and retry; documents already
// persisted are never affected.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/draftstore"
	"github.com/tbourn/go-blog-backend/internal/http/middleware"
	"github.com/tbourn/go-blog-backend/internal/services"
)

// EditorService defines editing session operations consumed by HTTP handlers.
type EditorService interface {
	Heartbeat(ctx context.Context, userID, articleID, title, content string) error
	GetDraft(ctx context.Context, userID, articleID string) (draftstore.Payload, bool, error)
	Stop(ctx context.Context, userID, articleID string) (*domain.Article, bool, error)
}

// EditorHandlers groups the editing session endpoints.
type EditorHandlers struct {
	svc EditorService
}

// NewEditorHandlers constructs handlers bound to the given editor service.
func NewEditorHandlers(svc EditorService) *EditorHandlers {
	return &EditorHandlers{svc: svc}
}

// HeartbeatRequest is the JSON payload for a heartbeat. ArticleID is empty
// for a new, not yet persisted article.
type HeartbeatRequest struct {
	ArticleID string `json:"articleId"`
	Title     string `json:"title"`
	Content   string `json:"content"`
}

// StopRequest names the session to end.
type StopRequest struct {
	ArticleID string `json:"articleId"`
}

// DraftResponse carries the transient draft for an editing session.
type DraftResponse struct {
	Draft *draftstore.Payload `json:"draft"`
}

// StopResponse reports the committed article, when a draft existed.
type StopResponse struct {
	Flushed bool            `json:"flushed"`
	Article *domain.Article `json:"article,omitempty"`
}

// GetDraft godoc
// @ID          getEditorDraft
// @Summary     Fetch the transient draft for a session
// @Description Returns the autosaved draft for the caller's editing session, or a null draft when none exists.
// @Tags        Editor
// @Produce     json
//
// @Param       Authorization  header  string  true  "Bearer token"
// @Param       articleId      query   string  false "Article ID; empty for a new article"
//
// @Success     200  {object} handlers.DraftResponse
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503  {object} handlers.ErrorResponse "Draft store unavailable"
// @Router      /editor/draft [get]
func (h *EditorHandlers) GetDraft(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	p, found, err := h.svc.GetDraft(c.Request.Context(), uid, c.Query("articleId"))
	if err != nil {
		fail(c, http.StatusServiceUnavailable, ErrCodeEditorUnavailable, "draft store unavailable, retry shortly")
		return
	}
	resp := DraftResponse{}
	if found {
		resp.Draft = &p
	}
	ok(c, http.StatusOK, resp)
}

// Heartbeat godoc
// @ID          editorHeartbeat
// @Summary     Signal liveness and autosave draft content
// @Description Records the caller as actively editing and stores the draft snapshot. Requires a title or content.
// @Tags        Editor
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       body           body    handlers.HeartbeatRequest true "Draft snapshot"
//
// @Success     204  {string} string "No Content"
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     503  {object} handlers.ErrorResponse "Draft store unavailable"
// @Router      /editor/heartbeat [post]
func (h *EditorHandlers) Heartbeat(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req HeartbeatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	err := h.svc.Heartbeat(c.Request.Context(), uid, req.ArticleID, req.Title, req.Content)
	switch {
	case err == nil:
		noContent(c)
	case errors.Is(err, services.ErrNoDraftData):
		fail(c, http.StatusBadRequest, ErrCodeValidation, "title or content required")
	case errors.Is(err, services.ErrDraftStoreUnavailable):
		c.Header("Retry-After", "5")
		fail(c, http.StatusServiceUnavailable, ErrCodeEditorUnavailable, "draft store unavailable, retry shortly")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// Stop godoc
// @ID          editorStop
// @Summary     End an editing session
// @Description Commits any transient draft to the article store and clears the session. A session with no draft is a no-op.
// @Tags        Editor
// @Accept      json
// @Produce     json
//
// @Param       Authorization  header  string  true "Bearer token"
// @Param       body           body    handlers.StopRequest true "Session to end"
//
// @Success     200  {object} handlers.StopResponse
// @Failure     400  {object} handlers.ErrorResponse "Bad request"
// @Failure     401  {object} handlers.ErrorResponse "Unauthorized"
// @Failure     404  {object} handlers.ErrorResponse "Article gone"
// @Failure     500  {object} handlers.ErrorResponse "Internal error"
// @Failure     503  {object} handlers.ErrorResponse "Draft store unavailable"
// @Router      /editor/stop [post]
func (h *EditorHandlers) Stop(c *gin.Context) {
	uid := middleware.IdentityFrom(c).ID
	if uid == "" {
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "authentication required")
		return
	}

	var req StopRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	a, flushed, err := h.svc.Stop(c.Request.Context(), uid, req.ArticleID)
	switch {
	case err == nil:
		ok(c, http.StatusOK, StopResponse{Flushed: flushed, Article: a})
	case errors.Is(err, services.ErrDraftStoreUnavailable):
		c.Header("Retry-After", "5")
		fail(c, http.StatusServiceUnavailable, ErrCodeEditorUnavailable, "draft store unavailable, retry shortly")
	default:
		// Flush failures carry article semantics: a concurrently deleted
		// target is a 404, not a server fault.
		writeServiceError(c, err, ErrCodeInternal)
	}
}
