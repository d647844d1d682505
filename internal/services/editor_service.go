// Package services – EditorService
//
// This file implements the request-facing editing-session surface: record a
// heartbeat (refresh liveness and persist the transient draft), fetch the
// current transient draft, and stop (flush now, synchronously). Flush is the
// single shared commit routine used both here and by the reconciliation
// engine, so the "flushed twice" hazard is resolved in exactly one place.
package services

import (
	"context"
	"fmt"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/draftstore"
)

// EditorService manages ephemeral editing sessions on top of the volatile
// draft store. It never reads the durable store on the fetch path: when no
// transient draft exists, the client is expected to already hold the durable
// content.
type EditorService struct {
	Drafts   *draftstore.Store
	Articles *ArticleService
}

// NewEditorService constructs an EditorService.
func NewEditorService(d *draftstore.Store, a *ArticleService) *EditorService {
	return &EditorService{Drafts: d, Articles: a}
}

// Heartbeat stores the transient payload under (userID, articleID) and
// refreshes the user's liveness timestamp. At least one of title or content
// must be present. Store failures surface as ErrDraftStoreUnavailable so the
// client can retry; other sessions are unaffected.
func (s *EditorService) Heartbeat(ctx context.Context, userID, articleID, title, content string) error {
	if title == "" && content == "" {
		return ErrNoDraftData
	}
	p := draftstore.Payload{Title: title, Content: content}
	if err := s.Drafts.PutDraft(ctx, userID, articleID, p); err != nil {
		return fmt.Errorf("%w: %v", ErrDraftStoreUnavailable, err)
	}
	if err := s.Drafts.RecordHeartbeat(ctx, userID); err != nil {
		return fmt.Errorf("%w: %v", ErrDraftStoreUnavailable, err)
	}
	return nil
}

// GetDraft returns the stored transient payload for (userID, articleID).
// The boolean is false when no draft is present.
func (s *EditorService) GetDraft(ctx context.Context, userID, articleID string) (draftstore.Payload, bool, error) {
	p, ok, err := s.Drafts.GetDraft(ctx, userID, articleID)
	if err != nil {
		return draftstore.Payload{}, false, fmt.Errorf("%w: %v", ErrDraftStoreUnavailable, err)
	}
	return p, ok, nil
}

// Stop flushes the transient draft for (userID, articleID) into the durable
// store and clears the session. When no draft is present it is a no-op
// success with a nil article, and calling it again stays a no-op.
func (s *EditorService) Stop(ctx context.Context, userID, articleID string) (*domain.Article, bool, error) {
	p, ok, err := s.GetDraft(ctx, userID, articleID)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	a, err := s.Flush(ctx, userID, articleID, p)
	if err != nil {
		return nil, false, err
	}
	if err := s.Drafts.ClearSession(ctx, userID, articleID); err != nil {
		return a, true, fmt.Errorf("%w: %v", ErrDraftStoreUnavailable, err)
	}
	return a, true, nil
}

// Flush commits a transient payload through the same mutation routine as a
// normal save. An empty articleID creates a new draft-status article (with a
// generated placeholder title when the payload has none); otherwise the
// existing article is updated in place, preserving its publish status. It is
// the single code path shared by Stop and the reconciliation engine.
func (s *EditorService) Flush(ctx context.Context, userID, articleID string, p draftstore.Payload) (*domain.Article, error) {
	if articleID == "" {
		title := p.Title
		if title == "" {
			title = "Auto-saved Draft " + nowUTC().Format("2006-01-02 15:04")
		}
		return s.Articles.Create(ctx, CreateInput{
			Title:    title,
			Content:  p.Content,
			Status:   domain.StatusDraft,
			AuthorID: userID,
			Autosave: true,
		})
	}

	in := UpdateInput{}
	if p.Title != "" {
		in.Title = &p.Title
	}
	if p.Content != "" {
		in.Content = &p.Content
	}
	return s.Articles.Update(ctx, articleID, in, userID)
}
