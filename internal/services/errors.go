// Package services defines the business logic for articles and editing
// sessions. This file centralizes common service-level error values so they
// can be consistently returned by service methods and checked by callers.
//
// Translation into HTTP status codes happens at the handler layer; in
// particular, ErrNotOwner on another user's non-published article must be
// surfaced as not-found so existence is not disclosed.
package services

import "errors"

var (
	// ErrArticleNotFound indicates that the requested article does not exist
	// or is not visible to the current caller.
	ErrArticleNotFound = errors.New("article not found")

	// ErrNotOwner is returned when a caller tries to mutate an article they
	// do not own.
	ErrNotOwner = errors.New("not authorized to modify this article")

	// ErrEmptyTitle is returned when a create or update carries a blank title.
	ErrEmptyTitle = errors.New("title cannot be empty")

	// ErrContentTooShort is returned when the article body is below the
	// configured minimum length.
	ErrContentTooShort = errors.New("content too short to be a valid article")

	// ErrNoDraftData is returned when a heartbeat carries neither a title
	// nor content.
	ErrNoDraftData = errors.New("no draft data provided")

	// ErrDraftStoreUnavailable wraps transient volatile-store failures on
	// the editing-session path; callers should retry.
	ErrDraftStoreUnavailable = errors.New("draft store unavailable")
)
