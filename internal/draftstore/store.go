// Package draftstore holds in-progress, unsaved editor state in the volatile
// key-value store. Two record kinds exist per user: the latest unsaved draft
// payload, keyed by (user, article), and a single liveness timestamp (the
// heartbeat), keyed by user alone.
//
// Key layout:
//
//	editor:draft:{user}:{articleID|"new"}  -> JSON {title?, content?, updatedAt}
//	editor:heartbeat:{user}                -> unix epoch milliseconds
//
// Both keys carry the same TTL and are refreshed on every heartbeat. Nothing
// here is authoritative: records are a cache of unsaved author intent, and
// losing them costs at most one heartbeat interval of typing.
package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tbourn/go-blog-backend/internal/kv"
)

const (
	draftPrefix     = "editor:draft"
	heartbeatPrefix = "editor:heartbeat"

	// newArticleKey is the sentinel article-id segment for a draft that has
	// no durable article yet.
	newArticleKey = "new"
)

// Payload is the transient draft body stored on every heartbeat. Title and
// Content are both optional, but a heartbeat must carry at least one.
type Payload struct {
	Title     string    `json:"title,omitempty"`
	Content   string    `json:"content,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Empty reports whether the payload carries neither a title nor content.
func (p Payload) Empty() bool { return p.Title == "" && p.Content == "" }

// Heartbeat is one user's last recorded liveness signal.
type Heartbeat struct {
	UserID string
	At     time.Time
}

// Store provides idempotent access to the volatile draft records. Each
// operation touches only the key it targets, so a failing call never
// corrupts another session.
type Store struct {
	kv  kv.Store
	ttl time.Duration

	// now is the clock used for payload timestamps; injectable for tests.
	now func() time.Time
}

// New returns a Store writing through kvs with the given record TTL.
func New(kvs kv.Store, ttl time.Duration) *Store {
	return &Store{kv: kvs, ttl: ttl, now: time.Now}
}

func draftKey(userID, articleID string) string {
	if articleID == "" {
		articleID = newArticleKey
	}
	return fmt.Sprintf("%s:%s:%s", draftPrefix, userID, articleID)
}

func heartbeatKey(userID string) string {
	return fmt.Sprintf("%s:%s", heartbeatPrefix, userID)
}

// PutDraft stores the payload under (userID, articleID), stamping UpdatedAt
// and refreshing the TTL. An empty articleID addresses the "new" sentinel
// session.
func (s *Store) PutDraft(ctx context.Context, userID, articleID string, p Payload) error {
	p.UpdatedAt = s.now().UTC()
	raw, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode draft payload: %w", err)
	}
	return s.kv.Set(ctx, draftKey(userID, articleID), string(raw), s.ttl)
}

// GetDraft returns the stored payload for (userID, articleID). The second
// return value is false when no draft is present.
func (s *Store) GetDraft(ctx context.Context, userID, articleID string) (Payload, bool, error) {
	raw, err := s.kv.Get(ctx, draftKey(userID, articleID))
	if errors.Is(err, kv.ErrMiss) {
		return Payload{}, false, nil
	}
	if err != nil {
		return Payload{}, false, err
	}
	var p Payload
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return Payload{}, false, fmt.Errorf("decode draft payload: %w", err)
	}
	return p, true, nil
}

// RecordHeartbeat refreshes the user's liveness timestamp with the store TTL.
func (s *Store) RecordHeartbeat(ctx context.Context, userID string) error {
	ms := strconv.FormatInt(s.now().UnixMilli(), 10)
	return s.kv.Set(ctx, heartbeatKey(userID), ms, s.ttl)
}

// ClearDraft deletes the single draft key for (userID, articleID), leaving
// the heartbeat untouched. Used when a save through the normal mutation path
// supersedes the transient draft.
func (s *Store) ClearDraft(ctx context.Context, userID, articleID string) error {
	return s.kv.Del(ctx, draftKey(userID, articleID))
}

// ClearSession deletes both the draft key for (userID, articleID) and the
// user's heartbeat key. Used after an explicit stop flush.
func (s *Store) ClearSession(ctx context.Context, userID, articleID string) error {
	return s.kv.Del(ctx, draftKey(userID, articleID), heartbeatKey(userID))
}

// DeleteHeartbeat removes only the user's heartbeat key.
func (s *Store) DeleteHeartbeat(ctx context.Context, userID string) error {
	return s.kv.Del(ctx, heartbeatKey(userID))
}

// Heartbeats enumerates every live heartbeat record. Malformed values are
// skipped rather than failing the whole scan.
func (s *Store) Heartbeats(ctx context.Context) ([]Heartbeat, error) {
	keys, err := s.kv.Keys(ctx, heartbeatPrefix+":*")
	if err != nil {
		return nil, err
	}
	out := make([]Heartbeat, 0, len(keys))
	for _, k := range keys {
		userID := strings.TrimPrefix(k, heartbeatPrefix+":")
		raw, err := s.kv.Get(ctx, k)
		if errors.Is(err, kv.ErrMiss) {
			continue // expired between scan and read
		}
		if err != nil {
			return nil, err
		}
		ms, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, Heartbeat{UserID: userID, At: time.UnixMilli(ms)})
	}
	return out, nil
}

// DraftArticleIDs enumerates the article ids of every live draft key under
// the user's namespace. The "new" sentinel is returned as an empty string.
// A user can hold several in-flight articles plus at most one unsaved
// creation.
func (s *Store) DraftArticleIDs(ctx context.Context, userID string) ([]string, error) {
	prefix := fmt.Sprintf("%s:%s:", draftPrefix, userID)
	keys, err := s.kv.Keys(ctx, prefix+"*")
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		id := strings.TrimPrefix(k, prefix)
		if id == newArticleKey {
			id = ""
		}
		out = append(out, id)
	}
	return out, nil
}
