// Package kv abstracts the volatile key-value store used for ephemeral
// editor drafts, heartbeat records, and the read cache. Keys carry an
// independent TTL and expire without notification; nothing stored here is a
// source of truth.
//
// Two implementations are provided: Redis (production) and an in-process
// map (development and tests). Callers must treat any error as transient
// and recoverable: a failing store degrades behavior (a cache miss, a
// retryable heartbeat), it never corrupts durable data.
package kv

import (
	"context"
	"errors"
	"time"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("kv: key not found")

// Store is the minimal contract the draft store and read cache need.
//
// Pattern syntax for Keys is a glob with a single trailing '*'
// (e.g. "editor:heartbeat:*"), which both implementations support.
type Store interface {
	// Get returns the value under key, or ErrMiss when absent.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key with the given TTL, replacing any
	// previous value and refreshing the expiry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Del removes the given keys. Missing keys are not an error.
	Del(ctx context.Context, keys ...string) error
	// Keys returns all live keys matching pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)
}
