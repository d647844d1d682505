package kv

import (
	"context"
	"strings"
	"sync"
	"time"
)

type entry struct {
	value   string
	expires time.Time
}

// Memory is an in-process Store used when no Redis URL is configured and in
// tests. Expiry is lazy: a key past its TTL is dropped the next time it is
// read or enumerated.
//
// The clock is injectable so tests can age keys deterministically.
type Memory struct {
	mu    sync.Mutex
	items map[string]entry

	// Now reports the current time; defaults to time.Now.
	Now func() time.Time
}

// NewMemory returns an empty in-memory Store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]entry), Now: time.Now}
}

// Get returns the value under key, or ErrMiss when absent or expired.
func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[key]
	if !ok {
		return "", ErrMiss
	}
	if m.Now().After(e.expires) {
		delete(m.items, key)
		return "", ErrMiss
	}
	return e.value, nil
}

// Set stores value under key with the given TTL.
func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = entry{value: value, expires: m.Now().Add(ttl)}
	return nil
}

// Del removes the given keys.
func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

// Keys returns all live keys matching pattern. Only prefix patterns with a
// single trailing '*' are supported, which is all the draft store and read
// cache use.
func (m *Memory) Keys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	now := m.Now()

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for k, e := range m.items {
		if now.After(e.expires) {
			delete(m.items, k)
			continue
		}
		if strings.HasPrefix(k, prefix) {
			out = append(out, k)
		}
	}
	return out, nil
}

var _ Store = (*Memory)(nil)
