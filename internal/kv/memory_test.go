package kv

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"
)

func TestMemory_SetGet(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Fatalf("Get = %q, %v; want v, nil", got, err)
	}
}

func TestMemory_Get_Miss(t *testing.T) {
	m := NewMemory()
	if _, err := m.Get(context.Background(), "absent"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss, got %v", err)
	}
}

func TestMemory_Get_Expired(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	if err := m.Set(ctx, "k", "v", time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// Still live just inside the TTL.
	now = now.Add(59 * time.Second)
	if _, err := m.Get(ctx, "k"); err != nil {
		t.Fatalf("Get before expiry: %v", err)
	}

	// Past the TTL the key is gone.
	now = now.Add(2 * time.Second)
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrMiss) {
		t.Fatalf("expected ErrMiss after expiry, got %v", err)
	}
}

func TestMemory_Del(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	_ = m.Set(ctx, "a", "1", time.Minute)
	_ = m.Set(ctx, "b", "2", time.Minute)

	if err := m.Del(ctx, "a", "b", "missing"); err != nil {
		t.Fatalf("Del: %v", err)
	}
	if _, err := m.Get(ctx, "a"); !errors.Is(err, ErrMiss) {
		t.Fatalf("a survived Del")
	}
	if _, err := m.Get(ctx, "b"); !errors.Is(err, ErrMiss) {
		t.Fatalf("b survived Del")
	}
}

func TestMemory_Keys_PrefixAndExpiry(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	m.Now = func() time.Time { return now }

	_ = m.Set(ctx, "editor:heartbeat:u1", "1", time.Minute)
	_ = m.Set(ctx, "editor:heartbeat:u2", "2", time.Hour)
	_ = m.Set(ctx, "cache:articles:published:p1:l10", "x", time.Hour)

	keys, err := m.Keys(ctx, "editor:heartbeat:*")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	sort.Strings(keys)
	want := []string{"editor:heartbeat:u1", "editor:heartbeat:u2"}
	if len(keys) != 2 || keys[0] != want[0] || keys[1] != want[1] {
		t.Fatalf("Keys = %v; want %v", keys, want)
	}

	// Aging past u1's TTL drops it from enumeration.
	now = now.Add(2 * time.Minute)
	keys, err = m.Keys(ctx, "editor:heartbeat:*")
	if err != nil {
		t.Fatalf("Keys after expiry: %v", err)
	}
	if len(keys) != 1 || keys[0] != "editor:heartbeat:u2" {
		t.Fatalf("Keys after expiry = %v; want [editor:heartbeat:u2]", keys)
	}
}
