package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tbourn/go-blog-backend/internal/domain"
	"github.com/tbourn/go-blog-backend/internal/kv"
)

// failingStore errors on every operation, simulating a volatile store outage.
type failingStore struct{}

func (failingStore) Get(context.Context, string) (string, error) {
	return "", errors.New("boom")
}
func (failingStore) Set(context.Context, string, string, time.Duration) error {
	return errors.New("boom")
}
func (failingStore) Del(context.Context, ...string) error { return errors.New("boom") }
func (failingStore) Keys(context.Context, string) ([]string, error) {
	return nil, errors.New("boom")
}

func TestKeys_Deterministic(t *testing.T) {
	if got := PublishedKey(2, 10); got != "cache:articles:published:p2:l10" {
		t.Fatalf("PublishedKey = %q", got)
	}
	if got := MergedKey("u1", 1, 25); got != "cache:articles:merged:u1:p1:l25" {
		t.Fatalf("MergedKey = %q", got)
	}
}

func TestGetPage_MissThenHit(t *testing.T) {
	c := New(kv.NewMemory(), time.Hour)
	ctx := context.Background()
	key := PublishedKey(1, 10)

	if _, hit := c.GetPage(ctx, key); hit {
		t.Fatalf("unexpected hit on empty cache")
	}

	want := Page{
		Items: []domain.Article{{ID: "a1", Title: "T", Status: domain.StatusPublished}},
		Total: 1,
	}
	c.SetPage(ctx, key, want)

	got, hit := c.GetPage(ctx, key)
	if !hit {
		t.Fatalf("expected hit after SetPage")
	}
	if got.Total != 1 || len(got.Items) != 1 || got.Items[0].ID != "a1" {
		t.Fatalf("cached page mismatch: %+v", got)
	}
}

func TestGetPage_CorruptEntryIsMiss(t *testing.T) {
	mem := kv.NewMemory()
	c := New(mem, time.Hour)
	ctx := context.Background()
	key := PublishedKey(1, 10)

	_ = mem.Set(ctx, key, "{not json", time.Hour)
	if _, hit := c.GetPage(ctx, key); hit {
		t.Fatalf("corrupt entry must be a miss")
	}
}

func TestGetPage_StoreFailureIsMiss(t *testing.T) {
	c := New(failingStore{}, time.Hour)
	if _, hit := c.GetPage(context.Background(), PublishedKey(1, 10)); hit {
		t.Fatalf("store failure must degrade to a miss")
	}
}

func TestSetPage_StoreFailureIsSilent(t *testing.T) {
	c := New(failingStore{}, time.Hour)
	// Must not panic or propagate.
	c.SetPage(context.Background(), PublishedKey(1, 10), Page{Total: 1})
}

func TestInvalidatePublished_DropsOnlyPublishedPages(t *testing.T) {
	mem := kv.NewMemory()
	c := New(mem, time.Hour)
	ctx := context.Background()

	c.SetPage(ctx, PublishedKey(1, 10), Page{Total: 1})
	c.SetPage(ctx, PublishedKey(2, 10), Page{Total: 1})
	c.SetPage(ctx, MergedKey("u1", 1, 10), Page{Total: 2})

	c.InvalidatePublished(ctx)

	if _, hit := c.GetPage(ctx, PublishedKey(1, 10)); hit {
		t.Fatalf("published p1 survived invalidation")
	}
	if _, hit := c.GetPage(ctx, PublishedKey(2, 10)); hit {
		t.Fatalf("published p2 survived invalidation")
	}
	if _, hit := c.GetPage(ctx, MergedKey("u1", 1, 10)); !hit {
		t.Fatalf("merged page wrongly invalidated")
	}
}

func TestInvalidateMerged_ScopedToUser(t *testing.T) {
	mem := kv.NewMemory()
	c := New(mem, time.Hour)
	ctx := context.Background()

	c.SetPage(ctx, MergedKey("u1", 1, 10), Page{Total: 1})
	c.SetPage(ctx, MergedKey("u2", 1, 10), Page{Total: 1})

	c.InvalidateMerged(ctx, "u1")

	if _, hit := c.GetPage(ctx, MergedKey("u1", 1, 10)); hit {
		t.Fatalf("u1 merged page survived invalidation")
	}
	if _, hit := c.GetPage(ctx, MergedKey("u2", 1, 10)); !hit {
		t.Fatalf("u2 merged page wrongly invalidated")
	}
}

func TestInvalidate_StoreFailureIsSilent(t *testing.T) {
	c := New(failingStore{}, time.Hour)
	c.InvalidatePublished(context.Background())
	c.InvalidateMerged(context.Background(), "u1")
}
