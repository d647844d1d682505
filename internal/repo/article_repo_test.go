package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

func newArticleRepoDB(t *testing.T, migrate ...any) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), fmt.Sprintf("article_repo_test_%d.db", time.Now().UnixNano()))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	// Ensure the file handle is released before TempDir cleanup (Windows needs this).
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	if len(migrate) > 0 {
		if err := db.AutoMigrate(migrate...); err != nil {
			t.Fatalf("automigrate: %v", err)
		}
	}
	return db
}

func seedArticle(t *testing.T, db *gorm.DB, a domain.Article) domain.Article {
	t.Helper()
	if err := CreateArticle(context.Background(), db, &a); err != nil {
		t.Fatalf("seed article: %v", err)
	}
	return a
}

func TestCreateArticle_AssignsIDAndTimestamp(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})

	a := domain.Article{
		Title:    "First",
		Status:   domain.StatusDraft,
		AuthorID: "u1",
	}
	if err := CreateArticle(context.Background(), db, &a); err != nil {
		t.Fatalf("CreateArticle: %v", err)
	}
	if a.ID == "" {
		t.Fatalf("ID not assigned")
	}
	if a.CreatedAt.IsZero() {
		t.Fatalf("CreatedAt not assigned")
	}

	got, err := GetArticle(context.Background(), db, a.ID)
	if err != nil {
		t.Fatalf("GetArticle: %v", err)
	}
	if got.Title != "First" || got.AuthorID != "u1" {
		t.Fatalf("round-trip mismatch: %+v", got)
	}
}

func TestGetArticle_NotFound(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	if _, err := GetArticle(context.Background(), db, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetPublishedArticle_FiltersStatus(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	ctx := context.Background()

	draft := seedArticle(t, db, domain.Article{Title: "d", Status: domain.StatusDraft, AuthorID: "u1"})
	pub := seedArticle(t, db, domain.Article{Title: "p", Status: domain.StatusPublished, AuthorID: "u1"})

	if _, err := GetPublishedArticle(ctx, db, draft.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("draft visible through published fetch: %v", err)
	}
	got, err := GetPublishedArticle(ctx, db, pub.ID)
	if err != nil || got.ID != pub.ID {
		t.Fatalf("GetPublishedArticle = %+v, %v", got, err)
	}
}

func TestDeleteArticle_NotFound(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	if err := DeleteArticle(context.Background(), db, "absent"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteArticlesOwned_Atomic(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	ctx := context.Background()

	mine1 := seedArticle(t, db, domain.Article{Title: "m1", Status: domain.StatusDraft, AuthorID: "u1"})
	mine2 := seedArticle(t, db, domain.Article{Title: "m2", Status: domain.StatusDraft, AuthorID: "u1"})
	theirs := seedArticle(t, db, domain.Article{Title: "t1", Status: domain.StatusDraft, AuthorID: "u2"})

	// One foreign article rejects the whole batch.
	n, err := DeleteArticlesOwned(ctx, db, []string{mine1.ID, theirs.ID}, "u1")
	if !errors.Is(err, ErrNotOwned) {
		t.Fatalf("expected ErrNotOwned, got n=%d err=%v", n, err)
	}
	if _, err := GetArticle(ctx, db, mine1.ID); err != nil {
		t.Fatalf("mine1 deleted despite rollback: %v", err)
	}

	// A clean owned batch deletes everything.
	n, err = DeleteArticlesOwned(ctx, db, []string{mine1.ID, mine2.ID}, "u1")
	if err != nil || n != 2 {
		t.Fatalf("DeleteArticlesOwned = %d, %v; want 2, nil", n, err)
	}
	if _, err := GetArticle(ctx, db, mine1.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("mine1 survived: %v", err)
	}

	// Missing ids are skipped, not errors.
	n, err = DeleteArticlesOwned(ctx, db, []string{"absent"}, "u1")
	if err != nil || n != 0 {
		t.Fatalf("missing ids: n=%d err=%v", n, err)
	}
}

func TestListPublishedPage_OrderAndPaging(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		seedArticle(t, db, domain.Article{
			Title:       fmt.Sprintf("p%d", i),
			Status:      domain.StatusPublished,
			AuthorID:    "u1",
			PublishedAt: &at,
			CreatedAt:   at,
		})
	}
	seedArticle(t, db, domain.Article{Title: "draft", Status: domain.StatusDraft, AuthorID: "u1"})

	total, err := CountPublished(ctx, db)
	if err != nil || total != 3 {
		t.Fatalf("CountPublished = %d, %v; want 3", total, err)
	}

	page, err := ListPublishedPage(ctx, db, 0, 2)
	if err != nil {
		t.Fatalf("ListPublishedPage: %v", err)
	}
	if len(page) != 2 || page[0].Title != "p2" || page[1].Title != "p1" {
		t.Fatalf("unexpected order/page: %+v", page)
	}

	rest, err := ListPublishedPage(ctx, db, 2, 2)
	if err != nil || len(rest) != 1 || rest[0].Title != "p0" {
		t.Fatalf("second page = %+v, %v", rest, err)
	}
}

func TestListOwnedPage_AnyStatusNewestFirst(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	ctx := context.Background()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	seedArticle(t, db, domain.Article{Title: "old", Status: domain.StatusDraft, AuthorID: "u1", CreatedAt: base})
	seedArticle(t, db, domain.Article{Title: "new", Status: domain.StatusPublished, AuthorID: "u1", CreatedAt: base.Add(time.Hour)})
	seedArticle(t, db, domain.Article{Title: "other", Status: domain.StatusDraft, AuthorID: "u2", CreatedAt: base})

	total, err := CountOwned(ctx, db, "u1")
	if err != nil || total != 2 {
		t.Fatalf("CountOwned = %d, %v; want 2", total, err)
	}

	page, err := ListOwnedPage(ctx, db, "u1", 0, 10)
	if err != nil {
		t.Fatalf("ListOwnedPage: %v", err)
	}
	if len(page) != 2 || page[0].Title != "new" || page[1].Title != "old" {
		t.Fatalf("unexpected order: %+v", page)
	}
}

func TestArticlesStats(t *testing.T) {
	db := newArticleRepoDB(t, &domain.Article{})
	ctx := context.Background()

	count, maxTS, err := ArticlesStats(ctx, db, "u1")
	if err != nil || count != 0 || maxTS != nil {
		t.Fatalf("empty stats = %d, %v, %v", count, maxTS, err)
	}

	seedArticle(t, db, domain.Article{Title: "a", Status: domain.StatusDraft, AuthorID: "u1"})
	seedArticle(t, db, domain.Article{Title: "b", Status: domain.StatusDraft, AuthorID: "u1"})

	count, maxTS, err = ArticlesStats(ctx, db, "u1")
	if err != nil {
		t.Fatalf("ArticlesStats: %v", err)
	}
	if count != 2 || maxTS == nil || maxTS.IsZero() {
		t.Fatalf("stats = %d, %v", count, maxTS)
	}
}
