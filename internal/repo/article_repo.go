// Package repo implements the data persistence layer for the durable article
// store, backed by GORM. This file provides repository functions for the
// Article model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations. They
// follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When an article is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - On DB errors (constraint violations, connectivity issues, etc.),
//     the raw gorm error is propagated.
//
// This repository is designed to be wrapped by a higher-level service
// (see services.ArticleService) which enforces ownership rules, publish
// semantics, cache invalidation, and draft-session cleanup.
package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for consistency across the service
// layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrNotOwned is returned by DeleteArticlesOwned when any requested article
// belongs to a different author; the transaction rolls back atomically.
var ErrNotOwned = errors.New("article not owned by requester")

// CreateArticle inserts the given article, assigning a UUID primary key and
// UTC creation timestamp when unset.
func CreateArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(a).Error
}

// GetArticle fetches a single article by id regardless of status or owner.
// Visibility rules live in the service layer. Returns ErrNotFound when the
// record does not exist.
func GetArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	var a domain.Article
	if err := db.WithContext(ctx).Where("id = ?", id).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// SaveArticle persists all fields of an already-loaded article.
func SaveArticle(ctx context.Context, db *gorm.DB, a *domain.Article) error {
	return db.WithContext(ctx).Save(a).Error
}

// DeleteArticle removes the article with the given id. Returns ErrNotFound
// when no row was affected.
func DeleteArticle(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Article{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteArticlesOwned removes all articles in ids inside a single
// transaction, but only if every one of them is owned by authorID. If any
// id belongs to another user the whole transaction rolls back and no row is
// deleted. Missing ids are skipped; the returned count covers rows actually
// removed.
func DeleteArticlesOwned(ctx context.Context, db *gorm.DB, ids []string, authorID string) (int64, error) {
	var deleted int64
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var owners []struct {
			ID       string
			AuthorID string
		}
		if err := tx.Model(&domain.Article{}).
			Where("id IN ?", ids).
			Select("id", "author_id").
			Find(&owners).Error; err != nil {
			return err
		}
		for _, o := range owners {
			if o.AuthorID != authorID {
				return fmt.Errorf("article %s: %w", o.ID, ErrNotOwned)
			}
		}
		res := tx.Where("id IN ? AND author_id = ?", ids, authorID).Delete(&domain.Article{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

// CountPublished returns the total number of published articles.
func CountPublished(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("status = ?", domain.StatusPublished).
		Count(&total).Error
	return total, err
}

// ListPublishedPage returns a page of published articles ordered by publish
// time descending, newest creations breaking ties.
func ListPublishedPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Article, error) {
	var out []domain.Article
	err := db.WithContext(ctx).
		Where("status = ?", domain.StatusPublished).
		Order("published_at desc").
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

// GetPublishedArticle fetches a single article by id only if it is
// published. Returns ErrNotFound otherwise.
func GetPublishedArticle(ctx context.Context, db *gorm.DB, id string) (*domain.Article, error) {
	var a domain.Article
	err := db.WithContext(ctx).
		Where("id = ? AND status = ?", id, domain.StatusPublished).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// CountOwned returns the total number of articles authored by authorID.
func CountOwned(ctx context.Context, db *gorm.DB, authorID string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Article{}).
		Where("author_id = ?", authorID).
		Count(&total).Error
	return total, err
}

// ListOwnedPage returns a page of the author's own articles (any status),
// ordered by creation time descending.
func ListOwnedPage(ctx context.Context, db *gorm.DB, authorID string, offset, limit int) ([]domain.Article, error) {
	var out []domain.Article
	err := db.WithContext(ctx).
		Where("author_id = ?", authorID).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
