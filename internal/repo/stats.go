// Package repo implements the data persistence layer for the durable article
// store, backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-blog-backend/internal/domain"
)

// ArticlesStats returns aggregate metadata for a user's articles: the total
// number of rows and the greatest UpdatedAt timestamp among them. When the
// user has no articles, count is 0 and maxUpdatedAt is nil.
func ArticlesStats(ctx context.Context, db *gorm.DB, authorID string) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Article{}).Where("author_id = ?", authorID)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Order+limit instead of MAX() to avoid SQLite's TEXT typing of MAX().
	var row struct {
		UpdatedAt time.Time
	}
	if err = q.Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
