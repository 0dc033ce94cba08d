// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (ETag generation) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// ApplicationsStats returns the number of applications in status (all when
// empty) and the greatest UpdatedAt among them, or nil when there are none.
//
// Return values:
//   - count:        total matching applications
//   - maxUpdatedAt: pointer to the greatest UpdatedAt, or nil if no rows
//   - err:          database error, if any
func ApplicationsStats(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus) (count int64, maxUpdatedAt *time.Time, err error) {
	q := applicationsScope(db.WithContext(ctx), status)

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest updated_at (avoid MAX() -> TEXT in SQLite)
	var row struct {
		UpdatedAt time.Time
	}
	if err = applicationsScope(db.WithContext(ctx), status).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
