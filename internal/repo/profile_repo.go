// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Profile
// model, the role store consulted by the access gate.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions. They follow the "thin repository"
// approach: no business logic, only persistence and query composition.
//
// Error semantics:
//   - A missing profile yields gorm.ErrRecordNotFound (exported as ErrNotFound).
//   - Any other DB error is propagated unchanged so callers can tell a lookup
//     failure apart from an absent row.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// GetProfile fetches the profile of userID, or ErrNotFound.
func GetProfile(ctx context.Context, db *gorm.DB, userID string) (*domain.Profile, error) {
	var p domain.Profile
	if err := db.WithContext(ctx).First(&p, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// UpsertProfile inserts p or, when the user already has a profile, updates
// its display name and role. Membership status is left untouched on update.
func UpsertProfile(ctx context.Context, db *gorm.DB, p *domain.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"display_name", "role", "updated_at"}),
	}).Create(p).Error
}

// SetProfileRole changes the role of userID. Returns ErrNotFound if the user
// has no profile.
func SetProfileRole(ctx context.Context, db *gorm.DB, userID string, role domain.Role) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"role": string(role), "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetMembershipStatus writes the athlete membership status of userID; a nil
// status clears it. Returns ErrNotFound if the user has no profile.
func SetMembershipStatus(ctx context.Context, db *gorm.DB, userID string, status *domain.MembershipStatus) error {
	res := db.WithContext(ctx).
		Model(&domain.Profile{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"membership_status": status, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
