// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository helpers for the
// IdempotencyRecord model used to give mutating endpoints safe-retry
// semantics.
//
// The unique index on (user_id, endpoint, key) is the concurrency primitive:
// InsertIdempotency either claims the key or reports ErrDuplicate, and the
// takeover helpers below are conditional updates/deletes so only one caller
// can win a race for the same row.
package repo

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// ErrDuplicate indicates that a row violating a unique index already exists,
// e.g. an idempotency record for the same (user_id, endpoint, key).
var ErrDuplicate = errors.New("duplicate")

// isUniqueViolation recognises unique-index failures across drivers.
// glebarez/sqlite often returns plain-text errors for UNIQUE violations.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	low := strings.ToLower(err.Error())
	return strings.Contains(low, "unique constraint failed") ||
		strings.Contains(low, "constraint failed: unique") ||
		strings.Contains(low, "duplicate key")
}

// InsertIdempotency inserts rec and returns ErrDuplicate when the key is
// already claimed.
func InsertIdempotency(ctx context.Context, db *gorm.DB, rec *domain.IdempotencyRecord) error {
	if err := db.WithContext(ctx).Create(rec).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetIdempotency returns the record for the triple regardless of its
// expiry, or ErrNotFound.
func GetIdempotency(ctx context.Context, db *gorm.DB, userID, endpoint, key string) (*domain.IdempotencyRecord, error) {
	var rec domain.IdempotencyRecord
	err := db.WithContext(ctx).
		Where("user_id = ? AND endpoint = ? AND key = ?", userID, endpoint, key).
		First(&rec).Error
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// ErrClaimLost is returned by the settle writes below when the record is no
// longer in progress under the caller's request id: the lease lapsed and
// another request reclaimed the key, or the record was removed.
var ErrClaimLost = errors.New("idempotency claim lost")

// owned scopes a write to the in-progress record claimed by requestID.
func owned(db *gorm.DB, id, requestID string) *gorm.DB {
	return db.Where("id = ? AND request_id = ? AND status = ?", id, requestID, domain.IdempotencyInProgress)
}

// CompleteIdempotency stores the replay payload and marks the record
// completed. It returns ErrClaimLost unless requestID still owns the claim.
func CompleteIdempotency(ctx context.Context, db *gorm.DB, id, requestID string, result []byte, now time.Time) error {
	res := owned(db.WithContext(ctx).Model(&domain.IdempotencyRecord{}), id, requestID).
		Updates(map[string]any{
			"status":       domain.IdempotencyCompleted,
			"result":       result,
			"locked_until": nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrClaimLost
	}
	return nil
}

// ReleaseIdempotency deletes the claim of requestID so the key can be
// reused. It returns ErrClaimLost, and deletes nothing, when someone else
// owns the record now.
func ReleaseIdempotency(ctx context.Context, db *gorm.DB, id, requestID string) error {
	res := owned(db.WithContext(ctx), id, requestID).Delete(&domain.IdempotencyRecord{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrClaimLost
	}
	return nil
}

// MarkIdempotencyFailed flags the claim of requestID as failed so a later
// attempt can reclaim it. Same ownership rule as ReleaseIdempotency.
func MarkIdempotencyFailed(ctx context.Context, db *gorm.DB, id, requestID string, now time.Time) error {
	res := owned(db.WithContext(ctx).Model(&domain.IdempotencyRecord{}), id, requestID).
		Updates(map[string]any{
			"status":       domain.IdempotencyFailed,
			"locked_until": nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrClaimLost
	}
	return nil
}

// ReclaimIdempotency takes over a failed record or an in-progress record
// whose lease lapsed. It reports false when another caller got there first
// or the record is no longer reclaimable.
func ReclaimIdempotency(ctx context.Context, db *gorm.DB, id, requestID string, lockedUntil, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Model(&domain.IdempotencyRecord{}).
		Where("id = ? AND (status = ? OR (status = ? AND locked_until <= ?))",
			id, domain.IdempotencyFailed, domain.IdempotencyInProgress, now).
		Updates(map[string]any{
			"status":       domain.IdempotencyInProgress,
			"request_id":   requestID,
			"locked_until": lockedUntil,
			"result":       nil,
			"updated_at":   now,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteExpiredIdempotency removes the record only if it is still expired at
// now, reporting whether a row was deleted.
func DeleteExpiredIdempotency(ctx context.Context, db *gorm.DB, id string, now time.Time) (bool, error) {
	res := db.WithContext(ctx).
		Where("id = ? AND expires_at <= ?", id, now).
		Delete(&domain.IdempotencyRecord{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// PurgeExpiredIdempotency deletes every record whose retention window has
// passed and returns how many rows were removed.
func PurgeExpiredIdempotency(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.IdempotencyRecord{})
	return res.RowsAffected, res.Error
}
