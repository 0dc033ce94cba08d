package domain

import "time"

// IdempotencyStatus is the lifecycle state of an IdempotencyRecord.
type IdempotencyStatus string

const (
	IdempotencyInProgress IdempotencyStatus = "in_progress"
	IdempotencyCompleted  IdempotencyStatus = "completed"
	IdempotencyFailed     IdempotencyStatus = "failed"
)

// MaxRequestIDLength bounds IdempotencyRecord.RequestID and the request ids
// the HTTP layer generates.
const MaxRequestIDLength = 64

// IdempotencyRecord remembers a mutating request keyed by (user_id, endpoint,
// key). The unique index is what makes the first insert an atomic claim: a
// concurrent duplicate fails the insert instead of running the operation.
//
// Result holds the JSON payload to replay and is only set once Status is
// completed. LockedUntil is the lease of an in_progress record; a record whose
// lease has lapsed was abandoned and may be reclaimed.
type IdempotencyRecord struct {
	ID          string            `gorm:"type:char(36);primaryKey"`
	UserID      string            `gorm:"type:varchar(64);not null;uniqueIndex:ux_idem_user_endpoint_key,priority:1"`
	Endpoint    string            `gorm:"type:varchar(255);not null;uniqueIndex:ux_idem_user_endpoint_key,priority:2"`
	Key         string            `gorm:"type:varchar(128);not null;uniqueIndex:ux_idem_user_endpoint_key,priority:3"`
	Status      IdempotencyStatus `gorm:"type:varchar(16);not null;index"`
	Result      []byte            `gorm:"type:bytes"`
	RequestID   string            `gorm:"type:varchar(64);not null"`
	LockedUntil *time.Time
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time
	ExpiresAt   time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (IdempotencyRecord) TableName() string { return "idempotency_records" }

// Expired reports whether the record is past its retention window at now.
func (r *IdempotencyRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

// Reclaimable reports whether a new attempt may take the record over: it
// failed, or it is in progress but its lease lapsed (the owner crashed).
func (r *IdempotencyRecord) Reclaimable(now time.Time) bool {
	switch r.Status {
	case IdempotencyFailed:
		return true
	case IdempotencyInProgress:
		return r.LockedUntil != nil && !now.Before(*r.LockedUntil)
	}
	return false
}
