package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// CreateSession schedules a training session for clubID.
func CreateSession(ctx context.Context, db *gorm.DB, clubID, title string, startsAt time.Time, createdBy string) (*domain.TrainingSession, error) {
	now := time.Now().UTC()
	s := &domain.TrainingSession{
		ID:        uuid.NewString(),
		ClubID:    clubID,
		Title:     title,
		StartsAt:  startsAt.UTC(),
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetSession fetches a session by ID, or ErrNotFound.
func GetSession(ctx context.Context, db *gorm.DB, id string) (*domain.TrainingSession, error) {
	var s domain.TrainingSession
	if err := db.WithContext(ctx).First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateAttendance records a check-in. A second check-in by the same athlete
// to the same session returns ErrDuplicate.
func CreateAttendance(ctx context.Context, db *gorm.DB, sessionID, athleteID string) (*domain.Attendance, error) {
	a := &domain.Attendance{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		AthleteID:   athleteID,
		CheckedInAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, err
	}
	return a, nil
}

// CreateLeaveRequest stores a pending leave request.
func CreateLeaveRequest(ctx context.Context, db *gorm.DB, sessionID, athleteID, reason string) (*domain.LeaveRequest, error) {
	lr := &domain.LeaveRequest{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		AthleteID: athleteID,
		Reason:    reason,
		Status:    "pending",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(lr).Error; err != nil {
		return nil, err
	}
	return lr, nil
}
