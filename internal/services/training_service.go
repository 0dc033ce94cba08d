// Package services – TrainingService
//
// TrainingService implements the athlete actions guarded by the access and
// idempotency gates (check-in, leave requests) and the coach action of
// scheduling sessions.

package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// TrainingService coordinates sessions, attendance and leave requests.
type TrainingService struct {
	DB *gorm.DB

	// MaxReasonRunes caps leave-request reasons; 0 disables.
	MaxReasonRunes int
}

// NewTrainingService constructs a TrainingService.
func NewTrainingService(db *gorm.DB) *TrainingService {
	return &TrainingService{DB: db, MaxReasonRunes: 1000}
}

// CreateSession schedules a session for a club.
func (s *TrainingService) CreateSession(ctx context.Context, coachID, clubID, title string, startsAt time.Time) (*domain.TrainingSession, error) {
	tr := otel.Tracer("services/TrainingService")
	ctx, span := tr.Start(ctx, "CreateSession",
		trace.WithAttributes(
			attribute.String("user.id", coachID),
			attribute.String("club.id", clubID),
		),
	)
	defer span.End()

	title = normalizeText(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if _, err := repo.GetClub(ctx, s.DB, clubID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	return repo.CreateSession(ctx, s.DB, clubID, title, startsAt, coachID)
}

// CheckIn records the athlete's attendance at a session.
func (s *TrainingService) CheckIn(ctx context.Context, athleteID, sessionID string) (*domain.Attendance, error) {
	tr := otel.Tracer("services/TrainingService")
	ctx, span := tr.Start(ctx, "CheckIn",
		trace.WithAttributes(
			attribute.String("user.id", athleteID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	if err := s.ensureSession(ctx, sessionID); err != nil {
		return nil, err
	}
	a, err := repo.CreateAttendance(ctx, s.DB, sessionID, athleteID)
	if errors.Is(err, repo.ErrDuplicate) {
		return nil, ErrAlreadyCheckedIn
	}
	return a, err
}

// RequestLeave files a leave request for a session.
func (s *TrainingService) RequestLeave(ctx context.Context, athleteID, sessionID, reason string) (*domain.LeaveRequest, error) {
	tr := otel.Tracer("services/TrainingService")
	ctx, span := tr.Start(ctx, "RequestLeave",
		trace.WithAttributes(
			attribute.String("user.id", athleteID),
			attribute.String("session.id", sessionID),
		),
	)
	defer span.End()

	reason = normalizeText(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if s.MaxReasonRunes > 0 && utf8.RuneCountInString(reason) > s.MaxReasonRunes {
		return nil, ErrReasonTooLong
	}
	if err := s.ensureSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return repo.CreateLeaveRequest(ctx, s.DB, sessionID, athleteID, reason)
}

func (s *TrainingService) ensureSession(ctx context.Context, id string) error {
	_, err := repo.GetSession(ctx, s.DB, id)
	if errors.Is(err, repo.ErrNotFound) {
		return ErrSessionNotFound
	}
	return err
}
