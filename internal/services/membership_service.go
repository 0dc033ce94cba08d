// Package services – MembershipService
//
// MembershipService owns the athlete membership workflow: applying to a club,
// coach review (approve/reject) and the admin operations that change a
// user's role or suspend an athlete. Every transition writes the athlete's
// membership status in the role store, which the access gate reads on the
// next request.

package services

import (
	"context"
	"errors"
	"time"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"
	"github.com/tbourn/club-portal-backend/internal/utils"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// MembershipService coordinates membership applications and reviews.
type MembershipService struct {
	DB *gorm.DB

	// MaxTextRunes caps application messages and rejection reasons; 0 disables.
	MaxTextRunes int
}

// suspendedReason is the rejection reason recorded on a pending application
// when its athlete is suspended.
const suspendedReason = "membership suspended"

// NewMembershipService constructs a MembershipService.
func NewMembershipService(db *gorm.DB) *MembershipService {
	return &MembershipService{DB: db, MaxTextRunes: 2000}
}

// Apply files a membership application for an athlete.
func (s *MembershipService) Apply(ctx context.Context, athleteID, clubID, message string) (*domain.MembershipApplication, error) {
	tr := otel.Tracer("services/MembershipService")
	ctx, span := tr.Start(ctx, "Apply",
		trace.WithAttributes(
			attribute.String("user.id", athleteID),
			attribute.String("club.id", clubID),
		),
	)
	defer span.End()

	message = normalizeText(message)
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(message) > s.MaxTextRunes {
		return nil, ErrReasonTooLong
	}

	p, err := repo.GetProfile(ctx, s.DB, athleteID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if role, _ := domain.ParseRole(p.Role); role != domain.RoleAthlete {
		return nil, ErrNotAthlete
	}
	if p.MembershipStatus != nil && *p.MembershipStatus == domain.MembershipActive {
		return nil, ErrAlreadyMember
	}
	// Suspension is lifted by an admin, not by re-applying.
	if p.MembershipStatus != nil && *p.MembershipStatus == domain.MembershipSuspended {
		return nil, ErrAlreadyMember
	}

	if _, err := repo.GetClub(ctx, s.DB, clubID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrClubNotFound
		}
		return nil, err
	}
	app, err := repo.CreateApplication(ctx, s.DB, athleteID, clubID, message)
	switch {
	case errors.Is(err, repo.ErrDuplicate):
		return nil, ErrApplicationPending
	case errors.Is(err, repo.ErrMembershipChanged):
		return nil, ErrMembershipChanged
	}
	return app, err
}

// ListPage returns applications in status (all when empty), 1-based paging.
func (s *MembershipService) ListPage(ctx context.Context, status domain.ApplicationStatus, page, pageSize int) ([]domain.MembershipApplication, int64, error) {
	tr := otel.Tracer("services/MembershipService")
	ctx, span := tr.Start(ctx, "ListPage",
		trace.WithAttributes(
			attribute.String("application.status", string(status)),
			attribute.Int("page", page),
			attribute.Int("page_size", pageSize),
		),
	)
	defer span.End()

	total, err := repo.CountApplications(ctx, s.DB, status)
	if err != nil {
		return nil, 0, err
	}
	offset := utils.Offset(page, pageSize)
	items, err := repo.ListApplicationsPage(ctx, s.DB, status, offset, pageSize)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Stats returns the count and latest update time used for ETags.
func (s *MembershipService) Stats(ctx context.Context, status domain.ApplicationStatus) (int64, *time.Time, error) {
	return repo.ApplicationsStats(ctx, s.DB, status)
}

// Approve accepts a pending application and activates the athlete.
func (s *MembershipService) Approve(ctx context.Context, applicationID, reviewerID string) (*domain.MembershipApplication, error) {
	return s.review(ctx, "Approve", applicationID, reviewerID, domain.ApplicationApproved, "")
}

// Reject declines a pending application with an optional reason shown to the
// athlete.
func (s *MembershipService) Reject(ctx context.Context, applicationID, reviewerID, reason string) (*domain.MembershipApplication, error) {
	reason = normalizeText(reason)
	if s.MaxTextRunes > 0 && utf8.RuneCountInString(reason) > s.MaxTextRunes {
		return nil, ErrReasonTooLong
	}
	return s.review(ctx, "Reject", applicationID, reviewerID, domain.ApplicationRejected, reason)
}

func (s *MembershipService) review(ctx context.Context, op, applicationID, reviewerID string, decision domain.ApplicationStatus, reason string) (*domain.MembershipApplication, error) {
	tr := otel.Tracer("services/MembershipService")
	ctx, span := tr.Start(ctx, op,
		trace.WithAttributes(
			attribute.String("application.id", applicationID),
			attribute.String("reviewer.id", reviewerID),
		),
	)
	defer span.End()

	app, err := repo.ReviewApplication(ctx, s.DB, applicationID, reviewerID, decision, reason)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrApplicationNotFound
	case errors.Is(err, repo.ErrMembershipChanged):
		return nil, ErrMembershipChanged
	}
	return app, err
}

// SetRole assigns role to userID, creating the profile when the user has
// none yet. The membership status is kept so an athlete demoted and later
// restored keeps their standing.
func (s *MembershipService) SetRole(ctx context.Context, userID, role string) (*domain.Profile, error) {
	r, err := domain.ParseRole(role)
	if err != nil {
		return nil, ErrInvalidRole
	}
	err = repo.SetProfileRole(ctx, s.DB, userID, r)
	if errors.Is(err, repo.ErrNotFound) {
		err = repo.UpsertProfile(ctx, s.DB, &domain.Profile{UserID: userID, Role: string(r)})
	}
	if err != nil {
		return nil, err
	}
	return repo.GetProfile(ctx, s.DB, userID)
}

// Suspend moves an athlete's membership to suspended. An application still
// awaiting review is rejected in the same transaction.
func (s *MembershipService) Suspend(ctx context.Context, userID string) (*domain.Profile, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if role, _ := domain.ParseRole(p.Role); role != domain.RoleAthlete {
		return nil, ErrNotAthlete
	}
	st := domain.MembershipSuspended
	if err := repo.SuspendMembership(ctx, s.DB, userID, suspendedReason); err != nil {
		return nil, err
	}
	p.MembershipStatus = &st
	return p, nil
}
