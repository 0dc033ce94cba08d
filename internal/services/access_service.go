// Package services – AccessService
//
// AccessService resolves a user's role and, for athletes, their membership
// status into a domain.AccessDecision. It is consulted on every request; the
// decision is never cached in the token, so an approval or suspension takes
// effect on the next request.
//
// The gate fails closed: any lookup error, unknown role or unrecognised
// status yields a deny decision.

package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// AccessService evaluates access decisions against the role store.
type AccessService struct {
	DB *gorm.DB
}

// NewAccessService constructs an AccessService.
func NewAccessService(db *gorm.DB) *AccessService { return &AccessService{DB: db} }

// ResolveRole loads and parses the user's role. A missing profile maps to
// ErrUserNotFound and a stored value outside the enumeration to
// ErrInvalidRole; any other error is a lookup failure.
func (s *AccessService) ResolveRole(ctx context.Context, userID string) (domain.Role, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load profile: %w", err)
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRole, p.Role)
	}
	return role, nil
}

// GetAthleteAccessStatus evaluates the user's access.
//
// Non-athletes always have access, whatever their status column holds.
// Athletes have access only when their membership is active. The returned
// error is informational (for logging): the decision is always safe to act
// on, and is a deny whenever err is non-nil.
func (s *AccessService) GetAthleteAccessStatus(ctx context.Context, userID string) (domain.AccessDecision, error) {
	tr := otel.Tracer("services/AccessService")
	ctx, span := tr.Start(ctx, "GetAthleteAccessStatus",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	d, err := s.evaluate(ctx, userID)
	span.SetAttributes(
		attribute.String("access.reason", string(d.Reason)),
		attribute.Bool("access.granted", d.HasAccess),
	)
	return d, err
}

func (s *AccessService) evaluate(ctx context.Context, userID string) (domain.AccessDecision, error) {
	p, err := repo.GetProfile(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			err = ErrUserNotFound
		}
		return domain.Denied(domain.ReasonLookupFailed, "Unable to verify your access right now. Please try again."), err
	}
	role, err := domain.ParseRole(p.Role)
	if err != nil {
		return domain.Denied(domain.ReasonLookupFailed, "Unable to verify your access right now. Please try again."),
			fmt.Errorf("%w: %q", ErrInvalidRole, p.Role)
	}

	if role != domain.RoleAthlete {
		return domain.AccessDecision{
			HasAccess:        true,
			Role:             role,
			MembershipStatus: p.MembershipStatus,
			Reason:           domain.ReasonNotAthlete,
			Message:          "Access granted.",
		}, nil
	}

	d := domain.AccessDecision{
		Role:             role,
		MembershipStatus: p.MembershipStatus,
		RedirectPath:     domain.PendingApprovalPath,
	}
	if p.MembershipStatus == nil {
		d.Reason = domain.ReasonMustApply
		d.Message = "You need to apply for a club membership before using the athlete portal."
		d.RedirectPath = domain.ApplyPath
		return d, nil
	}

	switch *p.MembershipStatus {
	case domain.MembershipActive:
		d.HasAccess = true
		d.Reason = domain.ReasonActive
		d.Message = "Access granted."
		d.RedirectPath = ""
	case domain.MembershipPending:
		d.Reason = domain.ReasonAwaitingReview
		d.Message = "Your membership application is awaiting review by a coach."
		d.ClubName = s.latestClubName(ctx, userID, domain.ApplicationPending)
	case domain.MembershipRejected:
		d.Reason = domain.ReasonRejected
		d.Message = "Your membership application was rejected."
		if app, err := repo.LatestApplication(ctx, s.DB, userID); err == nil && app.Status == domain.ApplicationRejected {
			d.ClubName = app.Club.Name
			d.RejectionReason = app.RejectionReason
		}
	case domain.MembershipSuspended:
		d.Reason = domain.ReasonSuspended
		d.Message = "Your membership is suspended. Contact your club administrator."
	default:
		return domain.Denied(domain.ReasonLookupFailed, "Unable to verify your access right now. Please try again."),
			fmt.Errorf("unknown membership status %q", *p.MembershipStatus)
	}
	return d, nil
}

// latestClubName is best effort: a missing or mismatched application leaves
// the club name empty without affecting the decision.
func (s *AccessService) latestClubName(ctx context.Context, userID string, want domain.ApplicationStatus) string {
	app, err := repo.LatestApplication(ctx, s.DB, userID)
	if err != nil || app.Status != want {
		return ""
	}
	return app.Club.Name
}

// CheckAthleteAccess is the boolean form of GetAthleteAccessStatus.
func (s *AccessService) CheckAthleteAccess(ctx context.Context, userID string) bool {
	d, _ := s.GetAthleteAccessStatus(ctx, userID)
	return d.HasAccess
}
