package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// CreateClub inserts a club with a fresh UUID.
func CreateClub(ctx context.Context, db *gorm.DB, name string) (*domain.Club, error) {
	c := &domain.Club{ID: uuid.NewString(), Name: name, CreatedAt: time.Now().UTC()}
	if err := db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// GetClub fetches a club by ID, or ErrNotFound.
func GetClub(ctx context.Context, db *gorm.DB, id string) (*domain.Club, error) {
	var c domain.Club
	if err := db.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// ErrMembershipChanged is returned when the athlete's membership status no
// longer allows the requested transition, e.g. they were suspended while an
// application was awaiting review.
var ErrMembershipChanged = errors.New("membership status changed")

// noStatus stands for a NULL membership status (never applied) in from lists.
const noStatus domain.MembershipStatus = ""

// moveMembershipStatus sets userID's status to to only while the stored status
// is one of from. Returns ErrMembershipChanged when no row matched.
func moveMembershipStatus(ctx context.Context, db *gorm.DB, userID string, to domain.MembershipStatus, from ...domain.MembershipStatus) error {
	q := db.WithContext(ctx).Model(&domain.Profile{}).Where("user_id = ?", userID)
	cond := "membership_status IN ?"
	for _, f := range from {
		if f == noStatus {
			cond = "(membership_status IS NULL OR membership_status IN ?)"
		}
	}
	res := q.Where(cond, from).
		Updates(map[string]any{"membership_status": to, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrMembershipChanged
	}
	return nil
}

// CreateApplication inserts a pending application for athleteID and moves the
// athlete's membership status to pending, in one transaction.
//
// Returns ErrDuplicate when an application is already awaiting review and
// ErrMembershipChanged when the athlete is active or suspended by the time
// the transaction runs. The partial unique index ux_app_athlete_pending backs
// the duplicate check under concurrent applies.
func CreateApplication(ctx context.Context, db *gorm.DB, athleteID, clubID, message string) (*domain.MembershipApplication, error) {
	now := time.Now().UTC()
	app := &domain.MembershipApplication{
		ID:        uuid.NewString(),
		AthleteID: athleteID,
		ClubID:    clubID,
		Status:    domain.ApplicationPending,
		Message:   message,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pending, err := HasPendingApplication(ctx, tx, athleteID)
		if err != nil {
			return err
		}
		if pending {
			return ErrDuplicate
		}
		err = moveMembershipStatus(ctx, tx, athleteID, domain.MembershipPending,
			noStatus, domain.MembershipRejected, domain.MembershipPending)
		if err != nil {
			return err
		}
		if err := tx.Create(app).Error; err != nil {
			if isUniqueViolation(err) {
				return ErrDuplicate
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return app, nil
}

// LatestApplication returns the athlete's most recent application with its
// club preloaded, or ErrNotFound if they never applied.
func LatestApplication(ctx context.Context, db *gorm.DB, athleteID string) (*domain.MembershipApplication, error) {
	var app domain.MembershipApplication
	err := db.WithContext(ctx).
		Preload("Club").
		Where("athlete_id = ?", athleteID).
		Order("created_at DESC").
		First(&app).Error
	if err != nil {
		return nil, err
	}
	return &app, nil
}

// HasPendingApplication reports whether the athlete already has an
// application awaiting review.
func HasPendingApplication(ctx context.Context, db *gorm.DB, athleteID string) (bool, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.MembershipApplication{}).
		Where("athlete_id = ? AND status = ?", athleteID, domain.ApplicationPending).
		Count(&n).Error
	return n > 0, err
}

// GetApplication fetches one application by ID, or ErrNotFound.
func GetApplication(ctx context.Context, db *gorm.DB, id string) (*domain.MembershipApplication, error) {
	var app domain.MembershipApplication
	if err := db.WithContext(ctx).Preload("Club").First(&app, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &app, nil
}

// CountApplications returns the number of applications in the given status;
// an empty status counts all of them.
func CountApplications(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus) (int64, error) {
	var n int64
	err := applicationsScope(db.WithContext(ctx), status).Count(&n).Error
	return n, err
}

// ListApplicationsPage returns applications oldest first so reviewers work
// the queue in arrival order.
func ListApplicationsPage(ctx context.Context, db *gorm.DB, status domain.ApplicationStatus, offset, limit int) ([]domain.MembershipApplication, error) {
	var out []domain.MembershipApplication
	err := applicationsScope(db.WithContext(ctx), status).
		Preload("Club").
		Order("created_at ASC").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func applicationsScope(db *gorm.DB, status domain.ApplicationStatus) *gorm.DB {
	q := db.Model(&domain.MembershipApplication{})
	if status != "" {
		q = q.Where("status = ?", status)
	}
	return q
}

// ReviewApplication records a decision on a pending application and applies
// the resulting membership status to the athlete's profile atomically.
// Returns ErrNotFound when the application does not exist or was already
// reviewed, and ErrMembershipChanged when the athlete's status is no longer
// pending; the application is then left untouched.
func ReviewApplication(ctx context.Context, db *gorm.DB, id, reviewerID string, decision domain.ApplicationStatus, reason string) (*domain.MembershipApplication, error) {
	var out *domain.MembershipApplication
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now().UTC()
		res := tx.Model(&domain.MembershipApplication{}).
			Where("id = ? AND status = ?", id, domain.ApplicationPending).
			Updates(map[string]any{
				"status":           decision,
				"rejection_reason": reason,
				"reviewed_by":      reviewerID,
				"reviewed_at":      now,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		app, err := GetApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		status := domain.MembershipRejected
		if decision == domain.ApplicationApproved {
			status = domain.MembershipActive
		}
		if err := moveMembershipStatus(ctx, tx, app.AthleteID, status, domain.MembershipPending); err != nil {
			return err
		}
		out = app
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SuspendMembership suspends userID and rejects any application still
// awaiting review so it cannot be approved later. Returns ErrNotFound if the
// user has no profile.
func SuspendMembership(ctx context.Context, db *gorm.DB, userID, reason string) error {
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := SetMembershipStatus(ctx, tx, userID, domain.StatusPtr(domain.MembershipSuspended)); err != nil {
			return err
		}
		now := time.Now().UTC()
		return tx.Model(&domain.MembershipApplication{}).
			Where("athlete_id = ? AND status = ?", userID, domain.ApplicationPending).
			Updates(map[string]any{
				"status":           domain.ApplicationRejected,
				"rejection_reason": reason,
				"reviewed_at":      now,
				"updated_at":       now,
			}).Error
	})
}
