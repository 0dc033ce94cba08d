package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"
)

func TestAccess_NonAthletesAlwaysPass(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	ctx := context.Background()

	statuses := []*domain.MembershipStatus{
		nil,
		domain.StatusPtr(domain.MembershipPending),
		domain.StatusPtr(domain.MembershipSuspended),
		domain.StatusPtr("garbage"),
	}
	for _, role := range []domain.Role{domain.RoleAdmin, domain.RoleCoach, domain.RoleParent} {
		for i, st := range statuses {
			uid := string(role) + "-" + string(rune('a'+i))
			seedUser(t, db, uid, string(role), st)

			d, err := svc.GetAthleteAccessStatus(ctx, uid)
			require.NoError(t, err)
			assert.True(t, d.HasAccess, "%s with status %v", role, st)
			assert.Equal(t, domain.ReasonNotAthlete, d.Reason)
			assert.Equal(t, role, d.Role)
			assert.True(t, svc.CheckAthleteAccess(ctx, uid))
		}
	}
}

func TestAccess_AthleteStatusMapping(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	ctx := context.Background()

	cases := []struct {
		status   *domain.MembershipStatus
		access   bool
		reason   domain.AccessReason
		redirect string
	}{
		{domain.StatusPtr(domain.MembershipActive), true, domain.ReasonActive, ""},
		{domain.StatusPtr(domain.MembershipPending), false, domain.ReasonAwaitingReview, domain.PendingApprovalPath},
		{domain.StatusPtr(domain.MembershipRejected), false, domain.ReasonRejected, domain.PendingApprovalPath},
		{domain.StatusPtr(domain.MembershipSuspended), false, domain.ReasonSuspended, domain.PendingApprovalPath},
		{nil, false, domain.ReasonMustApply, domain.ApplyPath},
	}
	for i, tc := range cases {
		uid := "ath-" + string(rune('a'+i))
		seedUser(t, db, uid, "athlete", tc.status)

		d, err := svc.GetAthleteAccessStatus(ctx, uid)
		require.NoError(t, err)
		assert.Equal(t, tc.access, d.HasAccess, uid)
		assert.Equal(t, tc.reason, d.Reason, uid)
		assert.Equal(t, tc.redirect, d.RedirectPath, uid)
		assert.Equal(t, tc.status, d.MembershipStatus, uid)
		assert.NotEmpty(t, d.Message)
	}
}

func TestAccess_PendingAndRejectedCarryClubDetails(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	ctx := context.Background()
	club := seedClub(t, db, "Harbour Rowing")

	seedUser(t, db, "p1", "athlete", nil)
	_, err := repo.CreateApplication(ctx, db, "p1", club.ID, "")
	require.NoError(t, err)
	d, err := svc.GetAthleteAccessStatus(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonAwaitingReview, d.Reason)
	assert.Equal(t, "Harbour Rowing", d.ClubName)

	seedUser(t, db, "r1", "athlete", nil)
	app, err := repo.CreateApplication(ctx, db, "r1", club.ID, "")
	require.NoError(t, err)
	_, err = repo.ReviewApplication(ctx, db, app.ID, "coach", domain.ApplicationRejected, "Team full")
	require.NoError(t, err)
	d, err = svc.GetAthleteAccessStatus(ctx, "r1")
	require.NoError(t, err)
	assert.False(t, d.HasAccess)
	assert.Equal(t, domain.ReasonRejected, d.Reason)
	assert.Equal(t, "Team full", d.RejectionReason)
	assert.Equal(t, "Harbour Rowing", d.ClubName)
}

func TestAccess_FailsClosed(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	ctx := context.Background()

	// Unknown user.
	d, err := svc.GetAthleteAccessStatus(ctx, "ghost")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.False(t, d.HasAccess)
	assert.Equal(t, domain.ReasonLookupFailed, d.Reason)

	// Corrupt role.
	seedUser(t, db, "weird", "superuser", nil)
	d, err = svc.GetAthleteAccessStatus(ctx, "weird")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.False(t, d.HasAccess)

	// Athlete with an unrecognised status.
	seedUser(t, db, "odd", "athlete", domain.StatusPtr("archived"))
	d, err = svc.GetAthleteAccessStatus(ctx, "odd")
	assert.Error(t, err)
	assert.False(t, d.HasAccess)
	assert.Equal(t, domain.ReasonLookupFailed, d.Reason)

	// Store unavailable.
	require.NoError(t, db.Migrator().DropTable(&domain.Profile{}))
	d, err = svc.GetAthleteAccessStatus(ctx, "odd")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrUserNotFound)
	assert.False(t, d.HasAccess)
	assert.False(t, svc.CheckAthleteAccess(ctx, "odd"))
}

func TestAccess_ResolveRole(t *testing.T) {
	db := newTestDB(t)
	svc := NewAccessService(db)
	ctx := context.Background()

	seedUser(t, db, "c1", "Coach", nil)
	r, err := svc.ResolveRole(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCoach, r)

	_, err = svc.ResolveRole(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	seedUser(t, db, "x", "root", nil)
	_, err = svc.ResolveRole(ctx, "x")
	assert.ErrorIs(t, err, ErrInvalidRole)
}
