package services

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"
)

func TestMembership_ApplyValidations(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")

	seedUser(t, db, "coach", "coach", nil)
	_, err := svc.Apply(ctx, "coach", club.ID, "")
	assert.ErrorIs(t, err, ErrNotAthlete)

	_, err = svc.Apply(ctx, "ghost", club.ID, "")
	assert.ErrorIs(t, err, ErrUserNotFound)

	seedUser(t, db, "member", "athlete", domain.StatusPtr(domain.MembershipActive))
	_, err = svc.Apply(ctx, "member", club.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyMember)

	seedUser(t, db, "new", "athlete", nil)
	_, err = svc.Apply(ctx, "new", "no-such-club", "")
	assert.ErrorIs(t, err, ErrClubNotFound)

	app, err := svc.Apply(ctx, "new", club.ID, "  I train   twice a week ")
	require.NoError(t, err)
	assert.Equal(t, "I train twice a week", app.Message)
	assert.Equal(t, domain.ApplicationPending, app.Status)

	_, err = svc.Apply(ctx, "new", club.ID, "")
	assert.ErrorIs(t, err, ErrApplicationPending)

	svc.MaxTextRunes = 5
	seedUser(t, db, "verbose", "athlete", nil)
	_, err = svc.Apply(ctx, "verbose", club.ID, strings.Repeat("x", 6))
	assert.ErrorIs(t, err, ErrReasonTooLong)
}

func TestMembership_ReviewGrantsAndRevokesAccess(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	access := NewAccessService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")

	seedUser(t, db, "a1", "athlete", nil)
	assert.False(t, access.CheckAthleteAccess(ctx, "a1"))

	app, err := svc.Apply(ctx, "a1", club.ID, "")
	require.NoError(t, err)
	assert.False(t, access.CheckAthleteAccess(ctx, "a1"))

	approved, err := svc.Approve(ctx, app.ID, "coach-1")
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationApproved, approved.Status)
	assert.True(t, access.CheckAthleteAccess(ctx, "a1"), "approval takes effect on the next evaluation")

	_, err = svc.Approve(ctx, app.ID, "coach-1")
	assert.ErrorIs(t, err, ErrApplicationNotFound)

	p, err := svc.Suspend(ctx, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipSuspended, *p.MembershipStatus)
	assert.False(t, access.CheckAthleteAccess(ctx, "a1"))

	seedUser(t, db, "a2", "athlete", nil)
	app2, err := svc.Apply(ctx, "a2", club.ID, "")
	require.NoError(t, err)
	rejected, err := svc.Reject(ctx, app2.ID, "coach-1", " Team\tfull ")
	require.NoError(t, err)
	assert.Equal(t, "Team full", rejected.RejectionReason)

	d, err := access.GetAthleteAccessStatus(ctx, "a2")
	require.NoError(t, err)
	assert.Equal(t, domain.ReasonRejected, d.Reason)
}

func TestMembership_SuspendedAthleteStaysLockedOut(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	access := NewAccessService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")

	seedUser(t, db, "a1", "athlete", nil)
	app, err := svc.Apply(ctx, "a1", club.ID, "")
	require.NoError(t, err)

	_, err = svc.Suspend(ctx, "a1")
	require.NoError(t, err)

	// The pending application was closed by the suspension.
	_, err = svc.Approve(ctx, app.ID, "coach-1")
	assert.ErrorIs(t, err, ErrApplicationNotFound)
	got, err := repo.GetApplication(ctx, db, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationRejected, got.Status)
	assert.Equal(t, suspendedReason, got.RejectionReason)

	d, err := access.GetAthleteAccessStatus(ctx, "a1")
	require.NoError(t, err)
	assert.False(t, d.HasAccess)
	assert.Equal(t, domain.ReasonSuspended, d.Reason)
}

func TestMembership_ReviewRefusedWhenStatusMovedOffPending(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	access := NewAccessService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")

	seedUser(t, db, "a1", "athlete", nil)
	app, err := svc.Apply(ctx, "a1", club.ID, "")
	require.NoError(t, err)

	// A suspension written without closing the application, as when it
	// commits between the reviewer loading the queue and approving.
	require.NoError(t, repo.SetMembershipStatus(ctx, db, "a1", domain.StatusPtr(domain.MembershipSuspended)))

	_, err = svc.Approve(ctx, app.ID, "coach-1")
	assert.ErrorIs(t, err, ErrMembershipChanged)
	_, err = svc.Reject(ctx, app.ID, "coach-1", "no")
	assert.ErrorIs(t, err, ErrMembershipChanged)

	got, err := repo.GetApplication(ctx, db, app.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApplicationPending, got.Status, "review rolled back")
	assert.Nil(t, got.ReviewedBy)
	assert.False(t, access.CheckAthleteAccess(ctx, "a1"))

	p, err := repo.GetProfile(ctx, db, "a1")
	require.NoError(t, err)
	assert.Equal(t, domain.MembershipSuspended, *p.MembershipStatus)
}

func TestMembership_ConcurrentAppliesFileOneApplication(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")
	seedUser(t, db, "a1", "athlete", nil)

	const n = 8
	var (
		wg   sync.WaitGroup
		errs = make([]error, n)
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Apply(ctx, "a1", club.ID, "")
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, ErrApplicationPending)
	}
	assert.Equal(t, 1, ok)

	count, err := repo.CountApplications(ctx, db, domain.ApplicationPending)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestMembership_ListPageAndStats(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	ctx := context.Background()
	club := seedClub(t, db, "City Judo")

	for _, id := range []string{"a", "b", "c"} {
		seedUser(t, db, id, "athlete", nil)
		_, err := svc.Apply(ctx, id, club.ID, "")
		require.NoError(t, err)
	}

	items, total, err := svc.ListPage(ctx, domain.ApplicationPending, 1, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, items, 2)

	items, _, err = svc.ListPage(ctx, domain.ApplicationPending, 2, 2)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	n, at, err := svc.Stats(ctx, domain.ApplicationPending)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NotNil(t, at)
}

func TestMembership_SetRoleAndSuspend(t *testing.T) {
	db := newTestDB(t)
	svc := NewMembershipService(db)
	ctx := context.Background()

	_, err := svc.SetRole(ctx, "u1", "wizard")
	assert.ErrorIs(t, err, ErrInvalidRole)

	p, err := svc.SetRole(ctx, "u1", "coach")
	require.NoError(t, err)
	assert.Equal(t, "coach", p.Role)

	p, err = svc.SetRole(ctx, "u1", "ATHLETE")
	require.NoError(t, err)
	assert.Equal(t, "athlete", p.Role)

	_, err = svc.Suspend(ctx, "nobody")
	assert.ErrorIs(t, err, ErrUserNotFound)

	seedUser(t, db, "parent", "parent", nil)
	_, err = svc.Suspend(ctx, "parent")
	assert.ErrorIs(t, err, ErrNotAthlete)

	got, err := repo.GetProfile(ctx, db, "parent")
	require.NoError(t, err)
	assert.Nil(t, got.MembershipStatus)
}
