package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

func seedSession(t *testing.T, svc *TrainingService) *domain.TrainingSession {
	t.Helper()
	club := seedClub(t, svc.DB, "Harbour Rowing")
	s, err := svc.CreateSession(context.Background(), "coach-1", club.ID, "  Erg   intervals ", time.Now().Add(time.Hour))
	require.NoError(t, err)
	return s
}

func TestTraining_CreateSession(t *testing.T) {
	svc := NewTrainingService(newTestDB(t))
	ctx := context.Background()

	s := seedSession(t, svc)
	assert.Equal(t, "Erg intervals", s.Title)

	_, err := svc.CreateSession(ctx, "coach-1", s.ClubID, "   ", time.Now())
	assert.ErrorIs(t, err, ErrEmptyTitle)

	_, err = svc.CreateSession(ctx, "coach-1", "nope", "Swim", time.Now())
	assert.ErrorIs(t, err, ErrClubNotFound)
}

func TestTraining_CheckIn(t *testing.T) {
	svc := NewTrainingService(newTestDB(t))
	ctx := context.Background()
	s := seedSession(t, svc)

	a, err := svc.CheckIn(ctx, "ath", s.ID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, a.SessionID)
	assert.Equal(t, "ath", a.AthleteID)

	_, err = svc.CheckIn(ctx, "ath", s.ID)
	assert.ErrorIs(t, err, ErrAlreadyCheckedIn)

	_, err = svc.CheckIn(ctx, "ath", "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestTraining_RequestLeave(t *testing.T) {
	svc := NewTrainingService(newTestDB(t))
	ctx := context.Background()
	s := seedSession(t, svc)

	lr, err := svc.RequestLeave(ctx, "ath", s.ID, " Sick \n ")
	require.NoError(t, err)
	assert.Equal(t, "Sick", lr.Reason)
	assert.Equal(t, "pending", lr.Status)

	_, err = svc.RequestLeave(ctx, "ath", s.ID, " \t ")
	assert.ErrorIs(t, err, ErrEmptyReason)

	_, err = svc.RequestLeave(ctx, "ath", "missing", "Sick")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	svc.MaxReasonRunes = 3
	_, err = svc.RequestLeave(ctx, "ath", s.ID, strings.Repeat("é", 4))
	assert.ErrorIs(t, err, ErrReasonTooLong)
}

func TestNormalizeText(t *testing.T) {
	// "e" + combining acute composes to a single rune under NFC.
	assert.Equal(t, "caf\u00e9 au lait", normalizeText("cafe\u0301   au\tlait "))
	assert.Equal(t, "", normalizeText(" \n "))
}
