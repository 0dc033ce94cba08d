package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"
	"github.com/tbourn/club-portal-backend/internal/services"
)

type countingPurger struct {
	calls atomic.Int32
	err   error
}

func (p *countingPurger) PurgeExpired(ctx context.Context) (int64, error) {
	p.calls.Add(1)
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("purge ran without a deadline")
	}
	return 3, p.err
}

func TestNew_RegistersJob(t *testing.T) {
	s, err := New(&countingPurger{}, "@every 1h")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Jobs())

	s, err = New(&countingPurger{}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, s.Jobs())
}

func TestNew_InvalidSpec(t *testing.T) {
	_, err := New(&countingPurger{}, "every now and then")
	assert.Error(t, err)
}

func TestPurgeIdempotency_CallsPurger(t *testing.T) {
	p := &countingPurger{}
	s, err := New(p, "")
	require.NoError(t, err)

	s.PurgeIdempotency(context.Background())
	p.err = errors.New("db down")
	s.PurgeIdempotency(context.Background())

	assert.Equal(t, int32(2), p.calls.Load())
}

func TestStartStop_RunsOnSchedule(t *testing.T) {
	p := &countingPurger{}
	s, err := New(p, "@every 1s")
	require.NoError(t, err)

	s.Start()
	require.Eventually(t, func() bool { return p.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}

func TestPurgeIdempotency_DeletesExpiredRecords(t *testing.T) {
	db, err := repo.OpenSQLite("file:scheduler_purge?mode=memory&cache=shared")
	require.NoError(t, err)
	require.NoError(t, repo.AutoMigrate(db))

	idem := services.NewIdempotencyService(db, time.Millisecond, time.Millisecond)
	ctx := context.Background()
	_, err = idem.Execute(ctx, "purge-key-0001", "u1", "POST /api/athlete/check-in", "rid-1",
		func(context.Context) (any, error) { return map[string]string{"ok": "yes"}, nil })
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	s, err := New(idem, "")
	require.NoError(t, err)
	s.PurgeIdempotency(ctx)

	var n int64
	require.NoError(t, db.Model(&domain.IdempotencyRecord{}).Count(&n).Error)
	assert.Zero(t, n)
}
