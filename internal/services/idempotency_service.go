// Package services – IdempotencyService
//
// This file implements the idempotency gate: at-most-once execution of a
// mutating operation per (user, endpoint, key) with deterministic replay of
// the stored result.
//
// The claim is an insert against the unique index, so two concurrent
// submissions of the same key can never both run the operation. Everything
// after the claim is a conditional update on that row.

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/repo"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultIdempotencyTTL  = 24 * time.Hour
	defaultIdempotencyLock = 30 * time.Second
)

// Operation is the guarded business call. Its result must be JSON
// serializable; it is stored verbatim for replay.
type Operation func(ctx context.Context) (any, error)

// Outcome is what Execute hands back to the HTTP layer.
type Outcome struct {
	// Data is the JSON result, freshly produced or replayed.
	Data json.RawMessage

	// Cached is true when Data was replayed from an earlier request.
	Cached bool

	// OriginalRequestID and OriginalTimestamp identify the first request;
	// both are zero unless Cached.
	OriginalRequestID string
	OriginalTimestamp time.Time
}

// IdempotencyService guards operations with idempotency records.
type IdempotencyService struct {
	DB *gorm.DB

	// TTL is how long a record (and so its replay) is retained.
	TTL time.Duration
	// LockTimeout is the lease of an in-progress record. A lapsed lease means
	// the owner died and the key may be reclaimed.
	LockTimeout time.Duration

	// Now is overridable in tests.
	Now func() time.Time
}

// NewIdempotencyService builds a service with defaults for zero durations.
func NewIdempotencyService(db *gorm.DB, ttl, lock time.Duration) *IdempotencyService {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	if lock <= 0 {
		lock = defaultIdempotencyLock
	}
	return &IdempotencyService{DB: db, TTL: ttl, LockTimeout: lock}
}

func (s *IdempotencyService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Execute runs op at most once for (userID, endpoint, key).
//
// An empty key executes op without protection. On a replay op is not invoked
// and the stored result is returned with Cached set. ErrRequestInProgress
// reports a concurrent holder of the key. Store errors during the claim are
// returned as-is: the request fails rather than risking a double execution.
//
// requestID identifies this attempt and fences every write after the claim,
// so it must be unique per request. Callers pass the server-generated id from
// the RequestID middleware; a missing or oversized one is replaced.
func (s *IdempotencyService) Execute(ctx context.Context, key, userID, endpoint, requestID string, op Operation) (*Outcome, error) {
	tr := otel.Tracer("services/IdempotencyService")
	ctx, span := tr.Start(ctx, "Execute",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("idempotency.endpoint", endpoint),
			attribute.Bool("idempotency.keyed", key != ""),
		),
	)
	defer span.End()

	if key == "" {
		res, err := op(ctx)
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(res)
		if err != nil {
			return nil, fmt.Errorf("encode result: %w", err)
		}
		return &Outcome{Data: data}, nil
	}

	if requestID == "" || requestID == key || len(requestID) > domain.MaxRequestIDLength {
		requestID = uuid.NewString()
	}

	now := s.now()
	lock := now.Add(s.LockTimeout)
	rec := &domain.IdempotencyRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Endpoint:    endpoint,
		Key:         key,
		Status:      domain.IdempotencyInProgress,
		RequestID:   requestID,
		LockedUntil: &lock,
		CreatedAt:   now,
		ExpiresAt:   now.Add(s.TTL),
	}

	// Two rounds: the second only happens after an expired record was removed
	// (or vanished) between our insert and our read.
	for attempt := 0; attempt < 2; attempt++ {
		err := repo.InsertIdempotency(ctx, s.DB, rec)
		if err == nil {
			span.SetAttributes(attribute.String("idempotency.outcome", "claimed"))
			return s.run(ctx, rec, op)
		}
		if !errors.Is(err, repo.ErrDuplicate) {
			return nil, fmt.Errorf("claim idempotency key: %w", err)
		}

		existing, err := repo.GetIdempotency(ctx, s.DB, userID, endpoint, key)
		if errors.Is(err, repo.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("lookup idempotency key: %w", err)
		}

		switch {
		case existing.Expired(now):
			if _, err := repo.DeleteExpiredIdempotency(ctx, s.DB, existing.ID, now); err != nil {
				return nil, fmt.Errorf("drop expired idempotency record: %w", err)
			}
			continue

		case existing.Status == domain.IdempotencyCompleted:
			span.SetAttributes(attribute.String("idempotency.outcome", "replayed"))
			return &Outcome{
				Data:              json.RawMessage(existing.Result),
				Cached:            true,
				OriginalRequestID: existing.RequestID,
				OriginalTimestamp: existing.CreatedAt,
			}, nil

		case existing.Reclaimable(now):
			won, err := repo.ReclaimIdempotency(ctx, s.DB, existing.ID, requestID, lock, now)
			if err != nil {
				return nil, fmt.Errorf("reclaim idempotency record: %w", err)
			}
			if !won {
				return nil, ErrRequestInProgress
			}
			existing.Status = domain.IdempotencyInProgress
			existing.RequestID = requestID
			existing.LockedUntil = &lock
			span.SetAttributes(attribute.String("idempotency.outcome", "reclaimed"))
			return s.run(ctx, existing, op)

		default:
			return nil, ErrRequestInProgress
		}
	}
	return nil, ErrRequestInProgress
}

// HasCompleted reports whether a live completed result exists for the
// triple. It is advisory (used to let replays skip rate limiting); Execute
// remains the authority.
func (s *IdempotencyService) HasCompleted(ctx context.Context, userID, endpoint, key string) (bool, error) {
	rec, err := repo.GetIdempotency(ctx, s.DB, userID, endpoint, key)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return rec.Status == domain.IdempotencyCompleted && !rec.Expired(s.now()), nil
}

// PurgeExpired deletes records past their retention window.
func (s *IdempotencyService) PurgeExpired(ctx context.Context) (int64, error) {
	return repo.PurgeExpiredIdempotency(ctx, s.DB, s.now())
}

// run executes op for a claimed record and settles the record afterwards.
// Cleanup uses a context detached from cancellation so a client disconnect
// cannot strand the record in progress. Every settle write is fenced on
// rec.RequestID: once the lease lapsed and another request reclaimed the key,
// this attempt can neither release nor overwrite that request's claim.
func (s *IdempotencyService) run(ctx context.Context, rec *domain.IdempotencyRecord, op Operation) (*Outcome, error) {
	res, opErr := op(ctx)
	settle := context.WithoutCancel(ctx)
	lg := log.Ctx(ctx).With().
		Str("idempotency_id", rec.ID).
		Str("endpoint", rec.Endpoint).
		Str("request_id", rec.RequestID).
		Logger()

	if opErr != nil {
		s.release(settle, rec, &lg)
		return nil, opErr
	}

	data, err := json.Marshal(res)
	if err != nil {
		s.release(settle, rec, &lg)
		return nil, fmt.Errorf("encode result: %w", err)
	}

	// The side effect already happened; a failure to record it must not turn
	// a success into an error for the caller.
	switch err := repo.CompleteIdempotency(settle, s.DB, rec.ID, rec.RequestID, data, s.now()); {
	case errors.Is(err, repo.ErrClaimLost):
		lg.Warn().Msg("idempotency claim lost before completion; result not stored")
	case err != nil:
		lg.Error().Err(err).Msg("persist idempotent result failed")
	}
	return &Outcome{Data: data}, nil
}

// release frees the key after a failed operation. Deleting is preferred; if
// that errors the record is marked failed so the next attempt can reclaim it.
// A lost claim is left alone.
func (s *IdempotencyService) release(ctx context.Context, rec *domain.IdempotencyRecord, lg *zerolog.Logger) {
	err := repo.ReleaseIdempotency(ctx, s.DB, rec.ID, rec.RequestID)
	if err == nil {
		return
	}
	if errors.Is(err, repo.ErrClaimLost) {
		lg.Warn().Msg("idempotency claim lost before release; leaving record to its owner")
		return
	}
	lg.Warn().Err(err).Msg("release idempotency key failed; marking failed")
	switch err := repo.MarkIdempotencyFailed(ctx, s.DB, rec.ID, rec.RequestID, s.now()); {
	case errors.Is(err, repo.ErrClaimLost):
		lg.Warn().Msg("idempotency claim lost before release; leaving record to its owner")
	case err != nil:
		lg.Error().Err(err).Msg("mark idempotency record failed")
	}
}
