// Package handlers exposes the club portal's REST endpoints.
//
// Handlers are transport-thin: they bind and validate input, delegate to
// application services, and translate results and service errors into the
// envelopes defined in response.go. Mutating endpoints run their business
// call through the idempotency gate.
package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/http/middleware"
	"github.com/tbourn/club-portal-backend/internal/services"
	"github.com/tbourn/club-portal-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// AccessService answers athlete access questions.
type AccessService interface {
	GetAthleteAccessStatus(ctx context.Context, userID string) (domain.AccessDecision, error)
}

// MembershipService covers applications, reviews and user administration.
type MembershipService interface {
	Apply(ctx context.Context, athleteID, clubID, message string) (*domain.MembershipApplication, error)
	ListPage(ctx context.Context, status domain.ApplicationStatus, page, pageSize int) ([]domain.MembershipApplication, int64, error)
	// Stats returns the count and newest update time of applications in
	// status; used for weak ETags.
	Stats(ctx context.Context, status domain.ApplicationStatus) (int64, *time.Time, error)
	Approve(ctx context.Context, applicationID, reviewerID string) (*domain.MembershipApplication, error)
	Reject(ctx context.Context, applicationID, reviewerID, reason string) (*domain.MembershipApplication, error)
	SetRole(ctx context.Context, userID, role string) (*domain.Profile, error)
	Suspend(ctx context.Context, userID string) (*domain.Profile, error)
}

// TrainingService covers sessions, check-ins and leave requests.
type TrainingService interface {
	CreateSession(ctx context.Context, coachID, clubID, title string, startsAt time.Time) (*domain.TrainingSession, error)
	CheckIn(ctx context.Context, athleteID, sessionID string) (*domain.Attendance, error)
	RequestLeave(ctx context.Context, athleteID, sessionID, reason string) (*domain.LeaveRequest, error)
}

// IdempotencyGate runs an operation at most once per (user, endpoint, key).
type IdempotencyGate interface {
	Execute(ctx context.Context, key, userID, endpoint, requestID string, op services.Operation) (*services.Outcome, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints. It depends on service interfaces only.
type Handlers struct {
	access     AccessService
	membership MembershipService
	training   TrainingService
	idem       IdempotencyGate
}

var registerOnce sync.Once

// New constructs Handlers bound to the given services and installs the custom
// binding rules used by the request DTOs.
func New(access AccessService, membership MembershipService, training TrainingService, idem IdempotencyGate) *Handlers {
	registerOnce.Do(registerValidators)
	return &Handlers{access: access, membership: membership, training: training, idem: idem}
}

// registerValidators adds `notblank` (rejects whitespace-only strings) to
// gin's validator.
func registerValidators() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("notblank", validators.NotBlank)
	}
}

// userID returns the authenticated user set by middleware.Authenticate.
func userID(c *gin.Context) string {
	uid, _ := middleware.UserIDFrom(c)
	return uid
}

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	totalPages := int((total + int64(pageSize) - 1) / int64(pageSize))
	return Pagination{
		Page:       page,
		PageSize:   pageSize,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
	}
}

// clampPagination parses and bounds page and page_size query params.
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.ClampInt(utils.AtoiDefault(c.Query("page"), defaultPage), 1, 0)
	pageSize = utils.ClampInt(utils.AtoiDefault(c.Query("page_size"), defaultPageSize), 1, maxPageSize)
	return
}

// runIdempotent executes op through the idempotency gate using the request's
// Idempotency-Key (if any) and writes the envelope with status on success.
func (h *Handlers) runIdempotent(c *gin.Context, status int, op services.Operation) {
	key, keyed := middleware.GetIdempotencyKey(c)
	out, err := h.idem.Execute(
		c.Request.Context(),
		key,
		userID(c),
		middleware.EndpointOf(c),
		middleware.RequestIDFrom(c),
		op,
	)
	if err != nil {
		outcome := middleware.IdemOutcomeFailed
		if errors.Is(err, services.ErrRequestInProgress) {
			outcome = middleware.IdemOutcomeInProgress
		}
		middleware.ObserveIdempotency(c, outcome)
		failService(c, err)
		return
	}

	switch {
	case !keyed:
		middleware.ObserveIdempotency(c, middleware.IdemOutcomeUnkeyed)
	case out.Cached:
		middleware.ObserveIdempotency(c, middleware.IdemOutcomeReplayed)
	default:
		middleware.ObserveIdempotency(c, middleware.IdemOutcomeExecuted)
	}
	writeOutcome(c, status, out)
}
