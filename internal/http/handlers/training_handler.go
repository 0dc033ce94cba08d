// Training HTTP handlers.
//
//   - POST /api/athlete/check-in        (record attendance)
//   - POST /api/athlete/leave-request   (ask to miss a session)
//   - POST /api/coach/sessions          (schedule a session)
//
// All three are idempotent when the client sends an Idempotency-Key.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CheckInRequest is the JSON payload for a session check-in.
type CheckInRequest struct {
	SessionID string `json:"sessionId" binding:"required,notblank" example:"3f0e2c1a-5d2b-4c7e-9a51-0f6c1d2b3a4e"`
}

// LeaveRequestBody is the JSON payload for a leave request.
type LeaveRequestBody struct {
	SessionID string `json:"sessionId" binding:"required,notblank" example:"3f0e2c1a-5d2b-4c7e-9a51-0f6c1d2b3a4e"`
	Reason    string `json:"reason" binding:"required,notblank" example:"School exam"`
}

// CreateSessionRequest is the JSON payload for scheduling a session.
type CreateSessionRequest struct {
	ClubID   string    `json:"clubId" binding:"required,notblank" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Title    string    `json:"title" binding:"required,notblank,max=255" example:"U14 evening drills"`
	StartsAt time.Time `json:"startsAt" binding:"required" example:"2026-05-04T18:00:00Z"`
}

// CheckIn godoc
// @ID          checkIn
// @Summary     Check in to a training session
// @Description Records attendance for the calling athlete. Requires an active membership. Supports Idempotency-Key.
// @Tags        Athlete
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
// @Param       body            body   handlers.CheckInRequest true "Session"
//
// @Success     201  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields or invalid key"
// @Failure     403  {object} handlers.ErrorResponse "Membership required"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     409  {object} handlers.ErrorResponse "Already checked in, or request in progress"
// @Router      /api/athlete/check-in [post]
func (h *Handlers) CheckIn(c *gin.Context) {
	var req CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "sessionId is required")
		return
	}
	uid := userID(c)
	h.runIdempotent(c, http.StatusCreated, func(ctx context.Context) (any, error) {
		a, err := h.training.CheckIn(ctx, uid, req.SessionID)
		if err != nil {
			return nil, err
		}
		return gin.H{"attendance": a}, nil
	})
}

// RequestLeave godoc
// @ID          requestLeave
// @Summary     Request leave from a training session
// @Description Files a pending leave request. Requires an active membership. Supports Idempotency-Key: a retried submission returns the original leave request.
// @Tags        Athlete
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
// @Param       body            body   handlers.LeaveRequestBody true "Leave request"
//
// @Success     201  {object} handlers.SuccessResponse
// @Header      201  {string} X-Idempotency-Cached "true on replay"
// @Header      201  {string} X-Original-Timestamp "RFC 3339 time of the first request, on replay"
// @Failure     400  {object} handlers.ErrorResponse "Missing fields or invalid key"
// @Failure     403  {object} handlers.ErrorResponse "Membership required"
// @Failure     404  {object} handlers.ErrorResponse "Session not found"
// @Failure     409  {object} handlers.ErrorResponse "Request in progress"
// @Router      /api/athlete/leave-request [post]
func (h *Handlers) RequestLeave(c *gin.Context) {
	var req LeaveRequestBody
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "sessionId and reason are required")
		return
	}
	uid := userID(c)
	h.runIdempotent(c, http.StatusCreated, func(ctx context.Context) (any, error) {
		lr, err := h.training.RequestLeave(ctx, uid, req.SessionID, req.Reason)
		if err != nil {
			return nil, err
		}
		return gin.H{"leaveRequest": lr}, nil
	})
}

// CreateSession godoc
// @ID          createSession
// @Summary     Schedule a training session
// @Tags        Coach
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
// @Param       body            body   handlers.CreateSessionRequest true "Session"
//
// @Success     201  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields"
// @Failure     404  {object} handlers.ErrorResponse "Club not found"
// @Router      /api/coach/sessions [post]
func (h *Handlers) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "clubId, title and startsAt are required")
		return
	}
	uid := userID(c)
	h.runIdempotent(c, http.StatusCreated, func(ctx context.Context) (any, error) {
		s, err := h.training.CreateSession(ctx, uid, req.ClubID, req.Title, req.StartsAt)
		if err != nil {
			return nil, err
		}
		return gin.H{"session": s}, nil
	})
}
