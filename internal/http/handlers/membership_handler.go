// Membership HTTP handlers.
//
// This file exposes the application workflow:
//   - POST /api/me/membership-applications              (athlete applies)
//   - GET  /api/coach/applications                      (review queue, weak ETag)
//   - POST /api/coach/applications/{id}/approve         (approve)
//   - POST /api/coach/applications/{id}/reject          (reject with reason)
//
// Mutations run through the idempotency gate, so a retried submission with
// the same Idempotency-Key is replayed instead of filing twice.
package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

// ApplyRequest is the JSON payload for a membership application.
type ApplyRequest struct {
	ClubID  string `json:"clubId" binding:"required,notblank" example:"7c9e6679-7425-40de-944b-e07fc1f90ae7"`
	Message string `json:"message" binding:"max=4000" example:"U14 goalkeeper, two seasons at Northside"`
}

// RejectRequest is the optional JSON payload for a rejection.
type RejectRequest struct {
	Reason string `json:"reason" binding:"max=4000" example:"Squad is full for this season"`
}

// ListApplicationsResponse wraps a page of applications.
type ListApplicationsResponse struct {
	Applications []domain.MembershipApplication `json:"applications"`
	Pagination   Pagination                     `json:"pagination"`
}

// Apply godoc
// @ID          applyForMembership
// @Summary     Apply for club membership
// @Description Files a pending application for the calling athlete. Supports Idempotency-Key.
// @Tags        Membership
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
// @Param       body            body   handlers.ApplyRequest true "Application"
//
// @Success     201  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Missing fields or invalid key"
// @Failure     403  {object} handlers.ErrorResponse "Not an athlete"
// @Failure     404  {object} handlers.ErrorResponse "Club not found"
// @Failure     409  {object} handlers.ErrorResponse "Already pending/member, membership changed, or request in progress"
// @Router      /api/me/membership-applications [post]
func (h *Handlers) Apply(c *gin.Context) {
	var req ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "clubId is required")
		return
	}
	uid := userID(c)
	h.runIdempotent(c, http.StatusCreated, func(ctx context.Context) (any, error) {
		app, err := h.membership.Apply(ctx, uid, req.ClubID, req.Message)
		if err != nil {
			return nil, err
		}
		return gin.H{"application": app}, nil
	})
}

// ListApplications godoc
// @ID          listApplications
// @Summary     List membership applications (paginated)
// @Description Review queue, oldest first. Filters by status (pending by default; "all" disables the filter). Supports weak ETag via If-None-Match.
// @Tags        Membership
// @Produce     json
// @Security    BearerAuth
//
// @Param       status         query  string false "pending | approved | rejected | all" default(pending)
// @Param       page           query  int    false "Page number"    minimum(1) default(1)
// @Param       page_size      query  int    false "Items per page" minimum(1) maximum(100) default(20)
// @Param       If-None-Match  header string false "Return 304 if ETag matches"
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.ListApplicationsResponse}
// @Header      200  {string} ETag "Weak ETag for current result"
// @Success     304  {string} string "Not Modified"
// @Failure     400  {object} handlers.ErrorResponse "Unknown status"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Router      /api/coach/applications [get]
func (h *Handlers) ListApplications(c *gin.Context) {
	ctx := c.Request.Context()

	var status domain.ApplicationStatus
	switch s := c.DefaultQuery("status", string(domain.ApplicationPending)); s {
	case "all":
	case string(domain.ApplicationPending), string(domain.ApplicationApproved), string(domain.ApplicationRejected):
		status = domain.ApplicationStatus(s)
	default:
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "status must be pending, approved, rejected or all")
		return
	}
	page, pageSize := clampPagination(c)

	// ETag pre-check (best effort).
	if count, maxTS, err := h.membership.Stats(ctx, status); err == nil {
		var ts int64
		if maxTS != nil {
			ts = maxTS.UnixNano()
		}
		etag := fmt.Sprintf(`W/"applications:%s:%d:%d:%d:%d"`, status, count, ts, page, pageSize)
		c.Header("ETag", etag)
		if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
			c.Status(http.StatusNotModified)
			return
		}
	}

	items, total, err := h.membership.ListPage(ctx, status, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, ListApplicationsResponse{
		Applications: items,
		Pagination:   newPagination(page, pageSize, total),
	})
}

// ApproveApplication godoc
// @ID          approveApplication
// @Summary     Approve a pending application
// @Description Marks the application approved and activates the athlete's membership. Supports Idempotency-Key.
// @Tags        Membership
// @Produce     json
// @Security    BearerAuth
//
// @Param       id              path   string true  "Application ID"
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     404  {object} handlers.ErrorResponse "Not found or already reviewed"
// @Failure     409  {object} handlers.ErrorResponse "Athlete no longer pending, or request in progress"
// @Router      /api/coach/applications/{id}/approve [post]
func (h *Handlers) ApproveApplication(c *gin.Context) {
	id, reviewer := c.Param("id"), userID(c)
	h.runIdempotent(c, http.StatusOK, func(ctx context.Context) (any, error) {
		app, err := h.membership.Approve(ctx, id, reviewer)
		if err != nil {
			return nil, err
		}
		return gin.H{"application": app}, nil
	})
}

// RejectApplication godoc
// @ID          rejectApplication
// @Summary     Reject a pending application
// @Description Marks the application rejected; the reason is shown to the athlete. Supports Idempotency-Key.
// @Tags        Membership
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id              path   string true  "Application ID"
// @Param       Idempotency-Key header string false "UUID or 8-128 chars of [A-Za-z0-9_-]"
// @Param       body            body   handlers.RejectRequest false "Rejection reason"
//
// @Success     200  {object} handlers.SuccessResponse
// @Failure     400  {object} handlers.ErrorResponse "Reason too long"
// @Failure     404  {object} handlers.ErrorResponse "Not found or already reviewed"
// @Failure     409  {object} handlers.ErrorResponse "Athlete no longer pending"
// @Router      /api/coach/applications/{id}/reject [post]
func (h *Handlers) RejectApplication(c *gin.Context) {
	var req RejectRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			fail(c, http.StatusBadRequest, ErrCodeInvalidInput, "invalid JSON body")
			return
		}
	}
	id, reviewer := c.Param("id"), userID(c)
	h.runIdempotent(c, http.StatusOK, func(ctx context.Context) (any, error) {
		app, err := h.membership.Reject(ctx, id, reviewer, req.Reason)
		if err != nil {
			return nil, err
		}
		return gin.H{"application": app}, nil
	})
}
