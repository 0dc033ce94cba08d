// Package handlers defines HTTP-layer error codes used across all API endpoints.
//
// Codes are UPPER_SNAKE_CASE and stable: clients branch on them, never on the
// message. The middleware package emits the same vocabulary for errors raised
// before a handler runs (authentication, access, key format, rate limits).
//
// Example response:
//
//	{
//	  "success": false,
//	  "request_id": "e1b9be03-4999-4289-9f03-999b042d65d6",
//	  "code": "IDEMPOTENCY_IN_PROGRESS",
//	  "message": "a request with this idempotency key is already in progress"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/services"
)

const (
	ErrCodeAuthRequired       = "AUTHENTICATION_REQUIRED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeMembershipRequired = "MEMBERSHIP_REQUIRED"
	ErrCodeInvalidIdemKey     = "INVALID_IDEMPOTENCY_KEY"
	ErrCodeMissingFields      = "MISSING_REQUIRED_FIELDS"
	ErrCodeInvalidInput       = "INVALID_INPUT"
	ErrCodeInProgress         = "IDEMPOTENCY_IN_PROGRESS"
	ErrCodeConflict           = "CONFLICT"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeMethodNotAllowed   = "METHOD_NOT_ALLOWED"
	ErrCodeNotImplemented     = "NOT_IMPLEMENTED"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// failService maps a service error onto the error envelope. Unknown errors
// become 500 with the error text.
func failService(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrRequestInProgress):
		fail(c, http.StatusConflict, ErrCodeInProgress, err.Error())

	case errors.Is(err, services.ErrUserNotFound),
		errors.Is(err, services.ErrClubNotFound),
		errors.Is(err, services.ErrApplicationNotFound),
		errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, err.Error())

	case errors.Is(err, services.ErrNotAthlete):
		fail(c, http.StatusForbidden, ErrCodeForbidden, err.Error())

	case errors.Is(err, services.ErrApplicationPending),
		errors.Is(err, services.ErrAlreadyMember),
		errors.Is(err, services.ErrMembershipChanged),
		errors.Is(err, services.ErrAlreadyCheckedIn):
		fail(c, http.StatusConflict, ErrCodeConflict, err.Error())

	case errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrEmptyReason),
		errors.Is(err, services.ErrReasonTooLong),
		errors.Is(err, services.ErrEmptyTitle):
		fail(c, http.StatusBadRequest, ErrCodeInvalidInput, err.Error())

	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
