// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response envelopes shared by every endpoint.
//
// Success:
//
//	HTTP/1.1 201 Created
//	X-Request-ID: 9b1d…
//	{
//	  "success": true,
//	  "data": { "leaveRequest": { … } },
//	  "metadata": { "requestId": "9b1d…", "cached": false }
//	}
//
// A replayed idempotent response additionally carries
// X-Idempotency-Cached: true, X-Original-Timestamp and the original request
// ID in metadata.
//
// Failure:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "success": false,
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "NOT_FOUND",
//	  "message": "training session not found"
//	}
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/http/middleware"
	"github.com/tbourn/club-portal-backend/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	Success bool `json:"success" example:"false"`
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"NOT_FOUND"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"resource not found"`
}

// Metadata accompanies every success envelope.
type Metadata struct {
	RequestID         string     `json:"requestId" example:"9b1deb4d-3b7d-4bad-9bdd-2b0d7b3dcb6d"`
	Cached            bool       `json:"cached" example:"false"`
	OriginalTimestamp *time.Time `json:"originalTimestamp,omitempty"`
	OriginalRequestID string     `json:"originalRequestId,omitempty"`
}

// SuccessResponse is the standard success envelope.
type SuccessResponse struct {
	Success  bool     `json:"success" example:"true"`
	Data     any      `json:"data" swaggertype:"object"`
	Metadata Metadata `json:"metadata"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	resp := ErrorResponse{
		Success:   false,
		RequestID: middleware.RequestIDFrom(c),
		Code:      code,
		Message:   msg,
	}

	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}

	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router's fallbacks.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// ok writes data inside a fresh (non-replayed) success envelope.
func ok(c *gin.Context, status int, data any) {
	c.JSON(status, SuccessResponse{
		Success:  true,
		Data:     data,
		Metadata: Metadata{RequestID: middleware.RequestIDFrom(c)},
	})
}

// writeOutcome writes the result of an idempotent execution. Replays carry
// the original request's identity in headers and metadata.
func writeOutcome(c *gin.Context, status int, out *services.Outcome) {
	meta := Metadata{RequestID: middleware.RequestIDFrom(c), Cached: out.Cached}
	if out.Cached {
		ts := out.OriginalTimestamp.UTC()
		meta.OriginalTimestamp = &ts
		meta.OriginalRequestID = out.OriginalRequestID
		c.Header(middleware.HeaderIdempotencyCached, "true")
		c.Header(middleware.HeaderOriginalTimestamp, ts.Format(time.RFC3339))
	}
	c.JSON(status, SuccessResponse{
		Success:  true,
		Data:     json.RawMessage(out.Data),
		Metadata: meta,
	})
}
