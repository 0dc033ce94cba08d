// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// RequestID runs first so every log line and error envelope carries the
// request ID; RedactingLogger then installs the request-scoped logger that
// LoggerFrom and log.Ctx return, and Recovery turns panics into the standard
// 500 envelope.
package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	// requestIDKey is the Gin context key under which the request ID is stored.
	requestIDKey = "requestID"
	// clientRequestIDKey holds the caller's X-Request-ID, kept for log
	// correlation only.
	clientRequestIDKey = "clientRequestID"
	// requestIDHeader carries the server-generated request ID on responses and
	// the caller's correlation ID on requests.
	requestIDHeader = "X-Request-ID"
	// ctxKeyLogger holds the request-scoped *zerolog.Logger.
	ctxKeyLogger = "logger"
	// maxClientRequestIDLength bounds the caller's correlation ID in logs.
	maxClientRequestIDLength = 128
)

// RequestID assigns every request a server-generated UUIDv4. The ID is
// written to the X-Request-ID response header, stored in the Gin context
// under "requestID" and becomes the requestId of idempotency records, so a
// caller can never choose it. An incoming X-Request-ID is only remembered as
// client_request_id for log correlation, and dropped when oversized.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		if cid := c.GetHeader(requestIDHeader); cid != "" && len(cid) <= maxClientRequestIDLength {
			c.Set(clientRequestIDKey, cid)
		}
		rid := uuid.NewString()
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// ClientRequestIDFrom returns the caller's X-Request-ID as accepted by
// RequestID.
func ClientRequestIDFrom(c *gin.Context) (string, bool) {
	v, _ := c.Get(clientRequestIDKey)
	s, _ := v.(string)
	return s, s != ""
}

// RequestIDFrom returns the correlation ID assigned by RequestID, or the
// response header value when the middleware did not run.
func RequestIDFrom(c *gin.Context) string {
	if v, ok := c.Get(requestIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return c.Writer.Header().Get(requestIDHeader)
}

// accessFields adds what the portal decided about the request: the caller's
// role, the denial reason when a gate refused access, and whether the
// response was a stored idempotent replay. The key value itself is never
// logged.
func accessFields(c *gin.Context, ev *zerolog.Event) *zerolog.Event {
	if role, ok := RoleFrom(c); ok {
		ev = ev.Str("role", string(role))
	}
	if d, ok := AccessDecisionFrom(c); ok && !d.HasAccess {
		ev = ev.Str("access_reason", string(d.Reason))
	}
	if _, ok := GetIdempotencyKey(c); ok {
		ev = ev.Bool("idempotent", true).Bool("replay", IsReplay(c))
	}
	return ev
}

// attachLogger makes l available to handlers (Gin context) and to services
// (request context, via log.Ctx).
func attachLogger(c *gin.Context, l *zerolog.Logger) {
	c.Set(ctxKeyLogger, l)
	c.Request = c.Request.WithContext(l.WithContext(c.Request.Context()))
}

// Recovery intercepts panics, logs a stack trace, and returns a JSON 500
// error in the standard envelope if nothing was written yet.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				rid := RequestIDFrom(c)
				log.Error().
					Interface("panic", rec).
					Bytes("stack", debug.Stack()).
					Str("request_id", rid).
					Msg("panic recovered")

				if !c.Writer.Written() {
					c.Header(requestIDHeader, rid)
					abortError(c, http.StatusInternalServerError, codeInternal, "internal server error")
					return
				}
				c.AbortWithStatus(http.StatusInternalServerError)
			}
		}()
		c.Next()
	}
}

// LoggerFrom returns the request-scoped zerolog.Logger, or a fallback logger
// without request fields. Callers can use the result without nil checks.
func LoggerFrom(c *gin.Context) *zerolog.Logger {
	if v, ok := c.Get(ctxKeyLogger); ok {
		if lg, ok := v.(*zerolog.Logger); ok {
			return lg
		}
	}
	l := log.With().Logger()
	return &l
}
