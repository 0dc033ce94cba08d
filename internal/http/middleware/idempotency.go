// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the transport side of idempotency for mutating
// endpoints. It validates the Idempotency-Key request header, stashes the key
// in the Gin context and, when a lookup is supplied, flags requests that will
// be served from a stored result so the rate limiter can let them through.
//
// Execution and replay themselves live in services.IdempotencyService; this
// middleware only keeps malformed keys away from it.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
)

// HeaderIdempotencyKey is the canonical request header that clients use to
// convey an idempotency key for unsafe operations (e.g., POST).
const HeaderIdempotencyKey = "Idempotency-Key"

// Context keys used internally to stash idempotency state.
const (
	ctxKeyIdemKey    = "idem.key"
	ctxKeyIdemReplay = "idem.replay" // bool: true when a stored replay exists
	ctxKeyRateBypass = "rate.bypass" // bool: true to skip rate limiting
)

var (
	uuidKeyRE  = regexp.MustCompile(`^[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}$`)
	tokenKeyRE = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)
)

// IsValidIdempotencyKey reports whether key is a canonical UUID or an opaque
// token of 8 to 128 characters drawn from [A-Za-z0-9_-].
func IsValidIdempotencyKey(key string) bool {
	return uuidKeyRE.MatchString(key) || tokenKeyRE.MatchString(key)
}

// ExtractIdempotencyKey reads the Idempotency-Key header. The second return
// value is false when the header is absent or blank, meaning the request runs
// without replay protection.
func ExtractIdempotencyKey(h http.Header) (string, bool) {
	key := strings.TrimSpace(h.Get(HeaderIdempotencyKey))
	return key, key != ""
}

// GetIdempotencyKey returns the validated idempotency key stored in the Gin
// context by IdempotencyValidator. The second return value indicates presence.
//
// Handlers should prefer this function over reading the header directly.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, ok := c.Get(ctxKeyIdemKey)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, s != ""
}

// IsReplay reports whether the lookup found a completed result for this
// request's key.
func IsReplay(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyIdemReplay)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// IdempotencyLookup answers whether a completed, still-valid result exists for
// (userID, endpoint, key). Errors are treated as "no" so a lookup failure
// never blocks the request; the service performs the authoritative check.
type IdempotencyLookup func(ctx context.Context, userID, endpoint, key string) (bool, error)

// IdempotencyValidator validates the Idempotency-Key header (if present) and
// stashes it in the request context.
//
// Behavior:
//   - If header is absent: the middleware is a no-op.
//   - If header fails validation: responds 400 INVALID_IDEMPOTENCY_KEY and
//     no handler runs.
//   - If lookup reports a stored result: sets replay + rate-bypass flags.
func IdempotencyValidator(lookup IdempotencyLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, present := c.Request.Header[http.CanonicalHeaderKey(HeaderIdempotencyKey)]; !present {
			c.Next()
			return
		}
		key, ok := ExtractIdempotencyKey(c.Request.Header)
		if !ok || !IsValidIdempotencyKey(key) {
			abortError(c, http.StatusBadRequest, codeInvalidIdemKey,
				"Idempotency-Key must be a UUID or 8-128 characters of letters, digits, '-' or '_'")
			return
		}

		c.Set(ctxKeyIdemKey, key)

		if lookup != nil {
			if uid, ok := UserIDFrom(c); ok {
				if exists, _ := lookup(c.Request.Context(), uid, EndpointOf(c), key); exists {
					c.Set(ctxKeyIdemReplay, true)
					c.Set(ctxKeyRateBypass, true)
				}
			}
		}

		c.Next()
	}
}

// EndpointOf is the idempotency scope of a request: method plus concrete
// path, so the same key sent to /applications/a/approve and
// /applications/b/approve guards two different operations.
func EndpointOf(c *gin.Context) string {
	return c.Request.Method + " " + c.Request.URL.Path
}
