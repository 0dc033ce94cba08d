// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides SecurityHeaders, a hardening middleware for both the
// JSON API and the portal page routes. HSTS is opt-in and only sent over
// HTTPS; the correlation and idempotency replay headers are exposed to
// browser clients through CORS.
package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// SecurityOptions configures HTTP security headers emitted by SecurityHeaders.
type SecurityOptions struct {
	EnableHSTS   bool          // only when traffic is HTTPS end-to-end
	HSTSMaxAge   time.Duration // defaults to 180 days
	NoStore      bool          // add Cache-Control: no-store
	EnablePolicy bool          // include Permissions-Policy, etc.
}

// exposedHeaders are readable by browser clients.
var exposedHeaders = []string{
	requestIDHeader,
	HeaderIdempotencyCached,
	HeaderOriginalTimestamp,
}

// Replay headers set by the handlers on cached responses.
const (
	HeaderIdempotencyCached = "X-Idempotency-Cached"
	HeaderOriginalTimestamp = "X-Original-Timestamp"
)

// SecurityHeaders returns a Gin middleware that sets:
//
//	X-Content-Type-Options: nosniff
//	X-Frame-Options: DENY
//	Referrer-Policy: no-referrer
//
// plus, when enabled, Permissions-Policy, no-store caching and HSTS.
func SecurityHeaders(opt SecurityOptions) gin.HandlerFunc {
	maxAge := int(opt.HSTSMaxAge.Seconds())
	if maxAge <= 0 {
		maxAge = int((180 * 24 * time.Hour).Seconds())
	}
	hsts := "max-age=" + strconv.Itoa(maxAge) + "; includeSubDomains; preload"

	return func(c *gin.Context) {
		h := c.Writer.Header()

		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")

		if opt.EnablePolicy {
			h.Set("Permissions-Policy", "geolocation=(), microphone=(), camera=(), payment=()")
			h.Set("X-Permitted-Cross-Domain-Policies", "none")
		}

		if opt.NoStore {
			h.Set("Cache-Control", "no-store")
			h.Set("Pragma", "no-cache")
			h.Set("Expires", "0")
		}

		if opt.EnableHSTS && isHTTPS(c.Request) {
			h.Set("Strict-Transport-Security", hsts)
		}

		exposeHeaders(h, exposedHeaders...)
		c.Next()
	}
}

// exposeHeaders appends names to Access-Control-Expose-Headers without
// clobbering what CORS already set.
func exposeHeaders(h http.Header, names ...string) {
	const hdr = "Access-Control-Expose-Headers"
	cur := h.Get(hdr)
	for _, n := range names {
		if strings.Contains(strings.ToLower(cur), strings.ToLower(n)) {
			continue
		}
		if cur == "" {
			cur = n
		} else {
			cur += ", " + n
		}
	}
	h.Set(hdr, cur)
}

// isHTTPS reports whether the request used HTTPS directly or through a proxy
// that set X-Forwarded-Proto: https.
func isHTTPS(r *http.Request) bool {
	if r.TLS != nil {
		return true
	}
	return strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https")
}
