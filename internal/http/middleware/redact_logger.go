// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements RedactingLogger, a structured HTTP logger that scrubs
// obvious PII and credentials from request metadata before emitting logs.
// Bodies are never logged. Authorization, Cookie and Set-Cookie are masked,
// as is the access_token query parameter; emails, phone numbers and UUIDs are
// replaced in query strings and header values.
//
// Usage:
//
//	r := gin.New()
//	r.Use(middleware.RedactingLogger(middleware.RedactOptions{
//	    MaskHeaders: []string{"X-Api-Key"},
//	}))
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// RedactOptions configures additional scrub behavior for RedactingLogger.
//
// MaskHeaders specifies extra HTTP header names whose values will be fully
// replaced with "[REDACTED]". Matching is case-insensitive and merged with
// built-in sensitive headers ("Authorization", "Cookie", "Set-Cookie").
type RedactOptions struct {
	MaskHeaders []string
}

// NOTE: redact UUIDs *before* phone numbers to avoid the phone pattern
// accidentally matching the digit/hyphen segments of a UUID.
var (
	redactUUIDRE  = regexp.MustCompile(`(?i)\b[0-9a-f]{8}\-[0-9a-f]{4}\-[1-5][0-9a-f]{3}\-[89ab][0-9a-f]{3}\-[0-9a-f]{12}\b`)
	redactEmailRE = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	// Digits-only phone pattern (prevents matching hex characters from UUIDs).
	redactPhoneRE = regexp.MustCompile(`\b(?:\+?\d{1,3}[ .-]?)?(?:\(?\d{2,4}\)?[ .-]?)?\d{3,4}[ .-]?\d{4}\b`)
	// Tokens in query strings (cookie-less clients sometimes do this).
	redactTokenRE = regexp.MustCompile(`(?i)(access_token|token)=[^&]*`)
)

// redact scrubs identifiers from s. Order matters: token → IDs → email →
// phone (phone is the loosest).
func redact(s string) string {
	if s == "" {
		return s
	}
	out := redactTokenRE.ReplaceAllString(s, "$1=[REDACTED]")
	out = redactUUIDRE.ReplaceAllString(out, "[REDACTED:id]")
	out = redactEmailRE.ReplaceAllString(out, "[REDACTED:email]")
	out = redactPhoneRE.ReplaceAllString(out, "[REDACTED:phone]")
	return out
}

// RedactingLogger returns a Gin middleware that logs HTTP requests and
// responses with sensitive values scrubbed, at INFO by default, WARN for 4xx
// and ERROR for 5xx or when handlers attached errors. It also installs the request-scoped logger used by
// LoggerFrom and by services through the request context.
func RedactingLogger(opts RedactOptions) gin.HandlerFunc {
	maskHeaders := map[string]struct{}{
		"authorization": {},
		"cookie":        {},
		"set-cookie":    {},
	}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			maskHeaders[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		safeQuery := redact(c.Request.URL.RawQuery)

		safeHeaders := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := maskHeaders[strings.ToLower(k)]; ok {
				safeHeaders[k] = "[REDACTED]"
				continue
			}
			safeHeaders[k] = redact(strings.Join(vv, ", "))
		}

		reqID := RequestIDFrom(c)
		lc := log.With().
			Str("request_id", reqID).
			Str("method", c.Request.Method).
			Str("path", path)
		clientID, hasClientID := ClientRequestIDFrom(c)
		if hasClientID {
			lc = lc.Str("client_request_id", redact(clientID))
		}
		l := lc.Logger()
		attachLogger(c, &l)

		c.Next()

		status := c.Writer.Status()
		ev := log.Info()
		switch {
		case status >= 500 || len(c.Errors) > 0:
			ev = log.Error()
			if len(c.Errors) > 0 {
				ev = ev.Str("errors", c.Errors.String())
			}
		case status >= 400:
			ev = log.Warn()
		}

		uid, _ := UserIDFrom(c)
		if hasClientID {
			ev = ev.Str("client_request_id", redact(clientID))
		}
		accessFields(c, ev).
			Str("request_id", reqID).
			Str("user_id", uid).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("query", safeQuery).
			Int("status", status).
			Int("bytes", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Interface("headers", safeHeaders).
			Msg("http_request")
	}
}
