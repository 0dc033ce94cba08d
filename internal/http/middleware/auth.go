// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file authenticates requests from a bearer token (API clients) or the
// access_token cookie (browser page loads) and stores the user ID in the Gin
// context under "userID", the key the logging and rate-limit middleware
// already read.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/auth"
)

const (
	ctxKeyUserID = "userID"

	// AccessTokenCookie carries the token for browser page requests.
	AccessTokenCookie = "access_token"
)

// TokenParser verifies a raw token and returns its claims.
type TokenParser interface {
	Parse(raw string) (*auth.Claims, error)
}

// Authenticate requires a valid token. Missing or invalid tokens get 401
// AUTHENTICATION_REQUIRED.
func Authenticate(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !identify(c, tokens) {
			abortError(c, http.StatusUnauthorized, codeAuthRequired, "authentication required")
			return
		}
		c.Next()
	}
}

// Identify sets the user when a valid token is present and otherwise lets the
// request through anonymously. Page routes use it so the portal gate can
// redirect instead of returning JSON.
func Identify(tokens TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		identify(c, tokens)
		c.Next()
	}
}

func identify(c *gin.Context, tokens TokenParser) bool {
	raw := bearerToken(c.GetHeader("Authorization"))
	if raw == "" {
		raw, _ = c.Cookie(AccessTokenCookie)
	}
	if raw == "" {
		return false
	}
	claims, err := tokens.Parse(raw)
	if err != nil {
		LoggerFrom(c).Debug().Err(err).Msg("rejected access token")
		return false
	}
	setUserID(c, claims.Subject)
	return true
}

// setUserID stores the user on the Gin context and enriches the
// request-scoped logger with it.
func setUserID(c *gin.Context, userID string) {
	c.Set(ctxKeyUserID, userID)
	lg := LoggerFrom(c).With().Str("user_id", userID).Logger()
	c.Set(ctxKeyLogger, &lg)
	c.Request = c.Request.WithContext(lg.WithContext(c.Request.Context()))
}

func bearerToken(h string) string {
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// UserIDFrom returns the authenticated user, if any.
func UserIDFrom(c *gin.Context) (string, bool) {
	if v, ok := c.Get(ctxKeyUserID); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}
	return "", false
}
