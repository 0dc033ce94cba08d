// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements the Access Gate at the HTTP boundary. Role and
// membership status are loaded on every request; nothing about access is
// trusted from the token. API routes get JSON denials, page routes get
// redirects.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/domain"
)

const (
	ctxKeyRole     = "role"
	ctxKeyDecision = "access.decision"
)

// AccessEvaluator resolves roles and athlete access for a user.
type AccessEvaluator interface {
	ResolveRole(ctx context.Context, userID string) (domain.Role, error)
	GetAthleteAccessStatus(ctx context.Context, userID string) (domain.AccessDecision, error)
}

// ResolveRole loads the caller's role and stores it for RequireCapability.
// Must run after Authenticate. Users without a resolvable role get 403.
func ResolveRole(access AccessEvaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserIDFrom(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, codeAuthRequired, "authentication required")
			return
		}
		role, err := access.ResolveRole(c.Request.Context(), uid)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("role lookup failed")
			abortError(c, http.StatusForbidden, codeForbidden, "unable to resolve user role")
			return
		}
		c.Set(ctxKeyRole, role)
		c.Next()
	}
}

// RoleFrom returns the role stored by ResolveRole.
func RoleFrom(c *gin.Context) (domain.Role, bool) {
	v, ok := c.Get(ctxKeyRole)
	if !ok {
		return "", false
	}
	r, ok := v.(domain.Role)
	return r, ok && r.Valid()
}

// RequireCapability aborts with 403 FORBIDDEN unless the resolved role
// holds capability.
func RequireCapability(capability domain.Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFrom(c)
		if !ok || !role.Can(capability) {
			abortError(c, http.StatusForbidden, codeForbidden, "insufficient permissions")
			return
		}
		c.Next()
	}
}

// AthleteAccessGate evaluates athlete membership for API routes. A denied
// caller gets 403 MEMBERSHIP_REQUIRED carrying the decision so the client
// can explain why and where to go.
func AthleteAccessGate(access AccessEvaluator) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := UserIDFrom(c)
		if !ok {
			abortError(c, http.StatusUnauthorized, codeAuthRequired, "authentication required")
			return
		}
		dec, err := access.GetAthleteAccessStatus(c.Request.Context(), uid)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("athlete access check failed")
		}
		ObserveAccessDecision(string(dec.Reason))
		c.Set(ctxKeyDecision, dec)
		if !dec.HasAccess {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success":    false,
				"request_id": RequestIDFrom(c),
				"code":       codeMembershipRequired,
				"message":    dec.Message,
				"access":     dec,
			})
			return
		}
		c.Next()
	}
}

// AccessDecisionFrom returns the decision stored by AthleteAccessGate or
// PortalGate.
func AccessDecisionFrom(c *gin.Context) (domain.AccessDecision, bool) {
	v, ok := c.Get(ctxKeyDecision)
	if !ok {
		return domain.AccessDecision{}, false
	}
	d, ok := v.(domain.AccessDecision)
	return d, ok
}

// PortalGate guards page routes with redirects:
//
//   - no session → /login
//   - a portal the role cannot view → the role's own dashboard
//   - athlete without active membership → the decision's redirect, unless
//     the path is one of allowed (the application form is always allowed)
//
// Must run after Identify.
func PortalGate(access AccessEvaluator, allowed []string) gin.HandlerFunc {
	allow := map[string]struct{}{domain.ApplyPath: {}}
	for _, p := range allowed {
		if p = strings.TrimRight(strings.TrimSpace(p), "/"); p != "" {
			allow[p] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		uid, ok := UserIDFrom(c)
		if !ok {
			redirect(c, domain.LoginPath)
			return
		}
		role, err := access.ResolveRole(c.Request.Context(), uid)
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("role lookup failed on page route")
			redirect(c, domain.LoginPath)
			return
		}
		c.Set(ctxKeyRole, role)

		path := c.Request.URL.Path
		if root, ok := domain.PortalRoot(path); ok && !role.CanViewPortal(root) {
			redirect(c, role.DashboardPath())
			return
		}
		if role != domain.RoleAthlete {
			c.Next()
			return
		}

		dec, err := access.GetAthleteAccessStatus(c.Request.Context(), uid)
		if err != nil {
			LoggerFrom(c).Error().Err(err).Msg("athlete access check failed on page route")
		}
		ObserveAccessDecision(string(dec.Reason))
		c.Set(ctxKeyDecision, dec)
		if dec.HasAccess {
			c.Next()
			return
		}
		if _, ok := allow[strings.TrimRight(path, "/")]; ok {
			c.Next()
			return
		}
		target := dec.RedirectPath
		if target == "" {
			target = domain.PendingApprovalPath
		}
		redirect(c, target)
	}
}

func redirect(c *gin.Context, to string) {
	c.Redirect(http.StatusFound, to)
	c.Abort()
}
