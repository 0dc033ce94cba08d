// Page handlers.
//
// Page routes sit behind middleware.PortalGate, which redirects callers who
// may not see them. Rendering is the frontend's job; these handlers describe
// the page that was allowed through.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/domain"
	"github.com/tbourn/club-portal-backend/internal/http/middleware"
)

// PortalPage is the JSON description of an allowed portal page.
type PortalPage struct {
	Path   string                 `json:"path" example:"/athlete/schedule"`
	Role   domain.Role            `json:"role" example:"athlete"`
	Access *domain.AccessDecision `json:"access,omitempty"`
}

// Portal godoc
// @ID          portalPage
// @Summary     Portal page
// @Description Any path under /admin, /coach, /athlete or /parent. Redirects (302) to /login, to the caller's own portal, or to /pending-approval when not allowed.
// @Tags        Pages
// @Produce     json
//
// @Success     200  {object} handlers.SuccessResponse{data=handlers.PortalPage}
// @Success     302  {string} string "Redirect"
// @Router      /athlete [get]
func (h *Handlers) Portal(c *gin.Context) {
	page := PortalPage{Path: c.Request.URL.Path}
	if role, ok := middleware.RoleFrom(c); ok {
		page.Role = role
	}
	if dec, ok := middleware.AccessDecisionFrom(c); ok {
		page.Access = &dec
	}
	ok(c, http.StatusOK, page)
}

// Login godoc
// @ID          loginPage
// @Summary     Login page
// @Tags        Pages
// @Produce     json
// @Success     200  {object} handlers.SuccessResponse
// @Router      /login [get]
func (h *Handlers) Login(c *gin.Context) {
	ok(c, http.StatusOK, gin.H{"page": "login"})
}

// PendingApproval godoc
// @ID          pendingApprovalPage
// @Summary     Pending approval page
// @Description Explains why an athlete cannot use the portal yet. Anonymous callers get an empty description.
// @Tags        Pages
// @Produce     json
// @Success     200  {object} handlers.SuccessResponse
// @Router      /pending-approval [get]
func (h *Handlers) PendingApproval(c *gin.Context) {
	body := gin.H{"page": "pending-approval"}
	if uid, ok := middleware.UserIDFrom(c); ok {
		dec, err := h.access.GetAthleteAccessStatus(c.Request.Context(), uid)
		if err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Msg("access status lookup failed")
		}
		body["access"] = dec
	}
	ok(c, http.StatusOK, body)
}
