package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/club-portal-backend/internal/http/middleware"
)

// GetAccessStatus godoc
// @ID          getAccessStatus
// @Summary     Current user's portal access
// @Description Evaluates role and membership status for the caller. Non-athletes always have access; athletes need an active membership. Lookup failures are reported as a denial.
// @Tags        Access
// @Produce     json
// @Security    BearerAuth
//
// @Success     200  {object} handlers.SuccessResponse{data=domain.AccessDecision}
// @Failure     401  {object} handlers.ErrorResponse "Authentication required"
// @Router      /api/me/access-status [get]
func (h *Handlers) GetAccessStatus(c *gin.Context) {
	dec, err := h.access.GetAthleteAccessStatus(c.Request.Context(), userID(c))
	if err != nil {
		middleware.LoggerFrom(c).Error().Err(err).Msg("access status lookup failed")
	}
	middleware.ObserveAccessDecision(string(dec.Reason))
	ok(c, http.StatusOK, dec)
}
