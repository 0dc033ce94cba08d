package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetRoleRequest is the JSON payload for changing a user's role.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,notblank" example:"coach"`
}

// SetUserRole godoc
// @ID          setUserRole
// @Summary     Change a user's role
// @Description Assigns one of admin, coach, athlete, parent. Creates the profile if the user has none.
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
//
// @Param       id    path string                   true "User ID"
// @Param       body  body handlers.SetRoleRequest  true "Role"
//
// @Success     200  {object} handlers.SuccessResponse{data=domain.Profile}
// @Failure     400  {object} handlers.ErrorResponse "Unknown role"
// @Failure     403  {object} handlers.ErrorResponse "Forbidden"
// @Router      /api/admin/users/{id}/role [put]
func (h *Handlers) SetUserRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeMissingFields, "role is required")
		return
	}
	p, err := h.membership.SetRole(c.Request.Context(), c.Param("id"), req.Role)
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}

// SuspendUser godoc
// @ID          suspendUser
// @Summary     Suspend an athlete's membership
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
//
// @Param       id  path string true "User ID"
//
// @Success     200  {object} handlers.SuccessResponse{data=domain.Profile}
// @Failure     403  {object} handlers.ErrorResponse "Forbidden or not an athlete"
// @Failure     404  {object} handlers.ErrorResponse "User not found"
// @Router      /api/admin/users/{id}/suspend [post]
func (h *Handlers) SuspendUser(c *gin.Context) {
	p, err := h.membership.Suspend(c.Request.Context(), c.Param("id"))
	if err != nil {
		failService(c, err)
		return
	}
	ok(c, http.StatusOK, p)
}
