package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/models"
)

type setRoleReq struct {
	Role string `json:"role"`
}

func (h *Handler) ListUsers(c *gin.Context) {
	users, err := h.Auth.ListUsers(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, users)
}

func (h *Handler) DeleteUser(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Auth.DeleteUser(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	deleted(c, "İstifadəçi silindi")
}

func (h *Handler) ToggleUserBlock(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	u, err := h.Auth.ToggleBlocked(c.Request.Context(), actor.ID, c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, u)
}

// SetUserRole accepts an empty body, which flips admin and editor.
func (h *Handler) SetUserRole(c *gin.Context) {
	actor, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req setRoleReq
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.writeError(c, errBadJSON)
			return
		}
	}
	u, err := h.Auth.SetRole(c.Request.Context(), actor.ID, c.Param("id"), models.Role(req.Role))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, u)
}
