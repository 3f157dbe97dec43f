package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/contact"
)

func (h *Handler) SubmitContact(c *gin.Context) {
	var req contact.SubmitInput
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	res, err := h.Contact.Submit(c.Request.Context(), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, res)
}

func (h *Handler) ListContactMessages(c *gin.Context) {
	msgs, err := h.Contact.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, msgs)
}

func (h *Handler) MarkContactRead(c *gin.Context) {
	if err := h.Contact.MarkRead(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, gin.H{"message": "Oxundu kimi işarələndi"})
}

func (h *Handler) DeleteContactMessage(c *gin.Context) {
	if err := h.Contact.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	deleted(c, "Mesaj silindi")
}
