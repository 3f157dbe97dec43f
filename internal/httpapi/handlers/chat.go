package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/techtribe/studio-api/internal/chat"
	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/httpapi/middleware"
)

type SendMessageReq struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
	UserName  string `json:"user_name"`
}

type adminReplyReq struct {
	Content string `json:"content"`
}

// SendChatMessage binds with ShouldBindBodyWith because the rate limiter has
// already read the body to find the session id.
func (h *Handler) SendChatMessage(c *gin.Context) {
	var req SendMessageReq
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	res, err := h.Chat.Send(c.Request.Context(), chat.SendInput{
		SessionID:   req.SessionID,
		Message:     req.Message,
		VisitorName: req.UserName,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, res)
}

func (h *Handler) ChatHistory(c *gin.Context) {
	res, err := h.Chat.History(c.Request.Context(), c.Param("session_id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	var convID any
	if res.ConversationID != "" {
		convID = res.ConversationID
	}
	common.OK(c, gin.H{"messages": res.Messages, "conversation_id": convID})
}

func (h *Handler) ListConversations(c *gin.Context) {
	list, err := h.Admin.List(c.Request.Context(), middleware.BearerToken(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, list)
}

func (h *Handler) ConversationMessages(c *gin.Context) {
	msgs, err := h.Admin.Open(c.Request.Context(), middleware.BearerToken(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, msgs)
}

func (h *Handler) ReplyToConversation(c *gin.Context) {
	var req adminReplyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	msg, err := h.Admin.Reply(c.Request.Context(), middleware.BearerToken(c), c.Param("id"), req.Content)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.Created(c, msg)
}
