package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/auth"
	"github.com/techtribe/studio-api/internal/common"
)

type registerReq struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	AdminSecret string `json:"admin_secret"`
}

type loginReq struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func sessionBody(s *auth.Session) gin.H {
	return gin.H{
		"token":      s.Token,
		"token_type": "bearer",
		"expires_at": s.ExpiresAt,
		"user":       s.User,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	sess, err := h.Auth.Register(c.Request.Context(), auth.RegisterInput{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		AdminSecret: req.AdminSecret,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, sessionBody(sess))
}

func (h *Handler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, errBadJSON)
		return
	}
	sess, err := h.Auth.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	common.OK(c, sessionBody(sess))
}

func (h *Handler) Me(c *gin.Context) {
	u, ok := h.currentUser(c)
	if !ok {
		return
	}
	common.OK(c, gin.H{"user": u})
}
