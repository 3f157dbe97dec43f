package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/auth"
	"github.com/techtribe/studio-api/internal/catalogue"
	"github.com/techtribe/studio-api/internal/chat"
	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/contact"
	"github.com/techtribe/studio-api/internal/httpapi/middleware"
	"github.com/techtribe/studio-api/internal/models"
)

type Handler struct {
	Auth      *auth.Service
	Chat      *chat.Service
	Admin     *chat.AdminBridge
	Catalogue *catalogue.Service
	Contact   *contact.Service
	Log       *slog.Logger
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"message": "pong"})
}

var errBadJSON = apperr.Validation("Sorğu formatı yanlışdır")

// writeError renders err and logs what the client cannot see.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch apperr.CodeOf(err) {
	case apperr.CodeInternal, apperr.CodeUnavailable:
		h.Log.Error("request failed",
			"path", c.FullPath(),
			"request_id", c.GetString(middleware.RequestIDKey),
			"err", err,
		)
	}
	common.FailErr(c, err)
}

func (h *Handler) currentUser(c *gin.Context) (*models.User, bool) {
	u, ok := middleware.CurrentUser(c)
	if !ok {
		h.writeError(c, apperr.Unauthenticated("Giriş tələb olunur"))
		return nil, false
	}
	return u, true
}

func deleted(c *gin.Context, msg string) {
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
