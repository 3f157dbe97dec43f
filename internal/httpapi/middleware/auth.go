package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/models"
)

const (
	UserKey  = "user"
	TokenKey = "token"
)

// UserResolver is satisfied by *auth.Service.
type UserResolver interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// BearerToken returns the token of an "Authorization: Bearer <t>" header.
func BearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// AuthRequired resolves the bearer token to an active user. A user deleted
// after the token was issued is treated like a bad token.
func AuthRequired(users UserResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		tok := BearerToken(c)
		if tok == "" {
			common.FailErr(c, apperr.Unauthenticated("Giriş tələb olunur"))
			return
		}
		u, err := users.CurrentUser(c.Request.Context(), tok)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				err = apperr.Unauthenticated("İstifadəçi tapılmadı")
			}
			common.FailErr(c, err)
			return
		}
		if u.IsBlocked {
			common.FailErr(c, apperr.Forbidden("Hesabınız bloklanıb"))
			return
		}
		c.Set(UserKey, u)
		c.Set(TokenKey, tok)
		c.Next()
	}
}

// RequireAdmin must run after AuthRequired.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u, ok := CurrentUser(c)
		if !ok || !u.IsAdmin() {
			common.FailErr(c, apperr.Forbidden("Bu əməliyyat üçün icazəniz yoxdur"))
			return
		}
		c.Next()
	}
}

func CurrentUser(c *gin.Context) (*models.User, bool) {
	v, ok := c.Get(UserKey)
	if !ok {
		return nil, false
	}
	u, ok := v.(*models.User)
	return u, ok
}
