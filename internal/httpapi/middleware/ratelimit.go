package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/common"
)

// Limiter is satisfied by *redisstore.Limiter.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc names the buckets a request is counted in; each is checked.
type KeyFunc func(c *gin.Context) []string

// RateLimit rejects with 429 once any bucket exceeds limit per window. When
// the limiter backend fails the request is let through.
func RateLimit(l Limiter, log *slog.Logger, scope string, limit int, window time.Duration, keys KeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil || limit <= 0 {
			c.Next()
			return
		}
		for _, k := range keys(c) {
			allowed, err := l.Allow(c.Request.Context(), scope+":"+k, limit, window)
			if err != nil {
				log.Warn("rate limiter unavailable, allowing request", "scope", scope, "err", err)
				break
			}
			if !allowed {
				common.FailErr(c, apperr.New(apperr.CodeRateLimited, "Çox sayda sorğu. Bir az sonra yenidən cəhd edin."))
				return
			}
		}
		c.Next()
	}
}

func ByClientIP(c *gin.Context) []string {
	return []string{"ip:" + c.ClientIP()}
}
