package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"github.com/techtribe/studio-api/internal/common"
	"github.com/techtribe/studio-api/internal/config"
	"github.com/techtribe/studio-api/internal/httpapi/handlers"
	"github.com/techtribe/studio-api/internal/httpapi/middleware"
)

// Deps are the services the router wires into handlers. Limiter may be nil,
// which disables rate limiting.
type Deps struct {
	Handler *handlers.Handler
	Users   middleware.UserResolver
	Limiter middleware.Limiter
	Log     *slog.Logger
}

func NewRouter(cfg config.Config, d Deps) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Log))
	r.Use(middleware.Recovery(d.Log))
	r.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
	})

	h := d.Handler
	api := r.Group(cfg.APIPrefix)

	api.GET("/ping", h.Ping)

	// auth
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login",
		middleware.RateLimit(d.Limiter, d.Log, "login", cfg.LoginLimit, cfg.RateLimitWindow, middleware.ByClientIP),
		h.Login)

	authGroup := api.Group("/")
	authGroup.Use(middleware.AuthRequired(d.Users))
	authGroup.GET("/auth/me", h.Me)

	// visitor chat widget
	api.POST("/chat/send",
		middleware.RateLimit(d.Limiter, d.Log, "chat", cfg.ChatSendLimit, cfg.RateLimitWindow, chatSendKeys),
		h.SendChatMessage)
	api.GET("/chat/history/:session_id", h.ChatHistory)

	// admin console chat: the bridge authenticates the bearer token itself
	api.GET("/chat/conversations", h.ListConversations)
	api.GET("/chat/conversations/:id/messages", h.ConversationMessages)
	api.POST("/chat/conversations/:id/reply", h.ReplyToConversation)

	// catalogue
	api.GET("/catalogue", h.ListCatalogue)
	api.GET("/catalogue/search", h.SearchCatalogue)
	api.GET("/catalogue/:id", h.GetCatalogueItem)
	authGroup.POST("/catalogue", h.CreateCatalogueItem)
	authGroup.PUT("/catalogue/:id", h.UpdateCatalogueItem)
	authGroup.DELETE("/catalogue/:id", h.DeleteCatalogueItem)

	// contact
	api.POST("/contact",
		middleware.RateLimit(d.Limiter, d.Log, "contact", cfg.ChatSendLimit, cfg.RateLimitWindow, middleware.ByClientIP),
		h.SubmitContact)
	authGroup.GET("/messages", h.ListContactMessages)
	authGroup.PUT("/messages/:id/read", h.MarkContactRead)
	authGroup.DELETE("/messages/:id", h.DeleteContactMessage)

	authGroup.GET("/dashboard/stats", h.DashboardStats)

	// user management
	admin := authGroup.Group("/users")
	admin.Use(middleware.RequireAdmin())
	admin.GET("", h.ListUsers)
	admin.DELETE("/:id", h.DeleteUser)
	admin.PUT("/:id/block", h.ToggleUserBlock)
	admin.PUT("/:id/role", h.SetUserRole)

	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
		cfg.AllowCredentials = true
	}
	return cfg
}

// chatSendKeys counts a send against its session and its client IP.
func chatSendKeys(c *gin.Context) []string {
	keys := []string{"ip:" + c.ClientIP()}
	var req handlers.SendMessageReq
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err == nil && req.SessionID != "" {
		keys = append(keys, "session:"+req.SessionID)
	}
	return keys
}
