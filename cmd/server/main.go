package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/techtribe/studio-api/internal/ai"
	"github.com/techtribe/studio-api/internal/auth"
	"github.com/techtribe/studio-api/internal/catalogue"
	"github.com/techtribe/studio-api/internal/chat"
	"github.com/techtribe/studio-api/internal/config"
	"github.com/techtribe/studio-api/internal/contact"
	"github.com/techtribe/studio-api/internal/db"
	"github.com/techtribe/studio-api/internal/httpapi"
	"github.com/techtribe/studio-api/internal/httpapi/handlers"
	"github.com/techtribe/studio-api/internal/httpapi/middleware"
	"github.com/techtribe/studio-api/internal/logging"
	"github.com/techtribe/studio-api/internal/store/rabbitmq"
	"github.com/techtribe/studio-api/internal/store/redisstore"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Connect(cfg.DBDSN)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	authSvc := auth.NewService(auth.NewRepo(gdb), auth.Options{
		JWTSecret:   cfg.JWTSecret,
		Issuer:      cfg.JWTIssuer,
		TokenTTL:    cfg.TokenTTL,
		AdminSecret: cfg.AdminSecret,
		Timeout:     cfg.StoreTimeout,
	}, log)

	catalogueSvc := catalogue.NewService(catalogue.NewRepo(gdb), cfg.StoreTimeout, log)
	if cfg.AutoSeed {
		if _, _, err := catalogueSvc.Seed(ctx); err != nil {
			log.Warn("catalogue auto-seed failed", "err", err)
		}
	}

	chatRepo := chat.NewRepo(gdb)
	chatOpts := chat.Options{Timeout: cfg.StoreTimeout, ResponderTimeout: cfg.ChatProviderTimeout}
	chatSvc := chat.NewService(chatRepo, chat.ClientSessionResolver{}, newResponder(ctx, cfg, log), chatOpts, log)

	// both backends are optional: without redis there is no rate limiting,
	// without rabbit submissions are stored but no email goes out
	limiter, closeLimiter := newLimiter(ctx, cfg, log)
	defer closeLimiter()

	var notifier contact.Notifier
	if pub, err := rabbitmq.NewPublisher(cfg.RabbitURL, cfg.RabbitQueue); err != nil {
		log.Warn("rabbitmq unavailable, contact notifications disabled", "err", err)
	} else {
		defer pub.Close()
		notifier = pub
	}

	h := &handlers.Handler{
		Auth:      authSvc,
		Chat:      chatSvc,
		Admin:     chat.NewAdminBridge(authSvc, chatRepo, chatOpts, log),
		Catalogue: catalogueSvc,
		Contact:   contact.NewService(contact.NewRepo(gdb), notifier, cfg.StoreTimeout, log),
		Log:       log,
	}

	if !strings.EqualFold(cfg.LogLevel, "debug") {
		gin.SetMode(gin.ReleaseMode)
	}
	router := httpapi.NewRouter(cfg, httpapi.Deps{
		Handler: h,
		Users:   authSvc,
		Limiter: limiter,
		Log:     log,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// provider replies can take a while
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "responder", cfg.ChatResponder)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// newResponder picks the chat responder from CHAT_RESPONDER. Unknown names
// and provider setup failures fall back to the keyword rules.
func newResponder(ctx context.Context, cfg config.Config, log *slog.Logger) chat.Responder {
	rules := chat.NewRuleResponder(chat.DefaultRules(), chat.FallbackReply)

	reg := ai.NewRegistry()
	reg.Register("ollama", func(_ context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, model), nil
	})
	reg.Register("openrouter", func(_ context.Context, model string) (ai.Provider, error) {
		if strings.TrimSpace(model) == "" {
			model = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, model,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName)
	})

	if cfg.ChatResponder == "" || cfg.ChatResponder == "rules" {
		return rules
	}
	p, err := reg.Get(ctx, cfg.ChatResponder, "")
	if err != nil {
		log.Warn("chat provider unavailable, using rules", "responder", cfg.ChatResponder,
			"known", reg.Names(), "err", err)
		return rules
	}
	return chat.NewProviderResponder(p, rules, cfg.ChatContextWindowSize, log)
}

// newLimiter returns nil when redis does not answer the first ping; the
// router then serves without rate limits.
func newLimiter(ctx context.Context, cfg config.Config, log *slog.Logger) (middleware.Limiter, func()) {
	rdb, err := redisstore.NewClient(ctx, redisstore.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	if err != nil {
		_ = rdb.Close()
		log.Warn("redis unavailable, rate limiting disabled", "addr", cfg.RedisAddr, "err", err)
		return nil, func() {}
	}
	return redisstore.NewLimiter(rdb), func() { _ = rdb.Close() }
}
