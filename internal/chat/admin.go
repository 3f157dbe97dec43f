package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/models"
)

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

// AdminBridge is the admin console's view of the conversation store. Every
// call authenticates the token it is given; nothing is cached between calls.
type AdminBridge struct {
	auth    Authenticator
	repo    *Repo
	timeout time.Duration
	log     *slog.Logger
}

func NewAdminBridge(auth Authenticator, repo *Repo, opts Options, log *slog.Logger) *AdminBridge {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &AdminBridge{auth: auth, repo: repo, timeout: opts.Timeout, log: log}
}

func (b *AdminBridge) List(ctx context.Context, token string) ([]ConversationSummary, error) {
	if _, err := b.authorize(ctx, token); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	out, err := b.repo.ListConversations(ctx, maxListConversations)
	if err != nil {
		return nil, apperr.AsUnavailable(err, "Söhbətlər yüklənə bilmədi")
	}
	return out, nil
}

func (b *AdminBridge) Open(ctx context.Context, token, conversationID string) ([]Message, error) {
	if _, err := b.authorize(ctx, token); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	if _, err := b.repo.FindByID(ctx, conversationID); err != nil {
		return nil, apperr.AsUnavailable(err, "Söhbət yüklənə bilmədi")
	}
	msgs, err := b.repo.Messages(ctx, conversationID)
	if err != nil {
		return nil, apperr.AsUnavailable(err, "Mesajlar yüklənə bilmədi")
	}
	return msgs, nil
}

func (b *AdminBridge) Reply(ctx context.Context, token, conversationID, content string) (*Message, error) {
	u, err := b.authorize(ctx, token)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, errEmptyContent
	}
	if len([]rune(content)) > MaxMessageLen {
		return nil, apperr.Validation("Mesaj çox uzundur")
	}
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()
	msg, err := b.repo.AppendToConversation(ctx, conversationID, SenderAdmin, content)
	if err != nil {
		return nil, apperr.AsUnavailable(err, "Cavab göndərilə bilmədi")
	}
	b.log.Info("admin replied", "conversation_id", conversationID, "user_id", u.ID, "message_id", msg.ID)
	return msg, nil
}

func (b *AdminBridge) authorize(ctx context.Context, token string) (*models.User, error) {
	u, err := b.auth.CurrentUser(ctx, token)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Wrap(apperr.CodeUnauthenticated, "İstifadəçi tapılmadı", err)
		}
		return nil, err
	}
	if u.IsBlocked || !u.IsAdmin() {
		return nil, apperr.Forbidden("Bu əməliyyat üçün icazəniz yoxdur")
	}
	return u, nil
}
