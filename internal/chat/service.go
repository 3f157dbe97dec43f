package chat

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/techtribe/studio-api/internal/apperr"
)

const (
	MaxMessageLen = 2000

	// ApologyMessage is what the widget shows when the store is unreachable.
	ApologyMessage = "Bağışlayın, texniki xəta baş verdi. Zəhmət olmasa yenidən cəhd edin."
)

type Options struct {
	// bound for each store call
	Timeout time.Duration
	// bound for computing one reply; providers may be slow
	ResponderTimeout time.Duration
}

// Service is the chat orchestrator behind the visitor widget.
type Service struct {
	repo      *Repo
	sessions  SessionResolver
	responder Responder
	timeout   time.Duration
	replyTTL  time.Duration
	log       *slog.Logger
}

func NewService(repo *Repo, sessions SessionResolver, responder Responder, opts Options, log *slog.Logger) *Service {
	if sessions == nil {
		sessions = ClientSessionResolver{}
	}
	if responder == nil {
		responder = NewRuleResponder(DefaultRules(), FallbackReply)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.ResponderTimeout <= 0 {
		opts.ResponderTimeout = 60 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:      repo,
		sessions:  sessions,
		responder: responder,
		timeout:   opts.Timeout,
		replyTTL:  opts.ResponderTimeout,
		log:       log,
	}
}

type SendInput struct {
	SessionID   string
	Message     string
	VisitorName string
}

type SendResult struct {
	Reply          string `json:"reply"`
	ConversationID string `json:"conversation_id"`
	MessageID      uint64 `json:"message_id"`
}

// Send stores the visitor message, computes the bot reply and stores it.
// The work is detached from the caller's cancellation so a widget that goes
// away mid-request cannot leave a visitor message without its reply.
func (s *Service) Send(ctx context.Context, in SendInput) (*SendResult, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return nil, apperr.Validation("Mesaj boş ola bilməz")
	}
	if utf8.RuneCountInString(text) > MaxMessageLen {
		return nil, apperr.Validation("Mesaj çox uzundur")
	}
	sessionID, err := s.sessions.Resolve(ctx, in.SessionID)
	if err != nil {
		return nil, err
	}

	// every step gets its own deadline so a slow responder cannot starve the
	// bot append
	detached := context.WithoutCancel(ctx)

	var conv *Conversation
	err = s.withStore(detached, func(ctx context.Context) (err error) {
		conv, err = s.repo.GetOrCreate(ctx, sessionID, strings.TrimSpace(in.VisitorName))
		return err
	})
	if err != nil {
		return nil, s.unavailable("get conversation", err)
	}
	err = s.withStore(detached, func(ctx context.Context) error {
		_, err := s.repo.AppendToConversation(ctx, conv.ID, SenderVisitor, text)
		return err
	})
	if err != nil {
		return nil, s.unavailable("append visitor message", err)
	}

	reply := s.reply(detached, conv, text)

	var botMsg *Message
	err = s.withStore(detached, func(ctx context.Context) (err error) {
		botMsg, err = s.repo.AppendToConversation(ctx, conv.ID, SenderBot, reply)
		return err
	})
	if err != nil {
		return nil, s.unavailable("append bot message", err)
	}
	return &SendResult{Reply: reply, ConversationID: conv.ID, MessageID: botMsg.ID}, nil
}

func (s *Service) withStore(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return fn(ctx)
}

func (s *Service) reply(ctx context.Context, conv *Conversation, text string) string {
	in := Inbound{ConversationID: conv.ID, Text: text}
	if conv.VisitorName != nil {
		in.VisitorName = *conv.VisitorName
	}

	var (
		reply string
		err   error
	)
	if ha, ok := s.responder.(HistoryAware); ok {
		var history []Message
		herr := s.withStore(ctx, func(ctx context.Context) (err error) {
			history, err = s.repo.RecentMessages(ctx, conv.ID, ha.HistoryWindow())
			return err
		})
		if herr != nil {
			s.log.Warn("load chat history for responder", "conversation_id", conv.ID, "err", herr)
		}
		rctx, cancel := context.WithTimeout(ctx, s.replyTTL)
		reply, err = ha.ReplyWithHistory(rctx, in, history)
		cancel()
	} else {
		rctx, cancel := context.WithTimeout(ctx, s.replyTTL)
		reply, err = s.responder.Reply(rctx, in)
		cancel()
	}
	if err != nil {
		s.log.Warn("responder failed", "conversation_id", conv.ID, "err", err)
	}
	if strings.TrimSpace(reply) == "" {
		return FallbackReply
	}
	return reply
}

type HistoryResult struct {
	ConversationID string    `json:"conversation_id"`
	Messages       []Message `json:"messages"`
}

// History returns the session's messages in append order. An unknown session
// is not an error: it simply has no messages yet.
func (s *Service) History(ctx context.Context, rawSessionID string) (*HistoryResult, error) {
	sessionID, err := s.sessions.Resolve(ctx, rawSessionID)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	conv, err := s.repo.FindBySessionID(ctx, sessionID)
	if errors.Is(err, apperr.ErrNotFound) {
		return &HistoryResult{Messages: []Message{}}, nil
	}
	if err != nil {
		return nil, s.unavailable("find conversation", err)
	}
	msgs, err := s.repo.Messages(ctx, conv.ID)
	if err != nil {
		return nil, s.unavailable("list messages", err)
	}
	return &HistoryResult{ConversationID: conv.ID, Messages: msgs}, nil
}

func (s *Service) CountConversations(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	n, err := s.repo.CountConversations(ctx)
	if err != nil {
		return 0, s.unavailable("count conversations", err)
	}
	return n, nil
}

func (s *Service) unavailable(op string, err error) error {
	var ae *apperr.Error
	if !errors.As(err, &ae) {
		s.log.Error("chat store failure", "op", op, "err", err)
	}
	return apperr.AsUnavailable(err, ApologyMessage)
}
