package chat

import (
	"context"
	"errors"
	"strings"
	"time"

	pkgerrors "github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/techtribe/studio-api/internal/apperr"
	"github.com/techtribe/studio-api/internal/common"
)

const maxListConversations = 100

var (
	errConversationNotFound = apperr.NotFound("Söhbət tapılmadı")
	errEmptyContent         = apperr.Validation("Mesaj boş ola bilməz")
	errBadSender            = apperr.Validation("Göndərən rolu yanlışdır")
)

// Repo is the conversation store. Every mutation of a conversation goes
// through appendTx, which is the only place messages are written.
type Repo struct {
	db *gorm.DB
}

func NewRepo(db *gorm.DB) *Repo {
	return &Repo{db: db}
}

// GetOrCreate returns the conversation for sessionID, creating it on first
// use. A non-empty visitorName replaces the stored one.
func (r *Repo) GetOrCreate(ctx context.Context, sessionID string, visitorName string) (*Conversation, error) {
	conv, err := r.FindBySessionID(ctx, sessionID)
	if err == nil {
		if visitorName != "" && (conv.VisitorName == nil || *conv.VisitorName != visitorName) {
			if err := r.db.WithContext(ctx).Model(&Conversation{}).
				Where("id = ?", conv.ID).
				UpdateColumn("visitor_name", visitorName).Error; err != nil {
				return nil, pkgerrors.Wrap(err, "update visitor name")
			}
			conv.VisitorName = &visitorName
		}
		return conv, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	id, err := common.NewULID()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "conversation id")
	}
	conv = &Conversation{ID: id, SessionID: sessionID}
	if visitorName != "" {
		conv.VisitorName = &visitorName
	}
	if err := r.db.WithContext(ctx).Create(conv).Error; err != nil {
		// a concurrent first send created it; the unique index kept one row
		if existing, findErr := r.FindBySessionID(ctx, sessionID); findErr == nil {
			return existing, nil
		}
		return nil, pkgerrors.Wrap(err, "create conversation")
	}
	return conv, nil
}

func (r *Repo) FindBySessionID(ctx context.Context, sessionID string) (*Conversation, error) {
	return r.find(ctx, "session_id = ?", sessionID)
}

func (r *Repo) FindByID(ctx context.Context, id string) (*Conversation, error) {
	return r.find(ctx, "id = ?", id)
}

func (r *Repo) find(ctx context.Context, query string, arg any) (*Conversation, error) {
	var c Conversation
	if err := r.db.WithContext(ctx).Where(query, arg).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errConversationNotFound
		}
		return nil, pkgerrors.Wrap(err, "find conversation")
	}
	return &c, nil
}

// AppendMessage appends to the conversation owned by sessionID.
func (r *Repo) AppendMessage(ctx context.Context, sessionID string, sender Sender, content string) (*Message, error) {
	return r.appendTx(ctx, "session_id = ?", sessionID, sender, content)
}

// AppendToConversation appends to the conversation with the given public id.
func (r *Repo) AppendToConversation(ctx context.Context, conversationID string, sender Sender, content string) (*Message, error) {
	return r.appendTx(ctx, "id = ?", conversationID, sender, content)
}

// appendTx locks the conversation row, assigns the next seq, inserts the
// message and bumps updated_at in one transaction. Either all of it commits
// or none of it does.
func (r *Repo) appendTx(ctx context.Context, query string, arg any, sender Sender, content string) (*Message, error) {
	if !sender.Valid() {
		return nil, errBadSender
	}
	if strings.TrimSpace(content) == "" {
		return nil, errEmptyContent
	}

	var msg *Message
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv Conversation
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where(query, arg).
			First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errConversationNotFound
			}
			return pkgerrors.Wrap(err, "lock conversation")
		}

		var last uint32
		if err := tx.Model(&Message{}).
			Where("conversation_id = ?", conv.ID).
			Select("COALESCE(MAX(seq), 0)").
			Scan(&last).Error; err != nil {
			return pkgerrors.Wrap(err, "next seq")
		}

		m := &Message{
			ConversationID: conv.ID,
			Seq:            last + 1,
			Sender:         sender,
			Content:        content,
		}
		if err := tx.Create(m).Error; err != nil {
			return pkgerrors.Wrap(err, "insert message")
		}
		if err := tx.Model(&Conversation{}).
			Where("id = ?", conv.ID).
			UpdateColumn("updated_at", time.Now().UTC()).Error; err != nil {
			return pkgerrors.Wrap(err, "touch conversation")
		}
		msg = m
		return nil
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// Messages returns the full history in append order.
func (r *Repo) Messages(ctx context.Context, conversationID string) ([]Message, error) {
	msgs := make([]Message, 0)
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq ASC").
		Find(&msgs).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "list messages")
	}
	return msgs, nil
}

// RecentMessages returns up to limit newest messages, oldest first.
func (r *Repo) RecentMessages(ctx context.Context, conversationID string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = 20
	}
	var desc []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("seq DESC").
		Limit(limit).
		Find(&desc).Error; err != nil {
		return nil, pkgerrors.Wrap(err, "recent messages")
	}
	out := make([]Message, 0, len(desc))
	for i := len(desc) - 1; i >= 0; i-- {
		out = append(out, desc[i])
	}
	return out, nil
}

// ListConversations returns summaries, most recent activity first. Count and
// last message come from correlated subqueries of the same statement, so they
// always describe the message sequence as it was at read time.
func (r *Repo) ListConversations(ctx context.Context, limit int) ([]ConversationSummary, error) {
	if limit <= 0 || limit > maxListConversations {
		limit = maxListConversations
	}
	out := make([]ConversationSummary, 0)
	err := r.db.WithContext(ctx).
		Table("chat_conversations AS c").
		Select(`c.id, c.session_id, c.visitor_name, c.created_at, c.updated_at,
			(SELECT COUNT(*) FROM chat_messages m WHERE m.conversation_id = c.id) AS message_count,
			COALESCE((SELECT m2.content FROM chat_messages m2 WHERE m2.conversation_id = c.id ORDER BY m2.seq DESC LIMIT 1), '') AS last_message`).
		Order("c.updated_at DESC").
		Order("c.id DESC").
		Limit(limit).
		Scan(&out).Error
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list conversations")
	}
	return out, nil
}

func (r *Repo) CountConversations(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&Conversation{}).Count(&n).Error
	return n, pkgerrors.Wrap(err, "count conversations")
}
