package chat

import "time"

type Sender string

const (
	SenderVisitor Sender = "visitor"
	SenderBot     Sender = "bot"
	SenderAdmin   Sender = "admin"
)

func (s Sender) Valid() bool {
	switch s {
	case SenderVisitor, SenderBot, SenderAdmin:
		return true
	}
	return false
}

// Conversation is the message log of one widget session.
type Conversation struct {
	ID          string    `gorm:"type:char(26);primaryKey" json:"id"`
	SessionID   string    `gorm:"type:varchar(64);uniqueIndex;not null" json:"session_id"`
	VisitorName *string   `gorm:"type:varchar(128)" json:"user_name"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `gorm:"index" json:"updated_at"`

	Messages []Message `gorm:"foreignKey:ConversationID;constraint:OnDelete:CASCADE" json:"-"`
}

func (Conversation) TableName() string { return "chat_conversations" }

type Message struct {
	ID             uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	ConversationID string    `gorm:"type:char(26);not null;uniqueIndex:uniq_chat_msg_seq,priority:1" json:"conversation_id"`
	Seq            uint32    `gorm:"not null;uniqueIndex:uniq_chat_msg_seq,priority:2" json:"seq"`
	Sender         Sender    `gorm:"type:varchar(16);not null;check:chk_chat_msg_sender,sender IN ('visitor','bot','admin')" json:"sender"`
	Content        string    `gorm:"type:text;not null" json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

func (Message) TableName() string { return "chat_messages" }

// ConversationSummary is a list row for the admin console. MessageCount and
// LastMessage are computed by the same query that reads the row.
type ConversationSummary struct {
	ID           string    `json:"id"`
	SessionID    string    `json:"session_id"`
	VisitorName  *string   `json:"user_name"`
	LastMessage  string    `json:"last_message"`
	MessageCount int64     `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
