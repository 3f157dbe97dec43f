package ai

import "context"

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Provider answers a chat transcript with one assistant message.
type Provider interface {
	Chat(ctx context.Context, messages []Message) (string, error)
}
