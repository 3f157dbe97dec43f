package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/techtribe/studio-api/internal/ai"
)

const SystemPrompt = "Sən TechTribe-ın köməkçisisən. TechTribe professional veb-saytlar hazırlayır və hazır veb-sayt paketləri satır. " +
	"Həmişə Azərbaycan dilində, qısa və aydın cavab ver (2-3 cümlə). " +
	"Paketlər: Biznes Sayt (499 AZN), E-Ticarət (999 AZN), Landing Səhifə (299 AZN), Portfolio (399 AZN), Korporativ (799 AZN), Startup (599 AZN)."

// HistoryAware responders get the recent transcript alongside the inbound
// message. The orchestrator loads history only for them.
type HistoryAware interface {
	Responder
	HistoryWindow() int
	ReplyWithHistory(ctx context.Context, in Inbound, history []Message) (string, error)
}

// ProviderResponder asks an LLM provider and falls back to a rule responder
// whenever the provider errors or answers with nothing.
type ProviderResponder struct {
	provider ai.Provider
	fallback Responder
	window   int
	prompt   string
	log      *slog.Logger
}

func NewProviderResponder(p ai.Provider, fallback Responder, window int, log *slog.Logger) *ProviderResponder {
	if window <= 0 || window > 100 {
		window = 20
	}
	if fallback == nil {
		fallback = NewRuleResponder(DefaultRules(), FallbackReply)
	}
	if log == nil {
		log = slog.Default()
	}
	return &ProviderResponder{provider: p, fallback: fallback, window: window, prompt: SystemPrompt, log: log}
}

func (r *ProviderResponder) HistoryWindow() int { return r.window }

func (r *ProviderResponder) Reply(ctx context.Context, in Inbound) (string, error) {
	return r.ReplyWithHistory(ctx, in, nil)
}

// ReplyWithHistory expects history oldest first; it already contains the
// inbound message when the orchestrator stored it before asking.
func (r *ProviderResponder) ReplyWithHistory(ctx context.Context, in Inbound, history []Message) (string, error) {
	msgs := make([]ai.Message, 0, len(history)+2)
	msgs = append(msgs, ai.Message{Role: ai.RoleSystem, Content: r.prompt})
	for _, m := range history {
		msgs = append(msgs, ai.Message{Role: providerRole(m.Sender), Content: m.Content})
	}
	if len(history) == 0 || history[len(history)-1].Sender != SenderVisitor || history[len(history)-1].Content != in.Text {
		msgs = append(msgs, ai.Message{Role: ai.RoleUser, Content: in.Text})
	}

	reply, err := r.provider.Chat(ctx, msgs)
	if err == nil && strings.TrimSpace(reply) != "" {
		return strings.TrimSpace(reply), nil
	}
	if err != nil {
		r.log.Warn("ai provider failed, using rules", "conversation_id", in.ConversationID, "err", err)
	}
	return r.fallback.Reply(ctx, in)
}

func providerRole(s Sender) string {
	if s == SenderVisitor {
		return ai.RoleUser
	}
	return ai.RoleAssistant
}
