package chat

import (
	"context"
	"strings"
	"unicode"
)

const FallbackReply = "Salam! TechTribe-a xoş gəlmisiniz. Sizə necə kömək edə bilərəm? Veb-sayt paketlərimiz haqqında məlumat almaq və ya sifariş vermək üçün buradayam."

// Inbound is what a responder sees for one visitor message.
type Inbound struct {
	ConversationID string
	VisitorName    string
	Text           string
}

type Responder interface {
	Reply(ctx context.Context, in Inbound) (string, error)
}

// Predicate reports whether a normalized message matches. tokens holds the
// lowercased words of text in order.
type Predicate func(text string, tokens []string) bool

type Rule struct {
	Name  string
	Match Predicate
	Reply string
}

// Words matches when any token equals one of words.
func Words(words ...string) Predicate {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = struct{}{}
	}
	return func(_ string, tokens []string) bool {
		for _, t := range tokens {
			if _, ok := set[t]; ok {
				return true
			}
		}
		return false
	}
}

// Stems matches when any token starts with one of stems, which covers
// Azerbaijani case and possessive suffixes ("qiymət" -> "qiymətlər").
func Stems(stems ...string) Predicate {
	lowered := lowerAll(stems)
	return func(_ string, tokens []string) bool {
		for _, t := range tokens {
			for _, s := range lowered {
				if strings.HasPrefix(t, s) {
					return true
				}
			}
		}
		return false
	}
}

// Phrases matches a substring of the normalized message.
func Phrases(phrases ...string) Predicate {
	lowered := lowerAll(phrases)
	return func(text string, _ []string) bool {
		for _, p := range lowered {
			if strings.Contains(text, p) {
				return true
			}
		}
		return false
	}
}

// RuleResponder answers with the reply of the first matching rule, or the
// fallback when none matches. It never fails.
type RuleResponder struct {
	rules    []Rule
	fallback string
}

func NewRuleResponder(rules []Rule, fallback string) *RuleResponder {
	if fallback == "" {
		fallback = FallbackReply
	}
	return &RuleResponder{rules: rules, fallback: fallback}
}

func (r *RuleResponder) Reply(_ context.Context, in Inbound) (string, error) {
	text, tokens := normalizeText(in.Text)
	for _, rule := range r.rules {
		if rule.Match != nil && rule.Match(text, tokens) {
			return rule.Reply, nil
		}
	}
	return r.fallback, nil
}

// DefaultRules is the studio's canned answer table. Order matters: more
// specific intents come before the greeting.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "prices",
			Match: Stems("qiymət", "qiymet", "paket", "neçəyə", "neceye", "price", "cost", "azn"),
			Reply: "Paketlərimiz: Landing Səhifə 299 AZN, Portfolio 399 AZN, Biznes Sayt 499 AZN, Startup 599 AZN, Korporativ 799 AZN, E-Ticarət 999 AZN. Hansı paket sizi maraqlandırır?",
		},
		{
			Name:  "order",
			Match: Stems("sifariş", "sifaris", "order", "almaq", "istəyirəm", "isteyirem"),
			Reply: "Sifariş üçün Əlaqə bölməsindən bizə yazın və ya seçdiyiniz paketin adını buraya göndərin. Komandamız qısa zamanda sizinlə əlaqə saxlayacaq.",
		},
		{
			Name:  "contact",
			Match: Stems("əlaqə", "elaqe", "telefon", "nömrə", "nomre", "email", "ünvan", "unvan", "contact"),
			Reply: "Bizimlə saytdakı Əlaqə formu vasitəsilə əlaqə saxlaya bilərsiniz. Mesajınızı aldıqdan sonra ən qısa zamanda cavab veririk.",
		},
		{
			Name:  "timeline",
			Match: Stems("müddət", "muddet", "vaxt", "deadline"),
			Reply: "Layihənin müddəti paketdən asılıdır: landing səhifə adətən 3-5 gün, biznes və e-ticarət saytları 2-4 həftə çəkir.",
		},
		{
			Name:  "thanks",
			Match: Words("təşəkkür", "tesekkur", "sağol", "sagol", "sağ", "thanks", "thank", "merci"),
			Reply: "Dəyməz! Başqa sualınız olarsa, buradayam.",
		},
		{
			Name:  "greeting",
			Match: Words("salam", "slm", "hi", "hello", "hey", "sabahınız", "axşamınız"),
			Reply: FallbackReply,
		},
	}
}

// normalizeText lowercases the message and splits it into letter/digit runs.
func normalizeText(s string) (string, []string) {
	text := strings.ToLower(strings.TrimSpace(s))
	tokens := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return text, tokens
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
