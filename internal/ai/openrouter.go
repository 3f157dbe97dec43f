package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
)

// OpenRouterProvider talks to OpenRouter's OpenAI-compatible endpoint.
type OpenRouterProvider struct {
	client *openai.Client
	model  string
}

func NewOpenRouterProvider(baseURL, apiKey, model, siteURL, appName string) (*OpenRouterProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("openrouter: api key is required")
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, errors.New("openrouter: model is required")
	}
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}

	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	cfg.HTTPClient = &http.Client{
		Timeout:   60 * time.Second,
		Transport: attributionTransport{siteURL: siteURL, appName: appName},
	}
	return &OpenRouterProvider{client: openai.NewClientWithConfig(cfg), model: model}, nil
}

func (p *OpenRouterProvider) Chat(ctx context.Context, messages []Message) (string, error) {
	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    p.model,
		Messages: msgs,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openrouter: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

// attributionTransport sets the optional OpenRouter ranking headers.
type attributionTransport struct {
	siteURL string
	appName string
}

func (t attributionTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.siteURL != "" || t.appName != "" {
		req = req.Clone(req.Context())
		if t.siteURL != "" {
			req.Header.Set("HTTP-Referer", t.siteURL)
		}
		if t.appName != "" {
			req.Header.Set("X-Title", t.appName)
		}
	}
	return http.DefaultTransport.RoundTrip(req)
}
