package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"

	"github.com/hyperifyio/leadscout/internal/budget"
)

// MessagesClient mirrors the go-anthropic CreateMessages method.
type MessagesClient interface {
	CreateMessages(ctx context.Context, request anthropic.MessagesRequest) (anthropic.MessagesResponse, error)
}

// NewAnthropicClient builds a messages client. An empty baseURL keeps the
// library default.
func NewAnthropicClient(baseURL, apiKey string, hc *http.Client) *anthropic.Client {
	var opts []anthropic.ClientOption
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, anthropic.WithBaseURL(strings.TrimRight(baseURL, "/")))
	}
	if hc != nil {
		opts = append(opts, anthropic.WithHTTPClient(hc))
	}
	return anthropic.NewClient(apiKey, opts...)
}

// AnthropicSummarizer summarizes through the Anthropic messages API.
type AnthropicSummarizer struct {
	Client MessagesClient
	Model  string
	System string
}

func (s *AnthropicSummarizer) Summarize(ctx context.Context, text string, maxTokens int) (Completion, error) {
	if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return Completion{}, fmt.Errorf("anthropic summarizer not configured")
	}
	system := systemOrDefault(s.System)
	resp, err := s.Client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     anthropic.Model(s.Model),
		System:    system,
		Messages:  []anthropic.Message{anthropic.NewUserTextMessage(text)},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("messages: %w", err)
	}
	var parts []string
	for _, c := range resp.Content {
		if c.Type != anthropic.MessagesContentTypeText {
			continue
		}
		if t := strings.TrimSpace(c.GetText()); t != "" {
			parts = append(parts, t)
		}
	}
	out := strings.Join(parts, "\n")
	if out == "" {
		return Completion{}, ErrEmptyCompletion
	}
	used := resp.Usage.InputTokens + resp.Usage.OutputTokens
	if used <= 0 {
		used = budget.EstimatePromptTokens(system, text, []string{out})
	}
	return Completion{Text: out, TokensUsed: used}, nil
}
