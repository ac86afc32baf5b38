package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/leadscout/internal/budget"
)

// OpenAISummarizer summarizes through a chat completion call.
type OpenAISummarizer struct {
	Client      Client
	Model       string
	System      string
	Temperature float32
}

func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, maxTokens int) (Completion, error) {
	if s == nil || s.Client == nil || strings.TrimSpace(s.Model) == "" {
		return Completion{}, fmt.Errorf("openai summarizer not configured")
	}
	system := systemOrDefault(s.System)
	req := openai.ChatCompletionRequest{
		Model: s.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: text},
		},
		MaxTokens:   maxTokens,
		Temperature: s.Temperature,
		N:           1,
	}
	resp, err := s.Client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Completion{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Completion{}, ErrEmptyCompletion
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return Completion{}, ErrEmptyCompletion
	}
	used := resp.Usage.TotalTokens
	if used <= 0 {
		used = budget.EstimatePromptTokens(system, text, []string{out})
	}
	return Completion{Text: out, TokensUsed: used}, nil
}
