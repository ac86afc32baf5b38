package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Client is the minimal interface needed to call an OpenAI-compatible chat
// model. It mirrors CreateChatCompletion so any compatible or local backend
// can be adapted.
type Client interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Completion is the text a backend produced and the tokens it billed.
type Completion struct {
	Text       string
	TokensUsed int
}

// Summarizer condenses prompt text into at most maxTokens of output.
type Summarizer interface {
	Summarize(ctx context.Context, text string, maxTokens int) (Completion, error)
}

// ErrEmptyCompletion is returned when a backend answers with no text.
var ErrEmptyCompletion = errors.New("empty completion")

// DefaultSystemPrompt frames every digest request.
const DefaultSystemPrompt = "You summarize job leads for a job seeker. Use only the leads provided. " +
	"Be concise and factual, mention where the strongest leads are and which platforms they came from. " +
	"Do not invent employers, salaries or contact details."

// OpenAIProvider adapts *openai.Client to Client.
type OpenAIProvider struct {
	Inner *openai.Client
}

// NewOpenAIProvider builds a client for an OpenAI-compatible endpoint. An
// empty baseURL keeps the library default.
func NewOpenAIProvider(baseURL, apiKey string, hc *http.Client) *OpenAIProvider {
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	if hc != nil {
		cfg.HTTPClient = hc
	}
	return &OpenAIProvider{Inner: openai.NewClientWithConfig(cfg)}
}

func (p *OpenAIProvider) CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return p.Inner.CreateChatCompletion(ctx, request)
}

func systemOrDefault(s string) string {
	if strings.TrimSpace(s) == "" {
		return DefaultSystemPrompt
	}
	return s
}
