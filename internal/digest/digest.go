package digest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/budget"
	"github.com/hyperifyio/leadscout/internal/cache"
	"github.com/hyperifyio/leadscout/internal/llm"
	"github.com/hyperifyio/leadscout/internal/search"
)

const (
	DefaultTopK            = 10
	MaxTopK                = 20
	DefaultMaxInputTokens  = 1500
	DefaultMaxOutputTokens = 300

	// NoLeadsText is returned for an empty result set without calling a model.
	NoLeadsText = "No job leads matched this search. Try broader keywords, a larger radius or more platforms."
)

// ErrSummarizationUnavailable means no summarization backend is configured.
var ErrSummarizationUnavailable = errors.New("summarization unavailable")

// Context carries the human-facing search terms for the prompt.
type Context struct {
	Query    string
	Location string
}

// Generator turns ranked results into a short digest.
type Generator struct {
	Summarizer llm.Summarizer
	// Model names the backend model; used for context sizing and cache keys.
	Model           string
	TopK            int
	MaxInputTokens  int
	MaxOutputTokens int
	Cache           *cache.DigestCache
	Logger          zerolog.Logger
}

// Summarize builds a budgeted prompt from the top results and asks the
// summarizer for a digest, retrying once on error.
func (g *Generator) Summarize(ctx context.Context, res search.AggregationResult, c Context) (*search.Digest, error) {
	if g == nil || g.Summarizer == nil {
		return nil, ErrSummarizationUnavailable
	}
	if len(res.Results) == 0 {
		return &search.Digest{Text: NoLeadsText}, nil
	}
	maxOut := g.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = DefaultMaxOutputTokens
	}
	prompt, used := g.BuildPrompt(res.Results, c)
	logger := g.Logger.With().Str("run_id", res.RunID).Logger()
	logger.Debug().Int("leads", used).Int("prompt_tokens", budget.EstimateTokens(prompt)).Msg("digest prompt built")

	key := cache.KeyFrom(g.Model, maxOut, prompt)
	if g.Cache != nil {
		if raw, ok, _ := g.Cache.Get(ctx, key); ok {
			var d search.Digest
			if err := json.Unmarshal(raw, &d); err == nil && strings.TrimSpace(d.Text) != "" {
				logger.Debug().Msg("digest cache hit")
				return &d, nil
			}
		}
	}

	out, err := g.Summarizer.Summarize(ctx, prompt, maxOut)
	if err != nil {
		logger.Warn().Err(err).Msg("digest call failed; retrying once")
		if serr := sleepFunc(ctx, retryDelay); serr != nil {
			return nil, fmt.Errorf("digest: %w", err)
		}
		out, err = g.Summarizer.Summarize(ctx, prompt, maxOut)
		if err != nil {
			return nil, fmt.Errorf("digest (after retry): %w", err)
		}
	}
	d := &search.Digest{Text: strings.TrimSpace(out.Text), TokensUsed: out.TokensUsed}
	if g.Cache != nil {
		if payload, err := json.Marshal(d); err == nil {
			if err := g.Cache.Save(ctx, key, payload); err != nil {
				logger.Debug().Err(err).Msg("digest cache save failed")
			}
		}
	}
	return d, nil
}

// BuildPrompt renders the user message from at most TopK results, stopping
// before the lead text would exceed the input budget. It returns the prompt
// and how many leads it holds.
func (g *Generator) BuildPrompt(results []search.Result, c Context) (string, int) {
	topK := g.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	if topK > MaxTopK {
		topK = MaxTopK
	}
	maxIn := g.MaxInputTokens
	if maxIn <= 0 {
		maxIn = DefaultMaxInputTokens
	}
	maxOut := g.MaxOutputTokens
	if maxOut <= 0 {
		maxOut = DefaultMaxOutputTokens
	}

	var sb strings.Builder
	sb.WriteString("Summarize these job leads in 3 to 5 sentences.")
	if q := strings.TrimSpace(c.Query); q != "" {
		sb.WriteString("\nSearch: ")
		sb.WriteString(q)
	}
	if l := strings.TrimSpace(c.Location); l != "" {
		sb.WriteString("\nLocation: ")
		sb.WriteString(l)
	}
	sb.WriteString("\n\nLeads (best first):\n")
	header := sb.String()
	allowed := budget.InputBudget(g.Model, maxIn, maxOut, budget.EstimatePromptTokens(llm.DefaultSystemPrompt, header, nil))

	spent, n := 0, 0
	for i, r := range results {
		if i >= topK {
			break
		}
		line := leadLine(n+1, r, true)
		cost := budget.EstimateTokens(line)
		if spent+cost > allowed {
			line = leadLine(n+1, r, false)
			cost = budget.EstimateTokens(line)
			if spent+cost > allowed {
				break
			}
		}
		sb.WriteString(line)
		spent += cost
		n++
	}
	return sb.String(), n
}

func leadLine(n int, r search.Result, withSnippet bool) string {
	line := fmt.Sprintf("%d. [%s] %s (%s)", n, r.Platform, r.Title, r.URL)
	if withSnippet && strings.TrimSpace(r.Snippet) != "" {
		line += "\n   " + r.Snippet
	}
	return line + "\n"
}

const retryDelay = 100 * time.Millisecond

// sleepFunc waits between attempts; tests replace it.
var sleepFunc = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
