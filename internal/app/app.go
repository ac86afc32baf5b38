package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/cache"
	"github.com/hyperifyio/leadscout/internal/digest"
	"github.com/hyperifyio/leadscout/internal/engine"
	"github.com/hyperifyio/leadscout/internal/llm"
	"github.com/hyperifyio/leadscout/internal/platform"
	"github.com/hyperifyio/leadscout/internal/search"
)

// Messages shown to end users. Internal error detail goes to the log only.
const (
	MsgInvalidRequest = "Invalid request"
	MsgUnavailable    = "Unable to fetch job leads at this time"
)

// cacheMaxBytes bounds the digest cache on startup.
const cacheMaxBytes = 16 << 20

// Request is one search as received from the CLI.
type Request struct {
	Keywords       string
	Location       string
	RadiusKm       float64
	Platforms      []search.PlatformID
	MaxResults     int
	IncludeSummary bool
}

// DefaultRequest builds a Request from the query defaults in cfg.
func DefaultRequest(cfg Config) Request {
	return Request{
		Keywords:       cfg.Keywords,
		Location:       cfg.Location,
		RadiusKm:       cfg.RadiusKm,
		Platforms:      append([]search.PlatformID(nil), cfg.Platforms...),
		MaxResults:     cfg.MaxResults,
		IncludeSummary: cfg.IncludeSummary,
	}
}

// Failure reports one platform that did not contribute.
type Failure struct {
	Platform search.PlatformID `json:"platform"`
	Kind     string            `json:"kind"`
	Message  string            `json:"message"`
	Attempts int               `json:"attempts"`
}

// Response is the serialized answer for one search. Summary is null when no
// digest was requested or the summarizer was unavailable.
type Response struct {
	RunID            string              `json:"runId"`
	Results          []search.Result     `json:"results"`
	Summary          *string             `json:"summary"`
	TokensUsed       int                 `json:"tokensUsed,omitempty"`
	GeneratedAt      string              `json:"generatedAt"`
	Total            int                 `json:"total"`
	Platforms        []search.PlatformID `json:"platforms"`
	PlatformsQueried []search.PlatformID `json:"platformsQueried"`
	Failures         []Failure           `json:"failures"`
}

type App struct {
	cfg      Config
	registry *platform.Registry
	engine   *engine.Engine
	digest   *digest.Generator
	logger   zerolog.Logger
}

// New wires adapters, the engine and the digest generator from cfg.
func New(_ context.Context, cfg Config) (*App, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	logger := cfg.Logger
	reg, err := buildRegistry(cfg)
	if err != nil {
		return nil, err
	}
	if reg.Len() == 0 {
		logger.Warn().Msg("no platform adapters configured")
	}
	opts := engine.DefaultOptions()
	opts.PerAdapterTimeout = cfg.AdapterTimeout
	opts.RunDeadline = cfg.RunDeadline
	opts.MaxParallel = cfg.MaxParallel
	opts.MinScore = cfg.MinScore
	opts.ResultCap = cfg.ResultCap
	opts.Priority = search.NewPriority(cfg.Priority)
	opts.Logger = logger
	opts.Metrics = cfg.Metrics

	a := &App{
		cfg:      cfg,
		registry: reg,
		engine:   engine.New(reg, opts),
		logger:   logger,
	}

	sum, model := buildSummarizer(cfg)
	if sum != nil {
		a.digest = &digest.Generator{
			Summarizer:      sum,
			Model:           model,
			TopK:            cfg.DigestTopK,
			MaxInputTokens:  cfg.DigestMaxInputTokens,
			MaxOutputTokens: cfg.DigestMaxOutputTokens,
			Cache:           prepareCache(cfg, logger),
			Logger:          logger,
		}
		logger.Debug().Str("provider", cfg.LLMProvider).Str("model", model).Msg("summarizer configured")
	}
	return a, nil
}

// Platforms lists the registered platform ids.
func (a *App) Platforms() []search.PlatformID { return a.registry.Platforms() }

// SummaryConfigured reports whether a summarizer is wired.
func (a *App) SummaryConfigured() bool { return a.digest != nil }

// Search runs one aggregation and, when asked, the digest. A digest failure
// never fails the search; the summary is left null.
func (a *App) Search(ctx context.Context, req Request) (Response, error) {
	q, err := search.NewQuery(req.Keywords, req.Location, req.RadiusKm, req.Platforms, req.MaxResults)
	if err != nil {
		return Response{}, err
	}
	res, err := a.engine.Run(ctx, q)
	if err != nil {
		return Response{}, err
	}
	resp := newResponse(res)
	if !req.IncludeSummary {
		return resp, nil
	}
	if a.digest == nil {
		a.logger.Info().Str("run_id", res.RunID).Msg("summary requested but no summarizer configured")
		return resp, nil
	}
	d, err := a.digest.Summarize(ctx, res, digest.Context{Query: q.Keywords, Location: q.Location})
	if err != nil {
		a.logger.Warn().Err(err).Str("run_id", res.RunID).Msg("digest failed; returning results without summary")
		return resp, nil
	}
	text := d.Text
	resp.Summary = &text
	resp.TokensUsed = d.TokensUsed
	return resp, nil
}

func newResponse(res search.AggregationResult) Response {
	results := res.Results
	if results == nil {
		results = []search.Result{}
	}
	failures := make([]Failure, 0)
	for _, o := range res.Failed() {
		failures = append(failures, Failure{
			Platform: o.Platform,
			Kind:     string(o.Kind),
			Message:  o.Message,
			Attempts: o.Attempts,
		})
	}
	return Response{
		RunID:            res.RunID,
		Results:          results,
		GeneratedAt:      res.GeneratedAt.UTC().Format(time.RFC3339),
		Total:            len(results),
		Platforms:        nonNil(res.PlatformsRequested),
		PlatformsQueried: nonNil(res.PlatformsQueried),
		Failures:         failures,
	}
}

func nonNil(p []search.PlatformID) []search.PlatformID {
	if p == nil {
		return []search.PlatformID{}
	}
	return p
}

// UserMessage maps an error from Search to the message shown to users.
func UserMessage(err error) string {
	var ve *search.ValidationError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &ve):
		return fmt.Sprintf("%s: %s %s", MsgInvalidRequest, ve.Field, ve.Message)
	case errors.Is(err, search.ErrInvalidQuery):
		return MsgInvalidRequest
	default:
		return MsgUnavailable
	}
}

// buildRegistry registers adapters for cfg. A fixture file replaces every
// network adapter so offline runs never touch the network.
func buildRegistry(cfg Config) (*platform.Registry, error) {
	reg := platform.NewRegistry()
	if strings.TrimSpace(cfg.FixturePath) != "" {
		fixtures, err := platform.LoadFixtures(cfg.FixturePath)
		if err != nil {
			return nil, fmt.Errorf("load fixture: %w", err)
		}
		for id := range fixtures {
			if err := reg.Register(&platform.FileAdapter{ID: id, Path: cfg.FixturePath}); err != nil {
				return nil, err
			}
		}
		return reg, nil
	}

	hc := platform.NewHTTPClient(platform.DefaultTimeout)
	if cfg.SearxURL != "" {
		for _, s := range []*platform.SearxAdapter{
			platform.NewFacebookAdapter(cfg.SearxURL, cfg.SearxKey, hc),
			platform.NewInstagramAdapter(cfg.SearxURL, cfg.SearxKey, hc),
		} {
			s.UserAgent = cfg.SearxUA
			if err := reg.Register(s); err != nil {
				return nil, err
			}
		}
	}
	if err := reg.Register(&platform.LinkedInAdapter{BaseURL: cfg.LinkedInBaseURL, HTTPClient: hc}); err != nil {
		return nil, err
	}
	for _, f := range cfg.Feeds {
		if err := reg.Register(&platform.FeedAdapter{ID: f.ID, URLTemplate: f.URL, HTTPClient: hc}); err != nil {
			return nil, fmt.Errorf("feed %s: %w", f.ID, err)
		}
	}
	return reg, nil
}

// buildSummarizer returns nil when no provider is usable.
func buildSummarizer(cfg Config) (llm.Summarizer, string) {
	hc := platform.NewHTTPClient(platform.LLMTimeout)
	switch cfg.LLMProvider {
	case ProviderAnthropic:
		if strings.TrimSpace(cfg.AnthropicAPIKey) == "" {
			return nil, ""
		}
		model := pick(cfg.LLMModel, DefaultAnthropicModel)
		return &llm.AnthropicSummarizer{
			Client: llm.NewAnthropicClient(cfg.LLMBaseURL, cfg.AnthropicAPIKey, hc),
			Model:  model,
			System: cfg.SystemPrompt,
		}, model
	default:
		// Local OpenAI-compatible servers need no key, but they do need a URL.
		if strings.TrimSpace(cfg.LLMBaseURL) == "" && strings.TrimSpace(cfg.LLMAPIKey) == "" {
			return nil, ""
		}
		model := pick(cfg.LLMModel, DefaultOpenAIModel)
		return &llm.OpenAISummarizer{
			Client: llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, hc),
			Model:  model,
			System: cfg.SystemPrompt,
		}, model
	}
}

// prepareCache applies the invalidation controls and returns the digest
// cache, or nil when caching is off.
func prepareCache(cfg Config, logger zerolog.Logger) *cache.DigestCache {
	if strings.TrimSpace(cfg.CacheDir) == "" {
		return nil
	}
	if cfg.CacheClear {
		if err := cache.ClearDir(cfg.CacheDir); err != nil {
			logger.Warn().Err(err).Str("dir", cfg.CacheDir).Msg("cache clear failed")
		}
	}
	if cfg.CacheMaxAge > 0 {
		if n, err := cache.PurgeByAge(cfg.CacheDir, cfg.CacheMaxAge); err != nil {
			logger.Warn().Err(err).Msg("cache purge failed")
		} else if n > 0 {
			logger.Debug().Int("removed", n).Msg("purged stale digests")
		}
	}
	if n, err := cache.EnforceLimits(cfg.CacheDir, cacheMaxBytes, cfg.CacheMaxCount); err != nil {
		logger.Warn().Err(err).Msg("cache limit enforcement failed")
	} else if n > 0 {
		logger.Debug().Int("removed", n).Msg("evicted digests over limit")
	}
	return &cache.DigestCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms, MaxAge: cfg.CacheMaxAge}
}

func pick(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}
