package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hyperifyio/leadscout/internal/digest"
	"github.com/hyperifyio/leadscout/internal/engine"
	"github.com/hyperifyio/leadscout/internal/metrics"
	"github.com/hyperifyio/leadscout/internal/rank"
	"github.com/hyperifyio/leadscout/internal/search"
)

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"

	FormatMarkdown = "markdown"
	FormatJSON     = "json"

	DefaultCacheDir       = ".leadscout-cache"
	DefaultOpenAIModel    = "gpt-4o-mini"
	DefaultAnthropicModel = "claude-3-5-haiku-latest"
	DefaultLinkedInURL    = "https://www.linkedin.com"
)

// FeedSource registers an RSS/Atom feed as its own platform.
type FeedSource struct {
	ID  search.PlatformID `yaml:"id" json:"id"`
	URL string            `yaml:"url" json:"url"`
}

// Config holds runtime configuration for the application.
type Config struct {
	// Query defaults; a Request may override them.
	Keywords       string
	Location       string
	RadiusKm       float64
	Platforms      []search.PlatformID
	MaxResults     int
	IncludeSummary bool

	// Output
	OutputPath    string
	Format        string
	OutputPDFPath string

	// Platforms
	SearxURL        string
	SearxKey        string
	SearxUA         string
	LinkedInBaseURL string
	Feeds           []FeedSource
	FixturePath     string

	// Engine
	AdapterTimeout time.Duration
	RunDeadline    time.Duration
	MaxParallel    int
	MinScore       float64
	ResultCap      int
	Priority       []search.PlatformID

	// LLM
	LLMProvider     string
	LLMBaseURL      string
	LLMModel        string
	LLMAPIKey       string
	AnthropicAPIKey string
	SystemPrompt    string

	// Digest
	DigestTopK            int
	DigestMaxInputTokens  int
	DigestMaxOutputTokens int

	// Cache
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheClear       bool
	CacheStrictPerms bool
	CacheMaxCount    int

	// Behavior
	Verbose        bool
	MetricsAddr    string
	MetricsPushURL string

	// Logger and Metrics are wiring, not configuration; they are never read
	// from files or the environment.
	Logger  zerolog.Logger
	Metrics *metrics.Recorder
}

// DefaultConfig returns the configuration used when nothing else is set. The
// query defaults mirror the web form the tool grew out of.
func DefaultConfig() Config {
	return Config{
		Keywords:              search.DefaultKeywords,
		Location:              search.DefaultLocation,
		Platforms:             append([]search.PlatformID(nil), search.DefaultPriority...),
		OutputPath:            "-",
		Format:                FormatMarkdown,
		SearxUA:               "",
		LinkedInBaseURL:       DefaultLinkedInURL,
		AdapterTimeout:        engine.DefaultPerAdapterTimeout,
		RunDeadline:           engine.DefaultRunDeadline,
		MinScore:              rank.DefaultMinScore,
		ResultCap:             rank.DefaultCap,
		LLMProvider:           ProviderOpenAI,
		DigestTopK:            digest.DefaultTopK,
		DigestMaxInputTokens:  digest.DefaultMaxInputTokens,
		DigestMaxOutputTokens: digest.DefaultMaxOutputTokens,
		CacheDir:              DefaultCacheDir,
		Logger:                zerolog.Nop(),
	}
}

// ParseFeeds parses "id=urlTemplate,id=urlTemplate".
func ParseFeeds(s string) ([]FeedSource, error) {
	var out []FeedSource
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, u, ok := strings.Cut(part, "=")
		id, u = strings.TrimSpace(id), strings.TrimSpace(u)
		if !ok || id == "" || u == "" {
			return nil, fmt.Errorf("feed %q: want id=url", part)
		}
		out = append(out, FeedSource{ID: search.PlatformID(strings.ToLower(id)), URL: u})
	}
	return out, nil
}

// FormatFeeds is the inverse of ParseFeeds.
func FormatFeeds(feeds []FeedSource) string {
	parts := make([]string, 0, len(feeds))
	for _, f := range feeds {
		parts = append(parts, string(f.ID)+"="+f.URL)
	}
	return strings.Join(parts, ",")
}
