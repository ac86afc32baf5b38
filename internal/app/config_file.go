package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/hyperifyio/leadscout/internal/digest"
	"github.com/hyperifyio/leadscout/internal/search"
)

// FileConfig represents the single-file configuration schema. Sections map
// onto flag prefixes.
type FileConfig struct {
	Query struct {
		Keywords   string              `yaml:"keywords" json:"keywords"`
		Location   string              `yaml:"location" json:"location"`
		RadiusKm   float64             `yaml:"radiusKm" json:"radiusKm"`
		Platforms  []search.PlatformID `yaml:"platforms" json:"platforms"`
		MaxResults int                 `yaml:"maxResults" json:"maxResults"`
		Summary    bool                `yaml:"summary" json:"summary"`
	} `yaml:"query" json:"query"`

	Output struct {
		Path   string `yaml:"path" json:"path"`
		Format string `yaml:"format" json:"format"`
		PDF    string `yaml:"pdf" json:"pdf"`
	} `yaml:"output" json:"output"`

	Searx struct {
		URL string `yaml:"url" json:"url"`
		Key string `yaml:"key" json:"key"`
		UA  string `yaml:"ua" json:"ua"`
	} `yaml:"searx" json:"searx"`

	LinkedIn struct {
		BaseURL string `yaml:"baseURL" json:"baseURL"`
	} `yaml:"linkedin" json:"linkedin"`

	Feeds   []FeedSource `yaml:"feeds" json:"feeds"`
	Fixture string       `yaml:"fixture" json:"fixture"`

	Engine struct {
		AdapterTimeout time.Duration       `yaml:"adapterTimeout" json:"adapterTimeout"`
		RunDeadline    time.Duration       `yaml:"runDeadline" json:"runDeadline"`
		MaxParallel    int                 `yaml:"maxParallel" json:"maxParallel"`
		MinScore       *float64            `yaml:"minScore" json:"minScore"`
		ResultCap      int                 `yaml:"resultCap" json:"resultCap"`
		Priority       []search.PlatformID `yaml:"priority" json:"priority"`
	} `yaml:"engine" json:"engine"`

	LLM struct {
		Provider     string `yaml:"provider" json:"provider"`
		BaseURL      string `yaml:"base" json:"base"`
		Model        string `yaml:"model" json:"model"`
		APIKey       string `yaml:"key" json:"key"`
		AnthropicKey string `yaml:"anthropicKey" json:"anthropicKey"`
		SystemPrompt string `yaml:"systemPrompt" json:"systemPrompt"`
	} `yaml:"llm" json:"llm"`

	Digest struct {
		TopK            int `yaml:"topK" json:"topK"`
		MaxInputTokens  int `yaml:"maxInputTokens" json:"maxInputTokens"`
		MaxOutputTokens int `yaml:"maxOutputTokens" json:"maxOutputTokens"`
	} `yaml:"digest" json:"digest"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		Clear       bool          `yaml:"clear" json:"clear"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
		MaxCount    int           `yaml:"maxCount" json:"maxCount"`
	} `yaml:"cache" json:"cache"`

	Metrics struct {
		Addr    string `yaml:"addr" json:"addr"`
		PushURL string `yaml:"pushURL" json:"pushURL"`
	} `yaml:"metrics" json:"metrics"`

	Verbose bool `yaml:"verbose" json:"verbose"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch ext := filepath.Ext(path); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays every value set in fc onto cfg. Env and flags are
// applied afterwards so they keep precedence.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	setStr := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, v int) {
		if v != 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, v time.Duration) {
		if v > 0 {
			*dst = v
		}
	}
	setTrue := func(dst *bool, v bool) {
		if v {
			*dst = true
		}
	}

	setStr(&cfg.Keywords, fc.Query.Keywords)
	setStr(&cfg.Location, fc.Query.Location)
	if fc.Query.RadiusKm != 0 {
		cfg.RadiusKm = fc.Query.RadiusKm
	}
	if len(fc.Query.Platforms) > 0 {
		cfg.Platforms = append([]search.PlatformID(nil), fc.Query.Platforms...)
	}
	setInt(&cfg.MaxResults, fc.Query.MaxResults)
	setTrue(&cfg.IncludeSummary, fc.Query.Summary)

	setStr(&cfg.OutputPath, fc.Output.Path)
	setStr(&cfg.Format, fc.Output.Format)
	setStr(&cfg.OutputPDFPath, fc.Output.PDF)

	setStr(&cfg.SearxURL, fc.Searx.URL)
	setStr(&cfg.SearxKey, fc.Searx.Key)
	setStr(&cfg.SearxUA, fc.Searx.UA)
	setStr(&cfg.LinkedInBaseURL, fc.LinkedIn.BaseURL)
	if len(fc.Feeds) > 0 {
		cfg.Feeds = append([]FeedSource(nil), fc.Feeds...)
	}
	setStr(&cfg.FixturePath, fc.Fixture)

	setDur(&cfg.AdapterTimeout, fc.Engine.AdapterTimeout)
	setDur(&cfg.RunDeadline, fc.Engine.RunDeadline)
	setInt(&cfg.MaxParallel, fc.Engine.MaxParallel)
	if fc.Engine.MinScore != nil {
		cfg.MinScore = *fc.Engine.MinScore
	}
	setInt(&cfg.ResultCap, fc.Engine.ResultCap)
	if len(fc.Engine.Priority) > 0 {
		cfg.Priority = append([]search.PlatformID(nil), fc.Engine.Priority...)
	}

	setStr(&cfg.LLMProvider, strings.ToLower(fc.LLM.Provider))
	setStr(&cfg.LLMBaseURL, fc.LLM.BaseURL)
	setStr(&cfg.LLMModel, fc.LLM.Model)
	setStr(&cfg.LLMAPIKey, fc.LLM.APIKey)
	setStr(&cfg.AnthropicAPIKey, fc.LLM.AnthropicKey)
	setStr(&cfg.SystemPrompt, fc.LLM.SystemPrompt)

	setInt(&cfg.DigestTopK, fc.Digest.TopK)
	setInt(&cfg.DigestMaxInputTokens, fc.Digest.MaxInputTokens)
	setInt(&cfg.DigestMaxOutputTokens, fc.Digest.MaxOutputTokens)

	setStr(&cfg.CacheDir, fc.Cache.Dir)
	setDur(&cfg.CacheMaxAge, fc.Cache.MaxAge)
	setTrue(&cfg.CacheClear, fc.Cache.Clear)
	setTrue(&cfg.CacheStrictPerms, fc.Cache.StrictPerms)
	setInt(&cfg.CacheMaxCount, fc.Cache.MaxCount)

	setStr(&cfg.MetricsAddr, fc.Metrics.Addr)
	setStr(&cfg.MetricsPushURL, fc.Metrics.PushURL)
	setTrue(&cfg.Verbose, fc.Verbose)
}

// ValidateConfig checks settings that do not depend on a particular query.
// Query fields are validated by search.NewQuery at run time.
func ValidateConfig(cfg Config) error {
	if cfg.MaxResults < 0 || cfg.MaxParallel < 0 || cfg.ResultCap < 0 || cfg.CacheMaxCount < 0 {
		return errors.New("config: negative limits are not allowed")
	}
	if cfg.AdapterTimeout < 0 || cfg.RunDeadline < 0 || cfg.CacheMaxAge < 0 {
		return errors.New("config: negative durations are not allowed")
	}
	if cfg.MinScore < 0 || cfg.MinScore > 100 {
		return fmt.Errorf("config: minScore %.2f outside [0,100]", cfg.MinScore)
	}
	if cfg.DigestTopK < 0 || cfg.DigestTopK > digest.MaxTopK {
		return fmt.Errorf("config: digest.topK must be within [0,%d]", digest.MaxTopK)
	}
	if cfg.DigestMaxInputTokens < 0 || cfg.DigestMaxOutputTokens < 0 {
		return errors.New("config: negative token budgets are not allowed")
	}
	switch cfg.LLMProvider {
	case "", ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("config: unknown llm.provider %q", cfg.LLMProvider)
	}
	switch cfg.Format {
	case "", FormatMarkdown, FormatJSON:
	default:
		return fmt.Errorf("config: unknown output format %q", cfg.Format)
	}
	seen := map[search.PlatformID]bool{}
	for _, f := range cfg.Feeds {
		if !f.ID.Valid() {
			return fmt.Errorf("config: invalid feed id %q", f.ID)
		}
		if seen[f.ID] {
			return fmt.Errorf("config: duplicate feed id %q", f.ID)
		}
		seen[f.ID] = true
		if strings.TrimSpace(f.URL) == "" {
			return fmt.Errorf("config: feed %q has no url", f.ID)
		}
	}
	for _, p := range cfg.Priority {
		if !p.Valid() {
			return fmt.Errorf("config: invalid platform %q in priority", p)
		}
	}
	return nil
}
