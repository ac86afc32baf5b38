package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hyperifyio/leadscout/internal/search"
)

// ApplyEnvOverrides overrides cfg fields with environment variables that are
// set. Callers apply it after the config file so env takes precedence, and
// before flags so explicit flags win.
func ApplyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if v := os.Getenv("SEARXNG_URL"); v != "" {
		cfg.SearxURL = v
	}
	if v := os.Getenv("SEARX_URL"); v != "" {
		cfg.SearxURL = v
	}
	if v := os.Getenv("SEARXNG_KEY"); v != "" {
		cfg.SearxKey = v
	}
	if v := os.Getenv("SEARX_KEY"); v != "" {
		cfg.SearxKey = v
	}
	if v := os.Getenv("LINKEDIN_BASE_URL"); v != "" {
		cfg.LinkedInBaseURL = v
	}
	if v := os.Getenv("LEADS_FIXTURE"); v != "" {
		cfg.FixturePath = v
	}
	if v := strings.TrimSpace(os.Getenv("FEEDS")); v != "" {
		if feeds, err := ParseFeeds(v); err == nil {
			cfg.Feeds = feeds
		} else {
			cfg.Logger.Warn().Err(err).Msg("ignoring FEEDS")
		}
	}
	if v := os.Getenv("PLATFORMS"); v != "" {
		if ps := search.ParsePlatforms(v); len(ps) > 0 {
			cfg.Platforms = ps
		}
	}

	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		cfg.LLMProvider = strings.ToLower(strings.TrimSpace(v))
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		cfg.LLMBaseURL = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		cfg.LLMModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		cfg.LLMAPIKey = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" {
		cfg.AnthropicAPIKey = v
	}

	if v := os.Getenv("CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("METRICS_PUSH_URL"); v != "" {
		cfg.MetricsPushURL = v
	}

	setDuration := func(dst *time.Duration, key string) {
		if s := strings.TrimSpace(os.Getenv(key)); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				*dst = d
			}
		}
	}
	setDuration(&cfg.AdapterTimeout, "ADAPTER_TIMEOUT")
	setDuration(&cfg.RunDeadline, "RUN_DEADLINE")
	setDuration(&cfg.CacheMaxAge, "CACHE_MAX_AGE")

	if s := strings.TrimSpace(os.Getenv("MAX_RESULTS")); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			cfg.MaxResults = n
		}
	}

	setBool := func(dst *bool, key string) {
		switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
		case "1", "true", "yes", "on":
			*dst = true
		case "0", "false", "no", "off":
			*dst = false
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.IncludeSummary, "INCLUDE_SUMMARY")
	setBool(&cfg.CacheClear, "CACHE_CLEAR")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
