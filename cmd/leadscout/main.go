package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/leadscout/internal/app"
	"github.com/hyperifyio/leadscout/internal/engine"
	"github.com/hyperifyio/leadscout/internal/metrics"
	"github.com/hyperifyio/leadscout/internal/search"
)

// Exit codes.
const (
	exitOK          = 0
	exitInvalid     = 1
	exitAllFailed   = 2
	exitUnavailable = 3
)

// errConfig marks problems with flags, files or environment.
var errConfig = errors.New("configuration error")

// cliOptions are flags that steer the CLI itself rather than the app.
type cliOptions struct {
	configPath string
	envFiles   string
	promptFile string
	version    bool
}

func main() {
	// Logging setup
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdout)
	stop()
	if err != nil {
		if errors.Is(err, errConfig) {
			log.Error().Err(err).Msg("invalid configuration")
		} else {
			log.Error().Err(err).Msg("search failed")
			fmt.Fprintln(os.Stderr, app.UserMessage(err))
		}
	}
	os.Exit(exitCode(err))
}

// exitCode maps run errors to process exit codes: 1 for invalid input, 2
// when every platform failed, 3 for anything else.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, errConfig), errors.Is(err, search.ErrInvalidQuery):
		return exitInvalid
	case errors.Is(err, engine.ErrAllPlatformsFailed):
		return exitAllFailed
	default:
		return exitUnavailable
	}
}

// run resolves configuration with precedence flags > env > file > defaults
// and performs one search. Flags are parsed twice: once to find the config
// and dotenv files, then again over the merged configuration so explicitly
// set flags win.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	var pre cliOptions
	scratch := app.DefaultConfig()
	if err := newFlagSet(&scratch, &pre, os.Stderr).Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if pre.version {
		fmt.Fprintln(stdout, app.VersionString())
		return nil
	}

	cfg := app.DefaultConfig()
	if err := app.LoadEnvFiles(splitList(pre.envFiles)...); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if strings.TrimSpace(pre.configPath) != "" {
		fc, err := app.LoadConfigFile(pre.configPath)
		if err != nil {
			return fmt.Errorf("%w: %v", errConfig, err)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvOverrides(&cfg)

	var opts cliOptions
	if err := newFlagSet(&cfg, &opts, io.Discard).Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	if strings.TrimSpace(opts.promptFile) != "" {
		b, err := os.ReadFile(opts.promptFile)
		if err != nil {
			return fmt.Errorf("%w: system prompt: %v", errConfig, err)
		}
		cfg.SystemPrompt = string(b)
	}

	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
	cfg.Logger = log.Logger

	reg := metrics.NewRegistry()
	cfg.Metrics = metrics.New(reg)
	if cfg.MetricsAddr != "" {
		srv := metrics.Start(cfg.MetricsAddr, reg, log.Logger)
		defer func() { _ = srv.Stop(context.Background()) }()
		log.Info().Str("addr", cfg.MetricsAddr).Msg("serving metrics")
	}
	if cfg.MetricsPushURL != "" {
		defer func() {
			pctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := metrics.Push(pctx, cfg.MetricsPushURL, "leadscout", reg); err != nil {
				log.Warn().Err(err).Msg("metrics push failed")
			}
		}()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("%w: %v", errConfig, err)
	}
	log.Debug().Strs("platforms", platformNames(a.Platforms())).Bool("summary", a.SummaryConfigured()).Msg("app ready")
	return a.Run(ctx, app.DefaultRequest(cfg), stdout)
}

// newFlagSet binds every flag to cfg and opts. Defaults come from the
// current cfg values, so binding to a merged config keeps file and env
// values unless a flag overrides them.
func newFlagSet(cfg *app.Config, opts *cliOptions, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet("leadscout", flag.ContinueOnError)
	fs.SetOutput(output)

	fs.StringVar(&opts.configPath, "config", os.Getenv("LEADSCOUT_CONFIG"), "Path to YAML or JSON config file")
	fs.StringVar(&opts.envFiles, "env-file", ".env", "Comma-separated dotenv files; later files win, missing files are skipped")
	fs.StringVar(&opts.promptFile, "llm.systemPromptFile", "", "Path to file containing the digest system prompt")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")
	fs.BoolVar(&cfg.Verbose, "v", cfg.Verbose, "Verbose logging")

	// Query
	fs.StringVar(&cfg.Keywords, "keywords", cfg.Keywords, "Search keywords")
	fs.StringVar(&cfg.Location, "location", cfg.Location, "Free-text location")
	fs.Float64Var(&cfg.RadiusKm, "radius", cfg.RadiusKm, "Search radius in km (1-200, 0 for platform default)")
	fs.Func("platforms", "Comma-separated platform ids (default "+joinPlatforms(cfg.Platforms)+")", func(s string) error {
		cfg.Platforms = search.ParsePlatforms(s)
		return nil
	})
	fs.IntVar(&cfg.MaxResults, "max", cfg.MaxResults, "Maximum results (1-30, 0 for the cap)")
	fs.BoolVar(&cfg.IncludeSummary, "summary", cfg.IncludeSummary, "Generate an LLM digest of the results")

	// Output
	fs.StringVar(&cfg.OutputPath, "output", cfg.OutputPath, "Output path, '-' for stdout")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "Output format: markdown or json")
	fs.StringVar(&cfg.OutputPDFPath, "pdf", cfg.OutputPDFPath, "Also write a PDF report to this path")

	// Platforms
	fs.StringVar(&cfg.SearxURL, "searx.url", cfg.SearxURL, "SearxNG base URL for Facebook and Instagram")
	fs.StringVar(&cfg.SearxKey, "searx.key", cfg.SearxKey, "SearxNG API key (optional)")
	fs.StringVar(&cfg.SearxUA, "searx.ua", cfg.SearxUA, "Custom User-Agent for SearxNG requests")
	fs.StringVar(&cfg.LinkedInBaseURL, "linkedin.url", cfg.LinkedInBaseURL, "LinkedIn base URL")
	fs.Func("feeds", "Extra RSS/Atom platforms as id=urlTemplate,...", func(s string) error {
		feeds, err := app.ParseFeeds(s)
		if err != nil {
			return err
		}
		cfg.Feeds = feeds
		return nil
	})
	fs.StringVar(&cfg.FixturePath, "fixture", cfg.FixturePath, "Serve every platform from a JSON fixture file (offline)")

	// Engine
	fs.DurationVar(&cfg.AdapterTimeout, "adapter.timeout", cfg.AdapterTimeout, "Timeout per adapter attempt")
	fs.DurationVar(&cfg.RunDeadline, "run.deadline", cfg.RunDeadline, "Deadline for the whole fetch phase")
	fs.IntVar(&cfg.MaxParallel, "max.parallel", cfg.MaxParallel, "Concurrent adapter calls (0 for one per platform)")
	fs.Float64Var(&cfg.MinScore, "min.score", cfg.MinScore, "Drop results scoring below this (0 keeps all)")
	fs.IntVar(&cfg.ResultCap, "result.cap", cfg.ResultCap, "Hard cap on returned results")
	fs.Func("priority", "Tie-break platform order, comma-separated", func(s string) error {
		cfg.Priority = search.ParsePlatforms(s)
		return nil
	})

	// LLM
	fs.StringVar(&cfg.LLMProvider, "llm.provider", cfg.LLMProvider, "Summarizer provider: openai or anthropic")
	fs.StringVar(&cfg.LLMBaseURL, "llm.base", cfg.LLMBaseURL, "OpenAI-compatible (or Anthropic) base URL")
	fs.StringVar(&cfg.LLMModel, "llm.model", cfg.LLMModel, "Model name")
	fs.StringVar(&cfg.LLMAPIKey, "llm.key", cfg.LLMAPIKey, "API key for the OpenAI-compatible server")
	fs.StringVar(&cfg.AnthropicAPIKey, "anthropic.key", cfg.AnthropicAPIKey, "Anthropic API key")
	fs.StringVar(&cfg.SystemPrompt, "llm.systemPrompt", cfg.SystemPrompt, "Override the digest system prompt")

	// Digest
	fs.IntVar(&cfg.DigestTopK, "digest.topK", cfg.DigestTopK, "Results fed to the digest (max 20)")
	fs.IntVar(&cfg.DigestMaxInputTokens, "digest.maxInputTokens", cfg.DigestMaxInputTokens, "Token budget for lead text in the digest prompt")
	fs.IntVar(&cfg.DigestMaxOutputTokens, "digest.maxOutputTokens", cfg.DigestMaxOutputTokens, "Token cap for the digest")

	// Cache
	fs.StringVar(&cfg.CacheDir, "cache.dir", cfg.CacheDir, "Digest cache directory ('' disables)")
	fs.DurationVar(&cfg.CacheMaxAge, "cache.maxAge", cfg.CacheMaxAge, "Max age for cached digests; 0 disables")
	fs.BoolVar(&cfg.CacheClear, "cache.clear", cfg.CacheClear, "Clear the cache directory before the run")
	fs.BoolVar(&cfg.CacheStrictPerms, "cache.strictPerms", cfg.CacheStrictPerms, "Restrict cache permissions (0700 dirs, 0600 files)")
	fs.IntVar(&cfg.CacheMaxCount, "cache.maxCount", cfg.CacheMaxCount, "Max cached digests kept (0 unlimited)")

	// Metrics
	fs.StringVar(&cfg.MetricsAddr, "metrics.addr", cfg.MetricsAddr, "Serve Prometheus /metrics on this address during the run")
	fs.StringVar(&cfg.MetricsPushURL, "metrics.push", cfg.MetricsPushURL, "Push metrics to this Pushgateway after the run")
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func platformNames(ps []search.PlatformID) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = string(p)
	}
	return out
}

func joinPlatforms(ps []search.PlatformID) string {
	return strings.Join(platformNames(ps), ",")
}
