package app

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadEnvFiles_LoadsKeyValues(t *testing.T) {
	t.Setenv("SEARX_URL", "")
	t.Setenv("LLM_MODEL", "")

	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "\n# sample dotenv file\nSEARX_URL=http://searx.local\nLLM_MODEL=\"gpt-4o-mini\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write dotenv: %v", err)
	}
	if err := LoadEnvFiles(envPath, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("SEARX_URL"); got != "http://searx.local" {
		t.Fatalf("SEARX_URL=%q", got)
	}
	if got := os.Getenv("LLM_MODEL"); got != "gpt-4o-mini" {
		t.Fatalf("LLM_MODEL=%q", got)
	}
}

// Later files override earlier ones when loading multiple dotenv files.
func TestLoadEnvFiles_OverrideOrder(t *testing.T) {
	t.Setenv("K", "")
	dir := t.TempDir()
	a := filepath.Join(dir, ".env.a")
	b := filepath.Join(dir, ".env.b")
	if err := os.WriteFile(a, []byte("K=first\n"), 0o600); err != nil {
		t.Fatalf("write a: %v", err)
	}
	if err := os.WriteFile(b, []byte("K=second\n"), 0o600); err != nil {
		t.Fatalf("write b: %v", err)
	}
	if err := LoadEnvFiles(a, b); err != nil {
		t.Fatalf("LoadEnvFiles error: %v", err)
	}
	if got := os.Getenv("K"); got != "second" {
		t.Fatalf("override order failed: got %q, want second", got)
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("SEARXNG_URL", "http://ignored")
	t.Setenv("SEARX_URL", "http://searx")
	t.Setenv("LLM_PROVIDER", " Anthropic ")
	t.Setenv("ANTHROPIC_API_KEY", "sk-ant")
	t.Setenv("FEEDS", "merojob=https://example.com/rss?q={keywords}")
	t.Setenv("ADAPTER_TIMEOUT", "3s")
	t.Setenv("RUN_DEADLINE", "bogus")
	t.Setenv("VERBOSE", "yes")
	t.Setenv("CACHE_CLEAR", "off")

	cfg := DefaultConfig()
	cfg.CacheClear = true
	ApplyEnvOverrides(&cfg)

	if cfg.SearxURL != "http://searx" {
		t.Fatalf("SearxURL=%q", cfg.SearxURL)
	}
	if cfg.LLMProvider != ProviderAnthropic || cfg.AnthropicAPIKey != "sk-ant" {
		t.Fatalf("provider=%q key=%q", cfg.LLMProvider, cfg.AnthropicAPIKey)
	}
	if len(cfg.Feeds) != 1 || cfg.Feeds[0].ID != "merojob" {
		t.Fatalf("feeds=%+v", cfg.Feeds)
	}
	if cfg.AdapterTimeout.String() != "3s" {
		t.Fatalf("AdapterTimeout=%v", cfg.AdapterTimeout)
	}
	if cfg.RunDeadline != DefaultConfig().RunDeadline {
		t.Fatalf("invalid duration should be ignored, got %v", cfg.RunDeadline)
	}
	if !cfg.Verbose || cfg.CacheClear {
		t.Fatalf("booleans: verbose=%v clear=%v", cfg.Verbose, cfg.CacheClear)
	}
}
