package llm

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Provider names accepted by CASEQUIZ_LLM_PROVIDER.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects a vendor and carries the settings for each of them. Only
// the block matching Provider is read when the provider is built.
type Config struct {
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one logical call, retries included. Zero disables it.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIConfig also serves self-hosted gateways that speak the Chat
// Completions protocol through BaseURL.
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// Blueprint generation sends the whole case text, and judging is one short
// exchange, so the defaults favour the cheaper tier of each vendor.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderAnthropic,
		Anthropic:  AnthropicConfig{Model: "claude-sonnet"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2,
		},
		Timeout: 45 * time.Second,
	}
}

// vendor binds a provider name to its environment variables and the
// Config fields they fill.
type vendor struct {
	name string
	// keyVar is the CASEQUIZ_* key variable; stdKeyVar is the vendor's own.
	keyVar, stdKeyVar string
	modelVar          string
	baseURLVar        string
	fields            func(*Config) (key, model, baseURL *string)
}

// vendors is in discovery order.
var vendors = []vendor{
	{
		name:      ProviderAnthropic,
		keyVar:    "CASEQUIZ_ANTHROPIC_API_KEY",
		stdKeyVar: "ANTHROPIC_API_KEY",
		modelVar:  "CASEQUIZ_ANTHROPIC_MODEL",
		fields: func(c *Config) (*string, *string, *string) {
			return &c.Anthropic.APIKey, &c.Anthropic.Model, &c.Anthropic.BaseURL
		},
	},
	{
		name:       ProviderOpenAI,
		keyVar:     "CASEQUIZ_OPENAI_API_KEY",
		stdKeyVar:  "OPENAI_API_KEY",
		modelVar:   "CASEQUIZ_OPENAI_MODEL",
		baseURLVar: "CASEQUIZ_OPENAI_BASE_URL",
		fields: func(c *Config) (*string, *string, *string) {
			return &c.OpenAI.APIKey, &c.OpenAI.Model, &c.OpenAI.BaseURL
		},
	},
	{
		name:      ProviderGemini,
		keyVar:    "CASEQUIZ_GEMINI_API_KEY",
		stdKeyVar: "GEMINI_API_KEY",
		modelVar:  "CASEQUIZ_GEMINI_MODEL",
		fields: func(c *Config) (*string, *string, *string) {
			return &c.Gemini.APIKey, &c.Gemini.Model, nil
		},
	},
	{
		name:       ProviderOpenRouter,
		keyVar:     "CASEQUIZ_OPENROUTER_API_KEY",
		stdKeyVar:  "OPENROUTER_API_KEY",
		modelVar:   "CASEQUIZ_OPENROUTER_MODEL",
		baseURLVar: "CASEQUIZ_OPENROUTER_BASE_URL",
		fields: func(c *Config) (*string, *string, *string) {
			return &c.OpenRouter.APIKey, &c.OpenRouter.Model, &c.OpenRouter.BaseURL
		},
	},
}

func lookupVendor(name string) (vendor, bool) {
	for _, v := range vendors {
		if v.name == name {
			return v, true
		}
	}
	return vendor{}, false
}

func setFromEnv(dst *string, name string) {
	if dst == nil || name == "" {
		return
	}
	if v := os.Getenv(name); v != "" {
		*dst = v
	}
}

// ConfigFromEnv reads the CASEQUIZ_* variables over DefaultConfig.
// Malformed durations and counts are ignored.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	setFromEnv(&cfg.Provider, "CASEQUIZ_LLM_PROVIDER")

	for _, v := range vendors {
		key, model, baseURL := v.fields(&cfg)
		setFromEnv(key, v.keyVar)
		setFromEnv(model, v.modelVar)
		setFromEnv(baseURL, v.baseURLVar)
	}

	if d, err := time.ParseDuration(os.Getenv("CASEQUIZ_LLM_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.Atoi(os.Getenv("CASEQUIZ_LLM_MAX_ATTEMPTS")); err == nil && n > 0 {
		cfg.Retry.MaxAttempts = n
	}
	return cfg
}

// DiscoverConfig picks the first vendor whose standard API key variable
// is set. ok is false when none is.
func DiscoverConfig() (cfg Config, ok bool) {
	for _, v := range vendors {
		k := os.Getenv(v.stdKeyVar)
		if k == "" {
			continue
		}
		cfg = DefaultConfig()
		cfg.Provider = v.name
		key, _, _ := v.fields(&cfg)
		*key = k
		return cfg, true
	}
	return Config{}, false
}

func (c Config) Validate() error {
	if c.Provider == ProviderMock {
		return nil
	}
	v, ok := lookupVendor(c.Provider)
	if !ok {
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key, _, _ := v.fields(&c); *key == "" {
		return fmt.Errorf("%s is required for the %s provider", v.keyVar, v.name)
	}
	return nil
}

// Configured reports whether a provider can be built from c. Without one
// the engine stays on its deterministic paths.
func (c Config) Configured() bool {
	return c.Validate() == nil
}
