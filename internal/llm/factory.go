package llm

import (
	"context"
	"fmt"

	"github.com/abhisek/casequiz/internal/logger"
	"github.com/abhisek/casequiz/internal/store"
)

// NewProvider creates a Provider from configuration, wrapped as
// caller → timeout → retry → logging → base. eventRepo may be nil.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *logger.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry)
	return WithTimeout(retried, cfg.Timeout), nil
}

// ResolveConfig returns the explicit CASEQUIZ_* configuration when it is
// usable, otherwise the first provider discovered from standard API key
// variables. ok is false when no provider can be built.
func ResolveConfig() (cfg Config, ok bool) {
	cfg = ConfigFromEnv()
	if cfg.Configured() {
		return cfg, true
	}
	discovered, found := DiscoverConfig()
	if !found {
		return cfg, false
	}
	discovered.Timeout = cfg.Timeout
	return discovered, true
}
