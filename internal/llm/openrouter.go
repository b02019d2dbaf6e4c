package llm

import (
	"errors"
	"net/http"
)

const (
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

	// OpenRouter attributes traffic by these headers.
	openRouterTitle   = "casequiz"
	openRouterReferer = "https://github.com/abhisek/casequiz"
)

// OpenRouterProvider is the OpenAI-compatible client pointed at OpenRouter.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider passes the model through untouched; OpenRouter
// model IDs are "vendor/model".
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	client := &http.Client{Transport: attributionTransport{base: http.DefaultTransport}}

	return &OpenRouterProvider{
		OpenAIProvider: newChatProvider(cfg.APIKey, baseURL, cfg.Model, client),
	}, nil
}

type attributionTransport struct {
	base http.RoundTripper
}

func (t attributionTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	r = r.Clone(r.Context())
	r.Header.Set("X-Title", openRouterTitle)
	r.Header.Set("HTTP-Referer", openRouterReferer)
	return t.base.RoundTrip(r)
}
