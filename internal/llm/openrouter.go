package llm

import "fmt"

const defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"

// openRouterModels maps friendly names to OpenRouter model slugs.
var openRouterModels = map[string]string{
	"gemini-flash": "google/gemini-2.0-flash-001",
	"claude-haiku": "anthropic/claude-haiku-4.5",
}

// OpenRouterProvider wraps OpenAIProvider with OpenRouter-specific defaults.
// OpenRouter exposes an OpenAI-compatible API, so the underlying SDK is reused.
type OpenRouterProvider struct {
	*OpenAIProvider
}

// NewOpenRouterProvider creates a provider targeting the OpenRouter API.
func NewOpenRouterProvider(cfg OpenRouterConfig) (*OpenRouterProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openrouter API key is required")
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}

	inner := newOpenAICompatible(OpenAIConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: baseURL,
	}, openRouterModels)

	return &OpenRouterProvider{OpenAIProvider: inner}, nil
}
