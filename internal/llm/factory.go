package llm

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

// NewProvider creates a Provider from configuration.
// It returns the provider wrapped with timeout, retry and logging middleware.
// eventRepo may be nil, in which case requests are only logged through log.
func NewProvider(ctx context.Context, cfg Config, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	var base Provider
	var err error

	switch cfg.Provider {
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		return NewMockProvider(), nil
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	// Wrap with middleware: caller → timeout → retry → logging → base
	logged := WithLogging(base, cfg.Provider, eventRepo, log)
	retried := WithRetry(logged, cfg.Retry)

	return WithTimeout(retried, cfg.Timeout), nil
}

// NewProviderFromEnv resolves configuration from the environment and builds
// the provider. It returns ErrNotConfigured when no credentials are found.
func NewProviderFromEnv(ctx context.Context, eventRepo store.EventRepo, log *zap.Logger) (Provider, error) {
	cfg, err := ResolveConfig()
	if err != nil {
		return nil, err
	}
	return NewProvider(ctx, cfg, eventRepo, log)
}
