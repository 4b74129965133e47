package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderGemini     = "gemini"
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// envPrefix namespaces every variable read by ConfigFromEnv.
const envPrefix = "VERITRUSTX_"

// Config holds all LLM provider configuration.
type Config struct {
	// Provider selects which backend to use.
	Provider string

	Gemini     GeminiConfig
	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout is the maximum duration for a single request, retries
	// included. Default: 30s.
	Timeout time.Duration
}

// GeminiConfig holds Gemini-specific configuration.
type GeminiConfig struct {
	APIKey string
	Model  string // Default: "gemini-flash"
}

// AnthropicConfig holds Anthropic-specific configuration.
type AnthropicConfig struct {
	APIKey string
	Model  string // Default: "claude-haiku"
}

// OpenAIConfig holds OpenAI-specific configuration.
type OpenAIConfig struct {
	APIKey  string
	Model   string // Default: "gpt-4o-mini"
	BaseURL string // Optional. Override for compatible APIs.
}

// OpenRouterConfig holds OpenRouter-specific configuration.
type OpenRouterConfig struct {
	APIKey  string
	Model   string // Default: "google/gemini-2.0-flash-001"
	BaseURL string // Default: "https://openrouter.ai/api/v1"
}

// RetryConfig configures retry behavior for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns a Config with the Gemini backend selected.
func DefaultConfig() Config {
	return Config{
		Provider: ProviderGemini,
		Gemini: GeminiConfig{
			Model: "gemini-flash",
		},
		Anthropic: AnthropicConfig{
			Model: "claude-haiku",
		},
		OpenAI: OpenAIConfig{
			Model: "gpt-4o-mini",
		},
		OpenRouter: OpenRouterConfig{
			Model: "google/gemini-2.0-flash-001",
		},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: 1 * time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv builds a Config from VERITRUSTX_* environment variables,
// falling back to defaults for unset values.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	if p := getenv("LLM_PROVIDER"); p != "" {
		cfg.Provider = p
	}
	if d := getenv("LLM_TIMEOUT"); d != "" {
		if parsed, err := time.ParseDuration(d); err == nil {
			cfg.Timeout = parsed
		}
	}

	setIf(&cfg.Gemini.APIKey, "GEMINI_API_KEY")
	setIf(&cfg.Gemini.Model, "GEMINI_MODEL")

	setIf(&cfg.Anthropic.APIKey, "ANTHROPIC_API_KEY")
	setIf(&cfg.Anthropic.Model, "ANTHROPIC_MODEL")

	setIf(&cfg.OpenAI.APIKey, "OPENAI_API_KEY")
	setIf(&cfg.OpenAI.Model, "OPENAI_MODEL")
	setIf(&cfg.OpenAI.BaseURL, "OPENAI_BASE_URL")

	setIf(&cfg.OpenRouter.APIKey, "OPENROUTER_API_KEY")
	setIf(&cfg.OpenRouter.Model, "OPENROUTER_MODEL")

	return cfg
}

// DiscoverConfig checks the standard API key env vars in priority order
// (Gemini → OpenAI → Anthropic → OpenRouter) and returns a Config for the
// first provider whose key is found. Returns (Config{}, false) if none found.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	if k := os.Getenv("GEMINI_API_KEY"); k != "" {
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENAI_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("ANTHROPIC_API_KEY"); k != "" {
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = k
		return cfg, true
	}
	if k := os.Getenv("OPENROUTER_API_KEY"); k != "" {
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = k
		return cfg, true
	}

	return Config{}, false
}

// ResolveConfig returns the namespaced config when it validates, then tries
// discovery of standard keys, and finally reports ErrNotConfigured.
func ResolveConfig() (Config, error) {
	cfg := ConfigFromEnv()
	if err := cfg.Validate(); err == nil {
		return cfg, nil
	} else if getenv("LLM_PROVIDER") != "" {
		// Explicit selection with a missing key is a configuration error,
		// not a reason to silently switch providers.
		return Config{}, err
	}

	if discovered, ok := DiscoverConfig(); ok {
		discovered.Timeout = cfg.Timeout
		return discovered, nil
	}
	return Config{}, ErrNotConfigured
}

// Validate checks that the selected provider has its required API key set.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("%sGEMINI_API_KEY is required for the gemini provider", envPrefix)
		}
	case ProviderAnthropic:
		if c.Anthropic.APIKey == "" {
			return fmt.Errorf("%sANTHROPIC_API_KEY is required for the anthropic provider", envPrefix)
		}
	case ProviderOpenAI:
		if c.OpenAI.APIKey == "" {
			return fmt.Errorf("%sOPENAI_API_KEY is required for the openai provider", envPrefix)
		}
	case ProviderOpenRouter:
		if c.OpenRouter.APIKey == "" {
			return fmt.Errorf("%sOPENROUTER_API_KEY is required for the openrouter provider", envPrefix)
		}
	case ProviderMock:
		// No API key needed.
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	return nil
}

func getenv(name string) string {
	return os.Getenv(envPrefix + name)
}

func setIf(dst *string, name string) {
	if v := getenv(name); v != "" {
		*dst = v
	}
}
