package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotConfigured is returned when no provider credentials are available.
var ErrNotConfigured = errors.New("no LLM provider configured")

// ErrRateLimit indicates the provider returned a rate limit error (429).
type ErrRateLimit struct {
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse indicates the model returned content that does not
// conform to the requested schema, or no usable content at all.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid LLM response: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable indicates the provider is down or unreachable.
type ErrProviderUnavailable struct {
	Err error
}

func (e *ErrProviderUnavailable) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("LLM provider unavailable: %v", e.Err)
	}
	return "LLM provider unavailable"
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded indicates a structured response was truncated
// because it hit the MaxTokens limit.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "LLM response truncated: max tokens exceeded"
}
