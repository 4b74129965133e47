package llm

import (
	"context"
	"encoding/json"
	"net/http"
)

// Provider is the core abstraction for generative-AI calls. Every backend
// (Gemini, Anthropic, OpenAI, OpenRouter, mock) implements it, and the
// retry and logging middleware wrap it.
type Provider interface {
	// Generate sends a prompt to the model. When req.Schema is set the
	// provider uses its native structured-output mode and Response.Content
	// holds JSON validated against the schema.
	Generate(ctx context.Context, req Request) (*Response, error)

	// ModelID returns the model identifier this provider is configured to use.
	ModelID() string
}

// Request describes what to send to the model.
type Request struct {
	// System is the system prompt.
	System string

	// Messages is the conversation history. Forensic reports and the
	// passthrough endpoint both send a single user message.
	Messages []Message

	// Schema is the JSON Schema the response must conform to. When nil the
	// response is free text.
	Schema *Schema

	// MaxTokens caps the response length.
	MaxTokens int

	// Temperature controls randomness. Range: 0.0 - 1.0.
	// Zero leaves the provider default in place.
	Temperature float64
}

// Message represents a single message in the conversation.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender role.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// UserPrompt builds a single-turn request.
func UserPrompt(system, prompt string) Request {
	return Request{
		System:   system,
		Messages: []Message{{Role: RoleUser, Content: prompt}},
	}
}

// Schema defines the JSON structure expected from the model.
type Schema struct {
	// Name identifies this schema, e.g. "forensic-report". It doubles as
	// the OpenAI schema name and the validation cache key.
	Name string

	// Description is sent to the model to guide generation.
	Description string

	// Definition is the JSON Schema definition as a map.
	Definition map[string]any
}

// Response holds the model output.
type Response struct {
	// Content is the generated output. With a schema it is the validated
	// JSON object; without one it is the raw text bytes.
	Content json.RawMessage

	// Text is the raw text the model returned.
	Text string

	// Usage reports token consumption for this request.
	Usage Usage

	// Model is the actual model that served the request.
	Model string

	// StopReason indicates why generation stopped.
	// Normalized to: "end", "max_tokens", "blocked"
	StopReason string
}

// Usage tracks token consumption for a single request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// Normalized stop reasons.
const (
	StopEnd       = "end"
	StopMaxTokens = "max_tokens"
	StopBlocked   = "blocked"
)

// finish applies the checks shared by every backend once raw text is back:
// truncated structured output is an error, and schema output is validated.
func finish(req Request, resp *Response) (*Response, error) {
	if req.Schema == nil {
		return resp, nil
	}
	if resp.StopReason == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{Content: resp.Content}
	}
	if err := validateResponse(req.Schema, resp.Content); err != nil {
		return nil, err
	}
	return resp, nil
}

// modelFor resolves an alias from the backend's table. Unknown names are
// taken as literal model IDs.
func modelFor(name string, aliases map[string]string) string {
	if id, ok := aliases[name]; ok {
		return id
	}
	return name
}

// errorForStatus turns a backend HTTP status into a typed error. Only 429
// is distinguished; the rest count as the backend being unavailable.
func errorForStatus(status int, err error) error {
	if status == http.StatusTooManyRequests {
		return &ErrRateLimit{Err: err}
	}
	return &ErrProviderUnavailable{Err: err}
}
