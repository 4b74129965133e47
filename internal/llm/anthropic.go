package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

var anthropicModels = map[string]string{
	"claude-sonnet": "claude-sonnet-4-20250514",
	"claude-haiku":  "claude-haiku-4-5-20251001",
}

// AnthropicProvider talks to the Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

func NewAnthropicProvider(cfg AnthropicConfig) (*AnthropicProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("anthropic API key is required")
	}
	client := anthropic.NewClient(option.WithAPIKey(cfg.APIKey))
	return &AnthropicProvider{client: &client, model: modelFor(cfg.Model, anthropicModels)}, nil
}

func (p *AnthropicProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	msg, err := p.client.Messages.New(ctx, p.params(req))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) {
			return nil, errorForStatus(apiErr.StatusCode, err)
		}
		return nil, &ErrProviderUnavailable{Err: err}
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("anthropic response carried no text blocks")}
	}

	out := text.String()
	return finish(req, &Response{
		Content: json.RawMessage(out),
		Text:    out,
		Usage: Usage{
			InputTokens:  int(msg.Usage.InputTokens),
			OutputTokens: int(msg.Usage.OutputTokens),
			TotalTokens:  int(msg.Usage.InputTokens + msg.Usage.OutputTokens),
		},
		Model:      string(msg.Model),
		StopReason: anthropicStop(msg.StopReason),
	})
}

func (p *AnthropicProvider) ModelID() string { return p.model }

func (p *AnthropicProvider) params(req Request) anthropic.MessageNewParams {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		MaxTokens: int64(req.MaxTokens),
		Messages:  make([]anthropic.MessageParam, 0, len(req.Messages)),
	}
	for _, m := range req.Messages {
		role := anthropic.MessageParamRoleUser
		if m.Role == RoleAssistant {
			role = anthropic.MessageParamRoleAssistant
		}
		params.Messages = append(params.Messages, anthropic.MessageParam{
			Role:    role,
			Content: []anthropic.ContentBlockParamUnion{anthropic.NewTextBlock(m.Content)},
		})
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}
	if req.Schema != nil {
		params.OutputConfig = anthropic.OutputConfigParam{
			Format: anthropic.JSONOutputFormatParam{Schema: req.Schema.Definition},
		}
	}
	return params
}

func anthropicStop(reason anthropic.StopReason) string {
	switch reason {
	case "max_tokens":
		return StopMaxTokens
	case "refusal":
		return StopBlocked
	}
	return StopEnd
}
