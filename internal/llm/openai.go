package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

var openaiModels = map[string]string{
	"gpt-4o":      "gpt-4o",
	"gpt-4o-mini": "gpt-4o-mini",
	"gpt-4.1":     "gpt-4.1",
}

// OpenAIProvider talks to any OpenAI-compatible chat completions API.
// OpenRouterProvider embeds it with a different base URL.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}
	return newOpenAICompatible(cfg, openaiModels), nil
}

func newOpenAICompatible(cfg OpenAIConfig, aliases map[string]string) *OpenAIProvider {
	conf := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		conf.BaseURL = cfg.BaseURL
	}
	return &OpenAIProvider{client: openai.NewClientWithConfig(conf), model: modelFor(cfg.Model, aliases)}
}

func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	chat, err := p.chatRequest(req)
	if err != nil {
		return nil, err
	}

	completion, err := p.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return nil, openaiFailure(err)
	}
	if len(completion.Choices) == 0 {
		return nil, &ErrInvalidResponse{Err: errors.New("openai response carried no choices")}
	}

	choice := completion.Choices[0]
	stop := openaiStop(choice.FinishReason)
	if stop == StopBlocked {
		return nil, &ErrInvalidResponse{Err: errors.New("openai filtered the response")}
	}

	return finish(req, &Response{
		Content: json.RawMessage(choice.Message.Content),
		Text:    choice.Message.Content,
		Usage: Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
			TotalTokens:  completion.Usage.TotalTokens,
		},
		Model:      completion.Model,
		StopReason: stop,
	})
}

func (p *OpenAIProvider) ModelID() string { return p.model }

// chatRequest puts the system prompt first, then the conversation. A
// schema switches on strict JSON schema output.
func (p *OpenAIProvider) chatRequest(req Request) (openai.ChatCompletionRequest, error) {
	chat := openai.ChatCompletionRequest{
		Model:               p.model,
		MaxCompletionTokens: req.MaxTokens,
		Temperature:         float32(req.Temperature),
		Messages:            make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1),
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		if m.Role == RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	if req.Schema == nil {
		return chat, nil
	}
	raw, err := json.Marshal(req.Schema.Definition)
	if err != nil {
		return chat, fmt.Errorf("encode %s schema: %w", req.Schema.Name, err)
	}
	chat.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   req.Schema.Name,
			Schema: json.RawMessage(raw),
			Strict: true,
		},
	}
	return chat, nil
}

func openaiStop(reason openai.FinishReason) string {
	switch reason {
	case openai.FinishReasonLength:
		return StopMaxTokens
	case openai.FinishReasonContentFilter:
		return StopBlocked
	}
	return StopEnd
}

func openaiFailure(err error) error {
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		return errorForStatus(apiErr.HTTPStatusCode, err)
	case errors.As(err, &reqErr):
		return errorForStatus(reqErr.HTTPStatusCode, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
