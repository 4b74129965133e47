package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

var geminiModels = map[string]string{
	"gemini-flash": "gemini-2.0-flash",
	"gemini-pro":   "gemini-2.5-pro",
	"gemini-lite":  "gemini-2.0-flash-lite",
}

// jsonSchemaTypes translates JSON Schema type names. Anything missing
// falls back to STRING.
var jsonSchemaTypes = map[string]genai.Type{
	"string":  genai.TypeString,
	"number":  genai.TypeNumber,
	"integer": genai.TypeInteger,
	"boolean": genai.TypeBoolean,
	"array":   genai.TypeArray,
	"object":  genai.TypeObject,
}

// Finish reasons that mean the narrative was withheld.
var geminiWithheld = map[genai.FinishReason]bool{
	"SAFETY":             true,
	"PROHIBITED_CONTENT": true,
	"BLOCKLIST":          true,
	"SPII":               true,
}

// GeminiProvider talks to the Gemini API. It is the default narrator.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

func NewGeminiProvider(ctx context.Context, cfg GeminiConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	return &GeminiProvider{client: client, model: modelFor(cfg.Model, geminiModels)}, nil
}

func (p *GeminiProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		contents = append(contents, geminiTurn(m))
	}

	result, err := p.client.Models.GenerateContent(ctx, p.model, contents, geminiOptions(req))
	if err != nil {
		return nil, geminiFailure(err)
	}

	stop := geminiStop(result)
	if stop == StopBlocked {
		return nil, &ErrInvalidResponse{Err: errors.New("gemini withheld the response")}
	}

	text := result.Text()
	resp := &Response{Content: json.RawMessage(text), Text: text, Model: p.model, StopReason: stop}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			InputTokens:  int(u.PromptTokenCount),
			OutputTokens: int(u.CandidatesTokenCount),
			TotalTokens:  int(u.TotalTokenCount),
		}
	}
	return finish(req, resp)
}

func (p *GeminiProvider) ModelID() string { return p.model }

func geminiOptions(req Request) *genai.GenerateContentConfig {
	opts := &genai.GenerateContentConfig{MaxOutputTokens: int32(req.MaxTokens)}
	if req.Temperature > 0 {
		opts.Temperature = genai.Ptr(float32(req.Temperature))
	}
	if req.System != "" {
		opts.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}
	if req.Schema != nil {
		opts.ResponseMIMEType = "application/json"
		opts.ResponseSchema = geminiSchema(req.Schema.Definition)
	}
	return opts
}

// geminiTurn maps a message; Gemini calls the assistant side "model".
func geminiTurn(m Message) *genai.Content {
	role := genai.RoleUser
	if m.Role == RoleAssistant {
		role = genai.RoleModel
	}
	return &genai.Content{Role: role, Parts: []*genai.Part{{Text: m.Content}}}
}

// geminiSchema converts a JSON Schema map. A ["T", "null"] union becomes
// a nullable T since Gemini has no union types.
func geminiSchema(def map[string]any) *genai.Schema {
	out := &genai.Schema{
		Required: stringsOf(def["required"]),
		Enum:     stringsOf(def["enum"]),
	}
	out.Description, _ = def["description"].(string)

	var names []string
	switch t := def["type"].(type) {
	case string:
		names = []string{t}
	case []any:
		names = stringsOf(t)
	}
	for _, name := range names {
		if name == "null" {
			out.Nullable = genai.Ptr(true)
			continue
		}
		out.Type = genai.TypeString
		if gt, ok := jsonSchemaTypes[name]; ok {
			out.Type = gt
		}
	}

	if props, ok := def["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if sub, ok := raw.(map[string]any); ok {
				out.Properties[name] = geminiSchema(sub)
			}
		}
	}
	if items, ok := def["items"].(map[string]any); ok {
		out.Items = geminiSchema(items)
	}
	return out
}

// stringsOf keeps the string members of a decoded JSON array.
func stringsOf(v any) []string {
	list, _ := v.([]any)
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func geminiStop(result *genai.GenerateContentResponse) string {
	if len(result.Candidates) == 0 {
		return StopEnd
	}
	reason := result.Candidates[0].FinishReason
	switch {
	case reason == genai.FinishReasonMaxTokens:
		return StopMaxTokens
	case geminiWithheld[reason]:
		return StopBlocked
	}
	return StopEnd
}

// geminiFailure unwraps the SDK error, which is returned by value or by
// pointer depending on the call path.
func geminiFailure(err error) error {
	var byValue genai.APIError
	if errors.As(err, &byValue) {
		return errorForStatus(byValue.Code, err)
	}
	var byPtr *genai.APIError
	if errors.As(err, &byPtr) {
		return errorForStatus(byPtr.Code, err)
	}
	return &ErrProviderUnavailable{Err: err}
}
