package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func testSchema() *Schema {
	return &Schema{
		Name:        "test-report",
		Description: "A test forensic report",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"summary":        map[string]any{"type": "string"},
				"confidence":     map[string]any{"type": "integer", "minimum": 0},
				"recommendation": map[string]any{"type": "string", "enum": []any{"CLEAR", "REVIEW", "TERMINATE"}},
			},
			"required": []any{"summary", "confidence"},
		},
	}
}

func TestValidateResponse(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"valid", `{"summary":"consistent cadence","confidence":80,"recommendation":"CLEAR"}`, false},
		{"valid without optional", `{"summary":"ok","confidence":10}`, false},
		{"missing required", `{"summary":"ok"}`, true},
		{"wrong type", `{"summary":"ok","confidence":"high"}`, true},
		{"below minimum", `{"summary":"ok","confidence":-1}`, true},
		{"invalid enum", `{"summary":"ok","confidence":5,"recommendation":"MAYBE"}`, true},
		{"malformed JSON", `{not json}`, true},
		{"empty", ``, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateResponse(testSchema(), json.RawMessage(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateResponse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				var invErr *ErrInvalidResponse
				if !errors.As(err, &invErr) {
					t.Fatalf("expected ErrInvalidResponse, got: %T", err)
				}
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	raw := json.RawMessage(`{"anything":"goes"}`)
	if err := validateResponse(nil, raw); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateResponse_NestedObjects(t *testing.T) {
	schema := &Schema{
		Name:        "test-nested",
		Description: "Nested test",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"subject": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
					},
					"required": []any{"name"},
				},
				"intervals": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "integer"},
				},
			},
			"required": []any{"subject", "intervals"},
		},
	}

	valid := json.RawMessage(`{"subject":{"name":"Alice"},"intervals":[90,85,92]}`)
	if err := validateResponse(schema, valid); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	invalid := json.RawMessage(`{"subject":{"name":"Alice"},"intervals":["not","ints"]}`)
	if err := validateResponse(schema, invalid); err == nil {
		t.Fatal("expected error for wrong array item type")
	}
}
