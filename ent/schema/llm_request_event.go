package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// LLMRequestEvent records every AI provider call for cost tracking and
// debugging.
type LLMRequestEvent struct {
	ent.Schema
}

func (LLMRequestEvent) Mixin() []ent.Mixin {
	return []ent.Mixin{RecordMixin{}}
}

func (LLMRequestEvent) Fields() []ent.Field {
	return []ent.Field{
		field.String("provider").
			Comment("Provider name: anthropic, openai, gemini, openrouter, mock"),
		field.String("model").
			Comment("Actual model ID used"),
		field.String("purpose").
			Comment("Call label: forensic-report or passthrough"),
		field.Int("input_tokens").
			Default(0),
		field.Int("output_tokens").
			Default(0),
		field.Int64("latency_ms").
			Default(0).
			Comment("Wall-clock time for the request"),
		field.Bool("success"),
		field.Text("error_message").
			Default(""),
		field.Text("request_body").
			Default(""),
		field.Text("response_body").
			Default(""),
	}
}

func (LLMRequestEvent) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("purpose"),
		index.Fields("success"),
	}
}
