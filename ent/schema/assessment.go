package schema

import (
	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
)

// Assessment is one scored telemetry sample. Rows are append-only except
// for the report, which the forensic worker fills in later.
type Assessment struct {
	ent.Schema
}

func (Assessment) Mixin() []ent.Mixin {
	return []ent.Mixin{RecordMixin{}}
}

func (Assessment) Fields() []ent.Field {
	return []ent.Field{
		field.String("id").
			MaxLen(36).
			Immutable().
			Comment("UUID assigned at commit"),
		field.String("subject_id").
			Comment("Caller-supplied subject identifier"),
		field.String("subject_name").
			Default(""),
		field.Int("score").
			Comment("Risk score in [0, 100]"),
		field.String("verdict").
			Comment("GROUNDED or TERMINATED"),
		field.String("latency_signal"),
		field.String("cadence_signal"),
		field.String("gaze_signal"),
		field.Float("delta_ms"),
		field.Float("cadence_variance").
			Comment("min/max keystroke interval ratio"),
		field.Float("gaze_drift").
			Comment("Fraction of off-target gaze samples"),
		field.Text("thresholds").
			Comment("JSON thresholds in effect when scored"),
		field.Text("report").
			Default("").
			Comment("Opaque AI forensic narrative"),
	}
}

func (Assessment) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("subject_id"),
		index.Fields("verdict"),
	}
}
