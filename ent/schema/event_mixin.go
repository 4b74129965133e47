// Package schema declares the stored entities. The store package keeps its
// migration tables in step with these declarations.
package schema

import (
	"time"

	"entgo.io/ent"
	"entgo.io/ent/schema/field"
	"entgo.io/ent/schema/index"
	"entgo.io/ent/schema/mixin"
)

// RecordMixin provides the ordering fields shared by every stored record.
type RecordMixin struct {
	mixin.Schema
}

func (RecordMixin) Fields() []ent.Field {
	return []ent.Field{
		field.Int64("sequence").
			Unique().
			Immutable().
			Comment("Monotonically increasing sequence number, unique per table"),
		field.Time("timestamp").
			Default(time.Now).
			Immutable().
			Comment("UTC time the record was written"),
	}
}

func (RecordMixin) Indexes() []ent.Index {
	return []ent.Index{
		index.Fields("timestamp"),
	}
}
