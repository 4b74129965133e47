package store

import (
	"entgo.io/ent/dialect/sql/schema"
	"entgo.io/ent/schema/field"
)

const (
	tableAssessments = "assessments"
	tableLLMEvents   = "llm_events"
)

var (
	// AssessmentsColumns holds the columns for the "assessments" table.
	AssessmentsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeString, Size: 36},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "subject_id", Type: field.TypeString},
		{Name: "subject_name", Type: field.TypeString, Default: ""},
		{Name: "score", Type: field.TypeInt},
		{Name: "verdict", Type: field.TypeString},
		{Name: "latency_signal", Type: field.TypeString},
		{Name: "cadence_signal", Type: field.TypeString},
		{Name: "gaze_signal", Type: field.TypeString},
		{Name: "delta_ms", Type: field.TypeFloat64},
		{Name: "cadence_variance", Type: field.TypeFloat64},
		{Name: "gaze_drift", Type: field.TypeFloat64},
		{Name: "thresholds", Type: field.TypeString, Size: 2147483647},
		{Name: "report", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// AssessmentsTable holds the schema information for the "assessments" table.
	AssessmentsTable = &schema.Table{
		Name:       tableAssessments,
		Columns:    AssessmentsColumns,
		PrimaryKey: []*schema.Column{AssessmentsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "assessment_timestamp", Unique: false, Columns: []*schema.Column{AssessmentsColumns[2]}},
			{Name: "assessment_subject_id", Unique: false, Columns: []*schema.Column{AssessmentsColumns[3]}},
			{Name: "assessment_verdict", Unique: false, Columns: []*schema.Column{AssessmentsColumns[6]}},
		},
	}

	// LLMEventsColumns holds the columns for the "llm_events" table.
	LLMEventsColumns = []*schema.Column{
		{Name: "id", Type: field.TypeInt, Increment: true},
		{Name: "sequence", Type: field.TypeInt64, Unique: true},
		{Name: "timestamp", Type: field.TypeTime},
		{Name: "provider", Type: field.TypeString},
		{Name: "model", Type: field.TypeString},
		{Name: "purpose", Type: field.TypeString},
		{Name: "input_tokens", Type: field.TypeInt, Default: 0},
		{Name: "output_tokens", Type: field.TypeInt, Default: 0},
		{Name: "latency_ms", Type: field.TypeInt64, Default: 0},
		{Name: "success", Type: field.TypeBool},
		{Name: "error_message", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "request_body", Type: field.TypeString, Size: 2147483647, Default: ""},
		{Name: "response_body", Type: field.TypeString, Size: 2147483647, Default: ""},
	}
	// LLMEventsTable holds the schema information for the "llm_events" table.
	LLMEventsTable = &schema.Table{
		Name:       tableLLMEvents,
		Columns:    LLMEventsColumns,
		PrimaryKey: []*schema.Column{LLMEventsColumns[0]},
		Indexes: []*schema.Index{
			{Name: "llmevent_timestamp", Unique: false, Columns: []*schema.Column{LLMEventsColumns[2]}},
			{Name: "llmevent_purpose", Unique: false, Columns: []*schema.Column{LLMEventsColumns[5]}},
			{Name: "llmevent_success", Unique: false, Columns: []*schema.Column{LLMEventsColumns[9]}},
		},
	}

	// Tables holds all the tables in the schema.
	Tables = []*schema.Table{
		AssessmentsTable,
		LLMEventsTable,
	}
)
