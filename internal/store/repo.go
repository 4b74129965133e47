package store

import (
	"context"
	"time"
)

// QueryOpts configures record queries with filtering and pagination.
type QueryOpts struct {
	Limit   int       // max results (0 = unlimited)
	Verdict string    // exact verdict match (assessments only)
	Purpose string    // exact purpose match (LLM events only)
	From    time.Time // timestamp >= From
	To      time.Time // timestamp <= To
}

// Assessment is a persisted Proxy Guard evaluation.
type Assessment struct {
	ID          string
	Sequence    int64
	Timestamp   time.Time
	SubjectID   string
	SubjectName string

	Score         int
	Verdict       string
	LatencySignal string
	CadenceSignal string
	GazeSignal    string

	DeltaMs         float64
	CadenceVariance float64
	GazeDrift       float64

	// Thresholds is the JSON encoding of the thresholds in effect.
	Thresholds string

	// Report is the opaque AI forensic narrative, empty until attached.
	Report string
}

// AssessmentRepo persists assessments.
type AssessmentRepo interface {
	// Save stores a new assessment, assigning Sequence and (if zero) Timestamp.
	Save(ctx context.Context, a *Assessment) error

	// Get returns the assessment with the given ID, or nil if none exists.
	Get(ctx context.Context, id string) (*Assessment, error)

	// List returns assessments newest first.
	List(ctx context.Context, opts QueryOpts) ([]Assessment, error)

	// AttachReport sets the AI narrative on an existing assessment.
	AttachReport(ctx context.Context, id, report string) error
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// LLMEvent is a stored LLM request event.
type LLMEvent struct {
	ID        int
	Sequence  int64
	Timestamp time.Time
	LLMRequestEventData
}

// PurposeUsage aggregates LLM calls for one purpose label.
type PurposeUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// ModelUsage aggregates LLM calls for one model ID.
type ModelUsage struct {
	Model        string
	Calls        int
	InputTokens  int
	OutputTokens int
}

// EventRepo provides append and query access to LLM request events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// QueryLLMEvents returns events newest first.
	QueryLLMEvents(ctx context.Context, opts QueryOpts) ([]LLMEvent, error)

	// GetLLMEvent returns a single event, or nil if none exists.
	GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error)

	// LLMUsageByPurpose aggregates token usage per purpose label.
	LLMUsageByPurpose(ctx context.Context) ([]PurposeUsage, error)

	// LLMUsageByModel aggregates token usage per model.
	LLMUsageByModel(ctx context.Context) ([]ModelUsage, error)
}
