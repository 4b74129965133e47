package server

import (
	"encoding/json"
	"time"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

// scoreRequest is the body of the scoring and assessment endpoints. Raw
// iris positions are tagged with the configured range when gaze is empty.
type scoreRequest struct {
	proxyguard.Sample

	IrisX      []float64             `json:"iris_x"`
	Thresholds proxyguard.Thresholds `json:"thresholds"`

	SubjectID   string `json:"subject_id"`
	SubjectName string `json:"subject_name"`
}

type scoreResponse struct {
	*proxyguard.Result
	Thresholds proxyguard.Thresholds `json:"thresholds"`
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type assessmentResponse struct {
	ID          string    `json:"id"`
	Sequence    int64     `json:"sequence"`
	Timestamp   time.Time `json:"timestamp"`
	SubjectID   string    `json:"subject_id,omitempty"`
	SubjectName string    `json:"subject_name,omitempty"`

	Score   int                `json:"score"`
	Verdict string             `json:"verdict"`
	Signals proxyguard.Signals `json:"signals"`

	DeltaMs         float64 `json:"delta_ms"`
	CadenceVariance float64 `json:"cadence_variance"`
	GazeDrift       float64 `json:"gaze_drift"`

	Thresholds json.RawMessage `json:"thresholds,omitempty"`
	Report     string          `json:"report,omitempty"`

	NarrativePending bool `json:"narrative_pending,omitempty"`
}

func toAssessmentResponse(a *store.Assessment) assessmentResponse {
	resp := assessmentResponse{
		ID:          a.ID,
		Sequence:    a.Sequence,
		Timestamp:   a.Timestamp,
		SubjectID:   a.SubjectID,
		SubjectName: a.SubjectName,
		Score:       a.Score,
		Verdict:     a.Verdict,
		Signals: proxyguard.Signals{
			Latency: proxyguard.LatencySignal(a.LatencySignal),
			Cadence: proxyguard.CadenceSignal(a.CadenceSignal),
			Gaze:    proxyguard.GazeSignal(a.GazeSignal),
		},
		DeltaMs:         a.DeltaMs,
		CadenceVariance: a.CadenceVariance,
		GazeDrift:       a.GazeDrift,
		Report:          a.Report,
	}
	if json.Valid([]byte(a.Thresholds)) {
		resp.Thresholds = json.RawMessage(a.Thresholds)
	}
	return resp
}

type generateRequest struct {
	Prompt    string `json:"prompt" binding:"required"`
	System    string `json:"system"`
	MaxTokens int    `json:"max_tokens"`
}

type generateResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	StopReason   string `json:"stop_reason"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

type purposeUsage struct {
	Purpose      string `json:"purpose"`
	Calls        int    `json:"calls"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
	AvgLatencyMs int64  `json:"avg_latency_ms"`
}

type modelUsage struct {
	Model            string   `json:"model"`
	Calls            int      `json:"calls"`
	InputTokens      int      `json:"input_tokens"`
	OutputTokens     int      `json:"output_tokens"`
	EstimatedCostUSD *float64 `json:"estimated_cost_usd,omitempty"`
}

type usageResponse struct {
	Purposes []purposeUsage `json:"purposes"`
	Models   []modelUsage   `json:"models"`
}
