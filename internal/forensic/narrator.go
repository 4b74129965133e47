package forensic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"text/template"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
)

// NarratorConfig holds generation settings for forensic reports.
type NarratorConfig struct {
	MaxTokens   int
	Temperature float64
}

// DefaultNarratorConfig returns sensible defaults.
func DefaultNarratorConfig() NarratorConfig {
	return NarratorConfig{
		MaxTokens:   512,
		Temperature: 0.2,
	}
}

// Narrator asks an LLM to explain a scored assessment.
type Narrator struct {
	provider llm.Provider
	cfg      NarratorConfig
}

// NewNarrator creates a Narrator.
func NewNarrator(provider llm.Provider, cfg NarratorConfig) *Narrator {
	return &Narrator{provider: provider, cfg: cfg}
}

// NarrativeRequest is everything the model sees about one assessment.
type NarrativeRequest struct {
	AssessmentID string
	SubjectName  string
	Result       proxyguard.Result
	Thresholds   proxyguard.Thresholds
}

// Report is the structured narrative. Raw keeps the validated JSON exactly
// as returned so it can be stored without re-encoding.
type Report struct {
	Summary        string   `json:"summary"`
	Indicators     []string `json:"indicators"`
	Recommendation string   `json:"recommendation"`

	Raw string `json:"-"`
}

// Narrate generates the report for req.
func (n *Narrator) Narrate(ctx context.Context, req NarrativeRequest) (*Report, error) {
	ctx = llm.WithPurpose(ctx, llm.PurposeForensicReport)

	userMsg, err := buildNarrativeMessage(req)
	if err != nil {
		return nil, fmt.Errorf("build narrative prompt: %w", err)
	}

	llmReq := llm.UserPrompt(narrativeSystemPrompt, userMsg)
	llmReq.Schema = ReportSchema
	llmReq.MaxTokens = n.cfg.MaxTokens
	llmReq.Temperature = n.cfg.Temperature

	resp, err := n.provider.Generate(ctx, llmReq)
	if err != nil {
		return nil, fmt.Errorf("LLM narrative failed: %w", err)
	}

	var report Report
	if err := json.Unmarshal(resp.Content, &report); err != nil {
		return nil, fmt.Errorf("parse narrative response: %w", err)
	}
	report.Raw = string(resp.Content)
	return &report, nil
}

const narrativeSystemPrompt = `You are a forensic analyst reviewing telemetry from a remote technical interview. The scoring engine has already produced a risk score and verdict; do not change or restate them as your own judgement.

Instructions:
- Explain each raised signal using the measurement behind it.
- If no signal was raised, say the telemetry is consistent with an unassisted candidate.
- Recommend CLEAR, REVIEW or ESCALATE as a follow-up for the interviewer.
- Keep the summary under 60 words.`

var narrativeUserTemplate = template.Must(template.New("narrative").Parse(`Assessment: {{.AssessmentID}}
{{if .SubjectName}}Candidate: {{.SubjectName}}
{{end}}Risk score: {{.Result.Score}} / 100
Verdict: {{.Result.Verdict}}

Signals:
- Response latency: {{.Result.Signals.Latency}} ({{printf "%.0f" .Result.DeltaMs}} ms, human limit {{printf "%.0f" .Thresholds.LatencyMaxMs}} ms)
- Typing cadence: {{.Result.Signals.Cadence}} (min/max interval ratio {{printf "%.3f" .Result.CadenceVariance}}, flag below {{.Thresholds.CadenceVarianceThreshold}})
- Gaze: {{.Result.Signals.Gaze}} (off-target fraction {{printf "%.3f" .Result.GazeDrift}}, flag above {{.Thresholds.GazeDriftThreshold}})
`))

func buildNarrativeMessage(req NarrativeRequest) (string, error) {
	var buf bytes.Buffer
	if err := narrativeUserTemplate.Execute(&buf, req); err != nil {
		return "", err
	}
	return buf.String(), nil
}
