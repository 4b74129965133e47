package forensic

import "github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"

// Recommendations the narrator may give. They are advisory only: the
// verdict always comes from the score.
const (
	RecommendClear    = "CLEAR"
	RecommendReview   = "REVIEW"
	RecommendEscalate = "ESCALATE"
)

// ReportSchema constrains the AI forensic narrative.
var ReportSchema = &llm.Schema{
	Name:        "forensic-report",
	Description: "Plain-language explanation of a proxy-interview risk assessment",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{
				"type":        "string",
				"description": "Two or three sentences explaining what the telemetry shows",
			},
			"indicators": map[string]any{
				"type":        "array",
				"items":       map[string]any{"type": "string"},
				"description": "One entry per raised signal, each naming the measurement behind it",
			},
			"recommendation": map[string]any{
				"type":        "string",
				"enum":        []any{RecommendClear, RecommendReview, RecommendEscalate},
				"description": "Suggested follow-up for the interviewer",
			},
		},
		"required":             []any{"summary", "indicators", "recommendation"},
		"additionalProperties": false,
	},
}
