package forensic

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/llm"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
)

func narrativeRequest() NarrativeRequest {
	return NarrativeRequest{
		AssessmentID: "a-1",
		SubjectName:  "Ada",
		Result: proxyguard.Result{
			Score:   80,
			Verdict: proxyguard.VerdictTerminated,
			Signals: proxyguard.Signals{
				Latency: proxyguard.LatencyHighRisk,
				Cadence: proxyguard.CadenceMechanical,
				Gaze:    proxyguard.GazeFocusGrounded,
			},
			DeltaMs:         300,
			CadenceVariance: 0.05,
		},
		Thresholds: proxyguard.DefaultThresholds(),
	}
}

func TestBuildNarrativeMessage(t *testing.T) {
	msg, err := buildNarrativeMessage(narrativeRequest())
	if err != nil {
		t.Fatalf("buildNarrativeMessage() error: %v", err)
	}
	for _, want := range []string{
		"Assessment: a-1",
		"Candidate: Ada",
		"Risk score: 80 / 100",
		"Verdict: TERMINATED",
		"HIGH_RISK (300 ms, human limit 220 ms)",
		"MECHANICAL_INPUT_FLAG (min/max interval ratio 0.050, flag below 0.15)",
		"FOCUS_GROUNDED (off-target fraction 0.000, flag above 0.12)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("prompt missing %q:\n%s", want, msg)
		}
	}
}

func TestBuildNarrativeMessage_NoSubject(t *testing.T) {
	req := narrativeRequest()
	req.SubjectName = ""
	msg, err := buildNarrativeMessage(req)
	if err != nil {
		t.Fatalf("buildNarrativeMessage() error: %v", err)
	}
	if strings.Contains(msg, "Candidate:") {
		t.Errorf("prompt should omit the candidate line:\n%s", msg)
	}
}

func TestNarrate(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Content: json.RawMessage(validReport)})
	n := NewNarrator(mock, DefaultNarratorConfig())

	report, err := n.Narrate(context.Background(), narrativeRequest())
	if err != nil {
		t.Fatalf("Narrate() error: %v", err)
	}
	if report.Recommendation != RecommendEscalate || len(report.Indicators) != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.Raw != validReport {
		t.Fatalf("Raw = %q", report.Raw)
	}

	req, _ := mock.LastCall()
	if req.MaxTokens != 512 || req.System != narrativeSystemPrompt {
		t.Fatalf("unexpected request: %+v", req)
	}
}

func TestNarrate_BadJSON(t *testing.T) {
	mock := llm.NewMockProvider(llm.MockResponse{Text: "not json"})
	n := NewNarrator(mock, DefaultNarratorConfig())
	if _, err := n.Narrate(context.Background(), narrativeRequest()); err == nil {
		t.Fatal("expected parse error")
	}
}
