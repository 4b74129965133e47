package proxyguard

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func TestAggregate(t *testing.T) {
	tests := []struct {
		name string
		s    Signals
		want int
	}{
		{"clean", Signals{LatencySecured, CadenceHumanMatch, GazeFocusGrounded}, 0},
		{"all flagged", Signals{LatencyHighRisk, CadenceMechanical, GazeShadowCheat}, 100},
		{"latency only", Signals{LatencyHighRisk, CadenceHumanMatch, GazeFocusGrounded}, 45},
		{"cadence only", Signals{LatencySecured, CadenceMechanical, GazeFocusGrounded}, 35},
		{"gaze only", Signals{LatencySecured, CadenceHumanMatch, GazeShadowCheat}, 20},
		{"latency and gaze", Signals{LatencyHighRisk, CadenceHumanMatch, GazeShadowCheat}, 65},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Aggregate(tt.s); got != tt.want {
				t.Errorf("Aggregate() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestClassify_Boundary(t *testing.T) {
	if got := Classify(50); got != VerdictGrounded {
		t.Errorf("Classify(50) = %q, want %q", got, VerdictGrounded)
	}
	if got := Classify(51); got != VerdictTerminated {
		t.Errorf("Classify(51) = %q, want %q", got, VerdictTerminated)
	}
	if got := Classify(0); got != VerdictGrounded {
		t.Errorf("Classify(0) = %q, want %q", got, VerdictGrounded)
	}
	if got := Classify(MaxScore); got != VerdictTerminated {
		t.Errorf("Classify(100) = %q, want %q", got, VerdictTerminated)
	}
}

func TestScore_DemoScenario(t *testing.T) {
	gaze := []GazeTag{GazeOnMesh, GazeOffMesh, GazeOffMesh, GazeOnMesh}
	got, err := Score(500, []float64{45, 46, 44, 45}, gaze, DefaultThresholds())
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	want := &Result{
		Score:   65,
		Verdict: VerdictTerminated,
		Signals: Signals{
			Latency: LatencyHighRisk,
			Cadence: CadenceHumanMatch,
			Gaze:    GazeShadowCheat,
		},
		DeltaMs:         500,
		CadenceVariance: 44.0 / 46.0,
		GazeDrift:       0.5,
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("Score() mismatch (-want +got):\n%s", diff)
	}
}

func TestScore_Idempotent(t *testing.T) {
	intervals := []float64{12, 180, 95}
	gaze := []GazeTag{GazeOnMesh, GazeOffMesh}
	first, err := Score(300, intervals, gaze, DefaultThresholds())
	if err != nil {
		t.Fatalf("first Score: %v", err)
	}
	second, err := Score(300, intervals, gaze, DefaultThresholds())
	if err != nil {
		t.Fatalf("second Score: %v", err)
	}
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated Score differs:\n%s", diff)
	}
	if first.Score != 100 {
		t.Errorf("score = %d, want 100", first.Score)
	}
}

func TestScore_EmptyInputsFail(t *testing.T) {
	gaze := []GazeTag{GazeOnMesh}

	res, err := Score(100, []float64{}, gaze, DefaultThresholds())
	var ide *InsufficientDataError
	if !errors.As(err, &ide) || ide.Field != FieldTypingIntervals {
		t.Fatalf("empty intervals: expected InsufficientDataError on %s, got %v", FieldTypingIntervals, err)
	}
	if res != nil {
		t.Error("expected nil result alongside error")
	}

	_, err = Score(100, []float64{40, 60}, []GazeTag{}, DefaultThresholds())
	if !errors.As(err, &ide) || ide.Field != FieldGaze {
		t.Fatalf("empty gaze: expected InsufficientDataError on %s, got %v", FieldGaze, err)
	}
}

func TestEvaluate_UsesTimestampDelta(t *testing.T) {
	s := Sample{
		QuestionTimestampMs: 10_000,
		ResponseTimestampMs: 10_150,
		TypingIntervalsMs:   []float64{80, 120, 95},
		Gaze:                []GazeTag{GazeOnMesh, GazeOnMesh},
	}
	res, err := Evaluate(s, DefaultThresholds())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.DeltaMs != 150 {
		t.Errorf("delta = %v, want 150", res.DeltaMs)
	}
	if res.Verdict != VerdictGrounded || res.Score != 0 {
		t.Errorf("got %d/%q, want 0/%q", res.Score, res.Verdict, VerdictGrounded)
	}
}

func TestEvaluate_OutOfOrderTimestampsSecured(t *testing.T) {
	s := Sample{
		QuestionTimestampMs: 5_000,
		ResponseTimestampMs: 1_000,
		TypingIntervalsMs:   []float64{80, 120},
		Gaze:                []GazeTag{GazeOnMesh},
	}
	res, err := Evaluate(s, DefaultThresholds())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Signals.Latency != LatencySecured {
		t.Errorf("latency = %q, want %q", res.Signals.Latency, LatencySecured)
	}
}

func TestSample_CheckFinite(t *testing.T) {
	tests := []struct {
		name      string
		q, r      float64
		wantField string
	}{
		{"finite", 1_000, 1_250, ""},
		{"out of order is finite", 5_000, 1_000, ""},
		{"NaN question", math.NaN(), 1_000, FieldQuestionTimestamp},
		{"NaN response", 1_000, math.NaN(), FieldResponseTimestamp},
		{"infinite response", 0, math.Inf(1), FieldResponseTimestamp},
		{"delta overflow", -1e308, 1e308, FieldResponseTimestamp},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Sample{QuestionTimestampMs: tt.q, ResponseTimestampMs: tt.r}.CheckFinite()
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var ise *InvalidSampleError
			if !errors.As(err, &ise) {
				t.Fatalf("expected InvalidSampleError, got %v", err)
			}
			if ise.Field != tt.wantField || ise.Index != -1 {
				t.Errorf("got %s[%d], want %s[-1]", ise.Field, ise.Index, tt.wantField)
			}
		})
	}
}

func TestEvaluate_NaNLatencyIsSecuredButNotFinite(t *testing.T) {
	s := Sample{
		QuestionTimestampMs: 1_000,
		ResponseTimestampMs: math.NaN(),
		TypingIntervalsMs:   []float64{45, 46},
		Gaze:                []GazeTag{GazeOnMesh},
	}
	res, err := Evaluate(s, DefaultThresholds())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if res.Signals.Latency != LatencySecured {
		t.Errorf("latency = %q, want %q", res.Signals.Latency, LatencySecured)
	}
	if s.CheckFinite() == nil {
		t.Fatal("NaN sample passed CheckFinite")
	}
	if _, err := json.Marshal(res); err == nil {
		t.Fatal("expected json.Marshal to reject a NaN delta")
	}
}

func TestEvaluate_FiniteResultsEncode(t *testing.T) {
	s := Sample{
		QuestionTimestampMs: 5_000,
		ResponseTimestampMs: 1_000,
		TypingIntervalsMs:   []float64{80, 120},
		Gaze:                []GazeTag{GazeOnMesh, GazeOffMesh},
	}
	if err := s.CheckFinite(); err != nil {
		t.Fatalf("CheckFinite: %v", err)
	}
	res, err := Evaluate(s, DefaultThresholds())
	if err != nil {
		t.Fatalf("Evaluate failed: %v", err)
	}
	if _, err := json.Marshal(res); err != nil {
		t.Fatalf("finite result does not encode: %v", err)
	}
}
