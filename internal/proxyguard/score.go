package proxyguard

import "math"

// Sample is one telemetry batch for one subject under evaluation.
// Timestamps are milliseconds on any monotonic clock shared by both fields.
type Sample struct {
	QuestionTimestampMs float64   `json:"question_timestamp_ms"`
	ResponseTimestampMs float64   `json:"response_timestamp_ms"`
	TypingIntervalsMs   []float64 `json:"typing_intervals"`
	Gaze                []GazeTag `json:"gaze"`
}

// DeltaMs returns the response latency of the sample.
func (s Sample) DeltaMs() float64 {
	return s.ResponseTimestampMs - s.QuestionTimestampMs
}

// CheckFinite rejects a sample whose timestamps, or their difference, are
// not finite. Scoring alone maps a NaN delta to SECURED; results that are
// encoded or stored must carry finite measurements.
func (s Sample) CheckFinite() error {
	finite := func(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
	switch {
	case !finite(s.QuestionTimestampMs):
		return &InvalidSampleError{Field: FieldQuestionTimestamp, Index: -1, Reason: "timestamp must be finite"}
	case !finite(s.ResponseTimestampMs):
		return &InvalidSampleError{Field: FieldResponseTimestamp, Index: -1, Reason: "timestamp must be finite"}
	case !finite(s.DeltaMs()):
		return &InvalidSampleError{Field: FieldResponseTimestamp, Index: -1, Reason: "latency overflows"}
	}
	return nil
}

// Result is the complete outcome of scoring one sample.
type Result struct {
	Score   int     `json:"score"`
	Verdict Verdict `json:"verdict"`
	Signals Signals `json:"signals"`

	// Raw measurements behind each signal.
	DeltaMs         float64 `json:"delta_ms"`
	CadenceVariance float64 `json:"cadence_variance"`
	GazeDrift       float64 `json:"gaze_drift"`
}

// Score runs the full pipeline on pre-extracted telemetry: the three
// extractors, the aggregator and the verdict classifier. It returns either a
// complete Result or an error naming the malformed input.
func Score(deltaMs float64, intervalsMs []float64, gaze []GazeTag, th Thresholds) (*Result, error) {
	latency := ClassifyLatency(deltaMs, th)

	cadence, variance, err := ClassifyCadence(intervalsMs, th)
	if err != nil {
		return nil, err
	}

	gazeSig, drift, err := ClassifyGaze(gaze, th)
	if err != nil {
		return nil, err
	}

	signals := Signals{Latency: latency, Cadence: cadence, Gaze: gazeSig}
	score := Aggregate(signals)

	return &Result{
		Score:           score,
		Verdict:         Classify(score),
		Signals:         signals,
		DeltaMs:         deltaMs,
		CadenceVariance: variance,
		GazeDrift:       drift,
	}, nil
}

// Evaluate scores a Sample. Out-of-order timestamps are accepted and yield a
// negative delta, which classifies as SECURED.
func Evaluate(s Sample, th Thresholds) (*Result, error) {
	return Score(s.DeltaMs(), s.TypingIntervalsMs, s.Gaze, th)
}
