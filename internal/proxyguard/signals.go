package proxyguard

// LatencySignal classifies the question-to-response gap.
type LatencySignal string

const (
	LatencySecured  LatencySignal = "SECURED"
	LatencyHighRisk LatencySignal = "HIGH_RISK"
)

// CadenceSignal classifies keystroke interval uniformity.
type CadenceSignal string

const (
	CadenceHumanMatch CadenceSignal = "HUMAN_MATCH"
	CadenceMechanical CadenceSignal = "MECHANICAL_INPUT_FLAG"
)

// GazeSignal classifies gaze drift away from the focal target.
type GazeSignal string

const (
	GazeFocusGrounded GazeSignal = "FOCUS_GROUNDED"
	GazeShadowCheat   GazeSignal = "SHADOW_CHEATING_DETECTED"
)

// GazeTag marks a single gaze sample as on or off target.
type GazeTag string

const (
	GazeOnMesh  GazeTag = "MESH"
	GazeOffMesh GazeTag = "OFF_MESH"
)

// Signals groups the three per-signal verdicts of one sample.
type Signals struct {
	Latency LatencySignal `json:"latency"`
	Cadence CadenceSignal `json:"cadence"`
	Gaze    GazeSignal    `json:"gaze"`
}

// Field names used in errors, matching the wire names of a Sample.
const (
	FieldQuestionTimestamp = "question_timestamp_ms"
	FieldResponseTimestamp = "response_timestamp_ms"
	FieldTypingIntervals   = "typing_intervals"
	FieldGaze              = "gaze"
)
