package proxyguard

// Per-signal weights. Latency is treated as the most reliable signal,
// gaze the least.
const (
	WeightLatency = 45
	WeightCadence = 35
	WeightGaze    = 20

	// MaxScore is the upper bound of any aggregated score.
	MaxScore = 100
)

// Fails to compile if the weights can sum past MaxScore.
const _ = uint(MaxScore - (WeightLatency + WeightCadence + WeightGaze))

// Aggregate sums the weights of every flagged signal. The result is always
// in [0, MaxScore].
func Aggregate(s Signals) int {
	score := 0
	if s.Latency == LatencyHighRisk {
		score += WeightLatency
	}
	if s.Cadence == CadenceMechanical {
		score += WeightCadence
	}
	if s.Gaze == GazeShadowCheat {
		score += WeightGaze
	}
	return score
}
