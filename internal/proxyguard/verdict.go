package proxyguard

// Verdict is the final classification of a telemetry batch.
type Verdict string

const (
	VerdictGrounded   Verdict = "GROUNDED"
	VerdictTerminated Verdict = "TERMINATED"
)

// TerminateAbove is the score (exclusive) above which a batch is terminated.
const TerminateAbove = 50

// Classify maps a risk score to a verdict.
func Classify(score int) Verdict {
	if score > TerminateAbove {
		return VerdictTerminated
	}
	return VerdictGrounded
}
