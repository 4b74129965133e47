package proxyguard

import "math"

// minCadenceSamples is the smallest interval sequence with a defined spread.
const minCadenceSamples = 2

// ClassifyCadence compares the min/max ratio of keystroke intervals against
// CadenceVarianceThreshold. A ratio below the threshold means the intervals
// are suspiciously uniform. It returns the computed ratio alongside the signal.
func ClassifyCadence(intervalsMs []float64, th Thresholds) (CadenceSignal, float64, error) {
	if len(intervalsMs) < minCadenceSamples {
		return "", 0, &InsufficientDataError{
			Field: FieldTypingIntervals,
			Got:   len(intervalsMs),
			Want:  minCadenceSamples,
		}
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	for i, v := range intervalsMs {
		if math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
			return "", 0, &InvalidSampleError{
				Field:  FieldTypingIntervals,
				Index:  i,
				Reason: "interval must be a positive finite duration",
			}
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	variance := lo / hi
	if variance < th.CadenceVarianceThreshold {
		return CadenceMechanical, variance, nil
	}
	return CadenceHumanMatch, variance, nil
}
