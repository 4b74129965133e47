package proxyguard

// ClassifyLatency flags a response that arrives more than LatencyMaxMs after
// the question. Negative deltas and NaN compare as not-greater and are
// therefore SECURED.
func ClassifyLatency(deltaMs float64, th Thresholds) LatencySignal {
	if deltaMs > th.LatencyMaxMs {
		return LatencyHighRisk
	}
	return LatencySecured
}
