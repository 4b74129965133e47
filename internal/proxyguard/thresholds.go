package proxyguard

import (
	"fmt"
	"math"
)

// Thresholds holds the cut-offs used by the signal extractors.
// It is passed by value into every scoring call.
type Thresholds struct {
	// LatencyMaxMs is the largest question-to-response gap (inclusive)
	// still considered human. Default: 220.
	LatencyMaxMs float64 `json:"latency_max_ms" yaml:"latency_max_ms"`

	// CadenceVarianceThreshold is the min/max keystroke interval ratio
	// below which typing is flagged as mechanical. Default: 0.15.
	CadenceVarianceThreshold float64 `json:"cadence_variance_threshold" yaml:"cadence_variance_threshold"`

	// GazeDriftThreshold is the off-target gaze fraction above which the
	// subject is flagged. Default: 0.12.
	GazeDriftThreshold float64 `json:"gaze_drift_threshold" yaml:"gaze_drift_threshold"`
}

// DefaultThresholds returns the reference thresholds.
func DefaultThresholds() Thresholds {
	return Thresholds{
		LatencyMaxMs:             220,
		CadenceVarianceThreshold: 0.15,
		GazeDriftThreshold:       0.12,
	}
}

// Validate reports whether every threshold is usable.
func (t Thresholds) Validate() error {
	if !(t.LatencyMaxMs > 0) || math.IsInf(t.LatencyMaxMs, 0) {
		return fmt.Errorf("latency_max_ms must be positive, got %v", t.LatencyMaxMs)
	}
	if !inUnitInterval(t.CadenceVarianceThreshold) {
		return fmt.Errorf("cadence_variance_threshold must be in (0, 1], got %v", t.CadenceVarianceThreshold)
	}
	if !inUnitInterval(t.GazeDriftThreshold) {
		return fmt.Errorf("gaze_drift_threshold must be in (0, 1], got %v", t.GazeDriftThreshold)
	}
	return nil
}

// Merge returns t with every zero field of override left as-is and every
// non-zero field replacing the value in t.
func (t Thresholds) Merge(override Thresholds) Thresholds {
	if override.LatencyMaxMs != 0 {
		t.LatencyMaxMs = override.LatencyMaxMs
	}
	if override.CadenceVarianceThreshold != 0 {
		t.CadenceVarianceThreshold = override.CadenceVarianceThreshold
	}
	if override.GazeDriftThreshold != 0 {
		t.GazeDriftThreshold = override.GazeDriftThreshold
	}
	return t
}

func inUnitInterval(v float64) bool {
	return v > 0 && v <= 1
}
