package proxyguard

import (
	"fmt"
	"math"
)

// IrisRange is the band of normalized horizontal iris positions (0 = left
// frame edge, 1 = right) that counts as looking at the screen.
type IrisRange struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultIrisRange returns the centered band used by the forensic lab.
func DefaultIrisRange() IrisRange {
	return IrisRange{Min: 0.35, Max: 0.65}
}

// Validate reports whether r describes a non-empty band inside [0, 1].
func (r IrisRange) Validate() error {
	if math.IsNaN(r.Min) || math.IsNaN(r.Max) || r.Min < 0 || r.Max > 1 || r.Min >= r.Max {
		return fmt.Errorf("iris range must satisfy 0 <= min < max <= 1, got [%v, %v]", r.Min, r.Max)
	}
	return nil
}

// Contains reports whether x lies inside the inclusive band.
func (r IrisRange) Contains(x float64) bool {
	return x >= r.Min && x <= r.Max
}

// TagIris converts raw iris x-coordinates into gaze tags.
func TagIris(xs []float64, r IrisRange) []GazeTag {
	tags := make([]GazeTag, len(xs))
	for i, x := range xs {
		if r.Contains(x) {
			tags[i] = GazeOnMesh
		} else {
			tags[i] = GazeOffMesh
		}
	}
	return tags
}
