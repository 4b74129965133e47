package proxyguard

import "strconv"

// ClassifyGaze flags a sample whose off-target fraction exceeds
// GazeDriftThreshold. It returns the computed drift alongside the signal.
func ClassifyGaze(tags []GazeTag, th Thresholds) (GazeSignal, float64, error) {
	if len(tags) == 0 {
		return "", 0, &InsufficientDataError{Field: FieldGaze, Got: 0, Want: 1}
	}

	off := 0
	for i, tag := range tags {
		switch tag {
		case GazeOnMesh:
		case GazeOffMesh:
			off++
		default:
			return "", 0, &InvalidSampleError{
				Field:  FieldGaze,
				Index:  i,
				Reason: "unknown gaze tag " + strconv.Quote(string(tag)),
			}
		}
	}

	drift := float64(off) / float64(len(tags))
	if drift > th.GazeDriftThreshold {
		return GazeShadowCheat, drift, nil
	}
	return GazeFocusGrounded, drift, nil
}
