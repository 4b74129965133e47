package proxyguard

import "fmt"

// InsufficientDataError indicates a telemetry field has too few
// observations to compute its signal.
type InsufficientDataError struct {
	Field string
	Got   int
	Want  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s: got %d samples, need at least %d", e.Field, e.Got, e.Want)
}

// InvalidSampleError indicates a single observation is outside the domain
// of its extractor (non-positive interval, unknown gaze tag). Index is -1
// for scalar fields.
type InvalidSampleError struct {
	Field  string
	Index  int
	Reason string
}

func (e *InvalidSampleError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("invalid %s[%d]: %s", e.Field, e.Index, e.Reason)
}
