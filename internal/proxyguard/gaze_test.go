package proxyguard

import (
	"errors"
	"testing"
)

func TestClassifyGaze(t *testing.T) {
	on, off := GazeOnMesh, GazeOffMesh
	tests := []struct {
		name      string
		tags      []GazeTag
		want      GazeSignal
		wantDrift float64
	}{
		{"demo data", []GazeTag{on, off, off, on}, GazeShadowCheat, 0.5},
		{"all on target", []GazeTag{on, on, on}, GazeFocusGrounded, 0},
		{"all off target", []GazeTag{off}, GazeShadowCheat, 1},
		{"one in ten", []GazeTag{off, on, on, on, on, on, on, on, on, on}, GazeFocusGrounded, 0.1},
		{"one in eight", []GazeTag{off, on, on, on, on, on, on, on}, GazeShadowCheat, 0.125},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, drift, err := ClassifyGaze(tt.tags, DefaultThresholds())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("signal = %q, want %q", got, tt.want)
			}
			if drift != tt.wantDrift {
				t.Errorf("drift = %v, want %v", drift, tt.wantDrift)
			}
		})
	}
}

func TestClassifyGaze_Empty(t *testing.T) {
	_, _, err := ClassifyGaze(nil, DefaultThresholds())
	var ide *InsufficientDataError
	if !errors.As(err, &ide) {
		t.Fatalf("expected InsufficientDataError, got %v", err)
	}
	if ide.Field != FieldGaze {
		t.Errorf("field = %q, want %q", ide.Field, FieldGaze)
	}
}

func TestClassifyGaze_UnknownTag(t *testing.T) {
	_, _, err := ClassifyGaze([]GazeTag{GazeOnMesh, "SIDEWAYS"}, DefaultThresholds())
	var ise *InvalidSampleError
	if !errors.As(err, &ise) {
		t.Fatalf("expected InvalidSampleError, got %v", err)
	}
	if ise.Index != 1 {
		t.Errorf("index = %d, want 1", ise.Index)
	}
}
