package llm

import (
	"math"
	"testing"
)

func TestEstimateCost(t *testing.T) {
	tests := []struct {
		model  string
		in     int
		out    int
		want   float64
		wantOK bool
	}{
		{"gpt-4o-mini", 1_000_000, 1_000_000, 0.75, true},
		{"gemini-2.0-flash", 500_000, 0, 0.05, true},
		{"google/gemini-2.0-flash-001", 0, 1_000_000, 0.4, true},
		{"mock", 100, 100, 0, false},
	}
	for _, tt := range tests {
		got, ok := EstimateCost(tt.model, tt.in, tt.out)
		if ok != tt.wantOK {
			t.Fatalf("EstimateCost(%q) ok = %v, want %v", tt.model, ok, tt.wantOK)
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("EstimateCost(%q) = %v, want %v", tt.model, got, tt.want)
		}
	}
}
