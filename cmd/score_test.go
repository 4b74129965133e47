package cmd

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/proxyguard"
	"github.com/vaultiqx-sentinel/VeritrustX-sub000/internal/store"
)

func TestDecodeSamples(t *testing.T) {
	t.Run("single object", func(t *testing.T) {
		got, err := decodeSamples([]byte(`{"question_timestamp_ms":1,"response_timestamp_ms":301,"typing_intervals":[10,200],"gaze":["MESH"]}`))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, float64(300), got[0].DeltaMs())
		assert.Equal(t, []proxyguard.GazeTag{proxyguard.GazeOnMesh}, got[0].Gaze)
	})

	t.Run("array", func(t *testing.T) {
		got, err := decodeSamples([]byte("  [{\"typing_intervals\":[1,2]},{\"typing_intervals\":[3,4]}]\n"))
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("empty array", func(t *testing.T) {
		_, err := decodeSamples([]byte(`[]`))
		assert.Error(t, err)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := decodeSamples([]byte(`not json`))
		assert.Error(t, err)
	})
}

func TestScoreOnly_ReportsIndex(t *testing.T) {
	samples := []proxyguard.Sample{
		{TypingIntervalsMs: []float64{100, 110}, Gaze: []proxyguard.GazeTag{proxyguard.GazeOnMesh}},
		{TypingIntervalsMs: []float64{100}, Gaze: []proxyguard.GazeTag{proxyguard.GazeOnMesh}},
	}
	_, err := scoreOnly(proxyguard.DefaultThresholds(), samples)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample 1")

	var insufficient *proxyguard.InsufficientDataError
	assert.ErrorAs(t, err, &insufficient)
}

func TestScoreOnly_RejectsNonFiniteTimestamps(t *testing.T) {
	samples := []proxyguard.Sample{{
		QuestionTimestampMs: 1000,
		ResponseTimestampMs: math.NaN(),
		TypingIntervalsMs:   []float64{45, 46},
		Gaze:                []proxyguard.GazeTag{proxyguard.GazeOnMesh},
	}}
	_, err := scoreOnly(proxyguard.DefaultThresholds(), samples)

	var invalid *proxyguard.InvalidSampleError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, proxyguard.FieldResponseTimestamp, invalid.Field)
	assert.Contains(t, err.Error(), "sample 0")
}

func TestBuildUsageReport(t *testing.T) {
	report := buildUsageReport(nil, []store.ModelUsage{
		{Model: "gpt-4o-mini", Calls: 2, InputTokens: 1_000_000, OutputTokens: 0},
		{Model: "mock", Calls: 1},
	})

	require.Len(t, report.Models, 2)
	require.NotNil(t, report.Models[0].CostUSD)
	assert.InDelta(t, 0.15, *report.Models[0].CostUSD, 1e-9)
	assert.Nil(t, report.Models[1].CostUSD)
	assert.InDelta(t, 0.15, report.TotalCostUSD, 1e-9)
	assert.Equal(t, []string{"mock"}, report.Unpriced)
}
