package tempo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

// syntheticPulseTrain builds an envelope series with a clean periodic
// energy pulse every period samples, the shape flux/autocorrelation is
// meant to lock onto.
func syntheticPulseTrain(n, period int) []float64 {
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		phase := i % period
		out[i] = 0.1 + 0.9*math.Exp(-float64(phase*phase)/8)
	}
	return out
}

func TestEstimateSeriesLocksOntoPeriod(t *testing.T) {
	series := syntheticPulseTrain(2000, 25) // 25 samples at 50Hz = 120 BPM
	est := EstimateSeries(series, series)
	assert.True(t, est.HasBPM)
	assert.InDelta(t, 120.0, est.BPM, 1.0)
	assert.GreaterOrEqual(t, est.Confidence, 0.0)
	assert.LessOrEqual(t, est.Confidence, 1.0)
}

func TestEstimateSeriesTooShortReturnsEmpty(t *testing.T) {
	est := EstimateSeries(make([]float64, 10), make([]float64, 10))
	assert.False(t, est.HasBPM)
	assert.False(t, est.HasFirstBeat)
}

func TestEstimateSeriesFlatSignalReturnsEmpty(t *testing.T) {
	flat := make([]float64, 2000)
	for i := range flat {
		flat[i] = 0.5
	}
	est := EstimateSeries(flat, flat)
	assert.False(t, est.HasBPM)
}

func TestFluxIsNonNegative(t *testing.T) {
	series := []float64{0.1, 0.9, 0.2, 0.8, 0.05, 1.0}
	f := flux(series)
	for _, v := range f {
		assert.GreaterOrEqual(t, v, 0.0)
	}
}
