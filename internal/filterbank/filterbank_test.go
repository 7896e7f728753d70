package filterbank

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLowPassConvergesOnConstantInput(t *testing.T) {
	lp := newLowPass(150, 44100)
	var out float64
	for i := 0; i < 10000; i++ {
		out = lp.process(1.0)
	}
	assert.InDelta(t, 1.0, out, 1e-3)
}

func TestLowPassResetClearsState(t *testing.T) {
	lp := newLowPass(150, 44100)
	for i := 0; i < 1000; i++ {
		lp.process(1.0)
	}
	lp.reset()
	assert.Equal(t, 0.0, lp.prev)
}

func TestHighPassRejectsDC(t *testing.T) {
	hp := newHighPass(200, 44100)
	var out float64
	for i := 0; i < 10000; i++ {
		out = hp.process(1.0)
	}
	assert.InDelta(t, 0.0, out, 1e-3)
}

func TestBankBandPassPassesMidbandTone(t *testing.T) {
	sampleRate := 44100
	bank := NewBank(sampleRate)
	freq := 1000.0 // inside the 200-3000Hz vocal band
	var sumSq float64
	n := 4000
	for i := 0; i < n; i++ {
		x := math.Sin(2 * math.Pi * freq * float64(i) / float64(sampleRate))
		y := bank.BandPass(x)
		if i > n/2 { // skip filter settling time
			sumSq += y * y
		}
	}
	rms := math.Sqrt(sumSq / float64(n/2))
	assert.Greater(t, rms, 0.2, "a mid-band tone should pass through with significant energy")
}

func TestBankResetZeroesAllStages(t *testing.T) {
	bank := NewBank(44100)
	for i := 0; i < 100; i++ {
		bank.LowPass(1.0)
		bank.BandPass(1.0)
	}
	bank.Reset()
	assert.Equal(t, 0.0, bank.lpf.prev)
	assert.False(t, bank.bpHP.inited)
	assert.Equal(t, 0.0, bank.bpLP.prev)
}

func TestKWeightingPerChannelResetZeroesState(t *testing.T) {
	kw := NewKWeighting(48000)
	var pc PerChannel
	for i := 0; i < 100; i++ {
		pc.Apply(kw, 1.0)
	}
	pc.Reset()
	assert.Equal(t, BiquadState{}, pc.pre)
	assert.Equal(t, BiquadState{}, pc.rlb)
}
