// Package loudness implements the integrated LUFS accumulator of
// spec.md §4.E: a running sum-of-squares of the K-weighted signal
// across all channels, reduced to a single integrated loudness value.
package loudness

import (
	"math"

	"github.com/vividhyeok/djcore/internal/filterbank"
)

// Accumulator sums K-weighted energy across channels and frames. One
// Accumulator instance spans the whole analysis (head and tail both
// feed it); unlike the filter bank and envelope reducer it is NOT reset
// between windows, because the BS.1770 integration is a mean over
// independent frames and is still valid across the gap (spec.md §9).
type Accumulator struct {
	kw       filterbank.KWeighting
	channels []filterbank.PerChannel

	sumSq float64
	count uint64
}

// NewAccumulator builds an accumulator for the given sample rate and
// channel count. Channel weights are 1 (music assumed L/R equivalent,
// spec.md §4.E).
func NewAccumulator(sampleRate, numChannels int) *Accumulator {
	if numChannels < 1 {
		numChannels = 1
	}
	return &Accumulator{
		kw:       filterbank.NewKWeighting(sampleRate),
		channels: make([]filterbank.PerChannel, numChannels),
	}
}

// AddFrame folds one multi-channel frame into the running sum. samples
// must have one entry per channel this Accumulator was constructed
// with; extra or missing channels are ignored/zero-filled.
func (a *Accumulator) AddFrame(samples []float32) {
	for ch := range a.channels {
		var x float64
		if ch < len(samples) {
			x = float64(samples[ch])
		}
		weighted := a.channels[ch].Apply(a.kw, x)
		a.sumSq += weighted * weighted
	}
	a.count++
}

// IntegratedLUFS returns the integrated loudness accumulated so far,
// floored at -70 LUFS. Returns -70 when no frames were processed or the
// mean square is non-positive (spec.md §4.E).
func (a *Accumulator) IntegratedLUFS() float64 {
	if a.count == 0 || len(a.channels) == 0 {
		return -70
	}
	meanSq := a.sumSq / float64(a.count)
	if meanSq <= 0 {
		return -70
	}
	lufs := -0.691 + 10*math.Log10(meanSq)
	if lufs < -70 {
		return -70
	}
	return lufs
}
