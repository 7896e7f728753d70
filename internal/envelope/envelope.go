// Package envelope reduces a stream of per-frame mono samples into the
// three parallel 50 Hz series spec.md §3/§4.C defines: wideband RMS,
// low-band RMS (after the filter bank's 150 Hz low-pass), and the
// vocal/wideband ratio (from the 200-3000 Hz band-pass).
package envelope

import (
	"math"

	"github.com/vividhyeok/djcore/internal/filterbank"
)

// Series holds the three parallel envelope sequences for one window
// (head or tail). All three always share the same length.
type Series struct {
	Wideband []float64
	Low      []float64
	Vocal    []float64
}

// Len reports the number of 20 ms frames accumulated so far.
func (s Series) Len() int { return len(s.Wideband) }

// Reducer accumulates samples into 20 ms windows and emits one Series
// entry per window, at exactly 50 Hz. It must not smooth or resample
// across window boundaries (spec.md §4.C).
type Reducer struct {
	windowSize int
	bank       *filterbank.Bank

	sumSq      float64
	sumLowSq   float64
	sumVocalSq float64
	count      int

	series Series
}

// NewReducer builds a reducer for the given sample rate, using bank for
// the low-pass/band-pass stages. windowSize is floor(sampleRate*0.02);
// the caller must treat a zero windowSize as a construction failure
// (spec.md §7, reason (e)).
func NewReducer(sampleRate int, bank *filterbank.Bank) (*Reducer, int) {
	windowSize := int(float64(sampleRate) * 0.02)
	return &Reducer{windowSize: windowSize, bank: bank}, windowSize
}

// Add folds one mono sample into the current window, flushing a
// completed Series entry every windowSize samples.
func (r *Reducer) Add(v float64) {
	r.sumSq += v * v
	low := r.bank.LowPass(v)
	r.sumLowSq += low * low
	vocal := r.bank.BandPass(v)
	r.sumVocalSq += vocal * vocal
	r.count++

	if r.count == r.windowSize {
		r.flush()
	}
}

// Flush emits whatever partial window remains (end-of-stream residual,
// per spec.md §4.C: "a residual partial window is flushed at window
// end").
func (r *Reducer) Flush() {
	if r.count > 0 {
		r.flush()
	}
}

func (r *Reducer) flush() {
	n := float64(r.count)
	rms := math.Sqrt(r.sumSq / n)
	rmsLow := math.Sqrt(r.sumLowSq / n)
	rmsVocal := math.Sqrt(r.sumVocalSq / n)

	ratio := 0.0
	if rms > 1e-4 {
		ratio = rmsVocal / rms
	}

	r.series.Wideband = append(r.series.Wideband, rms)
	r.series.Low = append(r.series.Low, rmsLow)
	r.series.Vocal = append(r.series.Vocal, ratio)

	r.sumSq, r.sumLowSq, r.sumVocalSq, r.count = 0, 0, 0, 0
}

// Series returns the accumulated envelope series so far.
func (r *Reducer) Series() Series {
	return r.series
}
