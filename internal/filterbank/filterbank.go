// Package filterbank implements the online, stateful filters shared by
// the envelope reducer and the loudness meter: first-order low-pass and
// band-pass sections, plus the ITU-R BS.1770 K-weighting biquad cascade.
package filterbank

import "math"

// lowPass is a one-pole low-pass section: y[n] = a*x[n] + (1-a)*y[n-1].
type lowPass struct {
	a    float64
	prev float64
}

func newLowPass(cutoffHz float64, sampleRate int) *lowPass {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / float64(sampleRate)
	a := dt / (rc + dt)
	return &lowPass{a: a}
}

func (f *lowPass) process(x float64) float64 {
	f.prev = f.a*x + (1-f.a)*f.prev
	return f.prev
}

func (f *lowPass) reset() { f.prev = 0 }

// highPass is a one-pole high-pass section:
// y[n] = alpha*(y[n-1] + x[n] - x[n-1]).
type highPass struct {
	alpha  float64
	lastX  float64
	lastY  float64
	inited bool
}

func newHighPass(cutoffHz float64, sampleRate int) *highPass {
	rc := 1 / (2 * math.Pi * cutoffHz)
	dt := 1 / float64(sampleRate)
	return &highPass{alpha: rc / (rc + dt)}
}

func (h *highPass) process(x float64) float64 {
	if !h.inited {
		h.lastX = x
		h.inited = true
	}
	y := h.alpha * (h.lastY + x - h.lastX)
	h.lastX = x
	h.lastY = y
	return y
}

func (h *highPass) reset() {
	h.lastX = 0
	h.lastY = 0
	h.inited = false
}

// Bank holds the stateful filters the envelope reducer needs: a
// low-pass at 150 Hz feeding the low-band RMS, and a 200-3000 Hz
// band-pass (high-pass cascaded into low-pass) feeding the vocal-band
// RMS. Zero-initialized on creation and on every Reset call.
type Bank struct {
	lpf  *lowPass
	bpHP *highPass
	bpLP *lowPass
}

// NewBank builds a filter bank for the given sample rate. sampleRate
// must be > 0.
func NewBank(sampleRate int) *Bank {
	return &Bank{
		lpf:  newLowPass(150, sampleRate),
		bpHP: newHighPass(200, sampleRate),
		bpLP: newLowPass(3000, sampleRate),
	}
}

// LowPass filters x through the 150 Hz low-pass used for low_rms.
func (b *Bank) LowPass(x float64) float64 {
	return b.lpf.process(x)
}

// BandPass filters x through the 200-3000 Hz vocal band used for
// vocal_ratio: a high-pass at 200 Hz followed by a low-pass at 3000 Hz.
func (b *Bank) BandPass(x float64) float64 {
	return b.bpLP.process(b.bpHP.process(x))
}

// Reset zero-initializes all filter state. Called at every window
// boundary (§4.D): the seek to the tail invalidates accumulated filter
// memory, and state must not leak across the gap.
func (b *Bank) Reset() {
	b.lpf.reset()
	b.bpHP.reset()
	b.bpLP.reset()
}

// Biquad holds normalized (a0 = 1) coefficients for one section of the
// K-weighting cascade.
// Grounded on farcloser/haustorium's internal/audit/loudness biquad.
type Biquad struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// BiquadState is the per-channel memory for one Biquad section.
type BiquadState struct {
	z1, z2 float64
}

// Process runs one sample through b using direct-form-II transposed
// state, matching the teacher pack's loudness meter exactly.
func (s *BiquadState) Process(b Biquad, in float64) float64 {
	out := b.B0*in + s.z1
	s.z1 = b.B1*in - b.A1*out + s.z2
	s.z2 = b.B2*in - b.A2*out
	return out
}

// Reset zeroes the biquad's internal memory.
func (s *BiquadState) Reset() {
	s.z1 = 0
	s.z2 = 0
}

// KWeighting holds the two-stage ITU-R BS.1770-4 K-weighting filter
// (a high-shelf pre-filter modeling head acoustics, cascaded into an
// RLB high-pass). NewKWeighting computes the coefficients for the
// actual sample rate rather than reusing fixed 48 kHz tables.
type KWeighting struct {
	Pre, RLB Biquad
}

// NewKWeighting computes the K-weighting coefficients for the given
// sample rate following the ITU-R BS.1770-4 analog-prototype bilinear
// transform, exactly as farcloser/haustorium's getKWeightingFilters
// does.
func NewKWeighting(sampleRate int) KWeighting {
	sr := float64(sampleRate)

	// Pre-filter (high shelf): models the acoustic effect of the head.
	centerFreq := 1681.974450955533
	gainDB := 3.999843853973347
	q := 0.7071752369554196

	k := math.Tan(math.Pi * centerFreq / sr)
	headGainV := math.Pow(10, gainDB/20)
	vb := math.Pow(headGainV, 0.4996667741545416)

	denom := 1 + k/q + k*k
	pre := Biquad{
		B0: (headGainV + vb*k/q + k*k) / denom,
		B1: 2 * (k*k - headGainV) / denom,
		B2: (headGainV - vb*k/q + k*k) / denom,
		A1: 2 * (k*k - 1) / denom,
		A2: (1 - k/q + k*k) / denom,
	}

	// RLB weighting (high pass).
	centerFreq = 38.13547087602444
	q = 0.5003270373238773
	k = math.Tan(math.Pi * centerFreq / sr)
	denom = 1 + k/q + k*k
	rlb := Biquad{
		B0: 1 / denom,
		B1: -2 / denom,
		B2: 1 / denom,
		A1: 2 * (k*k - 1) / denom,
		A2: (1 - k/q + k*k) / denom,
	}

	return KWeighting{Pre: pre, RLB: rlb}
}

// PerChannel holds one K-weighting cascade's running state for a
// single channel.
type PerChannel struct {
	pre, rlb BiquadState
}

// Apply runs one sample through the pre-filter then the RLB high-pass.
func (p *PerChannel) Apply(kw KWeighting, x float64) float64 {
	return p.rlb.Process(kw.RLB, p.pre.Process(kw.Pre, x))
}

// Reset zeroes both stages' memory.
func (p *PerChannel) Reset() {
	p.pre.Reset()
	p.rlb.Reset()
}
