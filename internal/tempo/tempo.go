// Package tempo estimates BPM, confidence, and downbeat phase from the
// wideband and low-band envelope series via half-wave-rectified flux
// autocorrelation, generalized from the teacher's spectral-flux
// autocorrelation to the plain envelope-difference flux the
// specification defines.
package tempo

import "math"

const (
	minLag    = 15
	maxLag    = 55
	searchCap = 500
)

// Estimate is the BPM/downbeat result; zero value means "nothing
// estimated" and callers should treat every field as absent.
type Estimate struct {
	BPM          float64
	Confidence   float64
	FirstBeatSec float64
	HasBPM       bool
	HasFirstBeat bool
}

// flux computes the half-wave-rectified first difference of series.
func flux(series []float64) []float64 {
	out := make([]float64, len(series))
	for i := 1; i < len(series); i++ {
		d := series[i] - series[i-1]
		if d > 0 {
			out[i] = d
		}
	}
	return out
}

// autocorr computes Σ flux[i]*flux[i+lag] for i in [0, len(flux)-lag).
func autocorr(f []float64, lag int) float64 {
	sum := 0.0
	n := len(f) - lag
	for i := 0; i < n; i++ {
		sum += f[i] * f[i+lag]
	}
	return sum
}

// EstimateSeries computes BPM/confidence/downbeat phase from the
// wideband and low-band envelope series of one window (the head, per
// the open-question decision to preserve head-only BPM for long
// tracks).
func EstimateSeries(wideband, low []float64) Estimate {
	if len(wideband) < 2*maxLag {
		return Estimate{}
	}

	fluxFull := flux(wideband)
	fluxLow := flux(low)

	corr := make([]float64, maxLag+1)
	bestLag := 0
	maxCorr := 0.0
	sumCorr := 0.0
	count := 0
	for lag := minLag; lag <= maxLag; lag++ {
		c := autocorr(fluxFull, lag)
		corr[lag] = c
		sumCorr += c
		count++
		if c > maxCorr {
			maxCorr = c
			bestLag = lag
		}
	}
	if maxCorr < 1e-4 || bestLag == 0 {
		return Estimate{}
	}

	bpm := 60 / (float64(bestLag) / 50)
	avgCorr := sumCorr / float64(count)
	if avgCorr <= 0 {
		return Estimate{}
	}
	confidence := clamp(((maxCorr/avgCorr)-1)/5, 0, 1)

	est := Estimate{BPM: bpm, Confidence: confidence, HasBPM: true}

	if confidence > 0.2 {
		if fb, ok := downbeatPhase(fluxFull, fluxLow, bestLag); ok {
			est.FirstBeatSec = fb / 50
			est.HasFirstBeat = true
		}
	}
	return est
}

// downbeatPhase searches phases on the beat grid (stride = lag) and
// the bar grid (stride = 4*lag) for the strongest periodic energy,
// returning the winning phase in envelope-index units.
func downbeatPhase(fluxFull, fluxLow []float64, lag int) (float64, bool) {
	barStride := 4 * lag
	search := len(fluxFull)
	if search > searchCap {
		search = searchCap
	}

	eBar := make([]float64, lag)
	eBeat := make([]float64, lag)
	for phi := 0; phi < lag; phi++ {
		for k := 0; phi+k*barStride < search; k++ {
			idx := phi + k*barStride
			if idx < len(fluxLow) {
				eBar[phi] += fluxLow[idx]
			}
		}
		for k := 0; phi+k*lag < search; k++ {
			idx := phi + k*lag
			if idx < len(fluxFull) {
				eBeat[phi] += fluxFull[idx]
			}
		}
	}

	phiBar, eBarMax, meanBar := argmaxMean(eBar)
	phiBeat, eBeatMax, meanBeat := argmaxMean(eBeat)

	barOK := eBarMax > 0.02 && eBarMax >= 1.15*meanBar
	beatOK := eBeatMax > 0.02 && eBeatMax >= 1.15*meanBeat

	switch {
	case barOK:
		return float64(phiBar), true
	case beatOK:
		return float64(phiBeat), true
	default:
		return 0, false
	}
}

func argmaxMean(xs []float64) (idx int, max float64, mean float64) {
	sum := 0.0
	for i, x := range xs {
		sum += x
		if x > max {
			max = x
			idx = i
		}
	}
	if len(xs) > 0 {
		mean = sum / float64(len(xs))
	}
	return
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
