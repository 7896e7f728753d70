// Package cutpoints synthesizes bar/phrase-quantized entry and exit
// points, the mix window, and the 10 Hz energy profile, generalizing
// the teacher's beat-index phrase/grid snapping to the continuous-time
// snap rules the specification defines.
package cutpoints

import "math"

const (
	snapToleranceSec  = 0.05
	phraseBeats       = 16
	maxCutOutIters    = 512
	defaultMixSeconds = 20
)

// SnapBarFloor floors t onto the bar grid anchored at firstBeat, unless
// bpm is unknown or confidence is below 0.4 (in which case t is
// returned unchanged). Within 50 ms of a bar boundary it rounds to
// that boundary instead of the preceding one.
func SnapBarFloor(t, bpm, firstBeat, confidence float64) float64 {
	if bpm <= 0 || confidence < 0.4 {
		return t
	}
	return snapFloor(t, firstBeat, 4*60/bpm)
}

// SnapPhraseFloor is SnapBarFloor with a 16-beat phrase stride.
func SnapPhraseFloor(t, bpm, firstBeat, confidence float64) float64 {
	if bpm <= 0 || confidence < 0.4 {
		return t
	}
	return snapFloor(t, firstBeat, phraseBeats*60/bpm)
}

func snapFloor(t, firstBeat, stride float64) float64 {
	n := math.Floor((t - firstBeat) / stride)
	floorVal := firstBeat + n*stride
	ceilVal := floorVal + stride
	switch {
	case ceilVal-t <= snapToleranceSec:
		return math.Max(firstBeat, ceilVal)
	case t-floorVal <= snapToleranceSec:
		return math.Max(firstBeat, floorVal)
	default:
		return math.Max(firstBeat, floorVal)
	}
}

// FindBestPhraseStart is the candidate bar-length search cut_in uses:
// it tries anchor-length for length in {32,16,8,4} bars, accepting the
// largest one whose snapped start still clears fade_in.
func FindBestPhraseStart(anchor, bpm, firstBeat, fadeIn, confidence float64) float64 {
	if confidence < 0.4 || bpm <= 0 {
		return fadeIn
	}
	secondsPerBar := 4 * 60 / bpm
	for _, bars := range []float64{32, 16, 8, 4} {
		length := bars * secondsPerBar
		candidate := anchor - length
		if candidate > fadeIn+secondsPerBar {
			snapped := SnapBarFloor(candidate, bpm, firstBeat, confidence)
			if snapped >= fadeIn {
				return snapped
			}
		}
	}
	return math.Max(firstBeat, fadeIn)
}

// CutInInput bundles the anchors cut_in needs.
type CutInInput struct {
	BPM        float64
	HasBPM     bool
	FirstBeat  float64
	FadeIn     float64
	Confidence float64

	VocalIn    float64
	HasVocalIn bool
	DropPos    float64
	HasDropPos bool
}

// CutIn derives the recommended entry point.
func CutIn(in CutInInput) float64 {
	if !in.HasBPM {
		return in.FadeIn
	}
	anchor, hasAnchor := 0.0, false
	switch {
	case in.HasVocalIn:
		anchor, hasAnchor = in.VocalIn, true
	case in.HasDropPos:
		anchor, hasAnchor = in.DropPos, true
	}
	if !hasAnchor {
		return math.Max(in.FirstBeat, in.FadeIn)
	}
	return FindBestPhraseStart(anchor, in.BPM, in.FirstBeat, in.FadeIn, in.Confidence)
}

// CutOutInput bundles the anchors cut_out needs, including a
// non-vocal-fraction probe over the combined head/tail series so the
// vocal-out usability check and the exit search can both consult it
// without the caller pre-materializing a window.
type CutOutInput struct {
	HasTail        bool
	Duration       float64
	MaxAnalyzeTime float64
	FadeIn         float64
	FadeOut        float64

	VocalOut       float64
	HasVocalOut    bool
	VocalLastIn    float64
	HasVocalLastIn bool

	// NonVocalFraction returns the fraction of non-vocal frames in
	// [start, end) using the IsVocal predicate over whichever series
	// (head or tail) covers that absolute-time range.
	NonVocalFraction func(start, end float64) float64

	BPM        float64
	HasBPM     bool
	FirstBeat  float64
	Confidence float64
}

// CutOut derives the recommended exit point.
func CutOut(in CutOutInput) float64 {
	effectiveEnd := in.FadeOut
	if in.HasTail {
		effectiveEnd = math.Min(in.FadeOut, in.Duration)
	} else if in.Duration > 2*in.MaxAnalyzeTime {
		effectiveEnd = in.Duration
	}

	usable := in.HasVocalOut &&
		in.VocalOut >= in.FadeIn &&
		in.VocalOut <= effectiveEnd &&
		(!in.HasVocalLastIn || in.VocalLastIn <= in.VocalOut) &&
		in.NonVocalFraction != nil &&
		in.NonVocalFraction(in.VocalOut, in.VocalOut+2) >= 0.8

	searchEnd := math.Max(0, effectiveEnd-0.5)
	if usable {
		searchEnd = math.Min(searchEnd, in.VocalOut+40)
	}
	searchStart := in.FadeIn + 30
	if usable {
		searchStart = in.VocalOut + 2
	}

	if !in.HasBPM {
		result := searchEnd
		if usable {
			result = math.Min(searchEnd, in.VocalOut+20)
		}
		return result
	}

	secondsPerBar := 4 * 60 / in.BPM
	step := secondsPerBar / 4

	cur := searchEnd
	lastValid := searchEnd
	found := false
	for i := 0; i < maxCutOutIters; i++ {
		snapped := SnapPhraseFloor(cur, in.BPM, in.FirstBeat, in.Confidence)
		if snapped > searchEnd {
			snapped = SnapBarFloor(cur, in.BPM, in.FirstBeat, in.Confidence)
		}
		if snapped >= searchStart {
			lastValid = snapped
			found = true
		}
		cur -= step
		if cur < in.FadeIn {
			break
		}
	}
	if !found {
		lastValid = searchEnd
	}

	lowerBound := 0.0
	if usable {
		lowerBound = math.Max(in.VocalOut+2, 0)
	}
	return clamp(lastValid, lowerBound, searchEnd)
}

// MixWindowInput bundles cut_out and the tail-overlap vocal probe the
// mix window needs.
type MixWindowInput struct {
	CutOut   float64
	Duration float64
	BPM      float64
	HasBPM   bool

	HasTail      bool
	TailStartAbs float64

	// VocalRatioFraction returns the fraction of vocal_ratio samples
	// exceeding 0.2 in [start, end).
	VocalRatioFraction func(start, end float64) float64
}

// MixWindow derives mix_center, mix_start, mix_end.
func MixWindow(in MixWindowInput) (center, start, end float64) {
	center = clamp(in.CutOut, 0, in.Duration)

	target := float64(defaultMixSeconds)
	if in.HasBPM && in.BPM > 0 {
		target = clamp(8*240/in.BPM, 15, 30)
	}

	rawStart := clamp(center-target/2, 0, in.Duration)
	rawEnd := clamp(center+target/2, 0, in.Duration)

	start = rawStart
	if in.HasTail && center > in.TailStartAbs && in.VocalRatioFraction != nil {
		from := math.Max(rawStart, 0)
		frac := in.VocalRatioFraction(from, center)
		if frac >= 0.4 {
			start = center
		}
	}
	return center, start, rawEnd
}

// TimedSample pairs an absolute timestamp with an envelope value, used
// to build the energy profile from the combined head/tail series.
type TimedSample struct {
	Time  float64
	Value float64
}

// EnergyProfile builds the 10 Hz max-aggregated wideband energy vector.
func EnergyProfile(duration float64, samples []TimedSample) []float64 {
	n := int(math.Ceil(duration * 10))
	if n < 0 {
		n = 0
	}
	profile := make([]float64, n)
	for _, s := range samples {
		idx := int(s.Time * 10)
		if idx < 0 || idx >= n {
			continue
		}
		if s.Value > profile[idx] {
			profile[idx] = s.Value
		}
	}
	return profile
}

func clamp(x, lo, hi float64) float64 {
	if hi < lo {
		return lo
	}
	return math.Max(lo, math.Min(hi, x))
}
