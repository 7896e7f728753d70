// Package feature orchestrates the whole analysis pipeline: acquire
// the head/tail windows, derive loudness/tempo/chroma/events, and fuse
// them into one FeatureRecord, generalizing the teacher's AnalyzeTrack
// hash->decode->derive->assemble shape onto the richer component set.
package feature

import (
	"math"

	"github.com/vividhyeok/djcore/internal/acquire"
	"github.com/vividhyeok/djcore/internal/applog"
	"github.com/vividhyeok/djcore/internal/chroma"
	"github.com/vividhyeok/djcore/internal/cutpoints"
	"github.com/vividhyeok/djcore/internal/events"
	"github.com/vividhyeok/djcore/internal/tempo"
)

// FormatVersion is the FeatureRecord format tag; consumers must treat
// lower versions as stale and recompute (§6).
const FormatVersion = 11

// Record is the FeatureRecord of the specification. Optional fields
// carry a matching Has* flag rather than a pointer, to keep the struct
// a plain value type (§3's "constructed per request, discarded"
// lifecycle).
type Record struct {
	Duration float64

	BPM           float64
	HasBPM        bool
	BPMConfidence float64
	HasConfidence bool
	FirstBeatPos  float64
	HasFirstBeat  bool

	FadeInPos  float64
	FadeOutPos float64

	DropPos    float64
	HasDropPos bool

	VocalInPos     float64
	HasVocalIn     bool
	VocalOutPos    float64
	HasVocalOut    bool
	VocalLastInPos float64
	HasVocalLastIn bool

	CutInPos  float64
	HasCutIn  bool
	CutOutPos float64
	HasCutOut bool

	MixCenterPos float64
	MixStartPos  float64
	MixEndPos    float64

	EnergyProfile []float64

	Loudness    float64
	HasLoudness bool

	OutroEnergyLevel float64
	HasOutroEnergy   bool

	KeyRoot       int
	HasKeyRoot    bool
	KeyMode       int
	HasKeyMode    bool
	KeyConfidence float64
	CamelotKey    string
	HasCamelotKey bool

	AnalyzeWindow float64
	Version       int
}

// Options configures one Analyze call.
type Options struct {
	MaxAnalyzeTime float64
	IncludeTail    bool
	FFmpegPath     string
}

// Analyze runs the full pipeline on path. A nil record with a nil
// error never happens; failure is communicated solely via the error
// return, per §7's single opaque failure mode.
func Analyze(path string, opts Options) (*Record, error) {
	applog.Analyzing(path)

	maxTime := clamp(opts.MaxAnalyzeTime, 5, 300)
	acq, err := acquire.Acquire(path, acquire.Options{
		MaxAnalyzeTime: maxTime,
		IncludeTail:    opts.IncludeTail,
		FFmpegPath:     opts.FFmpegPath,
	})
	if err != nil {
		applog.Error("acquire failed", "path", path, "err", err)
		return nil, err
	}

	rec := &Record{
		Duration:      acq.Duration,
		AnalyzeWindow: maxTime,
		Version:       FormatVersion,
	}

	// Loudness.
	rec.Loudness = acq.LUFS
	rec.HasLoudness = true

	// Tempo: head-only, per the open-question decision to preserve
	// head-only BPM for long tracks.
	tempoEst := tempo.EstimateSeries(acq.Head.Wideband, acq.Head.Low)
	if tempoEst.HasBPM {
		rec.BPM = tempoEst.BPM
		rec.HasBPM = true
		rec.BPMConfidence = tempoEst.Confidence
		rec.HasConfidence = true
	}
	if tempoEst.HasFirstBeat {
		rec.FirstBeatPos = tempoEst.FirstBeatSec
		rec.HasFirstBeat = true
	}

	// Silence edges, preferring tail for fade_out when present.
	fadeInIdx, fadeOutIdxPlus1, ok := events.SilenceEdges(acq.Head.Wideband)
	if ok {
		rec.FadeInPos = acq.ToAbsolute(false, fadeInIdx)
		rec.FadeOutPos = acq.ToAbsolute(false, fadeOutIdxPlus1)
	}
	if acq.HasTail {
		if _, tFadeOutIdxPlus1, tok := events.SilenceEdges(acq.Tail.Wideband); tok {
			rec.FadeOutPos = acq.ToAbsolute(true, tFadeOutIdxPlus1)
		}
	}
	if rec.FadeOutPos > rec.Duration && rec.Duration > 0 {
		rec.FadeOutPos = rec.Duration
	}

	// Drop position (head only).
	if dropIdx, dok := events.DropPos(acq.Head.Wideband); dok {
		rec.DropPos = acq.ToAbsolute(false, dropIdx)
		rec.HasDropPos = true
	}

	// Vocal in (head only).
	if vinIdx, vok := events.VocalIn(acq.Head.Wideband, acq.Head.Vocal); vok {
		rec.VocalInPos = acq.ToAbsolute(false, vinIdx)
		rec.HasVocalIn = true
	}

	// Vocal out / vocal last-in: prefer tail when present.
	voWideband, voRatio, voTail := acq.Head.Wideband, acq.Head.Vocal, false
	if acq.HasTail {
		voWideband, voRatio, voTail = acq.Tail.Wideband, acq.Tail.Vocal, true
	}
	startIdx, endIdxPlus1, hasRun, fallbackIdx, hasFallback := events.VocalOutLastIn(voWideband, voRatio)
	switch {
	case hasRun:
		rec.VocalOutPos = acq.ToAbsolute(voTail, endIdxPlus1)
		rec.HasVocalOut = true
		rec.VocalLastInPos = acq.ToAbsolute(voTail, startIdx)
		rec.HasVocalLastIn = true
	case hasFallback:
		rec.VocalOutPos = acq.ToAbsolute(voTail, fallbackIdx)
		rec.HasVocalOut = true
	}

	// Chroma key.
	chromaRes := chroma.Estimate(acq.RetainedPCM, acq.SampleRate)
	if chromaRes.HasKey {
		rec.KeyRoot = chromaRes.Root
		rec.HasKeyRoot = true
		rec.KeyMode = chromaRes.Mode
		rec.HasKeyMode = true
		rec.KeyConfidence = chromaRes.Confidence
		rec.CamelotKey = chromaRes.Camelot
		rec.HasCamelotKey = true
	}

	// Outro energy (tail only).
	if acq.HasTail {
		localFadeOutIdx := len(acq.Tail.Wideband)
		if _, tFadeOutIdxPlus1, tok := events.SilenceEdges(acq.Tail.Wideband); tok {
			localFadeOutIdx = tFadeOutIdxPlus1
		}
		if lvl, ook := events.OutroEnergyLevel(acq.Tail.Wideband, localFadeOutIdx); ook {
			rec.OutroEnergyLevel = lvl
			rec.HasOutroEnergy = true
		}
	}

	// Cut points.
	nonVocalFraction := makeNonVocalFraction(acq)
	cutOut := cutpoints.CutOut(cutpoints.CutOutInput{
		HasTail:          acq.HasTail,
		Duration:         rec.Duration,
		MaxAnalyzeTime:   maxTime,
		FadeIn:           rec.FadeInPos,
		FadeOut:          rec.FadeOutPos,
		VocalOut:         rec.VocalOutPos,
		HasVocalOut:      rec.HasVocalOut,
		VocalLastIn:      rec.VocalLastInPos,
		HasVocalLastIn:   rec.HasVocalLastIn,
		NonVocalFraction: nonVocalFraction,
		BPM:              rec.BPM,
		HasBPM:           rec.HasBPM,
		FirstBeat:        rec.FirstBeatPos,
		Confidence:       rec.BPMConfidence,
	})
	rec.CutOutPos = cutOut
	rec.HasCutOut = true

	rec.CutInPos = cutpoints.CutIn(cutpoints.CutInInput{
		BPM:        rec.BPM,
		HasBPM:     rec.HasBPM,
		FirstBeat:  rec.FirstBeatPos,
		FadeIn:     rec.FadeInPos,
		Confidence: rec.BPMConfidence,
		VocalIn:    rec.VocalInPos,
		HasVocalIn: rec.HasVocalIn,
		DropPos:    rec.DropPos,
		HasDropPos: rec.HasDropPos,
	})
	rec.HasCutIn = true

	vocalRatioFraction := makeVocalRatioFraction(acq)
	tailStartAbs := rec.Duration - maxTime
	center, start, end := cutpoints.MixWindow(cutpoints.MixWindowInput{
		CutOut:             rec.CutOutPos,
		Duration:           rec.Duration,
		BPM:                rec.BPM,
		HasBPM:             rec.HasBPM,
		HasTail:            acq.HasTail,
		TailStartAbs:       tailStartAbs,
		VocalRatioFraction: vocalRatioFraction,
	})
	rec.MixCenterPos, rec.MixStartPos, rec.MixEndPos = center, start, end

	rec.EnergyProfile = cutpoints.EnergyProfile(rec.Duration, collectSamples(acq))

	applog.Done(path, rec.Duration)
	return rec, nil
}

func collectSamples(acq *acquire.Result) []cutpoints.TimedSample {
	samples := make([]cutpoints.TimedSample, 0, len(acq.Head.Wideband)+len(acq.Tail.Wideband))
	for i, v := range acq.Head.Wideband {
		samples = append(samples, cutpoints.TimedSample{Time: acq.ToAbsolute(false, i), Value: v})
	}
	for i, v := range acq.Tail.Wideband {
		samples = append(samples, cutpoints.TimedSample{Time: acq.ToAbsolute(true, i), Value: v})
	}
	return samples
}

// makeNonVocalFraction builds the probe CutOut needs: the fraction of
// non-vocal frames in an absolute-time range, searching whichever
// series (head or tail) covers it.
func makeNonVocalFraction(acq *acquire.Result) func(start, end float64) float64 {
	return func(start, end float64) float64 {
		total, nonVocal := 0, 0
		walkRange(acq, false, start, end, func(wb, ratio float64) {
			total++
			if !events.IsVocal(wb, ratio) {
				nonVocal++
			}
		})
		if acq.HasTail {
			walkRange(acq, true, start, end, func(wb, ratio float64) {
				total++
				if !events.IsVocal(wb, ratio) {
					nonVocal++
				}
			})
		}
		if total == 0 {
			return 1
		}
		return float64(nonVocal) / float64(total)
	}
}

func makeVocalRatioFraction(acq *acquire.Result) func(start, end float64) float64 {
	return func(start, end float64) float64 {
		total, over := 0, 0
		walkRange(acq, false, start, end, func(_, ratio float64) {
			total++
			if ratio > 0.2 {
				over++
			}
		})
		if acq.HasTail {
			walkRange(acq, true, start, end, func(_, ratio float64) {
				total++
				if ratio > 0.2 {
					over++
				}
			})
		}
		if total == 0 {
			return 0
		}
		return float64(over) / float64(total)
	}
}

func walkRange(acq *acquire.Result, tail bool, start, end float64, f func(wideband, ratio float64)) {
	wb, ratio := acq.Head.Wideband, acq.Head.Vocal
	if tail {
		wb, ratio = acq.Tail.Wideband, acq.Tail.Vocal
	}
	for i := range wb {
		t := acq.ToAbsolute(tail, i)
		if t >= start && t < end {
			f(wb[i], ratio[i])
		}
	}
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}
