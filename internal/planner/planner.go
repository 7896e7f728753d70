// Package planner compares two analyzed tracks and proposes a
// transition: a bar-length-quantized mix duration, a qualitative
// strategy and filter-strategy label, a compatibility score, and,
// optionally, a long-mix automation envelope. Grounded on the
// teacher's planner.go candidate-then-select shape (camelotDistance
// generalized into isCamelotCompatible, generateCandidates/selectBest
// generalized into the bar-length search below) with the teacher's
// randomized candidate variance removed, since the planner here must
// be deterministic.
package planner

import (
	"math"
	"strconv"

	"github.com/vividhyeok/djcore/internal/chroma"
	"github.com/vividhyeok/djcore/internal/cutpoints"
)

const defaultBPM = 128

// TrackInput is the subset of a FeatureRecord the planner consumes.
type TrackInput struct {
	Duration float64

	BPM        float64
	HasBPM     bool
	FirstBeat  float64
	Confidence float64 // bpm_confidence

	CutOut    float64
	HasCutOut bool
	FadeOut   float64

	CamelotKey    string
	HasCamelotKey bool
	KeyRoot       int
	HasKeyRoot    bool

	VocalIn    float64
	HasVocalIn bool
	DropPos    float64
	HasDropPos bool
}

func (t TrackInput) effectiveBPM() float64 {
	if t.HasBPM && t.BPM > 0 {
		return t.BPM
	}
	return defaultBPM
}

// Proposal is the TransitionProposal of the specification.
type Proposal struct {
	Duration           float64
	CurrentTrackMixOut float64
	NextTrackMixIn     float64
	MixType            string
	FilterStrategy     string
	CompatibilityScore float64
	KeyCompatible      bool
	BPMCompatible      bool
}

type barRule struct {
	bars                int
	keyAndBPM, bpmOnly, otherwise [2]string // [mixType, filterStrategy]; empty mixType = not offered
}

var barRules = []barRule{
	{32, [2]string{"Harmonic Deep Blend", "Eq Swap"}, [2]string{"Long Filter Blend", "Bass Swap+LPF"}, [2]string{"", ""}},
	{16, [2]string{"Standard Blend", "Eq Mixing"}, [2]string{"Filter Blend", "Bass Cut Out"}, [2]string{"", ""}},
	{8, [2]string{"Short Blend", "Wash Out"}, [2]string{"Short Blend", "Wash Out"}, [2]string{"Short Blend", "Wash Out"}},
	{4, [2]string{"Quick Blend", "Quick Fade or Echo Freeze"}, [2]string{"", ""}, [2]string{"", ""}},
	{2, [2]string{"Rapid Bass Swap", "Rapid Bass Swap"}, [2]string{"", ""}, [2]string{"", ""}},
}

// IsCamelotCompatible implements §4.J's key-compatibility rule: equal
// strings, or matching letters with equal or adjacent (diff 1 or 11)
// numbers.
func IsCamelotCompatible(a, b string) bool {
	if a == b {
		return true
	}
	numA, letterA, okA := parseCamelot(a)
	numB, letterB, okB := parseCamelot(b)
	if !okA || !okB || letterA != letterB {
		return false
	}
	if numA == numB {
		return true
	}
	diff := numA - numB
	if diff < 0 {
		diff = -diff
	}
	return diff == 1 || diff == 11
}

func parseCamelot(s string) (num int, letter byte, ok bool) {
	if len(s) < 2 {
		return 0, 0, false
	}
	letter = s[len(s)-1]
	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil || n < 1 || n > 12 {
		return 0, 0, false
	}
	return n, letter, true
}

// Plan proposes a transition from current into next. Always returns a
// proposal except when the computed duration is non-finite or
// non-positive (spec.md §7).
func Plan(current, next TrackInput) (Proposal, bool) {
	bpmA := current.effectiveBPM()
	bpmB := next.effectiveBPM()
	bpmDiffPct := math.Abs(bpmA-bpmB) / bpmA
	bpmCompatible := bpmDiffPct < 0.06

	keyCompatible := current.HasCamelotKey && next.HasCamelotKey && IsCamelotCompatible(current.CamelotKey, next.CamelotKey)

	curIdealOut := current.FadeOut
	if current.HasCutOut {
		curIdealOut = current.CutOut
	}
	nextLanding := 30.0
	if next.HasDropPos {
		nextLanding = next.DropPos
	}
	if next.HasVocalIn {
		nextLanding = next.VocalIn
	}
	nextLanding = math.Max(nextLanding, next.FirstBeat+2)

	secondsPerBarB := 4 * 60 / bpmB

	var mixType, filterStrategy string
	chosenDuration := 0.0
	found := false

	for _, bars := range []int{32, 16, 8, 4, 2} {
		duration := float64(bars) * 240 / bpmA
		if nextLanding-duration < next.FirstBeat-secondsPerBarB/4 {
			continue
		}
		phraseSnappedOut := cutpoints.SnapPhraseFloor(curIdealOut, bpmA, current.FirstBeat, current.Confidence)
		remaining := current.Duration - phraseSnappedOut
		if remaining < 0.8*duration {
			continue
		}

		rule := ruleFor(bars)
		cell := rule.otherwise
		switch {
		case keyCompatible && bpmCompatible:
			cell = rule.keyAndBPM
		case bpmCompatible:
			cell = rule.bpmOnly
		}
		if cell[0] == "" {
			continue
		}
		mixType, filterStrategy = cell[0], cell[1]
		chosenDuration = duration
		found = true
		break
	}

	hardCut := false
	mixOut := curIdealOut
	mixIn := nextLanding

	switch {
	case found:
		// mixType/filterStrategy/chosenDuration already set.
	case bpmCompatible:
		mixType = "Aggressive Blend"
		for _, bars := range []int{32, 16, 8, 4, 2} {
			duration := float64(bars) * 240 / bpmA
			if nextLanding-duration < next.FirstBeat-secondsPerBarB/4 {
				continue
			}
			filterStrategy = "Bass Swap + LPF"
			if bars == 4 {
				filterStrategy = "Quick Fade"
			}
			chosenDuration = duration
			mixOut = cutpoints.SnapBarFloor(curIdealOut, bpmA, current.FirstBeat, current.Confidence)
			mixIn = next.FirstBeat
			found = true
			break
		}
	}
	if !found {
		if nextLanding-next.FirstBeat < secondsPerBarB/4 {
			mixType = "Hard Cut (No Intro)"
			filterStrategy = "Hard Cut"
			hardCut = true
			chosenDuration = 0.05
			mixOut = curIdealOut
			mixIn = next.FirstBeat
		} else {
			mixType = "Echo Out Transition"
			filterStrategy = "Echo Out"
			chosenDuration = 8
			mixOut = nextLanding - chosenDuration
			mixIn = nextLanding
		}
	}

	if !isFinite(chosenDuration) || chosenDuration <= 0 {
		return Proposal{}, false
	}

	nextAvail := next.Duration - mixIn
	if nextAvail > 0 && chosenDuration > nextAvail*1.4 {
		chosenDuration = nextAvail
	}
	curAvail := current.Duration - mixOut
	if curAvail > 0 && chosenDuration > curAvail*1.4 {
		chosenDuration = curAvail
	}

	score := 0.5
	if bpmCompatible {
		score += 0.3
	}
	if keyCompatible {
		score += 0.1
	}
	if chosenDuration >= 10 {
		score += 0.1
	}
	if hardCut {
		score -= 0.2
	}
	score = math.Max(0, math.Min(1, score))

	return Proposal{
		Duration:           chosenDuration,
		CurrentTrackMixOut: mixOut,
		NextTrackMixIn:     mixIn,
		MixType:            mixType,
		FilterStrategy:     filterStrategy,
		CompatibilityScore: score,
		KeyCompatible:      keyCompatible,
		BPMCompatible:      bpmCompatible,
	}, true
}

func isFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func ruleFor(bars int) barRule {
	for _, r := range barRules {
		if r.bars == bars {
			return r
		}
	}
	return barRule{}
}

// AutomationPoint is one point on a long-mix volume/filter envelope.
type AutomationPoint struct {
	TimeOffset float64
	Volume     float64
	LowCut     float64
	HighCut    float64
}

// AdvancedTransition is the long-mix plan of §4.J.
type AdvancedTransition struct {
	StartTimeCurrent    float64
	StartTimeNext       float64
	Duration            float64
	PitchShiftSemitones float64
	PlaybackRate        float64
	CurrentEnvelope     []AutomationPoint
	NextEnvelope        []AutomationPoint
}



// PlanLongMix builds the 32-bar (or shortened) long-mix automation
// plan used for harmonically deep blends.
func PlanLongMix(current, next TrackInput) (AdvancedTransition, bool) {
	bpmA := current.effectiveBPM()
	bpmB := next.effectiveBPM()

	target := 32 * (4 * 60 / bpmA)

	currentAnchor := cutpoints.SnapBarFloor(current.Duration-5, bpmA, current.FirstBeat, current.Confidence)

	nextAnchorRaw := 30.0
	if next.HasVocalIn {
		nextAnchorRaw = next.VocalIn
	}
	if next.HasDropPos {
		nextAnchorRaw = next.DropPos
	}
	nextAnchor := cutpoints.SnapBarFloor(nextAnchorRaw, bpmB, next.FirstBeat, next.Confidence)

	duration := target
	startCurrent := currentAnchor - duration
	startNext := nextAnchor - duration
	if startNext < 0 {
		startNext = next.FirstBeat
		duration = nextAnchor - startNext
		startCurrent = currentAnchor - duration
	}

	if !isFinite(duration) || duration <= 0 {
		return AdvancedTransition{}, false
	}

	pitchShift := shortestSemitoneDelta(current.KeyRoot, next.KeyRoot, current.HasKeyRoot, next.HasKeyRoot)

	mid := duration / 2
	times := [5]float64{0, mid - 2, mid, mid + 2, duration}
	volA := [5]float64{1, 1, 0.9, 0.8, 0}
	volB := [5]float64{0.8, 1, 0.9, 1, 1}
	lowA := [5]float64{0, 0, 0.5, 1, 1}
	lowB := [5]float64{1, 1, 0.5, 0, 0}

	curEnv := make([]AutomationPoint, 5)
	nextEnv := make([]AutomationPoint, 5)
	for i := 0; i < 5; i++ {
		curEnv[i] = AutomationPoint{TimeOffset: times[i], Volume: volA[i], LowCut: lowA[i], HighCut: 1}
		nextEnv[i] = AutomationPoint{TimeOffset: times[i], Volume: volB[i], LowCut: lowB[i], HighCut: 1}
	}

	return AdvancedTransition{
		StartTimeCurrent:    startCurrent,
		StartTimeNext:       startNext,
		Duration:            duration,
		PitchShiftSemitones: pitchShift,
		PlaybackRate:        bpmA / bpmB,
		CurrentEnvelope:     curEnv,
		NextEnvelope:        nextEnv,
	}, true
}

// shortestSemitoneDelta derives the pitch-shift distance from the
// Camelot wheel's own number ordering, not from the chromatic circle.
// The wheel is laid out by fifths, so "one step" on the wheel is not
// one semitone, and a raw (rootA-rootB) subtraction would silently
// recompute the wrong circle. Going through the wheel number
// (CamelotMajor) is what keeps this value consistent with the
// Camelot-labeled pitch shifts the source table uses.
func shortestSemitoneDelta(rootA, rootB int, hasA, hasB bool) float64 {
	if !hasA || !hasB {
		return 0
	}
	wheelA := chroma.CamelotMajor[((rootA%12)+12)%12] - 1
	wheelB := chroma.CamelotMajor[((rootB%12)+12)%12] - 1
	diff := ((wheelA-wheelB)%12 + 12) % 12
	if diff > 6 {
		diff -= 12
	}
	return float64(diff)
}
