package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestIsCamelotCompatibleScenarios(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		expected bool
	}{
		{"equal keys", "8B", "8B", true},
		{"adjacent number same letter", "8B", "9B", true},
		{"same number different letter", "8B", "8A", false},
		{"wheel wraps at 12/1", "12B", "1B", true},
		{"two apart is not adjacent", "8B", "10B", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IsCamelotCompatible(tt.a, tt.b))
		})
	}
}

func TestIsCamelotCompatibleSymmetric(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		numA := rapid.IntRange(1, 12).Draw(rt, "numA")
		numB := rapid.IntRange(1, 12).Draw(rt, "numB")
		letters := []byte{'A', 'B'}
		letterA := letters[rapid.IntRange(0, 1).Draw(rt, "letterA")]
		letterB := letters[rapid.IntRange(0, 1).Draw(rt, "letterB")]

		a := itoaHelper(numA) + string(letterA)
		b := itoaHelper(numB) + string(letterB)

		assert.Equal(t, IsCamelotCompatible(a, b), IsCamelotCompatible(b, a))
	})
}

func itoaHelper(n int) string {
	digits := [...]byte{'0', '1', '2', '3', '4', '5', '6', '7', '8', '9'}
	if n < 10 {
		return string(digits[n])
	}
	return string(digits[n/10]) + string(digits[n%10])
}

func TestPlanReturnsFiniteCompatibilityScore(t *testing.T) {
	current := TrackInput{
		Duration: 240, BPM: 128, HasBPM: true, Confidence: 0.9,
		CutOut: 200, HasCutOut: true,
		CamelotKey: "8B", HasCamelotKey: true,
	}
	next := TrackInput{
		Duration: 240, BPM: 128, HasBPM: true, FirstBeat: 0.2,
		CamelotKey: "9B", HasCamelotKey: true,
		VocalIn: 20, HasVocalIn: true,
	}
	proposal, ok := Plan(current, next)
	assert.True(t, ok)
	assert.True(t, proposal.BPMCompatible)
	assert.True(t, proposal.KeyCompatible)
	assert.GreaterOrEqual(t, proposal.CompatibilityScore, 0.0)
	assert.LessOrEqual(t, proposal.CompatibilityScore, 1.0)
	assert.Greater(t, proposal.Duration, 0.0)
	assert.NotEmpty(t, proposal.MixType)
}

func TestPlanFallsBackToEchoOutWhenIncompatible(t *testing.T) {
	current := TrackInput{Duration: 60, BPM: 90, HasBPM: true, CutOut: 55, HasCutOut: true}
	next := TrackInput{Duration: 60, BPM: 140, HasBPM: true, FirstBeat: 0}
	proposal, ok := Plan(current, next)
	assert.True(t, ok)
	assert.False(t, proposal.BPMCompatible)
	assert.Equal(t, "Echo Out Transition", proposal.MixType)
}

func TestPlanFallsBackToHardCutWhenNextLandingHugsFirstBeat(t *testing.T) {
	current := TrackInput{Duration: 60, BPM: 90, HasBPM: true, CutOut: 55, HasCutOut: true}
	next := TrackInput{Duration: 60, BPM: 20, HasBPM: true, FirstBeat: 30}
	proposal, ok := Plan(current, next)
	assert.True(t, ok)
	assert.Equal(t, "Hard Cut (No Intro)", proposal.MixType)
}

func TestShortestSemitoneDeltaIsBounded(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		rootA := rapid.IntRange(0, 11).Draw(rt, "rootA")
		rootB := rapid.IntRange(0, 11).Draw(rt, "rootB")
		delta := shortestSemitoneDelta(rootA, rootB, true, true)
		assert.GreaterOrEqual(t, delta, -6.0)
		assert.LessOrEqual(t, delta, 6.0)
	})
}

func TestShortestSemitoneDeltaZeroWhenKeyMissing(t *testing.T) {
	assert.Equal(t, 0.0, shortestSemitoneDelta(3, 9, false, true))
	assert.Equal(t, 0.0, shortestSemitoneDelta(3, 9, true, false))
}

func TestPlanLongMixProducesMonotonicEnvelopeTimes(t *testing.T) {
	current := TrackInput{Duration: 300, BPM: 128, HasBPM: true, Confidence: 0.9, KeyRoot: 0, HasKeyRoot: true}
	next := TrackInput{Duration: 300, BPM: 128, HasBPM: true, Confidence: 0.9, FirstBeat: 0.1, VocalIn: 40, HasVocalIn: true, KeyRoot: 7, HasKeyRoot: true}

	adv, ok := PlanLongMix(current, next)
	assert.True(t, ok)
	assert.Greater(t, adv.Duration, 0.0)
	for i := 1; i < len(adv.CurrentEnvelope); i++ {
		assert.GreaterOrEqual(t, adv.CurrentEnvelope[i].TimeOffset, adv.CurrentEnvelope[i-1].TimeOffset)
		assert.GreaterOrEqual(t, adv.NextEnvelope[i].TimeOffset, adv.NextEnvelope[i-1].TimeOffset)
	}
	assert.InDelta(t, 0.0, adv.CurrentEnvelope[0].TimeOffset, 1e-9)
	assert.InDelta(t, adv.Duration, adv.CurrentEnvelope[len(adv.CurrentEnvelope)-1].TimeOffset, 1e-9)
}
