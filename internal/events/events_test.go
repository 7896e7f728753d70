package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsVocal(t *testing.T) {
	assert.True(t, IsVocal(0.02, 0.2))
	assert.False(t, IsVocal(0.005, 0.2), "below rms floor")
	assert.False(t, IsVocal(0.02, 0.1), "below ratio floor")
}

func TestSilenceEdgesFindsLoudSpan(t *testing.T) {
	series := make([]float64, 100)
	for i := 20; i < 60; i++ {
		series[i] = 0.5
	}
	first, lastPlus1, ok := SilenceEdges(series)
	assert.True(t, ok)
	assert.Equal(t, 20, first)
	assert.Equal(t, 60, lastPlus1)
}

func TestSilenceEdgesAllSilentReturnsFalse(t *testing.T) {
	series := make([]float64, 50)
	_, _, ok := SilenceEdges(series)
	assert.False(t, ok)
}

func TestVocalInRequiresFiveConsecutiveFrames(t *testing.T) {
	wb := make([]float64, 20)
	ratio := make([]float64, 20)
	for i := 10; i < 16; i++ {
		wb[i] = 0.5
		ratio[i] = 0.5
	}
	idx, ok := VocalIn(wb, ratio)
	assert.True(t, ok)
	assert.Equal(t, 10, idx)
}

func TestVocalInShortBurstDoesNotTrigger(t *testing.T) {
	wb := make([]float64, 20)
	ratio := make([]float64, 20)
	for i := 10; i < 13; i++ {
		wb[i] = 0.5
		ratio[i] = 0.5
	}
	_, ok := VocalIn(wb, ratio)
	assert.False(t, ok)
}

func TestVocalOutLastInPrefersLongRunOverFallback(t *testing.T) {
	n := 400
	wb := make([]float64, n)
	ratio := make([]float64, n)
	for i := 50; i < 250; i++ { // 200-frame run, qualifies as a vocal run
		wb[i] = 0.5
		ratio[i] = 0.5
	}
	start, end, hasRun, _, hasFallback := VocalOutLastIn(wb, ratio)
	assert.True(t, hasRun)
	assert.False(t, hasFallback)
	assert.Equal(t, 50, start)
	assert.Equal(t, 250, end)
}

func TestVocalOutLastInFallsBackWhenNoLongRun(t *testing.T) {
	n := 100
	wb := make([]float64, n)
	ratio := make([]float64, n)
	for i := 80; i < 88; i++ { // 8-frame run, below the 100-frame threshold
		wb[i] = 0.5
		ratio[i] = 0.5
	}
	_, _, hasRun, fallbackOut, hasFallback := VocalOutLastIn(wb, ratio)
	assert.False(t, hasRun)
	assert.True(t, hasFallback)
	assert.Equal(t, 83, fallbackOut)
}

func TestDropPosDetectsEnergyJump(t *testing.T) {
	n := 600
	wb := make([]float64, n)
	for i := range wb {
		wb[i] = 0.05
	}
	for i := 300; i < n; i++ {
		wb[i] = 0.9
	}
	idx, ok := DropPos(wb)
	assert.True(t, ok)
	assert.InDelta(t, 300, idx, 5)
}

func TestDropPosFlatSignalReturnsFalse(t *testing.T) {
	wb := make([]float64, 600)
	for i := range wb {
		wb[i] = 0.3
	}
	_, ok := DropPos(wb)
	assert.False(t, ok)
}

func TestOutroEnergyLevelFloorsAtMinus70(t *testing.T) {
	tail := make([]float64, 500)
	lvl, ok := OutroEnergyLevel(tail, len(tail))
	assert.True(t, ok)
	assert.Equal(t, -70.0, lvl)
}

func TestOutroEnergyLevelEmptySeries(t *testing.T) {
	_, ok := OutroEnergyLevel(nil, 0)
	assert.False(t, ok)
}
