package chroma

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCamelotStringScenarios(t *testing.T) {
	// C major -> 8B, A minor -> 8A (relative minor shares a Camelot number).
	assert.Equal(t, "8B", camelotString(0, 0))
	assert.Equal(t, "8A", camelotString(9, 1))
}

func TestCamelotStringRelativeMinorSharesNumber(t *testing.T) {
	for root := 0; root < 12; root++ {
		majorCode := camelotString(root, 0)
		relativeMinorRoot := (root + 9) % 12 // relative minor sits a minor third below
		minorCode := camelotString(relativeMinorRoot, 1)
		assert.Equal(t, majorCode[:len(majorCode)-1], minorCode[:len(minorCode)-1],
			"relative major/minor pair should share a Camelot number")
	}
}

func TestEstimateTooShortReturnsEmpty(t *testing.T) {
	pcm := make([]float32, 100)
	res := Estimate(pcm, 44100)
	assert.False(t, res.HasKey)
}

func TestEstimateSilenceReturnsEmpty(t *testing.T) {
	pcm := make([]float32, windowLen*3)
	res := Estimate(pcm, 44100)
	assert.False(t, res.HasKey)
}

func TestRotateIsSelfInverseOverFullCycle(t *testing.T) {
	profile := []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	rotated := rotate(profile, 5)
	unrotated := rotate(rotated, -5+12)
	for i := range profile {
		assert.InDelta(t, profile[i], unrotated[i], 1e-9)
	}
}
