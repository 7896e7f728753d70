package loudness

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIntegratedLUFSEmptyReturnsFloor(t *testing.T) {
	acc := NewAccumulator(44100, 1)
	assert.Equal(t, -70.0, acc.IntegratedLUFS())
}

func TestIntegratedLUFSSilenceReturnsFloor(t *testing.T) {
	acc := NewAccumulator(44100, 2)
	for i := 0; i < 1000; i++ {
		acc.AddFrame([]float32{0, 0})
	}
	assert.Equal(t, -70.0, acc.IntegratedLUFS())
}

func TestIntegratedLUFSLouderSignalScoresHigher(t *testing.T) {
	quiet := NewAccumulator(44100, 1)
	loud := NewAccumulator(44100, 1)
	for i := 0; i < 5000; i++ {
		quiet.AddFrame([]float32{0.05})
		loud.AddFrame([]float32{0.5})
	}
	assert.Greater(t, loud.IntegratedLUFS(), quiet.IntegratedLUFS())
}

func TestIntegratedLUFSNeverBelowFloor(t *testing.T) {
	acc := NewAccumulator(44100, 1)
	for i := 0; i < 10; i++ {
		acc.AddFrame([]float32{1e-6})
	}
	assert.GreaterOrEqual(t, acc.IntegratedLUFS(), -70.0)
}

func TestMissingChannelsZeroFilled(t *testing.T) {
	acc := NewAccumulator(44100, 2)
	for i := 0; i < 100; i++ {
		acc.AddFrame([]float32{0.3}) // second channel implicitly zero
	}
	assert.Greater(t, acc.IntegratedLUFS(), -70.0)
}
