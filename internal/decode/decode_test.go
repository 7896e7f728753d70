package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSampleFormulas(t *testing.T) {
	tests := []struct {
		name     string
		format   SampleFormat
		chunk    []byte
		expected float32
	}{
		{"u8 midpoint is silence", FormatU8, []byte{128}, 0},
		{"u8 max", FormatU8, []byte{255}, float32(127) / 128},
		{"u8 min", FormatU8, []byte{0}, -1},
		{"s16 max positive", FormatS16, []byte{0xff, 0x7f}, float32(32767) / 32768},
		{"s16 min negative", FormatS16, []byte{0x00, 0x80}, -1},
		{"s24 max positive", FormatS24, []byte{0xff, 0xff, 0x7f}, float32(8388607) / 8388608},
		{"s24 min negative", FormatS24, []byte{0x00, 0x00, 0x80}, -1},
		{"s32 min negative", FormatS32, []byte{0x00, 0x00, 0x00, 0x80}, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeSample(tt.format, tt.chunk)
			assert.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-6)
		})
	}
}

func TestNormalizeSampleRejectsWrongWidth(t *testing.T) {
	_, err := NormalizeSample(FormatS16, []byte{1})
	assert.Error(t, err)
}

func TestDecodeSamplesBatchesNormalizeSample(t *testing.T) {
	data := []byte{128, 255, 0} // three u8 samples
	out, err := DecodeSamples(FormatU8, data)
	assert.NoError(t, err)
	assert.Len(t, out, 3)
	assert.InDelta(t, 0.0, out[0], 1e-6)
	assert.InDelta(t, float64(127)/128, out[1], 1e-6)
	assert.InDelta(t, -1.0, out[2], 1e-6)
}

func TestDecodeSamplesRejectsMisalignedBuffer(t *testing.T) {
	_, err := DecodeSamples(FormatS16, []byte{1, 2, 3})
	assert.Error(t, err)
}
