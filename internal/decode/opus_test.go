package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampChannels(t *testing.T) {
	assert.Equal(t, 1, clampChannels(0))
	assert.Equal(t, 1, clampChannels(1))
	assert.Equal(t, 2, clampChannels(2))
	assert.Equal(t, 2, clampChannels(6))
}

func TestSeekUnsupportedOnOpusHandle(t *testing.T) {
	h := &opusHandle{}
	err := h.Seek(10)
	assert.ErrorIs(t, err, ErrSeekUnsupported)
}
