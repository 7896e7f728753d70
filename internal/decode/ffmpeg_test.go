package decode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDurationRegexParsesFfmpegBanner(t *testing.T) {
	banner := []byte("Input #0, mp3, from 'track.mp3':\n  Duration: 00:03:45.67, start: 0.025056, bitrate: 128 kb/s\n")
	m := durationRe.FindSubmatch(banner)
	assert.NotNil(t, m)
	assert.Equal(t, "00", string(m[1]))
	assert.Equal(t, "03", string(m[2]))
	assert.Equal(t, "45", string(m[3]))
	assert.Equal(t, "67", string(m[4]))
}

func TestDurationRegexNoMatchOnMissingBanner(t *testing.T) {
	m := durationRe.FindSubmatch([]byte("some unrelated ffmpeg error output"))
	assert.Nil(t, m)
}
