package acquire

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vividhyeok/djcore/internal/envelope"
)

func TestToAbsoluteHeadIsIndexOverRate(t *testing.T) {
	res := Result{Duration: 300}
	assert.InDelta(t, 0.0, res.ToAbsolute(false, 0), 1e-9)
	assert.InDelta(t, 2.0, res.ToAbsolute(false, 100), 1e-9)
}

func TestToAbsoluteTailAnchorsAtDuration(t *testing.T) {
	res := Result{
		Duration: 300,
		Tail:     envelope.Series{Wideband: make([]float64, 500)}, // 10s tail
	}
	// Index len(tail), one past the last tail frame, lands exactly at the track's duration.
	assert.InDelta(t, 300.0, res.ToAbsolute(true, 500), 1e-9)
	// First tail index should land 10s before the end.
	assert.InDelta(t, 290.0, res.ToAbsolute(true, 0), 1e-9)
}
