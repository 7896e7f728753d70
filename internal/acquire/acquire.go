// Package acquire drives the decoder facade through the head/tail
// two-window scheme of spec.md §4.D, feeding both the filter bank and
// the envelope reducer, retaining PCM for the chroma estimator, and
// integrating loudness across the whole analysis.
package acquire

import (
	"errors"
	"io"
	"math"

	"github.com/vividhyeok/djcore/internal/decode"
	"github.com/vividhyeok/djcore/internal/envelope"
	"github.com/vividhyeok/djcore/internal/filterbank"
	"github.com/vividhyeok/djcore/internal/loudness"
)

// ErrEmptyFile is returned when the decoder produced a zero sample
// rate or a zero-length window size — the analyzer's single opaque
// failure mode for reasons (d) and (e) of the failure taxonomy.
var ErrEmptyFile = errors.New("acquire: empty or unusable stream")

const maxRetainedPCMSeconds = 30

// Result bundles everything the rest of the pipeline needs: the
// per-window envelope series with their coordinate mapping, the
// retained head PCM, and the integrated loudness.
type Result struct {
	SampleRate int
	Duration   float64 // seconds; from the decoder's frame count, else the last head-window sample time
	HasTail    bool

	Head envelope.Series
	Tail envelope.Series

	// RetainedPCM is mono-downmixed head-window PCM at SampleRate, up
	// to min(maxAnalyzeTime, 30) seconds, for the chroma estimator.
	RetainedPCM []float32

	LUFS float64
}

// ToAbsolute maps an index within the head or tail series to absolute
// seconds, centralizing the one mapping rule spec.md §9 warns against
// duplicating: head: i/50; tail: duration - (tail_len/50 - i/50).
func (r Result) ToAbsolute(tail bool, i int) float64 {
	if !tail {
		return float64(i) / 50
	}
	tailLen := len(r.Tail.Wideband)
	return r.Duration - (float64(tailLen)/50 - float64(i)/50)
}

// Options configures one acquisition run.
type Options struct {
	MaxAnalyzeTime float64 // seconds, clamped to [5, 300] by the caller
	IncludeTail    bool
	FFmpegPath     string
}

// Acquire opens path and runs the head (and optional tail) windows.
func Acquire(path string, opts Options) (*Result, error) {
	h, err := decode.Open(path, opts.FFmpegPath)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	sampleRate := h.SampleRate()
	if sampleRate <= 0 {
		return nil, ErrEmptyFile
	}

	bank := filterbank.NewBank(sampleRate)
	reducer, windowSize := envelope.NewReducer(sampleRate, bank)
	if windowSize <= 0 {
		return nil, ErrEmptyFile
	}
	lufs := loudness.NewAccumulator(sampleRate, h.ChannelCount())

	res := &Result{SampleRate: sampleRate}

	knownFrames, frameCountKnown := h.KnownFrameCount()
	if frameCountKnown {
		res.Duration = float64(knownFrames) / float64(sampleRate)
	}

	maxRetained := int(math.Min(opts.MaxAnalyzeTime, maxRetainedPCMSeconds) * float64(sampleRate))

	// Phase 0: head, from t=0 until packet time exceeds MaxAnalyzeTime.
	headEnd, retained, err := runWindow(h, reducer, lufs, opts.MaxAnalyzeTime, maxRetained, true)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	reducer.Flush()
	res.Head = reducer.Series()
	res.RetainedPCM = retained
	if !frameCountKnown {
		// Stream length never reported up front; the last packet
		// timestamp observed during the head window is the best
		// duration estimate available absent a tail.
		res.Duration = headEnd
	}

	wantsTail := opts.IncludeTail && res.Duration > 2*opts.MaxAnalyzeTime
	if wantsTail {
		seekTo := res.Duration - opts.MaxAnalyzeTime
		if seekErr := h.Seek(seekTo); seekErr == nil {
			bank.Reset()
			tailReducer, _ := envelope.NewReducer(sampleRate, bank)
			_, _, err := runWindow(h, tailReducer, lufs, math.Inf(1), 0, false)
			if err != nil && !errors.Is(err, io.EOF) {
				// Transient decode failure mid-tail: keep whatever
				// partial tail envelope was collected (spec.md §7).
			}
			tailReducer.Flush()
			res.Tail = tailReducer.Series()
			res.HasTail = len(res.Tail.Wideband) > 0
		}
		// Seek failure or unsupported backend: tail stays empty,
		// per spec.md §4.D ("If seek fails ... the tail is empty").
	}

	res.LUFS = lufs.IntegratedLUFS()
	return res, nil
}

// runWindow decodes packets from h, folding each mono-downmixed sample
// into bank/reducer/lufs, until packet time exceeds maxTime (head) or
// end-of-stream (tail, maxTime = +Inf). retainLimit bounds how many
// mono PCM samples are captured into the returned slice; pass 0 to
// disable retention (tail window never retains).
func runWindow(h decode.Handle, reducer *envelope.Reducer, lufs *loudness.Accumulator, maxTime float64, retainLimit int, retain bool) (lastTime float64, retained []float32, err error) {
	if retain && retainLimit > 0 {
		retained = make([]float32, 0, retainLimit)
	}

	for {
		pkt, perr := h.NextPacket()
		if perr != nil {
			if errors.Is(perr, io.EOF) {
				return lastTime, retained, io.EOF
			}
			// Transient decode error: stop this window, keep what
			// was collected (spec.md §7).
			return lastTime, retained, io.EOF
		}

		n := 0
		if len(pkt.Frames) > 0 {
			n = len(pkt.Frames[0])
		}
		channels := len(pkt.Frames)

		for i := 0; i < n; i++ {
			t := pkt.Seconds() + float64(i)*pkt.TimeBase
			if !math.IsInf(maxTime, 1) && t > maxTime {
				return lastTime, retained, io.EOF
			}
			lastTime = t

			var mono float64
			frame := make([]float32, channels)
			for c := 0; c < channels; c++ {
				s := pkt.Frames[c][i]
				frame[c] = s
				mono += float64(s)
			}
			if channels > 0 {
				mono /= float64(channels)
			}

			reducer.Add(mono)
			lufs.AddFrame(frame)

			if retain && len(retained) < retainLimit {
				retained = append(retained, float32(mono))
			}
		}
	}
}
