package decode

import (
	"errors"
	"io"
	"os"

	"github.com/thesyncim/gopus"
	"github.com/thesyncim/gopus/container/ogg"
)

// opusDecodeRate is the rate the gopus decoder is instantiated at;
// Opus always decodes at 48 kHz internally regardless of the stream's
// original pre-resample rate (RFC 7845 §2).
const opusDecodeRate = 48000

// maxOpusFrameSamples bounds the per-packet PCM buffer: 120 ms at
// 48 kHz stereo is the largest frame Opus defines.
const maxOpusFrameSamples = 120 * 48000 / 1000 * 2

// opusHandle decodes Ogg-Opus files natively via gopus, avoiding an
// ffmpeg subprocess for the one format the pack carries a pure-Go
// decoder for.
type opusHandle struct {
	f   *os.File
	or  *ogg.Reader
	dec *gopus.Decoder

	channels   int
	sampleRate int
	preSkip    int

	cursor  int64 // frames (at sampleRate) produced since the stream start
	skipped bool
}

func openOpus(path string) (Handle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrIO, err)
	}
	or, err := ogg.NewReader(f)
	if err != nil {
		f.Close()
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}
	channels := int(or.Channels())
	dec, err := gopus.NewDecoder(opusDecodeRate, clampChannels(channels))
	if err != nil {
		f.Close()
		return nil, errors.Join(ErrUnsupportedFormat, err)
	}
	h := &opusHandle{
		f:          f,
		or:         or,
		dec:        dec,
		channels:   clampChannels(channels),
		sampleRate: opusDecodeRate,
		preSkip:    int(or.PreSkip()),
	}
	return h, nil
}

func clampChannels(c int) int {
	if c < 1 {
		return 1
	}
	if c > 2 {
		return 2
	}
	return c
}

func (h *opusHandle) SampleRate() int   { return h.sampleRate }
func (h *opusHandle) ChannelCount() int { return h.channels }

func (h *opusHandle) KnownFrameCount() (int64, bool) {
	// RFC 7845 granule positions measure absolute sample count at
	// 48 kHz; the final page's granule position is the true total,
	// but this reader only exposes the running value, so total frame
	// count is unknown up front.
	return 0, false
}

func (h *opusHandle) NextPacket() (Packet, error) {
	packet, granule, err := h.or.ReadPacket()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Packet{}, io.EOF
		}
		return Packet{}, err
	}
	pcm := make([]float32, maxOpusFrameSamples)
	n, err := h.dec.Decode(packet, pcm)
	if err != nil {
		return Packet{}, err
	}
	pcm = pcm[:n*h.channels]

	frames := make([][]float32, h.channels)
	for c := range frames {
		frames[c] = make([]float32, n)
		for i := 0; i < n; i++ {
			frames[c][i] = pcm[i*h.channels+c]
		}
	}

	start := h.cursor
	if !h.skipped && h.preSkip > 0 {
		skip := h.preSkip
		if skip > n {
			skip = n
		}
		for c := range frames {
			frames[c] = frames[c][skip:]
		}
		n -= skip
		h.preSkip -= skip
		if h.preSkip == 0 {
			h.skipped = true
		}
	}
	h.cursor = int64(granule)
	_ = start

	return Packet{
		Frames:    frames,
		TimeBase:  1 / float64(h.sampleRate),
		Timestamp: h.cursor - int64(n),
	}, nil
}

// Seek is not supported by the native Opus path: Ogg page granule
// positions give byte-accurate seeking only with an index the reader
// does not build, so acquisition falls back to ErrSeekUnsupported and
// treats the tail window as empty (spec.md §4.D).
func (h *opusHandle) Seek(t float64) error {
	return ErrSeekUnsupported
}

func (h *opusHandle) Close() error {
	return h.f.Close()
}
