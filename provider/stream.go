package provider

import (
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

// StreamDecoded eagerly decodes an entire WAV file into memory up front
// (via go-audio/wav), then behaves exactly like Raw. Appropriate for short
// one-shot sounds where decode latency up front is preferable to a decode
// step in the audio callback.
type StreamDecoded struct {
	*Raw
}

// NewStreamDecodedWAV reads and fully decodes a WAV stream. r need not be
// seekable; go-audio/wav reads forward only for PCM chunks.
func NewStreamDecodedWAV(r io.Reader) (*StreamDecoded, error) {
	rs, ok := r.(io.ReadSeeker)
	if !ok {
		rs = &readSeekAdapter{r: r}
	}
	dec := wav.NewDecoder(rs)
	dec.ReadInfo()
	if !dec.IsValidFile() {
		return nil, audioerr.New(audioerr.KindFormatUnsupported, "not a valid WAV stream")
	}
	if dec.BitDepth != 16 && dec.BitDepth != 24 && dec.BitDepth != 32 {
		return nil, audioerr.New(audioerr.KindFormatUnsupported, "unsupported WAV bit depth: %d", dec.BitDepth)
	}

	divisor := float32(math.Pow(2, float64(dec.BitDepth)-1))
	chunkSamples := int(dec.NumChans) * int(dec.SampleRate) * 4 // ~4s per read

	buf := &goaudio.IntBuffer{
		Data:   make([]int, chunkSamples),
		Format: &goaudio.Format{SampleRate: int(dec.SampleRate), NumChannels: int(dec.NumChans)},
	}

	var data []float32
	for {
		n, err := dec.PCMBuffer(buf)
		if err != nil {
			return nil, audioerr.Wrap(audioerr.KindDecoderError, err, "decoding WAV PCM")
		}
		if n == 0 {
			break
		}
		for _, s := range buf.Data[:n] {
			data = append(data, float32(s)/divisor)
		}
	}

	f := format.AudioFormat{
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Encoding:   format.EncodingF32,
	}
	return &StreamDecoded{Raw: NewRaw(f, data)}, nil
}

// readSeekAdapter buffers an io.Reader into memory on first Read or Seek so callers
// that need io.ReadSeeker (like go-audio/wav's decoder) can be handed a
// non-seekable network or pipe source. Only used for small, fully-buffered
// decode paths, never in the chunked provider.
type readSeekAdapter struct {
	r    io.Reader
	data []byte
	pos  int64
	full bool
}

func (a *readSeekAdapter) fill() error {
	if a.full {
		return nil
	}
	b, err := io.ReadAll(a.r)
	a.data = b
	a.full = true
	if err != nil && err != io.EOF {
		return err
	}
	return nil
}

func (a *readSeekAdapter) Read(p []byte) (int, error) {
	if err := a.fill(); err != nil {
		return 0, err
	}
	if a.pos >= int64(len(a.data)) {
		return 0, io.EOF
	}
	n := copy(p, a.data[a.pos:])
	a.pos += int64(n)
	return n, nil
}

func (a *readSeekAdapter) Seek(offset int64, whence int) (int64, error) {
	if err := a.fill(); err != nil {
		return 0, err
	}
	switch whence {
	case io.SeekStart:
		a.pos = offset
	case io.SeekCurrent:
		a.pos += offset
	case io.SeekEnd:
		a.pos = int64(len(a.data)) + offset
	}
	return a.pos, nil
}
