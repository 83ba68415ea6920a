package provider

import (
	"io"
	"sync"

	"github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

// frameSource is the minimal pull interface every codec backend adapts to:
// read more interleaved F32 samples, or report end of stream. Mirrors the
// push-bytes/pull-frames shape of an ffmpeg-style decode loop, generalized
// to a single blocking call per chunk.
type frameSource interface {
	ReadF32(dst []float32) (int, error) // io.EOF when exhausted
	SampleRate() int
	Channels() int
}

// ChunkedDecoder decodes compressed audio incrementally, a chunk at a time,
// instead of eagerly like StreamDecoded. Appropriate for long files where
// holding the whole decode in memory is wasteful. Forward-only: compressed
// codecs with variable bitrate don't support frame-accurate seek without a
// full re-decode, so ChunkedDecoder reports CanSeek() == false.
type ChunkedDecoder struct {
	mu     sync.Mutex
	src    frameSource
	format format.AudioFormat
	pos    int64
	ended  bool
	cb     callbacks
}

// NewChunkedMP3 opens an MP3 stream for incremental decode via go-mp3.
func NewChunkedMP3(r io.Reader) (*ChunkedDecoder, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDecoderError, err, "opening MP3 stream")
	}
	src := &mp3Source{dec: dec}
	return newChunkedDecoder(src)
}

// NewChunkedOggVorbis opens an Ogg/Vorbis stream for incremental decode via
// jfreymuth/oggvorbis.
func NewChunkedOggVorbis(r io.Reader) (*ChunkedDecoder, error) {
	dec, err := oggvorbis.NewReader(r)
	if err != nil {
		return nil, audioerr.Wrap(audioerr.KindDecoderError, err, "opening Ogg/Vorbis stream")
	}
	src := &oggSource{dec: dec}
	return newChunkedDecoder(src)
}

func newChunkedDecoder(src frameSource) (*ChunkedDecoder, error) {
	f := format.AudioFormat{
		SampleRate: src.SampleRate(),
		Channels:   src.Channels(),
		Encoding:   format.EncodingF32,
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &ChunkedDecoder{src: src, format: f}, nil
}

func (c *ChunkedDecoder) Format() format.AudioFormat { return c.format }

func (c *ChunkedDecoder) Position() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pos
}

func (c *ChunkedDecoder) Length() (int64, bool) { return 0, false }

func (c *ChunkedDecoder) CanSeek() bool { return false }

func (c *ChunkedDecoder) Seek(int64) error { return errNotSeekable() }

func (c *ChunkedDecoder) Read(dst []float32) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ended {
		return 0, nil
	}

	n, err := c.src.ReadF32(dst)
	if n > 0 {
		c.pos += int64(n / c.format.Channels)
	}
	if err == io.EOF {
		c.ended = true
		c.cb.fireEndReached()
		return n, nil
	}
	if err != nil {
		return n, audioerr.Wrap(audioerr.KindDecoderError, err, "decoding audio chunk")
	}
	return n, nil
}

func (c *ChunkedDecoder) Close() error {
	if closer, ok := c.src.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}

func (c *ChunkedDecoder) OnEndReached(fn func()) func()           { return c.cb.OnEndReached(fn) }
func (c *ChunkedDecoder) OnPositionChanged(fn func(int64)) func() { return c.cb.OnPositionChanged(fn) }

// mp3Source adapts go-mp3's 16-bit stereo PCM byte stream into the F32
// frameSource contract.
type mp3Source struct {
	dec *mp3.Decoder
	buf []byte
}

func (m *mp3Source) SampleRate() int { return m.dec.SampleRate() }
func (m *mp3Source) Channels() int   { return 2 } // go-mp3 always decodes to stereo

func (m *mp3Source) ReadF32(dst []float32) (int, error) {
	need := len(dst) * 2 // 2 bytes per S16 sample
	if len(m.buf) < need {
		m.buf = make([]byte, need)
	}
	raw := m.buf[:need]
	n, err := io.ReadFull(m.dec, raw)
	// io.ReadFull turns a short final read into ErrUnexpectedEOF; treat it
	// as a partial decode followed by EOF like any other codec tail.
	samples := format.DecodeToF32(format.EncodingS16, raw[:n], dst)
	if err == io.ErrUnexpectedEOF {
		err = io.EOF
	}
	return samples, err
}

// oggSource adapts jfreymuth/oggvorbis's native F32 output directly. The
// decoder's Read counts frames, not interleaved samples, so the channel
// count is folded back in before returning to the frameSource contract.
type oggSource struct {
	dec *oggvorbis.Reader
}

func (o *oggSource) SampleRate() int { return o.dec.SampleRate() }
func (o *oggSource) Channels() int   { return o.dec.Channels() }

func (o *oggSource) ReadF32(dst []float32) (int, error) {
	ch := o.dec.Channels()
	framesRequested := len(dst) / ch
	frames, err := o.dec.Read(dst[:framesRequested*ch])
	return frames * ch, err
}
