package provider

import (
	"encoding/binary"
	"io"
	"math"
	"sync"
	"sync/atomic"

	"github.com/smallnest/ringbuffer"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

// Network decodes a live or buffered network stream on a dedicated I/O
// helper goroutine and hands samples to the audio thread through a
// fixed-size ring buffer. The ring buffer blocks the decode goroutine when
// full, which is the backpressure: a slow consumer naturally throttles a
// fast producer without the producer dropping data, unlike the microphone
// provider's drop-oldest policy where dropping stale frames is the better
// choice for a live input.
type Network struct {
	ring   *ringbuffer.RingBuffer
	format format.AudioFormat

	pos      int64
	fetchErr atomic.Value // error
	done     atomic.Bool
	cb       callbacks

	closeOnce sync.Once
	stop      chan struct{}
}

// NewNetwork starts decoding src on a background goroutine, buffering up to bufferFrames frames of F32 audio (per channel) before
// blocking the producer.
func NewNetwork(f format.AudioFormat, bufferFrames int, src frameSource) (*Network, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	bytesPerSample := 4
	ringSize := bufferFrames * f.Channels * bytesPerSample
	n := &Network{
		ring:   ringbuffer.New(ringSize).SetBlocking(true),
		format: f,
		stop:   make(chan struct{}),
	}
	go n.pump(src)
	return n, nil
}

func (n *Network) pump(src frameSource) {
	chunk := make([]float32, 4096)
	raw := make([]byte, 4096*4)
	for {
		select {
		case <-n.stop:
			return
		default:
		}

		samples, err := src.ReadF32(chunk)
		if samples > 0 {
			for i := 0; i < samples; i++ {
				binary.LittleEndian.PutUint32(raw[i*4:], math.Float32bits(chunk[i]))
			}
			if _, werr := n.ring.Write(raw[:samples*4]); werr != nil {
				n.fetchErr.Store(werr)
				n.done.Store(true)
				return
			}
		}
		if err == io.EOF {
			n.done.Store(true)
			return
		}
		if err != nil {
			n.fetchErr.Store(err)
			n.done.Store(true)
			return
		}
	}
}

func (n *Network) Format() format.AudioFormat { return n.format }

func (n *Network) Position() int64 { return atomic.LoadInt64(&n.pos) }

func (n *Network) Length() (int64, bool) { return 0, false }

func (n *Network) CanSeek() bool { return false }

func (n *Network) Seek(int64) error { return errNotSeekable() }

func (n *Network) Read(dst []float32) (int, error) {
	raw := make([]byte, len(dst)*4)
	avail := n.ring.Length()
	toRead := len(raw)
	if avail < toRead {
		toRead = avail
	}
	if toRead == 0 {
		if n.done.Load() {
			if errv := n.fetchErr.Load(); errv != nil {
				return 0, audioerr.Wrap(audioerr.KindDecoderError, errv.(error), "network decode")
			}
			n.cb.fireEndReached()
		}
		return 0, nil
	}
	toRead -= toRead % 4
	read, err := n.ring.Read(raw[:toRead])
	if err != nil && err != io.EOF {
		return 0, audioerr.Wrap(audioerr.KindDecoderError, err, "reading network ring buffer")
	}
	samples := read / 4
	for i := 0; i < samples; i++ {
		bits := binary.LittleEndian.Uint32(raw[i*4:])
		dst[i] = math.Float32frombits(bits)
	}
	atomic.AddInt64(&n.pos, int64(samples/n.format.Channels))
	return samples, nil
}

func (n *Network) Close() error {
	n.closeOnce.Do(func() { close(n.stop) })
	return nil
}

func (n *Network) OnEndReached(fn func()) func()           { return n.cb.OnEndReached(fn) }
func (n *Network) OnPositionChanged(fn func(int64)) func() { return n.cb.OnPositionChanged(fn) }
