// Package capture implements the Recorder: start/pause/resume/stop,
// encoding captured audio to a WAV file via github.com/go-audio/wav,
// grounded on
// _examples/tphakala-birdnet-go/internal/myaudio/readfile_wav.go's use of
// the same library for the read side.
package capture

import (
	"io"
	"os"
	"sync"
	"sync/atomic"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

// Codec selects the Recorder's output encoding. Only WAV is implemented:
// this module's MP3 and Ogg/Vorbis dependencies (go-mp3,
// jfreymuth/oggvorbis) are decode-only, and no encoder for either format
// is available — see DESIGN.md for the full justification.
type Codec int

const (
	CodecWAV Codec = iota
)

// State is the recorder's run state.
type State int32

const (
	StateIdle State = iota
	StateRecording
	StatePaused
	StateStopped
)

// Recorder consumes captured float32 blocks (typically fed by a
// device.Device's capture-subscriber fan-out) and encodes them to disk.
type Recorder struct {
	mu      sync.Mutex
	file    *os.File
	enc     *wav.Encoder
	format  format.AudioFormat
	state   atomic.Int32
	onFail  func(error)

	intBuf *goaudio.IntBuffer
}

// New creates a Recorder that will write WAV data at fmt's sample rate
// and channel count to path once Start is called.
func New(fmt format.AudioFormat) *Recorder {
	r := &Recorder{format: fmt}
	r.intBuf = &goaudio.IntBuffer{
		Format: &goaudio.Format{SampleRate: fmt.SampleRate, NumChannels: fmt.Channels},
		Data:   make([]int, 0),
	}
	r.state.Store(int32(StateIdle))
	return r
}

// OnRecordingFailed registers a callback fired when an encode error stops
// recording.
func (r *Recorder) OnRecordingFailed(fn func(error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onFail = fn
}

// Start opens path and begins encoding at 16-bit PCM.
func (r *Recorder) Start(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, err := os.Create(path)
	if err != nil {
		return audioerr.Wrap(audioerr.KindEncoderError, err, "creating recording file %q", path)
	}
	enc := wav.NewEncoder(f, r.format.SampleRate, 16, r.format.Channels, 1)

	r.file = f
	r.enc = enc
	r.state.Store(int32(StateRecording))
	return nil
}

// Pause suspends encoding without closing the file.
func (r *Recorder) Pause() {
	r.state.CompareAndSwap(int32(StateRecording), int32(StatePaused))
}

// Resume continues encoding after a Pause.
func (r *Recorder) Resume() {
	r.state.CompareAndSwap(int32(StatePaused), int32(StateRecording))
}

// Stop finalizes and closes the WAV file.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state.Load() == int32(StateStopped) || r.state.Load() == int32(StateIdle) {
		return nil
	}
	r.state.Store(int32(StateStopped))

	var closeErr error
	if r.enc != nil {
		closeErr = r.enc.Close()
	}
	if r.file != nil {
		if err := r.file.Close(); err != nil && closeErr == nil {
			closeErr = err
		}
	}
	if closeErr != nil {
		return audioerr.Wrap(audioerr.KindEncoderError, closeErr, "finalizing recording")
	}
	return nil
}

// State returns the recorder's current state.
func (r *Recorder) State() State { return State(r.state.Load()) }

// Write encodes a captured interleaved F32 block, matching
// device.CaptureSubscriber's signature so a Recorder can be registered
// directly via Device.AddCaptureSubscriber.
func (r *Recorder) Write(buf []float32, channels int) {
	if State(r.state.Load()) != StateRecording {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if cap(r.intBuf.Data) < len(buf) {
		r.intBuf.Data = make([]int, len(buf))
	}
	r.intBuf.Data = r.intBuf.Data[:len(buf)]
	for i, s := range buf {
		r.intBuf.Data[i] = int(format.ClampToS16(s))
	}

	if err := r.enc.Write(r.intBuf); err != nil {
		r.state.Store(int32(StateStopped))
		if r.onFail != nil {
			r.onFail(audioerr.Wrap(audioerr.KindEncoderError, err, "writing recording block"))
		}
	}
}

var _ io.Closer = (*Recorder)(nil)

// Close implements io.Closer as an alias for Stop, so a Recorder can be
// used with defer close idioms alongside Provider.Close.
func (r *Recorder) Close() error { return r.Stop() }
