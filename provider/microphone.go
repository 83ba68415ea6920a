package provider

import (
	"sync"

	"github.com/shaban/audioengine/format"
)

// Capturer is the narrow contract a native capture backend implements to
// feed a Microphone provider. No implementation ships in this module (the
// capture package holds only the WAV Recorder); this interface keeps
// provider decoupled from any specific device binding.
type Capturer interface {
	Format() format.AudioFormat
	// Start begins delivering captured frames to onFrames on the backend's
	// own callback thread until Stop is called.
	Start(onFrames func(frame []float32)) error
	Stop() error
}

// warnLogger is the minimal logging contract Microphone needs for its
// drop-oldest warning, matching *slog.Logger's Warn signature so it is
// satisfied structurally by enginex.Logger without an import cycle.
type warnLogger interface {
	Warn(msg string, args ...any)
}

type nopWarnLogger struct{}

func (nopWarnLogger) Warn(string, ...any) {}

// Microphone provider reads live input frames through a Capturer into a
// bounded queue. The capture callback thread is never allowed to block, so
// when the queue is full the oldest queued frame is dropped to make room
// and a warning is logged; this is the live-input policy, distinct from
// Network's blocking backpressure.
type Microphone struct {
	mu       sync.Mutex
	capturer Capturer
	format   format.AudioFormat
	queue    [][]float32
	capacity int
	pos      int64
	logger   warnLogger
	started  bool
	cb       callbacks
}

// NewMicrophone wraps capturer, queueing up to capacityFrames frames (one
// []float32 slot per callback delivery, not per sample) before dropping.
func NewMicrophone(capturer Capturer, capacityFrames int, logger warnLogger) *Microphone {
	if logger == nil {
		logger = nopWarnLogger{}
	}
	return &Microphone{
		capturer: capturer,
		format:   capturer.Format(),
		capacity: capacityFrames,
		logger:   logger,
	}
}

// Open starts the underlying capture stream. Not part of the Provider
// interface proper since capture has no natural "not yet started" read
// behavior other than silence, but callers call it before handing the
// provider to a player/recorder.
func (m *Microphone) Open() error {
	return m.capturer.Start(m.onFrame)
}

func (m *Microphone) onFrame(frame []float32) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.queue) >= m.capacity {
		m.queue = m.queue[1:]
		m.logger.Warn("microphone queue full, dropping oldest frame", "capacity", m.capacity)
	}
	cp := make([]float32, len(frame))
	copy(cp, frame)
	m.queue = append(m.queue, cp)
}

func (m *Microphone) Format() format.AudioFormat { return m.format }

func (m *Microphone) Position() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pos
}

func (m *Microphone) Length() (int64, bool) { return 0, false }

func (m *Microphone) CanSeek() bool { return false }

func (m *Microphone) Seek(int64) error { return errNotSeekable() }

func (m *Microphone) Read(dst []float32) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	written := 0
	for written < len(dst) && len(m.queue) > 0 {
		next := m.queue[0]
		n := copy(dst[written:], next)
		if n == len(next) {
			m.queue = m.queue[1:]
		} else {
			m.queue[0] = next[n:]
		}
		written += n
	}
	m.pos += int64(written / m.format.Channels)
	return written, nil
}

func (m *Microphone) Close() error {
	return m.capturer.Stop()
}

func (m *Microphone) OnEndReached(fn func()) func()           { return m.cb.OnEndReached(fn) }
func (m *Microphone) OnPositionChanged(fn func(int64)) func() { return m.cb.OnPositionChanged(fn) }
