package provider

import (
	"math"
	"sync"

	"github.com/shaban/audioengine/format"
)

// Waveform selects the generator function a Synthetic provider evaluates.
type Waveform int

const (
	WaveformSilence Waveform = iota
	WaveformSine
)

// Synthetic generates PCM procedurally instead of reading from a file or
// network socket. Used for engine self-tests, click/tone cues, and as the
// default source in the demo CLI. Length is unknown unless DurationFrames
// is set, matching an infinite tone generator by default.
type Synthetic struct {
	mu             sync.Mutex
	format         format.AudioFormat
	waveform       Waveform
	freqHz         float64
	amplitude      float64
	phase          float64
	pos            int64
	durationFrames int64 // 0 means unbounded
	cb             callbacks
}

// NewSynthetic creates a procedural generator. durationFrames == 0 means the
// provider never reaches end of stream on its own (a looping tone bed); a
// positive value makes it end-reached after that many frames.
func NewSynthetic(f format.AudioFormat, wf Waveform, freqHz, amplitude float64, durationFrames int64) *Synthetic {
	return &Synthetic{
		format:         f,
		waveform:       wf,
		freqHz:         freqHz,
		amplitude:      amplitude,
		durationFrames: durationFrames,
	}
}

func (s *Synthetic) Format() format.AudioFormat { return s.format }

func (s *Synthetic) Position() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *Synthetic) Length() (int64, bool) {
	if s.durationFrames <= 0 {
		return 0, false
	}
	return s.durationFrames, true
}

func (s *Synthetic) CanSeek() bool { return true }

func (s *Synthetic) Seek(frame int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pos = frame
	s.phase = 2 * math.Pi * s.freqHz * float64(frame) / float64(s.format.SampleRate)
	s.cb.firePositionChanged(frame)
	return nil
}

func (s *Synthetic) Read(dst []float32) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := s.format.Channels
	frames := len(dst) / ch
	if s.durationFrames > 0 {
		remaining := s.durationFrames - s.pos
		if remaining <= 0 {
			s.cb.fireEndReached()
			return 0, nil
		}
		if int64(frames) > remaining {
			frames = int(remaining)
		}
	}

	phaseStep := 2 * math.Pi * s.freqHz / float64(s.format.SampleRate)
	for i := 0; i < frames; i++ {
		var sample float32
		switch s.waveform {
		case WaveformSine:
			sample = float32(s.amplitude * math.Sin(s.phase))
			s.phase += phaseStep
		case WaveformSilence:
			sample = 0
		}
		for c := 0; c < ch; c++ {
			dst[i*ch+c] = sample
		}
	}
	s.pos += int64(frames)
	return frames * ch, nil
}

func (s *Synthetic) Close() error { return nil }

func (s *Synthetic) OnEndReached(fn func()) func()           { return s.cb.OnEndReached(fn) }
func (s *Synthetic) OnPositionChanged(fn func(int64)) func() { return s.cb.OnPositionChanged(fn) }
