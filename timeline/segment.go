package timeline

import (
	"sync"

	"github.com/shaban/audioengine/dsp"
	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/midi"
	"github.com/shaban/audioengine/modifier"
	"github.com/shaban/audioengine/provider"
)

// AudioSegment places a provider's audio on a track at
// [TimelineStart, TimelineStart+Duration) seconds.
type AudioSegment struct {
	Provider      provider.Provider
	TimelineStart float64
	Duration      float64 // timeline duration; may exceed source duration when Stretch > 1
	SourceStart   float64 // seconds into the source where playback begins
	Stretch       float64 // maps timeline offset to source offset (offset/Stretch); samples are read 1:1, not time-stretched
	Volume        float32
	Pan           float32
	FadeIn        float64
	FadeOut       float64
	FadeCurve     FadeCurve
	LoopEnabled   bool
	LoopStart     float64
	LoopEnd       float64 // seconds; <=LoopStart means "loop from LoopStart to the end of the source"

	Modifiers *modifier.Chain

	scratchMu  sync.Mutex
	srcScratch []float32 // rented, source-channel-count wide
	mixScratch []float32 // rented, output-channel-count wide
}

// NewAudioSegment creates a segment with unity volume/pan and no stretch.
func NewAudioSegment(prov provider.Provider, timelineStart, duration float64) *AudioSegment {
	return &AudioSegment{
		Provider:      prov,
		TimelineStart: timelineStart,
		Duration:      duration,
		Stretch:       1.0,
		Volume:        1.0,
		Pan:           0.5,
		Modifiers:     modifier.NewChain(),
	}
}

func (s *AudioSegment) span() (start, end float64) {
	return s.TimelineStart, s.TimelineStart + s.Duration
}

// rent returns a []float32 of at least n from slot, growing it in place if
// too small, so repeated Render calls at a stable block size don't
// allocate. Guarded by scratchMu since nothing else prevents a segment
// from being rendered by more than one track concurrently.
func (s *AudioSegment) rent(slot *[]float32, n int) []float32 {
	s.scratchMu.Lock()
	defer s.scratchMu.Unlock()
	if cap(*slot) < n {
		*slot = make([]float32, n)
	}
	return (*slot)[:n]
}

// Render accumulates this segment's contribution to [t0, t1) (global
// timeline seconds) into dst (interleaved, channels-wide): clip to the
// segment's span, seek the source, read, fade, apply volume/pan, and
// accumulate.
func (s *AudioSegment) Render(dst []float32, channels int, sampleRate float64, t0, t1 float64) {
	segStart, segEnd := s.span()
	o0 := max64(t0, segStart)
	o1 := min64(t1, segEnd)
	if o0 >= o1 {
		return
	}

	frames := int((t1 - t0) * sampleRate)
	if frames == 0 {
		return
	}
	startFrame := int((o0 - t0) * sampleRate)
	frameCount := int((o1 - o0) * sampleRate)
	if startFrame < 0 || frameCount <= 0 || startFrame+frameCount > frames {
		return
	}

	srcRate := float64(sampleRate)
	sourceOffsetSeconds := s.SourceStart + (o0-segStart)/s.stretchOrOne()
	sourceFrame := int64(sourceOffsetSeconds * srcRate)

	if s.LoopEnabled {
		s.seekWithLoop(sourceFrame)
	} else if prov := s.Provider; prov.CanSeek() {
		_ = prov.Seek(sourceFrame)
	}

	srcChannels := channels
	if fmt := s.Provider.Format(); fmt.Channels > 0 {
		srcChannels = fmt.Channels
	}

	scratch := s.rent(&s.srcScratch, frameCount*srcChannels)
	n, _ := s.Provider.Read(scratch)
	read := n / srcChannels

	mixed := s.rent(&s.mixScratch, frameCount*channels)
	for i := range mixed {
		mixed[i] = 0
	}
	if srcChannels == channels {
		copy(mixed, scratch[:read*channels])
	} else {
		format.ChannelMatrix(scratch[:read*srcChannels], srcChannels, mixed, channels)
	}

	ApplyFade(mixed, channels, sampleRate, o0-segStart, segEnd-segStart, s.FadeIn, s.FadeOut, s.FadeCurve)
	s.Modifiers.Process(mixed, channels)

	var l, r float64 = 1, 1
	if channels == 2 {
		l, r = dsp.EqualPowerPan(float64(s.Pan))
	}
	for i := 0; i < frameCount*channels; i++ {
		ch := i % channels
		gain := s.Volume
		if channels == 2 && ch == 0 {
			gain *= float32(l)
		} else if channels == 2 && ch == 1 {
			gain *= float32(r)
		}
		dst[startFrame*channels+i] += mixed[i] * gain
	}
}

func (s *AudioSegment) stretchOrOne() float64 {
	if s.Stretch <= 0 {
		return 1
	}
	return s.Stretch
}

// seekWithLoop seeks into the provider, wrapping sourceFrame around
// (LoopStart, LoopEnd) with sample-accurate boundaries.
func (s *AudioSegment) seekWithLoop(sourceFrame int64) {
	sampleRate := float64(s.Provider.Format().SampleRate)
	loopStartFrame := int64(s.LoopStart * sampleRate)
	loopEndFrame := int64(s.LoopEnd * sampleRate)
	if loopEndFrame <= loopStartFrame {
		if length, known := s.Provider.Length(); known {
			loopEndFrame = length
		}
	}
	span := loopEndFrame - loopStartFrame
	if span <= 0 {
		_ = s.Provider.Seek(sourceFrame)
		return
	}
	if sourceFrame >= loopStartFrame {
		wrapped := loopStartFrame + (sourceFrame-loopStartFrame)%span
		_ = s.Provider.Seek(wrapped)
		return
	}
	_ = s.Provider.Seek(sourceFrame)
}

// MidiSegment places a sequence of MIDI messages, scheduled by tick, on a
// track at [TimelineStart, TimelineStart+Duration) seconds.
type MidiSegment struct {
	TimelineStart float64
	Duration      float64
	Events        []ScheduledEvent // sorted by Tick
	Processors    []midi.Processor // SysEx bypasses this chain
}

// ScheduledEvent is one MIDI message scheduled at an absolute tick
// relative to the segment's own start.
type ScheduledEvent struct {
	Tick    int64
	Message midi.Message
}

// EventsInTickRange returns every event with Tick in [lo, hi).
func (s *MidiSegment) EventsInTickRange(lo, hi int64) []ScheduledEvent {
	var out []ScheduledEvent
	for _, e := range s.Events {
		if e.Tick >= lo && e.Tick < hi {
			out = append(out, e)
		}
	}
	return out
}

func max64(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
