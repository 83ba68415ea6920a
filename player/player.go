// Package player implements sound players: graph nodes that read from a
// provider.Provider, apply a speed change (pitch-shifting via the linear
// resampler, or pitch-preserving via the phase vocoder), and hand the
// result to the graph for volume/pan and modifier processing.
package player

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/shaban/audioengine/dsp/resample"
	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/graph"
	"github.com/shaban/audioengine/provider"
)

// State is the sound player's playback state machine: Stopped -> Playing
// <-> Paused -> Stopped.
type State int32

const (
	StateStopped State = iota
	StatePlaying
	StatePaused
)

func (s State) String() string {
	switch s {
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "stopped"
	}
}

// PlaybackMode selects how a speed change other than 1.0 is realized.
type PlaybackMode int32

const (
	ModePitchShift PlaybackMode = iota
	ModePitchPreserve
)

// LoopEndWholeSource is the loop-end sentinel meaning "loop the whole
// source" in the (start-frame, end-frame) loop-region convention.
const LoopEndWholeSource int64 = -1

// SoundPlayer is a graph.Node that renders a provider through a speed
// change, loop handling, and end-of-stream detection.
type SoundPlayer struct {
	graph.Base

	mu       sync.Mutex // guards provider swap, mode switch, loop config
	prov     provider.Provider
	channels int // provider's native channel count

	state atomic.Int32
	mode  atomic.Int32
	speed atomic.Uint32 // float32 bits, clamped to [0.25, 4.0]

	loopEnabled atomic.Bool
	loopStart   atomic.Int64
	loopEnd     atomic.Int64

	resampler *resample.Linear
	stretchEngine *stretchEngine

	endedMu   sync.Mutex
	endedFns  []func()

	scratchSrc []float32 // provider-channel-count scratch, reused per Render
}

// New creates a SoundPlayer over prov, initially Stopped, unity speed,
// pitch-shift mode, looping disabled.
func New(name string, prov provider.Provider) *SoundPlayer {
	f := prov.Format()
	p := &SoundPlayer{
		Base:      graph.NewBase(name),
		prov:      prov,
		channels:  f.Channels,
		resampler: resample.NewLinear(f.Channels, 1.0),
	}
	p.speed.Store(math.Float32bits(1.0))
	p.loopEnd.Store(LoopEndWholeSource)
	se, _ := newStretchEngine(f.Channels, 1.0)
	p.stretchEngine = se
	return p
}

// OnPlaybackEnded registers a callback fired when the provider reaches EOS
// and looping does not restart it. Returns an unsubscribe function.
func (p *SoundPlayer) OnPlaybackEnded(fn func()) func() {
	p.endedMu.Lock()
	defer p.endedMu.Unlock()
	p.endedFns = append(append([]func(){}, p.endedFns...), fn)
	idx := len(p.endedFns) - 1
	return func() {
		p.endedMu.Lock()
		defer p.endedMu.Unlock()
		if idx < len(p.endedFns) {
			p.endedFns = append(p.endedFns[:idx:idx], p.endedFns[idx+1:]...)
		}
	}
}

func (p *SoundPlayer) fireEnded() {
	p.endedMu.Lock()
	fns := append([]func(){}, p.endedFns...)
	p.endedMu.Unlock()
	for _, fn := range fns {
		fn()
	}
}

// Play transitions Stopped->Playing or Paused->Playing.
func (p *SoundPlayer) Play() {
	for {
		cur := State(p.state.Load())
		if cur == StatePlaying {
			return
		}
		if p.state.CompareAndSwap(int32(cur), int32(StatePlaying)) {
			return
		}
	}
}

// Pause transitions Playing->Paused; a no-op otherwise.
func (p *SoundPlayer) Pause() {
	p.state.CompareAndSwap(int32(StatePlaying), int32(StatePaused))
}

// Stop transitions any state to Stopped and rewinds to frame 0 if seekable.
func (p *SoundPlayer) Stop() {
	p.state.Store(int32(StateStopped))
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.prov.CanSeek() {
		_ = p.prov.Seek(0)
	}
}

// State returns the current playback state.
func (p *SoundPlayer) State() State { return State(p.state.Load()) }

// Seek repositions the provider; legal in any playback state.
func (p *SoundPlayer) Seek(frame int64) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.prov.Seek(frame)
}

// SetLoop configures loop points; end == LoopEndWholeSource loops the
// entire source.
func (p *SoundPlayer) SetLoop(enabled bool, start, end int64) {
	p.loopEnabled.Store(enabled)
	p.loopStart.Store(start)
	p.loopEnd.Store(end)
}

// SetSpeed sets the playback speed, clamped to [0.25, 4.0] per the
// external-interface contract.
func (p *SoundPlayer) SetSpeed(x float32) {
	if x < 0.25 {
		x = 0.25
	}
	if x > 4.0 {
		x = 4.0
	}
	p.speed.Store(math.Float32bits(x))
	p.resampler.SetRatio(float64(x))
	p.stretchEngine.setStretch(1.0 / float64(x))
}

func (p *SoundPlayer) Speed() float32 { return math.Float32frombits(p.speed.Load()) }

// SetPlaybackMode switches between pitch-shifting and pitch-preserving
// speed change. The switch takes effect at the next render block and
// resets both engines' accumulated state to avoid a click.
func (p *SoundPlayer) SetPlaybackMode(mode PlaybackMode) {
	p.mode.Store(int32(mode))
	p.resampler.Reset()
	p.stretchEngine.reset()
}

func (p *SoundPlayer) Mode() PlaybackMode { return PlaybackMode(p.mode.Load()) }

// nextFrame reads exactly one provider frame into frame (len ==
// p.channels), handling loop wraparound at EOS or at an explicit loop-end
// boundary. Returns false when playback should stop (EOS, not looping).
func (p *SoundPlayer) nextFrame(frame []float32) bool {
	n, err := p.prov.Read(frame)
	if err != nil {
		return false
	}
	if n == 0 {
		if p.loopEnabled.Load() && p.prov.CanSeek() {
			_ = p.prov.Seek(p.loopStart.Load())
			n2, err2 := p.prov.Read(frame)
			return err2 == nil && n2 > 0
		}
		return false
	}

	if p.loopEnabled.Load() && p.prov.CanSeek() {
		end := p.loopEnd.Load()
		if end != LoopEndWholeSource && p.prov.Position() >= end {
			_ = p.prov.Seek(p.loopStart.Load())
		}
	}
	return true
}

// Render fills buf (channels-wide) with this player's speed-adjusted,
// channel-matrixed output. Silence is left untouched when Stopped/Paused
// or once EOS has fired playback-ended.
func (p *SoundPlayer) Render(buf []float32, channels int) {
	if p.State() != StatePlaying {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	frames := len(buf) / channels
	if cap(p.scratchSrc) < frames*p.channels {
		p.scratchSrc = make([]float32, frames*p.channels)
	}
	src := p.scratchSrc[:frames*p.channels]

	var written int
	if p.Mode() == ModePitchPreserve {
		written = p.stretchEngine.render(src, p.channels, p.nextFrame)
	} else {
		written = p.resampler.Process(src, p.nextFrame)
	}

	if written < frames {
		p.state.Store(int32(StateStopped))
		defer p.fireEnded()
	}

	if p.channels == channels {
		copy(buf, src[:written*p.channels])
		return
	}
	format.ChannelMatrix(src[:written*p.channels], p.channels, buf[:written*channels], channels)
}
