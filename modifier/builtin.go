package modifier

import (
	"math"
	"sync/atomic"

	"github.com/shaban/audioengine/dsp/biquad"
)

// Gain is a simple linear-gain block modifier, useful as a smoke-test
// modifier and as the building block send/aux paths reach for.
type Gain struct {
	Base
	gain atomic.Uint32 // float32 bits, so control threads can update it lock-free
}

// NewGain creates a Gain modifier at unity.
func NewGain(name string) *Gain {
	g := &Gain{Base: NewBase(name)}
	g.SetGain(1.0)
	return g
}

// SetGain updates the gain from a control thread; the next ProcessBlock
// call observes it, per the modifier contract's atomic-load guidance.
func (g *Gain) SetGain(v float32) {
	g.gain.Store(math.Float32bits(v))
}

func (g *Gain) Gain() float32 {
	return math.Float32frombits(g.gain.Load())
}

func (g *Gain) ProcessBlock(buf []float32, channels int) {
	v := g.Gain()
	if v == 1.0 {
		return
	}
	for i := range buf {
		buf[i] *= v
	}
}

// Biquad wraps a dsp/biquad.Filter as a chain-installable modifier.
type Biquad struct {
	Base
	filter *biquad.Filter
}

// NewBiquad creates a Biquad modifier over an already-designed filter.
func NewBiquad(name string, filter *biquad.Filter) *Biquad {
	return &Biquad{Base: NewBase(name), filter: filter}
}

func (b *Biquad) ProcessBlock(buf []float32, channels int) {
	b.filter.ProcessBlock(buf, channels)
}

// PeakLevel is an Analyzer publishing the last observed per-channel peak
// absolute sample value. Callers read Peaks() from a control thread; the
// audio thread only ever writes through atomics, matching the DSP kernel's
// audio-thread-never-blocks discipline.
type PeakLevel struct {
	name  string
	peaks []atomic.Uint32 // float32 bits per channel
}

// NewPeakLevel creates a peak analyzer for the given channel count.
func NewPeakLevel(name string, channels int) *PeakLevel {
	return &PeakLevel{name: name, peaks: make([]atomic.Uint32, channels)}
}

func (p *PeakLevel) Name() string { return p.name }

func (p *PeakLevel) Observe(buf []float32, channels int) {
	if channels != len(p.peaks) {
		return
	}
	frames := len(buf) / channels
	for c := 0; c < channels; c++ {
		var peak float32
		for i := 0; i < frames; i++ {
			v := buf[i*channels+c]
			if v < 0 {
				v = -v
			}
			if v > peak {
				peak = v
			}
		}
		p.peaks[c].Store(math.Float32bits(peak))
	}
}

// Peak returns the last observed peak for channel c.
func (p *PeakLevel) Peak(c int) float32 {
	if c < 0 || c >= len(p.peaks) {
		return 0
	}
	return math.Float32frombits(p.peaks[c].Load())
}
