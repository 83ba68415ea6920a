// Package graph implements the pull-based audio component graph: every
// node renders into a buffer when pulled by its parent, and the Mixer
// fans that pull out to a readers-writer-locked, copy-on-write child list,
// generalizing the channel/connection model of
// _examples/shaban-macaudio/channels.go and channel_impl.go from a
// native-AVFoundation topology into pure-Go pull rendering.
package graph

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/shaban/audioengine/dsp"
	"github.com/shaban/audioengine/modifier"
)

// Node is every renderable graph component: a Mixer, a SoundPlayer, a
// Synth output bus. Render fills buf (interleaved, channels-wide) with
// this node's contribution for the block; nodes that are disabled render
// silence and must not touch buf.
type Node interface {
	Name() string
	Enabled() bool
	SetEnabled(bool)
	Volume() float32
	SetVolume(float32)
	Pan() float32
	SetPan(float32)
	Modifiers() *modifier.Chain
	Analyzers() *modifier.AnalyzerSet
	Render(buf []float32, channels int)
}

// Base gives concrete node types the enabled/volume/pan/name/chain state
// every Node needs. Volume and pan are stored as atomic float32 bits so a
// control thread can update them without the audio thread ever blocking,
// matching the "atomic-load semantics" the modifier contract requires of
// parameters shared across threads.
type Base struct {
	name      string
	enabled   atomic.Bool
	volume    atomic.Uint32
	pan       atomic.Uint32
	modifiers *modifier.Chain
	analyzers *modifier.AnalyzerSet
}

// NewBase creates a Base node scaffold: enabled, unity volume, centered pan.
func NewBase(name string) Base {
	b := Base{
		name:      name,
		modifiers: modifier.NewChain(),
		analyzers: modifier.NewAnalyzerSet(),
	}
	b.enabled.Store(true)
	b.volume.Store(math.Float32bits(1.0))
	b.pan.Store(math.Float32bits(0.5))
	return b
}

func (b *Base) Name() string    { return b.name }
func (b *Base) Enabled() bool   { return b.enabled.Load() }
func (b *Base) SetEnabled(v bool) { b.enabled.Store(v) }

func (b *Base) Volume() float32     { return math.Float32frombits(b.volume.Load()) }
func (b *Base) SetVolume(v float32) { b.volume.Store(math.Float32bits(v)) }

func (b *Base) Pan() float32     { return math.Float32frombits(b.pan.Load()) }
func (b *Base) SetPan(v float32) { b.pan.Store(math.Float32bits(v)) }

func (b *Base) Modifiers() *modifier.Chain        { return b.modifiers }
func (b *Base) Analyzers() *modifier.AnalyzerSet  { return b.analyzers }

// ApplyVolumePan scales buf by volume, applying equal-power pan across a
// stereo pair. A node rendering more than two channels (a SurroundPlayer)
// has already distributed its signal across speakers itself — re-panning
// channels 0/1 here would fight that placement — so beyond stereo only
// volume is applied uniformly.
func ApplyVolumePan(buf []float32, channels int, volume, pan float32) {
	if channels == 2 {
		l, r := dsp.EqualPowerPan(float64(pan))
		frames := len(buf) / 2
		for i := 0; i < frames; i++ {
			buf[i*2] *= float32(l) * volume
			buf[i*2+1] *= float32(r) * volume
		}
		return
	}
	for i := range buf {
		buf[i] *= volume
	}
}

// Mixer is a Node that sums its enabled children. The child list is
// guarded by a readers-writer lock: Render (audio thread) takes RLock only
// long enough to snapshot the slice pointer; AddComponent/RemoveComponent
// (control thread) take the write lock and install a freshly allocated
// slice, so render never blocks behind a structural edit and a structural
// edit never blocks behind a slow render.
type Mixer struct {
	Base
	mu       sync.RWMutex
	children []Node

	scratchMu sync.Mutex
	scratch   []float32
}

// NewMixer creates an empty mixer.
func NewMixer(name string) *Mixer {
	return &Mixer{Base: NewBase(name)}
}

// AddComponent attaches a child node.
func (m *Mixer) AddComponent(n Node) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := make([]Node, len(m.children)+1)
	copy(next, m.children)
	next[len(m.children)] = n
	m.children = next
}

// RemoveComponent detaches the child with the given name, reporting
// whether it was found.
func (m *Mixer) RemoveComponent(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, c := range m.children {
		if c.Name() == name {
			next := make([]Node, len(m.children)-1)
			copy(next, m.children[:i])
			copy(next[i:], m.children[i+1:])
			m.children = next
			return true
		}
	}
	return false
}

// Components returns a snapshot of the current children, safe to range
// over without holding any lock (writers never mutate in place).
func (m *Mixer) Components() []Node {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.children
}

// scratchBuffer rents a []float32 of at least n from the mixer's own pool.
// Only ever called from the audio thread inside Render, so a plain mutex
// (not a lock-free pool) is fine: there is no contention, only reentrancy
// safety across nested mixers sharing no state.
func (m *Mixer) scratchBuffer(n int) []float32 {
	m.scratchMu.Lock()
	defer m.scratchMu.Unlock()
	if cap(m.scratch) < n {
		m.scratch = make([]float32, n)
	}
	buf := m.scratch[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Render pulls every enabled child into a rented scratch buffer, applies
// the child's modifier chain and analyzers, scales by volume and pans
// equal-power, and accumulates into buf: an empty or fully-disabled mixer
// renders silence, and each child's contribution is volume/pan-scaled
// before summation.
func (m *Mixer) Render(buf []float32, channels int) {
	if !m.Enabled() {
		return
	}
	scratch := m.scratchBuffer(len(buf))
	for _, child := range m.Components() {
		if !child.Enabled() {
			continue
		}
		for i := range scratch {
			scratch[i] = 0
		}
		child.Render(scratch, channels)
		child.Modifiers().Process(scratch, channels)
		child.Analyzers().Observe(scratch, channels)
		ApplyVolumePan(scratch, channels, child.Volume(), child.Pan())
		for i := range buf {
			buf[i] += scratch[i]
		}
	}
	m.Modifiers().Process(buf, channels)
	m.Analyzers().Observe(buf, channels)
}
