// Package modifier defines the audio-thread processing contracts every
// graph node, sound player, and timeline segment chains together: block
// modifiers that transform a buffer in place, and analyzers that observe a
// buffer and publish derived state. Both run inline on the audio callback,
// so neither may block, allocate in steady state, or take a control-thread
// lock.
package modifier

import "sync"

// Modifier processes an interleaved buffer in place. Implementations that
// only need per-sample processing (a biquad, a soft clipper) can still
// satisfy this by looping internally; the contract only fixes the call
// shape the chain drives.
type Modifier interface {
	Name() string
	Enabled() bool
	SetEnabled(bool)
	ProcessBlock(buf []float32, channels int)
}

// Analyzer observes a buffer without modifying it and publishes whatever
// derived state (peak level, spectrum, RMS) it computes through its own
// getters/events. Observe runs after the modifier chain, on the same
// buffer that will be summed into the parent's output.
type Analyzer interface {
	Name() string
	Observe(buf []float32, channels int)
}

// Base gives a Modifier the enabled flag every implementation needs,
// mirroring PluginInstance.IsActive from the plugin-chain teacher: a plain
// bool guarded by the chain's copy-on-write discipline rather than its own
// lock, since only one goroutine (the audio thread) ever reads or flips it
// through SetEnabled between render calls.
type Base struct {
	name    string
	enabled bool
}

// NewBase creates a Base modifier scaffold, enabled by default.
func NewBase(name string) Base {
	return Base{name: name, enabled: true}
}

func (b *Base) Name() string       { return b.name }
func (b *Base) Enabled() bool      { return b.enabled }
func (b *Base) SetEnabled(v bool)  { b.enabled = v }

// Chain is an ordered, copy-on-write list of Modifiers. Writers (control
// threads) take mu and install a new slice; the audio thread holds the read
// lock only long enough to load the current slice, grounded on
// PluginChain's RWMutex-guarded instances slice from the plugin-chain
// teacher, generalized from plugin instances to the Modifier contract.
type Chain struct {
	mu    sync.RWMutex
	items []Modifier
}

// NewChain creates an empty modifier chain.
func NewChain() *Chain {
	return &Chain{}
}

// Add appends m to the end of the chain.
func (c *Chain) Add(m Modifier) {
	c.mu.Lock()
	defer c.mu.Unlock()
	next := make([]Modifier, len(c.items)+1)
	copy(next, c.items)
	next[len(c.items)] = m
	c.items = next
}

// InsertAt inserts m at position, matching PluginChain.AddPlugin's
// position-clamped insert semantics.
func (c *Chain) InsertAt(m Modifier, position int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if position < 0 {
		position = 0
	}
	if position > len(c.items) {
		position = len(c.items)
	}
	next := make([]Modifier, len(c.items)+1)
	copy(next, c.items[:position])
	next[position] = m
	copy(next[position+1:], c.items[position:])
	c.items = next
}

// Remove removes the first Modifier with the given name.
func (c *Chain) Remove(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, m := range c.items {
		if m.Name() == name {
			next := make([]Modifier, len(c.items)-1)
			copy(next, c.items[:i])
			copy(next[i:], c.items[i+1:])
			c.items = next
			return true
		}
	}
	return false
}

// Snapshot returns the current slice of modifiers without copying; callers
// must treat it as read-only, which holds because writers always allocate
// a fresh slice rather than mutating in place.
func (c *Chain) Snapshot() []Modifier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.items
}

// Process runs every enabled modifier in order over buf.
func (c *Chain) Process(buf []float32, channels int) {
	for _, m := range c.Snapshot() {
		if m.Enabled() {
			m.ProcessBlock(buf, channels)
		}
	}
}

// AnalyzerSet is the analyzer analogue of Chain: a copy-on-write list, but
// unordered since analyzers don't transform the signal for one another.
type AnalyzerSet struct {
	mu    sync.RWMutex
	items []Analyzer
}

// NewAnalyzerSet creates an empty analyzer set.
func NewAnalyzerSet() *AnalyzerSet {
	return &AnalyzerSet{}
}

func (a *AnalyzerSet) Add(an Analyzer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	next := make([]Analyzer, len(a.items)+1)
	copy(next, a.items)
	next[len(a.items)] = an
	a.items = next
}

func (a *AnalyzerSet) Remove(name string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	for i, an := range a.items {
		if an.Name() == name {
			next := make([]Analyzer, len(a.items)-1)
			copy(next, a.items[:i])
			copy(next[i:], a.items[i+1:])
			a.items = next
			return true
		}
	}
	return false
}

func (a *AnalyzerSet) Snapshot() []Analyzer {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.items
}

// Observe fans buf out to every registered analyzer.
func (a *AnalyzerSet) Observe(buf []float32, channels int) {
	for _, an := range a.Snapshot() {
		an.Observe(buf, channels)
	}
}
