// Package timeline implements the composition/track/segment model:
// audio and MIDI segments placed on tracks, tempo-mapped tick<->time
// conversion, fade curves, loop wraparound, and mute/solo mixing. The
// tempo map's O(log N) lookup is built on the standard library's
// sort.Search, and the modifier-chain/volume-pan plumbing reuses
// modifier.Chain and dsp.EqualPowerPan, the same pan law graph.Mixer
// applies.
package timeline

import "sort"

// TempoMarker is one point in a tempo map: at tick Tick, the tempo
// becomes MicrosecondsPerQuarter microseconds per quarter note.
type TempoMarker struct {
	Tick                  int64
	MicrosecondsPerQuarter int64
}

// TempoMap is a sorted, piecewise-linear tick<->second mapping built from
// TempoMarkers. Each marker caches the elapsed seconds at its own tick so
// a lookup only needs a binary search plus one segment's worth of
// arithmetic, not a walk from tick 0.
type TempoMap struct {
	markers         []TempoMarker
	cumSeconds      []float64 // cumSeconds[i] = elapsed seconds at markers[i].Tick
	ticksPerQuarter int64
}

// NewTempoMap creates a tempo map with a single initial marker at tick 0
// (default 120 BPM = 500000 us/quarter).
func NewTempoMap(ticksPerQuarter int64) *TempoMap {
	return &TempoMap{
		ticksPerQuarter: ticksPerQuarter,
		markers:         []TempoMarker{{Tick: 0, MicrosecondsPerQuarter: 500000}},
		cumSeconds:      []float64{0},
	}
}

// AddMarker inserts a tempo change, keeping markers sorted by tick, and
// recomputes the cumulative-seconds cache from the insertion point on.
func (t *TempoMap) AddMarker(m TempoMarker) {
	idx := sort.Search(len(t.markers), func(i int) bool { return t.markers[i].Tick >= m.Tick })
	if idx < len(t.markers) && t.markers[idx].Tick == m.Tick {
		t.markers[idx] = m
	} else {
		t.markers = append(t.markers, TempoMarker{})
		copy(t.markers[idx+1:], t.markers[idx:])
		t.markers[idx] = m
		t.cumSeconds = append(t.cumSeconds, 0)
	}
	t.rebuildCumSeconds(idx)
}

func (t *TempoMap) rebuildCumSeconds(from int) {
	if from == 0 {
		from = 1
	}
	for i := from; i < len(t.markers); i++ {
		prev := t.markers[i-1]
		seconds := prev.secondsPerTick(t.ticksPerQuarter)
		t.cumSeconds[i] = t.cumSeconds[i-1] + float64(t.markers[i].Tick-prev.Tick)*seconds
	}
}

// markerIndexBefore finds the index of the last marker at or before tick,
// via binary search — O(log N).
func (t *TempoMap) markerIndexBefore(tick int64) int {
	idx := sort.Search(len(t.markers), func(i int) bool { return t.markers[i].Tick > tick }) - 1
	if idx < 0 {
		idx = 0
	}
	return idx
}

// secondsPerTick returns the duration of one tick at the given marker's
// tempo: microseconds-per-quarter / (ticks-per-quarter * 1e6).
func (m TempoMarker) secondsPerTick(ticksPerQuarter int64) float64 {
	return float64(m.MicrosecondsPerQuarter) / (float64(ticksPerQuarter) * 1e6)
}

// TickToSeconds converts an absolute tick to elapsed seconds since tick 0.
func (t *TempoMap) TickToSeconds(tick int64) float64 {
	idx := t.markerIndexBefore(tick)
	m := t.markers[idx]
	return t.cumSeconds[idx] + float64(tick-m.Tick)*m.secondsPerTick(t.ticksPerQuarter)
}

// SecondsToTick converts elapsed seconds since tick 0 to the
// corresponding tick, the inverse of TickToSeconds.
func (t *TempoMap) SecondsToTick(seconds float64) int64 {
	idx := sort.Search(len(t.markers), func(i int) bool { return t.cumSeconds[i] > seconds }) - 1
	if idx < 0 {
		idx = 0
	}
	m := t.markers[idx]
	remaining := seconds - t.cumSeconds[idx]
	return m.Tick + int64(remaining/m.secondsPerTick(t.ticksPerQuarter))
}
