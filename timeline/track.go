package timeline

import (
	"sync"

	"github.com/shaban/audioengine/dsp"
	"github.com/shaban/audioengine/midi"
	"github.com/shaban/audioengine/modifier"
)

// Track holds a set of overlapping audio segments and mixes them with a
// shared modifier chain, volume, and pan, honoring mute/solo.
type Track struct {
	Name    string
	Volume  float32
	Pan     float32
	Muted   bool
	Soloed  bool

	Segments  []*AudioSegment
	Modifiers *modifier.Chain

	scratchMu sync.Mutex
	scratch   []float32
}

// NewTrack creates a track with unity volume/pan.
func NewTrack(name string) *Track {
	return &Track{Name: name, Volume: 1.0, Pan: 0.5, Modifiers: modifier.NewChain()}
}

// rentScratch returns a []float32 of at least n, growing the track's own
// scratch buffer in place rather than allocating fresh on every render.
func (t *Track) rentScratch(n int) []float32 {
	t.scratchMu.Lock()
	defer t.scratchMu.Unlock()
	if cap(t.scratch) < n {
		t.scratch = make([]float32, n)
	}
	buf := t.scratch[:n]
	for i := range buf {
		buf[i] = 0
	}
	return buf
}

// Render sums every overlapping segment's contribution into a
// track-local scratch buffer, applies the track's modifier chain and
// volume/pan, and accumulates into dst. soloActive tells the track
// whether any track in the composition is soloed (muting it if it isn't
// the soloed one).
func (t *Track) Render(dst []float32, channels int, sampleRate float64, t0, t1 float64, soloActive bool) {
	if t.Muted || (soloActive && !t.Soloed) {
		return
	}
	frames := int((t1 - t0) * sampleRate)
	scratch := t.rentScratch(frames * channels)
	for _, seg := range t.Segments {
		seg.Render(scratch, channels, sampleRate, t0, t1)
	}
	t.Modifiers.Process(scratch, channels)

	var l, r float64 = 1, 1
	if channels == 2 {
		l, r = dsp.EqualPowerPan(float64(t.Pan))
	}
	for i := range scratch {
		ch := i % channels
		gain := t.Volume
		if channels == 2 && ch == 0 {
			gain *= float32(l)
		} else if channels == 2 && ch == 1 {
			gain *= float32(r)
		}
		dst[i] += scratch[i] * gain
	}
}

// MidiTrack holds MIDI segments and forwards their scheduled events to a
// destination.
type MidiTrack struct {
	Name        string
	Segments    []*MidiSegment
	Destination midi.Destination
	Tempo       *TempoMap
}

// NewMidiTrack creates a MIDI track bound to a tempo map and destination.
func NewMidiTrack(name string, tempo *TempoMap, dest midi.Destination) *MidiTrack {
	return &MidiTrack{Name: name, Tempo: tempo, Destination: dest}
}

// Render converts [t0, t1) to a tick range via the tempo map, gathers
// each overlapping segment's events in that range, runs them through the
// segment's MIDI processor chain (SysEx bypasses it), and forwards the
// result to the destination.
func (mt *MidiTrack) Render(t0, t1 float64) {
	for _, seg := range mt.Segments {
		segStart := seg.TimelineStart
		segEnd := seg.TimelineStart + seg.Duration
		if t1 <= segStart || t0 >= segEnd {
			continue
		}
		segLo := mt.Tempo.SecondsToTick(t0 - segStart)
		segHi := mt.Tempo.SecondsToTick(t1 - segStart)
		for _, ev := range seg.EventsInTickRange(segLo, segHi) {
			if ev.Message.IsSysEx() {
				if mt.Destination != nil {
					_ = mt.Destination.Send(ev.Message)
				}
				continue
			}
			for _, m := range midi.ApplyProcessors(seg.Processors, ev.Message) {
				if mt.Destination != nil {
					_ = mt.Destination.Send(m)
				}
			}
		}
	}
}

