package timeline

// Composition is the top-level timeline container: a sample rate/channel
// count, a shared tempo map, and a set of audio and MIDI tracks, with
// operations to add/remove tracks, render a time range, and compute the
// overall duration.
type Composition struct {
	SampleRate float64
	Channels   int
	Tempo      *TempoMap

	tracks     []*Track
	midiTracks []*MidiTrack
}

// NewComposition creates an empty composition with a fresh 480-tick
// tempo map (the common MIDI ticks-per-quarter default).
func NewComposition(sampleRate float64, channels int) *Composition {
	return &Composition{SampleRate: sampleRate, Channels: channels, Tempo: NewTempoMap(480)}
}

// AddTrack appends an audio track.
func (c *Composition) AddTrack(t *Track) { c.tracks = append(c.tracks, t) }

// AddMidiTrack appends a MIDI track.
func (c *Composition) AddMidiTrack(t *MidiTrack) { c.midiTracks = append(c.midiTracks, t) }

// RemoveTrack removes the first audio or MIDI track with the given name.
func (c *Composition) RemoveTrack(name string) bool {
	for i, t := range c.tracks {
		if t.Name == name {
			c.tracks = append(c.tracks[:i], c.tracks[i+1:]...)
			return true
		}
	}
	for i, t := range c.midiTracks {
		if t.Name == name {
			c.midiTracks = append(c.midiTracks[:i], c.midiTracks[i+1:]...)
			return true
		}
	}
	return false
}

// Render mixes every audio track's contribution to [t0, t1) into dst,
// honoring solo (any soloed track mutes every non-soloed track), and
// drives every MIDI track's scheduled events in the same window.
func (c *Composition) Render(dst []float32, t0, t1 float64) {
	soloActive := false
	for _, t := range c.tracks {
		if t.Soloed {
			soloActive = true
			break
		}
	}
	for _, t := range c.tracks {
		t.Render(dst, c.Channels, c.SampleRate, t0, t1, soloActive)
	}
	for _, mt := range c.midiTracks {
		mt.Render(t0, t1)
	}
}

// CalculateDuration returns the composition's total span: the latest
// timeline end across every audio and MIDI segment on every track.
func (c *Composition) CalculateDuration() float64 {
	var maxEnd float64
	for _, t := range c.tracks {
		for _, seg := range t.Segments {
			end := seg.TimelineStart + seg.Duration
			if end > maxEnd {
				maxEnd = end
			}
		}
	}
	for _, mt := range c.midiTracks {
		for _, seg := range mt.Segments {
			end := seg.TimelineStart + seg.Duration
			if end > maxEnd {
				maxEnd = end
			}
		}
	}
	return maxEnd
}
