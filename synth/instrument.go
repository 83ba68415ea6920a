package synth

// UnisonLayer describes one oscillator within a voice's unison stack:
// a detune ratio applied multiplicatively to the base frequency, and a
// stereo pan position.
type UnisonLayer struct {
	DetuneRatio float64
	Pan         float32
}

// VoiceDefinition is what an instrument's mapping table resolves a
// (note, velocity) pair to: the unison layer set and the optional filter
// + filter envelope.
type VoiceDefinition struct {
	Waveform    Waveform
	Unison      []UnisonLayer
	Amp         ADSR
	FilterOn    bool
	FilterEnv   ADSR
}

// mappingEntry is one (note-range x velocity-range) -> definition row in
// an instrument's mapping table.
type mappingEntry struct {
	noteLo, noteHi         int
	velocityLo, velocityHi int
	def                    VoiceDefinition
}

// Instrument is a bank of voice definitions selected by note and
// velocity range.
type Instrument struct {
	Name    string
	entries []mappingEntry
}

// NewInstrument creates an empty instrument bank.
func NewInstrument(name string) *Instrument {
	return &Instrument{Name: name}
}

// AddMapping registers a (note-range, velocity-range) -> definition row.
// Later-added entries take priority when ranges overlap.
func (in *Instrument) AddMapping(noteLo, noteHi, velocityLo, velocityHi int, def VoiceDefinition) {
	in.entries = append(in.entries, mappingEntry{noteLo, noteHi, velocityLo, velocityHi, def})
}

// Resolve looks up the voice definition for (note, velocity), preferring
// the most recently added matching entry, falling back to a default
// single-oscillator sine definition if the bank is empty or has no match.
func (in *Instrument) Resolve(note, velocity int) VoiceDefinition {
	for i := len(in.entries) - 1; i >= 0; i-- {
		e := in.entries[i]
		if note >= e.noteLo && note <= e.noteHi && velocity >= e.velocityLo && velocity <= e.velocityHi {
			return e.def
		}
	}
	return DefaultVoiceDefinition()
}

// DefaultVoiceDefinition is a single-sine-oscillator patch with a modest
// ADSR, used when an instrument's mapping table has no matching entry.
func DefaultVoiceDefinition() VoiceDefinition {
	return VoiceDefinition{
		Waveform: WaveSine,
		Unison:   []UnisonLayer{{DetuneRatio: 1.0, Pan: 0.5}},
		Amp:      ADSR{AttackSeconds: 0.01, DecaySeconds: 0.1, SustainLevel: 0.8, ReleaseSeconds: 0.25},
	}
}
