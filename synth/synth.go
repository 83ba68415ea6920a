// Package synth implements the polyphonic synthesizer: 16 MIDI
// channels, each with a voice pool and an instrument mapping table,
// voice stealing, ADSR envelopes, unison detune/pan, filter modulation,
// and an MPE expression mode. Grounded on
// _examples/other_examples/justyntemme-vst3go__voice.go's voice model,
// generalized here to a multi-channel polyphonic engine.
package synth

import (
	"math"
	"sync"

	"github.com/shaban/audioengine/midi"
)

const numChannels = 16

// defaultMaxVoices is the per-channel voice pool size before stealing
// kicks in.
const defaultMaxVoices = 16

// Channel owns one MIDI channel's voice pool, instrument, pitch-bend,
// and sustain-pedal state.
type Channel struct {
	Instrument *Instrument
	MaxVoices  int

	channelBend  float64 // semitones
	sustainHeld  bool

	voices []*Voice
}

func newChannel() *Channel {
	return &Channel{Instrument: DefaultInstrument(), MaxVoices: defaultMaxVoices}
}

// DefaultInstrument returns a bank with a single default mapping
// spanning the whole note/velocity range.
func DefaultInstrument() *Instrument {
	in := NewInstrument("default")
	in.AddMapping(0, 127, 0, 127, DefaultVoiceDefinition())
	return in
}

// Synth is the 16-channel polyphonic synthesizer, driven by feeding it
// MIDI messages through ProcessMessage.
type Synth struct {
	SampleRate float64

	mu         sync.Mutex
	channels   [numChannels]*Channel
	mpeEnabled bool
	mpeVoices  map[int]*Voice // channel -> voice, MPE mode only (one note per channel)
}

// New creates a Synth at the given sample rate with default instruments
// on every channel.
func New(sampleRate float64) *Synth {
	s := &Synth{SampleRate: sampleRate, mpeVoices: make(map[int]*Voice)}
	for i := range s.channels {
		s.channels[i] = newChannel()
	}
	return s
}

// SetInstrument assigns an instrument bank to a channel (0-based).
func (s *Synth) SetInstrument(channel int, in *Instrument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if channel < 0 || channel >= numChannels {
		return
	}
	s.channels[channel].Instrument = in
}

// SetMPEEnabled toggles MPE mode, sending an implicit All-Notes-Off on
// every transition.
func (s *Synth) SetMPEEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mpeEnabled == enabled {
		return
	}
	s.allNotesOffLocked()
	s.mpeEnabled = enabled
}

// ActiveVoiceCount reports how many voices across all channels have not
// yet finished their release.
func (s *Synth) ActiveVoiceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, ch := range s.channels {
		for _, v := range ch.voices {
			if v.Active() {
				n++
			}
		}
	}
	return n
}

// ProcessMessage dispatches an incoming MIDI message to the appropriate
// channel/voice handling.
func (s *Synth) ProcessMessage(m midi.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch m.Command() {
	case midi.CommandNoteOn:
		if m.Velocity() == 0 {
			s.noteOffLocked(m.Channel(), m.Note())
		} else {
			s.noteOnLocked(m.Channel(), m.Note(), m.Velocity())
		}
	case midi.CommandNoteOff:
		s.noteOffLocked(m.Channel(), m.Note())
	case midi.CommandPitchBend:
		s.pitchBendLocked(m.Channel(), m.PitchBendValue())
	case midi.CommandChannelPressure:
		s.channelPressureLocked(m.Channel(), int(m.Data1))
	case midi.CommandControlChange:
		s.controlChangeLocked(m.Channel(), int(m.Data1), int(m.Data2))
	}
}

func (s *Synth) noteOnLocked(channel, note, velocity int) {
	if channel < 0 || channel >= numChannels {
		return
	}
	ch := s.channels[channel]
	def := ch.Instrument.Resolve(note, velocity)
	freq := 440 * math.Pow(2, float64(note-69)/12)
	v := NewVoice(note, velocity, freq, s.SampleRate, def)
	v.SetChannelBend(ch.channelBend)

	if len(ch.voices) >= ch.MaxVoices {
		s.stealOldestReleasing(ch)
	}
	ch.voices = append(ch.voices, v)

	if s.mpeEnabled {
		s.mpeVoices[channel] = v
	}
}

// stealOldestReleasing removes the oldest voice currently in release, or
// failing that the oldest voice overall.
func (s *Synth) stealOldestReleasing(ch *Channel) {
	bestIdx, bestAge := -1, int64(-1)
	for i, v := range ch.voices {
		if v.amp.stage == StageRelease && v.age > bestAge {
			bestIdx, bestAge = i, v.age
		}
	}
	if bestIdx == -1 {
		for i, v := range ch.voices {
			if v.age > bestAge {
				bestIdx, bestAge = i, v.age
			}
		}
	}
	if bestIdx >= 0 {
		ch.voices = append(ch.voices[:bestIdx], ch.voices[bestIdx+1:]...)
	}
}

func (s *Synth) noteOffLocked(channel, note int) {
	if channel < 0 || channel >= numChannels {
		return
	}
	ch := s.channels[channel]
	for _, v := range ch.voices {
		if v.Note == note {
			v.NoteOff()
		}
	}
	if s.mpeEnabled {
		if v, ok := s.mpeVoices[channel]; ok && v.Note == note {
			delete(s.mpeVoices, channel)
		}
	}
}

func (s *Synth) pitchBendLocked(channel, value int) {
	semitones := (float64(value) - 8192) / 8192 * 2 // +-2 semitone default range
	if channel < 0 || channel >= numChannels {
		return
	}
	if s.mpeEnabled {
		if v, ok := s.mpeVoices[channel]; ok {
			v.SetPerNoteBend(semitones)
			return
		}
	}
	ch := s.channels[channel]
	ch.channelBend = semitones
	for _, v := range ch.voices {
		v.SetChannelBend(semitones)
	}
}

func (s *Synth) channelPressureLocked(channel, pressure int) {
	if channel < 0 || channel >= numChannels {
		return
	}
	if s.mpeEnabled {
		if v, ok := s.mpeVoices[channel]; ok {
			v.SetPerNotePressure(float64(pressure) / 127)
		}
	}
}

func (s *Synth) controlChangeLocked(channel, controller, value int) {
	if channel < 0 || channel >= numChannels {
		return
	}
	ch := s.channels[channel]
	switch controller {
	case 64: // sustain pedal
		held := value >= 64
		wasHeld := ch.sustainHeld
		ch.sustainHeld = held
		for _, v := range ch.voices {
			v.SetSustained(held)
		}
		if wasHeld && !held {
			for _, v := range ch.voices {
				if !v.Active() {
					continue
				}
				v.sustained = false
				v.release()
			}
		}
	case 74: // MPE timbre
		if s.mpeEnabled {
			if v, ok := s.mpeVoices[channel]; ok {
				v.SetPerNoteTimbre(float64(value) / 127)
			}
		}
	}
}

func (s *Synth) allNotesOffLocked() {
	for _, ch := range s.channels {
		for _, v := range ch.voices {
			v.release()
		}
	}
	s.mpeVoices = make(map[int]*Voice)
}

// Render mixes every active voice across all channels into buf
// (interleaved stereo), pruning finished voices afterward.
func (s *Synth) Render(buf []float32, channels int) {
	if channels != 2 {
		return // voices render stereo internally; non-stereo output is out of scope
	}
	frames := len(buf) / 2

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.channels {
		for _, v := range ch.voices {
			v.Render(buf, frames)
		}
		s.pruneFinished(ch)
	}
}

func (s *Synth) pruneFinished(ch *Channel) {
	kept := ch.voices[:0]
	for _, v := range ch.voices {
		if v.Active() {
			kept = append(kept, v)
		}
	}
	ch.voices = kept
}
