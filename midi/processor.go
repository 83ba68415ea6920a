package midi

import (
	"math/rand"
)

// Processor transforms or filters a Message as it passes through a
// Route. keep=false drops the message (and, for processors that expand
// one message into several, the route delivers the returned Message then
// asks the processor for any extras via Expand).
type Processor interface {
	Name() string
	Process(m Message) (out Message, keep bool)
}

// Expander is implemented by processors that can turn one input message
// into more than one output message (arpeggiator, harmonizer).
type Expander interface {
	Expand(m Message) []Message
}

// Transpose shifts note numbers by a fixed amount, clamping into the
// valid 0..127 MIDI note range rather than wrapping.
type Transpose struct {
	Semitones int
}

func (t *Transpose) Name() string { return "transpose" }

func (t *Transpose) Process(m Message) (Message, bool) {
	if m.Command() != CommandNoteOn && m.Command() != CommandNoteOff {
		return m, true
	}
	n := int(m.Data1) + t.Semitones
	if n < 0 {
		n = 0
	}
	if n > 127 {
		n = 127
	}
	m.Data1 = byte(n)
	return m, true
}

// ChannelFilter passes through only messages on the given channel.
type ChannelFilter struct {
	Channel int
}

func (f *ChannelFilter) Name() string { return "channel_filter" }

func (f *ChannelFilter) Process(m Message) (Message, bool) {
	if m.Command() == CommandSystem {
		return m, true
	}
	return m, m.Channel() == f.Channel
}

// VelocityScale multiplies Note On velocity by Factor, clamping to 1..127
// (velocity 0 is reserved for Note Off semantics).
type VelocityScale struct {
	Factor float64
}

func (v *VelocityScale) Name() string { return "velocity_scale" }

func (v *VelocityScale) Process(m Message) (Message, bool) {
	if m.Command() != CommandNoteOn || m.Data2 == 0 {
		return m, true
	}
	scaled := int(float64(m.Data2) * v.Factor)
	if scaled < 1 {
		scaled = 1
	}
	if scaled > 127 {
		scaled = 127
	}
	m.Data2 = byte(scaled)
	return m, true
}

// Randomizer jitters Note On velocity by up to +-Amount (0..127 scale),
// clamped into the valid range. Mirrors VelocityScale's clamping idiom.
type Randomizer struct {
	Amount int
	Rand   *rand.Rand // nil uses the package-level source
}

func (r *Randomizer) Name() string { return "randomizer" }

func (r *Randomizer) Process(m Message) (Message, bool) {
	if m.Command() != CommandNoteOn || m.Data2 == 0 || r.Amount == 0 {
		return m, true
	}
	jitter := r.intn(2*r.Amount+1) - r.Amount
	v := int(m.Data2) + jitter
	if v < 1 {
		v = 1
	}
	if v > 127 {
		v = 127
	}
	m.Data2 = byte(v)
	return m, true
}

func (r *Randomizer) intn(n int) int {
	if n <= 0 {
		return 0
	}
	if r.Rand != nil {
		return r.Rand.Intn(n)
	}
	return rand.Intn(n)
}

// Harmonizer adds one Note On/Off at each interval (in semitones) above
// the incoming note alongside the original, implemented as an Expander so
// a single Note On fans out to a chord.
type Harmonizer struct {
	Intervals []int
}

func (h *Harmonizer) Name() string { return "harmonizer" }

func (h *Harmonizer) Process(m Message) (Message, bool) { return m, true }

func (h *Harmonizer) Expand(m Message) []Message {
	if m.Command() != CommandNoteOn && m.Command() != CommandNoteOff {
		return nil
	}
	extras := make([]Message, 0, len(h.Intervals))
	for _, iv := range h.Intervals {
		n := int(m.Data1) + iv
		if n < 0 || n > 127 {
			continue
		}
		extra := m
		extra.Data1 = byte(n)
		extras = append(extras, extra)
	}
	return extras
}

// Arpeggiator holds notes currently down and emits them one at a time on
// each Tick call, cycling through the held set. A fuller chord-hold
// spanning multiple channels is left to the caller composing multiple
// Arpeggiators via ChannelFilter. Wired through Tick rather than through
// Process, since arpeggiation is time-driven, not message-driven.
type Arpeggiator struct {
	held    []int
	channel int
	nextIdx int
}

func NewArpeggiator(channel int) *Arpeggiator { return &Arpeggiator{channel: channel} }

func (a *Arpeggiator) Name() string { return "arpeggiator" }

func (a *Arpeggiator) Process(m Message) (Message, bool) {
	switch {
	case m.IsNoteOn():
		a.held = append(a.held, m.Note())
		return m, false
	case m.IsNoteOff():
		for i, n := range a.held {
			if n == m.Note() {
				a.held = append(a.held[:i], a.held[i+1:]...)
				break
			}
		}
		return m, false
	default:
		return m, true
	}
}

// Tick returns the next note in the held sequence to sound, or false if
// nothing is held.
func (a *Arpeggiator) Tick() (Message, bool) {
	if len(a.held) == 0 {
		return Message{}, false
	}
	note := a.held[a.nextIdx%len(a.held)]
	a.nextIdx++
	return NoteOn(a.channel, note, 100), true
}
