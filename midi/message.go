// Package midi implements the MIDI message model, router, and processor
// chain: messages carry status/data bytes plus a timestamp, routes
// fan a source out to destinations through an ordered processor chain,
// and a handful of built-in processors cover the common transformations.
// Grounded on _examples/other_examples/chase3718-lou-guitar__main.go's use
// of gitlab.com/gomidi/midi/v2 for message decoding and
// _examples/other_examples/whyrusleeping-synth__main.go's use of
// github.com/rakyll/portmidi for the physical port backend.
package midi

import (
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
)

// Command is the high nibble of a channel-voice status byte.
type Command byte

const (
	CommandNoteOff         Command = 0x8
	CommandNoteOn          Command = 0x9
	CommandPolyPressure    Command = 0xA
	CommandControlChange   Command = 0xB
	CommandProgramChange   Command = 0xC
	CommandChannelPressure Command = 0xD
	CommandPitchBend       Command = 0xE
	CommandSystem          Command = 0xF
)

// Message is a single MIDI event: a status byte, up to two data bytes,
// and the time it was received or is scheduled to be sent. SysEx messages
// carry their payload in Raw instead of Data1/Data2.
type Message struct {
	Status    byte
	Data1     byte
	Data2     byte
	Raw       []byte // non-nil only for SysEx (status 0xF0)
	Timestamp time.Time
}

// NoteOn builds a channel-voice Note On message.
func NoteOn(channel, note, velocity int) Message {
	return Message{Status: byte(CommandNoteOn)<<4 | byte(channel&0xF), Data1: byte(note), Data2: byte(velocity)}
}

// NoteOff builds a channel-voice Note Off message.
func NoteOff(channel, note int) Message {
	return Message{Status: byte(CommandNoteOff)<<4 | byte(channel&0xF), Data1: byte(note)}
}

// ControlChange builds a Control Change message.
func ControlChange(channel, controller, value int) Message {
	return Message{Status: byte(CommandControlChange)<<4 | byte(channel&0xF), Data1: byte(controller), Data2: byte(value)}
}

// PitchBend builds a 14-bit Pitch Bend message; value is centered at 8192.
func PitchBend(channel int, value int) Message {
	v := uint16(value)
	return Message{Status: byte(CommandPitchBend)<<4 | byte(channel&0xF), Data1: byte(v & 0x7F), Data2: byte((v >> 7) & 0x7F)}
}

// Command returns the message's high-nibble command, or CommandSystem for
// SysEx and other system messages.
func (m Message) Command() Command {
	if m.Status >= 0xF0 {
		return CommandSystem
	}
	return Command(m.Status >> 4)
}

// Channel returns the 0-based channel for channel-voice messages.
func (m Message) Channel() int { return int(m.Status & 0x0F) }

// IsNoteOn reports whether this is a Note On with nonzero velocity; a
// Note On with velocity 0 is conventionally a Note Off.
func (m Message) IsNoteOn() bool {
	return m.Command() == CommandNoteOn && m.Data2 > 0
}

// IsNoteOff reports whether this is a Note Off, including velocity-0 Note On.
func (m Message) IsNoteOff() bool {
	return m.Command() == CommandNoteOff || (m.Command() == CommandNoteOn && m.Data2 == 0)
}

// IsControlChange reports whether this is a Control Change message.
func (m Message) IsControlChange() bool { return m.Command() == CommandControlChange }

// IsSysEx reports whether this message carries a System Exclusive payload.
func (m Message) IsSysEx() bool { return m.Status == 0xF0 }

// Note returns Data1 interpreted as a note number (valid for Note
// On/Off and Poly Pressure).
func (m Message) Note() int { return int(m.Data1) }

// Velocity returns Data2 interpreted as a velocity (valid for Note On/Off).
func (m Message) Velocity() int { return int(m.Data2) }

// PitchBendValue reconstructs the 14-bit pitch bend value, centered at 8192.
func (m Message) PitchBendValue() int {
	return int(m.Data1)&0x7F | (int(m.Data2)&0x7F)<<7
}

// toGomidi converts to gitlab.com/gomidi/midi/v2's wire representation for
// physical-output delivery through a gomidi driver.
func (m Message) toGomidi() gomidi.Message {
	if m.IsSysEx() {
		return gomidi.NewMessage(m.Raw)
	}
	switch m.Command() {
	case CommandNoteOn:
		return gomidi.NoteOn(uint8(m.Channel()), uint8(m.Data1), uint8(m.Data2))
	case CommandNoteOff:
		return gomidi.NoteOff(uint8(m.Channel()), uint8(m.Data1))
	case CommandControlChange:
		return gomidi.ControlChange(uint8(m.Channel()), uint8(m.Data1), uint8(m.Data2))
	case CommandProgramChange:
		return gomidi.ProgramChange(uint8(m.Channel()), uint8(m.Data1))
	case CommandPitchBend:
		return gomidi.Pitchbend(uint8(m.Channel()), int16(m.PitchBendValue())-8192)
	default:
		return gomidi.NewMessage([]byte{m.Status, m.Data1, m.Data2})
	}
}

// fromGomidi decodes a gomidi wire message into our Message model, using
// the GetNoteStart/GetNoteEnd accessors to recover note on/off events.
func fromGomidi(raw gomidi.Message, ts time.Time) Message {
	var ch, key, vel uint8
	if raw.GetNoteStart(&ch, &key, &vel) {
		return Message{Status: raw[0], Data1: key, Data2: vel, Timestamp: ts}
	}
	if raw.GetNoteEnd(&ch, &key) {
		return Message{Status: raw[0], Data1: key, Timestamp: ts}
	}
	if len(raw) == 0 {
		return Message{Timestamp: ts}
	}
	if raw[0] == 0xF0 {
		return Message{Status: 0xF0, Raw: append([]byte{}, raw...), Timestamp: ts}
	}
	if len(raw) >= 3 {
		return Message{Status: raw[0], Data1: raw[1], Data2: raw[2], Timestamp: ts}
	}
	if len(raw) == 2 {
		return Message{Status: raw[0], Data1: raw[1], Timestamp: ts}
	}
	return Message{Status: raw[0], Timestamp: ts}
}
