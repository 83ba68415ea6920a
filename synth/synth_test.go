package synth

import (
	"testing"

	"github.com/shaban/audioengine/midi"
)

func TestNoteOnProducesNonSilentOutput(t *testing.T) {
	s := New(48000)
	s.ProcessMessage(midi.NoteOn(0, 69, 100))

	buf := make([]float32, 2*4800) // 100ms stereo
	s.Render(buf, 2)

	nonZero := false
	for _, v := range buf {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected non-silent output after NoteOn")
	}
	if s.ActiveVoiceCount() != 1 {
		t.Fatalf("active voices = %d, want 1", s.ActiveVoiceCount())
	}
}

func TestNoteOffEventuallyFinishesVoice(t *testing.T) {
	s := New(48000)
	s.ProcessMessage(midi.NoteOn(0, 69, 100))
	s.ProcessMessage(midi.NoteOff(0, 69))

	buf := make([]float32, 2*48000) // 1s, long enough to clear any default release
	s.Render(buf, 2)

	if s.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0 after release completes", s.ActiveVoiceCount())
	}
}

func TestMPEModeSwitchSendsAllNotesOff(t *testing.T) {
	s := New(48000)
	s.ProcessMessage(midi.NoteOn(0, 60, 100))
	if s.ActiveVoiceCount() != 1 {
		t.Fatal("expected one active voice before mode switch")
	}

	s.SetMPEEnabled(true)

	buf := make([]float32, 2*48000)
	s.Render(buf, 2)
	if s.ActiveVoiceCount() != 0 {
		t.Fatal("expected MPE mode switch to release all notes")
	}
}

func TestVoiceStealingCapsPoolSize(t *testing.T) {
	s := New(48000)
	s.channels[0].MaxVoices = 2
	s.ProcessMessage(midi.NoteOn(0, 60, 100))
	s.ProcessMessage(midi.NoteOff(0, 60)) // now releasing, steal-eligible
	s.ProcessMessage(midi.NoteOn(0, 61, 100))
	s.ProcessMessage(midi.NoteOn(0, 62, 100))

	if len(s.channels[0].voices) > 2 {
		t.Fatalf("voice pool = %d, want capped at 2", len(s.channels[0].voices))
	}
}
