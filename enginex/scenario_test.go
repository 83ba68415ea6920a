package enginex

import (
	"math"
	"testing"

	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/graph"
	"github.com/shaban/audioengine/midi"
	"github.com/shaban/audioengine/player"
	"github.com/shaban/audioengine/provider"
	"github.com/shaban/audioengine/synth"
	"github.com/shaban/audioengine/timeline"
)

// End-to-end scenarios exercised across graph, player, synth, midi, and
// timeline together rather than unit-testing each package in isolation.
// They build the graph from the packages' own constructors and render it
// directly; no device-backed Engine is opened.

func stereoFormat48k() format.AudioFormat {
	return format.AudioFormat{SampleRate: 48000, Channels: 2, Encoding: format.EncodingF32}
}

// Scenario 1: silence passthrough.
func TestScenarioSilencePassthrough(t *testing.T) {
	master := graph.NewMixer("master")
	buf := make([]float32, 480*2)
	master.Render(buf, 2)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("buf[%d] = %v, want 0 (empty mixer must render silence)", i, v)
		}
	}
}

// Scenario 2: sine playback RMS.
func TestScenarioSinePlaybackRMS(t *testing.T) {
	monoFmt := format.AudioFormat{SampleRate: 48000, Channels: 1, Encoding: format.EncodingF32}
	prov := provider.NewSynthetic(monoFmt, provider.WaveformSine, 1000, 1.0, 0)
	p := player.New("sine", prov)
	p.SetVolume(0.5)
	p.SetPan(0.5)
	p.Play()

	master := graph.NewMixer("master")
	master.AddComponent(p)

	const frames = 48000 // 1 second
	buf := make([]float32, frames*2)
	master.Render(buf, 2)

	var sumSqL, sumSqR float64
	for i := 0; i < frames; i++ {
		l, r := float64(buf[i*2]), float64(buf[i*2+1])
		sumSqL += l * l
		sumSqR += r * r
	}
	rmsL := math.Sqrt(sumSqL / frames)
	rmsR := math.Sqrt(sumSqR / frames)

	want := 0.5 * math.Sqrt(0.5) * math.Sqrt(0.5) // volume * pan-gain * sine-RMS, all 1/sqrt2
	if math.Abs(rmsL-want) > 1e-3 {
		t.Fatalf("left RMS = %v, want %v (+-1e-3)", rmsL, want)
	}
	if math.Abs(rmsR-want) > 1e-3 {
		t.Fatalf("right RMS = %v, want %v (+-1e-3)", rmsR, want)
	}
}

// Scenario 3: seek mid-stream.
func TestScenarioSeekMidStream(t *testing.T) {
	const sampleRate = 1000
	monoFmt := format.AudioFormat{SampleRate: sampleRate, Channels: 1, Encoding: format.EncodingF32}

	data := make([]float32, 10*sampleRate) // 10 seconds, ramp so every sample is distinct
	for i := range data {
		data[i] = float32(i)
	}
	prov := provider.NewRaw(monoFmt, data)

	if err := prov.Seek(5 * sampleRate); err != nil {
		t.Fatalf("Seek: %v", err)
	}

	out := make([]float32, sampleRate) // render 1 second
	n, err := prov.Read(out)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if n == 0 {
		t.Fatal("expected samples after seek, got 0")
	}
	want := data[5*sampleRate]
	if out[0] != want {
		t.Fatalf("first sample after seek = %v, want %v", out[0], want)
	}
}

// Scenario 4: MIDI note round-trip.
func TestScenarioMidiNoteRoundTrip(t *testing.T) {
	s := synth.New(48000)
	s.ProcessMessage(midi.NoteOn(0, 69, 100))

	buf := make([]float32, 2*4800) // 100ms stereo
	s.Render(buf, 2)

	nonSilent := false
	for _, v := range buf {
		if v != 0 {
			nonSilent = true
			break
		}
	}
	if !nonSilent {
		t.Fatal("expected non-silent output 100ms after NoteOn")
	}

	s.ProcessMessage(midi.NoteOff(0, 69))
	// Render well past attack+decay+release for the default instrument.
	tail := make([]float32, 2*48000)
	s.Render(tail, 2)

	if s.ActiveVoiceCount() != 0 {
		t.Fatalf("active voices = %d, want 0 after release completes", s.ActiveVoiceCount())
	}
}

// Scenario 5: route transpose.
func TestScenarioRouteTranspose(t *testing.T) {
	r := midi.NewRoute("transpose-test", 4)
	r.AddProcessor(&midi.Transpose{Semitones: 12})
	dest := &recordingDestination{}
	r.AddDestination(dest)

	r.Deliver(midi.NoteOn(0, 60, 100))

	if len(dest.sent) != 1 {
		t.Fatalf("destination observed %d messages, want exactly 1", len(dest.sent))
	}
	if dest.sent[0].Note() != 72 {
		t.Fatalf("note = %d, want 72", dest.sent[0].Note())
	}
}

type recordingDestination struct {
	sent []midi.Message
}

func (d *recordingDestination) Send(m midi.Message) error {
	d.sent = append(d.sent, m)
	return nil
}

// Scenario 6: composition render with two overlapping DC segments.
func TestScenarioCompositionOverlap(t *testing.T) {
	const sampleRate = 1000.0
	monoFmt := format.AudioFormat{SampleRate: int(sampleRate), Channels: 1, Encoding: format.EncodingF32}

	comp := timeline.NewComposition(sampleRate, 1)
	track := timeline.NewTrack("a")
	comp.AddTrack(track)

	dc := func() provider.Provider {
		data := make([]float32, int(sampleRate)*2) // plenty for a 1s segment read
		for i := range data {
			data[i] = 0.5
		}
		return provider.NewRaw(monoFmt, data)
	}

	segA := timeline.NewAudioSegment(dc(), 0.0, 1.0)
	segB := timeline.NewAudioSegment(dc(), 0.5, 1.0)
	track.Segments = append(track.Segments, segA, segB)

	frames := int(1.5 * sampleRate)
	buf := make([]float32, frames)
	comp.Render(buf, 0, 1.5)

	check := func(t0, t1, want float64) {
		f0, f1 := int(t0*sampleRate), int(t1*sampleRate)
		for i := f0; i < f1; i++ {
			if math.Abs(float64(buf[i])-want) > 1e-4 {
				t.Fatalf("buf[%d] (t=%v) = %v, want %v", i, float64(i)/sampleRate, buf[i], want)
			}
		}
	}
	check(0, 0.5, 0.5)
	check(0.5, 1.0, 1.0)
	check(1.0, 1.5, 0.5)
}
