package timeline

import (
	"math"
	"testing"

	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/provider"
)

func monoFormat() format.AudioFormat {
	return format.AudioFormat{SampleRate: 100, Channels: 1, Encoding: format.EncodingF32}
}

func TestTempoMapRoundTrip(t *testing.T) {
	tm := NewTempoMap(480) // 120 BPM default
	tick := tm.SecondsToTick(1.0)
	seconds := tm.TickToSeconds(tick)
	if math.Abs(seconds-1.0) > 0.01 {
		t.Fatalf("round trip = %v, want ~1.0", seconds)
	}
}

func TestFadeLinearRampsFromZeroToOne(t *testing.T) {
	if g := fadeGain(FadeLinear, 0, true); g != 0 {
		t.Fatalf("gain at t=0 rising = %v, want 0", g)
	}
	if g := fadeGain(FadeLinear, 1, true); g != 1 {
		t.Fatalf("gain at t=1 rising = %v, want 1", g)
	}
}

func TestApplyFadeAttenuatesFadeInWindow(t *testing.T) {
	buf := make([]float32, 10)
	for i := range buf {
		buf[i] = 1
	}
	ApplyFade(buf, 1, 10, 0, 1.0, 0.5, 0, FadeLinear)
	if buf[0] >= buf[4] {
		t.Fatalf("expected increasing gain across fade-in, got %v then %v", buf[0], buf[4])
	}
	if buf[9] != 1 {
		t.Fatalf("sample past fade-in should be unattenuated, got %v", buf[9])
	}
}

func TestAudioSegmentRendersWithinTimelineWindow(t *testing.T) {
	prov := provider.NewRaw(monoFormat(), []float32{1, 1, 1, 1, 1})
	seg := NewAudioSegment(prov, 1.0, 0.5) // starts at t=1s, lasts 0.5s at 100Hz => 50 frames window elsewhere

	dst := make([]float32, 2*100) // 2 seconds at 100Hz mono
	seg.Render(dst, 1, 100, 0, 2)

	nonZero := false
	for _, v := range dst {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatal("expected segment to contribute non-zero samples inside its span")
	}
}

func TestCompositionCalculateDuration(t *testing.T) {
	c := NewComposition(100, 1)
	track := NewTrack("a")
	prov := provider.NewRaw(monoFormat(), []float32{1, 1})
	track.Segments = append(track.Segments, NewAudioSegment(prov, 2.0, 3.0))
	c.AddTrack(track)

	if d := c.CalculateDuration(); d != 5.0 {
		t.Fatalf("duration = %v, want 5.0", d)
	}
}

func TestSoloMutesNonSoloedTracks(t *testing.T) {
	c := NewComposition(100, 1)
	loud := NewTrack("loud")
	prov := provider.NewRaw(monoFormat(), []float32{1, 1, 1, 1, 1, 1, 1, 1, 1, 1})
	loud.Segments = append(loud.Segments, NewAudioSegment(prov, 0, 1.0))
	quiet := NewTrack("quiet")
	quiet.Soloed = true
	c.AddTrack(loud)
	c.AddTrack(quiet)

	dst := make([]float32, 100)
	c.Render(dst, 0, 1)

	for _, v := range dst {
		if v != 0 {
			t.Fatal("expected non-soloed track to be muted while another track is soloed")
		}
	}
}
