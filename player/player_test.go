package player

import (
	"testing"

	"github.com/shaban/audioengine/format"
	"github.com/shaban/audioengine/provider"
)

func monoFormat() format.AudioFormat {
	return format.AudioFormat{SampleRate: 48000, Channels: 1, Encoding: format.EncodingF32}
}

func TestStateMachineTransitions(t *testing.T) {
	p := New("p", provider.NewSynthetic(monoFormat(), provider.WaveformSilence, 0, 0, 1000))

	if p.State() != StateStopped {
		t.Fatalf("initial state = %v, want Stopped", p.State())
	}
	p.Play()
	if p.State() != StatePlaying {
		t.Fatalf("after Play, state = %v, want Playing", p.State())
	}
	p.Pause()
	if p.State() != StatePaused {
		t.Fatalf("after Pause, state = %v, want Paused", p.State())
	}
	p.Play()
	if p.State() != StatePlaying {
		t.Fatalf("Paused->Play should reach Playing, got %v", p.State())
	}
	p.Stop()
	if p.State() != StateStopped {
		t.Fatalf("after Stop, state = %v, want Stopped", p.State())
	}
}

func TestRenderProducesSilenceWhenStopped(t *testing.T) {
	prov := provider.NewSynthetic(monoFormat(), provider.WaveformSine, 440, 1.0, 1000)
	p := New("p", prov)

	buf := make([]float32, 8)
	p.Render(buf, 2)
	for _, v := range buf {
		if v != 0 {
			t.Fatalf("stopped player rendered non-zero sample %v", v)
		}
	}
}

func TestRenderReadsFromProviderWhenPlaying(t *testing.T) {
	prov := provider.NewRaw(monoFormat(), []float32{1, 1, 1, 1})
	p := New("p", prov)
	p.Play()

	buf := make([]float32, 8) // stereo, 4 frames
	p.Render(buf, 2)

	for i := 0; i < 4; i++ {
		if buf[i*2] != 1 || buf[i*2+1] != 1 {
			t.Fatalf("frame %d = [%v %v], want [1 1] (mono upmixed to stereo)", i, buf[i*2], buf[i*2+1])
		}
	}
}

func TestPlaybackEndedFiresAtEOSWithoutLoop(t *testing.T) {
	prov := provider.NewRaw(monoFormat(), []float32{1, 1})
	p := New("p", prov)
	p.Play()

	ended := false
	p.OnPlaybackEnded(func() { ended = true })

	buf := make([]float32, 8) // request 4 frames, only 2 available
	p.Render(buf, 2)

	if !ended {
		t.Fatal("expected playback-ended to fire once source is exhausted")
	}
	if p.State() != StateStopped {
		t.Fatalf("state after EOS = %v, want Stopped", p.State())
	}
}

func TestLoopingRestartsAtLoopStart(t *testing.T) {
	prov := provider.NewRaw(monoFormat(), []float32{1, 2})
	p := New("p", prov)
	p.SetLoop(true, 0, LoopEndWholeSource)
	p.Play()

	buf := make([]float32, 4) // 4 mono frames requested across one loop
	written := p.resampler.Process(buf, p.nextFrame)
	if written != 4 {
		t.Fatalf("written = %d, want 4 (looped)", written)
	}
	want := []float32{1, 2, 1, 2}
	for i, v := range want {
		if buf[i] != v {
			t.Fatalf("buf[%d] = %v, want %v", i, buf[i], v)
		}
	}
}
