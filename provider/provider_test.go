package provider

import (
	"testing"

	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/format"
)

func stereoFormat() format.AudioFormat {
	return format.AudioFormat{SampleRate: 48000, Channels: 2, Encoding: format.EncodingF32}
}

func TestRawReadAndSeek(t *testing.T) {
	data := []float32{0, 0, 1, 1, 2, 2, 3, 3}
	r := NewRaw(stereoFormat(), data)

	dst := make([]float32, 4)
	n, err := r.Read(dst)
	if err != nil || n != 4 {
		t.Fatalf("Read = %d, %v", n, err)
	}
	if r.Position() != 2 {
		t.Fatalf("Position = %d, want 2", r.Position())
	}

	if err := r.Seek(0); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	n, _ = r.Read(dst)
	if n != 4 || dst[0] != 0 {
		t.Fatalf("after seek, Read = %d %v", n, dst)
	}
}

func TestRawEndReachedFiresOnExhaustion(t *testing.T) {
	r := NewRaw(stereoFormat(), []float32{0, 0})
	fired := false
	r.OnEndReached(func() { fired = true })

	dst := make([]float32, 2)
	r.Read(dst)
	n, err := r.Read(dst)
	if err != nil || n != 0 {
		t.Fatalf("Read at EOS = %d, %v", n, err)
	}
	if !fired {
		t.Fatal("expected OnEndReached to fire")
	}
}

func TestRawNotSeekablePropagatesKind(t *testing.T) {
	err := errNotSeekable()
	if audioerr.KindOf(err) != audioerr.KindNotSeekable {
		t.Fatalf("kind = %v, want NotSeekable", audioerr.KindOf(err))
	}
}

func TestSyntheticSilenceIsAllZero(t *testing.T) {
	s := NewSynthetic(stereoFormat(), WaveformSilence, 0, 0, 100)
	dst := make([]float32, 20)
	n, _ := s.Read(dst)
	if n != 20 {
		t.Fatalf("n = %d, want 20", n)
	}
	for _, v := range dst {
		if v != 0 {
			t.Fatalf("silence generator produced non-zero sample %v", v)
		}
	}
}

func TestSyntheticBoundedDurationEndsReached(t *testing.T) {
	s := NewSynthetic(format.AudioFormat{SampleRate: 48000, Channels: 1, Encoding: format.EncodingF32}, WaveformSine, 440, 1.0, 10)
	fired := false
	s.OnEndReached(func() { fired = true })

	dst := make([]float32, 100)
	n, _ := s.Read(dst)
	if n != 10 {
		t.Fatalf("n = %d, want 10 (clamped to duration)", n)
	}
	n, _ = s.Read(dst)
	if n != 0 || !fired {
		t.Fatalf("expected end reached after duration exhausted, n=%d fired=%v", n, fired)
	}
}

func TestMicrophoneDropsOldestWhenQueueFull(t *testing.T) {
	capturer := &fakeCapturer{format: format.AudioFormat{SampleRate: 48000, Channels: 1, Encoding: format.EncodingF32}}
	mic := NewMicrophone(capturer, 2, nil)
	if err := mic.Open(); err != nil {
		t.Fatalf("Open: %v", err)
	}

	capturer.deliver([]float32{1})
	capturer.deliver([]float32{2})
	capturer.deliver([]float32{3}) // should drop the "1" frame

	dst := make([]float32, 3)
	n, _ := mic.Read(dst)
	if n != 2 {
		t.Fatalf("n = %d, want 2 remaining frames", n)
	}
	if dst[0] != 2 || dst[1] != 3 {
		t.Fatalf("dst = %v, want [2 3 ...]", dst)
	}
}

type fakeCapturer struct {
	format  format.AudioFormat
	onFrame func([]float32)
}

func (f *fakeCapturer) Format() format.AudioFormat { return f.format }
func (f *fakeCapturer) Start(onFrames func([]float32)) error {
	f.onFrame = onFrames
	return nil
}
func (f *fakeCapturer) Stop() error { return nil }
func (f *fakeCapturer) deliver(frame []float32) {
	f.onFrame(frame)
}
