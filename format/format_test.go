package format

import "testing"

func TestValidate(t *testing.T) {
	if err := (AudioFormat{SampleRate: 0, Channels: 2}).Validate(); err == nil {
		t.Fatal("expected error for zero sample rate")
	}
	if err := (AudioFormat{SampleRate: 48000, Channels: 0}).Validate(); err == nil {
		t.Fatal("expected error for zero channels")
	}
	if err := (AudioFormat{SampleRate: 48000, Channels: 2}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestS16RoundTrip(t *testing.T) {
	src := []float32{0, 0.5, -0.5, 1, -1}
	packed := make([]byte, len(src)*2)
	n := EncodeFromF32(EncodingS16, src, packed)
	if n != len(packed) {
		t.Fatalf("wrote %d bytes, want %d", n, len(packed))
	}

	back := make([]float32, len(src))
	got := DecodeToF32(EncodingS16, packed, back)
	if got != len(src) {
		t.Fatalf("decoded %d samples, want %d", got, len(src))
	}

	for i := range src {
		if diff := back[i] - src[i]; diff > 1e-3 || diff < -1e-3 {
			t.Errorf("sample %d: got %v want %v", i, back[i], src[i])
		}
	}
}

func TestU8ZeroCenter(t *testing.T) {
	packed := []byte{128}
	back := make([]float32, 1)
	DecodeToF32(EncodingU8, packed, back)
	if back[0] != 0 {
		t.Fatalf("U8 128 should decode to 0, got %v", back[0])
	}
}

func TestS24SignExtension(t *testing.T) {
	// -1 (one LSB below zero) in S24 packed little endian: 0xFF 0xFF 0xFF,
	// which must sign-extend to -1 and scale to -1/8388608.
	packed := []byte{0xFF, 0xFF, 0xFF}
	back := make([]float32, 1)
	DecodeToF32(EncodingS24, packed, back)
	if want := float32(-1.0 / 8388608); back[0] != want {
		t.Fatalf("expected %v, got %v", want, back[0])
	}
}

func TestChannelMatrixMonoToStereoDuplicates(t *testing.T) {
	src := []float32{0.25, 0.5}
	dst := make([]float32, 4)
	ChannelMatrix(src, 1, dst, 2)
	want := []float32{0.25, 0.25, 0.5, 0.5}
	for i := range want {
		if dst[i] != want[i] {
			t.Fatalf("frame %d: got %v want %v", i, dst[i], want[i])
		}
	}
}

func TestChannelMatrixStereoToMonoAverages(t *testing.T) {
	src := []float32{1, -1}
	dst := make([]float32, 1)
	ChannelMatrix(src, 2, dst, 1)
	if dst[0] != 0 {
		t.Fatalf("expected average of 1 and -1 to be 0, got %v", dst[0])
	}
}

func TestInterleaveDeinterleaveRoundTrip(t *testing.T) {
	planar := [][]float32{{1, 2, 3}, {4, 5, 6}}
	inter := make([]float32, 6)
	Interleave(planar, inter)
	want := []float32{1, 4, 2, 5, 3, 6}
	for i := range want {
		if inter[i] != want[i] {
			t.Fatalf("index %d: got %v want %v", i, inter[i], want[i])
		}
	}

	back := [][]float32{make([]float32, 3), make([]float32, 3)}
	Deinterleave(inter, 2, back)
	for c := range planar {
		for f := range planar[c] {
			if back[c][f] != planar[c][f] {
				t.Fatalf("ch %d frame %d: got %v want %v", c, f, back[c][f], planar[c][f])
			}
		}
	}
}
