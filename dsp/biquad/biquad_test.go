package biquad

import (
	"math"
	"testing"
)

func TestLowPassDCGainIsUnity(t *testing.T) {
	c := Design(LowPass, 1000, 0.707, 48000, 0)
	f := NewFilter(c, 1)
	var y float64
	for i := 0; i < 10000; i++ {
		y = f.ProcessSample(1.0, 0)
	}
	if math.Abs(y-1.0) > 1e-3 {
		t.Fatalf("low-pass DC gain = %v, want ~1.0", y)
	}
}

func TestHighPassDCGainIsZero(t *testing.T) {
	c := Design(HighPass, 1000, 0.707, 48000, 0)
	f := NewFilter(c, 1)
	var y float64
	for i := 0; i < 10000; i++ {
		y = f.ProcessSample(1.0, 0)
	}
	if math.Abs(y) > 1e-3 {
		t.Fatalf("high-pass DC gain = %v, want ~0", y)
	}
}

func TestProcessBlockMatchesProcessSample(t *testing.T) {
	c := Design(LowPass, 500, 1, 48000, 0)
	f1 := NewFilter(c, 2)
	f2 := NewFilter(c, 2)

	buf := make([]float32, 8)
	for i := range buf {
		buf[i] = float32(i%3) - 1
	}
	want := make([]float32, len(buf))
	copy(want, buf)
	for i := range want {
		want[i] = float32(f1.ProcessSample(float64(want[i]), i%2))
	}

	f2.ProcessBlock(buf, 2)
	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: got %v want %v", i, buf[i], want[i])
		}
	}
}
