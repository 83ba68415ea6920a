package resample

import "testing"

func constantSource(value float32) func([]float32) bool {
	return func(frame []float32) bool {
		for i := range frame {
			frame[i] = value
		}
		return true
	}
}

func TestConstantSignalPassesThroughUnchanged(t *testing.T) {
	r := NewLinear(1, 1.0)
	dst := make([]float32, 100)
	n := r.Process(dst, constantSource(0.5))
	if n != 100 {
		t.Fatalf("wrote %d frames, want 100", n)
	}
	for i, v := range dst {
		if v != 0.5 {
			t.Fatalf("frame %d = %v, want 0.5", i, v)
		}
	}
}

func TestDownsampleStopsAtEOF(t *testing.T) {
	count := 0
	src := func(frame []float32) bool {
		if count >= 10 {
			return false
		}
		frame[0] = float32(count)
		count++
		return true
	}

	r := NewLinear(1, 2.0)
	dst := make([]float32, 20)
	n := r.Process(dst, src)
	if n == 0 || n > 10 {
		t.Fatalf("wrote %d frames from 10 source frames at ratio 2.0, want <= 10 and > 0", n)
	}
}

func TestDriftFreeAccumulationAcrossCalls(t *testing.T) {
	// A ratio of 1.0001 over many small calls over a ramp source: if the
	// fractional position were reset at a call boundary, the output would
	// step backwards there, so a monotonic output shows the position
	// carries across calls.
	idx := 0
	src := func(frame []float32) bool {
		frame[0] = float32(idx)
		idx++
		return true
	}

	r := NewLinear(1, 1.0001)
	total := make([]float32, 5000)
	written := 0
	for written < len(total) {
		chunk := total[written : written+10]
		n := r.Process(chunk, src)
		written += n
	}

	// Output should be monotonically non-decreasing since the source is a
	// ramp and the ratio is close to 1.
	for i := 1; i < len(total); i++ {
		if total[i] < total[i-1]-1e-6 {
			t.Fatalf("output not monotonic at %d: %v then %v", i, total[i-1], total[i])
		}
	}
}
