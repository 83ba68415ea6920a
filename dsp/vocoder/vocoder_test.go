package vocoder

import (
	"math"
	"testing"
)

func sineInput(n int, freq, sampleRate float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Sin(2 * math.Pi * freq * float64(i) / sampleRate)
	}
	return out
}

func TestProcessProducesOutputForStretchedSignal(t *testing.T) {
	s, err := NewStretcher(256, 1.5)
	if err != nil {
		t.Fatalf("NewStretcher: %v", err)
	}

	input := sineInput(256*20, 440, 48000)
	dst := make([]float64, len(input))

	totalConsumed, totalProduced := 0, 0
	for totalConsumed < len(input) {
		c, p := s.Process(input[totalConsumed:], dst[totalProduced:])
		totalConsumed += c
		totalProduced += p
		if c == 0 && p == 0 {
			break
		}
	}

	if totalProduced == 0 {
		t.Fatal("expected some stretched output to be produced")
	}
}

func TestResetClearsPhaseState(t *testing.T) {
	s, err := NewStretcher(256, 1.0)
	if err != nil {
		t.Fatalf("NewStretcher: %v", err)
	}
	input := sineInput(256*4, 440, 48000)
	dst := make([]float64, len(input))
	s.Process(input, dst)

	s.Reset()
	for _, v := range s.sumPhase {
		if v != 0 {
			t.Fatalf("Reset did not clear sumPhase")
		}
	}
	if s.writeOffset != 0 || s.readLen != 0 {
		t.Fatalf("Reset did not clear buffer offsets")
	}
}
