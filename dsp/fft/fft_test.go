package fft

import (
	"math"
	"math/rand"
	"testing"
)

func TestNewPlanRejectsNonPowerOfTwo(t *testing.T) {
	if _, err := NewPlan(100); err == nil {
		t.Fatal("expected error for non-power-of-two size")
	}
}

func TestForwardInverseRoundTrip(t *testing.T) {
	for _, n := range []int{2, 4, 16, 64, 256, 4096} {
		p, err := NewPlan(n)
		if err != nil {
			t.Fatalf("NewPlan(%d): %v", n, err)
		}

		rng := rand.New(rand.NewSource(int64(n)))
		original := make([]complex128, n)
		for i := range original {
			original[i] = complex(rng.Float64()*2-1, 0)
		}

		data := append([]complex128(nil), original...)
		if err := p.Forward(data); err != nil {
			t.Fatalf("Forward: %v", err)
		}
		if err := p.Inverse(data); err != nil {
			t.Fatalf("Inverse: %v", err)
		}

		for i := range data {
			if diff := real(data[i]) - real(original[i]); math.Abs(diff) > 1e-9 {
				t.Fatalf("n=%d i=%d: |IFFT(FFT(x))-x| = %v, want < 1e-9", n, i, math.Abs(diff))
			}
		}
	}
}

func TestScalarMatchesAcceleratedPath(t *testing.T) {
	n := 256
	rng := rand.New(rand.NewSource(1))
	original := make([]complex128, n)
	for i := range original {
		original[i] = complex(rng.Float64()*2-1, rng.Float64()*2-1)
	}

	forceScalar = true
	planCache.Delete(n)
	scalarPlan, err := NewPlan(n)
	if err != nil {
		t.Fatalf("NewPlan (scalar): %v", err)
	}
	scalarData := append([]complex128(nil), original...)
	if err := scalarPlan.Forward(scalarData); err != nil {
		t.Fatalf("scalar Forward: %v", err)
	}
	forceScalar = false
	planCache.Delete(n)

	acceleratedPlan, err := NewPlan(n)
	if err != nil {
		t.Fatalf("NewPlan (accelerated): %v", err)
	}
	acceleratedData := append([]complex128(nil), original...)
	if err := acceleratedPlan.Forward(acceleratedData); err != nil {
		t.Fatalf("accelerated Forward: %v", err)
	}

	for i := range scalarData {
		diff := scalarData[i] - acceleratedData[i]
		if math.Hypot(real(diff), imag(diff)) > 1e-9 {
			t.Fatalf("bin %d: scalar=%v accelerated=%v differ by more than 1e-9", i, scalarData[i], acceleratedData[i])
		}
	}
	planCache.Delete(n)
}
