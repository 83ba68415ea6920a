package window

import "testing"

func TestSizeOneReturnsUnity(t *testing.T) {
	got := Generate(Hann, 1)
	if len(got) != 1 || got[0] != 1.0 {
		t.Fatalf("Generate(_, 1) = %v, want [1.0]", got)
	}
}

func TestValueAtZeroMatchesFormula(t *testing.T) {
	for _, tc := range []struct {
		t    Type
		want float64
	}{
		{Hann, 0.0},
		{Hamming, 0.08},
	} {
		coeffs := Generate(tc.t, 8)
		if diff := coeffs[0] - tc.want; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("type %v: coeffs[0] = %v, want %v", tc.t, coeffs[0], tc.want)
		}
		if diff := coeffs[0] - ValueAtZero(tc.t); diff > 1e-9 || diff < -1e-9 {
			t.Errorf("type %v: ValueAtZero mismatch with coeffs[0]", tc.t)
		}
	}
}

func TestApplyScalesInPlace(t *testing.T) {
	buf := []float64{1, 1, 1, 1}
	Apply(Hann, buf)
	if buf[0] > 1e-9 {
		t.Errorf("Hann window should taper to ~0 at edges, got %v", buf[0])
	}
}
