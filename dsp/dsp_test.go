package dsp

import (
	"math"
	"testing"
)

func TestIsPowerOfTwo(t *testing.T) {
	cases := map[int]bool{0: false, 1: true, 2: true, 3: false, 4096: true, 4095: false, -2: false}
	for n, want := range cases {
		if got := IsPowerOfTwo(n); got != want {
			t.Errorf("IsPowerOfTwo(%d) = %v, want %v", n, got, want)
		}
	}
}

func TestModIsNonNegative(t *testing.T) {
	for _, x := range []float64{-7.5, -0.1, 0, 3.2, 100} {
		got := Mod(x, 5)
		if got < 0 || got >= 5 {
			t.Errorf("Mod(%v, 5) = %v, want [0, 5)", x, got)
		}
	}
}

func TestPrincipalAngleRange(t *testing.T) {
	for _, theta := range []float64{0, math.Pi, -math.Pi, 3 * math.Pi, -3 * math.Pi, 10.5} {
		p := PrincipalAngle(theta)
		if p <= -math.Pi || p > math.Pi+1e-12 {
			t.Fatalf("PrincipalAngle(%v) = %v, out of (-pi, pi]", theta, p)
		}
		k := (theta - p) / (2 * math.Pi)
		if math.Abs(k-math.Round(k)) > 1e-9 {
			t.Fatalf("(theta-principal)/(2pi) = %v is not an integer for theta=%v", k, theta)
		}
	}
}

func TestEqualPowerPanIsConstantPower(t *testing.T) {
	for _, pan := range []float64{0, 0.25, 0.5, 0.75, 1.0} {
		l, r := EqualPowerPan(pan)
		if math.Abs(l*l+r*r-1.0) > 1e-12 {
			t.Fatalf("pan=%v: l^2+r^2 = %v, want 1", pan, l*l+r*r)
		}
	}
	l, r := EqualPowerPan(0)
	if math.Abs(l-1) > 1e-12 || math.Abs(r) > 1e-12 {
		t.Fatalf("pan=0 should be full left, got l=%v r=%v", l, r)
	}
}
