// Package window generates analysis/synthesis window functions used by the
// biquad-adjacent spectral tools (the phase vocoder, spectral analyzers).
package window

import (
	"math"

	vecmath "github.com/cwbudde/algo-vecmath"
)

// Type identifies a window family.
type Type int

const (
	Hann Type = iota
	Hamming
	Blackman
)

// coefficients holds the canonical (alpha, beta, gamma) triples per family.
// w[n] = alpha - beta*cos(2*pi*n/(N-1)) + gamma*cos(4*pi*n/(N-1))
type coefficients struct {
	alpha, beta, gamma float64
}

var byType = map[Type]coefficients{
	Hann:     {alpha: 0.5, beta: 0.5},
	Hamming:  {alpha: 0.54, beta: 0.46},
	Blackman: {alpha: 0.42, beta: 0.5, gamma: 0.08},
}

// Generate returns window coefficients of the given size. Size 1 always
// returns [1.0]; otherwise the canonical (alpha, beta[, gamma]) formula for
// the family is evaluated per-sample.
func Generate(t Type, size int) []float64 {
	if size <= 0 {
		return nil
	}
	if size == 1 {
		return []float64{1.0}
	}

	c, ok := byType[t]
	if !ok {
		c = byType[Hann]
	}

	out := make([]float64, size)
	den := float64(size - 1)
	for n := range out {
		phase := 2 * math.Pi * float64(n) / den
		out[n] = c.alpha - c.beta*math.Cos(phase) + c.gamma*math.Cos(2*phase)
	}
	return out
}

// Apply multiplies buf in place by the selected window, generating fresh
// coefficients each call. Callers on the audio thread (the phase vocoder)
// precompute coefficients once via Generate and multiply in their own
// steady-state loop instead of calling Apply per block.
func Apply(t Type, buf []float64) {
	if len(buf) == 0 {
		return
	}
	coeffs := Generate(t, len(buf))
	vecmath.MulBlockInPlace(buf, coeffs)
}

// ValueAtZero returns w[0] = alpha - beta + gamma for the family (gamma is
// zero for Hann and Hamming), which window_test checks against Generate.
func ValueAtZero(t Type) float64 {
	c, ok := byType[t]
	if !ok {
		c = byType[Hann]
	}
	return c.alpha - c.beta + c.gamma
}
