// Package biquad implements the direct-form-II biquad filter used
// throughout the modifier chain: low-pass, high-pass, band-pass, notch,
// peaking, and the two shelf types.
package biquad

import "math"

// Kind selects the filter response computed from (cutoff, Q, sampleRate).
type Kind int

const (
	LowPass Kind = iota
	HighPass
	BandPass
	Notch
	Peaking
	LowShelf
	HighShelf
)

// Coefficients are the five direct-form-II feedback/feedforward terms.
type Coefficients struct {
	B0, B1, B2 float64
	A1, A2     float64
}

// Design computes biquad coefficients from the classic Audio-EQ-Cookbook
// formulas for the requested kind. gainDB only applies to Peaking,
// LowShelf, and HighShelf; it is ignored otherwise.
func Design(kind Kind, cutoff, q, sampleRate, gainDB float64) Coefficients {
	if q <= 0 {
		q = 0.707
	}
	w0 := 2 * math.Pi * cutoff / sampleRate
	cosW0 := math.Cos(w0)
	sinW0 := math.Sin(w0)
	alpha := sinW0 / (2 * q)

	var b0, b1, b2, a0, a1, a2 float64

	switch kind {
	case LowPass:
		b0 = (1 - cosW0) / 2
		b1 = 1 - cosW0
		b2 = (1 - cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case HighPass:
		b0 = (1 + cosW0) / 2
		b1 = -(1 + cosW0)
		b2 = (1 + cosW0) / 2
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case BandPass:
		b0 = alpha
		b1 = 0
		b2 = -alpha
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Notch:
		b0 = 1
		b1 = -2 * cosW0
		b2 = 1
		a0 = 1 + alpha
		a1 = -2 * cosW0
		a2 = 1 - alpha
	case Peaking:
		a := math.Pow(10, gainDB/40)
		b0 = 1 + alpha*a
		b1 = -2 * cosW0
		b2 = 1 - alpha*a
		a0 = 1 + alpha/a
		a1 = -2 * cosW0
		a2 = 1 - alpha/a
	case LowShelf:
		a := math.Pow(10, gainDB/40)
		sq := math.Sqrt(a) * alpha * 2
		b0 = a * ((a + 1) - (a-1)*cosW0 + sq)
		b1 = 2 * a * ((a - 1) - (a+1)*cosW0)
		b2 = a * ((a + 1) - (a-1)*cosW0 - sq)
		a0 = (a + 1) + (a-1)*cosW0 + sq
		a1 = -2 * ((a - 1) + (a+1)*cosW0)
		a2 = (a + 1) + (a-1)*cosW0 - sq
	case HighShelf:
		a := math.Pow(10, gainDB/40)
		sq := math.Sqrt(a) * alpha * 2
		b0 = a * ((a + 1) + (a-1)*cosW0 + sq)
		b1 = -2 * a * ((a - 1) + (a+1)*cosW0)
		b2 = a * ((a + 1) + (a-1)*cosW0 - sq)
		a0 = (a + 1) - (a-1)*cosW0 + sq
		a1 = 2 * ((a - 1) - (a+1)*cosW0)
		a2 = (a + 1) - (a-1)*cosW0 - sq
	}

	return Coefficients{
		B0: b0 / a0, B1: b1 / a0, B2: b2 / a0,
		A1: a1 / a0, A2: a2 / a0,
	}
}

// Filter holds per-channel direct-form-II state for one set of coefficients.
type Filter struct {
	Coefficients
	state []channelState
}

type channelState struct {
	z1, z2 float64
}

// NewFilter creates a filter ready to process the given channel count.
func NewFilter(coeffs Coefficients, channels int) *Filter {
	return &Filter{Coefficients: coeffs, state: make([]channelState, channels)}
}

// SetCoefficients swaps the active coefficients without resetting state,
// so a parameter sweep does not click.
func (f *Filter) SetCoefficients(coeffs Coefficients) {
	f.Coefficients = coeffs
}

// Reset clears the delay line for every channel.
func (f *Filter) Reset() {
	for i := range f.state {
		f.state[i] = channelState{}
	}
}

// ProcessSample filters one sample on channel ch using transposed
// direct-form-II.
func (f *Filter) ProcessSample(x float64, ch int) float64 {
	s := &f.state[ch]
	y := f.B0*x + s.z1
	s.z1 = f.B1*x - f.A1*y + s.z2
	s.z2 = f.B2*x - f.A2*y
	return y
}

// ProcessBlock filters an interleaved buffer in place.
func (f *Filter) ProcessBlock(buf []float32, channels int) {
	for i := range buf {
		ch := i % channels
		buf[i] = float32(f.ProcessSample(float64(buf[i]), ch))
	}
}
