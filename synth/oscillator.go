package synth

import "math"

// Waveform selects an oscillator's shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveSaw
	WaveSquare
	WaveTriangle
)

// Oscillator is a single band-naive (non-bandlimited) tone generator,
// grounded on _examples/other_examples/justyntemme-vst3go__voice.go's
// oscillator.Oscillator collaborator. Bandlimiting/anti-aliasing is not
// implemented.
type Oscillator struct {
	sampleRate float64
	phase      float64
	Shape      Waveform
}

// NewOscillator creates an oscillator for the given sample rate.
func NewOscillator(sampleRate float64) *Oscillator {
	return &Oscillator{sampleRate: sampleRate}
}

// Next advances the oscillator by one sample at the given frequency and
// returns the waveform value in [-1, 1].
func (o *Oscillator) Next(freq float64) float64 {
	v := o.valueAtPhase(o.phase)
	o.phase += freq / o.sampleRate
	if o.phase >= 1 {
		o.phase -= math.Floor(o.phase)
	}
	return v
}

func (o *Oscillator) valueAtPhase(phase float64) float64 {
	switch o.Shape {
	case WaveSine:
		return math.Sin(2 * math.Pi * phase)
	case WaveSaw:
		return 2*phase - 1
	case WaveSquare:
		if phase < 0.5 {
			return 1
		}
		return -1
	case WaveTriangle:
		if phase < 0.5 {
			return 4*phase - 1
		}
		return 3 - 4*phase
	default:
		return 0
	}
}

// Reset zeroes the oscillator's phase.
func (o *Oscillator) Reset() { o.phase = 0 }
