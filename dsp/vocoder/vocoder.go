// Package vocoder implements a phase-vocoder time-stretcher: it changes
// the duration of a signal without changing its pitch by manipulating
// per-bin phase increments across a 75%-overlap STFT.
package vocoder

import (
	"math"

	"github.com/shaban/audioengine/dsp"
	"github.com/shaban/audioengine/dsp/fft"
	"github.com/shaban/audioengine/dsp/window"
)

const overlapFactor = 4 // 75% overlap: hop = frameSize/4

// Stretcher holds the STFT analysis/synthesis state for one mono channel.
// Stretch > 1 lengthens the signal (slower playback at the same pitch);
// Stretch < 1 shortens it.
type Stretcher struct {
	frameSize   int
	analysisHop int
	plan        *fft.Plan
	win         []float64

	inputRing []float64
	ringFill  int

	prevPhase []float64
	sumPhase  []float64

	// outputAccum is a flat accumulation buffer, always at least
	// frameSize long past the current write offset. writeOffset is where
	// the next OLA frame begins relative to the buffer's start, which is
	// also the oldest not-yet-drained sample.
	outputAccum []float64
	writeOffset int
	readLen     int // samples in outputAccum[0:readLen] ready to drain

	Stretch float64

	frameScratch      []complex128
	magnitudeScratch  []float64
	freqScratch       []float64
	synthesisScratch  []complex128
}

// NewStretcher creates a stretcher for the given frame size (power of two)
// and initial stretch factor.
func NewStretcher(frameSize int, stretch float64) (*Stretcher, error) {
	plan, err := fft.NewPlan(frameSize)
	if err != nil {
		return nil, err
	}
	hop := frameSize / overlapFactor
	bins := frameSize/2 + 1
	return &Stretcher{
		frameSize:        frameSize,
		analysisHop:      hop,
		plan:             plan,
		win:              window.Generate(window.Hann, frameSize),
		inputRing:        make([]float64, frameSize),
		prevPhase:        make([]float64, bins),
		sumPhase:         make([]float64, bins),
		outputAccum:      make([]float64, frameSize*8),
		Stretch:          stretch,
		frameScratch:     make([]complex128, frameSize),
		magnitudeScratch: make([]float64, bins),
		freqScratch:      make([]float64, bins),
		synthesisScratch: make([]complex128, frameSize),
	}, nil
}

// Reset clears all phase-accumulation state. Call this on a mode change
// so the resampler's accumulator and the phase vocoder's phase state
// both restart cleanly instead of clicking.
func (s *Stretcher) Reset() {
	s.ringFill = 0
	s.writeOffset = 0
	s.readLen = 0
	for i := range s.prevPhase {
		s.prevPhase[i] = 0
		s.sumPhase[i] = 0
	}
	for i := range s.outputAccum {
		s.outputAccum[i] = 0
	}
}

// synthesisHop returns the output hop for the current stretch factor,
// rounded to the nearest sample and never below 1.
func (s *Stretcher) synthesisHop() int {
	h := int(math.Round(float64(s.analysisHop) * s.Stretch))
	if h < 1 {
		h = 1
	}
	return h
}

// Process consumes mono input samples and produces time-stretched mono
// output into dst, returning how much input was consumed and how much
// output was produced. Callers should keep feeding input across multiple
// calls; not all input need be consumed in one call if dst is small.
func (s *Stretcher) Process(input []float64, dst []float64) (consumed, produced int) {
	for consumed < len(input) {
		n := copy(s.inputRing[s.ringFill:], input[consumed:])
		s.ringFill += n
		consumed += n

		if s.ringFill < s.frameSize {
			break
		}

		s.ensureCapacity()
		s.processFrame()

		copy(s.inputRing, s.inputRing[s.analysisHop:])
		s.ringFill -= s.analysisHop
	}

	produced = s.drain(dst)
	return consumed, produced
}

// ensureCapacity grows/compacts outputAccum so a full frame always fits
// past writeOffset without reallocating on the steady-state path.
func (s *Stretcher) ensureCapacity() {
	if s.writeOffset+s.frameSize <= len(s.outputAccum) {
		return
	}
	// drain already shifts undelivered samples to the front of outputAccum,
	// so nothing is left to compact here: grow the buffer instead.
	if s.writeOffset+s.frameSize > len(s.outputAccum) {
		grown := make([]float64, (s.writeOffset+s.frameSize)*2)
		copy(grown, s.outputAccum)
		s.outputAccum = grown
	}
}

func (s *Stretcher) processFrame() {
	synHop := s.synthesisHop()

	frame := s.frameScratch
	for i := 0; i < s.frameSize; i++ {
		frame[i] = complex(s.inputRing[i]*s.win[i], 0)
	}

	_ = s.plan.Forward(frame)

	bins := s.frameSize/2 + 1
	magnitude := s.magnitudeScratch
	freq := s.freqScratch

	binFreq := 2 * math.Pi / float64(s.frameSize)
	for k := 0; k < bins; k++ {
		re, im := real(frame[k]), imag(frame[k])
		magnitude[k] = math.Hypot(re, im)
		phase := math.Atan2(im, re)

		expectedAdvance := float64(k) * binFreq * float64(s.analysisHop)
		delta := dsp.PrincipalAngle(phase - s.prevPhase[k] - expectedAdvance)
		trueFreq := float64(k)*binFreq + delta/float64(s.analysisHop)

		s.prevPhase[k] = phase
		freq[k] = trueFreq
	}

	synthesis := s.synthesisScratch
	for k := 0; k < bins; k++ {
		s.sumPhase[k] += freq[k] * float64(synHop)
		re := magnitude[k] * math.Cos(s.sumPhase[k])
		im := magnitude[k] * math.Sin(s.sumPhase[k])
		synthesis[k] = complex(re, im)
		if k > 0 && k < s.frameSize-k {
			synthesis[s.frameSize-k] = complex(re, -im) // conjugate symmetry for a real signal
		}
	}

	_ = s.plan.Inverse(synthesis)

	for i := 0; i < s.frameSize; i++ {
		s.outputAccum[s.writeOffset+i] += real(synthesis[i]) * s.win[i]
	}

	newReady := s.writeOffset + synHop
	if newReady > s.readLen {
		s.readLen = min(newReady, s.writeOffset+s.frameSize)
	}
	s.writeOffset += synHop
}

func (s *Stretcher) drain(dst []float64) int {
	n := min(s.readLen, len(dst))
	copy(dst, s.outputAccum[:n])
	if n == 0 {
		return 0
	}

	remaining := s.writeOffset - n
	copy(s.outputAccum, s.outputAccum[n:s.writeOffset])
	for i := remaining; i < len(s.outputAccum); i++ {
		s.outputAccum[i] = 0
	}
	s.writeOffset = remaining
	s.readLen -= n
	if s.readLen < 0 {
		s.readLen = 0
	}
	return n
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
