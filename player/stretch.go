package player

import (
	"sync"

	"github.com/shaban/audioengine/dsp/vocoder"
)

// stretchFrameSize is the STFT frame size the pitch-preserving engine uses;
// 1024 at typical device rates gives a sub-25ms analysis window.
const stretchFrameSize = 1024

// stretchChunkFrames is how many source frames are pulled and fed to the
// per-channel stretchers per inner iteration while filling a render block.
const stretchChunkFrames = 256

// stretchEngine wraps one vocoder.Stretcher per channel to implement
// pitch-preserving speed change: render() pulls source frames through
// nextFrame, deinterleaves them per channel, feeds each channel's
// Stretcher, and re-interleaves whatever output is ready. Every channel is
// always fed the same number of input frames per iteration so their
// internal phase state stays in lock-step.
type stretchEngine struct {
	mu         sync.Mutex
	channels   int
	stretchers []*vocoder.Stretcher

	inChunk  [][]float64 // per-channel scratch, stretchChunkFrames long
	outChunk [][]float64 // per-channel scratch, large enough for one Process call's output
	pending  [][]float64 // per-channel backlog not yet delivered to the caller
	rawFrame []float32   // one interleaved source frame, reused by nextFrame
}

func newStretchEngine(channels int, stretch float64) (*stretchEngine, error) {
	e := &stretchEngine{
		channels: channels,
		rawFrame: make([]float32, channels),
	}
	for c := 0; c < channels; c++ {
		s, err := vocoder.NewStretcher(stretchFrameSize, stretch)
		if err != nil {
			return nil, err
		}
		e.stretchers = append(e.stretchers, s)
		e.inChunk = append(e.inChunk, make([]float64, stretchChunkFrames))
		e.outChunk = append(e.outChunk, make([]float64, stretchChunkFrames*4))
		e.pending = append(e.pending, nil)
	}
	return e, nil
}

func (e *stretchEngine) setStretch(stretch float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.stretchers {
		s.Stretch = stretch
	}
}

func (e *stretchEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.stretchers {
		s.Reset()
		e.pending[i] = e.pending[i][:0]
	}
}

// render fills dst (interleaved, frames*channels long) by pulling from
// nextFrame as needed, returning the number of frames actually written
// (less than requested only at end of stream).
func (e *stretchEngine) render(dst []float32, channels int, nextFrame func([]float32) bool) int {
	e.mu.Lock()
	defer e.mu.Unlock()

	framesWanted := len(dst) / channels
	written := 0
	eof := false

	for written < framesWanted && !eof {
		if e.available() == 0 {
			if !e.fillChunk(nextFrame) {
				eof = true
			}
		}
		n := e.available()
		if n == 0 {
			// A chunk can be consumed before the stretchers have a full
			// analysis frame; keep pulling until output appears or EOS.
			continue
		}
		if n > framesWanted-written {
			n = framesWanted - written
		}
		for i := 0; i < n; i++ {
			for c := 0; c < channels; c++ {
				dst[(written+i)*channels+c] = float32(e.pending[c][i])
			}
		}
		for c := 0; c < channels; c++ {
			e.pending[c] = e.pending[c][n:]
		}
		written += n
	}
	return written
}

func (e *stretchEngine) available() int {
	if len(e.pending) == 0 {
		return 0
	}
	return len(e.pending[0])
}

// fillChunk reads stretchChunkFrames source frames (or fewer at EOS),
// deinterleaves them per channel, and feeds each channel's Stretcher,
// appending produced samples to e.pending. Returns false once the source
// is exhausted and no more pending output can ever be produced.
func (e *stretchEngine) fillChunk(nextFrame func([]float32) bool) bool {
	read := 0
	for read < stretchChunkFrames {
		if !nextFrame(e.rawFrame) {
			break
		}
		for c := 0; c < e.channels; c++ {
			e.inChunk[c][read] = float64(e.rawFrame[c])
		}
		read++
	}
	if read == 0 {
		return false
	}

	for c := 0; c < e.channels; c++ {
		_, produced := e.stretchers[c].Process(e.inChunk[c][:read], e.outChunk[c])
		e.pending[c] = append(e.pending[c], e.outChunk[c][:produced]...)
	}
	return true
}
