// Package resample implements the linear resampler used by sound players
// for speed changes that are not routed through the phase vocoder.
package resample

// Linear resamples an interleaved F32 stream by an arbitrary real ratio.
// The fractional read position accumulates across calls (not reset per
// block), so long runs do not drift relative to a single continuous pass.
type Linear struct {
	channels int
	ratio    float64 // source frames consumed per output frame

	pos         float64 // fractional position between prev and cur, in [0, 1)
	prev, cur   []float32
	initialized bool
}

// NewLinear creates a resampler for the given channel count and ratio.
// ratio > 1 consumes the source faster than it produces output (shorter
// output, pitch rises); ratio < 1 consumes it slower (longer output, pitch
// drops), so a stretch factor s maps to ratio 1/s.
func NewLinear(channels int, ratio float64) *Linear {
	return &Linear{
		channels: channels,
		ratio:    ratio,
		prev:     make([]float32, channels),
		cur:      make([]float32, channels),
	}
}

// SetRatio updates the resample ratio without resetting the accumulated
// fractional position, so a speed change does not introduce a click from a
// discontinuous jump in source position.
func (r *Linear) SetRatio(ratio float64) {
	r.ratio = ratio
}

// Reset clears accumulated position and interpolation history; used on
// seek or on playback-mode change (pitch-shift <-> pitch-preserve).
func (r *Linear) Reset() {
	r.pos = 0
	r.initialized = false
	for i := range r.prev {
		r.prev[i] = 0
		r.cur[i] = 0
	}
}

// Process reads from `next`, a callback filling one source frame (one
// sample per channel) and returning false at end of stream, and writes
// resampled frames into dst (interleaved, len(dst)/channels frames). It
// returns the number of frames actually written, which is less than
// len(dst)/channels only when the source is exhausted.
func (r *Linear) Process(dst []float32, next func(frame []float32) bool) int {
	frames := len(dst) / r.channels
	if !r.ensureInitialized(next) {
		return 0
	}

	written := 0
	for written < frames {
		for r.pos >= 1.0 {
			copy(r.prev, r.cur)
			if !next(r.cur) {
				// The last source frame is now in prev; a read position
				// landing exactly on it still yields that frame.
				if r.pos-1.0 < 1e-9 {
					copy(dst[written*r.channels:written*r.channels+r.channels], r.prev)
					written++
					r.pos += r.ratio
				}
				return written
			}
			r.pos -= 1.0
		}

		frac := float32(r.pos)
		out := dst[written*r.channels : written*r.channels+r.channels]
		for c := range out {
			out[c] = r.prev[c] + frac*(r.cur[c]-r.prev[c])
		}

		written++
		r.pos += r.ratio
	}

	return written
}

func (r *Linear) ensureInitialized(next func(frame []float32) bool) bool {
	if r.initialized {
		return true
	}
	if !next(r.prev) {
		return false
	}
	if !next(r.cur) {
		return false
	}
	r.initialized = true
	return true
}
