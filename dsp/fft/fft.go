// Package fft implements in-place FFT/IFFT over power-of-two length
// complex arrays. Two code paths exist: an accelerated path backed by
// algo-fft's plan (used when the CPU advertises the relevant SIMD
// extensions) and a scalar iterative Cooley-Tukey fallback. Both must
// agree to within 1e-9 magnitude per bin.
package fft

import (
	"math"
	"sync"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/klauspost/cpuid/v2"
	"github.com/shaban/audioengine/audioerr"
	"github.com/shaban/audioengine/dsp"
)

// Plan performs forward/inverse FFTs of a fixed power-of-two size N,
// selecting the accelerated or scalar path once at construction and
// reusing precomputed twiddle factors for the scalar path across calls.
type Plan struct {
	n int

	accelerated *algofft.Plan[complex128]
	twiddles    []complex128 // scalar path, length n/2
	bitrev      []int        // scalar path, length n
}

var useAccelerated = cpuid.CPU.Supports(cpuid.AVX2) || cpuid.CPU.Supports(cpuid.ASIMD)

// forceScalar lets tests exercise the fallback path deterministically
// regardless of the host CPU's feature bits.
var forceScalar = false

var planCache sync.Map // n -> *Plan

// NewPlan returns a cached Plan for N, constructing it on first use.
// N must be a power of two.
func NewPlan(n int) (*Plan, error) {
	if !dsp.IsPowerOfTwo(n) {
		return nil, audioerr.New(audioerr.KindInvalidArgument, "fft size %d is not a power of two", n)
	}
	if cached, ok := planCache.Load(n); ok {
		return cached.(*Plan), nil
	}

	p := &Plan{n: n}
	if useAccelerated && !forceScalar {
		ap, err := algofft.NewPlan64(n)
		if err == nil {
			p.accelerated = ap
		}
	}
	if p.accelerated == nil {
		p.twiddles = make([]complex128, n/2)
		for k := range p.twiddles {
			theta := -2 * math.Pi * float64(k) / float64(n)
			p.twiddles[k] = complex(math.Cos(theta), math.Sin(theta))
		}
		p.bitrev = bitReversalPermutation(n)
	}

	actual, _ := planCache.LoadOrStore(n, p)
	return actual.(*Plan), nil
}

// Size returns the FFT length this plan was built for.
func (p *Plan) Size() int { return p.n }

// Forward computes the in-place FFT of data, which must have length N.
func (p *Plan) Forward(data []complex128) error {
	if len(data) != p.n {
		return audioerr.New(audioerr.KindInvalidArgument, "fft: data length %d != plan size %d", len(data), p.n)
	}
	if p.accelerated != nil {
		return p.accelerated.Forward(data, data)
	}
	scalarFFT(data, p.twiddles, p.bitrev, false)
	return nil
}

// Inverse computes the in-place IFFT of data, dividing by N at the end.
func (p *Plan) Inverse(data []complex128) error {
	if len(data) != p.n {
		return audioerr.New(audioerr.KindInvalidArgument, "fft: data length %d != plan size %d", len(data), p.n)
	}
	if p.accelerated != nil {
		return p.accelerated.Inverse(data, data)
	}
	scalarFFT(data, p.twiddles, p.bitrev, true)
	return nil
}

// scalarFFT is the textbook iterative Cooley-Tukey radix-2 DIT transform
// with a precomputed bit-reversal permutation and twiddle table.
func scalarFFT(data []complex128, twiddles []complex128, bitrev []int, inverse bool) {
	n := len(data)
	for i, j := range bitrev {
		if i < j {
			data[i], data[j] = data[j], data[i]
		}
	}

	for size := 2; size <= n; size <<= 1 {
		half := size / 2
		stride := n / size
		for start := 0; start < n; start += size {
			for k := 0; k < half; k++ {
				w := twiddles[k*stride]
				if inverse {
					w = complex(real(w), -imag(w))
				}
				even := data[start+k]
				odd := data[start+k+half] * w
				data[start+k] = even + odd
				data[start+k+half] = even - odd
			}
		}
	}

	if inverse {
		invN := 1.0 / float64(n)
		for i := range data {
			data[i] *= complex(invN, 0)
		}
	}
}

func bitReversalPermutation(n int) []int {
	bits := 0
	for 1<<bits < n {
		bits++
	}
	out := make([]int, n)
	for i := range out {
		r := 0
		x := i
		for b := 0; b < bits; b++ {
			r = (r << 1) | (x & 1)
			x >>= 1
		}
		out[i] = r
	}
	return out
}
