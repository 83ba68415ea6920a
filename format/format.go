// Package format defines the audio engine's sample format and provides
// conversion and channel-mixing utilities between the device's native
// encoding and the graph's internal F32 working format.
package format

import (
	"math"

	"github.com/shaban/audioengine/audioerr"
)

// Encoding identifies a PCM sample encoding.
type Encoding int

const (
	EncodingS16 Encoding = iota
	EncodingS24
	EncodingS32
	EncodingF32
	EncodingU8
)

func (e Encoding) String() string {
	switch e {
	case EncodingS16:
		return "S16"
	case EncodingS24:
		return "S24"
	case EncodingS32:
		return "S32"
	case EncodingF32:
		return "F32"
	case EncodingU8:
		return "U8"
	default:
		return "unknown"
	}
}

// BytesPerSample returns the packed size of one sample in this encoding.
func (e Encoding) BytesPerSample() int {
	switch e {
	case EncodingU8:
		return 1
	case EncodingS16:
		return 2
	case EncodingS24:
		return 3
	case EncodingS32, EncodingF32:
		return 4
	default:
		return 0
	}
}

// AudioFormat is an immutable (sample rate, channel count, encoding) triple.
type AudioFormat struct {
	SampleRate int
	Channels   int
	Encoding   Encoding
}

// Validate checks the format invariants: sample rate > 0 and channels > 0.
func (f AudioFormat) Validate() error {
	if f.SampleRate <= 0 {
		return audioerr.New(audioerr.KindFormatUnsupported, "sample rate must be > 0, got %d", f.SampleRate)
	}
	if f.Channels <= 0 {
		return audioerr.New(audioerr.KindFormatUnsupported, "channel count must be > 0, got %d", f.Channels)
	}
	return nil
}

// FramesToBytes returns the packed byte length of n frames in this format.
func (f AudioFormat) FramesToBytes(frames int) int {
	return frames * f.Channels * f.Encoding.BytesPerSample()
}

// Scaling constants used by Decode/Encode to convert each integer PCM
// encoding to and from the [-1, 1] float32 range.
const (
	scaleU8  = 128.0
	scaleS16 = 32768.0
	scaleS24 = 8388608.0
	scaleS32 = 2147483648.0
)

// DecodeToF32 converts packed bytes in the given encoding into the
// destination interleaved F32 buffer. dst must have room for len(src)/bytesPerSample
// samples. It returns the number of F32 samples written.
func DecodeToF32(enc Encoding, src []byte, dst []float32) int {
	switch enc {
	case EncodingU8:
		n := len(src)
		for i := 0; i < n && i < len(dst); i++ {
			dst[i] = (float32(src[i]) - 128) / scaleU8
		}
		return min(n, len(dst))
	case EncodingS16:
		n := len(src) / 2
		for i := 0; i < n && i < len(dst); i++ {
			v := int16(uint16(src[2*i]) | uint16(src[2*i+1])<<8)
			dst[i] = float32(v) / scaleS16
		}
		return min(n, len(dst))
	case EncodingS24:
		n := len(src) / 3
		for i := 0; i < n && i < len(dst); i++ {
			raw := uint32(src[3*i]) | uint32(src[3*i+1])<<8 | uint32(src[3*i+2])<<16
			if raw&0x800000 != 0 {
				raw |= 0xFF000000 // sign extend
			}
			dst[i] = float32(int32(raw)) / scaleS24
		}
		return min(n, len(dst))
	case EncodingS32:
		n := len(src) / 4
		for i := 0; i < n && i < len(dst); i++ {
			raw := uint32(src[4*i]) | uint32(src[4*i+1])<<8 | uint32(src[4*i+2])<<16 | uint32(src[4*i+3])<<24
			dst[i] = float32(int32(raw)) / scaleS32
		}
		return min(n, len(dst))
	case EncodingF32:
		n := len(src) / 4
		for i := 0; i < n && i < len(dst); i++ {
			raw := uint32(src[4*i]) | uint32(src[4*i+1])<<8 | uint32(src[4*i+2])<<16 | uint32(src[4*i+3])<<24
			dst[i] = math.Float32frombits(raw)
		}
		return min(n, len(dst))
	default:
		return 0
	}
}

// EncodeFromF32 converts an interleaved F32 buffer into packed bytes of the
// given encoding, using round-to-nearest-ties-to-even on quantization.
// It returns the number of bytes written.
func EncodeFromF32(enc Encoding, src []float32, dst []byte) int {
	switch enc {
	case EncodingU8:
		for i, x := range src {
			if i >= len(dst) {
				break
			}
			dst[i] = byte(clampRound(x*scaleU8+128, 0, 255))
		}
		return min(len(src), len(dst))
	case EncodingS16:
		n := min(len(src), len(dst)/2)
		for i := 0; i < n; i++ {
			v := int16(clampRound(src[i]*scaleS16, -32768, 32767))
			dst[2*i] = byte(v)
			dst[2*i+1] = byte(v >> 8)
		}
		return n * 2
	case EncodingS24:
		n := min(len(src), len(dst)/3)
		for i := 0; i < n; i++ {
			v := int32(clampRound(src[i]*scaleS24, -8388608, 8388607))
			dst[3*i] = byte(v)
			dst[3*i+1] = byte(v >> 8)
			dst[3*i+2] = byte(v >> 16)
		}
		return n * 3
	case EncodingS32:
		n := min(len(src), len(dst)/4)
		for i := 0; i < n; i++ {
			v := int32(clampRound(src[i]*scaleS32, -2147483648, 2147483647))
			dst[4*i] = byte(v)
			dst[4*i+1] = byte(v >> 8)
			dst[4*i+2] = byte(v >> 16)
			dst[4*i+3] = byte(v >> 24)
		}
		return n * 4
	case EncodingF32:
		n := min(len(src), len(dst)/4)
		for i := 0; i < n; i++ {
			raw := math.Float32bits(src[i])
			dst[4*i] = byte(raw)
			dst[4*i+1] = byte(raw >> 8)
			dst[4*i+2] = byte(raw >> 16)
			dst[4*i+3] = byte(raw >> 24)
		}
		return n * 4
	default:
		return 0
	}
}

// ClampToS16 converts a single F32 sample to a clamped, rounded S16 value,
// for collaborators (like a WAV encoder) that need one sample at a time
// rather than a whole buffer.
func ClampToS16(x float32) int16 {
	return int16(clampRound(x*scaleS16, -32768, 32767))
}

// clampRound rounds to nearest, ties-to-even, then clamps into [lo, hi].
func clampRound(x float32, lo, hi float64) float64 {
	v := math.RoundToEven(float64(x))
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
