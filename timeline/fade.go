package timeline

import (
	"math"

	"github.com/shaban/audioengine/dsp"
)

// FadeCurve selects a fade-in/fade-out gain shape.
type FadeCurve int

const (
	FadeLinear FadeCurve = iota
	FadeLogarithmic
	FadeSCurve
	FadeEqualPower
)

// fadeGain returns the gain at normalized position t in [0, 1] (0 = fade
// start, 1 = fade complete) for rising (fade-in) or falling (fade-out)
// direction.
func fadeGain(curve FadeCurve, t float64, rising bool) float64 {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	if !rising {
		t = 1 - t
	}
	switch curve {
	case FadeLogarithmic:
		if t <= 0 {
			return 0
		}
		// log curve: perceptually linear loudness ramp, floor at -60dB.
		const floorDB = -60.0
		db := floorDB * (1 - t)
		return math.Pow(10, db/20)
	case FadeSCurve:
		return t * t * (3 - 2*t) // smoothstep
	case FadeEqualPower:
		_, r := dsp.EqualPowerPan(t)
		return r // sin(t*pi/2): a fade-in and its mirrored fade-out have squared gains summing to 1, so a crossfade keeps constant energy
	default: // FadeLinear
		return t
	}
}

// ApplyFade scales buf's gain across [fadeInSeconds, fadeOutSeconds] at
// the start/end of a segment whose total span is spanSeconds, given the
// buffer's position (offsetSeconds) and sample rate.
func ApplyFade(buf []float32, channels int, sampleRate float64, offsetSeconds, spanSeconds, fadeInSeconds, fadeOutSeconds float64, curve FadeCurve) {
	frames := len(buf) / channels
	for i := 0; i < frames; i++ {
		pos := offsetSeconds + float64(i)/sampleRate
		gain := 1.0
		if fadeInSeconds > 0 && pos < fadeInSeconds {
			gain *= fadeGain(curve, pos/fadeInSeconds, true)
		}
		fadeOutStart := spanSeconds - fadeOutSeconds
		if fadeOutSeconds > 0 && pos > fadeOutStart {
			gain *= fadeGain(curve, (pos-fadeOutStart)/fadeOutSeconds, false)
		}
		if gain == 1.0 {
			continue
		}
		for c := 0; c < channels; c++ {
			buf[i*channels+c] *= float32(gain)
		}
	}
}
