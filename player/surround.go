package player

import (
	"math"
	"sync"

	"github.com/shaban/audioengine/provider"
)

// PanMethod selects how a SurroundPlayer distributes a mono or stereo
// source across its speaker layout.
type PanMethod int

const (
	PanLinear PanMethod = iota
	PanConstantPower
	PanVBAP
)

// Speaker is a single output channel's angular position on the listening
// circle, in radians, 0 pointing front-center and increasing clockwise.
type Speaker struct {
	Channel int
	Angle   float64
}

// StereoSpeakers is the standard two-speaker layout at +-30 degrees.
func StereoSpeakers() []Speaker {
	return []Speaker{
		{Channel: 0, Angle: -math.Pi / 6},
		{Channel: 1, Angle: math.Pi / 6},
	}
}

// SurroundPlayer extends SoundPlayer with a source azimuth and a speaker
// layout; it distributes its render across all channels itself using the
// selected PanMethod. A parent graph.Mixer still applies the node's Volume,
// and at a two-channel output also its stereo equal-power Pan, on top of
// that distribution.
type SurroundPlayer struct {
	*SoundPlayer

	mu       sync.Mutex
	speakers []Speaker
	method   PanMethod
	azimuth  float64 // source direction, radians, same convention as Speaker.Angle

	mixScratch []float32 // provider-channel-count scratch before spatialization
}

// NewSurround creates a SurroundPlayer over prov with the given speaker
// layout and panning method.
func NewSurround(name string, prov provider.Provider, speakers []Speaker, method PanMethod) *SurroundPlayer {
	return &SurroundPlayer{
		SoundPlayer: New(name, prov),
		speakers:    speakers,
		method:      method,
	}
}

// SetAzimuth sets the source's intended direction in radians.
func (s *SurroundPlayer) SetAzimuth(radians float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.azimuth = radians
}

// SetSpeakers replaces the speaker layout.
func (s *SurroundPlayer) SetSpeakers(speakers []Speaker) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.speakers = speakers
}

// gains returns the per-speaker gain for the current azimuth and method.
func (s *SurroundPlayer) gains() []float64 {
	switch s.method {
	case PanVBAP:
		return s.vbapGains()
	case PanConstantPower:
		return s.constantPowerGains()
	default:
		return s.linearGains()
	}
}

func (s *SurroundPlayer) linearGains() []float64 {
	gains := make([]float64, len(s.speakers))
	total := 0.0
	for i, sp := range s.speakers {
		d := angularDistance(s.azimuth, sp.Angle)
		g := math.Max(0, 1-d/math.Pi)
		gains[i] = g
		total += g
	}
	if total > 0 {
		for i := range gains {
			gains[i] /= total
		}
	}
	return gains
}

func (s *SurroundPlayer) constantPowerGains() []float64 {
	linear := s.linearGains()
	sumSq := 0.0
	for _, g := range linear {
		sumSq += g * g
	}
	if sumSq == 0 {
		return linear
	}
	norm := math.Sqrt(sumSq)
	for i := range linear {
		linear[i] /= norm
	}
	return linear
}

// vbapGains implements planar (2D) VBAP: find the two speakers straddling
// the source azimuth with the smallest combined angular span, and solve
// the 2x2 system for gains that place a unit-energy phantom source between
// them.
func (s *SurroundPlayer) vbapGains() []float64 {
	gains := make([]float64, len(s.speakers))
	if len(s.speakers) == 0 {
		return gains
	}
	if len(s.speakers) == 1 {
		gains[0] = 1
		return gains
	}

	// Order speaker indices by angle to find the bracketing pair.
	order := make([]int, len(s.speakers))
	for i := range order {
		order[i] = i
	}
	sortByAngle(order, s.speakers)

	left, right := -1, -1
	for i := 0; i < len(order); i++ {
		a := s.speakers[order[i]].Angle
		b := s.speakers[order[(i+1)%len(order)]].Angle
		if angleBetween(s.azimuth, a, b) {
			left, right = order[i], order[(i+1)%len(order)]
			break
		}
	}
	if left == -1 {
		// Azimuth didn't fall strictly inside any pair (wrap edge case);
		// default to the two nearest speakers.
		left, right = nearestTwo(s.azimuth, s.speakers)
	}

	p1, p2 := unitVector(s.speakers[left].Angle), unitVector(s.speakers[right].Angle)
	src := unitVector(s.azimuth)

	det := p1[0]*p2[1] - p2[0]*p1[1]
	if math.Abs(det) < 1e-9 {
		gains[left], gains[right] = 1, 1
	} else {
		g1 := (src[0]*p2[1] - src[1]*p2[0]) / det
		g2 := (p1[0]*src[1] - p1[1]*src[0]) / det
		norm := math.Sqrt(g1*g1 + g2*g2)
		if norm > 0 {
			g1, g2 = g1/norm, g2/norm
		}
		gains[left], gains[right] = math.Max(0, g1), math.Max(0, g2)
	}
	return gains
}

func unitVector(angle float64) [2]float64 {
	return [2]float64{math.Sin(angle), math.Cos(angle)}
}

func angularDistance(a, b float64) float64 {
	d := math.Mod(math.Abs(a-b), 2*math.Pi)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

func angleBetween(theta, a, b float64) bool {
	span := math.Mod(b-a+2*math.Pi, 2*math.Pi)
	rel := math.Mod(theta-a+2*math.Pi, 2*math.Pi)
	return rel <= span
}

func sortByAngle(order []int, speakers []Speaker) {
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && speakers[order[j]].Angle < speakers[order[j-1]].Angle; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}
}

func nearestTwo(azimuth float64, speakers []Speaker) (int, int) {
	bestI, bestD := 0, math.Inf(1)
	for i, sp := range speakers {
		d := angularDistance(azimuth, sp.Angle)
		if d < bestD {
			bestI, bestD = i, d
		}
	}
	secondI, secondD := -1, math.Inf(1)
	for i, sp := range speakers {
		if i == bestI {
			continue
		}
		d := angularDistance(azimuth, sp.Angle)
		if d < secondD {
			secondI, secondD = i, d
		}
	}
	if secondI == -1 {
		secondI = bestI
	}
	return bestI, secondI
}

// Render renders the mono/stereo source at the player's configured speed,
// downmixes to mono if needed, then spatializes across the speaker layout
// using the selected PanMethod. Volume is left to the parent mixer, as for
// every other node.
func (s *SurroundPlayer) Render(buf []float32, channels int) {
	if s.State() != StatePlaying {
		return
	}

	frames := len(buf) / channels
	if cap(s.mixScratch) < frames {
		s.mixScratch = make([]float32, frames)
	}
	mono := s.mixScratch[:frames]

	srcChannels := s.channelsOfProvider()
	wide := make([]float32, frames*srcChannels)
	var written int
	s.withLock(func() {
		if s.Mode() == ModePitchPreserve {
			written = s.stretchEngine.render(wide, srcChannels, s.nextFrame)
		} else {
			written = s.resampler.Process(wide, s.nextFrame)
		}
	})

	for i := 0; i < written; i++ {
		var sum float32
		for c := 0; c < srcChannels; c++ {
			sum += wide[i*srcChannels+c]
		}
		mono[i] = sum / float32(srcChannels)
	}

	s.mu.Lock()
	gains := s.gains()
	speakers := s.speakers
	s.mu.Unlock()

	for i := 0; i < written; i++ {
		for si, sp := range speakers {
			if sp.Channel < channels {
				buf[i*channels+sp.Channel] += mono[i] * float32(gains[si])
			}
		}
	}

	if written < frames {
		s.state.Store(int32(StateStopped))
		s.fireEnded()
	}
}

func (s *SurroundPlayer) channelsOfProvider() int { return s.SoundPlayer.channels }

func (s *SurroundPlayer) withLock(fn func()) {
	s.SoundPlayer.mu.Lock()
	defer s.SoundPlayer.mu.Unlock()
	fn()
}
