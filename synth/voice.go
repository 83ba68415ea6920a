package synth

import (
	"math"

	"github.com/shaban/audioengine/dsp"
	"github.com/shaban/audioengine/dsp/biquad"
)

// Voice is a synthesizer's note-in-flight, grounded on
// _examples/other_examples/justyntemme-vst3go__voice.go's SynthVoice
// struct, generalized from a single oscillator to a unison stack plus an
// optional filter and filter envelope, and extended with per-note MPE
// expression state.
type Voice struct {
	Note     int
	Velocity int

	baseFrequency float64
	sampleRate    float64

	oscillators []*Oscillator
	unison      []UnisonLayer

	amp       ADSR
	filterOn  bool
	filterEnv ADSR
	filter    *biquad.Filter

	sustained bool // held by the sustain pedal, not yet released
	age       int64

	// MPE per-note expression, set only when the owning channel is in MPE
	// mode; zero otherwise.
	perNoteBend     float64 // semitones
	perNotePressure float64 // 0..1
	perNoteTimbre   float64 // 0..1 (CC#74)

	channelBend float64 // channel-wide pitch bend, semitones
}

// NewVoice constructs a voice from a resolved VoiceDefinition.
func NewVoice(note, velocity int, freq, sampleRate float64, def VoiceDefinition) *Voice {
	v := &Voice{
		Note:          note,
		Velocity:      velocity,
		baseFrequency: freq,
		sampleRate:    sampleRate,
		unison:        def.Unison,
		amp:           def.Amp,
		filterOn:      def.FilterOn,
		filterEnv:     def.FilterEnv,
	}
	for _, layer := range def.Unison {
		osc := NewOscillator(sampleRate)
		osc.Shape = def.Waveform
		v.oscillators = append(v.oscillators, osc)
	}
	if v.filterOn {
		coeffs := biquad.Design(biquad.LowPass, 1000, 0.707, sampleRate, 0)
		v.filter = biquad.NewFilter(coeffs, 2) // index 0 = left, 1 = right
	}
	v.amp.sampleRate = sampleRate
	v.filterEnv.sampleRate = sampleRate
	v.amp.Trigger()
	if v.filterOn {
		v.filterEnv.Trigger()
	}
	return v
}

// Active reports whether the voice's amplitude envelope has not yet
// finished releasing.
func (v *Voice) Active() bool { return !v.amp.Finished() }

// NoteOff begins release unless the voice is sustained by the pedal.
func (v *Voice) NoteOff() {
	if v.sustained {
		return
	}
	v.release()
}

func (v *Voice) release() {
	v.amp.Release()
	if v.filterOn {
		v.filterEnv.Release()
	}
}

// SetSustained marks the voice as held by the sustain pedal; while held,
// NoteOff does not release it. When the pedal goes up the Synth releases
// every active voice on the channel.
func (v *Voice) SetSustained(held bool) { v.sustained = held }

// SetPerNoteBend/Pressure/Timbre set this voice's MPE expression values,
// routed by the owning Synth's channel -> voice map (MPE reserves one
// active note per channel).
func (v *Voice) SetPerNoteBend(semitones float64)  { v.perNoteBend = semitones }
func (v *Voice) SetPerNotePressure(pressure float64) { v.perNotePressure = pressure }
func (v *Voice) SetPerNoteTimbre(timbre float64)   { v.perNoteTimbre = timbre }
func (v *Voice) SetChannelBend(semitones float64)  { v.channelBend = semitones }

// Render renders one block of this voice into buf (interleaved stereo),
// accumulating (not overwriting) into the channel's mixed output so
// every active voice contributes.
func (v *Voice) Render(buf []float32, frames int) {
	unisonCount := len(v.oscillators)
	if unisonCount == 0 {
		return
	}
	invSqrtN := float32(1 / math.Sqrt(float64(unisonCount)))

	for i := 0; i < frames; i++ {
		ampLevel := v.amp.Next()
		var filterEnvLevel float64
		if v.filterOn {
			filterEnvLevel = v.filterEnv.Next()
		}

		var left, right float32
		for li, osc := range v.oscillators {
			layer := v.unison[li]
			bendRatio := math.Pow(2, (v.perNoteBend+v.channelBend)/12)
			freq := v.baseFrequency * layer.DetuneRatio * bendRatio
			sample := float32(osc.Next(freq)) * invSqrtN

			l, r := dsp.EqualPowerPan(float64(layer.Pan))
			left += sample * float32(l)
			right += sample * float32(r)
		}

		if v.filterOn {
			cutoff := 200 + float64(v.Velocity)/127*4000 + v.perNotePressure*2000 + v.perNoteTimbre*3000 + filterEnvLevel*8000
			coeffs := biquad.Design(biquad.LowPass, cutoff, 0.707, v.sampleRate, 0)
			v.filter.SetCoefficients(coeffs)
			left = float32(v.filter.ProcessSample(float64(left), 0))
			right = float32(v.filter.ProcessSample(float64(right), 1))
		}

		buf[i*2] += left * float32(ampLevel)
		buf[i*2+1] += right * float32(ampLevel)
	}
	v.age += int64(frames)
}
