package synth

// EnvStage is an ADSR envelope's current phase.
type EnvStage int

const (
	StageIdle EnvStage = iota
	StageAttack
	StageDecay
	StageSustain
	StageRelease
	StageFinished
)

// ADSR is a linear-segment attack/decay/sustain/release envelope, grounded
// on _examples/other_examples/justyntemme-vst3go__voice.go's
// envelope.ADSR collaborator, generalized here to release from whatever
// level the envelope is currently at rather than from SustainLevel.
type ADSR struct {
	AttackSeconds  float64
	DecaySeconds   float64
	SustainLevel   float64
	ReleaseSeconds float64

	sampleRate float64
	stage      EnvStage
	level      float64
	releaseFrom float64
	elapsed    float64
}

// NewADSR creates an envelope for the given sample rate with sane
// defaults (10ms attack, 100ms decay, full sustain, 200ms release).
func NewADSR(sampleRate float64) *ADSR {
	return &ADSR{
		AttackSeconds:  0.01,
		DecaySeconds:   0.1,
		SustainLevel:   1.0,
		ReleaseSeconds: 0.2,
		sampleRate:     sampleRate,
	}
}

// Trigger starts (or restarts) the attack stage.
func (e *ADSR) Trigger() {
	e.stage = StageAttack
	e.elapsed = 0
}

// Release starts the release stage from whatever level the envelope is
// currently at — not from SustainLevel — so a note released mid-decay
// does not jump volume.
func (e *ADSR) Release() {
	if e.stage == StageIdle || e.stage == StageFinished {
		return
	}
	e.releaseFrom = e.level
	e.stage = StageRelease
	e.elapsed = 0
}

// Finished reports whether the envelope has completed its release and the
// voice holding it is eligible for destruction.
func (e *ADSR) Finished() bool { return e.stage == StageFinished }

// Level returns the envelope's current output level without advancing it.
func (e *ADSR) Level() float64 { return e.level }

// Next advances the envelope by one sample and returns its new level.
func (e *ADSR) Next() float64 {
	dt := 1.0 / e.sampleRate
	switch e.stage {
	case StageAttack:
		if e.AttackSeconds <= 0 {
			e.level = 1
			e.stage = StageDecay
			e.elapsed = 0
			break
		}
		e.elapsed += dt
		e.level = e.elapsed / e.AttackSeconds
		if e.level >= 1 {
			e.level = 1
			e.stage = StageDecay
			e.elapsed = 0
		}
	case StageDecay:
		if e.DecaySeconds <= 0 {
			e.level = e.SustainLevel
			e.stage = StageSustain
			break
		}
		e.elapsed += dt
		t := e.elapsed / e.DecaySeconds
		if t >= 1 {
			e.level = e.SustainLevel
			e.stage = StageSustain
		} else {
			e.level = 1 + t*(e.SustainLevel-1)
		}
	case StageSustain:
		e.level = e.SustainLevel
	case StageRelease:
		if e.ReleaseSeconds <= 0 {
			e.level = 0
			e.stage = StageFinished
			break
		}
		e.elapsed += dt
		t := e.elapsed / e.ReleaseSeconds
		if t >= 1 {
			e.level = 0
			e.stage = StageFinished
		} else {
			e.level = e.releaseFrom * (1 - t)
		}
	case StageFinished, StageIdle:
		e.level = 0
	}
	return e.level
}

// NextBlock advances the envelope n samples, writing each level into out.
func (e *ADSR) NextBlock(out []float64) {
	for i := range out {
		out[i] = e.Next()
	}
}
