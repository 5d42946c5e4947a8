package session

import (
	"math"
	"math/rand/v2"
	"time"
)

// Rand is the pseudo-random source behind cue selection and metric jitter.
// *rand.Rand from math/rand/v2 satisfies it.
type Rand interface {
	IntN(n int) int
	Float64() float64
}

// NewRand returns a time-seeded source
func NewRand() Rand {
	seed := uint64(time.Now().UnixNano())
	return rand.New(rand.NewPCG(seed, seed>>1|1))
}

// DefaultCueTexts is the fallback cue catalog when no localized set is supplied
func DefaultCueTexts() []string {
	return []string{
		"Slow slightly",
		"Lower volume a notch",
		"Turn toward camera briefly",
	}
}

// Walk limits. A step is uniform in [-scale, +scale) multiplied by the CPU throttle.
const (
	latencyStepMs  = 40.0
	latencyFloorMs = 180.0
	latencyCeilMs  = 2000.0

	talkStepPct = 4.0

	paceStep = 6.0
	paceMin  = 60
	paceMax  = 220

	volumeStepDB = 1.5
	volumeMinDB  = -60.0
	volumeMaxDB  = 0.0

	gazeStepDeg  = 3.0
	gazeLimitDeg = 45.0
)

// sample is the walk state the generator perturbs
type sample struct {
	metrics   Metrics
	latencyMs float64
	talkPct   float64
}

// generator picks cues and perturbs the simulated sample.
// Draw order per tick: cue, latency, talk, pace, volume, yaw, pitch, tone.
type generator struct {
	rand Rand
	cues []string
}

func newGenerator(r Rand, cues []string) *generator {
	if len(cues) == 0 {
		cues = DefaultCueTexts()
	}
	return &generator{rand: r, cues: cues}
}

// nextCue returns one cue text chosen uniformly
func (g *generator) nextCue() string {
	return g.cues[g.rand.IntN(len(g.cues))]
}

// step returns a bounded jitter scaled by throttle
func (g *generator) step(scale, throttle float64) float64 {
	return (g.rand.Float64()*2 - 1) * scale * throttle
}

// perturb applies one random-walk step to every simulated field
func (g *generator) perturb(s sample, throttle float64) sample {
	s.latencyMs = clamp(s.latencyMs+g.step(latencyStepMs, throttle), latencyFloorMs, latencyCeilMs)
	s.talkPct = clampPct(s.talkPct + g.step(talkStepPct, throttle))

	m := s.metrics
	pace := math.Round(float64(m.Pace) + g.step(paceStep, throttle))
	m.Pace = int(clamp(pace, paceMin, paceMax))
	m.VolumeDB = round1(clamp(m.VolumeDB+g.step(volumeStepDB, throttle), volumeMinDB, volumeMaxDB))
	m.GazeYaw = round1(clamp(m.GazeYaw+g.step(gazeStepDeg, throttle), -gazeLimitDeg, gazeLimitDeg))
	m.GazePitch = round1(clamp(m.GazePitch+g.step(gazeStepDeg, throttle), -gazeLimitDeg, gazeLimitDeg))

	switch f := g.rand.Float64(); {
	case f < 0.8:
		m.Tone = ToneNeutral
	case f < 0.9:
		m.Tone = TonePositive
	default:
		m.Tone = ToneNegative
	}

	s.metrics = m
	return s
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampPct(v float64) float64 {
	return clamp(v, 0, 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
