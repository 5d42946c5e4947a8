package session

import (
	"time"

	"github.com/google/uuid"
)

// CalibrationSeconds is the fixed length of the baseline capture
const CalibrationSeconds = 15

// CPU throttle bounds
const (
	MinCPUThrottle = 0.2
	MaxCPUThrottle = 1.0
)

// Config collapses the workspace toggles into one value
type Config struct {
	Simulate    bool
	RulesOnly   bool
	AudioOnly   bool
	CPUThrottle float64 // scales simulated jitter only
	CueInterval time.Duration
}

// DefaultConfig returns the default session configuration
func DefaultConfig() Config {
	return Config{
		Simulate:    true,
		CPUThrottle: 0.55,
		CueInterval: 4 * time.Second,
	}
}

func clampThrottle(v float64) float64 {
	return clamp(v, MinCPUThrottle, MaxCPUThrottle)
}

// Session is the workspace state machine. It is not safe for concurrent use;
// the Controller owns one and drives it from a single goroutine.
type Session struct {
	phase                Phase
	calibrating          bool
	calibrationRemaining int
	calibrationDone      bool
	config               Config
	bands                Bands

	walk sample
	cue  *Cue

	accepted     int
	rejected     int
	cuesEmitted  int
	goodSamples  int
	totalSamples int

	capture   CaptureStatus
	summary   *Summary
	sessionID string
	startedAt time.Time

	gen     *generator
	now     func() time.Time
	newID   func() string
	version uint64
}

// Option configures a Session
type Option func(*options)

type options struct {
	rand  Rand
	cues  []string
	bands Bands
	now   func() time.Time
	newID func() string
}

// WithRand injects the random source
func WithRand(r Rand) Option {
	return func(o *options) { o.rand = r }
}

// WithCueTexts replaces the cue catalog
func WithCueTexts(texts []string) Option {
	return func(o *options) { o.cues = append([]string(nil), texts...) }
}

// WithBands replaces the good bands
func WithBands(b Bands) Option {
	return func(o *options) { o.bands = b }
}

// WithClock injects the clock used for cue and summary timestamps
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithIDs injects the id generator for cues and sessions
func WithIDs(newID func() string) Option {
	return func(o *options) { o.newID = newID }
}

// New creates an idle session
func New(config Config, opts ...Option) *Session {
	o := options{
		bands: DefaultBands(),
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.rand == nil {
		o.rand = NewRand()
	}

	config.CPUThrottle = clampThrottle(config.CPUThrottle)
	if config.CueInterval <= 0 {
		config.CueInterval = DefaultConfig().CueInterval
	}

	return &Session{
		phase:  PhaseIdle,
		config: config,
		bands:  o.bands,
		walk: sample{
			metrics:   o.bands.Classify(DefaultMetrics()),
			latencyMs: 320,
			talkPct:   62,
		},
		gen:   newGenerator(o.rand, o.cues),
		now:   o.now,
		newID: o.newID,
	}
}

func (s *Session) invalid(op string) error {
	return &TransitionError{Op: op, Phase: s.phase, Calibrating: s.calibrating}
}

func (s *Session) changed() {
	s.version++
}

// StartRecording begins a new session from Idle or Stopped
func (s *Session) StartRecording() error {
	if (s.phase != PhaseIdle && s.phase != PhaseStopped) || s.calibrating {
		return s.invalid("startRecording")
	}

	s.phase = PhaseRecording
	s.summary = nil
	s.cue = nil
	s.accepted = 0
	s.rejected = 0
	s.cuesEmitted = 0
	s.goodSamples = 0
	s.totalSamples = 0
	s.sessionID = s.newID()
	s.startedAt = s.now()
	s.changed()
	return nil
}

// Pause suspends recording. Metrics and the live cue are kept.
func (s *Session) Pause() error {
	if s.phase != PhaseRecording {
		return s.invalid("pause")
	}
	s.phase = PhasePaused
	s.changed()
	return nil
}

// Resume continues a paused session
func (s *Session) Resume() error {
	if s.phase != PhasePaused {
		return s.invalid("resume")
	}
	s.phase = PhaseRecording
	s.changed()
	return nil
}

// Stop ends the session and freezes the summary
func (s *Session) Stop() error {
	if s.phase != PhaseRecording && s.phase != PhasePaused {
		return s.invalid("stop")
	}

	s.phase = PhaseStopped
	s.cue = nil

	green := 0.0
	if s.totalSamples > 0 {
		green = clampPct(100 * float64(s.goodSamples) / float64(s.totalSamples))
	}
	pct, known := s.acceptance()
	s.summary = &Summary{
		SessionID:           s.sessionID,
		StartedAt:           s.startedAt,
		StoppedAt:           s.now(),
		MedianHintLatencyMs: s.walk.latencyMs,
		TalkRatioPct:        s.walk.talkPct,
		CueAcceptancePct:    pct,
		CueAcceptanceKnown:  known,
		CueAccepted:         s.accepted,
		CueRejected:         s.rejected,
		CuesEmitted:         s.cuesEmitted,
		GreenZonePct:        green,
	}
	s.changed()
	return nil
}

// StartCalibration begins the 15 second baseline countdown. Idle only.
func (s *Session) StartCalibration() error {
	if s.phase != PhaseIdle || s.calibrating {
		return s.invalid("startCalibration")
	}
	s.calibrating = true
	s.calibrationRemaining = CalibrationSeconds
	s.calibrationDone = false
	s.changed()
	return nil
}

// CancelCalibration ends calibration early
func (s *Session) CancelCalibration() error {
	if !s.calibrating {
		return s.invalid("cancelCalibration")
	}
	s.calibrating = false
	s.calibrationRemaining = 0
	s.changed()
	return nil
}

// CalibrationTick advances the countdown by one second.
// At zero calibration ends; the bands stay as they are since no baseline is captured.
func (s *Session) CalibrationTick() error {
	if !s.calibrating {
		return s.invalid("calibrationTick")
	}
	s.calibrationRemaining--
	if s.calibrationRemaining <= 0 {
		s.calibrationRemaining = 0
		s.calibrating = false
		s.calibrationDone = true
	}
	s.changed()
	return nil
}

// GeneratorTick emits a new cue and, in simulate mode, perturbs the metrics
func (s *Session) GeneratorTick() error {
	if s.phase != PhaseRecording || s.calibrating {
		return s.invalid("generatorTick")
	}

	// 新しいキューは前のキューを置き換える
	s.cue = &Cue{
		ID:        s.newID(),
		Text:      s.gen.nextCue(),
		EmittedAt: s.now(),
	}
	s.cuesEmitted++

	// 外部サービスの値は onSample で確定してから数える
	if s.config.Simulate {
		s.walk = s.gen.perturb(s.walk, s.config.CPUThrottle)
		s.classify()
		s.countSample()
	}
	s.changed()
	return nil
}

// classify recomputes zones
func (s *Session) classify() {
	s.walk.metrics = s.bands.Classify(s.walk.metrics)
}

// countSample adds the tick's final values to the green-zone tally
func (s *Session) countSample() {
	s.goodSamples += s.walk.metrics.goodCount()
	s.totalSamples += 3
}

// AcceptCue records that the user acted on the live cue
func (s *Session) AcceptCue() error {
	if s.cue == nil {
		return s.invalid("acceptCue")
	}
	s.cue = nil
	s.accepted++
	s.changed()
	return nil
}

// RejectCue records that the user dismissed the live cue
func (s *Session) RejectCue() error {
	if s.cue == nil {
		return s.invalid("rejectCue")
	}
	s.cue = nil
	s.rejected++
	s.changed()
	return nil
}

// acceptance returns the acceptance percentage and whether any response exists
func (s *Session) acceptance() (float64, bool) {
	total := s.accepted + s.rejected
	if total == 0 {
		return 0, false
	}
	return clampPct(100 * float64(s.accepted) / float64(total)), true
}

// SetSimulateMode toggles synthetic metrics; applies on the next tick
func (s *Session) SetSimulateMode(v bool) {
	if s.config.Simulate != v {
		s.config.Simulate = v
		s.changed()
	}
}

// SetRulesOnlyMode toggles rules-only coaching
func (s *Session) SetRulesOnlyMode(v bool) {
	if s.config.RulesOnly != v {
		s.config.RulesOnly = v
		s.changed()
	}
}

// SetAudioOnlyFallback toggles the audio-only fallback
func (s *Session) SetAudioOnlyFallback(v bool) {
	if s.config.AudioOnly != v {
		s.config.AudioOnly = v
		s.changed()
	}
}

// SetCPUThrottle sets the jitter scale, clamped to [0.2, 1.0]
func (s *Session) SetCPUThrottle(v float64) {
	v = clampThrottle(v)
	if s.config.CPUThrottle != v {
		s.config.CPUThrottle = v
		s.changed()
	}
}

// SetCueInterval changes the generator cadence. Non-positive values restore the default.
func (s *Session) SetCueInterval(d time.Duration) {
	if d <= 0 {
		d = DefaultConfig().CueInterval
	}
	if s.config.CueInterval != d {
		s.config.CueInterval = d
		s.changed()
	}
}

// applyExternal takes the tick's metric values from an external service
func (s *Session) applyExternal(m Metrics) {
	s.walk.metrics = s.bands.Classify(m)
	s.countSample()
	s.changed()
}

// settleSample counts a tick whose service request was overtaken by
// simulate mode being switched on. The current values stand for the tick.
func (s *Session) settleSample() {
	s.countSample()
	s.changed()
}

// fallBackToSimulation is used when the metric service fails: the session
// switches to rules-only simulated coaching and this tick's values are synthesized.
func (s *Session) fallBackToSimulation() {
	s.config.RulesOnly = true
	s.config.Simulate = true
	if s.phase == PhaseRecording {
		s.walk = s.gen.perturb(s.walk, s.config.CPUThrottle)
		s.classify()
		s.countSample()
	}
	s.changed()
}

// forceSimulate is the last step of the capture fallback chain
func (s *Session) forceSimulate() {
	if !s.config.Simulate {
		s.config.Simulate = true
		s.changed()
	}
}

func (s *Session) setCapture(st CaptureStatus) {
	if s.capture != st {
		s.capture = st
		s.changed()
	}
}

// Version increases on every state change
func (s *Session) Version() uint64 {
	return s.version
}

// Snapshot returns a copy of the current state
func (s *Session) Snapshot() Snapshot {
	pct, known := s.acceptance()
	snap := Snapshot{
		Version:              s.version,
		Phase:                s.phase,
		Calibrating:          s.calibrating,
		CalibrationRemaining: s.calibrationRemaining,
		CalibrationDone:      s.calibrationDone,
		Config:               s.config,
		Metrics:              s.walk.metrics,
		MedianHintLatencyMs:  s.walk.latencyMs,
		TalkRatioPct:         s.walk.talkPct,
		CueAcceptancePct:     pct,
		CueAcceptanceKnown:   known,
		CueAccepted:          s.accepted,
		CueRejected:          s.rejected,
		CuesEmitted:          s.cuesEmitted,
		Capture:              s.capture,
	}
	if s.cue != nil {
		c := *s.cue
		snap.Cue = &c
	}
	if s.summary != nil {
		sum := *s.summary
		snap.Summary = &sum
	}
	return snap
}
