package session

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRand replays fixed values. Float64 defaults to 0.5, a zero step.
type scriptedRand struct {
	ints   []int
	floats []float64
	i, f   int
}

func (r *scriptedRand) IntN(n int) int {
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[r.i%len(r.ints)] % n
	r.i++
	return v
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.5
	}
	v := r.floats[r.f%len(r.floats)]
	r.f++
	return v
}

var testEpoch = time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestSession(t *testing.T, cfg Config, r Rand) *Session {
	t.Helper()
	now := testEpoch
	return New(cfg,
		WithRand(r),
		WithIDs(sequentialIDs()),
		WithClock(func() time.Time {
			now = now.Add(time.Second)
			return now
		}),
	)
}

func fullThrottle() Config {
	cfg := DefaultConfig()
	cfg.CPUThrottle = 1
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.True(t, cfg.Simulate)
	assert.False(t, cfg.RulesOnly)
	assert.False(t, cfg.AudioOnly)
	assert.Equal(t, 0.55, cfg.CPUThrottle)
	assert.Equal(t, 4*time.Second, cfg.CueInterval)
}

func TestNew(t *testing.T) {
	s := newTestSession(t, Config{CPUThrottle: 3}, &scriptedRand{})
	snap := s.Snapshot()

	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.False(t, snap.Calibrating)
	assert.Nil(t, snap.Cue)
	assert.Nil(t, snap.Summary)
	assert.Equal(t, 320.0, snap.MedianHintLatencyMs)
	assert.Equal(t, 62.0, snap.TalkRatioPct)
	assert.False(t, snap.CueAcceptanceKnown)
	assert.Equal(t, DefaultMetrics(), snap.Metrics)
	assert.Equal(t, MaxCPUThrottle, snap.Config.CPUThrottle, "throttle should be clamped")
	assert.Equal(t, 4*time.Second, snap.Config.CueInterval, "zero interval should get the default")
}

func TestPhase_String(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected string
	}{
		{PhaseIdle, "Idle"},
		{PhaseRecording, "Recording"},
		{PhasePaused, "Paused"},
		{PhaseStopped, "Stopped"},
		{Phase(99), "Unknown"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, tt.phase.String())
	}
}

// toPhase drives a fresh session to the given phase
func toPhase(t *testing.T, p Phase) *Session {
	t.Helper()
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	switch p {
	case PhaseRecording:
		require.NoError(t, s.StartRecording())
	case PhasePaused:
		require.NoError(t, s.StartRecording())
		require.NoError(t, s.Pause())
	case PhaseStopped:
		require.NoError(t, s.StartRecording())
		require.NoError(t, s.Stop())
	}
	require.Equal(t, p, s.Snapshot().Phase)
	return s
}

func TestTransitions(t *testing.T) {
	ops := map[string]func(*Session) error{
		"StartRecording": (*Session).StartRecording,
		"Pause":          (*Session).Pause,
		"Resume":         (*Session).Resume,
		"Stop":           (*Session).Stop,
	}

	tests := []struct {
		from Phase
		op   string
		to   Phase
		ok   bool
	}{
		{PhaseIdle, "StartRecording", PhaseRecording, true},
		{PhaseIdle, "Pause", PhaseIdle, false},
		{PhaseIdle, "Resume", PhaseIdle, false},
		{PhaseIdle, "Stop", PhaseIdle, false},
		{PhaseRecording, "StartRecording", PhaseRecording, false},
		{PhaseRecording, "Pause", PhasePaused, true},
		{PhaseRecording, "Resume", PhaseRecording, false},
		{PhaseRecording, "Stop", PhaseStopped, true},
		{PhasePaused, "StartRecording", PhasePaused, false},
		{PhasePaused, "Pause", PhasePaused, false},
		{PhasePaused, "Resume", PhaseRecording, true},
		{PhasePaused, "Stop", PhaseStopped, true},
		{PhaseStopped, "StartRecording", PhaseRecording, true},
		{PhaseStopped, "Pause", PhaseStopped, false},
		{PhaseStopped, "Resume", PhaseStopped, false},
		{PhaseStopped, "Stop", PhaseStopped, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"/"+tt.op, func(t *testing.T) {
			s := toPhase(t, tt.from)
			before := s.Snapshot()

			err := ops[tt.op](s)
			after := s.Snapshot()

			assert.Equal(t, tt.to, after.Phase)
			if tt.ok {
				assert.NoError(t, err)
				assert.Greater(t, after.Version, before.Version)
				return
			}
			assert.ErrorIs(t, err, ErrInvalidTransition)
			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, tt.from, te.Phase)
			assert.Equal(t, before, after, "rejected op must not change state")
		})
	}
}

func TestStartRecording_TwiceIsNoop(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())
	before := s.Snapshot()

	err := s.StartRecording()

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, before, s.Snapshot())
}

func TestPause_KeepsMetricsAndCue(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{floats: []float64{1}})
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())
	running := s.Snapshot()

	require.NoError(t, s.Pause())
	paused := s.Snapshot()

	assert.Equal(t, running.Metrics, paused.Metrics)
	require.NotNil(t, paused.Cue)
	assert.Equal(t, running.Cue.ID, paused.Cue.ID)
	assert.ErrorIs(t, s.GeneratorTick(), ErrInvalidTransition, "paused sessions do not tick")
}

func TestCalibration_EndsAfterFifteenTicks(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartCalibration())

	snap := s.Snapshot()
	assert.True(t, snap.Calibrating)
	assert.Equal(t, CalibrationSeconds, snap.CalibrationRemaining)
	assert.Equal(t, PhaseIdle, snap.Phase)

	for i := 1; i < CalibrationSeconds; i++ {
		require.NoError(t, s.CalibrationTick())
		snap = s.Snapshot()
		require.True(t, snap.Calibrating, "still calibrating after %d ticks", i)
		require.Equal(t, CalibrationSeconds-i, snap.CalibrationRemaining)
	}

	require.NoError(t, s.CalibrationTick())
	snap = s.Snapshot()
	assert.False(t, snap.Calibrating)
	assert.True(t, snap.CalibrationDone)
	assert.Equal(t, 0, snap.CalibrationRemaining)
	assert.Equal(t, DefaultBands(), s.bands, "bands are unchanged")

	assert.ErrorIs(t, s.CalibrationTick(), ErrInvalidTransition)
}

func TestCalibration_Cancel(t *testing.T) {
	for k := 0; k < CalibrationSeconds; k += 5 {
		t.Run(fmt.Sprintf("after %d ticks", k), func(t *testing.T) {
			s := newTestSession(t, fullThrottle(), &scriptedRand{})
			require.NoError(t, s.StartCalibration())
			for i := 0; i < k; i++ {
				require.NoError(t, s.CalibrationTick())
			}

			require.NoError(t, s.CancelCalibration())
			snap := s.Snapshot()
			assert.False(t, snap.Calibrating)
			assert.False(t, snap.CalibrationDone)
			assert.Equal(t, PhaseIdle, snap.Phase)
		})
	}
}

func TestCalibration_OnlyFromIdle(t *testing.T) {
	for _, p := range []Phase{PhaseRecording, PhasePaused, PhaseStopped} {
		t.Run(p.String(), func(t *testing.T) {
			s := toPhase(t, p)
			assert.ErrorIs(t, s.StartCalibration(), ErrInvalidTransition)
			assert.False(t, s.Snapshot().Calibrating)
		})
	}

	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	assert.ErrorIs(t, s.CancelCalibration(), ErrInvalidTransition, "nothing to cancel")
	require.NoError(t, s.StartCalibration())
	assert.ErrorIs(t, s.StartCalibration(), ErrInvalidTransition, "already calibrating")
}

func TestCalibration_BlocksRecordingAndTicks(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartCalibration())

	err := s.StartRecording()
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Contains(t, err.Error(), "while calibrating")
	assert.ErrorIs(t, s.GeneratorTick(), ErrInvalidTransition)

	snap := s.Snapshot()
	assert.True(t, snap.Calibrating)
	assert.Equal(t, PhaseIdle, snap.Phase)
	assert.Equal(t, 0, snap.CuesEmitted)
}

func TestGeneratorTick_SingleLiveCue(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{ints: []int{0, 2}})
	require.NoError(t, s.StartRecording())

	require.NoError(t, s.GeneratorTick())
	first := s.Snapshot().Cue
	require.NotNil(t, first)
	assert.Equal(t, "Slow slightly", first.Text)

	require.NoError(t, s.GeneratorTick())
	snap := s.Snapshot()
	require.NotNil(t, snap.Cue)
	assert.Equal(t, "Turn toward camera briefly", snap.Cue.Text)
	assert.NotEqual(t, first.ID, snap.Cue.ID)
	assert.True(t, snap.Cue.EmittedAt.After(first.EmittedAt))
	assert.Equal(t, 2, snap.CuesEmitted)
}

func TestGeneratorTick_RandomWalk(t *testing.T) {
	// Float64 == 1 is a full positive step on every field; the last draw picks the tone
	s := newTestSession(t, fullThrottle(), &scriptedRand{floats: []float64{1}})
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())

	snap := s.Snapshot()
	assert.Equal(t, 360.0, snap.MedianHintLatencyMs)
	assert.Equal(t, 66.0, snap.TalkRatioPct)
	assert.Equal(t, 144, snap.Metrics.Pace)
	assert.Equal(t, -16.5, snap.Metrics.VolumeDB)
	assert.Equal(t, 7.0, snap.Metrics.GazeYaw)
	assert.Equal(t, 0.0, snap.Metrics.GazePitch)
	assert.Equal(t, ToneNegative, snap.Metrics.Tone)
	assert.Equal(t, ZoneGood, snap.Metrics.PaceZone)
	assert.Equal(t, ZoneGood, snap.Metrics.VolumeZone)
	assert.Equal(t, ZoneGood, snap.Metrics.GazeZone)
}

func TestGeneratorTick_ThrottleScalesJitter(t *testing.T) {
	cfg := DefaultConfig()
	cfg.CPUThrottle = 0.5
	s := newTestSession(t, cfg, &scriptedRand{floats: []float64{1}})
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())

	snap := s.Snapshot()
	assert.Equal(t, 340.0, snap.MedianHintLatencyMs)
	assert.Equal(t, 64.0, snap.TalkRatioPct)
	assert.Equal(t, 141, snap.Metrics.Pace)
}

func TestGeneratorTick_Clamps(t *testing.T) {
	// Float64 == 0 walks every field down as far as it goes
	s := newTestSession(t, fullThrottle(), &scriptedRand{floats: []float64{0}})
	require.NoError(t, s.StartRecording())
	for i := 0; i < 100; i++ {
		require.NoError(t, s.GeneratorTick())
	}

	snap := s.Snapshot()
	assert.Equal(t, 180.0, snap.MedianHintLatencyMs)
	assert.Equal(t, 0.0, snap.TalkRatioPct)
	assert.Equal(t, 60, snap.Metrics.Pace)
	assert.Equal(t, -60.0, snap.Metrics.VolumeDB)
	assert.Equal(t, -45.0, snap.Metrics.GazeYaw)
	assert.Equal(t, -45.0, snap.Metrics.GazePitch)
	assert.Equal(t, ToneNeutral, snap.Metrics.Tone)
	assert.Equal(t, ZoneWarn, snap.Metrics.PaceZone)
	assert.Equal(t, ZoneWarn, snap.Metrics.VolumeZone)
	assert.Equal(t, ZoneWarn, snap.Metrics.GazeZone)

	s2 := newTestSession(t, fullThrottle(), &scriptedRand{floats: []float64{1}})
	require.NoError(t, s2.StartRecording())
	for i := 0; i < 100; i++ {
		require.NoError(t, s2.GeneratorTick())
	}
	snap = s2.Snapshot()
	assert.Equal(t, 2000.0, snap.MedianHintLatencyMs)
	assert.Equal(t, 100.0, snap.TalkRatioPct)
	assert.Equal(t, 220, snap.Metrics.Pace)
	assert.Equal(t, 0.0, snap.Metrics.VolumeDB)
	assert.Equal(t, 45.0, snap.Metrics.GazeYaw)
}

func TestGeneratorTick_ToneThresholds(t *testing.T) {
	tests := []struct {
		draw float64
		want Tone
	}{
		{0.1, ToneNeutral},
		{0.79, ToneNeutral},
		{0.85, TonePositive},
		{0.95, ToneNegative},
	}

	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			// six neutral steps, then the tone draw
			r := &scriptedRand{floats: []float64{0.5, 0.5, 0.5, 0.5, 0.5, 0.5, tt.draw}}
			s := newTestSession(t, fullThrottle(), r)
			require.NoError(t, s.StartRecording())
			require.NoError(t, s.GeneratorTick())
			assert.Equal(t, tt.want, s.Snapshot().Metrics.Tone)
		})
	}
}

func TestGeneratorTick_SimulateOffKeepsMetrics(t *testing.T) {
	cfg := fullThrottle()
	cfg.Simulate = false
	s := newTestSession(t, cfg, &scriptedRand{floats: []float64{1}})
	require.NoError(t, s.StartRecording())
	before := s.Snapshot()

	require.NoError(t, s.GeneratorTick())
	after := s.Snapshot()

	assert.NotNil(t, after.Cue, "cues are emitted regardless of simulate mode")
	assert.Equal(t, before.Metrics, after.Metrics)
	assert.Equal(t, before.MedianHintLatencyMs, after.MedianHintLatencyMs)
	assert.Equal(t, before.TalkRatioPct, after.TalkRatioPct)
}

func TestCueResponses(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartRecording())

	assert.ErrorIs(t, s.AcceptCue(), ErrInvalidTransition, "no live cue")
	assert.ErrorIs(t, s.RejectCue(), ErrInvalidTransition, "no live cue")
	assert.False(t, s.Snapshot().CueAcceptanceKnown)

	respond := []func() error{s.AcceptCue, s.AcceptCue, s.RejectCue, s.AcceptCue}
	for _, r := range respond {
		require.NoError(t, s.GeneratorTick())
		require.NoError(t, r())
		assert.Nil(t, s.Snapshot().Cue, "responding clears the cue")
	}

	snap := s.Snapshot()
	assert.True(t, snap.CueAcceptanceKnown)
	assert.Equal(t, 75.0, snap.CueAcceptancePct)
	assert.Equal(t, 3, snap.CueAccepted)
	assert.Equal(t, 1, snap.CueRejected)

	// 応答済みのキューには二度応答できない
	assert.ErrorIs(t, s.AcceptCue(), ErrInvalidTransition)
	assert.Equal(t, 3, s.Snapshot().CueAccepted)
}

func TestStop_Summary(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartRecording())
	for _, accept := range []bool{true, true, false, true} {
		require.NoError(t, s.GeneratorTick())
		if accept {
			require.NoError(t, s.AcceptCue())
		} else {
			require.NoError(t, s.RejectCue())
		}
	}
	require.NoError(t, s.GeneratorTick())

	require.NoError(t, s.Stop())
	snap := s.Snapshot()

	assert.Equal(t, PhaseStopped, snap.Phase)
	assert.Nil(t, snap.Cue)
	require.NotNil(t, snap.Summary)
	sum := snap.Summary
	assert.Equal(t, 75.0, sum.CueAcceptancePct)
	assert.True(t, sum.CueAcceptanceKnown)
	assert.Equal(t, 5, sum.CuesEmitted)
	assert.Equal(t, 100.0, sum.GreenZonePct, "resting values sit in every band")
	assert.Equal(t, 320.0, sum.MedianHintLatencyMs)
	assert.Equal(t, 62.0, sum.TalkRatioPct)
	assert.Equal(t, "id-1", sum.SessionID)
	assert.True(t, sum.Duration() > 0)
}

func TestStop_GreenZone(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	s.walk.metrics.Pace = 200 // pace out of band, volume and gaze in band
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())
	require.NoError(t, s.GeneratorTick())
	require.NoError(t, s.Stop())

	sum := s.Snapshot().Summary
	require.NotNil(t, sum)
	assert.InDelta(t, 66.67, sum.GreenZonePct, 0.01)
}

func TestStop_WithoutTicks(t *testing.T) {
	s := toPhase(t, PhaseStopped)
	sum := s.Snapshot().Summary
	require.NotNil(t, sum)
	assert.Equal(t, 0.0, sum.GreenZonePct)
	assert.False(t, sum.CueAcceptanceKnown)
	assert.Equal(t, 0, sum.CuesEmitted)
}

func TestStartRecording_ClearsPreviousSession(t *testing.T) {
	s := newTestSession(t, fullThrottle(), &scriptedRand{})
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())
	require.NoError(t, s.AcceptCue())
	require.NoError(t, s.Stop())
	first := s.Snapshot().Summary
	require.NotNil(t, first)

	require.NoError(t, s.StartRecording())
	snap := s.Snapshot()

	assert.Nil(t, snap.Summary)
	assert.Nil(t, snap.Cue)
	assert.Equal(t, 0, snap.CuesEmitted)
	assert.False(t, snap.CueAcceptanceKnown)
	assert.Equal(t, "id-1", first.SessionID, "the frozen summary is not touched")
}

func TestSetters(t *testing.T) {
	s := toPhase(t, PhaseRecording)

	s.SetSimulateMode(false)
	s.SetRulesOnlyMode(true)
	s.SetAudioOnlyFallback(true)
	s.SetCueInterval(time.Second)

	snap := s.Snapshot()
	assert.Equal(t, PhaseRecording, snap.Phase, "setters never touch the phase")
	assert.False(t, snap.Config.Simulate)
	assert.True(t, snap.Config.RulesOnly)
	assert.True(t, snap.Config.AudioOnly)
	assert.Equal(t, time.Second, snap.Config.CueInterval)

	v := s.Version()
	s.SetRulesOnlyMode(true)
	assert.Equal(t, v, s.Version(), "unchanged value does not bump the version")

	s.SetCueInterval(0)
	assert.Equal(t, 4*time.Second, s.Snapshot().Config.CueInterval)
}

func TestSetCPUThrottle(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.1, 0.2},
		{0.2, 0.2},
		{0.7, 0.7},
		{1, 1},
		{5, 1},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.in), func(t *testing.T) {
			s := newTestSession(t, DefaultConfig(), &scriptedRand{})
			s.SetCPUThrottle(tt.in)
			assert.Equal(t, tt.want, s.Snapshot().Config.CPUThrottle)
		})
	}
}

func TestFallBackToSimulation(t *testing.T) {
	cfg := fullThrottle()
	cfg.Simulate = false
	s := newTestSession(t, cfg, &scriptedRand{floats: []float64{1}})
	require.NoError(t, s.StartRecording())

	s.fallBackToSimulation()
	snap := s.Snapshot()

	assert.True(t, snap.Config.Simulate)
	assert.True(t, snap.Config.RulesOnly)
	assert.Equal(t, 360.0, snap.MedianHintLatencyMs, "the tick's values come from the generator")
}

func TestApplyExternal(t *testing.T) {
	s := toPhase(t, PhaseRecording)
	s.applyExternal(Metrics{Pace: 190, VolumeDB: -30, GazeYaw: 0, GazePitch: 0, Tone: TonePositive})

	m := s.Snapshot().Metrics
	assert.Equal(t, 190, m.Pace)
	assert.Equal(t, ZoneWarn, m.PaceZone)
	assert.Equal(t, ZoneWarn, m.VolumeZone)
	assert.Equal(t, ZoneGood, m.GazeZone)
}

func TestGreenZone_CountsServiceValues(t *testing.T) {
	cfg := fullThrottle()
	cfg.Simulate = false
	s := newTestSession(t, cfg, &scriptedRand{})
	require.NoError(t, s.StartRecording())

	// the tick itself is not counted until its values arrive
	require.NoError(t, s.GeneratorTick())
	assert.Equal(t, 0, s.totalSamples)

	// pace and volume out of band, gaze in band
	s.applyExternal(Metrics{Pace: 190, VolumeDB: -30})
	assert.Equal(t, 3, s.totalSamples)

	require.NoError(t, s.Stop())
	assert.InDelta(t, 33.33, s.Snapshot().Summary.GreenZonePct, 0.01)
}

func TestGreenZone_CountsFallbackValues(t *testing.T) {
	cfg := fullThrottle()
	cfg.Simulate = false
	s := newTestSession(t, cfg, &scriptedRand{})
	require.NoError(t, s.StartRecording())

	require.NoError(t, s.GeneratorTick())
	s.fallBackToSimulation()

	assert.Equal(t, 3, s.totalSamples, "counted once, after the simulated values replace the tick")
	assert.Equal(t, s.walk.metrics.goodCount(), s.goodSamples)
}

func TestGreenZone_SettleAfterSimulateSwitch(t *testing.T) {
	cfg := fullThrottle()
	cfg.Simulate = false
	s := newTestSession(t, cfg, &scriptedRand{})
	require.NoError(t, s.StartRecording())

	require.NoError(t, s.GeneratorTick())
	s.SetSimulateMode(true)
	s.settleSample()
	require.NoError(t, s.GeneratorTick())

	assert.Equal(t, 6, s.totalSamples)
}

func TestSnapshot_IsCopy(t *testing.T) {
	s := toPhase(t, PhaseRecording)
	require.NoError(t, s.GeneratorTick())

	snap := s.Snapshot()
	snap.Cue.Text = "changed"

	assert.NotEqual(t, "changed", s.Snapshot().Cue.Text)
}

func TestWithCueTexts(t *testing.T) {
	s := New(fullThrottle(), WithRand(&scriptedRand{}), WithCueTexts([]string{"ゆっくり"}))
	require.NoError(t, s.StartRecording())
	require.NoError(t, s.GeneratorTick())

	assert.Equal(t, "ゆっくり", s.Snapshot().Cue.Text)
}

func TestBands(t *testing.T) {
	b := DefaultBands()

	assert.Equal(t, ZoneGood, b.Pace.Zone(110))
	assert.Equal(t, ZoneGood, b.Pace.Zone(150))
	assert.Equal(t, ZoneWarn, b.Pace.Zone(151))
	assert.Equal(t, ZoneWarn, b.Volume.Zone(-11.9))

	m := b.Classify(Metrics{Pace: 120, VolumeDB: -20, GazeYaw: 2, GazePitch: 11})
	assert.Equal(t, ZoneWarn, m.GazeZone, "pitch alone can leave the band")
}

func TestTransitionError(t *testing.T) {
	err := &TransitionError{Op: "pause", Phase: PhaseIdle}
	assert.Equal(t, "invalid transition: pause from Idle", err.Error())
	assert.True(t, errors.Is(err, ErrInvalidTransition))

	cal := &TransitionError{Op: "startRecording", Phase: PhaseIdle, Calibrating: true}
	assert.Equal(t, "invalid transition: startRecording while calibrating in Idle", cal.Error())
}
