package tray

import (
	"bytes"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

func TestControls(t *testing.T) {
	cue := &session.Cue{ID: "c", Text: "Slow slightly"}
	sum := &session.Summary{SessionID: "s"}

	tests := []struct {
		name string
		snap session.Snapshot
		want MenuState
	}{
		{
			name: "idle",
			snap: session.Snapshot{Phase: session.PhaseIdle},
			want: MenuState{Record: true, Calibrate: true},
		},
		{
			name: "calibrating",
			snap: session.Snapshot{Phase: session.PhaseIdle, Calibrating: true, CalibrationRemaining: 9},
			want: MenuState{CancelCalibration: true},
		},
		{
			name: "recording with cue",
			snap: session.Snapshot{Phase: session.PhaseRecording, Cue: cue},
			want: MenuState{Pause: true, Stop: true, AcceptCue: true, RejectCue: true},
		},
		{
			name: "paused",
			snap: session.Snapshot{Phase: session.PhasePaused, Cue: cue},
			want: MenuState{Resume: true, Stop: true, AcceptCue: true, RejectCue: true},
		},
		{
			name: "stopped with summary",
			snap: session.Snapshot{Phase: session.PhaseStopped, Summary: sum},
			want: MenuState{Record: true, CopySummary: true},
		},
		{
			name: "toggles and throttle",
			snap: session.Snapshot{
				Phase:  session.PhaseStopped,
				Config: session.Config{Simulate: true, AudioOnly: true, CPUThrottle: 0.55},
			},
			want: MenuState{Record: true, Simulate: true, AudioOnly: true, Throttle: 55},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Controls(tt.snap))
		})
	}
}

func TestThrottleOption(t *testing.T) {
	assert.Equal(t, 20, throttleOption(0.2))
	assert.Equal(t, 100, throttleOption(1.0))
	assert.Equal(t, 70, throttleOption(0.7000001))
	assert.Equal(t, 0, throttleOption(0.33))
}

func TestStatus(t *testing.T) {
	en := i18n.NewDefaultTranslator(i18n.LanguageEnglish)

	assert.Equal(t, "Idle", Status(session.Snapshot{}, en))
	assert.Equal(t, "Recording", Status(session.Snapshot{Phase: session.PhaseRecording}, en))
	assert.Equal(t, "Paused", Status(session.Snapshot{Phase: session.PhasePaused}, en))
	assert.Equal(t, "Stopped", Status(session.Snapshot{Phase: session.PhaseStopped}, en))
	assert.Equal(t, "Calibrating… 12s",
		Status(session.Snapshot{Calibrating: true, CalibrationRemaining: 12}, en))

	ja := i18n.NewDefaultTranslator(i18n.LanguageJapanese)
	assert.Equal(t, "録音中", Status(session.Snapshot{Phase: session.PhaseRecording}, ja))
}

func TestTooltip(t *testing.T) {
	en := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	snap := session.Snapshot{
		Phase:               session.PhaseRecording,
		Metrics:             session.DefaultMetrics(),
		MedianHintLatencyMs: 320,
		TalkRatioPct:        62,
		Cue:                 &session.Cue{ID: "c", Text: "Slow slightly"},
	}

	lines := strings.Split(Tooltip(snap, en), "\n")
	assert.Equal(t, []string{
		"EmpathyMirror - Recording",
		"Pace 138 spm (good)",
		"Volume -18 dB (good)",
		"Gaze 4°/-3° (good)",
		"Tone neutral",
		"Hint latency 320 ms",
		"Talk ratio 62%",
		"Cue acceptance –",
		"» Slow slightly",
	}, lines)
}

func TestTooltip_WarnZonesAndAcceptance(t *testing.T) {
	en := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	m := session.DefaultBands().Classify(session.Metrics{Pace: 170, VolumeDB: -8, GazeYaw: 15, Tone: session.ToneNegative})
	snap := session.Snapshot{Metrics: m, CueAcceptancePct: 75, CueAcceptanceKnown: true}

	tip := Tooltip(snap, en)
	assert.Contains(t, tip, "Pace 170 spm (adjust)")
	assert.Contains(t, tip, "Volume -8 dB (adjust)")
	assert.Contains(t, tip, "Gaze 15°/0° (adjust)")
	assert.Contains(t, tip, "Tone negative")
	assert.Contains(t, tip, "Cue acceptance 75%")
	assert.NotContains(t, tip, "»")
}

func TestTitle(t *testing.T) {
	cue := &session.Cue{ID: "c", Text: "Lower volume a notch"}

	assert.Equal(t, "", Title(session.Snapshot{}))
	assert.Equal(t, "7s", Title(session.Snapshot{Calibrating: true, CalibrationRemaining: 7}))
	assert.Equal(t, "Lower volume a notch", Title(session.Snapshot{Phase: session.PhaseRecording, Cue: cue}))
	assert.Equal(t, "", Title(session.Snapshot{Phase: session.PhasePaused, Cue: cue}))
}

func TestDotIcon(t *testing.T) {
	data := dotIcon(iconColors[session.PhaseRecording])
	require.NotEmpty(t, data)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 16, img.Bounds().Dx())

	_, _, _, centerAlpha := img.At(8, 8).RGBA()
	_, _, _, cornerAlpha := img.At(0, 0).RGBA()
	assert.NotZero(t, centerAlpha)
	assert.Zero(t, cornerAlpha)
}

func TestLoadIcons_FallBack(t *testing.T) {
	icons := loadIcons(nopLogger{})

	for _, phase := range []session.Phase{session.PhaseIdle, session.PhaseRecording, session.PhasePaused, session.PhaseStopped} {
		assert.NotEmpty(t, icons[phase], phase.String())
	}
	assert.NotEqual(t, icons[session.PhaseIdle], icons[session.PhaseRecording])
}

func TestManager_UpdateBeforeReady(t *testing.T) {
	m := NewManager(Config{})

	// systray が起動する前はスナップショットを保持するだけ
	snap := session.Snapshot{Phase: session.PhaseRecording, Config: session.Config{Simulate: true}}
	m.Update(snap)

	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	assert.True(t, m.hasSnap)
	assert.Equal(t, session.PhaseRecording, m.snap.Phase)
	assert.False(t, m.ready)
}

func TestManager_DefaultsAndNilCallbacks(t *testing.T) {
	m := NewManager(Config{})
	require.NotNil(t, m.t)
	require.NotNil(t, m.log)

	// These should not panic even with nil callbacks
	call(m.config.OnRecord)
	toggle(m.config.OnSimulate, true)
}

func TestCallHelpers(t *testing.T) {
	called := false
	call(func() { called = true })
	assert.True(t, called)

	var got bool
	toggle(func(v bool) { got = v }, true)
	assert.True(t, got)
}
