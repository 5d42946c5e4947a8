package tray

import (
	"strconv"
	"strings"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/reflection"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// ThrottleOptions are the CPU throttle choices offered in the menu, in percent
var ThrottleOptions = []int{20, 40, 55, 70, 85, 100}

// MenuState is the enablement and check state of every menu item
type MenuState struct {
	Record            bool
	Pause             bool
	Resume            bool
	Stop              bool
	Calibrate         bool
	CancelCalibration bool
	AcceptCue         bool
	RejectCue         bool
	CopySummary       bool

	Simulate  bool
	RulesOnly bool
	AudioOnly bool
	Throttle  int // checked option in ThrottleOptions, 0 if none matches
}

// Controls derives the menu state from a snapshot
func Controls(s session.Snapshot) MenuState {
	idleOrStopped := s.Phase == session.PhaseIdle || s.Phase == session.PhaseStopped

	return MenuState{
		Record:            idleOrStopped && !s.Calibrating,
		Pause:             s.Phase == session.PhaseRecording,
		Resume:            s.Phase == session.PhasePaused,
		Stop:              s.Phase == session.PhaseRecording || s.Phase == session.PhasePaused,
		Calibrate:         s.Phase == session.PhaseIdle && !s.Calibrating,
		CancelCalibration: s.Calibrating,
		AcceptCue:         s.Cue != nil,
		RejectCue:         s.Cue != nil,
		CopySummary:       s.Summary != nil,

		Simulate:  s.Config.Simulate,
		RulesOnly: s.Config.RulesOnly,
		AudioOnly: s.Config.AudioOnly,
		Throttle:  throttleOption(s.Config.CPUThrottle),
	}
}

// throttleOption returns the menu option matching v, or 0
func throttleOption(v float64) int {
	pct := int(v*100 + 0.5)
	for _, opt := range ThrottleOptions {
		if opt == pct {
			return opt
		}
	}
	return 0
}

// Status returns the one-line status shown next to the icon
func Status(s session.Snapshot, t *i18n.Translator) string {
	if s.Calibrating {
		return t.TranslateWithFormat("status.calibrating", map[string]string{
			"seconds": strconv.Itoa(s.CalibrationRemaining),
		})
	}

	switch s.Phase {
	case session.PhaseRecording:
		return t.Translate("status.recording")
	case session.PhasePaused:
		return t.Translate("status.paused")
	case session.PhaseStopped:
		return t.Translate("status.stopped")
	default:
		return t.Translate("status.idle")
	}
}

// Tooltip renders the live metrics, one per line
func Tooltip(s session.Snapshot, t *i18n.Translator) string {
	m := s.Metrics
	zone := func(z session.Zone) string { return t.Translate("zone." + z.String()) }

	lines := []string{
		"EmpathyMirror - " + Status(s, t),
		t.TranslateWithFormat("metrics.pace", map[string]string{
			"value": strconv.Itoa(m.Pace),
			"zone":  zone(m.PaceZone),
		}),
		t.TranslateWithFormat("metrics.volume", map[string]string{
			"value": reflection.FormatNumber(m.VolumeDB),
			"zone":  zone(m.VolumeZone),
		}),
		t.TranslateWithFormat("metrics.gaze", map[string]string{
			"yaw":   reflection.FormatNumber(m.GazeYaw),
			"pitch": reflection.FormatNumber(m.GazePitch),
			"zone":  zone(m.GazeZone),
		}),
		t.TranslateWithFormat("metrics.tone", map[string]string{
			"value": t.Translate("tone." + m.Tone.String()),
		}),
		t.TranslateWithFormat("metrics.latency", map[string]string{
			"value": reflection.FormatNumber(s.MedianHintLatencyMs),
		}),
		t.TranslateWithFormat("metrics.talk", map[string]string{
			"value": reflection.FormatNumber(s.TalkRatioPct),
		}),
		t.TranslateWithFormat("metrics.accept", map[string]string{
			"value": reflection.Acceptance(s.CueAcceptancePct, s.CueAcceptanceKnown, t),
		}),
	}
	if s.Cue != nil {
		lines = append(lines, "» "+s.Cue.Text)
	}

	return strings.Join(lines, "\n")
}

// Title returns the short menubar title: the countdown while calibrating,
// the live cue while recording, nothing otherwise
func Title(s session.Snapshot) string {
	switch {
	case s.Calibrating:
		return strconv.Itoa(s.CalibrationRemaining) + "s"
	case s.Phase == session.PhaseRecording && s.Cue != nil:
		return s.Cue.Text
	default:
		return ""
	}
}
