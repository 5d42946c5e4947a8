package notification

import (
	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// Sender posts notifications
type Sender interface {
	Send(n *Notification) error
}

// Logger is the subset of the application logger used here
type Logger interface {
	Warn(format string, v ...interface{})
}

// Notifier turns session snapshot changes into notifications:
// the cue bubble, capture and service fallbacks, and calibration completion.
type Notifier struct {
	sender Sender
	t      *i18n.Translator
	log    Logger
	prev   session.Snapshot
	primed bool
}

// NewNotifier creates a notifier posting through sender
func NewNotifier(sender Sender, t *i18n.Translator, log Logger) *Notifier {
	return &Notifier{sender: sender, t: t, log: log}
}

// Diff returns the notifications caused by moving from prev to next
func Diff(prev, next session.Snapshot, t *i18n.Translator) []Notification {
	var out []Notification

	if next.Cue != nil && (prev.Cue == nil || prev.Cue.ID != next.Cue.ID) {
		out = append(out, Notification{
			Title:   t.Translate("notification.cue_title"),
			Message: next.Cue.Text,
			Type:    TypeInfo,
		})
	}

	// フォールバックはキャプチャ失敗と同じイベントで反映されるため、
	// その時点でキャプチャは非アクティブになっている
	if !prev.Config.AudioOnly && next.Config.AudioOnly && !next.Capture.Active {
		out = append(out, Notification{
			Message: t.Translate("notification.audio_only"),
			Type:    TypeWarning,
		})
	}

	simulateOn := !prev.Config.Simulate && next.Config.Simulate
	rulesOn := !prev.Config.RulesOnly && next.Config.RulesOnly
	switch {
	case simulateOn && rulesOn:
		out = append(out, Notification{
			Message: t.Translate("notification.rules_only"),
			Type:    TypeWarning,
		})
	case simulateOn && !next.Capture.Active:
		out = append(out, Notification{
			Message: t.Translate("notification.simulated"),
			Type:    TypeWarning,
		})
	}

	if !prev.CalibrationDone && next.CalibrationDone {
		out = append(out, Notification{
			Message: t.Translate("notification.calibrated"),
			Type:    TypeSuccess,
		})
	}

	return out
}

// Observe sends the notifications for snap. The first snapshot only primes the notifier.
func (n *Notifier) Observe(snap session.Snapshot) int {
	if !n.primed {
		n.prev = snap
		n.primed = true
		return 0
	}

	notes := Diff(n.prev, snap, n.t)
	n.prev = snap

	for i := range notes {
		if err := n.sender.Send(&notes[i]); err != nil && n.log != nil {
			n.log.Warn("notification failed: %v", err)
		}
	}
	return len(notes)
}

// Run observes snapshots until the channel is closed
func (n *Notifier) Run(snaps <-chan session.Snapshot) {
	for snap := range snaps {
		n.Observe(snap)
	}
}

// SummaryExported tells the user the summary is on the clipboard
func (n *Notifier) SummaryExported() error {
	return n.sender.Send(&Notification{
		Message: n.t.Translate("notification.summary_copied"),
		Type:    TypeSuccess,
	})
}

// NoSummary tells the user there is nothing to export yet
func (n *Notifier) NoSummary() error {
	return n.sender.Send(&Notification{
		Message: n.t.Translate("notification.no_summary"),
		Type:    TypeInfo,
	})
}

// Error posts a localized error message
func (n *Notifier) Error(key string) error {
	return n.sender.Send(&Notification{
		Message: n.t.Translate(key),
		Type:    TypeError,
	})
}
