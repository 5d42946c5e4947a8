// Package reflection renders the frozen session summary as plain text for export.
package reflection

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// ErrNoSummary is returned when exporting before any session has stopped
var ErrNoSummary = errors.New("no session summary")

// Writer receives the rendered summary, e.g. the clipboard
type Writer interface {
	CopyText(text string) error
}

// Render formats sum in the translator's language
func Render(sum session.Summary, t *i18n.Translator) string {
	var b strings.Builder

	b.WriteString(t.Translate("summary.title"))
	b.WriteString("\n")

	line := func(key, value string) {
		fmt.Fprintf(&b, "%s: %s\n", t.Translate(key), value)
	}

	line("summary.session", sum.SessionID)
	if !sum.StartedAt.IsZero() {
		line("summary.duration", FormatDuration(sum.Duration()))
	}
	line("summary.green_zone", FormatPct(sum.GreenZonePct))
	line("summary.latency", FormatNumber(sum.MedianHintLatencyMs)+" ms")
	line("summary.acceptance", Acceptance(sum.CueAcceptancePct, sum.CueAcceptanceKnown, t))
	line("summary.talk_ratio", FormatPct(sum.TalkRatioPct))

	b.WriteString(t.TranslateWithFormat("summary.cues", map[string]string{
		"accepted": strconv.Itoa(sum.CueAccepted),
		"rejected": strconv.Itoa(sum.CueRejected),
		"emitted":  strconv.Itoa(sum.CuesEmitted),
	}))
	b.WriteString("\n")

	return b.String()
}

// Export renders sum and hands it to w
func Export(sum *session.Summary, t *i18n.Translator, w Writer) error {
	if sum == nil {
		return ErrNoSummary
	}
	if err := w.CopyText(Render(*sum, t)); err != nil {
		return fmt.Errorf("failed to export summary: %w", err)
	}
	return nil
}

// Acceptance formats the cue acceptance ratio, or the unknown marker before any response
func Acceptance(pct float64, known bool, t *i18n.Translator) string {
	if !known {
		return t.Translate("value.unknown")
	}
	return FormatPct(pct)
}

// FormatPct formats a percentage with at most one decimal place
func FormatPct(v float64) string {
	return FormatNumber(v) + "%"
}

// FormatNumber rounds to one decimal place and drops a trailing ".0"
func FormatNumber(v float64) string {
	r := math.Round(v*10) / 10
	if r == 0 {
		r = 0 // -0
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

// FormatDuration formats d to whole seconds, e.g. "4m5s"
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return d.Round(time.Second).String()
}
