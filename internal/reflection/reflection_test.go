package reflection

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

type bufferWriter struct {
	text string
	err  error
}

func (w *bufferWriter) CopyText(text string) error {
	if w.err != nil {
		return w.err
	}
	w.text = text
	return nil
}

func sampleSummary() session.Summary {
	start := time.Date(2026, 10, 14, 9, 0, 0, 0, time.UTC)
	return session.Summary{
		SessionID:           "sess-1",
		StartedAt:           start,
		StoppedAt:           start.Add(4*time.Minute + 5*time.Second),
		MedianHintLatencyMs: 312.4,
		TalkRatioPct:        61.96,
		CueAcceptancePct:    75,
		CueAcceptanceKnown:  true,
		CueAccepted:         3,
		CueRejected:         1,
		CuesEmitted:         6,
		GreenZonePct:        66.666,
	}
}

func TestRender_English(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)

	want := "Session reflection\n" +
		"Session: sess-1\n" +
		"Duration: 4m5s\n" +
		"Green-zone coverage: 66.7%\n" +
		"Median hint latency: 312.4 ms\n" +
		"Cue acceptance: 75%\n" +
		"Talk ratio: 62%\n" +
		"Cues (3 accepted, 1 dismissed, 6 shown)\n"

	assert.Equal(t, want, Render(sampleSummary(), tr))
}

func TestRender_Japanese(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageJapanese)

	text := Render(sampleSummary(), tr)
	assert.Contains(t, text, "セッションの振り返り\n")
	assert.Contains(t, text, "グリーンゾーン率: 66.7%\n")
	assert.Contains(t, text, "ヒント (採用 3 / 却下 1 / 表示 6)\n")
}

func TestRender_UnknownAcceptance(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	sum := sampleSummary()
	sum.CueAcceptanceKnown = false
	sum.CueAcceptancePct = 0

	assert.Contains(t, Render(sum, tr), "Cue acceptance: –\n")
}

func TestRender_NoStartTimeSkipsDuration(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)

	text := Render(session.Summary{SessionID: "x"}, tr)
	assert.NotContains(t, text, "Duration")
	assert.Contains(t, text, "Green-zone coverage: 0%\n")
}

func TestExport(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	sum := sampleSummary()
	w := &bufferWriter{}

	require.NoError(t, Export(&sum, tr, w))
	assert.Equal(t, Render(sum, tr), w.text)
}

func TestExport_NoSummary(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	w := &bufferWriter{}

	assert.ErrorIs(t, Export(nil, tr, w), ErrNoSummary)
	assert.Empty(t, w.text)
}

func TestExport_WriterError(t *testing.T) {
	tr := i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	sum := sampleSummary()
	boom := errors.New("pasteboard locked")

	assert.ErrorIs(t, Export(&sum, tr, &bufferWriter{err: boom}), boom)
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{-0.01, "0"},
		{100, "100"},
		{66.666, "66.7"},
		{-16.5, "-16.5"},
		{320.04, "320"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "0s", FormatDuration(-time.Second))
	assert.Equal(t, "1m30s", FormatDuration(90*time.Second+200*time.Millisecond))
}
