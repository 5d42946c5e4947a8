package session

import (
	"time"

	"github.com/yok-tottii/EmpathyMirror/internal/capture"
)

// Phase represents the session recording phase
type Phase int

const (
	// PhaseIdle means no session has been recorded yet
	PhaseIdle Phase = iota
	// PhaseRecording means the coaching feed is running
	PhaseRecording
	// PhasePaused means recording is suspended, metrics and cue are kept
	PhasePaused
	// PhaseStopped means the session ended and a summary is available
	PhaseStopped
)

// String returns the string representation of the phase
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseRecording:
		return "Recording"
	case PhasePaused:
		return "Paused"
	case PhaseStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// Zone classifies a metric against its good band
type Zone int

const (
	ZoneGood Zone = iota
	ZoneWarn
)

// String returns the string representation of the zone
func (z Zone) String() string {
	switch z {
	case ZoneGood:
		return "good"
	case ZoneWarn:
		return "warn"
	default:
		return "unknown"
	}
}

// Tone is the coarse vocal tone estimate
type Tone int

const (
	ToneNeutral Tone = iota
	TonePositive
	ToneNegative
)

// String returns the string representation of the tone
func (t Tone) String() string {
	switch t {
	case ToneNeutral:
		return "neutral"
	case TonePositive:
		return "positive"
	case ToneNegative:
		return "negative"
	default:
		return "unknown"
	}
}

// Band is an inclusive [Min, Max] range considered good
type Band struct {
	Min float64
	Max float64
}

// Zone returns ZoneGood iff v lies within the band
func (b Band) Zone(v float64) Zone {
	if v >= b.Min && v <= b.Max {
		return ZoneGood
	}
	return ZoneWarn
}

// Bands holds the per-metric good bands. Gaze applies to both yaw and pitch.
type Bands struct {
	Pace   Band
	Volume Band
	Gaze   Band
}

// DefaultBands returns the fixed bands used until calibration can estimate real ones
func DefaultBands() Bands {
	return Bands{
		Pace:   Band{Min: 110, Max: 150},
		Volume: Band{Min: -24, Max: -12},
		Gaze:   Band{Min: -10, Max: 10},
	}
}

// Classify recomputes the zones of m
func (b Bands) Classify(m Metrics) Metrics {
	m.PaceZone = b.Pace.Zone(float64(m.Pace))
	m.VolumeZone = b.Volume.Zone(m.VolumeDB)
	if b.Gaze.Zone(m.GazeYaw) == ZoneGood && b.Gaze.Zone(m.GazePitch) == ZoneGood {
		m.GazeZone = ZoneGood
	} else {
		m.GazeZone = ZoneWarn
	}
	return m
}

// Metrics is one coaching sample
type Metrics struct {
	Pace       int // syllables per minute
	PaceZone   Zone
	VolumeDB   float64
	VolumeZone Zone
	GazeYaw    float64 // degrees
	GazePitch  float64 // degrees
	GazeZone   Zone
	Tone       Tone
}

// goodCount returns how many of the three zoned metrics are good
func (m Metrics) goodCount() int {
	n := 0
	for _, z := range []Zone{m.PaceZone, m.VolumeZone, m.GazeZone} {
		if z == ZoneGood {
			n++
		}
	}
	return n
}

// DefaultMetrics returns the resting values shown before the first tick
func DefaultMetrics() Metrics {
	return DefaultBands().Classify(Metrics{
		Pace:      138,
		VolumeDB:  -18,
		GazeYaw:   4,
		GazePitch: -3,
		Tone:      ToneNeutral,
	})
}

// Cue is a single coaching hint. At most one is live at a time.
type Cue struct {
	ID        string
	Text      string
	EmittedAt time.Time
}

// CaptureStatus mirrors what the capture manager currently holds
type CaptureStatus = capture.Status

// Summary is the frozen reflection of a stopped session
type Summary struct {
	SessionID           string
	StartedAt           time.Time
	StoppedAt           time.Time
	MedianHintLatencyMs float64
	TalkRatioPct        float64
	CueAcceptancePct    float64
	CueAcceptanceKnown  bool
	CueAccepted         int
	CueRejected         int
	CuesEmitted         int
	GreenZonePct        float64
}

// Duration returns the wall time between start and stop
func (s Summary) Duration() time.Duration {
	return s.StoppedAt.Sub(s.StartedAt)
}

// Snapshot is a read-only copy of the session state handed to display surfaces
type Snapshot struct {
	Version              uint64
	Phase                Phase
	Calibrating          bool
	CalibrationRemaining int
	CalibrationDone      bool // the last calibration ran to zero
	Config               Config
	Metrics              Metrics
	Cue                  *Cue
	MedianHintLatencyMs  float64
	TalkRatioPct         float64
	CueAcceptancePct     float64
	CueAcceptanceKnown   bool
	CueAccepted          int
	CueRejected          int
	CuesEmitted          int
	Capture              CaptureStatus
	Summary              *Summary
}
