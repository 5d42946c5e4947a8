package audio

// InputDevice represents an audio input device
type InputDevice struct {
	ID        int
	Name      string
	IsDefault bool
}

// LatencyMode defines the latency priority
type LatencyMode int

const (
	// LowLatency prioritizes low latency (live coaching)
	LowLatency LatencyMode = iota
	// HighStability prioritizes stability (larger buffer)
	HighStability
)

// String returns the string representation of the latency mode
func (m LatencyMode) String() string {
	switch m {
	case LowLatency:
		return "LowLatency"
	case HighStability:
		return "HighStability"
	default:
		return "Unknown"
	}
}

// Config holds microphone stream configuration
type Config struct {
	DeviceID   int
	SampleRate int
	Channels   int
	Latency    LatencyMode
}

// DefaultConfig returns the default microphone configuration
// Sample rate: 16kHz
// Channels: 1 (mono)
// Latency: LowLatency
func DefaultConfig() Config {
	return Config{
		DeviceID:   -1, // -1 means use default device
		SampleRate: 16000,
		Channels:   1,
		Latency:    LowLatency,
	}
}

// Authorizer reports OS media permissions.
// *permissions.PermissionChecker satisfies it.
type Authorizer interface {
	IsMicrophoneAuthorized() bool
	IsCameraAuthorized() bool
}

// AllowAll grants every permission; for platforms without a permission prompt
type AllowAll struct{}

// IsMicrophoneAuthorized returns true
func (AllowAll) IsMicrophoneAuthorized() bool { return true }

// IsCameraAuthorized returns true
func (AllowAll) IsCameraAuthorized() bool { return true }
