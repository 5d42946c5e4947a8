package config

import (
	"math"

	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// Controls is the part of the session controller driven by the workspace toggles
type Controls interface {
	SetSimulateMode(v bool) error
	SetRulesOnlyMode(v bool) error
	SetAudioOnlyFallback(v bool) error
	SetCPUThrottle(v float64) error
}

// Toggles applies toggle changes made by the user and records them in the config file.
// Fallback states the session forces on itself are not routed here and stay in memory.
type Toggles struct {
	controls Controls
	config   func() *Config
	path     string
}

// NewToggles creates toggles writing to path. current returns the live configuration.
func NewToggles(controls Controls, current func() *Config, path string) *Toggles {
	return &Toggles{controls: controls, config: current, path: path}
}

// SetSimulate switches simulate mode
func (t *Toggles) SetSimulate(on bool) error {
	return t.apply(t.controls.SetSimulateMode(on), func(s *SessionConfig) { s.Simulate = on })
}

// SetRulesOnly switches rules-only mode
func (t *Toggles) SetRulesOnly(on bool) error {
	return t.apply(t.controls.SetRulesOnlyMode(on), func(s *SessionConfig) { s.RulesOnly = on })
}

// SetAudioOnly switches the audio-only fallback
func (t *Toggles) SetAudioOnly(on bool) error {
	return t.apply(t.controls.SetAudioOnlyFallback(on), func(s *SessionConfig) { s.AudioOnly = on })
}

// SetThrottle sets the CPU throttle, clamped like the session does
func (t *Toggles) SetThrottle(v float64) error {
	v = math.Max(session.MinCPUThrottle, math.Min(session.MaxCPUThrottle, v))
	return t.apply(t.controls.SetCPUThrottle(v), func(s *SessionConfig) { s.CPUThrottle = v })
}

func (t *Toggles) apply(err error, update func(*SessionConfig)) error {
	if err != nil {
		return err
	}
	return t.config().UpdateSession(t.path, update)
}
