package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/yok-tottii/EmpathyMirror/internal/logger"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// EnvPrefix is the prefix of environment overrides, e.g. EMPATHYMIRROR_SESSION_SIMULATE=false
const EnvPrefix = "EMPATHYMIRROR"

// Cue interval bounds in milliseconds
const (
	MinCueIntervalMs = 1000
	MaxCueIntervalMs = 60000
)

// Config holds application configuration
type Config struct {
	Session       SessionConfig `json:"session" mapstructure:"session"`
	Bands         BandsConfig   `json:"bands" mapstructure:"bands"`
	Hotkey        HotkeyConfig  `json:"hotkey" mapstructure:"hotkey"`
	UILanguage    string        `json:"ui_language" mapstructure:"ui_language"` // "ja" or "en"
	LogLevel      string        `json:"log_level" mapstructure:"log_level"`
	AudioDeviceID int           `json:"audio_device_id" mapstructure:"audio_device_id"`
	mu            sync.RWMutex
}

// SessionConfig holds the workspace toggles restored at startup
type SessionConfig struct {
	Simulate      bool    `json:"simulate" mapstructure:"simulate"`
	RulesOnly     bool    `json:"rules_only" mapstructure:"rules_only"`
	AudioOnly     bool    `json:"audio_only" mapstructure:"audio_only"`
	CPUThrottle   float64 `json:"cpu_throttle" mapstructure:"cpu_throttle"`
	CueIntervalMs int     `json:"cue_interval_ms" mapstructure:"cue_interval_ms"`
}

// BandsConfig holds the good ranges used for zone classification
type BandsConfig struct {
	PaceMin   float64 `json:"pace_min" mapstructure:"pace_min"`
	PaceMax   float64 `json:"pace_max" mapstructure:"pace_max"`
	VolumeMin float64 `json:"volume_min" mapstructure:"volume_min"`
	VolumeMax float64 `json:"volume_max" mapstructure:"volume_max"`
	GazeLimit float64 `json:"gaze_limit" mapstructure:"gaze_limit"` // degrees, applies to yaw and pitch
}

// HotkeyConfig holds hotkey configuration
type HotkeyConfig struct {
	Ctrl  bool   `json:"ctrl" mapstructure:"ctrl"`
	Shift bool   `json:"shift" mapstructure:"shift"`
	Alt   bool   `json:"alt" mapstructure:"alt"`
	Cmd   bool   `json:"cmd" mapstructure:"cmd"`
	Key   string `json:"key" mapstructure:"key"` // e.g., "Space"
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Session: SessionConfig{
			Simulate:      true,
			CPUThrottle:   0.55,
			CueIntervalMs: 4000,
		},
		Bands: BandsConfig{
			PaceMin:   110,
			PaceMax:   150,
			VolumeMin: -24,
			VolumeMax: -12,
			GazeLimit: 10,
		},
		Hotkey: HotkeyConfig{
			Ctrl: true,
			Alt:  true,
			Key:  "Space",
		},
		UILanguage:    "ja",
		LogLevel:      "info",
		AudioDeviceID: -1, // -1 means use system default device
	}
}

// setDefaults registers every key so environment overrides reach Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("session.simulate", d.Session.Simulate)
	v.SetDefault("session.rules_only", d.Session.RulesOnly)
	v.SetDefault("session.audio_only", d.Session.AudioOnly)
	v.SetDefault("session.cpu_throttle", d.Session.CPUThrottle)
	v.SetDefault("session.cue_interval_ms", d.Session.CueIntervalMs)
	v.SetDefault("bands.pace_min", d.Bands.PaceMin)
	v.SetDefault("bands.pace_max", d.Bands.PaceMax)
	v.SetDefault("bands.volume_min", d.Bands.VolumeMin)
	v.SetDefault("bands.volume_max", d.Bands.VolumeMax)
	v.SetDefault("bands.gaze_limit", d.Bands.GazeLimit)
	v.SetDefault("hotkey.ctrl", d.Hotkey.Ctrl)
	v.SetDefault("hotkey.shift", d.Hotkey.Shift)
	v.SetDefault("hotkey.alt", d.Hotkey.Alt)
	v.SetDefault("hotkey.cmd", d.Hotkey.Cmd)
	v.SetDefault("hotkey.key", d.Hotkey.Key)
	v.SetDefault("ui_language", d.UILanguage)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("audio_device_id", d.AudioDeviceID)
}

// Load loads configuration from the specified path.
// A missing file yields the defaults; environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// ホットキー設定の検証と修正
	if config.Hotkey.Key == "" {
		config.Hotkey.Key = "Space" // デフォルト値で補完
	}

	return config, nil
}

// Save saves configuration to the specified path
func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigDir returns the application support directory
func GetConfigDir() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, "Library", "Application Support", "EmpathyMirror")
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	return filepath.Join(GetConfigDir(), "config.json")
}

// UpdateSession applies a change to the workspace toggles and saves the file
func (c *Config) UpdateSession(path string, update func(*SessionConfig)) error {
	c.mu.Lock()
	update(&c.Session)
	c.mu.Unlock()

	return c.Save(path)
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return &Config{
		Session:       c.Session,
		Bands:         c.Bands,
		Hotkey:        c.Hotkey,
		UILanguage:    c.UILanguage,
		LogLevel:      c.LogLevel,
		AudioDeviceID: c.AudioDeviceID,
	}
}

// CueInterval returns the generator cadence
func (c *Config) CueInterval() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return time.Duration(c.Session.CueIntervalMs) * time.Millisecond
}

// ToSession builds the session configuration and bands
func (c *Config) ToSession() (session.Config, session.Bands) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cfg := session.Config{
		Simulate:    c.Session.Simulate,
		RulesOnly:   c.Session.RulesOnly,
		AudioOnly:   c.Session.AudioOnly,
		CPUThrottle: c.Session.CPUThrottle,
		CueInterval: time.Duration(c.Session.CueIntervalMs) * time.Millisecond,
	}
	bands := session.Bands{
		Pace:   session.Band{Min: c.Bands.PaceMin, Max: c.Bands.PaceMax},
		Volume: session.Band{Min: c.Bands.VolumeMin, Max: c.Bands.VolumeMax},
		Gaze:   session.Band{Min: -c.Bands.GazeLimit, Max: c.Bands.GazeLimit},
	}
	return cfg, bands
}

// Validate validates all configuration fields
func (c *Config) Validate() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.Session.CPUThrottle < session.MinCPUThrottle || c.Session.CPUThrottle > session.MaxCPUThrottle {
		return fmt.Errorf("invalid cpu_throttle: %v (must be between %v and %v)",
			c.Session.CPUThrottle, session.MinCPUThrottle, session.MaxCPUThrottle)
	}

	if c.Session.CueIntervalMs < MinCueIntervalMs || c.Session.CueIntervalMs > MaxCueIntervalMs {
		return fmt.Errorf("invalid cue_interval_ms: %d (must be between %d and %d)",
			c.Session.CueIntervalMs, MinCueIntervalMs, MaxCueIntervalMs)
	}

	if c.Bands.PaceMin >= c.Bands.PaceMax {
		return fmt.Errorf("invalid pace band: %v..%v", c.Bands.PaceMin, c.Bands.PaceMax)
	}
	if c.Bands.VolumeMin >= c.Bands.VolumeMax {
		return fmt.Errorf("invalid volume band: %v..%v", c.Bands.VolumeMin, c.Bands.VolumeMax)
	}
	if c.Bands.GazeLimit <= 0 || c.Bands.GazeLimit > 45 {
		return fmt.Errorf("invalid gaze_limit: %v (must be between 0 and 45 degrees)", c.Bands.GazeLimit)
	}

	if c.UILanguage != "ja" && c.UILanguage != "en" {
		return fmt.Errorf("invalid ui_language: %s (must be 'ja' or 'en')", c.UILanguage)
	}

	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log_level: %w", err)
	}

	if c.Hotkey.Key == "" {
		return fmt.Errorf("hotkey key cannot be empty")
	}

	return nil
}
