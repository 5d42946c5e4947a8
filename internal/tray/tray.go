package tray

import (
	"context"
	"strconv"
	"sync"

	"github.com/getlantern/systray"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
)

// Logger is the subset of the application logger used by the tray
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
}

// Config holds tray manager configuration
type Config struct {
	Translator *i18n.Translator
	Logger     Logger

	OnReady func() // Called when systray is ready for initialization

	OnRecord            func()
	OnPause             func()
	OnResume            func()
	OnStop              func()
	OnCalibrate         func()
	OnCancelCalibration func()
	OnAcceptCue         func()
	OnRejectCue         func()

	OnSimulate  func(on bool)
	OnRulesOnly func(on bool)
	OnAudioOnly func(on bool)
	OnThrottle  func(v float64)

	OnDeviceChange func(deviceID int) // Called when user selects a device
	OnCopySummary  func()
	OnPrivacy      func()
	OnHelp         func()
	OnQuit         func()
}

// Device represents an audio device for the menu
type Device struct {
	ID        int
	Name      string
	IsDefault bool
	IsCurrent bool
}

// Manager manages the system tray icon and menu
type Manager struct {
	config Config
	t      *i18n.Translator
	log    Logger
	icons  map[session.Phase][]byte

	stateMutex sync.RWMutex
	ready      bool
	snap       session.Snapshot
	hasSnap    bool
	menu       MenuState
	phase      session.Phase
	iconSet    bool

	menuRecord        *systray.MenuItem
	menuPause         *systray.MenuItem
	menuResume        *systray.MenuItem
	menuStop          *systray.MenuItem
	menuCalibrate     *systray.MenuItem
	menuCancelCalib   *systray.MenuItem
	menuAcceptCue     *systray.MenuItem
	menuRejectCue     *systray.MenuItem
	menuSimulate      *systray.MenuItem
	menuRulesOnly     *systray.MenuItem
	menuAudioOnly     *systray.MenuItem
	menuThrottle      *systray.MenuItem
	throttleItems     map[int]*systray.MenuItem
	menuDevices       *systray.MenuItem // Parent menu for device selection
	menuCopySummary   *systray.MenuItem
	menuPrivacy       *systray.MenuItem
	menuHelp          *systray.MenuItem
	menuQuit          *systray.MenuItem
	deviceMenuItems   []*systray.MenuItem  // Device submenu items
	deviceCancelFuncs []context.CancelFunc // Cancel functions for device menu goroutines
	done              chan struct{}
}

// NewManager creates a new tray manager
func NewManager(config Config) *Manager {
	if config.Translator == nil {
		config.Translator = i18n.NewDefaultTranslator(i18n.LanguageEnglish)
	}
	if config.Logger == nil {
		config.Logger = nopLogger{}
	}

	return &Manager{
		config: config,
		t:      config.Translator,
		log:    config.Logger,
		icons:  loadIcons(config.Logger),
		done:   make(chan struct{}),
	}
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// onReady is called when systray is ready
func (m *Manager) onReady() {
	tr := m.t.Translate

	m.menuRecord = systray.AddMenuItem(tr("menu.record"), "")
	m.menuPause = systray.AddMenuItem(tr("menu.pause"), "")
	m.menuResume = systray.AddMenuItem(tr("menu.resume"), "")
	m.menuStop = systray.AddMenuItem(tr("menu.stop"), "")

	systray.AddSeparator()

	m.menuCalibrate = systray.AddMenuItem(tr("menu.calibrate"), "")
	m.menuCancelCalib = systray.AddMenuItem(tr("menu.cancel_calibration"), "")
	m.menuAcceptCue = systray.AddMenuItem(tr("menu.accept_cue"), "")
	m.menuRejectCue = systray.AddMenuItem(tr("menu.reject_cue"), "")

	systray.AddSeparator()

	m.menuSimulate = systray.AddMenuItemCheckbox(tr("menu.simulate"), "", false)
	m.menuRulesOnly = systray.AddMenuItemCheckbox(tr("menu.rules_only"), "", false)
	m.menuAudioOnly = systray.AddMenuItemCheckbox(tr("menu.audio_only"), "", false)
	m.menuThrottle = systray.AddMenuItem(tr("menu.throttle"), "")
	m.throttleItems = make(map[int]*systray.MenuItem, len(ThrottleOptions))
	for _, pct := range ThrottleOptions {
		label := m.t.TranslateWithFormat("menu.throttle_option", map[string]string{"pct": strconv.Itoa(pct)})
		item := m.menuThrottle.AddSubMenuItemCheckbox(label, "", false)
		m.throttleItems[pct] = item
		go m.handleThrottle(pct, item)
	}
	m.menuDevices = systray.AddMenuItem(tr("menu.devices"), "")

	systray.AddSeparator()

	m.menuCopySummary = systray.AddMenuItem(tr("menu.copy_summary"), "")
	m.menuPrivacy = systray.AddMenuItem(tr("menu.privacy_settings"), "")
	m.menuHelp = systray.AddMenuItem(tr("menu.help"), "")
	m.menuQuit = systray.AddMenuItem(tr("menu.quit"), "")

	m.stateMutex.Lock()
	m.ready = true
	snap, hasSnap := m.snap, m.hasSnap
	m.stateMutex.Unlock()

	if !hasSnap {
		snap = session.Snapshot{Metrics: session.DefaultMetrics()}
	}
	m.Update(snap)

	go m.handleMenuEvents()

	// Call the OnReady callback if provided
	if m.config.OnReady != nil {
		m.config.OnReady()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {
	m.stopDeviceHandlers()
}

// handleMenuEvents handles menu item clicks
func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuRecord.ClickedCh:
			call(m.config.OnRecord)
		case <-m.menuPause.ClickedCh:
			call(m.config.OnPause)
		case <-m.menuResume.ClickedCh:
			call(m.config.OnResume)
		case <-m.menuStop.ClickedCh:
			call(m.config.OnStop)
		case <-m.menuCalibrate.ClickedCh:
			call(m.config.OnCalibrate)
		case <-m.menuCancelCalib.ClickedCh:
			call(m.config.OnCancelCalibration)
		case <-m.menuAcceptCue.ClickedCh:
			call(m.config.OnAcceptCue)
		case <-m.menuRejectCue.ClickedCh:
			call(m.config.OnRejectCue)
		case <-m.menuSimulate.ClickedCh:
			toggle(m.config.OnSimulate, !m.currentMenu().Simulate)
		case <-m.menuRulesOnly.ClickedCh:
			toggle(m.config.OnRulesOnly, !m.currentMenu().RulesOnly)
		case <-m.menuAudioOnly.ClickedCh:
			toggle(m.config.OnAudioOnly, !m.currentMenu().AudioOnly)
		case <-m.menuCopySummary.ClickedCh:
			call(m.config.OnCopySummary)
		case <-m.menuPrivacy.ClickedCh:
			call(m.config.OnPrivacy)
		case <-m.menuHelp.ClickedCh:
			call(m.config.OnHelp)
		case <-m.menuQuit.ClickedCh:
			call(m.config.OnQuit)
			close(m.done)
			systray.Quit()
			return
		}
	}
}

// handleThrottle forwards clicks on one throttle option
func (m *Manager) handleThrottle(pct int, item *systray.MenuItem) {
	for {
		select {
		case <-item.ClickedCh:
			if m.config.OnThrottle != nil {
				m.config.OnThrottle(float64(pct) / 100)
			}
		case <-m.done:
			return
		}
	}
}

func (m *Manager) currentMenu() MenuState {
	m.stateMutex.RLock()
	defer m.stateMutex.RUnlock()
	return m.menu
}

// Update renders a snapshot: icon, title, tooltip and menu state.
// Before the tray is ready the snapshot is kept and applied in onReady.
func (m *Manager) Update(s session.Snapshot) {
	m.stateMutex.Lock()
	m.snap, m.hasSnap = s, true
	if !m.ready {
		m.stateMutex.Unlock()
		return
	}
	m.menu = Controls(s)
	phaseChanged := !m.iconSet || m.phase != s.Phase
	m.phase, m.iconSet = s.Phase, true
	ms := m.menu
	m.stateMutex.Unlock()

	if phaseChanged {
		systray.SetIcon(m.icons[s.Phase])
	}
	systray.SetTitle(Title(s))
	systray.SetTooltip(Tooltip(s, m.t))

	setEnabled(m.menuRecord, ms.Record)
	setEnabled(m.menuPause, ms.Pause)
	setEnabled(m.menuResume, ms.Resume)
	setEnabled(m.menuStop, ms.Stop)
	setEnabled(m.menuCalibrate, ms.Calibrate)
	setEnabled(m.menuCancelCalib, ms.CancelCalibration)
	setEnabled(m.menuAcceptCue, ms.AcceptCue)
	setEnabled(m.menuRejectCue, ms.RejectCue)
	setEnabled(m.menuCopySummary, ms.CopySummary)

	setChecked(m.menuSimulate, ms.Simulate)
	setChecked(m.menuRulesOnly, ms.RulesOnly)
	setChecked(m.menuAudioOnly, ms.AudioOnly)
	for pct, item := range m.throttleItems {
		setChecked(item, pct == ms.Throttle)
	}
}

// Follow renders every snapshot from the channel until it is closed
func (m *Manager) Follow(snaps <-chan session.Snapshot) {
	for s := range snaps {
		m.Update(s)
	}
}

// UpdateDeviceMenu updates the device submenu with available devices
func (m *Manager) UpdateDeviceMenu(devices []Device) {
	m.stopDeviceHandlers()

	// Remove existing device menu items
	for _, item := range m.deviceMenuItems {
		item.Hide()
	}
	m.deviceMenuItems = nil

	for _, device := range devices {
		prefix := ""
		if device.IsCurrent {
			prefix = "✓ "
		}

		tooltip := ""
		if device.IsDefault {
			tooltip = m.t.Translate("menu.default_device")
		}

		menuItem := m.menuDevices.AddSubMenuItem(prefix+device.Name, tooltip)
		m.deviceMenuItems = append(m.deviceMenuItems, menuItem)

		ctx, cancel := context.WithCancel(context.Background())
		m.deviceCancelFuncs = append(m.deviceCancelFuncs, cancel)

		go func(id int, item *systray.MenuItem, ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					if m.config.OnDeviceChange != nil {
						m.config.OnDeviceChange(id)
					}
				}
			}
		}(device.ID, menuItem, ctx)
	}
}

func (m *Manager) stopDeviceHandlers() {
	for _, cancel := range m.deviceCancelFuncs {
		cancel()
	}
	m.deviceCancelFuncs = nil
}

// Quit quits the system tray
func (m *Manager) Quit() {
	systray.Quit()
}

func call(fn func()) {
	if fn != nil {
		fn()
	}
}

func toggle(fn func(bool), v bool) {
	if fn != nil {
		fn(v)
	}
}

func setEnabled(item *systray.MenuItem, on bool) {
	if on {
		item.Enable()
	} else {
		item.Disable()
	}
}

func setChecked(item *systray.MenuItem, on bool) {
	if on {
		item.Check()
	} else {
		item.Uncheck()
	}
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
