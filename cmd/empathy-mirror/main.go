package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"sync"
	"syscall"

	"github.com/yok-tottii/EmpathyMirror/internal/audio"
	"github.com/yok-tottii/EmpathyMirror/internal/capture"
	"github.com/yok-tottii/EmpathyMirror/internal/clipboard"
	"github.com/yok-tottii/EmpathyMirror/internal/config"
	"github.com/yok-tottii/EmpathyMirror/internal/hotkey"
	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
	"github.com/yok-tottii/EmpathyMirror/internal/logger"
	"github.com/yok-tottii/EmpathyMirror/internal/notification"
	"github.com/yok-tottii/EmpathyMirror/internal/onboarding"
	"github.com/yok-tottii/EmpathyMirror/internal/permissions"
	"github.com/yok-tottii/EmpathyMirror/internal/reflection"
	"github.com/yok-tottii/EmpathyMirror/internal/session"
	"github.com/yok-tottii/EmpathyMirror/internal/tray"
)

const version = "0.1.0"

const appName = "EmpathyMirror"

// App holds all application state
type App struct {
	logger     *logger.Logger
	configMu   sync.Mutex
	config     *config.Config
	configPath string
	translator *i18n.Translator

	trayMgr    *tray.Manager
	hotkeyMgr  *hotkey.Manager
	notifier   *notification.NotificationManager
	coach      *notification.Notifier
	clipboard  *clipboard.Manager
	onboarding *onboarding.Onboarding
	watcher    *config.Watcher

	micDevice  *audio.PortAudioDevice
	controller *session.Controller
	toggles    *config.Toggles
	unsubs     []func()

	permChecker *permissions.PermissionChecker
	micGranted  bool
	camGranted  bool
	accGranted  bool

	quitOnce sync.Once
}

func init() {
	// macOSのCGO呼び出しにはメインスレッドが必要
	runtime.LockOSThread()
}

func main() {
	app := &App{}

	// ロガーの初期化
	var err error
	app.logger, err = logger.New(logger.DefaultConfig())
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗: %v", err)
	}
	defer app.logger.Close()

	app.logger.Info("%s v%s 起動", appName, version)

	// 設定ファイルの読み込み
	app.configPath = config.GetConfigPath()
	app.config, err = config.Load(app.configPath)
	if err != nil {
		app.logger.Error("設定ファイルの読み込みに失敗: %v", err)
		log.Fatalf("設定ファイルの読み込みに失敗: %v", err)
	}
	if err := app.config.Validate(); err != nil {
		app.logger.Warn("設定が不正なためデフォルトを使用します: %v", err)
		app.config = config.DefaultConfig()
	}
	app.applyLogLevel(app.config.LogLevel)
	app.logger.Info("設定ファイルを読み込みました: %s", app.configPath)

	app.translator = i18n.NewDefaultTranslator(i18n.Language(app.config.UILanguage))

	app.notifier = notification.NewNotificationManager(appName)
	app.coach = notification.NewNotifier(app.notifier, app.translator, app.logger.With("notification"))
	app.clipboard = clipboard.NewManager(clipboard.DefaultConfig())

	app.onboarding, err = onboarding.New(config.GetConfigDir())
	if err != nil {
		app.logger.Error("オンボーディング初期化エラー: %v", err)
	}

	// システムトレイマネージャーの作成
	app.trayMgr = tray.NewManager(tray.Config{
		Translator: app.translator,
		Logger:     app.logger.With("tray"),
		OnReady:    app.onReady,

		OnRecord:            app.intent(func(c *session.Controller) error { return c.StartRecording() }),
		OnPause:             app.intent(func(c *session.Controller) error { return c.Pause() }),
		OnResume:            app.intent(func(c *session.Controller) error { return c.Resume() }),
		OnStop:              app.intent(func(c *session.Controller) error { return c.Stop() }),
		OnCalibrate:         app.intent(func(c *session.Controller) error { return c.StartCalibration() }),
		OnCancelCalibration: app.intent(func(c *session.Controller) error { return c.CancelCalibration() }),
		OnAcceptCue:         app.intent(func(c *session.Controller) error { return c.AcceptCue() }),
		OnRejectCue:         app.intent(func(c *session.Controller) error { return c.RejectCue() }),

		OnSimulate:  app.toggle(func(t *config.Toggles, on bool) error { return t.SetSimulate(on) }),
		OnRulesOnly: app.toggle(func(t *config.Toggles, on bool) error { return t.SetRulesOnly(on) }),
		OnAudioOnly: app.toggle(func(t *config.Toggles, on bool) error { return t.SetAudioOnly(on) }),
		OnThrottle: func(v float64) {
			if app.toggles == nil {
				return
			}
			if err := app.toggles.SetThrottle(v); err != nil && !errors.Is(err, session.ErrClosed) {
				app.logger.Warn("CPUスロットルの変更に失敗: %v", err)
			}
		},

		OnDeviceChange: app.handleDeviceChange,
		OnCopySummary:  app.handleCopySummary,
		OnPrivacy:      app.handlePrivacySettings,
		OnHelp:         app.handleHelp,
		OnQuit:         app.handleQuit,
	})

	app.logger.Info("systray初期化開始")

	// systray.Run()を呼び出し - これはブロッキング呼び出し
	app.trayMgr.Run()
}

// onReady は systray が初期化完了後に呼ばれる
func (a *App) onReady() {
	a.logger.Info("systray初期化完了 - アプリケーション初期化開始")

	// 権限チェック
	permChecker := permissions.NewPermissionChecker()
	a.permChecker = permChecker
	perms := permChecker.CheckAllPermissions()

	a.micGranted = perms["microphone"]
	a.camGranted = perms["camera"]
	a.accGranted = perms["accessibility"]

	if a.micGranted {
		a.logger.Info("マイク権限: 許可済み")
	} else {
		a.logger.Warn("マイク権限: 未許可 - メトリクスはシミュレーションになります")
	}
	if a.camGranted {
		a.logger.Info("カメラ権限: 許可済み")
	} else {
		a.logger.Warn("カメラ権限: 未許可 - 音声のみで動作します")
	}
	if a.accGranted {
		a.logger.Info("アクセシビリティ権限: 許可済み")
	} else {
		a.logger.Warn("アクセシビリティ権限: 未許可 - ホットキーが無効化されます")
	}
	a.notifyMissingPermissions()

	// キャプチャデバイス（PortAudio が使えなければ常に失敗するスタブ）
	var device capture.Device = capture.Unavailable{}
	audioConfig := audio.DefaultConfig()
	a.configMu.Lock()
	audioConfig.DeviceID = a.config.AudioDeviceID
	sessCfg, bands := a.config.ToSession()
	a.configMu.Unlock()

	micDevice, err := audio.NewPortAudioDevice(audioConfig, permChecker)
	if err != nil {
		a.logger.Error("PortAudioの初期化に失敗: %v", err)
	} else {
		a.micDevice = micDevice
		device = micDevice
		a.logger.Info("オーディオデバイスIDを適用: %d", audioConfig.DeviceID)
	}

	sess := session.New(sessCfg,
		session.WithBands(bands),
		session.WithCueTexts(a.translator.CueTexts()),
	)
	a.controller = session.NewController(sess, session.ControllerOptions{
		Capture: capture.NewManager(device, a.logger.With("capture")),
		Logger:  a.logger.With("session"),
	})
	a.toggles = config.NewToggles(a.controller, a.currentConfig, a.configPath)
	a.logger.Info("セッションコントローラー起動")

	a.follow(a.trayMgr.Follow)
	a.follow(a.coach.Run)

	a.refreshDeviceMenu()

	// ホットキーマネージャーの初期化（アクセシビリティ権限がある場合のみ）
	if a.accGranted {
		a.hotkeyMgr = hotkey.New()
		if err := a.registerHotkey(); err != nil {
			a.logger.Error("ホットキーの登録に失敗: %v", err)
			a.coach.Error("error.hotkey_failed")
		}
	}

	// 設定ファイルの変更を監視
	a.watcher, err = config.Watch(a.configPath, a.handleConfigChange)
	if err != nil {
		a.logger.Warn("設定ファイルの監視を開始できません: %v", err)
	}

	// 初回起動時はヘルプを表示
	if a.onboarding != nil {
		go func() {
			if shown, err := a.onboarding.Run(a.notifier, a.translator); err != nil {
				a.logger.Warn("ヘルプの表示に失敗: %v", err)
			} else if shown {
				a.logger.Info("初回起動検出 - ヘルプを表示しました")
			}
		}()
	}

	// シグナルハンドリングを設定（Ctrl+Cでの適切な終了処理）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.logger.Info("終了シグナルを受信しました")
		a.handleQuit()
		a.trayMgr.Quit() // systray.Quit()を呼び出してsystray.Run()を終了
	}()

	a.logger.Info("アプリケーション初期化完了")

	fmt.Println("\n" + "==========================================================")
	fmt.Printf("[起動] %s が起動しました\n", appName)
	fmt.Println("==========================================================")
	fmt.Printf("[操作] メニューバーのアイコンをクリックしてメニューを開けます\n")
	if a.hotkeyMgr != nil && a.hotkeyMgr.IsRunning() {
		fmt.Printf("[設定] ホットキー: %s\n", a.hotkeyMgr.GetConfig())
	}
	fmt.Printf("[終了] Ctrl+C またはメニューから「終了」\n")
	fmt.Println("==========================================================" + "\n")
}

// intent wraps a controller call for a menu callback. Failures are already
// logged by the controller; ErrClosed during shutdown is ignored.
func (a *App) intent(fn func(c *session.Controller) error) func() {
	return func() {
		if a.controller == nil {
			return
		}
		if err := fn(a.controller); err != nil && !errors.Is(err, session.ErrClosed) {
			a.logger.Debug("操作は無視されました: %v", err)
		}
	}
}

// follow subscribes fn to controller snapshots in its own goroutine
func (a *App) follow(fn func(<-chan session.Snapshot)) {
	snaps, unsubscribe := a.controller.Subscribe()
	a.unsubs = append(a.unsubs, unsubscribe)
	go fn(snaps)
}

// toggle wraps a user toggle for a menu checkbox; the choice is saved to the config file
func (a *App) toggle(fn func(t *config.Toggles, on bool) error) func(bool) {
	return func(on bool) {
		if a.toggles == nil {
			return
		}
		if err := fn(a.toggles, on); err != nil && !errors.Is(err, session.ErrClosed) {
			a.logger.Warn("設定の変更に失敗: %v", err)
		}
	}
}

func (a *App) currentConfig() *config.Config {
	a.configMu.Lock()
	defer a.configMu.Unlock()
	return a.config
}

// registerHotkey registers the configured hotkey and starts its event loop
func (a *App) registerHotkey() error {
	a.configMu.Lock()
	hk := a.config.Hotkey
	a.configMu.Unlock()

	hotkeyConfig, err := hotkey.NewConfig(hk.Ctrl, hk.Shift, hk.Alt, hk.Cmd, hk.Key)
	if err != nil {
		return err
	}

	for _, conflict := range hotkeyConfig.Conflicts() {
		a.logger.Warn("ホットキー %s は %s と競合する可能性があります", hotkeyConfig, conflict.Name)
	}

	if a.hotkeyMgr.IsRunning() {
		err = a.hotkeyMgr.Rebind(hotkeyConfig)
	} else {
		err = a.hotkeyMgr.Register(hotkeyConfig)
	}
	if a.hotkeyMgr.IsRunning() {
		go a.hotkeyEventLoop(a.hotkeyMgr.Events())
	}
	if err != nil {
		return err
	}

	a.logger.Info("ホットキー登録完了: %s", hotkeyConfig)
	return nil
}

// hotkeyEventLoop はホットキー押下ごとに録音を切り替える
func (a *App) hotkeyEventLoop(events <-chan hotkey.Event) {
	a.logger.Debug("ホットキーイベントループ開始")

	for range events {
		a.intent(func(c *session.Controller) error { return c.ToggleRecording() })()
	}

	a.logger.Debug("ホットキーイベントループ終了")
}

// handleConfigChange applies a reloaded configuration file
func (a *App) handleConfigChange(fresh *config.Config, err error) {
	if err != nil {
		a.logger.Warn("設定ファイルの再読み込みに失敗: %v", err)
		return
	}
	if err := fresh.Validate(); err != nil {
		a.logger.Warn("再読み込みした設定が不正です: %v", err)
		return
	}

	a.configMu.Lock()
	old := a.config
	a.config = fresh
	a.configMu.Unlock()

	// ファイル上で変わった値だけを適用し、強制フォールバックは上書きしない
	cfg, _ := fresh.ToSession()
	prev := old.Session
	if cfg.Simulate != prev.Simulate {
		a.intent(func(c *session.Controller) error { return c.SetSimulateMode(cfg.Simulate) })()
	}
	if cfg.RulesOnly != prev.RulesOnly {
		a.intent(func(c *session.Controller) error { return c.SetRulesOnlyMode(cfg.RulesOnly) })()
	}
	if cfg.AudioOnly != prev.AudioOnly {
		a.intent(func(c *session.Controller) error { return c.SetAudioOnlyFallback(cfg.AudioOnly) })()
	}
	if cfg.CPUThrottle != prev.CPUThrottle {
		a.intent(func(c *session.Controller) error { return c.SetCPUThrottle(cfg.CPUThrottle) })()
	}
	if fresh.Session.CueIntervalMs != prev.CueIntervalMs {
		a.intent(func(c *session.Controller) error { return c.SetCueInterval(cfg.CueInterval) })()
	}

	if fresh.UILanguage != old.UILanguage {
		a.translator.SetLanguage(i18n.Language(fresh.UILanguage))
	}
	if fresh.LogLevel != old.LogLevel {
		a.applyLogLevel(fresh.LogLevel)
	}
	if fresh.Hotkey != old.Hotkey && a.hotkeyMgr != nil {
		if err := a.registerHotkey(); err != nil {
			a.logger.Error("ホットキーの再登録に失敗: %v", err)
		}
	}
	if fresh.AudioDeviceID != old.AudioDeviceID {
		a.selectDevice(fresh.AudioDeviceID)
	}

	a.logger.Info("設定ファイルを再読み込みしました")
}

func (a *App) applyLogLevel(s string) {
	level, err := logger.ParseLevel(s)
	if err != nil {
		a.logger.Warn("ログレベルが不正です: %v", err)
		return
	}
	a.logger.SetLevel(level)
}

// refreshDeviceMenu lists input devices in the tray
func (a *App) refreshDeviceMenu() {
	if a.micDevice == nil {
		return
	}

	devices, err := a.micDevice.ListDevices()
	if err != nil {
		a.logger.Warn("入力デバイスの一覧取得に失敗: %v", err)
		return
	}

	current := a.micDevice.DeviceID()
	items := make([]tray.Device, 0, len(devices))
	for _, d := range devices {
		items = append(items, tray.Device{
			ID:        d.ID,
			Name:      d.Name,
			IsDefault: d.IsDefault,
			IsCurrent: d.ID == current || (current == -1 && d.IsDefault),
		})
	}
	a.trayMgr.UpdateDeviceMenu(items)
}

// handleDeviceChange switches the microphone and saves the choice
func (a *App) handleDeviceChange(deviceID int) {
	a.logger.Info("入力デバイス変更: %d", deviceID)

	a.configMu.Lock()
	a.config.AudioDeviceID = deviceID
	err := a.config.Save(a.configPath)
	a.configMu.Unlock()
	if err != nil {
		a.logger.Warn("設定の保存に失敗: %v", err)
	}

	a.selectDevice(deviceID)
}

func (a *App) selectDevice(deviceID int) {
	if a.micDevice == nil || a.micDevice.DeviceID() == deviceID {
		return
	}
	a.micDevice.SetDeviceID(deviceID)
	a.intent(func(c *session.Controller) error { return c.RestartCapture() })()
	a.refreshDeviceMenu()
}

// handleCopySummary exports the frozen summary to the clipboard
func (a *App) handleCopySummary() {
	if a.controller == nil {
		return
	}

	err := reflection.Export(a.controller.Snapshot().Summary, a.translator, a.clipboard)
	switch {
	case errors.Is(err, reflection.ErrNoSummary):
		a.coach.NoSummary()
	case err != nil:
		a.logger.Error("要約のエクスポートに失敗: %v", err)
		a.coach.Error("error.clipboard_failed")
	default:
		a.logger.Info("要約をクリップボードにコピーしました")
		a.coach.SummaryExported()
	}
}

// notifyMissingPermissions lists the permissions still to be granted
func (a *App) notifyMissingPermissions() {
	missing := a.permChecker.Missing()
	if len(missing) == 0 {
		return
	}

	names := make([]string, 0, len(missing))
	for _, k := range missing {
		names = append(names, a.translator.Translate("permission."+k.String()))
	}
	message := a.translator.TranslateWithFormat("notification.permissions", map[string]string{
		"list": strings.Join(names, ", "),
	})
	if err := a.notifier.SendWarning("", message); err != nil {
		a.logger.Warn("通知の送信に失敗: %v", err)
	}
}

// handlePrivacySettings opens System Settings at the first missing permission
func (a *App) handlePrivacySettings() {
	if a.permChecker == nil {
		return
	}

	kind := permissions.Microphone
	if missing := a.permChecker.Missing(); len(missing) > 0 {
		kind = missing[0]
	}
	if err := a.permChecker.OpenSettings(kind); err != nil {
		a.logger.Warn("システム設定を開けません: %v", err)
	}
}

// handleHelp shows the help & transparency text
func (a *App) handleHelp() {
	// goroutineで非同期実行（UIブロックを防ぐ）
	go func() {
		if err := onboarding.ShowHelp(a.notifier, a.translator); err != nil {
			a.logger.Warn("ヘルプの表示に失敗: %v", err)
		}
	}()
}

// handleQuit はアプリケーションを終了
func (a *App) handleQuit() {
	a.quitOnce.Do(func() {
		a.logger.Info("終了要求")

		if a.watcher != nil {
			if err := a.watcher.Close(); err != nil {
				a.logger.Warn("設定ファイル監視の停止に失敗: %v", err)
			}
		}

		// ホットキーマネージャーをクローズ
		if a.hotkeyMgr != nil {
			if err := a.hotkeyMgr.Close(); err != nil {
				a.logger.Warn("ホットキーの解除に失敗: %v", err)
			}
		}

		// コントローラーを閉じるとキャプチャも解放される
		if a.controller != nil {
			for _, unsubscribe := range a.unsubs {
				unsubscribe()
			}
			a.controller.Close()
		}

		if a.micDevice != nil {
			if err := a.micDevice.Close(); err != nil {
				a.logger.Warn("PortAudioの終了に失敗: %v", err)
			}
		}

		a.logger.Info("アプリケーション終了")
	})
}
