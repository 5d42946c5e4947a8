package i18n

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"
)

// Language represents a supported language
type Language string

const (
	// Japanese language
	LanguageJapanese Language = "ja"
	// English language
	LanguageEnglish Language = "en"
)

// Translator manages translations for the application
type Translator struct {
	currentLanguage Language
	translations    map[Language]map[string]string
	mu              sync.RWMutex
}

// NewTranslator creates an empty translator
func NewTranslator(language Language) *Translator {
	return &Translator{
		currentLanguage: language,
		translations:    make(map[Language]map[string]string),
	}
}

// NewDefaultTranslator creates a translator preloaded with the built-in tables
func NewDefaultTranslator(language Language) *Translator {
	t := NewTranslator(language)
	t.translations[LanguageEnglish] = DefaultEnglishTranslations()
	t.translations[LanguageJapanese] = DefaultJapaneseTranslations()
	return t
}

// LoadTranslations merges translations from JSON data over the existing table
func (t *Translator) LoadTranslations(language Language, data []byte) error {
	var translations map[string]string
	if err := json.Unmarshal(data, &translations); err != nil {
		return fmt.Errorf("failed to unmarshal translations: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	table, ok := t.translations[language]
	if !ok {
		table = make(map[string]string, len(translations))
		t.translations[language] = table
	}
	for k, v := range translations {
		table[k] = v
	}
	return nil
}

// SetLanguage sets the current language
func (t *Translator) SetLanguage(language Language) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.currentLanguage = language
}

// GetLanguage returns the current language
func (t *Translator) GetLanguage() Language {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.currentLanguage
}

// Translate translates a key in the current language
func (t *Translator) Translate(key string) string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if text, ok := t.translations[t.currentLanguage][key]; ok {
		return text
	}

	// Fallback to English if translation not found
	if text, ok := t.translations[LanguageEnglish][key]; ok {
		return text
	}

	// Return key itself if no translation found
	return key
}

// TranslateWithFormat translates a key and replaces {param} placeholders
func (t *Translator) TranslateWithFormat(key string, params map[string]string) string {
	text := t.Translate(key)

	for param, value := range params {
		text = strings.ReplaceAll(text, "{"+param+"}", value)
	}

	return text
}

// HasTranslation checks if a translation key exists in the current language
func (t *Translator) HasTranslation(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.translations[t.currentLanguage][key]
	return ok
}

// CueTexts returns the coaching cue catalog in the current language
func (t *Translator) CueTexts() []string {
	texts := make([]string, 0, len(CueKeys))
	for _, key := range CueKeys {
		texts = append(texts, t.Translate(key))
	}
	return texts
}

// CueKeys lists the translation keys of the cue catalog, in catalog order
var CueKeys = []string{"cue.slow", "cue.volume", "cue.camera"}

// ValidateLanguage validates that a language is supported
func ValidateLanguage(language string) bool {
	return language == string(LanguageJapanese) || language == string(LanguageEnglish)
}

// DetectSystemLanguage reads the locale environment; anything but Japanese maps to English
func DetectSystemLanguage() Language {
	for _, key := range []string{"LC_ALL", "LC_MESSAGES", "LANG"} {
		if v := os.Getenv(key); v != "" {
			if strings.HasPrefix(strings.ToLower(v), "ja") {
				return LanguageJapanese
			}
			return LanguageEnglish
		}
	}
	return LanguageEnglish
}

// GetSupportedLanguages returns a list of supported languages
func GetSupportedLanguages() []Language {
	return []Language{LanguageJapanese, LanguageEnglish}
}

// DefaultEnglishTranslations returns default English translations
func DefaultEnglishTranslations() map[string]string {
	return map[string]string{
		// Menu items
		"menu.record":             "Start Recording",
		"menu.pause":              "Pause",
		"menu.resume":             "Resume",
		"menu.stop":               "Stop",
		"menu.calibrate":          "Calibrate (15s)",
		"menu.cancel_calibration": "Cancel Calibration",
		"menu.accept_cue":         "Accept Cue",
		"menu.reject_cue":         "Dismiss Cue",
		"menu.simulate":           "Simulate Metrics",
		"menu.rules_only":         "Rules-only Coaching",
		"menu.audio_only":         "Audio Only (Camera Off)",
		"menu.throttle":           "CPU Throttle",
		"menu.throttle_option":    "{pct}%",
		"menu.devices":            "Input Device",
		"menu.default_device":     "System default device",
		"menu.copy_summary":       "Export Text Summary",
		"menu.help":               "Help & Transparency",
		"menu.privacy_settings":   "Privacy Settings…",
		"menu.quit":               "Quit",

		// Status
		"status.idle":        "Idle",
		"status.recording":   "Recording",
		"status.paused":      "Paused",
		"status.stopped":     "Stopped",
		"status.calibrating": "Calibrating… {seconds}s",

		// Metrics
		"metrics.pace":    "Pace {value} spm ({zone})",
		"metrics.volume":  "Volume {value} dB ({zone})",
		"metrics.gaze":    "Gaze {yaw}°/{pitch}° ({zone})",
		"metrics.tone":    "Tone {value}",
		"metrics.latency": "Hint latency {value} ms",
		"metrics.talk":    "Talk ratio {value}%",
		"metrics.accept":  "Cue acceptance {value}",
		"zone.good":       "good",
		"zone.warn":       "adjust",
		"tone.neutral":    "neutral",
		"tone.positive":   "positive",
		"tone.negative":   "negative",
		"value.unknown":   "–",

		// Cues
		"cue.slow":   "Slow slightly",
		"cue.volume": "Lower volume a notch",
		"cue.camera": "Turn toward camera briefly",

		// Notifications
		"notification.cue_title":      "Coaching cue",
		"notification.audio_only":     "Camera unavailable. Continuing with audio only.",
		"notification.simulated":      "Microphone unavailable. Metrics are simulated.",
		"notification.rules_only":     "Metric service unavailable. Switched to rules-only coaching.",
		"notification.calibrated":     "Calibration finished",
		"notification.summary_copied": "Session summary copied to clipboard",
		"notification.no_summary":     "No summary yet. Stop a session first.",
		"notification.permissions":    "Not granted: {list}",

		"permission.microphone":    "Microphone",
		"permission.camera":        "Camera (optional)",
		"permission.accessibility": "Accessibility (hotkey)",

		// Summary
		"summary.title":      "Session reflection",
		"summary.session":    "Session",
		"summary.duration":   "Duration",
		"summary.green_zone": "Green-zone coverage",
		"summary.latency":    "Median hint latency",
		"summary.acceptance": "Cue acceptance",
		"summary.talk_ratio": "Talk ratio",
		"summary.cues":       "Cues ({accepted} accepted, {rejected} dismissed, {emitted} shown)",

		// Help
		"help.title": "Help & transparency",
		"help.body": "All processing runs locally on your laptop. No media leaves your device.\n" +
			"Rules-only mode provides deterministic cues without ML if advanced models are unavailable.\n" +
			"Calibration collects a short baseline to set your personal green-zones.",

		// Errors
		"error.mic_permission_denied":    "Microphone access denied",
		"error.camera_permission_denied": "Camera access denied",
		"error.clipboard_failed":         "Could not copy to clipboard",
		"error.hotkey_failed":            "Could not register the hotkey",
	}
}

// DefaultJapaneseTranslations returns default Japanese translations
func DefaultJapaneseTranslations() map[string]string {
	return map[string]string{
		// メニュー
		"menu.record":             "録音開始",
		"menu.pause":              "一時停止",
		"menu.resume":             "再開",
		"menu.stop":               "停止",
		"menu.calibrate":          "キャリブレーション (15秒)",
		"menu.cancel_calibration": "キャリブレーション中止",
		"menu.accept_cue":         "ヒントを採用",
		"menu.reject_cue":         "ヒントを却下",
		"menu.simulate":           "メトリクスをシミュレート",
		"menu.rules_only":         "ルールのみのコーチング",
		"menu.audio_only":         "音声のみ (カメラ オフ)",
		"menu.throttle":           "CPU スロットル",
		"menu.throttle_option":    "{pct}%",
		"menu.devices":            "入力デバイス",
		"menu.default_device":     "システムのデフォルトデバイス",
		"menu.copy_summary":       "テキスト要約をエクスポート",
		"menu.help":               "ヘルプと透明性",
		"menu.privacy_settings":   "プライバシー設定…",
		"menu.quit":               "終了",

		// ステータス
		"status.idle":        "待機中",
		"status.recording":   "録音中",
		"status.paused":      "一時停止中",
		"status.stopped":     "停止",
		"status.calibrating": "キャリブレーション中… 残り{seconds}秒",

		// メトリクス
		"metrics.pace":    "ペース {value} spm ({zone})",
		"metrics.volume":  "音量 {value} dB ({zone})",
		"metrics.gaze":    "視線 {yaw}°/{pitch}° ({zone})",
		"metrics.tone":    "トーン {value}",
		"metrics.latency": "ヒント遅延 {value} ms",
		"metrics.talk":    "発話比率 {value}%",
		"metrics.accept":  "ヒント採用率 {value}",
		"zone.good":       "良好",
		"zone.warn":       "要調整",
		"tone.neutral":    "ニュートラル",
		"tone.positive":   "ポジティブ",
		"tone.negative":   "ネガティブ",
		"value.unknown":   "–",

		// ヒント
		"cue.slow":   "少しゆっくり話しましょう",
		"cue.volume": "声を少し抑えましょう",
		"cue.camera": "少しカメラの方を向きましょう",

		// 通知
		"notification.cue_title":      "コーチングのヒント",
		"notification.audio_only":     "カメラを使用できません。音声のみで続行します。",
		"notification.simulated":      "マイクを使用できません。メトリクスはシミュレーションです。",
		"notification.rules_only":     "メトリクスサービスを使用できません。ルールのみのコーチングに切り替えました。",
		"notification.calibrated":     "キャリブレーションが完了しました",
		"notification.summary_copied": "セッション要約をクリップボードにコピーしました",
		"notification.no_summary":     "要約がありません。先にセッションを停止してください。",
		"notification.permissions":    "未許可: {list}",

		"permission.microphone":    "マイク",
		"permission.camera":        "カメラ（任意）",
		"permission.accessibility": "アクセシビリティ（ホットキー）",

		// 要約
		"summary.title":      "セッションの振り返り",
		"summary.session":    "セッション",
		"summary.duration":   "時間",
		"summary.green_zone": "グリーンゾーン率",
		"summary.latency":    "ヒント遅延の中央値",
		"summary.acceptance": "ヒント採用率",
		"summary.talk_ratio": "発話比率",
		"summary.cues":       "ヒント (採用 {accepted} / 却下 {rejected} / 表示 {emitted})",

		// ヘルプ
		"help.title": "ヘルプと透明性",
		"help.body": "すべての処理はこのMac上で行われ、メディアが外部に送信されることはありません。\n" +
			"高度なモデルが使えない場合、ルールのみのモードでMLなしの決定的なヒントを表示します。\n" +
			"キャリブレーションでは短いベースラインを収集し、個人のグリーンゾーンを設定します。",

		// エラー
		"error.mic_permission_denied":    "マイクへのアクセスが拒否されました",
		"error.camera_permission_denied": "カメラへのアクセスが拒否されました",
		"error.clipboard_failed":         "クリップボードにコピーできませんでした",
		"error.hotkey_failed":            "ホットキーを登録できませんでした",
	}
}
