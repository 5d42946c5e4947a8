// Package onboarding shows the help & transparency text once per help revision.
package onboarding

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yok-tottii/EmpathyMirror/internal/i18n"
)

// HelpRevision is stored in the flag file. Bump it when the help text changes
// materially so every user sees it again.
const HelpRevision = "help-1"

// Dialog displays a modal message
type Dialog interface {
	ShowDialog(title, message string) error
}

// Onboarding tracks whether the first-run help was shown
type Onboarding struct {
	dir      string
	flagFile string
	mu       sync.RWMutex
}

// New creates an onboarding tracker storing its flag under dir
func New(dir string) (*Onboarding, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	return &Onboarding{
		dir:      dir,
		flagFile: filepath.Join(dir, ".onboarding_completed"),
	}, nil
}

// ShouldShow returns true on first run and after the help revision changed
func (o *Onboarding) ShouldShow() bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	data, err := os.ReadFile(o.flagFile)
	if err != nil {
		return true
	}
	return strings.TrimSpace(string(data)) != HelpRevision
}

// MarkCompleted records that the current help revision was shown
func (o *Onboarding) MarkCompleted() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.WriteFile(o.flagFile, []byte(HelpRevision+"\n"), 0600); err != nil {
		return fmt.Errorf("failed to create onboarding flag file: %w", err)
	}
	return nil
}

// Reset forgets the shown state (for testing or manual reset)
func (o *Onboarding) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if err := os.Remove(o.flagFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove onboarding flag file: %w", err)
	}
	return nil
}

// ShowHelp displays the help & transparency text
func ShowHelp(d Dialog, t *i18n.Translator) error {
	return d.ShowDialog(t.Translate("help.title"), t.Translate("help.body"))
}

// Run shows the help if needed and marks it completed. It reports whether the help was shown.
func (o *Onboarding) Run(d Dialog, t *i18n.Translator) (bool, error) {
	if !o.ShouldShow() {
		return false, nil
	}
	if err := ShowHelp(d, t); err != nil {
		return false, err
	}
	return true, o.MarkCompleted()
}

// Dir returns the directory holding the flag file
func (o *Onboarding) Dir() string {
	return o.dir
}
