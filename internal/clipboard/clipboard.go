package clipboard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
)

// ErrEmptyText is returned when there is nothing to copy
var ErrEmptyText = errors.New("clipboard: empty text")

// Board is the system pasteboard
type Board interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// systemBoard writes through robotgo
type systemBoard struct{}

func (systemBoard) ReadAll() (string, error) { return robotgo.ReadAll() }
func (systemBoard) WriteAll(text string) error { return robotgo.WriteAll(text) }

// Manager copies exported text to the pasteboard
type Manager struct {
	board  Board
	verify bool
	last   string
}

// Config holds clipboard manager configuration
type Config struct {
	Verify bool // 書き込み後に読み戻して一致を確認する
}

// DefaultConfig returns the default clipboard configuration
func DefaultConfig() Config {
	return Config{Verify: true}
}

// NewManager creates a manager backed by the system pasteboard
func NewManager(config Config) *Manager {
	return NewManagerWithBoard(config, systemBoard{})
}

// NewManagerWithBoard creates a manager backed by board
func NewManagerWithBoard(config Config, board Board) *Manager {
	return &Manager{
		board:  board,
		verify: config.Verify,
	}
}

// CopyText replaces the pasteboard content with text.
// Line endings are normalized to \n so pasted summaries look the same everywhere.
func (m *Manager) CopyText(text string) error {
	text = normalizeNewlines(text)
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}

	if err := m.board.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}

	if m.verify {
		got, err := m.board.ReadAll()
		if err != nil {
			return fmt.Errorf("failed to read clipboard: %w", err)
		}
		if got != text {
			return fmt.Errorf("clipboard content changed while copying")
		}
	}

	m.last = text
	return nil
}

// LastCopied returns the text of the last successful copy
func (m *Manager) LastCopied() string {
	return m.last
}

// Content returns the current pasteboard content
func (m *Manager) Content() (string, error) {
	content, err := m.board.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return content, nil
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
