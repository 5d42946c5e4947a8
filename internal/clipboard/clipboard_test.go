package clipboard

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memBoard struct {
	content  string
	writeErr error
	readErr  error
	tamper   string
	writes   int
}

func (b *memBoard) ReadAll() (string, error) {
	if b.readErr != nil {
		return "", b.readErr
	}
	if b.tamper != "" {
		return b.tamper, nil
	}
	return b.content, nil
}

func (b *memBoard) WriteAll(text string) error {
	if b.writeErr != nil {
		return b.writeErr
	}
	b.writes++
	b.content = text
	return nil
}

func TestDefaultConfig(t *testing.T) {
	assert.True(t, DefaultConfig().Verify)
}

func TestCopyText(t *testing.T) {
	board := &memBoard{}
	m := NewManagerWithBoard(DefaultConfig(), board)

	require.NoError(t, m.CopyText("Session reflection\r\nGreen-zone coverage: 75%"))

	assert.Equal(t, "Session reflection\nGreen-zone coverage: 75%", board.content)
	assert.Equal(t, board.content, m.LastCopied())

	content, err := m.Content()
	require.NoError(t, err)
	assert.Equal(t, board.content, content)
}

func TestCopyText_Empty(t *testing.T) {
	board := &memBoard{}
	m := NewManagerWithBoard(DefaultConfig(), board)

	assert.ErrorIs(t, m.CopyText("  \n "), ErrEmptyText)
	assert.Zero(t, board.writes)
}

func TestCopyText_WriteError(t *testing.T) {
	boom := errors.New("pasteboard locked")
	m := NewManagerWithBoard(DefaultConfig(), &memBoard{writeErr: boom})

	err := m.CopyText("summary")
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, m.LastCopied())
}

func TestCopyText_VerifyMismatch(t *testing.T) {
	m := NewManagerWithBoard(DefaultConfig(), &memBoard{tamper: "something else"})

	assert.Error(t, m.CopyText("summary"))
	assert.Empty(t, m.LastCopied())
}

func TestCopyText_NoVerify(t *testing.T) {
	board := &memBoard{readErr: errors.New("unreadable")}
	m := NewManagerWithBoard(Config{Verify: false}, board)

	require.NoError(t, m.CopyText("summary"))
	assert.Equal(t, "summary", board.content)

	_, err := m.Content()
	assert.Error(t, err)
}

func TestNormalizeNewlines(t *testing.T) {
	assert.Equal(t, "a\nb\nc", normalizeNewlines("a\r\nb\rc"))
}
