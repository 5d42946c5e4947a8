package capture

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrPermissionDenied is returned when the user or the OS refused media access
	ErrPermissionDenied = errors.New("permission denied")

	// ErrDeviceUnavailable is returned when no usable device exists
	ErrDeviceUnavailable = errors.New("device unavailable")
)

// Kind classifies a capture failure
type Kind int

const (
	// KindDeviceUnavailable means the device is missing or failed to open
	KindDeviceUnavailable Kind = iota
	// KindPermissionDenied means access was refused
	KindPermissionDenied
)

// String returns the string representation of the kind
func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "PermissionDenied"
	case KindDeviceUnavailable:
		return "DeviceUnavailable"
	default:
		return "Unknown"
	}
}

func (k Kind) sentinel() error {
	if k == KindPermissionDenied {
		return ErrPermissionDenied
	}
	return ErrDeviceUnavailable
}

// Error is a failed acquire
type Error struct {
	Kind  Kind
	Video bool // whether video was requested
	Err   error
}

func (e *Error) Error() string {
	media := "audio"
	if e.Video {
		media = "audio+video"
	}
	if e.Err == nil {
		return fmt.Sprintf("capture %s: %v", media, e.Kind.sentinel())
	}
	return fmt.Sprintf("capture %s: %v: %v", media, e.Kind.sentinel(), e.Err)
}

// Is matches the sentinel for the error's kind
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf reports the kind of a capture error. Unknown errors count as unavailable.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	if errors.Is(err, ErrPermissionDenied) {
		return KindPermissionDenied
	}
	return KindDeviceUnavailable
}

// Stream is an open media handle
type Stream interface {
	// Video reports whether the stream carries a camera track
	Video() bool
	Close() error
}

// Device opens media streams
type Device interface {
	Open(ctx context.Context, wantVideo bool) (Stream, error)
}

// DeviceFunc adapts a function to Device
type DeviceFunc func(ctx context.Context, wantVideo bool) (Stream, error)

// Open calls f(ctx, wantVideo)
func (f DeviceFunc) Open(ctx context.Context, wantVideo bool) (Stream, error) {
	return f(ctx, wantVideo)
}

// Status describes the held stream
type Status struct {
	Active bool
	Video  bool
}

// Logger is the logging surface the manager needs
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Manager owns at most one media stream
type Manager struct {
	device Device
	log    Logger
	stream Stream
	mu     sync.Mutex
}

// NewManager creates a capture manager over device
func NewManager(device Device, log Logger) *Manager {
	return &Manager{
		device: device,
		log:    log,
	}
}

// Acquire releases any held stream and opens a new one.
// Failures are returned as *Error.
func (m *Manager) Acquire(ctx context.Context, wantVideo bool) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.releaseLocked(); err != nil {
		m.log.Warn("failed to release previous stream: %v", err)
	}

	if err := ctx.Err(); err != nil {
		return Status{}, &Error{Kind: KindDeviceUnavailable, Video: wantVideo, Err: err}
	}

	stream, err := m.device.Open(ctx, wantVideo)
	if err != nil {
		var ce *Error
		if !errors.As(err, &ce) {
			err = &Error{Kind: KindOf(err), Video: wantVideo, Err: err}
		}
		m.log.Warn("acquire failed (video=%v): %v", wantVideo, err)
		return Status{}, err
	}
	if stream == nil {
		return Status{}, &Error{Kind: KindDeviceUnavailable, Video: wantVideo}
	}

	m.stream = stream
	st := Status{Active: true, Video: stream.Video()}
	m.log.Info("capture acquired (video=%v)", st.Video)
	return st, nil
}

// Release closes the held stream. Releasing nothing is a no-op.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseLocked()
}

func (m *Manager) releaseLocked() error {
	if m.stream == nil {
		return nil
	}
	stream := m.stream
	m.stream = nil
	if err := stream.Close(); err != nil {
		return fmt.Errorf("failed to close stream: %w", err)
	}
	m.log.Info("capture released")
	return nil
}

// Status returns what the manager currently holds
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stream == nil {
		return Status{}
	}
	return Status{Active: true, Video: m.stream.Video()}
}
