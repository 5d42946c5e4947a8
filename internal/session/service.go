package session

import (
	"context"

	"github.com/yok-tottii/EmpathyMirror/internal/capture"
)

// Logger is the logging surface the controller needs.
// *logger.Logger and *logger.Component satisfy it.
type Logger interface {
	Debug(format string, v ...interface{})
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Params is the request sent to a MetricService on each generator tick
type Params struct {
	SessionID   string
	RulesOnly   bool
	AudioOnly   bool
	CPUThrottle float64
	Previous    Metrics
}

// MetricService produces real metric samples when simulate mode is off
type MetricService interface {
	Sample(ctx context.Context, p Params) (Metrics, error)
}

// UnavailableService is the default: no inference backend exists
type UnavailableService struct{}

// Sample always fails with ErrServiceUnavailable
func (UnavailableService) Sample(context.Context, Params) (Metrics, error) {
	return Metrics{}, ErrServiceUnavailable
}

// SummaryStore persists frozen summaries
type SummaryStore interface {
	Save(ctx context.Context, s Summary) error
}

// NoopStore discards summaries
type NoopStore struct{}

// Save does nothing
func (NoopStore) Save(context.Context, Summary) error {
	return nil
}

// CaptureManager is the part of *capture.Manager the controller drives
type CaptureManager interface {
	Acquire(ctx context.Context, wantVideo bool) (capture.Status, error)
	Release() error
}
