package worker

import (
	"log/slog"

	"github.com/jzx17/taskpool/pkg/types"
)

// MaxPoolSize is the hard cap on workers per pool. Larger requests are clamped.
const MaxPoolSize = 0xff

// Config defines configuration for a worker pool
type Config struct {
	// Name identifies the pool in logs and metrics
	Name string

	// PoolSize is the number of worker goroutines, clamped to [0, MaxPoolSize]
	PoolSize int

	// Logger receives lifecycle and worker traces (optional, defaults to slog.Default())
	Logger *slog.Logger

	// Clock for task timing (optional, defaults to real clock)
	Clock types.Clock

	// Metrics receives pool events (optional)
	Metrics types.MetricsRecorder

	// PanicHandler is called with every panic recovered from a task (optional)
	PanicHandler types.PanicHandler
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Name:     "default",
		PoolSize: 4,
		Logger:   slog.Default(),
		Clock:    types.NewRealClock(),
	}
}

// clampPoolSize bounds a requested worker count to [0, MaxPoolSize]
func clampPoolSize(size int) int {
	if size < 0 {
		return 0
	}
	if size > MaxPoolSize {
		return MaxPoolSize
	}
	return size
}
