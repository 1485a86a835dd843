package logger

import (
	"github.com/amirhossein-jamali/client-portal/internal/domain/port/core"
)

// NoopLogger discards everything. Used by tests and the CLI's quiet mode.
type NoopLogger struct{}

// NewNoopLogger creates a new no-op logger
func NewNoopLogger() core.Logger {
	return NoopLogger{}
}

func (NoopLogger) Debug(string, map[string]any) {}
func (NoopLogger) Info(string, map[string]any)  {}
func (NoopLogger) Warn(string, map[string]any)  {}
func (NoopLogger) Error(string, map[string]any) {}

func (l NoopLogger) With(map[string]any) core.Logger { return l }

func (NoopLogger) Flush() error { return nil }
