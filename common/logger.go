package common

import (
	"context"
	"log/slog"
	"sync/atomic"
)

// nopHandler is a slog.Handler that drops every record. Enabled reports false so
// callers skip formatting entirely.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr holds the active logger so SetLogger may race with logging goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	loggerPtr.Store(newNopLogger())
}

// SetLogger installs the logger shared by every engine package.
// The engine is silent until a logger is installed. Passing nil restores the silent default.
//
// Levels used by the engine:
//   - slog.LevelDebug: per-batch diagnostics (rows encoded, regions uploaded, texture growth)
//   - slog.LevelInfo: lifecycle events (load started/finished, GPU limits, textures allocated)
//   - slog.LevelWarn: non-fatal issues (fetch retries, capacity truncation, dropped partial rows)
//   - slog.LevelError: aborted loads
//
// Parameters:
//   - l: the logger to install, or nil for silence
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)
}

// Logger returns the logger installed with SetLogger. Safe for concurrent use.
//
// Returns:
//   - *slog.Logger: the active logger, never nil
func Logger() *slog.Logger {
	return loggerPtr.Load()
}
