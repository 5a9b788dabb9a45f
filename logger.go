package logpipe

import (
	"fmt"
	"time"
)

// Logger emits events for one named logger in the hierarchy. Loggers are
// cheap handles over the manager's current topology; they can be created
// before Configure runs and pick up new configuration automatically.
//
// A Logger is safe for concurrent use. With returns a child carrying bound
// attributes; the receiver is never mutated.
type Logger struct {
	manager *Manager
	name    string
	attrs   map[string]any
}

// Name returns the logger's dotted name.
func (l *Logger) Name() string { return l.name }

// With returns a copy of the logger with the given attributes bound. Bound
// attributes are merged into every event; per-call attributes win on key
// collision.
func (l *Logger) With(attrs map[string]any) *Logger {
	return &Logger{
		manager: l.manager,
		name:    l.name,
		attrs:   mergeAttrs(l.attrs, attrs),
	}
}

// Log emits one event at an arbitrary level.
func (l *Logger) Log(level Level, msg string, attrs map[string]any) {
	l.emit(level, msg, attrs, nil)
}

// Trace logs at the trace tier. Trace events are discarded unless
// enable_trace is set in the levels section.
func (l *Logger) Trace(msg string, attrs ...map[string]any) {
	l.emit(LevelTrace, msg, first(attrs), nil)
}

// Debug logs at DEBUG.
func (l *Logger) Debug(msg string, attrs ...map[string]any) {
	l.emit(LevelDebug, msg, first(attrs), nil)
}

// Info logs at INFO.
func (l *Logger) Info(msg string, attrs ...map[string]any) {
	l.emit(LevelInfo, msg, first(attrs), nil)
}

// Warn logs at WARNING.
func (l *Logger) Warn(msg string, attrs ...map[string]any) {
	l.emit(LevelWarn, msg, first(attrs), nil)
}

// Error logs at ERROR, attaching err to the event when non-nil.
func (l *Logger) Error(msg string, err error, attrs ...map[string]any) {
	l.emit(LevelError, msg, first(attrs), err)
}

// Critical logs at CRITICAL, attaching err to the event when non-nil.
func (l *Logger) Critical(msg string, err error, attrs ...map[string]any) {
	l.emit(LevelCritical, msg, first(attrs), err)
}

// Tracef logs a formatted message at the trace tier.
func (l *Logger) Tracef(format string, args ...any) {
	l.emit(LevelTrace, fmt.Sprintf(format, args...), nil, nil)
}

// Debugf logs a formatted message at DEBUG.
func (l *Logger) Debugf(format string, args ...any) {
	l.emit(LevelDebug, fmt.Sprintf(format, args...), nil, nil)
}

// Infof logs a formatted message at INFO.
func (l *Logger) Infof(format string, args ...any) {
	l.emit(LevelInfo, fmt.Sprintf(format, args...), nil, nil)
}

// Warnf logs a formatted message at WARNING.
func (l *Logger) Warnf(format string, args ...any) {
	l.emit(LevelWarn, fmt.Sprintf(format, args...), nil, nil)
}

// Errorf logs a formatted message at ERROR.
func (l *Logger) Errorf(format string, args ...any) {
	l.emit(LevelError, fmt.Sprintf(format, args...), nil, nil)
}

// Criticalf logs a formatted message at CRITICAL.
func (l *Logger) Criticalf(format string, args ...any) {
	l.emit(LevelCritical, fmt.Sprintf(format, args...), nil, nil)
}

func (l *Logger) emit(level Level, msg string, attrs map[string]any, err error) {
	l.manager.dispatch(Event{
		Time:    time.Now().UTC(),
		Level:   level,
		Logger:  l.name,
		Message: msg,
		Attrs:   mergeAttrs(l.attrs, attrs),
		Err:     err,
	})
}

func first(attrs []map[string]any) map[string]any {
	if len(attrs) == 0 {
		return nil
	}
	return attrs[0]
}
