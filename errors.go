package logpipe

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a specific configuration failure.
type ErrorCode int

const (
	// ErrCodeUnknown represents an unclassified error.
	ErrCodeUnknown ErrorCode = iota

	// Referential integrity failures, each distinct.
	ErrCodeUnknownHandlerReference
	ErrCodeEmptyHandlerSet
	ErrCodeUnknownFormatterReference
	ErrCodeUnknownFilterReference
	ErrCodeUnconfiguredHandlerReference

	// Construction failures.
	ErrCodeConflictingRotation
	ErrCodeUnknownKind
	ErrCodeInvalidOption
)

// ErrConfiguration is the category sentinel for all configuration errors.
// errors.Is(err, ErrConfiguration) reports whether err belongs to the
// configuration failure taxonomy regardless of its specific code.
var ErrConfiguration = errors.New("logpipe: configuration error")

// ErrSinkClosed is returned by writes to a sink that has been closed.
var ErrSinkClosed = errors.New("logpipe: sink is closed")

// ConfigError is a configuration failure with a machine-checkable code and
// the offending reference, raised before any sink is opened for the new
// configuration generation.
type ConfigError struct {
	Code ErrorCode
	Ref  string // handler/formatter/filter/logger name involved, if any
	Msg  string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "logpipe: " + e.Msg
}

// Is matches the ErrConfiguration category and same-code ConfigErrors.
func (e *ConfigError) Is(target error) bool {
	if target == ErrConfiguration {
		return true
	}
	if other, ok := target.(*ConfigError); ok {
		return e.Code == other.Code
	}
	return false
}

func newConfigError(code ErrorCode, ref, format string, args ...any) *ConfigError {
	return &ConfigError{Code: code, Ref: ref, Msg: fmt.Sprintf(format, args...)}
}

// SinkError is an I/O failure on a sink's open/write/rotate path. It
// surfaces to the immediate caller of the write operation and is not retried.
type SinkError struct {
	Op   string // operation that failed, e.g. "open", "write", "rotate"
	Path string // file path or destination address
	Err  error
}

// Error implements the error interface.
func (e *SinkError) Error() string {
	return fmt.Sprintf("logpipe: %s %s: %v", e.Op, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *SinkError) Unwrap() error {
	return e.Err
}

func newSinkError(op, path string, err error) *SinkError {
	return &SinkError{Op: op, Path: path, Err: err}
}
