package logpipe

import (
	"fmt"
	"strconv"
	"strings"
)

// Level is an ordered severity scale. Higher values are more severe.
type Level int

const (
	// LevelTrace is an optional tier below debug, enabled via
	// the levels.enable_trace configuration flag.
	LevelTrace Level = 5
	// LevelDebug for diagnostic detail.
	LevelDebug Level = 10
	// LevelInfo for routine operational messages.
	LevelInfo Level = 20
	// LevelWarn for conditions worth attention.
	LevelWarn Level = 30
	// LevelError for failures of an operation.
	LevelError Level = 40
	// LevelCritical for failures that threaten the process.
	LevelCritical Level = 50
)

// String returns the canonical upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARNING"
	case LevelError:
		return "ERROR"
	case LevelCritical:
		return "CRITICAL"
	default:
		return fmt.Sprintf("LEVEL(%d)", int(l))
	}
}

// levelByName resolves a friendly level name. Accepts the stdlib-style
// aliases WARN and FATAL.
func levelByName(name string) (Level, bool) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "TRACE":
		return LevelTrace, true
	case "DEBUG":
		return LevelDebug, true
	case "INFO":
		return LevelInfo, true
	case "WARNING", "WARN":
		return LevelWarn, true
	case "ERROR":
		return LevelError, true
	case "CRITICAL", "FATAL":
		return LevelCritical, true
	}
	return 0, false
}

// ParseLevel normalizes a configuration-supplied level value. Accepts level
// names (case-insensitive), numeric strings, and integers. Unrecognized
// values fall back to LevelInfo, matching the permissive handling of the
// configuration tree elsewhere.
func ParseLevel(value any) Level {
	switch v := value.(type) {
	case Level:
		return v
	case int:
		return Level(v)
	case int64:
		return Level(v)
	case float64:
		return Level(int(v))
	case string:
		if lvl, ok := levelByName(v); ok {
			return lvl
		}
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return Level(n)
		}
	}
	return LevelInfo
}
