package logpipe

import (
	"strings"
	"time"
)

// Rotation defaults, matching the original runtime this replaces.
const (
	defaultRotateMaxBytes    = int64(10_000_000)
	defaultRotateBackups     = 5
	defaultTimeRotateBackups = 7
)

// SizeRotation rotates when the open segment would exceed MaxBytes.
type SizeRotation struct {
	MaxBytes    int64
	BackupCount int
}

// TimeRotation rotates when a time boundary is crossed. When is one of
// "midnight", "day"/"d", "hour"/"h", "minute"/"m", "second"/"s".
type TimeRotation struct {
	When        string
	Interval    int
	BackupCount int
	UTC         bool
}

// normalizeRotation enforces the size-XOR-time rule and applies the default
// size policy when neither mode is configured.
func normalizeRotation(size *SizeRotation, timed *TimeRotation) (*SizeRotation, *TimeRotation, error) {
	if size != nil && timed != nil {
		return nil, nil, newConfigError(ErrCodeConflictingRotation, "",
			"only one rotation strategy may be configured per file sink")
	}
	if size == nil && timed == nil {
		size = &SizeRotation{MaxBytes: defaultRotateMaxBytes, BackupCount: defaultRotateBackups}
	}
	if size != nil {
		if size.MaxBytes <= 0 {
			size.MaxBytes = defaultRotateMaxBytes
		}
		if size.BackupCount <= 0 {
			size.BackupCount = defaultRotateBackups
		}
	}
	if timed != nil {
		if timed.Interval <= 0 {
			timed.Interval = 1
		}
		if timed.BackupCount <= 0 {
			timed.BackupCount = defaultTimeRotateBackups
		}
	}
	return size, timed, nil
}

// nextBoundary computes the first rotation boundary after the given moment.
func (r *TimeRotation) nextBoundary(after time.Time) time.Time {
	loc := time.Local
	if r.UTC {
		loc = time.UTC
	}
	moment := after.In(loc)
	interval := r.Interval
	if interval <= 0 {
		interval = 1
	}

	switch strings.ToLower(r.When) {
	case "s", "second", "seconds":
		return moment.Add(time.Duration(interval) * time.Second)
	case "m", "minute", "minutes":
		return moment.Add(time.Duration(interval) * time.Minute)
	case "h", "hour", "hours":
		return moment.Add(time.Duration(interval) * time.Hour)
	case "d", "day", "days":
		return moment.AddDate(0, 0, interval)
	default: // midnight
		day := time.Date(moment.Year(), moment.Month(), moment.Day(), 0, 0, 0, 0, loc)
		return day.AddDate(0, 0, interval)
	}
}
