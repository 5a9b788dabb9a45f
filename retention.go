package logpipe

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// RetentionPolicy prunes historical segments after rotation. It applies only
// to files in the sink's current directory that share the sink's filename
// stem; unrelated files are never touched.
type RetentionPolicy struct {
	// MaxFiles keeps at most this many historical segments, newest first
	// by modification time. Zero or negative disables the count limit, so
	// the zero value of the policy prunes nothing.
	MaxFiles int

	// MaxAge deletes segments whose modification time is older than
	// now minus MaxAge. Zero disables the age limit.
	MaxAge time.Duration

	// Compress gzips the most recently rotated segment.
	Compress bool
}

// apply enforces the policy. Deletions are best-effort: a missing file or an
// unreadable directory never produces an error, so housekeeping can never
// block event delivery.
func (p RetentionPolicy) apply(dir, stem string) {
	if p.MaxFiles <= 0 && p.MaxAge <= 0 {
		return
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}

	type segment struct {
		path    string
		modTime time.Time
	}
	var segments []segment
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == stem || !strings.HasPrefix(name, stem) {
			continue
		}
		// The cross-process lock sidecar lives next to the segments but
		// is not one of them.
		if strings.HasSuffix(name, ".lock") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		segments = append(segments, segment{
			path:    filepath.Join(dir, name),
			modTime: info.ModTime(),
		})
	}

	// Newest first, so the head of the slice survives the count limit.
	sort.Slice(segments, func(i, j int) bool {
		return segments[i].modTime.After(segments[j].modTime)
	})

	if p.MaxFiles > 0 {
		for _, seg := range segments[min(p.MaxFiles, len(segments)):] {
			_ = os.Remove(seg.path)
		}
	}

	if p.MaxAge > 0 {
		cutoff := time.Now().Add(-p.MaxAge)
		for _, seg := range segments {
			if seg.modTime.Before(cutoff) {
				_ = os.Remove(seg.path)
			}
		}
	}
}
