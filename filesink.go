package logpipe

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
)

const sinkBufferSize = 4096

// FileSinkConfig aggregates everything a file sink needs: where files live,
// how calendar time maps to directories, when to rotate, and what to keep.
type FileSinkConfig struct {
	BaseDir   string
	Filename  string
	Strategy  DateFolderStrategy
	Size      *SizeRotation
	Time      *TimeRotation
	Retention RetentionPolicy
}

// FileSink owns one open file handle. On each event it resolves the correct
// path for the event's timestamp (calendar relocation), writes, and rotates
// when the configured policy triggers. Rotation shifts the closed segment
// into numbered backup slots (name.1 is the newest), optionally compresses
// slot 1, and then enforces retention.
//
// A FileSink has a single logical writer at a time; the internal mutex only
// protects against a shutdown racing a late write.
type FileSink struct {
	mu  sync.Mutex
	cfg FileSinkConfig

	sizeRot *SizeRotation
	timeRot *TimeRotation

	file   *os.File
	writer *bufio.Writer
	path   string
	dir    string
	size   int64
	lock   *flock.Flock

	nextRotation time.Time
	closed       bool
}

// NewFileSink validates the rotation configuration, creates the dated
// directory for the current moment, and opens the target file. No data is
// written until the first event arrives.
func NewFileSink(cfg FileSinkConfig) (*FileSink, error) {
	if cfg.Filename == "" {
		return nil, newConfigError(ErrCodeInvalidOption, "",
			"file sink requires a filename")
	}

	sizeRot, timeRot, err := normalizeRotation(cfg.Size, cfg.Time)
	if err != nil {
		return nil, err
	}

	s := &FileSink{cfg: cfg, sizeRot: sizeRot, timeRot: timeRot}

	path, err := BuildLogPath(cfg.BaseDir, cfg.Filename, cfg.Strategy, time.Now().UTC())
	if err != nil {
		return nil, newSinkError("open", filepath.Join(cfg.BaseDir, cfg.Filename), err)
	}
	if err := s.openFile(path); err != nil {
		return nil, err
	}

	if timeRot != nil {
		s.nextRotation = timeRot.nextBoundary(time.Now())
	}
	return s, nil
}

// Path returns the currently open file path.
func (s *FileSink) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// openFile opens path for appending and resets the sink's write state.
func (s *FileSink) openFile(path string) error {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return newSinkError("open", path, err)
	}
	info, err := file.Stat()
	if err != nil {
		file.Close()
		return newSinkError("stat", path, err)
	}

	s.file = file
	s.writer = bufio.NewWriterSize(file, sinkBufferSize)
	s.path = path
	s.dir = filepath.Dir(path)
	s.size = info.Size()
	s.lock = flock.New(path + ".lock")
	return nil
}

// Write appends one formatted line, relocating and rotating first as needed.
// I/O errors surface to the caller; retention and compression failures are
// swallowed.
func (s *FileSink) Write(e Event, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrSinkClosed
	}

	// Calendar relocation runs before the rotation check and does not
	// count as a rotation.
	if err := s.relocate(e.Time); err != nil {
		return err
	}

	entrySize := int64(len(line)) + 1
	if s.sizeRot != nil && s.size > 0 && s.size+entrySize > s.sizeRot.MaxBytes {
		if err := s.rotate(); err != nil {
			return err
		}
	}
	if s.timeRot != nil {
		now := time.Now()
		if !now.Before(s.nextRotation) {
			if err := s.rotate(); err != nil {
				return err
			}
			s.nextRotation = s.timeRot.nextBoundary(now)
		}
	}

	if _, err := s.writer.Write(line); err != nil {
		return newSinkError("write", s.path, err)
	}
	if err := s.writer.WriteByte('\n'); err != nil {
		return newSinkError("write", s.path, err)
	}
	s.size += entrySize
	return nil
}

// relocate re-resolves the target path for the event's timestamp and moves
// the open handle when the calendar has advanced past the current directory.
func (s *FileSink) relocate(moment time.Time) error {
	if moment.IsZero() {
		return nil
	}
	target, err := BuildLogPath(s.cfg.BaseDir, s.cfg.Filename, s.cfg.Strategy, moment.UTC())
	if err != nil {
		return newSinkError("resolve", s.path, err)
	}
	if target == s.path {
		return nil
	}

	if err := s.writer.Flush(); err != nil {
		return newSinkError("flush", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return newSinkError("close", s.path, err)
	}
	return s.openFile(target)
}

// rotate closes the open segment, shifts numbered backups, optionally
// compresses the newest backup, enforces retention, and reopens a fresh
// segment at the same logical path. The cross-process file lock is held for
// the whole shuffle so two processes sharing a log directory cannot
// interleave their backup slots.
func (s *FileSink) rotate() error {
	if err := s.lock.Lock(); err != nil {
		return newSinkError("lock", s.path, err)
	}
	defer s.lock.Unlock()

	if err := s.writer.Flush(); err != nil {
		return newSinkError("flush", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return newSinkError("close", s.path, err)
	}

	// Shift name.1 -> name.2 ... dropping the slot past the backup count.
	// Compressed slots shift alongside their plain counterparts.
	count := s.backupCount()
	_ = os.Remove(backupSlot(s.path, count))
	_ = os.Remove(backupSlot(s.path, count) + ".gz")
	for i := count - 1; i >= 1; i-- {
		src := backupSlot(s.path, i)
		if _, err := os.Stat(src); err == nil {
			_ = os.Rename(src, backupSlot(s.path, i+1))
		}
		if _, err := os.Stat(src + ".gz"); err == nil {
			_ = os.Rename(src+".gz", backupSlot(s.path, i+1)+".gz")
		}
	}

	renameErr := os.Rename(s.path, backupSlot(s.path, 1))

	if renameErr == nil && s.cfg.Retention.Compress {
		// Best effort; a failed compression leaves the plain segment.
		_ = compressSegment(backupSlot(s.path, 1))
	}
	if renameErr == nil {
		s.cfg.Retention.apply(s.dir, s.cfg.Filename)
	}

	if err := s.openFile(s.path); err != nil {
		return err
	}
	if renameErr != nil {
		return newSinkError("rotate", s.path, renameErr)
	}
	return nil
}

func (s *FileSink) backupCount() int {
	if s.timeRot != nil {
		return s.timeRot.BackupCount
	}
	return s.sizeRot.BackupCount
}

func backupSlot(path string, n int) string {
	return fmt.Sprintf("%s.%d", path, n)
}

// Flush forces buffered data to disk.
func (s *FileSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	if err := s.writer.Flush(); err != nil {
		return newSinkError("flush", s.path, err)
	}
	return s.file.Sync()
}

// Close flushes and closes the open segment. Subsequent writes return
// ErrSinkClosed.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.writer.Flush(); err != nil {
		s.file.Close()
		return newSinkError("flush", s.path, err)
	}
	if err := s.file.Close(); err != nil {
		return newSinkError("close", s.path, err)
	}
	return nil
}
