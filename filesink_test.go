package logpipe

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
)

func flatDaily() DateFolderStrategy {
	return DateFolderStrategy{Mode: LayoutFlat, DateFormat: "%Y%m%d"}
}

func eventAt(moment time.Time, msg string) Event {
	return Event{Time: moment, Level: LevelInfo, Logger: "test", Message: msg}
}

func writeLine(t *testing.T, s *FileSink, moment time.Time, msg string) {
	t.Helper()
	if err := s.Write(eventAt(moment, msg), []byte(msg)); err != nil {
		t.Fatalf("Write(%q): %v", msg, err)
	}
}

func backupNames(t *testing.T, dir, stem string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	var names []string
	for _, e := range entries {
		name := e.Name()
		if name == stem || !strings.HasPrefix(name, stem) || strings.HasSuffix(name, ".lock") {
			continue
		}
		names = append(names, name)
	}
	return names
}

func TestFileSinkWriteAppendsLines(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  base,
		Filename: "app.log",
		Strategy: flatDaily(),
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	now := time.Now().UTC()
	writeLine(t, s, now, "first")
	writeLine(t, s, now, "second")
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if got := string(data); got != "first\nsecond\n" {
		t.Errorf("file content = %q", got)
	}
}

func TestFileSinkRequiresFilename(t *testing.T) {
	_, err := NewFileSink(FileSinkConfig{BaseDir: t.TempDir()})
	if !errors.Is(err, ErrConfiguration) {
		t.Fatalf("err = %v, want configuration error", err)
	}
}

func TestFileSinkRejectsConflictingRotation(t *testing.T) {
	_, err := NewFileSink(FileSinkConfig{
		BaseDir:  t.TempDir(),
		Filename: "app.log",
		Strategy: flatDaily(),
		Size:     &SizeRotation{MaxBytes: 100, BackupCount: 1},
		Time:     &TimeRotation{When: "midnight"},
	})
	want := &ConfigError{Code: ErrCodeConflictingRotation}
	if !errors.Is(err, want) {
		t.Fatalf("err = %v, want conflicting-rotation error", err)
	}
}

func TestFileSinkSizeRotationKeepsBackupSlots(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  base,
		Filename: "app.log",
		Strategy: flatDaily(),
		Size:     &SizeRotation{MaxBytes: 20, BackupCount: 2},
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	// Each line is 16 bytes with the newline; every second write trips
	// the 20-byte cap and rotates.
	for i := 0; i < 8; i++ {
		writeLine(t, s, now, "aaaaaaaaaaaaaaa")
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dir := filepath.Dir(s.Path())
	if _, err := os.Stat(filepath.Join(dir, "app.log.1")); err != nil {
		t.Errorf("missing newest backup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.log.2")); err != nil {
		t.Errorf("missing oldest backup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.log.3")); err == nil {
		t.Error("backup slot 3 exists beyond the configured count")
	}
}

func TestFileSinkDefaultRetentionKeepsBackups(t *testing.T) {
	base := t.TempDir()
	// No Retention configured at all: the zero-value policy must prune
	// nothing, leaving rotation's own backup slots intact.
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  base,
		Filename: "app.log",
		Strategy: flatDaily(),
		Size:     &SizeRotation{MaxBytes: 20, BackupCount: 2},
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		writeLine(t, s, now, "aaaaaaaaaaaaaaa")
	}

	dir := filepath.Dir(s.Path())
	if _, err := os.Stat(filepath.Join(dir, "app.log.1")); err != nil {
		t.Errorf("zero-value retention removed backup: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.log.2")); err != nil {
		t.Errorf("zero-value retention removed backup: %v", err)
	}
}

func TestFileSinkTimeRotationThroughWrite(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  base,
		Filename: "app.log",
		Strategy: flatDaily(),
		Time:     &TimeRotation{When: "second", Interval: 1, BackupCount: 3, UTC: true},
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	writeLine(t, s, time.Now().UTC(), "before boundary")
	time.Sleep(1100 * time.Millisecond)
	writeLine(t, s, time.Now().UTC(), "after boundary")
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	dir := filepath.Dir(s.Path())
	rotated, err := os.ReadFile(filepath.Join(dir, "app.log.1"))
	if err != nil {
		t.Fatalf("boundary crossing did not rotate: %v", err)
	}
	if string(rotated) != "before boundary\n" {
		t.Errorf("rotated segment = %q", rotated)
	}
	current, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(current) != "after boundary\n" {
		t.Errorf("current segment = %q", current)
	}
}

func TestFileSinkRetentionCountLimit(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:   base,
		Filename:  "app.log",
		Strategy:  flatDaily(),
		Size:      &SizeRotation{MaxBytes: 20, BackupCount: 5},
		Retention: RetentionPolicy{MaxFiles: 2},
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	for i := 0; i < 12; i++ {
		writeLine(t, s, now, "aaaaaaaaaaaaaaa")
	}

	names := backupNames(t, filepath.Dir(s.Path()), "app.log")
	if len(names) != 2 {
		t.Errorf("backups after retention = %v, want 2 entries", names)
	}
}

func TestFileSinkCompressesRotatedSegment(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:   base,
		Filename:  "app.log",
		Strategy:  flatDaily(),
		Size:      &SizeRotation{MaxBytes: 20, BackupCount: 3},
		Retention: RetentionPolicy{Compress: true},
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	for i := 0; i < 4; i++ {
		writeLine(t, s, now, "aaaaaaaaaaaaaaa")
	}

	dir := filepath.Dir(s.Path())
	if _, err := os.Stat(filepath.Join(dir, "app.log.1.gz")); err != nil {
		t.Errorf("compressed backup missing: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "app.log.1")); err == nil {
		t.Error("uncompressed segment left behind after compression")
	}
}

func TestFileSinkCalendarRelocation(t *testing.T) {
	base := t.TempDir()
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  base,
		Filename: "app.log",
		Strategy: flatDaily(),
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	defer s.Close()

	day1 := time.Date(2023, 6, 15, 23, 59, 0, 0, time.UTC)
	day2 := time.Date(2023, 6, 16, 0, 1, 0, 0, time.UTC)

	writeLine(t, s, day1, "yesterday")
	firstPath := s.Path()
	writeLine(t, s, day2, "today")
	secondPath := s.Path()

	if firstPath == secondPath {
		t.Fatalf("sink did not relocate across the day boundary: %q", firstPath)
	}
	if !strings.Contains(firstPath, "20230615") || !strings.Contains(secondPath, "20230616") {
		t.Errorf("unexpected paths %q -> %q", firstPath, secondPath)
	}

	if err := s.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	data, err := os.ReadFile(firstPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "yesterday\n" {
		t.Errorf("day one content = %q", data)
	}

	// Relocation is not a rotation: no backup slots appear.
	if names := backupNames(t, filepath.Dir(firstPath), "app.log"); len(names) != 0 {
		t.Errorf("unexpected backups after relocation: %v", names)
	}
}

func TestFileSinkWriteAfterClose(t *testing.T) {
	s, err := NewFileSink(FileSinkConfig{
		BaseDir:  t.TempDir(),
		Filename: "app.log",
		Strategy: flatDaily(),
	})
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if err := s.Write(eventAt(time.Now().UTC(), "late"), []byte("late")); !errors.Is(err, ErrSinkClosed) {
		t.Fatalf("Write after Close = %v, want ErrSinkClosed", err)
	}
}

func TestTimeRotationNextBoundary(t *testing.T) {
	moment := time.Date(2023, 6, 15, 10, 30, 0, 0, time.UTC)

	hourly := &TimeRotation{When: "hour", Interval: 2, UTC: true}
	if got := hourly.nextBoundary(moment); !got.Equal(moment.Add(2 * time.Hour)) {
		t.Errorf("hourly boundary = %v", got)
	}

	midnight := &TimeRotation{When: "midnight", Interval: 1, UTC: true}
	want := time.Date(2023, 6, 16, 0, 0, 0, 0, time.UTC)
	if got := midnight.nextBoundary(moment); !got.Equal(want) {
		t.Errorf("midnight boundary = %v, want %v", got, want)
	}
}
