package logpipe

import (
	"sync"
	"time"

	"github.com/pkg/errors"
)

var errTest = errors.New("disk full")

// recordingSink captures rendered lines in memory for assertions.
type recordingSink struct {
	mu      sync.Mutex
	lines   []string
	flushes int
	closed  bool
}

func (s *recordingSink) Write(_ Event, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	s.lines = append(s.lines, string(line))
	return nil
}

func (s *recordingSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flushes++
	return nil
}

func (s *recordingSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *recordingSink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func (s *recordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

func newTestHandler(name string, level Level, sink Sink) *Handler {
	return &Handler{
		name:      name,
		level:     level,
		formatter: &logfmtFormatter{timeLayout: wireTimeLayout},
		sink:      sink,
	}
}

func testEvent(level Level, logger, msg string) Event {
	return Event{
		Time:    time.Date(2023, 6, 15, 12, 30, 0, 0, time.UTC),
		Level:   level,
		Logger:  logger,
		Message: msg,
	}
}
