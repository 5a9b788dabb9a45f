package logpipe

import (
	"io"
	"os"
	"sync"
)

// consoleSink writes lines to a process stream. The stream itself is never
// closed; Close only marks the sink unusable.
type consoleSink struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

func newConsoleSink(stream string) *consoleSink {
	w := io.Writer(os.Stderr)
	if stream == "stdout" {
		w = os.Stdout
	}
	return &consoleSink{w: w}
}

func (s *consoleSink) Write(_ Event, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if _, err := s.w.Write(append(line, '\n')); err != nil {
		return newSinkError("write", "console", err)
	}
	return nil
}

func (s *consoleSink) Flush() error { return nil }

func (s *consoleSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// nullSink discards everything.
type nullSink struct{}

func (nullSink) Write(Event, []byte) error { return nil }
func (nullSink) Flush() error              { return nil }
func (nullSink) Close() error              { return nil }
