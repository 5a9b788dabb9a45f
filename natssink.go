package logpipe

import (
	"sync"

	"github.com/nats-io/nats.go"
)

// natsSink publishes each rendered line to a NATS subject, for fan-out of
// log streams across processes.
type natsSink struct {
	mu      sync.Mutex
	conn    *nats.Conn
	subject string
	closed  bool
}

func newNATSSink(url, subject, name string) (*natsSink, error) {
	if subject == "" {
		return nil, newConfigError(ErrCodeInvalidOption, "",
			"nats sink requires a subject")
	}
	if url == "" {
		url = nats.DefaultURL
	}
	if name == "" {
		name = "logpipe"
	}
	conn, err := nats.Connect(url, nats.Name(name))
	if err != nil {
		return nil, newSinkError("dial", url, err)
	}
	return &natsSink{conn: conn, subject: subject}, nil
}

func (s *natsSink) Write(_ Event, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	if err := s.conn.Publish(s.subject, line); err != nil {
		return newSinkError("publish", s.subject, err)
	}
	return nil
}

func (s *natsSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	return s.conn.Flush()
}

func (s *natsSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if err := s.conn.Flush(); err != nil {
		s.conn.Close()
		return newSinkError("flush", s.subject, err)
	}
	s.conn.Close()
	return nil
}
