package logpipe

import (
	"encoding/json"
	"net"
	"strconv"
	"sync"
)

const gelfVersion = "1.1"

// gelfSink emits one structured GELF 1.1 JSON datagram per event over UDP.
// The handler's rendered line is ignored; the payload is built from the
// event itself, with attributes mapped to underscore-prefixed extra fields.
type gelfSink struct {
	mu      sync.Mutex
	conn    net.Conn
	address string
	closed  bool
}

func newGELFSink(host string, port int) (*gelfSink, error) {
	address := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.Dial("udp", address)
	if err != nil {
		return nil, newSinkError("dial", address, err)
	}
	return &gelfSink{conn: conn, address: address}, nil
}

func (s *gelfSink) Write(e Event, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}

	payload := map[string]any{
		"version":       gelfVersion,
		"host":          e.Logger,
		"short_message": e.Message,
		"timestamp":     float64(e.Time.UnixNano()) / 1e9,
		"level":         syslogSeverity(e.Level),
	}
	if e.Err != nil {
		payload["full_message"] = e.Err.Error()
	}
	for k, v := range e.Attrs {
		payload["_"+k] = v
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return newSinkError("encode", s.address, err)
	}
	if _, err := s.conn.Write(data); err != nil {
		return newSinkError("write", s.address, err)
	}
	return nil
}

func (s *gelfSink) Flush() error { return nil }

func (s *gelfSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
