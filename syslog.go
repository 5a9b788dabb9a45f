package logpipe

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"time"
)

const defaultSyslogPort = "514"

// facilityUser is the default syslog facility.
const facilityUser = 1

var syslogFacilities = map[string]int{
	"kern":   0,
	"user":   1,
	"mail":   2,
	"daemon": 3,
	"auth":   4,
	"syslog": 5,
	"lpr":    6,
	"news":   7,
	"uucp":   8,
	"cron":   9,
	"local0": 16,
	"local1": 17,
	"local2": 18,
	"local3": 19,
	"local4": 20,
	"local5": 21,
	"local6": 22,
	"local7": 23,
}

// syslogSeverity maps the level scale onto RFC 3164 severities.
func syslogSeverity(l Level) int {
	switch {
	case l >= LevelCritical:
		return 2
	case l >= LevelError:
		return 3
	case l >= LevelWarn:
		return 4
	case l >= LevelInfo:
		return 6
	default:
		return 7
	}
}

// parseSyslogAddress splits a destination address into a dial network and
// address. Supported forms:
//   - udp://host:port (also bare "host" or "host:port")
//   - tcp://host:port
//   - unix:///dev/log
func parseSyslogAddress(address string) (network, addr string) {
	switch {
	case strings.HasPrefix(address, "unix://"):
		return "unix", strings.TrimPrefix(address, "unix://")
	case strings.HasPrefix(address, "tcp://"):
		network, addr = "tcp", strings.TrimPrefix(address, "tcp://")
	case strings.HasPrefix(address, "udp://"):
		network, addr = "udp", strings.TrimPrefix(address, "udp://")
	default:
		network, addr = "udp", address
	}
	if !strings.Contains(addr, ":") {
		addr = net.JoinHostPort(addr, defaultSyslogPort)
	}
	return network, addr
}

// syslogSink forwards events to a syslog daemon over a raw connection.
// Messages carry PRI = facility*8 + severity followed by a stamp, the tag,
// and the formatted line.
type syslogSink struct {
	mu       sync.Mutex
	conn     net.Conn
	address  string
	facility int
	tag      string
	closed   bool
}

func newSyslogSink(address string, facility int, tag string) (*syslogSink, error) {
	network, addr := parseSyslogAddress(address)
	conn, err := net.Dial(network, addr)
	if err != nil {
		return nil, newSinkError("dial", address, err)
	}
	if facility < 0 || facility > 23 {
		facility = facilityUser
	}
	if tag == "" {
		tag = "logpipe"
	}
	return &syslogSink{conn: conn, address: address, facility: facility, tag: tag}, nil
}

func (s *syslogSink) Write(e Event, line []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}
	pri := s.facility*8 + syslogSeverity(e.Level)
	msg := fmt.Sprintf("<%d>%s %s: %s\n", pri, e.Time.Format(time.Stamp), s.tag, line)
	if _, err := s.conn.Write([]byte(msg)); err != nil {
		return newSinkError("write", s.address, err)
	}
	return nil
}

func (s *syslogSink) Flush() error { return nil }

func (s *syslogSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}

// parseFacility resolves a configured facility, accepting names and numbers.
func parseFacility(value any) int {
	switch v := value.(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	case string:
		if f, ok := syslogFacilities[strings.ToLower(v)]; ok {
			return f
		}
	}
	return facilityUser
}
