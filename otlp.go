package logpipe

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
)

// otlpSeverityNumber maps the level scale onto OTLP severity numbers.
func otlpSeverityNumber(l Level) int {
	switch {
	case l >= LevelCritical:
		return 21
	case l >= LevelError:
		return 17
	case l >= LevelWarn:
		return 13
	case l >= LevelInfo:
		return 9
	case l >= LevelDebug:
		return 5
	default:
		return 1
	}
}

type otlpAttribute struct {
	Key   string `json:"key"`
	Value struct {
		StringValue string `json:"stringValue"`
	} `json:"value"`
}

func otlpAttr(key string, value any) otlpAttribute {
	a := otlpAttribute{Key: key}
	a.Value.StringValue = fmt.Sprint(value)
	return a
}

// otlpSink forwards each event to an OTLP/HTTP logs endpoint as a JSON
// export request. Transient transport failures are retried by the client;
// a final failure surfaces to the write caller like any other sink error.
type otlpSink struct {
	mu       sync.Mutex
	client   *retryablehttp.Client
	endpoint string
	headers  map[string]string
	resource map[string]string
	scope    string
	closed   bool
}

type otlpSinkConfig struct {
	endpoint string
	headers  map[string]string
	resource map[string]string
	scope    string
	timeout  time.Duration
}

func newOTLPSink(cfg otlpSinkConfig) (*otlpSink, error) {
	if cfg.endpoint == "" {
		return nil, newConfigError(ErrCodeInvalidOption, "",
			"otlp-forward sink requires an endpoint")
	}
	client := retryablehttp.NewClient()
	client.RetryMax = 2
	client.Logger = nil
	if cfg.timeout > 0 {
		client.HTTPClient.Timeout = cfg.timeout
	}
	scope := cfg.scope
	if scope == "" {
		scope = "logpipe"
	}
	return &otlpSink{
		client:   client,
		endpoint: cfg.endpoint,
		headers:  cfg.headers,
		resource: cfg.resource,
		scope:    scope,
	}, nil
}

func (s *otlpSink) Write(e Event, _ []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSinkClosed
	}

	attrs := make([]otlpAttribute, 0, len(e.Attrs)+1)
	attrs = append(attrs, otlpAttr("logger.name", e.Logger))
	for _, k := range sortedAttrKeys(e.Attrs) {
		attrs = append(attrs, otlpAttr(k, e.Attrs[k]))
	}
	if e.Err != nil {
		attrs = append(attrs, otlpAttr("exception.message", e.Err.Error()))
	}

	resourceAttrs := make([]otlpAttribute, 0, len(s.resource))
	for k, v := range s.resource {
		resourceAttrs = append(resourceAttrs, otlpAttr(k, v))
	}

	record := map[string]any{
		"timeUnixNano":   strconv.FormatInt(e.Time.UnixNano(), 10),
		"severityNumber": otlpSeverityNumber(e.Level),
		"severityText":   e.Level.String(),
		"body":           map[string]any{"stringValue": e.Message},
		"attributes":     attrs,
	}
	payload := map[string]any{
		"resourceLogs": []any{map[string]any{
			"resource": map[string]any{"attributes": resourceAttrs},
			"scopeLogs": []any{map[string]any{
				"scope":      map[string]any{"name": s.scope},
				"logRecords": []any{record},
			}},
		}},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return newSinkError("encode", s.endpoint, err)
	}

	req, err := retryablehttp.NewRequest(http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return newSinkError("request", s.endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return newSinkError("post", s.endpoint, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusBadRequest {
		return newSinkError("post", s.endpoint,
			fmt.Errorf("collector returned status %d", resp.StatusCode))
	}
	return nil
}

func (s *otlpSink) Flush() error { return nil }

func (s *otlpSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.client.HTTPClient.CloseIdleConnections()
	return nil
}
