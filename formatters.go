package logpipe

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
)

const (
	textTimeLayout = "2006-01-02 15:04:05"
	wireTimeLayout = "2006-01-02T15:04:05Z07:00"
)

// buildFormatter constructs a formatter from its spec.
func buildFormatter(spec FormatterSpec) (Formatter, error) {
	switch spec.Kind {
	case "text":
		return &textFormatter{
			timeLayout: optTimeLayout(spec.Options, textTimeLayout),
			showExtras: optBool(spec.Options, "show_extras", false),
		}, nil
	case "jsonl":
		return &jsonFormatter{timeLayout: optTimeLayout(spec.Options, wireTimeLayout)}, nil
	case "logfmt":
		return &logfmtFormatter{timeLayout: optTimeLayout(spec.Options, wireTimeLayout)}, nil
	case "csv":
		fields := optStringSlice(spec.Options, "fields")
		if len(fields) == 0 {
			fields = []string{"ts", "level", "logger", "message"}
		}
		return &csvFormatter{
			timeLayout:    optTimeLayout(spec.Options, wireTimeLayout),
			fields:        fields,
			extraFields:   optStringSlice(spec.Options, "extra_fields"),
			includeHeader: optBool(spec.Options, "include_header", false),
		}, nil
	}
	return nil, newConfigError(ErrCodeUnknownKind, spec.Name,
		"formatter %q has unknown kind %q", spec.Name, spec.Kind)
}

func optTimeLayout(options map[string]any, fallback string) string {
	if raw := optString(options, "datefmt", ""); raw != "" {
		return strftimeLayout(raw)
	}
	return fallback
}

// sortedAttrKeys returns the event's attribute keys in stable order.
func sortedAttrKeys(attrs map[string]any) []string {
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// textFormatter renders pipe-separated human-readable lines.
type textFormatter struct {
	timeLayout string
	showExtras bool
}

func (f *textFormatter) Format(e Event) ([]byte, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s | %-8s | %s | %s",
		e.Time.Format(f.timeLayout), e.Level, e.Logger, e.Message)
	if f.showExtras && len(e.Attrs) > 0 {
		b.WriteString(" |")
		for _, k := range sortedAttrKeys(e.Attrs) {
			fmt.Fprintf(&b, " %s=%v", k, e.Attrs[k])
		}
	}
	if e.Err != nil {
		fmt.Fprintf(&b, " | error=%v", e.Err)
	}
	return []byte(b.String()), nil
}

// jsonFormatter emits one compact JSON object per event.
type jsonFormatter struct {
	timeLayout string
}

func (f *jsonFormatter) Format(e Event) ([]byte, error) {
	payload := struct {
		TS      string         `json:"ts"`
		Level   string         `json:"level"`
		Logger  string         `json:"logger"`
		Message string         `json:"message"`
		Attrs   map[string]any `json:"attrs,omitempty"`
		Error   string         `json:"error,omitempty"`
	}{
		TS:      e.Time.Format(f.timeLayout),
		Level:   e.Level.String(),
		Logger:  e.Logger,
		Message: e.Message,
		Attrs:   e.Attrs,
	}
	if e.Err != nil {
		payload.Error = e.Err.Error()
	}
	return json.Marshal(payload)
}

// logfmtFormatter renders key=value lines with minimal quoting.
type logfmtFormatter struct {
	timeLayout string
}

func logfmtEscape(value any) string {
	text := fmt.Sprint(value)
	if text == "" {
		return `""`
	}
	if strings.ContainsAny(text, " \t\n=\"") {
		return `"` + strings.ReplaceAll(text, `"`, `\"`) + `"`
	}
	return text
}

func (f *logfmtFormatter) Format(e Event) ([]byte, error) {
	parts := []string{
		"ts=" + logfmtEscape(e.Time.Format(f.timeLayout)),
		"level=" + logfmtEscape(e.Level.String()),
		"logger=" + logfmtEscape(e.Logger),
		"msg=" + logfmtEscape(e.Message),
	}
	for _, k := range sortedAttrKeys(e.Attrs) {
		parts = append(parts, k+"="+logfmtEscape(e.Attrs[k]))
	}
	if e.Err != nil {
		parts = append(parts, "error="+logfmtEscape(e.Err.Error()))
	}
	return []byte(strings.Join(parts, " ")), nil
}

// csvFormatter renders events as CSV rows with a configurable field list.
// The optional header row is emitted once per formatter instance.
type csvFormatter struct {
	timeLayout    string
	fields        []string
	extraFields   []string
	includeHeader bool

	mu            sync.Mutex
	headerEmitted bool
}

func (f *csvFormatter) value(e Event, field string) string {
	switch field {
	case "ts":
		return e.Time.Format(f.timeLayout)
	case "level":
		return e.Level.String()
	case "logger", "name":
		return e.Logger
	case "message":
		return e.Message
	case "error":
		if e.Err != nil {
			return e.Err.Error()
		}
		return ""
	}
	if v, ok := e.Attrs[field]; ok {
		return fmt.Sprint(v)
	}
	return ""
}

func (f *csvFormatter) Format(e Event) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	f.mu.Lock()
	emitHeader := f.includeHeader && !f.headerEmitted
	f.headerEmitted = true
	f.mu.Unlock()

	if emitHeader {
		if err := w.Write(append(append([]string{}, f.fields...), f.extraFields...)); err != nil {
			return nil, err
		}
	}

	row := make([]string, 0, len(f.fields)+len(f.extraFields))
	for _, field := range f.fields {
		row = append(row, f.value(e, field))
	}
	for _, field := range f.extraFields {
		if v, ok := e.Attrs[field]; ok {
			row = append(row, fmt.Sprint(v))
		} else {
			row = append(row, "")
		}
	}
	if err := w.Write(row); err != nil {
		return nil, err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
