package logpipe

import (
	"time"

	"github.com/pkg/errors"
)

// Handler ties one sink to its formatter, filters, and minimum level.
type Handler struct {
	name      string
	level     Level
	formatter Formatter
	filters   []Filter
	sink      Sink
}

// Name returns the handler's configured name.
func (h *Handler) Name() string { return h.name }

// accepts reports whether the event passes the handler's level and filters.
func (h *Handler) accepts(e Event) bool {
	if e.Level < h.level {
		return false
	}
	for _, f := range h.filters {
		if !f.Allow(e) {
			return false
		}
	}
	return true
}

// Handle delivers one event through the handler's gate, formatter, and sink.
func (h *Handler) Handle(e Event) error {
	if !h.accepts(e) {
		return nil
	}
	line, err := h.formatter.Format(e)
	if err != nil {
		return errors.Wrapf(err, "logpipe: formatting event for handler %q", h.name)
	}
	return h.sink.Write(e, line)
}

// Flush flushes the underlying sink.
func (h *Handler) Flush() error { return h.sink.Flush() }

// Close closes the underlying sink.
func (h *Handler) Close() error { return h.sink.Close() }

// buildSink constructs the sink for one handler spec. File sinks create
// their dated directory here but write nothing until the first event.
func buildSink(spec HandlerSpec, paths PathsConfig) (Sink, error) {
	switch spec.Kind {
	case "file":
		return buildFileSink(spec, paths)
	case "console":
		return newConsoleSink(optString(spec.Options, "stream", "stderr")), nil
	case "syslog":
		return newSyslogSink(
			optString(spec.Options, "address", "localhost:514"),
			parseFacility(spec.Options["facility"]),
			optString(spec.Options, "tag", ""),
		)
	case "udp-structured":
		return newGELFSink(
			optString(spec.Options, "host", "localhost"),
			optInt(spec.Options, "port", 12201),
		)
	case "otlp-forward":
		return newOTLPSink(otlpSinkConfig{
			endpoint: optString(spec.Options, "endpoint", ""),
			headers:  optStringMap(spec.Options, "headers"),
			resource: optStringMap(spec.Options, "resource"),
			scope:    optString(spec.Options, "scope", ""),
			timeout:  time.Duration(optFloat(spec.Options, "timeout_s", 0) * float64(time.Second)),
		})
	case "nats":
		return newNATSSink(
			optString(spec.Options, "url", ""),
			optString(spec.Options, "subject", ""),
			optString(spec.Options, "name", ""),
		)
	case "null":
		return nullSink{}, nil
	}
	return nil, newConfigError(ErrCodeUnknownKind, spec.Name,
		"handler %q has unknown kind %q", spec.Name, spec.Kind)
}

func buildFileSink(spec HandlerSpec, paths PathsConfig) (Sink, error) {
	filename := optString(spec.Options, "filename", "")
	if filename == "" {
		return nil, newConfigError(ErrCodeInvalidOption, spec.Name,
			"handler %q of kind file requires a filename", spec.Name)
	}

	var sizeRot *SizeRotation
	var timeRot *TimeRotation
	rotation := asMap(spec.Options["rotation"])
	if sizeOpts := asMap(rotation["size"]); sizeOpts != nil {
		sizeRot = &SizeRotation{
			MaxBytes:    optInt64(sizeOpts, "max_bytes", defaultRotateMaxBytes),
			BackupCount: optInt(sizeOpts, "backup_count", defaultRotateBackups),
		}
	}
	if timeOpts := asMap(rotation["time"]); timeOpts != nil {
		timeRot = &TimeRotation{
			When:        optString(timeOpts, "when", "midnight"),
			Interval:    optInt(timeOpts, "interval", 1),
			BackupCount: optInt(timeOpts, "backup_count", defaultTimeRotateBackups),
			UTC:         optBool(timeOpts, "utc", false),
		}
	}

	var retention RetentionPolicy
	if retOpts := asMap(spec.Options["retention"]); retOpts != nil {
		retention.MaxFiles = optInt(retOpts, "max_files", 0)
		if days := optInt(retOpts, "max_days", 0); days > 0 {
			retention.MaxAge = time.Duration(days) * 24 * time.Hour
		}
		retention.Compress = optBool(retOpts, "compress", false)
	}

	return NewFileSink(FileSinkConfig{
		BaseDir:   paths.BaseDir,
		Filename:  filename,
		Strategy:  paths.Strategy(),
		Size:      sizeRot,
		Time:      timeRot,
		Retention: retention,
	})
}
