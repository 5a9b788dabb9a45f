package logpipe

import (
	"sort"
	"time"
)

// DateLayout selects how dated log directories are laid out.
type DateLayout string

const (
	// LayoutFlat puts each day in a single directory named by the
	// configured date format, e.g. logs/20231231/app.log.
	LayoutFlat DateLayout = "flat"
	// LayoutNested uses year/month/day subdirectories,
	// e.g. logs/2023/12/31/app.log.
	LayoutNested DateLayout = "nested"
)

// Defaults applied when the configuration tree leaves values unset.
const (
	defaultBaseDir       = "logs"
	defaultDateFormat    = "%Y-%m-%d"
	defaultQueueSize     = 1000
	defaultFlushInterval = 500 * time.Millisecond
	defaultStopTimeout   = 5 * time.Second
)

// RootLoggerName is the reserved name of the root logger.
const RootLoggerName = "root"

// PathsConfig controls where file sinks place their files.
type PathsConfig struct {
	BaseDir    string
	Layout     DateLayout
	DateFormat string // strftime-style tokens, used by the flat layout
}

// Strategy returns the date folder strategy described by the section.
func (p PathsConfig) Strategy() DateFolderStrategy {
	return DateFolderStrategy{Mode: p.Layout, DateFormat: p.DateFormat}
}

// FormatterSpec is a named, typed formatter configuration unit. Names are
// qualified as "kind.name" as they appear in the formatters section.
type FormatterSpec struct {
	Name    string
	Kind    string
	Options map[string]any
}

// FilterSpec is a named, typed filter configuration unit.
type FilterSpec struct {
	Name   string
	Kind   string
	Params map[string]any
}

// HandlerSpec is a named, typed handler configuration unit. It references
// exactly one formatter and zero or more filters by name; the references
// must resolve within the same configuration snapshot.
type HandlerSpec struct {
	Name      string
	Kind      string
	Level     Level
	Formatter string
	Filters   []string
	Options   map[string]any
}

// LoggerSpec configures one named logger.
type LoggerSpec struct {
	Name      string
	Level     Level
	Handlers  []string
	Propagate bool
}

// LevelsConfig carries the root level override, the trace tier toggle, and
// per-logger minimum level overrides.
type LevelsConfig struct {
	Root        Level
	EnableTrace bool
	Overrides   map[string]Level
}

// AsyncConfig configures the queue coordinator.
type AsyncConfig struct {
	Enabled       bool
	QueueSize     int
	FlushInterval time.Duration
	StopTimeout   time.Duration
}

// ContextConfig configures the context-attribute adapter.
type ContextConfig struct {
	Enabled     bool
	AllowedKeys []string
}

// Config is one fully merged configuration snapshot. Instances are built
// once per Configure call and treated as immutable afterwards.
type Config struct {
	Paths      PathsConfig
	Formatters map[string]FormatterSpec
	Filters    map[string]FilterSpec
	Handlers   map[string]HandlerSpec
	Enabled    []string // ordered list of enabled handler names
	Root       LoggerSpec
	Loggers    map[string]LoggerSpec
	Levels     LevelsConfig
	Async      AsyncConfig
	Context    ContextConfig

	// Flags accepted for configuration-shape compatibility. Go has no
	// ambient global logger registry, so DisableExistingLoggers and
	// CaptureWarnings carry no behavior here.
	CaptureWarnings        bool
	DisableExistingLoggers bool
	ForceConfig            bool
	Incremental            bool
}

// defaultTree is the built-in configuration: a console handler on stderr
// with the default text formatter, root at INFO.
func defaultTree() map[string]any {
	return map[string]any{
		"paths": map[string]any{
			"base_dir":         defaultBaseDir,
			"date_folder_mode": string(LayoutNested),
			"date_format":      defaultDateFormat,
		},
		"formatters": map[string]any{
			"text":   map[string]any{"default": map[string]any{"show_extras": false}},
			"jsonl":  map[string]any{"default": map[string]any{}},
			"logfmt": map[string]any{"default": map[string]any{}},
			"csv":    map[string]any{"default": map[string]any{}},
		},
		"filters": map[string]any{},
		"handlers": map[string]any{
			"enabled": []any{"console"},
			"console": map[string]any{
				"type":      "console",
				"level":     "INFO",
				"formatter": "text.default",
				"stream":    "stderr",
			},
		},
		"logging": map[string]any{
			"root":                     map[string]any{"level": "INFO", "handlers": []any{"console"}},
			"loggers":                  map[string]any{},
			"disable_existing_loggers": false,
			"force_config":             false,
			"incremental":              false,
			"capture_warnings":         true,
		},
		"levels": map[string]any{
			"root":         "INFO",
			"enable_trace": false,
			"overrides":    map[string]any{},
		},
		"async": map[string]any{
			"enabled":           false,
			"queue_size":        defaultQueueSize,
			"flush_interval_ms": 500,
			"stop_timeout_s":    5.0,
		},
		"context": map[string]any{
			"enabled":      true,
			"allowed_keys": []any{},
		},
	}
}

// DefaultConfig returns the built-in configuration snapshot.
func DefaultConfig() *Config {
	return BuildConfig(defaultTree())
}

// BuildConfig normalizes an already-merged configuration tree into a Config.
// Missing sections fall back to defaults; BuildConfig never fails, leaving
// referential consistency to Validate.
func BuildConfig(data map[string]any) *Config {
	cfg := &Config{
		Paths:      buildPaths(asMap(data["paths"])),
		Formatters: buildFormatterSpecs(asMap(data["formatters"])),
		Filters:    buildFilterSpecs(asMap(data["filters"])),
		Levels:     buildLevels(asMap(data["levels"])),
		Async:      buildAsync(asMap(data["async"])),
		Context:    buildContext(asMap(data["context"])),
	}
	cfg.Handlers, cfg.Enabled = buildHandlerSpecs(asMap(data["handlers"]))
	buildLogging(cfg, asMap(data["logging"]))
	if len(cfg.Root.Handlers) == 0 {
		cfg.Root.Handlers = append([]string(nil), cfg.Enabled...)
	}
	return cfg
}

func buildPaths(data map[string]any) PathsConfig {
	layout := DateLayout(optString(data, "date_folder_mode", string(LayoutNested)))
	if layout != LayoutFlat && layout != LayoutNested {
		layout = LayoutNested
	}
	return PathsConfig{
		BaseDir:    optString(data, "base_dir", defaultBaseDir),
		Layout:     layout,
		DateFormat: optString(data, "date_format", defaultDateFormat),
	}
}

func buildFormatterSpecs(data map[string]any) map[string]FormatterSpec {
	specs := make(map[string]FormatterSpec)
	for kind, entries := range data {
		byName := asMap(entries)
		for name, options := range byName {
			key := kind + "." + name
			specs[key] = FormatterSpec{Name: key, Kind: kind, Options: asMap(options)}
		}
	}
	return specs
}

func buildFilterSpecs(data map[string]any) map[string]FilterSpec {
	specs := make(map[string]FilterSpec)
	for name, payload := range data {
		body := asMap(payload)
		if body == nil {
			continue
		}
		kind := optString(body, "type", "min")
		params := make(map[string]any, len(body))
		for k, v := range body {
			if k != "type" {
				params[k] = v
			}
		}
		specs[name] = FilterSpec{Name: name, Kind: kind, Params: params}
	}
	return specs
}

func buildHandlerSpecs(data map[string]any) (map[string]HandlerSpec, []string) {
	specs := make(map[string]HandlerSpec)
	enabled := optStringSlice(data, "enabled")

	for name, payload := range data {
		if name == "enabled" {
			continue
		}
		body := asMap(payload)
		if body == nil {
			continue
		}
		options := make(map[string]any, len(body))
		for k, v := range body {
			switch k {
			case "type", "level", "formatter", "filters":
			default:
				options[k] = v
			}
		}
		specs[name] = HandlerSpec{
			Name:      name,
			Kind:      optString(body, "type", "console"),
			Level:     ParseLevel(body["level"]),
			Formatter: optString(body, "formatter", "text.default"),
			Filters:   optStringSlice(body, "filters"),
			Options:   options,
		}
	}

	if len(enabled) == 0 {
		for name := range specs {
			enabled = append(enabled, name)
		}
		sort.Strings(enabled)
	}
	return specs, enabled
}

func buildLogging(cfg *Config, data map[string]any) {
	rootData := asMap(data["root"])
	cfg.Root = LoggerSpec{
		Name:     RootLoggerName,
		Level:    ParseLevel(valueOr(rootData, "level", "INFO")),
		Handlers: optStringSlice(rootData, "handlers"),
	}

	cfg.Loggers = make(map[string]LoggerSpec)
	for name, payload := range asMap(data["loggers"]) {
		body := asMap(payload)
		if body == nil {
			continue
		}
		cfg.Loggers[name] = LoggerSpec{
			Name:      name,
			Level:     ParseLevel(valueOr(body, "level", "INFO")),
			Handlers:  optStringSlice(body, "handlers"),
			Propagate: optBool(body, "propagate", false),
		}
	}

	cfg.DisableExistingLoggers = optBool(data, "disable_existing_loggers", false)
	cfg.ForceConfig = optBool(data, "force_config", false)
	cfg.Incremental = optBool(data, "incremental", false)
	cfg.CaptureWarnings = optBool(data, "capture_warnings", true)
}

func buildLevels(data map[string]any) LevelsConfig {
	overrides := make(map[string]Level)
	for name, value := range asMap(data["overrides"]) {
		overrides[name] = ParseLevel(value)
	}
	return LevelsConfig{
		Root:        ParseLevel(valueOr(data, "root", "INFO")),
		EnableTrace: optBool(data, "enable_trace", false),
		Overrides:   overrides,
	}
}

func buildAsync(data map[string]any) AsyncConfig {
	size := optInt(data, "queue_size", defaultQueueSize)
	if size <= 0 {
		size = defaultQueueSize
	}
	flushMs := optInt(data, "flush_interval_ms", 500)
	stopSec := optFloat(data, "stop_timeout_s", 5.0)
	return AsyncConfig{
		Enabled:       optBool(data, "enabled", false),
		QueueSize:     size,
		FlushInterval: time.Duration(flushMs) * time.Millisecond,
		StopTimeout:   time.Duration(stopSec * float64(time.Second)),
	}
}

func buildContext(data map[string]any) ContextConfig {
	return ContextConfig{
		Enabled:     optBool(data, "enabled", true),
		AllowedKeys: optStringSlice(data, "allowed_keys"),
	}
}
