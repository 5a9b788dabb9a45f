package logpipe

import (
	"strings"
	"testing"
)

func topologyWith(cfg *Config, sinks map[string]*recordingSink) *Topology {
	targets := make(map[string]dispatchTarget, len(sinks))
	for name, sink := range sinks {
		spec := cfg.Handlers[name]
		targets[name] = dispatchTarget{handler: newTestHandler(name, spec.Level, sink)}
	}
	return buildTopology(cfg, targets)
}

func dispatchConfig() *Config {
	return BuildConfig(map[string]any{
		"formatters": map[string]any{
			"text": map[string]any{"default": map[string]any{}},
		},
		"handlers": map[string]any{
			"enabled": []any{"debugging", "alerts"},
			"debugging": map[string]any{
				"type":      "null",
				"level":     "DEBUG",
				"formatter": "text.default",
			},
			"alerts": map[string]any{
				"type":      "null",
				"level":     "WARNING",
				"formatter": "text.default",
			},
		},
		"logging": map[string]any{
			"root": map[string]any{
				"level":    "DEBUG",
				"handlers": []any{"debugging", "alerts"},
			},
		},
		"levels": map[string]any{"root": "DEBUG"},
	})
}

func TestDispatchHandlerLevelGate(t *testing.T) {
	cfg := dispatchConfig()
	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	topo.Dispatch(testEvent(LevelInfo, "root", "routine"))
	topo.Dispatch(testEvent(LevelError, "root", "broken"))

	if got := len(sinks["debugging"].Lines()); got != 2 {
		t.Errorf("debugging handler got %d events, want 2", got)
	}
	alerts := sinks["alerts"].Lines()
	if len(alerts) != 1 || !strings.Contains(alerts[0], "broken") {
		t.Errorf("alerts handler got %v, want only the error event", alerts)
	}
}

func TestDispatchTraceGate(t *testing.T) {
	cfg := dispatchConfig()
	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	topo.Dispatch(testEvent(LevelTrace, "root", "hidden"))
	if got := len(sinks["debugging"].Lines()); got != 0 {
		t.Fatalf("trace event delivered %d times with enable_trace off", got)
	}

	cfg.Levels.EnableTrace = true
	cfg.Handlers["debugging"] = HandlerSpec{
		Name: "debugging", Kind: "null", Level: LevelTrace, Formatter: "text.default",
	}
	cfg.Root.Level = LevelTrace
	cfg.Levels.Root = LevelTrace
	topo = topologyWith(cfg, sinks)

	topo.Dispatch(testEvent(LevelTrace, "root", "visible"))
	if got := len(sinks["debugging"].Lines()); got != 1 {
		t.Fatalf("trace event delivered %d times with enable_trace on, want 1", got)
	}
}

func TestDispatchPropagation(t *testing.T) {
	cfg := dispatchConfig()
	cfg.Loggers = map[string]LoggerSpec{
		"svc": {Name: "svc", Level: LevelDebug, Handlers: []string{"debugging"}, Propagate: true},
		"db":  {Name: "db", Level: LevelDebug, Handlers: []string{"debugging"}, Propagate: false},
	}
	cfg.Root.Handlers = []string{"alerts"}

	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	topo.Dispatch(testEvent(LevelError, "svc", "propagated"))
	topo.Dispatch(testEvent(LevelError, "db", "contained"))

	if got := len(sinks["debugging"].Lines()); got != 2 {
		t.Errorf("own handler got %d events, want 2", got)
	}
	alerts := sinks["alerts"].Lines()
	if len(alerts) != 1 || !strings.Contains(alerts[0], "propagated") {
		t.Errorf("root handler got %v, want only the propagated event", alerts)
	}
}

func TestDispatchChildFallsBackToNearestAncestor(t *testing.T) {
	cfg := dispatchConfig()
	cfg.Loggers = map[string]LoggerSpec{
		"svc": {Name: "svc", Level: LevelDebug, Handlers: []string{"debugging"}},
	}
	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	// svc.http has no node of its own; it resolves to svc.
	topo.Dispatch(testEvent(LevelInfo, "svc.http.client", "nested"))
	if got := len(sinks["debugging"].Lines()); got != 1 {
		t.Fatalf("nearest ancestor got %d events, want 1", got)
	}
}

func TestDispatchLevelOverrides(t *testing.T) {
	cfg := dispatchConfig()
	cfg.Levels.Overrides = map[string]Level{"noisy": LevelError}
	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	topo.Dispatch(testEvent(LevelWarn, "noisy", "suppressed"))
	topo.Dispatch(testEvent(LevelWarn, "noisy.child", "suppressed too"))
	topo.Dispatch(testEvent(LevelError, "noisy", "surfaced"))

	lines := sinks["debugging"].Lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "surfaced") {
		t.Fatalf("override delivered %v, want only the error event", lines)
	}
}

func TestDispatchConfiguredChildBeatsAncestorOverride(t *testing.T) {
	cfg := dispatchConfig()
	cfg.Levels.Overrides = map[string]Level{"noisy": LevelError}
	cfg.Loggers = map[string]LoggerSpec{
		"noisy.audit": {Name: "noisy.audit", Level: LevelDebug, Handlers: []string{"debugging"}},
	}
	sinks := map[string]*recordingSink{"debugging": {}, "alerts": {}}
	topo := topologyWith(cfg, sinks)

	// The explicitly configured child keeps its own threshold; only
	// unconfigured descendants inherit the ancestor's override.
	topo.Dispatch(testEvent(LevelInfo, "noisy.audit", "kept"))
	topo.Dispatch(testEvent(LevelInfo, "noisy.other", "silenced"))

	lines := sinks["debugging"].Lines()
	if len(lines) != 1 || !strings.Contains(lines[0], "kept") {
		t.Fatalf("configured child delivered %v, want only its own event", lines)
	}
}
