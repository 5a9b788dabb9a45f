package logpipe

import (
	"context"
	"strings"
	"testing"
)

func contextTestManager(t *testing.T, allowed []string, enabled bool) (*Manager, *recordingSink) {
	t.Helper()
	cfg := validConfig()
	cfg.Context = ContextConfig{Enabled: enabled, AllowedKeys: allowed}

	m := NewManager()
	if err := m.Configure(cfg); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	t.Cleanup(m.Shutdown)

	// Swap the console handler's sink for an in-memory recorder.
	sink := &recordingSink{}
	h, ok := m.Handler("console")
	if !ok {
		t.Fatal("console handler missing")
	}
	h.sink = sink
	h.formatter = &logfmtFormatter{timeLayout: wireTimeLayout}
	return m, sink
}

func TestContextLoggerBindsAllowedKeys(t *testing.T) {
	m, sink := contextTestManager(t, []string{"request_id"}, true)

	ctx := WithAttrs(context.Background(), map[string]any{
		"request_id": "abc-123",
		"password":   "hunter2",
	})
	m.ContextLogger(ctx, "svc").Info("handled")

	lines := sink.Lines()
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if want := "request_id=abc-123"; !strings.Contains(lines[0], want) {
		t.Errorf("line %q missing %q", lines[0], want)
	}
	if strings.Contains(lines[0], "hunter2") {
		t.Errorf("disallowed key leaked into %q", lines[0])
	}
}

func TestContextLoggerEmptyAllowListAdmitsEverything(t *testing.T) {
	m, sink := contextTestManager(t, nil, true)

	ctx := WithAttrs(context.Background(), map[string]any{"tenant": "acme"})
	m.ContextLogger(ctx, "svc").Info("handled")

	if lines := sink.Lines(); len(lines) != 1 || !strings.Contains(lines[0], "tenant=acme") {
		t.Errorf("lines = %v", lines)
	}
}

func TestContextLoggerDisabledIgnoresContext(t *testing.T) {
	m, sink := contextTestManager(t, nil, false)

	ctx := WithAttrs(context.Background(), map[string]any{"tenant": "acme"})
	m.ContextLogger(ctx, "svc").Info("handled")

	if lines := sink.Lines(); len(lines) != 1 || strings.Contains(lines[0], "tenant") {
		t.Errorf("lines = %v", lines)
	}
}

func TestWithAttrsAccumulates(t *testing.T) {
	ctx := WithAttrs(context.Background(), map[string]any{"a": 1, "b": 1})
	ctx = WithAttrs(ctx, map[string]any{"b": 2})

	attrs := AttrsFromContext(ctx)
	if attrs["a"] != 1 || attrs["b"] != 2 {
		t.Errorf("attrs = %v", attrs)
	}
}
