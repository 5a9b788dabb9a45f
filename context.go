package logpipe

import "context"

type contextAttrsKey struct{}

// WithAttrs returns a context carrying logging attributes. Attributes
// accumulate across calls; later values win on key collision. They surface
// on events through ContextLogger when the context adapter is enabled.
func WithAttrs(ctx context.Context, attrs map[string]any) context.Context {
	if len(attrs) == 0 {
		return ctx
	}
	existing, _ := ctx.Value(contextAttrsKey{}).(map[string]any)
	return context.WithValue(ctx, contextAttrsKey{}, mergeAttrs(existing, attrs))
}

// AttrsFromContext returns the logging attributes carried by ctx, or nil.
func AttrsFromContext(ctx context.Context) map[string]any {
	attrs, _ := ctx.Value(contextAttrsKey{}).(map[string]any)
	return attrs
}

// ContextLogger returns a logger for name with the context's attributes
// bound. When the configuration restricts allowed_keys, attributes outside
// the allow-list are dropped; an empty allow-list admits everything. With
// the context section disabled the plain logger is returned unchanged.
func (m *Manager) ContextLogger(ctx context.Context, name string) *Logger {
	logger := m.GetLogger(name)

	cfg := m.Config()
	if cfg == nil || !cfg.Context.Enabled {
		return logger
	}
	attrs := AttrsFromContext(ctx)
	if len(attrs) == 0 {
		return logger
	}
	if len(cfg.Context.AllowedKeys) > 0 {
		allowed := make(map[string]any, len(attrs))
		for _, key := range cfg.Context.AllowedKeys {
			if v, ok := attrs[key]; ok {
				allowed[key] = v
			}
		}
		attrs = allowed
	}
	return logger.With(attrs)
}
