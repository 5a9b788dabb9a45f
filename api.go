package logpipe

import (
	"context"
	"sync"
)

// The package-level API fronts a single shared manager, mirroring the
// common pattern of configuring logging once at process start and fetching
// named loggers everywhere else. Programs embedding several independent
// logging topologies can construct their own Managers instead.

var (
	defaultManager     = NewManager()
	defaultManagerOnce sync.Once
)

// ensureConfigured applies the built-in configuration the first time the
// shared manager is used without an explicit Configure call.
func ensureConfigured() *Manager {
	defaultManagerOnce.Do(func() {
		if defaultManager.Config() == nil {
			defaultManager.Configure(DefaultConfig())
		}
	})
	return defaultManager
}

// Configure applies a configuration snapshot to the shared manager. A
// snapshot that fails validation leaves the running topology untouched.
func Configure(cfg *Config) error {
	defaultManagerOnce.Do(func() {})
	return defaultManager.Configure(cfg)
}

// ConfigureBytes parses raw YAML or JSON configuration, merges it over the
// built-in defaults, and applies it to the shared manager.
func ConfigureBytes(data []byte, format ConfigFormat) error {
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return err
	}
	return Configure(cfg)
}

// GetLogger returns a named logger backed by the shared manager, applying
// the built-in configuration on first use.
func GetLogger(name string) *Logger {
	return ensureConfigured().GetLogger(name)
}

// ContextLogger returns a named logger with the context's attributes bound,
// backed by the shared manager.
func ContextLogger(ctx context.Context, name string) *Logger {
	return ensureConfigured().ContextLogger(ctx, name)
}

// Flush flushes every handler of the shared manager.
func Flush() error {
	return defaultManager.Flush()
}

// Shutdown drains queues and closes every sink of the shared manager. The
// manager can be configured again afterwards.
func Shutdown() {
	defaultManager.Shutdown()
}
