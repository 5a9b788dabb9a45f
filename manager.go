package logpipe

import (
	"sync"

	"github.com/pkg/errors"
)

// Manager owns the live logging topology: the handler registry, the queue
// coordinators, and the dispatch hierarchy built from the current
// configuration snapshot. Reconfiguration is generational: a Configure call
// validates the new snapshot first, tears down the previous generation only
// after validation passes, then builds the new one. A snapshot that fails
// validation leaves the previous generation running untouched.
type Manager struct {
	mu           sync.RWMutex
	cfg          *Config
	handlers     map[string]*Handler
	coordinators []*QueueCoordinator
	topology     *Topology
}

// NewManager returns an unconfigured manager. Events dispatched before the
// first successful Configure are discarded.
func NewManager() *Manager {
	return &Manager{}
}

// Configure replaces the manager's topology with one built from cfg.
//
// Ordering matters: validation runs against the new snapshot before any
// teardown, so a bad snapshot cannot take down a working topology. Build
// failures after validation (a sink that cannot open, an unknown handler
// kind) tear down whatever was partially built and leave the manager
// unconfigured; validation cannot vouch for the filesystem or the network.
func (m *Manager) Configure(cfg *Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.teardownLocked()
	m.cfg = nil

	formatters := make(map[string]Formatter, len(cfg.Formatters))
	for name, spec := range cfg.Formatters {
		f, err := buildFormatter(spec)
		if err != nil {
			return errors.Wrapf(err, "building formatter %q", name)
		}
		formatters[name] = f
	}

	filters := make(map[string]Filter, len(cfg.Filters))
	for name, spec := range cfg.Filters {
		f, err := buildFilter(spec)
		if err != nil {
			return errors.Wrapf(err, "building filter %q", name)
		}
		filters[name] = f
	}

	handlers := make(map[string]*Handler, len(cfg.Enabled))
	for _, name := range cfg.Enabled {
		spec := cfg.Handlers[name]
		sink, err := buildSink(spec, cfg.Paths)
		if err != nil {
			closeHandlers(handlers)
			return errors.Wrapf(err, "building handler %q", name)
		}
		chain := make([]Filter, 0, len(spec.Filters))
		for _, fname := range spec.Filters {
			chain = append(chain, filters[fname])
		}
		handlers[name] = &Handler{
			name:      name,
			level:     spec.Level,
			formatter: formatters[spec.Formatter],
			filters:   chain,
			sink:      sink,
		}
	}

	targets := make(map[string]dispatchTarget, len(handlers))
	var coordinators []*QueueCoordinator
	for name, h := range handlers {
		target := dispatchTarget{handler: h}
		if cfg.Async.Enabled {
			q := NewQueueCoordinator(h, cfg.Async.QueueSize, cfg.Async.FlushInterval)
			q.Start()
			coordinators = append(coordinators, q)
			target.queue = q
		}
		targets[name] = target
	}

	m.cfg = cfg
	m.handlers = handlers
	m.coordinators = coordinators
	m.topology = buildTopology(cfg, targets)
	return nil
}

// Config returns the active configuration snapshot, or nil before the first
// successful Configure.
func (m *Manager) Config() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cfg
}

// Handler returns the named handler from the active generation.
func (m *Manager) Handler(name string) (*Handler, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	h, ok := m.handlers[name]
	return h, ok
}

// GetLogger returns a logger handle for the given dotted name. The empty
// name and "root" both address the root logger.
func (m *Manager) GetLogger(name string) *Logger {
	if name == "" {
		name = RootLoggerName
	}
	return &Logger{manager: m, name: name}
}

// Flush flushes every handler in the active generation.
func (m *Manager) Flush() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var firstErr error
	for _, name := range sortedKeys(m.handlers) {
		if err := m.handlers[name].Flush(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Shutdown stops the queue coordinators, flushes and closes every handler,
// and leaves the manager unconfigured. Safe to call repeatedly.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.teardownLocked()
	m.cfg = nil
}

func (m *Manager) teardownLocked() {
	stopTimeout := defaultStopTimeout
	if m.cfg != nil && m.cfg.Async.StopTimeout > 0 {
		stopTimeout = m.cfg.Async.StopTimeout
	}

	// Coordinators flush and close their wrapped handlers on stop; only
	// handlers without a coordinator need closing directly.
	queued := make(map[*Handler]bool, len(m.coordinators))
	for _, q := range m.coordinators {
		q.Stop(stopTimeout)
		queued[q.Handler()] = true
	}
	for _, h := range m.handlers {
		if !queued[h] {
			h.Flush()
			h.Close()
		}
	}

	m.handlers = nil
	m.coordinators = nil
	m.topology = nil
}

// dispatch hands one event to the active topology. The topology pointer is
// read under the lock but delivery happens outside it, so slow sinks do not
// serialize against reconfiguration.
func (m *Manager) dispatch(e Event) {
	m.mu.RLock()
	t := m.topology
	m.mu.RUnlock()
	if t == nil {
		return
	}
	t.Dispatch(e)
}

func closeHandlers(handlers map[string]*Handler) {
	for _, h := range handlers {
		h.Close()
	}
}
