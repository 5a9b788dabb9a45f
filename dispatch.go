package logpipe

import "strings"

// dispatchTarget is one delivery endpoint attached to a logger node: the
// handler itself, or its queue coordinator when asynchronous delivery is on.
// Acceptance (level and filters) is checked before enqueuing so rejected
// events never occupy queue capacity.
type dispatchTarget struct {
	handler *Handler
	queue   *QueueCoordinator
}

func (t dispatchTarget) deliver(e Event) {
	if t.queue != nil {
		if t.handler.accepts(e) {
			t.queue.Enqueue(e)
		}
		return
	}
	t.handler.Handle(e)
}

// loggerNode is one configured entry in the logger hierarchy.
type loggerNode struct {
	name      string
	level     Level
	targets   []dispatchTarget
	propagate bool
	parent    *loggerNode
}

// Topology is the immutable routing structure built from one configuration
// snapshot. Logger names form a dot-separated hierarchy rooted at the root
// logger; events walk from the nearest configured ancestor toward the root
// while propagation allows.
type Topology struct {
	root         *loggerNode
	nodes        map[string]*loggerNode
	overrides    map[string]Level
	rootLevel    Level
	traceEnabled bool
}

// buildTopology wires configured loggers to their dispatch targets. Targets
// are resolved through the handler registry built for the same snapshot, so
// every referenced name is present by the time this runs.
func buildTopology(cfg *Config, targets map[string]dispatchTarget) *Topology {
	t := &Topology{
		nodes:        make(map[string]*loggerNode, len(cfg.Loggers)),
		overrides:    cfg.Levels.Overrides,
		rootLevel:    cfg.Root.Level,
		traceEnabled: cfg.Levels.EnableTrace,
	}
	// Both the logging and levels sections can set the root threshold.
	// The more permissive of the two wins, so loosening either section
	// takes effect without having to touch the other.
	if cfg.Levels.Root < cfg.Root.Level {
		t.rootLevel = cfg.Levels.Root
	}

	t.root = &loggerNode{
		name:    RootLoggerName,
		level:   t.rootLevel,
		targets: resolveTargets(cfg.Root.Handlers, targets),
	}

	for name, spec := range cfg.Loggers {
		t.nodes[name] = &loggerNode{
			name:      name,
			level:     spec.Level,
			targets:   resolveTargets(spec.Handlers, targets),
			propagate: spec.Propagate,
		}
	}

	// Link each node to its nearest configured ancestor, defaulting to root.
	for name, node := range t.nodes {
		node.parent = t.root
		for prefix := parentName(name); prefix != ""; prefix = parentName(prefix) {
			if ancestor, ok := t.nodes[prefix]; ok {
				node.parent = ancestor
				break
			}
		}
	}
	return t
}

func resolveTargets(names []string, targets map[string]dispatchTarget) []dispatchTarget {
	out := make([]dispatchTarget, 0, len(names))
	for _, name := range names {
		if target, ok := targets[name]; ok {
			out = append(out, target)
		}
	}
	return out
}

func parentName(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[:i]
	}
	return ""
}

// nearest returns the closest configured node for a logger name, walking up
// the dot hierarchy and falling back to root.
func (t *Topology) nearest(name string) *loggerNode {
	if name == "" || name == RootLoggerName {
		return t.root
	}
	for n := name; n != ""; n = parentName(n) {
		if node, ok := t.nodes[n]; ok {
			return node
		}
	}
	return t.root
}

// levelFor resolves the effective minimum level for a logger name. At each
// step up the hierarchy an override beats the configured level for that same
// name, but a logger explicitly configured with its own level is never
// silenced by an override on an ancestor.
func (t *Topology) levelFor(name string) Level {
	if name == "" {
		name = RootLoggerName
	}
	for n := name; n != ""; n = parentName(n) {
		if lvl, ok := t.overrides[n]; ok {
			return lvl
		}
		if node, ok := t.nodes[n]; ok {
			return node.level
		}
	}
	if lvl, ok := t.overrides[RootLoggerName]; ok {
		return lvl
	}
	return t.root.level
}

// Dispatch routes one event through the hierarchy. Trace events are dropped
// wholesale unless the trace tier is enabled; below that gate the effective
// level decides, then each node on the propagation path delivers to its
// targets.
func (t *Topology) Dispatch(e Event) {
	if e.Level < LevelDebug && !t.traceEnabled {
		return
	}
	if e.Level < t.levelFor(e.Logger) {
		return
	}
	node := t.nearest(e.Logger)
	for {
		for _, target := range node.targets {
			target.deliver(e)
		}
		if node.parent == nil || !node.propagate {
			return
		}
		node = node.parent
	}
}
