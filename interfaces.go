package logpipe

// Formatter renders one event to bytes. The returned line carries no
// trailing newline; sinks add whatever framing their transport needs.
type Formatter interface {
	Format(e Event) ([]byte, error)
}

// Filter decides whether an event may pass to a handler's sink.
type Filter interface {
	Allow(e Event) bool
}

// Sink is an output destination. Write receives both the event and the line
// already rendered by the handler's formatter; structured network sinks build
// their own wire payload from the event, byte-oriented sinks write the line.
//
// A Sink is not required to be safe for concurrent Write calls from multiple
// goroutines at the API level; the runtime guarantees a single writer per
// sink (the call site for synchronous handlers, the queue consumer for
// asynchronous ones). Implementations in this package serialize internally
// anyway so that shutdown can race a late write without corruption.
type Sink interface {
	Write(e Event, line []byte) error
	Flush() error
	Close() error
}
