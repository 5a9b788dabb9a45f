package logpipe

import "time"

// Event is a single log record. Events are immutable once created and flow
// read-only through filters, formatters, and sinks.
type Event struct {
	// Time is the moment the event was produced. File sinks use it to
	// resolve the date-aware target path.
	Time time.Time

	// Level is the event severity.
	Level Level

	// Logger is the dotted name of the producing logger.
	Logger string

	// Message is the rendered message text.
	Message string

	// Attrs holds optional structured attributes. Keys are unique.
	Attrs map[string]any

	// Err carries an optional failure payload.
	Err error
}

// mergeAttrs combines attribute maps left to right into a fresh map, later
// maps winning on key collision. Returns nil when every input is empty so
// attribute-free events stay allocation-free.
func mergeAttrs(maps ...map[string]any) map[string]any {
	total := 0
	for _, m := range maps {
		total += len(m)
	}
	if total == 0 {
		return nil
	}
	merged := make(map[string]any, total)
	for _, m := range maps {
		for k, v := range m {
			merged[k] = v
		}
	}
	return merged
}
