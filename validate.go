package logpipe

import "sort"

// Validate checks the referential integrity of a configuration snapshot
// before any sink is constructed. It returns the first violation found,
// walking sections in a deterministic order so repeated runs over the same
// snapshot report the same error.
//
// The checks, in order:
//  1. every name in handlers.enabled refers to a defined handler
//  2. the enabled set is not empty
//  3. every handler's formatter reference resolves
//  4. every handler's filter references resolve
//  5. every root and logger handler reference resolves to an enabled handler
func (c *Config) Validate() error {
	enabled := make(map[string]bool, len(c.Enabled))
	for _, name := range c.Enabled {
		if _, ok := c.Handlers[name]; !ok {
			return newConfigError(ErrCodeUnknownHandlerReference, name,
				"enabled handler %q is not defined", name)
		}
		enabled[name] = true
	}

	if len(c.Enabled) == 0 {
		return newConfigError(ErrCodeEmptyHandlerSet, "",
			"no handlers are enabled")
	}

	for _, name := range sortedKeys(c.Handlers) {
		spec := c.Handlers[name]
		if _, ok := c.Formatters[spec.Formatter]; !ok {
			return newConfigError(ErrCodeUnknownFormatterReference, spec.Formatter,
				"handler %q references unknown formatter %q", name, spec.Formatter)
		}
		for _, filter := range spec.Filters {
			if _, ok := c.Filters[filter]; !ok {
				return newConfigError(ErrCodeUnknownFilterReference, filter,
					"handler %q references unknown filter %q", name, filter)
			}
		}
	}

	if err := checkLoggerHandlers(c.Root, enabled); err != nil {
		return err
	}
	for _, name := range sortedKeys(c.Loggers) {
		if err := checkLoggerHandlers(c.Loggers[name], enabled); err != nil {
			return err
		}
	}
	return nil
}

func checkLoggerHandlers(spec LoggerSpec, enabled map[string]bool) error {
	for _, handler := range spec.Handlers {
		if !enabled[handler] {
			return newConfigError(ErrCodeUnconfiguredHandlerReference, handler,
				"logger %q references handler %q which is not enabled", spec.Name, handler)
		}
	}
	return nil
}

func sortedKeys[M ~map[string]V, V any](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
