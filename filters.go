package logpipe

// minLevelFilter allows events at or above a minimum level.
type minLevelFilter struct {
	min Level
}

func (f minLevelFilter) Allow(e Event) bool {
	return e.Level >= f.min
}

// exactLevelFilter allows only exact level matches.
type exactLevelFilter struct {
	level Level
}

func (f exactLevelFilter) Allow(e Event) bool {
	return e.Level == f.level
}

// levelsAllowFilter allows only the listed levels.
type levelsAllowFilter struct {
	levels map[Level]struct{}
}

func (f levelsAllowFilter) Allow(e Event) bool {
	_, ok := f.levels[e.Level]
	return ok
}

// buildFilter constructs a filter from its spec.
func buildFilter(spec FilterSpec) (Filter, error) {
	switch spec.Kind {
	case "min":
		return minLevelFilter{min: ParseLevel(valueOr(spec.Params, "level", "INFO"))}, nil
	case "exact":
		return exactLevelFilter{level: ParseLevel(valueOr(spec.Params, "level", "INFO"))}, nil
	case "levels":
		allowed := make(map[Level]struct{})
		if raw, ok := spec.Params["levels"].([]any); ok {
			for _, value := range raw {
				allowed[ParseLevel(value)] = struct{}{}
			}
		}
		return levelsAllowFilter{levels: allowed}, nil
	}
	return nil, newConfigError(ErrCodeUnknownKind, spec.Name,
		"filter %q has unknown kind %q", spec.Name, spec.Kind)
}
