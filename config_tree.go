package logpipe

import (
	"fmt"
	"strconv"
)

// Helpers for reading an untyped configuration tree. Decoded documents mix
// value types (YAML ints, JSON float64s, []any string lists), so every
// accessor coerces permissively and falls back to a default.

func asMap(value any) map[string]any {
	switch v := value.(type) {
	case map[string]any:
		return v
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out
	}
	return nil
}

func valueOr(data map[string]any, key string, fallback any) any {
	if v, ok := data[key]; ok && v != nil {
		return v
	}
	return fallback
}

func optString(data map[string]any, key, fallback string) string {
	if v, ok := data[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		if v != nil {
			return fmt.Sprint(v)
		}
	}
	return fallback
}

func optBool(data map[string]any, key string, fallback bool) bool {
	if v, ok := data[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return fallback
}

func optInt(data map[string]any, key string, fallback int) int {
	if v, ok := data[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

func optInt64(data map[string]any, key string, fallback int64) int64 {
	if v, ok := data[key]; ok {
		switch n := v.(type) {
		case int:
			return int64(n)
		case int64:
			return n
		case float64:
			return int64(n)
		case string:
			if parsed, err := strconv.ParseInt(n, 10, 64); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

func optFloat(data map[string]any, key string, fallback float64) float64 {
	if v, ok := data[key]; ok {
		switch n := v.(type) {
		case int:
			return float64(n)
		case int64:
			return float64(n)
		case float64:
			return n
		case string:
			if parsed, err := strconv.ParseFloat(n, 64); err == nil {
				return parsed
			}
		}
	}
	return fallback
}

func optStringSlice(data map[string]any, key string) []string {
	v, ok := data[key]
	if !ok {
		return nil
	}
	switch list := v.(type) {
	case []string:
		return append([]string(nil), list...)
	case []any:
		out := make([]string, 0, len(list))
		for _, item := range list {
			out = append(out, fmt.Sprint(item))
		}
		return out
	}
	return nil
}

func optStringMap(data map[string]any, key string) map[string]string {
	body := asMap(data[key])
	if body == nil {
		return nil
	}
	out := make(map[string]string, len(body))
	for k, v := range body {
		out[k] = fmt.Sprint(v)
	}
	return out
}

// mergeTree deep-merges incoming over base into a fresh tree. Scalar and
// list values are replaced wholesale; only maps merge recursively.
func mergeTree(base, incoming map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(incoming))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range incoming {
		incomingMap := asMap(v)
		baseMap := asMap(out[k])
		if incomingMap != nil && baseMap != nil {
			out[k] = mergeTree(baseMap, incomingMap)
			continue
		}
		if incomingMap != nil {
			out[k] = mergeTree(map[string]any{}, incomingMap)
			continue
		}
		out[k] = v
	}
	return out
}
