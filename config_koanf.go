package logpipe

import (
	kjson "github.com/knadh/koanf/parsers/json"
	kyaml "github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// ConfigFormat identifies the serialization of a configuration document.
type ConfigFormat string

const (
	// FormatYAML parses the document as YAML.
	FormatYAML ConfigFormat = "yaml"
	// FormatJSON parses the document as JSON.
	FormatJSON ConfigFormat = "json"
)

// ParseConfig decodes one already-merged configuration document and
// normalizes it over the built-in defaults. Loading from files, environment,
// or process overrides is the caller's concern; this consumes the result.
func ParseConfig(data []byte, format ConfigFormat) (*Config, error) {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = kyaml.Parser()
	case FormatJSON:
		parser = kjson.Parser()
	default:
		return nil, newConfigError(ErrCodeInvalidOption, string(format),
			"unsupported configuration format %q", format)
	}

	k := koanf.New(".")
	if len(data) > 0 {
		if err := k.Load(rawbytes.Provider(data), parser); err != nil {
			return nil, errors.Wrap(err, "logpipe: parsing configuration document")
		}
	}

	merged := mergeTree(defaultTree(), k.Raw())
	return BuildConfig(merged), nil
}
