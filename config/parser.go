package config

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// lowerKeys lower-cases all keys of the given (nested) config map in place.
func lowerKeys(m map[string]any) {
	for key, val := range m {
		switch v := val.(type) {
		case map[string]any:
			lowerKeys(v)
		case map[any]any:
			// yaml.v2 decodes nested maps with interface keys
			stringMap := cast.ToStringMap(v)
			lowerKeys(stringMap)
			val = stringMap
		}

		lower := strings.ToLower(key)
		if key != lower {
			delete(m, key)
		}

		m[lower] = val
	}
}

// jsonLowerParser is a koanf parser for JSON files that lower-cases all keys.
type jsonLowerParser struct{}

// Unmarshal parses the given JSON bytes.
func (p *jsonLowerParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	lowerKeys(out)

	return out, nil
}

// Marshal marshals the given config map to indented JSON bytes.
func (p *jsonLowerParser) Marshal(o map[string]any) ([]byte, error) {
	return json.MarshalIndent(o, "", "  ")
}

// yamlLowerParser is a koanf parser for YAML files that lower-cases all keys.
type yamlLowerParser struct{}

// Unmarshal parses the given YAML bytes.
func (p *yamlLowerParser) Unmarshal(b []byte) (map[string]any, error) {
	var out map[string]any
	if err := yaml.Unmarshal(b, &out); err != nil {
		return nil, err
	}

	lowerKeys(out)

	return out, nil
}

// Marshal marshals the given config map to YAML bytes.
func (p *yamlLowerParser) Marshal(o map[string]any) ([]byte, error) {
	return yaml.Marshal(o)
}
