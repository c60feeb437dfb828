package params

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var paramKeyRegexp = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.]*$`)

// ParseSpecs parses `key=value` specs into analysis params. Values are
// decoded as YAML scalars or flow collections so `10`, `1e10`, `true` and
// `[a, b]` keep their types, anything else is a string.
func ParseSpecs(specs []string) (map[string]any, error) {
	params := make(map[string]any, len(specs))

	for _, spec := range specs {
		if spec == "" {
			return nil, fmt.Errorf("param spec cannot be empty")
		}

		key, value, ok := strings.Cut(spec, "=")
		if !ok {
			return nil, fmt.Errorf("param %q must be in key=value format", spec)
		}

		if !isValidKey(key) {
			return nil, fmt.Errorf("invalid param key %q", key)
		}

		params[key] = parseValue(value)
	}

	return params, nil
}

// MergeMaps returns base overridden by override.
func MergeMaps(base map[string]any, override map[string]any) map[string]any {
	if len(base) == 0 && len(override) == 0 {
		return map[string]any{}
	}

	merged := make(map[string]any, len(base)+len(override))
	for k, v := range base {
		merged[k] = v
	}
	for k, v := range override {
		merged[k] = v
	}

	return merged
}

func parseValue(raw string) any {
	if raw == "" {
		return ""
	}

	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil || v == nil {
		return raw
	}

	// Only plain values, a value like `a: b` is a string for us.
	if _, ok := v.(map[string]any); ok && !strings.HasPrefix(strings.TrimSpace(raw), "{") {
		return raw
	}

	return v
}

func isValidKey(k string) bool {
	return paramKeyRegexp.MatchString(k)
}
