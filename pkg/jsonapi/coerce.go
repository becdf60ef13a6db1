package jsonapi

import (
	"math"
	"strings"
	"time"

	"github.com/spf13/cast"
)

// Coercion helpers read loosely typed attribute values. None of them panic;
// absent or malformed input yields the documented zero value.

// ParseString returns value as a string. Scalars are formatted, nil and
// composite values yield "".
func ParseString(value any) string {
	switch value.(type) {
	case nil, map[string]any, []any:
		return ""
	}

	s, err := cast.ToStringE(value)
	if err != nil {
		return ""
	}

	return s
}

// ParseOptionalString is ParseString returning nil for absent values.
func ParseOptionalString(value any) *string {
	if value == nil {
		return nil
	}

	s := ParseString(value)

	return &s
}

// ParseNumber returns value as a float64, or 0 when absent or malformed.
func ParseNumber(value any) float64 {
	n, ok := toNumber(value)
	if !ok {
		return 0
	}

	return n
}

// ParseOptionalNumber returns nil when value is absent or not numeric.
func ParseOptionalNumber(value any) *float64 {
	n, ok := toNumber(value)
	if !ok {
		return nil
	}

	return &n
}

// ParseInt returns value as an int, or 0 when absent or malformed.
func ParseInt(value any) int {
	n, ok := toNumber(value)
	if !ok {
		return 0
	}

	return int(n)
}

func toNumber(value any) (float64, bool) {
	if value == nil {
		return 0, false
	}

	if s, ok := value.(string); ok {
		value = strings.TrimSpace(s)
		if value == "" {
			return 0, false
		}
	}

	if _, ok := value.(bool); ok {
		return 0, false
	}

	n, err := cast.ToFloat64E(value)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}

	return n, true
}

// ParseBoolean accepts true, false, 1 and 0 (as booleans, numbers or
// strings). Everything else, including nil, is false.
func ParseBoolean(value any) bool {
	switch v := value.(type) {
	case bool:
		return v
	case string:
		switch strings.TrimSpace(strings.ToLower(v)) {
		case "true", "1":
			return true
		default:
			return false
		}
	case nil:
		return false
	}

	n, ok := toNumber(value)

	return ok && n == 1
}

var dateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-8601 string. Anything else yields nil.
func ParseDate(value any) *time.Time {
	s, ok := value.(string)
	if !ok {
		return nil
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			return &parsed
		}
	}

	return nil
}

// ParseStringArray returns the string elements of value. Non-string elements
// are formatted; nil elements are dropped.
func ParseStringArray(value any) []string {
	switch v := value.(type) {
	case nil:
		return []string{}
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, elem := range v {
			if elem == nil {
				continue
			}

			out = append(out, ParseString(elem))
		}

		return out
	default:
		return []string{}
	}
}

// ParseMap returns value as an object, or nil.
func ParseMap(value any) map[string]any {
	m, err := cast.ToStringMapE(value)
	if err != nil || value == nil {
		return nil
	}

	return m
}
