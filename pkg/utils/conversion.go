package utils

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// ToBool converts loosely typed prop values to a boolean.
// Handles bool, numbers and strings ("1", "true", "yes", "on").
func ToBool(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case int64:
		return v != 0
	case float64:
		return v != 0
	case json.Number:
		f, err := v.Float64()
		return err == nil && f != 0
	case string:
		return parseBoolString(v)
	default:
		return false
	}
}

func parseBoolString(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	if lower == "1" || lower == "yes" || lower == "on" {
		return true
	}
	b, err := strconv.ParseBool(lower)
	return err == nil && b
}

// ToFloat converts numbers and numeric strings to float64.
func ToFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// ToInt converts numbers and numeric strings to int. Fractional values are rejected.
func ToInt(val interface{}) (int, bool) {
	f, ok := ToFloat(val)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}

// ParseNumber turns user input into an int when it is integral and a float64 otherwise.
func ParseNumber(s string) (interface{}, bool) {
	f, ok := ToFloat(s)
	if !ok {
		return nil, false
	}
	if f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int(f), true
	}
	return f, true
}
