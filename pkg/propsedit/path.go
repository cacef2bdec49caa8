// Package propsedit stages builder-time edits of widget instance props.
package propsedit

import (
	"encoding/json"
	"strings"
)

// PathDelimiter separates the segments of a nested prop path ("chart.type").
const PathDelimiter = "."

// ValidPath reports whether every segment of path is non-blank.
func ValidPath(path string) bool {
	for _, seg := range strings.Split(path, PathDelimiter) {
		if strings.TrimSpace(seg) == "" {
			return false
		}
	}
	return true
}

// SetPath returns a copy of props with value stored at path. Intermediate objects are
// created as needed and a non-object found on the way is replaced by one. Sibling keys at
// every level are kept. props itself is never modified.
func SetPath(props map[string]interface{}, path string, value interface{}) map[string]interface{} {
	segments := strings.Split(path, PathDelimiter)
	return setSegments(props, segments, value)
}

func setSegments(m map[string]interface{}, segments []string, value interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	key := segments[0]
	if len(segments) == 1 {
		out[key] = value
		return out
	}
	child, _ := out[key].(map[string]interface{})
	out[key] = setSegments(child, segments[1:], value)
	return out
}

// GetPath reads the value at path, reporting whether every segment resolved.
func GetPath(props map[string]interface{}, path string) (interface{}, bool) {
	var cur interface{} = props
	for _, seg := range strings.Split(path, PathDelimiter) {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// ApplyRaw replaces props with the object encoded in text. When text is not a JSON object
// the original props are returned unchanged and applied is false.
func ApplyRaw(props map[string]interface{}, text string) (out map[string]interface{}, applied bool) {
	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(text), &parsed); err != nil || parsed == nil {
		return props, false
	}
	return parsed, true
}

// RawText renders props as the indented JSON shown in the raw editor.
func RawText(props map[string]interface{}) string {
	if props == nil {
		props = map[string]interface{}{}
	}
	data, err := json.MarshalIndent(props, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}
