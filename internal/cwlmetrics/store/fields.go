package store

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -0700 MST",
}

// Lookup resolves a dotted path against a document source.
// A literal key containing dots takes precedence over nested objects, so both {"a.b": 1} and {"a": {"b": 1}}
// resolve "a.b".
func Lookup(source map[string]interface{}, path string) (interface{}, bool) {
	if source == nil {
		return nil, false
	}
	if v, ok := source[path]; ok {
		return v, true
	}
	for i := 0; i < len(path); i++ {
		if path[i] != '.' {
			continue
		}
		sub, ok := source[path[:i]].(map[string]interface{})
		if !ok {
			continue
		}
		if v, ok := Lookup(sub, path[i+1:]); ok {
			return v, true
		}
	}
	return nil, false
}

// AsFloat converts JSON-decoded numbers, and strings holding numbers, to float64.
func AsFloat(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int32:
		return float64(t), true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// AsInt converts like AsFloat and truncates towards zero.
func AsInt(v interface{}) (int64, bool) {
	if i, ok := v.(int64); ok {
		return i, true
	}
	f, ok := AsFloat(v)
	return int64(f), ok
}

// AsTime parses timestamp strings in RFC3339 or common "date time" layouts (UTC unless an offset is given)
// and numbers holding epoch milliseconds.
func AsTime(v interface{}) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
		return time.Time{}, false
	default:
		ms, ok := AsFloat(t)
		if !ok {
			return time.Time{}, false
		}
		return time.UnixMilli(int64(ms)).UTC(), true
	}
}
