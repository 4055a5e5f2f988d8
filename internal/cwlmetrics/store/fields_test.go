package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLookup(t *testing.T) {
	source := map[string]interface{}{
		"container": map[string]interface{}{
			"process": map[string]interface{}{"id": "nested"},
		},
		"docker_container_cpu.usage_percent": 12.5,
		"flat":                               nil,
	}
	tests := map[string]struct {
		path     string
		expected interface{}
		found    bool
	}{
		"nested":         {path: "container.process.id", expected: "nested", found: true},
		"dotted literal": {path: "docker_container_cpu.usage_percent", expected: 12.5, found: true},
		"null value":     {path: "flat", expected: nil, found: true},
		"missing":        {path: "container.process.image", found: false},
		"through scalar": {path: "flat.x", found: false},
	}
	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			v, ok := Lookup(source, tc.path)
			assert.Equal(t, tc.found, ok)
			assert.Equal(t, tc.expected, v)
		})
	}
	_, ok := Lookup(nil, "a")
	assert.False(t, ok)
}

func TestAsFloat(t *testing.T) {
	for _, v := range []interface{}{10.0, float32(10), 10, int32(10), int64(10), json.Number("10"), " 10 "} {
		f, ok := AsFloat(v)
		assert.True(t, ok, "%T", v)
		assert.Equal(t, 10.0, f, "%T", v)
	}
	_, ok := AsFloat("ten")
	assert.False(t, ok)
	_, ok = AsFloat(nil)
	assert.False(t, ok)
	_, ok = AsFloat(map[string]interface{}{})
	assert.False(t, ok)
}

func TestAsInt(t *testing.T) {
	i, ok := AsInt(int64(1) << 40)
	assert.True(t, ok)
	assert.Equal(t, int64(1)<<40, i)
	i, ok = AsInt(3.9)
	assert.True(t, ok)
	assert.Equal(t, int64(3), i)
}

func TestAsTime(t *testing.T) {
	expected := time.Date(2024, 1, 1, 0, 0, 10, 0, time.UTC)
	tests := map[string]interface{}{
		"rfc3339":        "2024-01-01T00:00:10Z",
		"rfc3339 nano":   "2024-01-01T00:00:10.000000000Z",
		"offset":         "2024-01-01T09:00:10+09:00",
		"no zone":        "2024-01-01T00:00:10",
		"space":          "2024-01-01 00:00:10",
		"space zone":     "2024-01-01 00:00:10 +0000",
		"epoch millis":   int64(1704067210000),
		"float millis":   1704067210000.0,
		"already parsed": expected,
	}
	for name, v := range tests {
		t.Run(name, func(t *testing.T) {
			ts, ok := AsTime(v)
			assert.True(t, ok)
			assert.True(t, expected.Equal(ts), "got %s", ts)
		})
	}
	_, ok := AsTime("not a time")
	assert.False(t, ok)
	_, ok = AsTime(nil)
	assert.False(t, ok)
}
